package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/graph"
	"github.com/vanshika/separation/internal/repository"
	"github.com/vanshika/separation/internal/service"
)

var (
	ingestWorkers   int
	ingestBatchSize int
	ingestPlayers   string
	ingestTeammates string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the CSV dataset into Neo4j",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.IntVar(&ingestWorkers, "workers", 4, "number of concurrent writers")
	f.IntVar(&ingestBatchSize, "batch-size", service.DefaultBatchSize, "rows per write transaction")
	f.StringVar(&ingestPlayers, "players", "", "player CSV (defaults to DATASET_PLAYERS_PATH)")
	f.StringVar(&ingestTeammates, "teammates", "", "teammate CSV (defaults to DATASET_TEAMMATES_PATH)")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, logger := app.cfg, app.logger

	if cfg.Graph.URI == "" {
		return graph.ErrMissingURI
	}
	playersPath := firstNonEmpty(ingestPlayers, cfg.Dataset.PlayersPath)
	teammatesPath := firstNonEmpty(ingestTeammates, cfg.Dataset.TeammatesPath)

	snap, err := dataset.Load(ctx, dataset.NewCSVSource(playersPath, teammatesPath, logger), time.Now())
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	summary := snap.Summary()
	if summary.Players == 0 {
		return errors.New("dataset has no players")
	}

	client, err := openGraph(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	defer closeGraph(client, logger)

	repo := repository.New(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	start := time.Now()
	if err := service.NewBulkIngestor(repo, ingestWorkers, ingestBatchSize).IngestSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	logger.Info("ingestion complete",
		"players", summary.Players,
		"connections", summary.Connections,
		"dropped_rows", snap.DroppedRows,
		"duration", time.Since(start).String(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d players and %d connections\n", summary.Players, summary.Connections)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
