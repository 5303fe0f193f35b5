package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vanshika/separation/internal/config"
	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/graph"
	"github.com/vanshika/separation/internal/logging"
	"github.com/vanshika/separation/internal/metrics"
	"github.com/vanshika/separation/internal/puzzle"
	"github.com/vanshika/separation/internal/repository"
	"github.com/vanshika/separation/internal/service"
)

// app holds what PersistentPreRunE resolved for the subcommands.
var app struct {
	cfg    config.Config
	logger *slog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "separation",
	Short: "Find the shortest teammate chain between football players",
	Long: `separation loads a player table and a teammate table, builds the
teammate graph in memory and answers "degrees of separation" questions,
either from the command line, as an interactive quiz, or over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		app.cfg = cfg
		app.logger = logging.New(cfg.Logging).With("command", cmd.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, pathCmd, quizCmd, ingestCmd, datagenCmd)
}

// openGraph connects to Neo4j when GRAPH_URI is set; a nil client means no graph.
func openGraph(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		if cfg.Dataset.Source == config.SourceGraph {
			return nil, graph.ErrMissingURI
		}
		return nil, nil
	}
	return graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
}

func closeGraph(client graph.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(context.Background()); err != nil {
		logger.Warn("closing graph client failed", "error", err)
	}
}

// buildSource picks the dataset source named by DATASET_SOURCE.
func buildSource(cfg config.Config, logger *slog.Logger, client graph.Client) dataset.Source {
	if cfg.Dataset.Source == config.SourceGraph && client != nil {
		label := cfg.Graph.URI
		if cfg.Graph.Database != "" {
			label += "/" + cfg.Graph.Database
		}
		return dataset.NewGraphSource(repository.New(client), label)
	}
	return dataset.NewCSVSource(cfg.Dataset.PlayersPath, cfg.Dataset.TeammatesPath, logger)
}

func buildGame(cfg config.Config, logger *slog.Logger, m *metrics.Metrics, store *dataset.Store) (*service.Game, error) {
	profiles, err := config.LoadProfiles(cfg.Quiz.ProfilesPath)
	if err != nil {
		return nil, err
	}
	generator := puzzle.NewGenerator(
		puzzle.WithMaxAttempts(cfg.Quiz.MaxAttempts),
		puzzle.WithMinEligible(cfg.Quiz.MinEligible),
		puzzle.WithSeed(cfg.Quiz.Seed),
		puzzle.WithLogger(logger),
		puzzle.WithMetrics(m),
	)
	return service.NewGame(store, generator, profiles,
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithMaxHintLevels(cfg.Quiz.MaxHintLevels),
	), nil
}
