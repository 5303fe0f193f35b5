package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/metrics"
	"github.com/vanshika/separation/internal/pathfinder"
	"github.com/vanshika/separation/internal/repository"
	"github.com/vanshika/separation/internal/service"
)

var (
	pathByID       bool
	pathCrossCheck bool
)

var pathCmd = &cobra.Command{
	Use:   "path FROM TO",
	Short: "Print the shortest teammate chain between two players",
	Long: `FROM and TO are display strings as listed by the loader, e.g.
"Miroslav Klose (Unknown, 46 yrs)". With --ids they are numeric player ids.`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

func init() {
	pathCmd.Flags().BoolVar(&pathByID, "ids", false, "treat FROM and TO as player ids")
	pathCmd.Flags().BoolVar(&pathCrossCheck, "cross-check", false, "compare the chain length with Neo4j shortestPath (needs GRAPH_URI)")
}

func runPath(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger := app.cfg, app.logger

	graphClient, err := openGraph(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	defer closeGraph(graphClient, logger)

	m := metrics.New()
	store := dataset.NewStore(buildSource(cfg, logger, graphClient), dataset.WithLogger(logger), dataset.WithMetrics(m))
	game, err := buildGame(cfg, logger, m, store)
	if err != nil {
		return err
	}

	var conn service.Connection
	if pathByID {
		from, errFrom := strconv.ParseInt(args[0], 10, 64)
		to, errTo := strconv.ParseInt(args[1], 10, 64)
		if errFrom != nil || errTo != nil {
			return errors.New("--ids expects two integer player ids")
		}
		conn, err = game.FindPath(ctx, domain.PlayerID(from), domain.PlayerID(to))
	} else {
		conn, err = game.Explore(ctx, args[0], args[1])
	}
	out := cmd.OutOrStdout()
	if errors.Is(err, pathfinder.ErrNotFound) {
		fmt.Fprintln(out, "No connection found between these players.")
		return nil
	}
	if err != nil {
		return err
	}
	printConnection(out, conn)

	if pathCrossCheck {
		if graphClient == nil {
			return errors.New("--cross-check needs GRAPH_URI")
		}
		dbPath, err := repository.New(graphClient).ShortestPathBetweenPlayers(ctx, conn.Start, conn.End)
		if err != nil {
			return fmt.Errorf("graph shortest path: %w", err)
		}
		if dbPath.Degrees() != conn.Degrees {
			return fmt.Errorf("graph database reports %d degrees, in-memory search found %d", dbPath.Degrees(), conn.Degrees)
		}
		fmt.Fprintf(out, "Neo4j agrees: %d degrees.\n", dbPath.Degrees())
	}
	return nil
}

func printConnection(w io.Writer, conn service.Connection) {
	suffix := "s"
	if conn.Degrees == 1 {
		suffix = ""
	}
	fmt.Fprintf(w, "%d degree%s of separation\n", conn.Degrees, suffix)
	for i, name := range conn.Names {
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
		if i < len(conn.Links) {
			if summary := conn.Links[i].Summary; summary != "" {
				fmt.Fprintf(w, "   played with (%s)\n", summary)
			} else {
				fmt.Fprintln(w, "   played with")
			}
		}
	}
}
