package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/separation/internal/generator"
)

var datagenFlags = generator.DefaultConfig()
var datagenOutputDir string

var datagenCmd = &cobra.Command{
	Use:   "datagen",
	Short: "Write a synthetic player and teammate dataset as CSV",
	Args:  cobra.NoArgs,
	RunE:  runDatagen,
}

func init() {
	f := datagenCmd.Flags()
	f.IntVar(&datagenFlags.NumPlayers, "players", datagenFlags.NumPlayers, "number of players to generate")
	f.IntVar(&datagenFlags.NumClubs, "clubs", datagenFlags.NumClubs, "number of clubs")
	f.IntVar(&datagenFlags.Seasons, "seasons", datagenFlags.Seasons, "number of simulated seasons")
	f.Float64Var(&datagenFlags.PairChance, "pair-chance", datagenFlags.PairChance, "probability that two squad mates played together")
	f.Float64Var(&datagenFlags.MissingClubChance, "missing-club-chance", datagenFlags.MissingClubChance, "probability of a blank current club")
	f.Float64Var(&datagenFlags.BadDOBChance, "bad-dob-chance", datagenFlags.BadDOBChance, "probability of an unparsable birth date")
	f.Int64Var(&datagenFlags.Seed, "seed", datagenFlags.Seed, "random seed for deterministic generation")
	f.StringVar(&datagenOutputDir, "output-dir", "data", "directory to write the CSV files into")
}

func runDatagen(cmd *cobra.Command, _ []string) error {
	cfg := datagenFlags
	cfg.PairChance = clampProbability(cfg.PairChance)
	cfg.MissingClubChance = clampProbability(cfg.MissingClubChance)
	cfg.BadDOBChance = clampProbability(cfg.BadDOBChance)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	ds, err := generator.New(cfg).Generate(ctx)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if err := generator.WriteDataset(ds, datagenOutputDir); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d players and %d teammate rows into %s\n", len(ds.Players), len(ds.Teammates), datagenOutputDir)
	return nil
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
