package generator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanshika/separation/internal/dataset"
)

// File names the loader expects by default.
const (
	PlayersFile   = "player_profiles.csv"
	TeammatesFile = "player_teammates_played_with.csv"
)

var playerHeader = []string{
	dataset.ColPlayerID,
	dataset.ColPlayerName,
	dataset.ColDateOfBirth,
	dataset.ColCurrentClub,
	dataset.ColCitizenship,
	dataset.ColPosition,
	dataset.ColCountryOfBirth,
}

var teammateHeader = []string{
	dataset.ColPlayerID,
	dataset.ColTeammateID,
	dataset.ColMinutes,
	dataset.ColJointGoals,
}

// WriteDataset serializes the dataset into the two CSV files under dir.
func WriteDataset(ds Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	players := make([][]string, 0, len(ds.Players))
	for _, p := range ds.Players {
		players = append(players, []string{p.PlayerID, p.Name, p.DateOfBirth, p.Club, p.Citizenship, p.Position, p.CountryOfBirth})
	}
	if err := writeCSV(filepath.Join(dir, PlayersFile), playerHeader, players); err != nil {
		return err
	}

	teammates := make([][]string, 0, len(ds.Teammates))
	for _, t := range ds.Teammates {
		teammates = append(teammates, []string{t.PlayerID, t.TeammateID, t.Minutes, t.JointGoals})
	}
	return writeCSV(filepath.Join(dir, TeammatesFile), teammateHeader, teammates)
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows for %s: %w", path, err)
	}
	return nil
}
