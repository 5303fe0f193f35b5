package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/separation/internal/logging"
)

// Column names of the player attributes table.
const (
	ColPlayerID       = "player_id"
	ColPlayerName     = "player_name"
	ColDateOfBirth    = "date_of_birth"
	ColCurrentClub    = "current_club_name"
	ColCitizenship    = "citizenship"
	ColPosition       = "position"
	ColCountryOfBirth = "country_of_birth"
)

// Column names of the teammate pairs table.
const (
	ColTeammateID = "teammate_player_id"
	ColMinutes    = "minutes_played_with"
	ColJointGoals = "joint_goal_participation"
)

// CSVSource reads the two tables from CSV files with a header row.
type CSVSource struct {
	PlayersPath   string
	TeammatesPath string
	Logger        *slog.Logger
}

// NewCSVSource builds a CSV backed Source.
func NewCSVSource(playersPath, teammatesPath string, logger *slog.Logger) *CSVSource {
	return &CSVSource{
		PlayersPath:   playersPath,
		TeammatesPath: teammatesPath,
		Logger:        logging.OrDiscard(logger),
	}
}

// Describe identifies the source in logs.
func (s *CSVSource) Describe() string {
	return fmt.Sprintf("csv:%s,%s", s.PlayersPath, s.TeammatesPath)
}

// Paths lists the files backing the source, for the reload watcher.
func (s *CSVSource) Paths() []string {
	return []string{s.PlayersPath, s.TeammatesPath}
}

// Read loads both tables concurrently. A missing file fails the whole read; bad rows do not.
func (s *CSVSource) Read(ctx context.Context) (Tables, error) {
	var tables Tables
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := readTable(ctx, s.PlayersPath, []string{ColPlayerID, ColPlayerName}, s.logger())
		if err != nil {
			return fmt.Errorf("read players: %w", err)
		}
		tables.Players = make([]PlayerRecord, 0, len(rows))
		for _, row := range rows {
			tables.Players = append(tables.Players, PlayerRecord{
				PlayerID:       row.get(ColPlayerID),
				Name:           row.get(ColPlayerName),
				DateOfBirth:    row.get(ColDateOfBirth),
				Club:           row.get(ColCurrentClub),
				Citizenship:    row.get(ColCitizenship),
				Position:       row.get(ColPosition),
				CountryOfBirth: row.get(ColCountryOfBirth),
			})
		}
		return nil
	})

	g.Go(func() error {
		rows, err := readTable(ctx, s.TeammatesPath, []string{ColPlayerID, ColTeammateID}, s.logger())
		if err != nil {
			return fmt.Errorf("read teammates: %w", err)
		}
		tables.Teammates = make([]TeammateRecord, 0, len(rows))
		for _, row := range rows {
			tables.Teammates = append(tables.Teammates, TeammateRecord{
				PlayerID:   row.get(ColPlayerID),
				TeammateID: row.get(ColTeammateID),
				Minutes:    row.get(ColMinutes),
				JointGoals: row.get(ColJointGoals),
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

func (s *CSVSource) logger() *slog.Logger {
	return logging.OrDiscard(s.Logger)
}

type csvRow struct {
	header map[string]int
	fields []string
}

func (r csvRow) get(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return r.fields[idx]
}

func readTable(ctx context.Context, path string, required []string, logger *slog.Logger) ([]csvRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return parseTable(ctx, file, path, required, logger)
}

func parseTable(ctx context.Context, r io.Reader, name string, required []string, logger *slog.Logger) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerFields, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}
	header := make(map[string]int, len(headerFields))
	for i, col := range headerFields {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		header[col] = i
	}

	for _, col := range required {
		if _, ok := header[col]; !ok {
			// Every row lacks a required value, so every row is dropped.
			logger.Warn("required column missing, table treated as empty", "file", name, "column", col)
			return nil, nil
		}
	}

	var (
		rows    []csvRow
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		rows = append(rows, csvRow{header: header, fields: fields})
	}

	if skipped > 0 {
		logger.Warn("skipped malformed csv rows", "file", name, "rows", skipped)
	}
	return rows, nil
}
