package dataset

import (
	"context"
	"fmt"
)

// GraphExporter is the slice of the graph repository needed to rebuild the tables.
type GraphExporter interface {
	ExportPlayers(ctx context.Context) ([]PlayerRecord, error)
	ExportTeammates(ctx context.Context) ([]TeammateRecord, error)
}

// GraphSource reads the tables back from a previously ingested graph database.
type GraphSource struct {
	exporter GraphExporter
	label    string
}

// NewGraphSource wraps exporter. label identifies the database in logs.
func NewGraphSource(exporter GraphExporter, label string) *GraphSource {
	return &GraphSource{exporter: exporter, label: label}
}

// Describe identifies the source in logs.
func (s *GraphSource) Describe() string {
	return "graph:" + s.label
}

// Read exports players and teammate links.
func (s *GraphSource) Read(ctx context.Context) (Tables, error) {
	players, err := s.exporter.ExportPlayers(ctx)
	if err != nil {
		return Tables{}, fmt.Errorf("export players: %w", err)
	}
	teammates, err := s.exporter.ExportTeammates(ctx)
	if err != nil {
		return Tables{}, fmt.Errorf("export teammates: %w", err)
	}
	return Tables{Players: players, Teammates: teammates}, nil
}
