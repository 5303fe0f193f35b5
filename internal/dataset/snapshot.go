package dataset

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vanshika/separation/internal/domain"
)

// PlayerRecord is one raw row of the player attributes table.
type PlayerRecord struct {
	PlayerID       string
	Name           string
	DateOfBirth    string
	Club           string
	Citizenship    string
	Position       string
	CountryOfBirth string
}

// TeammateRecord is one raw row of the teammate pairs table.
type TeammateRecord struct {
	PlayerID   string
	TeammateID string
	Minutes    string
	JointGoals string
}

// Tables bundles the two raw tables produced by a Source.
type Tables struct {
	Players   []PlayerRecord
	Teammates []TeammateRecord
}

// Source yields the raw tables the snapshot is built from.
type Source interface {
	Read(ctx context.Context) (Tables, error)
	Describe() string
}

// Snapshot is the immutable result of one dataset load. Nothing mutates it after Build.
type Snapshot struct {
	DisplayNames []string
	DisplayToID  map[string]domain.PlayerID
	IDToDisplay  map[domain.PlayerID]string
	IDToName     map[domain.PlayerID]string
	// SourceNames keeps the uncleaned name so exports can be rebuilt identically.
	SourceNames  map[domain.PlayerID]string
	Details      map[domain.PlayerID]domain.PlayerDetails
	Adjacency    domain.Adjacency
	PairStats    map[domain.PairKey]domain.TeammateStats

	LoadedAt     time.Time
	DroppedRows  int
	SourceDetail string
}

// Summary holds the headline counts of a snapshot.
type Summary struct {
	Players     int
	Connections int
	LoadedAt    time.Time
}

// Summary counts players in the display list and undirected teammate links.
func (s *Snapshot) Summary() Summary {
	return Summary{
		Players:     len(s.DisplayNames),
		Connections: s.Adjacency.EdgeCount(),
		LoadedAt:    s.LoadedAt,
	}
}

// Lookup resolves a display string to a player id.
func (s *Snapshot) Lookup(display string) (domain.PlayerID, bool) {
	id, ok := s.DisplayToID[display]
	return id, ok
}

// Name returns the cleaned name of a player, falling back to the numeric id.
func (s *Snapshot) Name(id domain.PlayerID) string {
	if name, ok := s.IDToName[id]; ok {
		return name
	}
	return formatID(id)
}

// Stats returns the recorded teammate stats for the ordered pair.
func (s *Snapshot) Stats(a, b domain.PlayerID) (domain.TeammateStats, bool) {
	st, ok := s.PairStats[domain.PairKey{A: a, B: b}]
	return st, ok
}

// CandidateIDs returns the ids behind the display list, in display order.
func (s *Snapshot) CandidateIDs() []domain.PlayerID {
	ids := make([]domain.PlayerID, 0, len(s.DisplayNames))
	for _, display := range s.DisplayNames {
		if id, ok := s.DisplayToID[display]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Search returns up to limit players whose display string contains query (case-insensitive).
func (s *Snapshot) Search(query string, limit int) []domain.PlayerSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	if limit <= 0 {
		limit = 20
	}
	var out []domain.PlayerSummary
	for _, display := range s.DisplayNames {
		if query != "" && !strings.Contains(strings.ToLower(display), query) {
			continue
		}
		id := s.DisplayToID[display]
		out = append(out, domain.PlayerSummary{
			ID:          id,
			Name:        s.Name(id),
			Display:     display,
			Club:        s.Details[id].Club,
			Connections: s.Adjacency.Degree(id),
		})
		if len(out) == limit {
			break
		}
	}
	return out
}

// Load reads both tables from src and builds a snapshot aged against now.
func Load(ctx context.Context, src Source, now time.Time) (*Snapshot, error) {
	tables, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	snap := Build(tables, now)
	snap.SourceDetail = src.Describe()
	return snap, nil
}

// Build turns raw tables into a snapshot. Rows without a usable id or name are dropped.
func Build(tables Tables, now time.Time) *Snapshot {
	snap := &Snapshot{
		DisplayToID: make(map[string]domain.PlayerID, len(tables.Players)),
		IDToDisplay: make(map[domain.PlayerID]string, len(tables.Players)),
		IDToName:    make(map[domain.PlayerID]string, len(tables.Players)),
		SourceNames: make(map[domain.PlayerID]string, len(tables.Players)),
		Details:     make(map[domain.PlayerID]domain.PlayerDetails, len(tables.Players)),
		Adjacency:   make(domain.Adjacency),
		PairStats:   make(map[domain.PairKey]domain.TeammateStats, len(tables.Teammates)*2),
		LoadedAt:    now,
	}
	year := now.Year()

	unique := make(map[string]struct{}, len(tables.Players))
	for _, row := range tables.Players {
		id, ok := parseID(row.PlayerID)
		if !ok {
			snap.DroppedRows++
			continue
		}
		raw := strings.TrimSpace(row.Name)
		if raw == "" || isMissingToken(raw) {
			snap.DroppedRows++
			continue
		}
		name := CleanName(raw)
		if name == "" {
			snap.DroppedRows++
			continue
		}

		age := ComputeAge(row.DateOfBirth, year)
		var birthYear *int
		if by, ok := BirthYear(row.DateOfBirth); ok {
			birthYear = &by
		}
		club := valueOrUnknown(row.Club)
		display := DisplayName(name, club, age)

		unique[display] = struct{}{}
		snap.DisplayToID[display] = id
		snap.IDToDisplay[id] = display
		snap.IDToName[id] = name
		snap.SourceNames[id] = raw
		snap.Details[id] = domain.PlayerDetails{
			Name:           name,
			Club:           club,
			Nationality:    valueOrUnknown(row.Citizenship),
			Position:       valueOrUnknown(row.Position),
			CountryOfBirth: valueOrUnknown(row.CountryOfBirth),
			Age:            age,
			BirthYear:      birthYear,
		}
	}

	snap.DisplayNames = make([]string, 0, len(unique))
	for display := range unique {
		snap.DisplayNames = append(snap.DisplayNames, display)
	}
	sort.Strings(snap.DisplayNames)

	for _, row := range tables.Teammates {
		a, okA := parseID(row.PlayerID)
		b, okB := parseID(row.TeammateID)
		if !okA || !okB {
			snap.DroppedRows++
			continue
		}
		snap.Adjacency.Connect(a, b)

		// Duplicate rows for the same pair overwrite earlier ones; nothing is summed.
		stats := domain.TeammateStats{
			Minutes:    parseOptionalFloat(row.Minutes),
			JointGoals: parseOptionalFloat(row.JointGoals),
		}
		snap.PairStats[domain.PairKey{A: a, B: b}] = stats
		snap.PairStats[domain.PairKey{A: b, B: a}] = stats
	}

	return snap
}
