package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/graph"
	"github.com/vanshika/separation/internal/pathfinder"
)

// PlayerNode is the graph representation of a loaded player. SourceName is the
// name as read, before the numeric disambiguator was stripped.
type PlayerNode struct {
	ID         domain.PlayerID
	Display    string
	SourceName string
	Details    domain.PlayerDetails
}

// TeammateLink is one undirected teammate relationship with its stats.
type TeammateLink struct {
	A     domain.PlayerID
	B     domain.PlayerID
	Stats domain.TeammateStats
}

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// EnsureSchema creates the uniqueness constraint the upserts rely on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.client.ExecuteWrite(ctx, playerConstraintCypher, nil); err != nil {
		return fmt.Errorf("ensure player constraint: %w", err)
	}
	return nil
}

// UpsertPlayers merges a batch of player nodes.
func (r *Repository) UpsertPlayers(ctx context.Context, players []PlayerNode) error {
	if len(players) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(players))
	for _, p := range players {
		rows = append(rows, map[string]any{
			"playerId": int64(p.ID),
			"props":    playerProperties(p),
		})
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertPlayersCypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("upsert %d players: %w", len(players), err)
	}
	return nil
}

// UpsertTeammates merges a batch of teammate links. The last write for a pair wins.
// Self links are kept, as the in-memory graph keeps them.
func (r *Repository) UpsertTeammates(ctx context.Context, links []TeammateLink) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(links))
	for _, l := range links {
		rows = append(rows, map[string]any{
			"a":          int64(l.A),
			"b":          int64(l.B),
			"minutes":    floatOrNil(l.Stats.Minutes),
			"jointGoals": floatOrNil(l.Stats.JointGoals),
		})
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertTeammatesCypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("upsert %d teammate links: %w", len(rows), err)
	}
	return nil
}

// ExportPlayers returns every stored player as a raw table row. The name is the
// stored source name, so rebuilding the snapshot cleans it exactly once.
func (r *Repository) ExportPlayers(ctx context.Context) ([]dataset.PlayerRecord, error) {
	res, err := r.client.ExecuteRead(ctx, exportPlayersCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export players query: %w", err)
	}
	out := make([]dataset.PlayerRecord, 0, len(res.Records))
	for _, record := range res.Records {
		id, ok := toInt64(record["playerId"])
		if !ok {
			continue
		}
		row := dataset.PlayerRecord{
			PlayerID:       strconv.FormatInt(id, 10),
			Name:           toString(record["name"]),
			Club:           toString(record["club"]),
			Citizenship:    toString(record["nationality"]),
			Position:       toString(record["position"]),
			CountryOfBirth: toString(record["countryOfBirth"]),
		}
		if year, ok := toInt64(record["birthYear"]); ok {
			row.DateOfBirth = strconv.FormatInt(year, 10)
		}
		out = append(out, row)
	}
	return out, nil
}

// ExportTeammates returns every stored teammate link as a raw table row.
func (r *Repository) ExportTeammates(ctx context.Context) ([]dataset.TeammateRecord, error) {
	res, err := r.client.ExecuteRead(ctx, exportTeammatesCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export teammates query: %w", err)
	}
	out := make([]dataset.TeammateRecord, 0, len(res.Records))
	for _, record := range res.Records {
		a, okA := toInt64(record["a"])
		b, okB := toInt64(record["b"])
		if !okA || !okB {
			continue
		}
		out = append(out, dataset.TeammateRecord{
			PlayerID:   strconv.FormatInt(a, 10),
			TeammateID: strconv.FormatInt(b, 10),
			Minutes:    formatOptional(record["minutes"]),
			JointGoals: formatOptional(record["jointGoals"]),
		})
	}
	return out, nil
}

// ShortestPathBetweenPlayers asks the database for a shortest teammate chain.
// It returns pathfinder.ErrNotFound when the players are not connected.
func (r *Repository) ShortestPathBetweenPlayers(ctx context.Context, sourceID, targetID domain.PlayerID) (domain.Path, error) {
	if sourceID == targetID {
		return domain.Path{sourceID}, nil
	}

	res, err := r.client.ExecuteRead(ctx, shortestPathCypher, map[string]any{
		"sourceId": int64(sourceID),
		"targetId": int64(targetID),
	})
	if err != nil {
		return nil, fmt.Errorf("shortest path query: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, pathfinder.ErrNotFound
	}

	raw, ok := res.Records[0]["ids"].([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("shortest path query returned no ids")
	}
	path := make(domain.Path, 0, len(raw))
	for _, v := range raw {
		id, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("shortest path query returned non-integer id %v", v)
		}
		path = append(path, domain.PlayerID(id))
	}
	return path, nil
}

func playerProperties(p PlayerNode) map[string]any {
	props := map[string]any{
		"name":           p.Details.Name,
		"sourceName":     sourceName(p),
		"display":        p.Display,
		"club":           p.Details.Club,
		"nationality":    p.Details.Nationality,
		"position":       p.Details.Position,
		"countryOfBirth": p.Details.CountryOfBirth,
	}
	if p.Details.BirthYear != nil {
		props["birthYear"] = int64(*p.Details.BirthYear)
	}
	return props
}

func sourceName(p PlayerNode) string {
	if p.SourceName != "" {
		return p.SourceName
	}
	return p.Details.Name
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func formatOptional(val any) string {
	switch v := val.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), v == float64(int64(v))
	default:
		return 0, false
	}
}

const playerConstraintCypher = `
CREATE CONSTRAINT player_id IF NOT EXISTS
FOR (p:Player) REQUIRE p.playerId IS UNIQUE
`

const upsertPlayersCypher = `
UNWIND $rows AS row
MERGE (p:Player {playerId: row.playerId})
SET p += row.props
`

const upsertTeammatesCypher = `
UNWIND $rows AS row
MERGE (a:Player {playerId: row.a})
MERGE (b:Player {playerId: row.b})
MERGE (a)-[t:PLAYED_WITH]-(b)
SET t.minutes = row.minutes,
    t.jointGoals = row.jointGoals
`

const exportPlayersCypher = `
MATCH (p:Player)
WHERE p.name IS NOT NULL
RETURN p.playerId AS playerId,
       coalesce(p.sourceName, p.name) AS name,
       p.club AS club,
       p.nationality AS nationality,
       p.position AS position,
       p.countryOfBirth AS countryOfBirth,
       p.birthYear AS birthYear
ORDER BY p.playerId
`

const exportTeammatesCypher = `
MATCH (a:Player)-[t:PLAYED_WITH]->(b:Player)
RETURN a.playerId AS a,
       b.playerId AS b,
       t.minutes AS minutes,
       t.jointGoals AS jointGoals
`

const shortestPathCypher = `
MATCH (source:Player {playerId: $sourceId}), (target:Player {playerId: $targetId})
MATCH path = shortestPath((source)-[:PLAYED_WITH*]-(target))
RETURN [n IN nodes(path) | n.playerId] AS ids
`
