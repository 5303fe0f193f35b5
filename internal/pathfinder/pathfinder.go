// Package pathfinder computes unweighted shortest teammate chains.
package pathfinder

import (
	"errors"

	"github.com/vanshika/separation/internal/domain"
)

// ErrNotFound indicates the two players sit in disconnected components.
var ErrNotFound = errors.New("no connection between players")

// FindPath returns a shortest path from start to end using breadth-first search.
//
// When several shortest paths exist, which one is returned depends on map
// iteration order; only its length is guaranteed.
func FindPath(start, end domain.PlayerID, adj domain.Adjacency) (domain.Path, error) {
	if start == end {
		return domain.Path{start}, nil
	}

	parent := map[domain.PlayerID]domain.PlayerID{}
	visited := map[domain.PlayerID]struct{}{start: {}}
	queue := []domain.PlayerID{start}

	for head := 0; head < len(queue); head++ {
		current := queue[head]
		for next := range adj.Neighbors(current) {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			parent[next] = current
			if next == end {
				return reconstruct(parent, start, end), nil
			}
			queue = append(queue, next)
		}
	}

	return nil, ErrNotFound
}

// Distance returns the degrees of separation, or -1 when unreachable.
func Distance(start, end domain.PlayerID, adj domain.Adjacency) int {
	path, err := FindPath(start, end, adj)
	if err != nil {
		return -1
	}
	return path.Degrees()
}

func reconstruct(parent map[domain.PlayerID]domain.PlayerID, start, end domain.PlayerID) domain.Path {
	var reversed domain.Path
	for cur := end; ; cur = parent[cur] {
		reversed = append(reversed, cur)
		if cur == start {
			break
		}
	}
	path := make(domain.Path, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}
