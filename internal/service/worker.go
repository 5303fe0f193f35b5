package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/repository"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// GraphWriter is the storage contract required by the bulk ingestor.
type GraphWriter interface {
	UpsertPlayers(ctx context.Context, players []repository.PlayerNode) error
	UpsertTeammates(ctx context.Context, links []repository.TeammateLink) error
}

// DefaultBatchSize is the number of rows sent per write when none is configured.
const DefaultBatchSize = 500

// BulkIngestor pushes a loaded snapshot into the graph database using a worker pool.
type BulkIngestor struct {
	writer    GraphWriter
	workers   int
	batchSize int
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(writer GraphWriter, workers, batchSize int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BulkIngestor{
		writer:    writer,
		workers:   workers,
		batchSize: batchSize,
	}
}

// IngestSnapshot writes every player, then every undirected teammate link once.
// Players go first so links never create nodes without properties.
func (bi *BulkIngestor) IngestSnapshot(ctx context.Context, snap *dataset.Snapshot) error {
	if err := bi.IngestPlayers(ctx, PlayerNodes(snap)); err != nil {
		return err
	}
	return bi.IngestTeammates(ctx, TeammateLinks(snap))
}

// IngestPlayers upserts player nodes concurrently in batches.
func (bi *BulkIngestor) IngestPlayers(ctx context.Context, players []repository.PlayerNode) error {
	batches := chunk(players, bi.batchSize)
	return bi.run(ctx, len(batches), func(idx int) error {
		return bi.writer.UpsertPlayers(ctx, batches[idx])
	})
}

// IngestTeammates upserts teammate links concurrently in batches.
func (bi *BulkIngestor) IngestTeammates(ctx context.Context, links []repository.TeammateLink) error {
	batches := chunk(links, bi.batchSize)
	return bi.run(ctx, len(batches), func(idx int) error {
		return bi.writer.UpsertTeammates(ctx, batches[idx])
	})
}

// PlayerNodes lists the players of snap in id order.
func PlayerNodes(snap *dataset.Snapshot) []repository.PlayerNode {
	ids := make([]domain.PlayerID, 0, len(snap.Details))
	for id := range snap.Details {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]repository.PlayerNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, repository.PlayerNode{
			ID:         id,
			Display:    snap.IDToDisplay[id],
			SourceName: snap.SourceNames[id],
			Details:    snap.Details[id],
		})
	}
	return out
}

// TeammateLinks lists each undirected edge of snap once, smaller id first.
// Self links are included.
func TeammateLinks(snap *dataset.Snapshot) []repository.TeammateLink {
	var out []repository.TeammateLink
	for a, neighbors := range snap.Adjacency {
		for b := range neighbors {
			if a > b {
				continue
			}
			st, _ := snap.Stats(a, b)
			out = append(out, repository.TeammateLink{A: a, B: b, Stats: st})
		}
	}
	slices.SortFunc(out, func(x, y repository.TeammateLink) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
