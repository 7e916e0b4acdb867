package syncer

import (
	"context"
	"sync"

	"subsync/internal/logging"
)

// DefaultWorkers is the batch concurrency used when none is requested.
const DefaultWorkers = 3

// BatchResult pairs a request with its outcome.
type BatchResult struct {
	Request Request
	Result  Result
	Err     error
}

// RunBatch syncs every request with at most workers runs in flight. Each run
// is sequential internally; results come back in request order. Requests not
// yet started when ctx is canceled report the context error.
func (e *Engine) RunBatch(ctx context.Context, reqs []Request, workers int) []BatchResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]BatchResult, len(reqs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, req := range reqs {
		results[i].Request = req
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i].Result, results[i].Err = e.Sync(ctx, req)
		}()
	}
	wg.Wait()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	e.logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("runs", len(reqs)),
		logging.Int("failed", failed),
		logging.Int("workers", workers),
	)
	return results
}
