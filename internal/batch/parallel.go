package batch

import (
	"context"
	"sync"
)

type imageJob struct {
	index int
	name  string
}

type imageResult struct {
	index  int
	record *ImageRecord
}

// processAll processes names with the given number of workers and returns the
// records in input order. Cancellation discards all results.
func (p *processor) processAll(ctx context.Context, dir string, names []string, workers int) ([]ImageRecord, error) {
	ordered := make([]*ImageRecord, len(names))

	if workers <= 1 || len(names) <= 1 {
		for i, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ordered[i] = p.processImage(ctx, dir, name)
		}
	} else {
		p.processParallel(ctx, dir, names, workers, ordered)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]ImageRecord, 0, len(names))
	for _, r := range ordered {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records, nil
}

func (p *processor) processParallel(ctx context.Context, dir string, names []string, workers int, out []*ImageRecord) {
	if workers > len(names) {
		workers = len(names)
	}
	jobs := make(chan imageJob)
	results := make(chan imageResult, len(names))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, dir, jobs, results)
		}()
	}

	go func() {
		defer close(jobs)
		for i, name := range names {
			select {
			case jobs <- imageJob{index: i, name: name}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		out[r.index] = r.record
	}
}

func (p *processor) worker(ctx context.Context, dir string, jobs <-chan imageJob, results chan<- imageResult) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			results <- imageResult{index: job.index, record: p.processImage(ctx, dir, job.name)}
		case <-ctx.Done():
			return
		}
	}
}
