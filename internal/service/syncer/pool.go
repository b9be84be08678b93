package syncer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jgivc/musicsync/internal/config"
	"github.com/jgivc/musicsync/internal/entity"
	"github.com/jgivc/musicsync/internal/service/download"
)

type Processor interface {
	Process(ctx context.Context, item entity.RemoteItem, dir string) download.Result
}

// Pool runs a fixed number of workers over one batch of items.
type Pool struct {
	workers int
	proc    Processor
	log     *slog.Logger
}

func NewPool(workers int, proc Processor, log *slog.Logger) *Pool {
	return &Pool{
		workers: config.ClampWorkers(workers),
		proc:    proc,
		log:     log.With(slog.String("item", "Pool")),
	}
}

// Run dispatches items to the workers and returns their results in
// completion order. The channel is closed once every worker has exited.
// After ctx is cancelled no further items are processed; items already in a
// worker run to completion.
func (p *Pool) Run(ctx context.Context, items []entity.RemoteItem, dir string) <-chan download.Result {
	in := make(chan entity.RemoteItem)
	out := make(chan download.Result, len(items))

	workers := min(p.workers, max(len(items), 1))

	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go p.worker(ctx, n, dir, in, out, &wg)
	}

	go func() {
		defer close(in)

		for _, item := range items {
			if ctx.Err() != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			case in <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (p *Pool) worker(ctx context.Context, n int, dir string, in <-chan entity.RemoteItem, out chan<- download.Result, wg *sync.WaitGroup) {
	defer wg.Done()

	log := p.log.With(slog.Int("worker_id", n))
	log.Debug("Started")

	for item := range in {
		if ctx.Err() != nil {
			log.Debug("Interrupted, dropping item", slog.String("id", item.ID))

			continue
		}

		out <- p.proc.Process(ctx, item, dir)
	}

	log.Debug("Done")
}
