package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobsync/internal/model"
)

// FetchAll fetches every source concurrently (at most concurrency at a time)
// and returns the combined items. A failing source is logged and contributes
// zero items; it never aborts the others. A panicking source is recovered
// and treated the same way. Ordering across sources is not
// guaranteed.
func FetchAll(ctx context.Context, fetchers []model.SourceFetcher, concurrency int, logger *slog.Logger) []model.RawItem {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu  sync.Mutex
		all []model.RawItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, f := range fetchers {
		if gctx.Err() != nil {
			break
		}
		f := f
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Warn("source fetch panicked, skipping",
						"source", f.Name(),
						"panic", fmt.Sprint(r),
					)
				}
			}()

			items, err := f.FetchItems(gctx)
			if err != nil {
				logger.Warn("source fetch failed, skipping",
					"source", f.Name(),
					"error", err,
				)
				return nil
			}
			logger.Debug("source fetched", "source", f.Name(), "items", len(items))

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	return all
}
