package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// ErrWorkerFailed is returned when a worker of a partitioned stage panics.
var ErrWorkerFailed = errors.New("core: worker failed")

// PartitionFunc processes the half-open item range [start, stop).
// Long loops should return early once ctx is done; another worker has failed by then.
type PartitionFunc func(ctx context.Context, start, stop int) error

// Workers returns the number of workers to use for a requested count.
// Zero or negative requests fall back to the number of CPUs.
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.NumCPU()
	}
	return requested
}

// Distribute returns the [start, stop) range of items handled by worker i out of n.
// Every worker gets items/n items and the last one also takes the remainder.
func Distribute(items, workers, i int) (start, stop int) {
	perWorker := items / workers
	start = i * perWorker
	if i == workers-1 {
		stop = items
	} else {
		stop = perWorker * (i + 1)
	}
	return start, stop
}

// RunPartitioned splits items over the given number of workers and blocks until all of them finish.
// A worker that panics or returns an error fails the whole stage; the partial output must be discarded.
func RunPartitioned(items, workers int, fn PartitionFunc) error {
	workers = Workers(workers)
	g, ctx := errgroup.WithContext(context.Background())

	for i := 0; i < workers; i++ {
		start, stop := Distribute(items, workers, i)
		if start >= stop {
			continue
		}
		log.Debug().Msgf("Worker %d assigned items [%d, %d)", i, start, stop)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: items [%d, %d): %v", ErrWorkerFailed, start, stop, r)
				}
			}()
			return fn(ctx, start, stop)
		})
	}

	return g.Wait()
}

// NewProgressBar creates a progress bar writing to w.
// A nil writer gives a silent bar so callers can always call Add.
func NewProgressBar(max int, w io.Writer, description string) *progressbar.ProgressBar {
	if w == nil {
		return progressbar.DefaultSilent(int64(max), description)
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(w, "\n") }),
	)
}
