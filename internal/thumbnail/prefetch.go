package thumbnail

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/metrics"
	"photo-viewer/internal/workers"
)

// Sink receives thumbnails for registered items. *loader.Loader implements
// it.
type Sink interface {
	Info(id item.ID) (item.Info, bool)
	SetThumb(id item.ID, thumb *item.Raster) bool
}

// RunRecorder remembers when the last prefetch finished.
// *database.Database implements it.
type RunRecorder interface {
	SetLastThumbnailRun(ctx context.Context, t time.Time) error
}

// Throttle delays bulk work under memory pressure. *memory.Monitor
// implements it.
type Throttle interface {
	WaitIfPaused(ctx context.Context) error
}

// PrefetchResult summarises one prefetch pass.
type PrefetchResult struct {
	Generated int
	Failed    int
	Duration  time.Duration
}

// SetThrottle makes Prefetch wait on t before each item.
func (g *Generator) SetThrottle(t Throttle) {
	g.throttle = t
}

// Prefetch fills the thumbnails of ids using a pool of workers. Items
// unknown to sink are skipped; a failure is published as a nil thumbnail.
// rec may be nil.
func (g *Generator) Prefetch(ctx context.Context, src Source, sink Sink, ids []item.ID, rec RunRecorder) (PrefetchResult, error) {
	if !g.enabled {
		return PrefetchResult{}, ErrDisabled
	}

	metrics.ThumbnailGeneratorRunning.Set(1)
	defer metrics.ThumbnailGeneratorRunning.Set(0)

	start := time.Now()
	var generated, failed atomic.Int64
	n := workers.ForMixed(0)
	logging.Debug("Thumbnail prefetch: %d items, %d workers", len(ids), n)

	workers.Run(ctx, n, ids, func(ctx context.Context, id item.ID) {
		if g.throttle != nil {
			if err := g.throttle.WaitIfPaused(ctx); err != nil {
				return
			}
		}
		info, ok := sink.Info(id)
		if !ok {
			return
		}
		thumb, err := g.Get(src, info, func() bool { return ctx.Err() == nil })
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, ErrFailed) {
				logging.Debug("Thumbnail for %s failed: %v", info.Filename, err)
			}
			failed.Add(1)
			sink.SetThumb(id, nil)
			return
		}
		if sink.SetThumb(id, thumb) {
			generated.Add(1)
		}
	})

	res := PrefetchResult{
		Generated: int(generated.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if rec != nil {
		if err := rec.SetLastThumbnailRun(ctx, time.Now()); err != nil {
			logging.Warn("Failed to record thumbnail run: %v", err)
		}
	}
	logging.Info("Thumbnail prefetch complete: %d ready, %d failed in %v", res.Generated, res.Failed, res.Duration)
	return res, nil
}
