package app

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/term"

	"photo-viewer/internal/item"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/render"
	"photo-viewer/internal/uiqueue"
	"photo-viewer/internal/viewer"
)

// Terminal size used by -print when stdout is not a terminal.
const (
	fallbackColumns = 80
	fallbackRows    = 24
)

// runHeadless renders the first image of the collection once, with the
// calling goroutine acting as the UI thread.
func runHeadless(ctx context.Context, e *env, paths []string, size image.Point, opts Options) error {
	queue := uiqueue.New()
	l := loader.New(e.loaderOptions(queue, opts.ShowInfo))
	defer quitLoader(l)

	coll, err := openCollection(e, paths, l, nil)
	if err != nil {
		return err
	}
	id := coll.First()
	if id.IsNil() {
		return ErrNoImages
	}

	r, err := render.New(render.DefaultStyle())
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			logging.Warn("Failed to close renderer: %v", cerr)
		}
	}()

	ctrl := viewer.New(l, e.viewerOptions())
	img, err := renderItem(ctx, queue, l, ctrl, r, coll, id, size, opts)
	if err != nil {
		return err
	}

	if opts.Snapshot != "" {
		if err := imaging.Save(img, opts.Snapshot); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		logging.Info("Snapshot written to %s (%dx%d)", opts.Snapshot, size.X, size.Y)
		return nil
	}
	if err := render.WriteHalfBlocks(opts.Stdout, img); err != nil {
		return err
	}
	_, err = fmt.Fprintln(opts.Stdout)
	return err
}

// renderItem shows id in a viewport of size and waits for the worker to
// deliver its view before drawing one frame.
func renderItem(ctx context.Context, queue *uiqueue.Queue, l *loader.Loader, ctrl *viewer.Controller,
	r *render.Renderer, coll loader.Collection, id item.ID, size image.Point, opts Options) (image.Image, error) {
	ctrl.SetViewportSize(size.X, size.Y)
	ctrl.SetItem(coll, id)

	var (
		state item.LoadState
		name  string
	)
	settled := func() bool {
		l.Read(id, func(it *item.Item) {
			state = it.ImageState
			name = filepath.Base(it.Filename)
		})
		return state == item.Failed || ctrl.Settled()
	}
	if err := queue.RunUntil(ctx, settled); err != nil {
		return nil, err
	}
	if state == item.Failed {
		return nil, fmt.Errorf("cannot display %s", name)
	}

	if opts.Zoom > 0 && ctrl.SetZoom(viewer.ZoomRatio(opts.Zoom)) {
		if err := queue.RunUntil(ctx, ctrl.Settled); err != nil {
			return nil, err
		}
	}

	return r.Render(render.Capture(ctrl, l, opts.ShowInfo)), nil
}

// terminalViewport returns the pixel size of w's terminal, keeping one row
// for the shell prompt.
func terminalViewport(w io.Writer) image.Point {
	cols, rows := fallbackColumns, fallbackRows
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if c, r, err := term.GetSize(int(f.Fd())); err == nil {
			cols, rows = c, r
		} else {
			logging.Debug("terminal size: %v", err)
		}
	}
	return render.CellsToPixels(cols, rows-1)
}
