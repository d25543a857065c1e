package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// FrameFunc transforms one frame. It must be safe for concurrent use when
// Process runs with more than one worker.
type FrameFunc func(img image.Image) (image.Image, error)

type processor struct {
	workers int
	logger  *slog.Logger
}

// Option configures Process.
type Option func(*processor)

// WithWorkers sets how many frames are transformed concurrently.
// Values below 1 are ignored. The default is 1.
func WithWorkers(n int) Option {
	return func(p *processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger for progress output.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *processor) {
		p.logger = logger
	}
}

// Process reads every frame of src, applies fn and writes the results to dst
// in input order. It returns the number of frames written.
//
// Frames are read in batches of one per worker. Each batch is transformed
// concurrently and written before the next batch is read, so at most
// 2*workers frames are held in memory. The first error from src, fn or dst
// stops the run; the context is checked between batches.
//
// Process does not close src or dst.
func Process(ctx context.Context, src Source, dst Sink, fn FrameFunc, opts ...Option) (int, error) {
	p := &processor{workers: 1}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	p.logger.Info("processing video",
		"width", src.Size().X,
		"height", src.Size().Y,
		"fps", src.FrameRate(),
		"workers", p.workers,
	)
	start := time.Now()

	written := 0
	batch := make([]image.Image, 0, p.workers)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		var (
			eof bool
			err error
		)
		batch, eof, err = readBatch(src, batch[:0], p.workers)
		if err != nil {
			return written, fmt.Errorf("failed to read frame %d: %w", written+len(batch), err)
		}
		if len(batch) == 0 {
			break
		}

		out, err := p.transform(ctx, batch, written, fn)
		if err != nil {
			return written, err
		}

		for _, img := range out {
			if err := dst.Write(img); err != nil {
				return written, fmt.Errorf("failed to write frame %d: %w", written, err)
			}
			written++
		}
		p.logger.Debug("batch written", "frames", len(out), "total", written)

		if eof {
			break
		}
	}

	p.logger.Info("video processed",
		"frames", written,
		"elapsed", time.Since(start),
	)
	return written, nil
}

// readBatch appends up to n frames from src to batch. eof reports that src
// is exhausted.
func readBatch(src Source, batch []image.Image, n int) ([]image.Image, bool, error) {
	for len(batch) < n {
		img, err := src.Next()
		if errors.Is(err, io.EOF) {
			return batch, true, nil
		}
		if err != nil {
			return batch, false, err
		}
		batch = append(batch, img)
	}
	return batch, false, nil
}

// transform applies fn to every frame of batch concurrently and returns the
// results in batch order. first is the index of batch[0] in the stream.
func (p *processor) transform(ctx context.Context, batch []image.Image, first int, fn FrameFunc) ([]image.Image, error) {
	out := make([]image.Image, len(batch))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, img := range batch {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res, err := fn(img)
			if err != nil {
				return fmt.Errorf("failed to process frame %d: %w", first+i, err)
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary describes a finished ConvertFile run.
type Summary struct {
	Frames    int         `json:"frames"`
	FrameRate float64     `json:"fps"`
	Size      image.Point `json:"size"`
}

// ConvertFile opens the video at in, runs Process with fn and writes the
// result to out with the same frame rate and size. The output is finalized
// even when processing fails, and the first error is returned.
func ConvertFile(ctx context.Context, in, out string, fn FrameFunc, opts ...Option) (Summary, error) {
	src, err := Open(in)
	if err != nil {
		return Summary{}, err
	}
	defer src.Close()

	sum := Summary{FrameRate: src.FrameRate(), Size: src.Size()}
	dst, err := Create(out, sum.FrameRate, sum.Size)
	if err != nil {
		return sum, err
	}

	sum.Frames, err = Process(ctx, src, dst, fn, opts...)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	return sum, err
}
