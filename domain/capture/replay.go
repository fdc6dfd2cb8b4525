package capture

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/turret-tracker/domain/tracking"
)

// ReplayOptions configures a ReplaySource.
type ReplayOptions struct {
	// Dir holds the recorded frames; files are played in lexical order.
	Dir string
	// Width and Height resize every frame when both are positive.
	Width, Height int
	// Interval paces Read. Zero replays as fast as frames decode.
	Interval time.Duration
	// Loop restarts from the first frame instead of ending the stream.
	Loop bool
}

var replayExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".gif": true}

// ReplaySource plays back a directory of still images as a frame stream.
type ReplaySource struct {
	opts     ReplayOptions
	files    []string
	next     int
	bounds   image.Rectangle
	logger   *slog.Logger
	lastRead time.Time
	mu       sync.Mutex
	closed   bool
	latest   FrameSnapshot
	captures uint64
	skipped  uint64
	nanos    uint64
}

var _ Source = (*ReplaySource)(nil)

// NewReplaySource lists the frames in opts.Dir. It fails when the directory
// holds no decodable image files.
func NewReplaySource(opts ReplayOptions, logger *slog.Logger) (*ReplaySource, error) {
	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if replayExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(opts.Dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("replay: no frames in %s", opts.Dir)
	}
	sort.Strings(files)
	r := &ReplaySource{opts: opts, files: files, logger: logger}
	if opts.Width > 0 && opts.Height > 0 {
		r.bounds = image.Rect(0, 0, opts.Width, opts.Height)
	} else {
		first, err := imaging.Open(files[0])
		if err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		b := first.Bounds()
		r.bounds = image.Rect(0, 0, b.Dx(), b.Dy())
	}
	if logger != nil {
		logger.Info("replay source ready", "dir", opts.Dir, "frames", len(files), "bounds", r.bounds.String())
	}
	return r, nil
}

func (r *ReplaySource) Bounds() image.Rectangle { return r.bounds }

// Read decodes the next frame. Undecodable files are skipped.
func (r *ReplaySource) Read() (tracking.Frame, error) {
	r.pace()
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrClosed
		}
		if r.next >= len(r.files) {
			if !r.opts.Loop {
				r.mu.Unlock()
				return nil, ErrEndOfStream
			}
			r.next = 0
		}
		path := r.files[r.next]
		r.next++
		r.mu.Unlock()

		start := time.Now()
		img, err := r.load(path)
		r.mu.Lock()
		if err != nil {
			r.skipped++
			r.mu.Unlock()
			if r.logger != nil {
				r.logger.Warn("replay frame skipped", "file", path, "error", err)
			}
			if r.skippedAll() {
				return nil, ErrEndOfStream
			}
			continue
		}
		r.captures++
		r.nanos += uint64(time.Since(start).Nanoseconds())
		r.latest = FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: r.captures}
		r.mu.Unlock()
		return img, nil
	}
}

func (r *ReplaySource) skippedAll() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.captures == 0 && r.skipped >= uint64(len(r.files))
}

func (r *ReplaySource) pace() {
	if r.opts.Interval <= 0 {
		return
	}
	if !r.lastRead.IsZero() {
		if wait := r.opts.Interval - time.Since(r.lastRead); wait > 0 {
			time.Sleep(wait)
		}
	}
	r.lastRead = time.Now()
}

func (r *ReplaySource) load(path string) (*image.RGBA, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	if b := src.Bounds(); b.Dx() != r.bounds.Dx() || b.Dy() != r.bounds.Dy() {
		src = imaging.Resize(src, r.bounds.Dx(), r.bounds.Dy(), imaging.Linear)
	}
	out := image.NewRGBA(r.bounds)
	draw.Draw(out, r.bounds, src, src.Bounds().Min, draw.Src)
	return out, nil
}

// LatestFrame returns the most recently decoded frame.
func (r *ReplaySource) LatestFrame() FrameSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

func (r *ReplaySource) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return buildStats(r.captures, r.skipped, r.nanos, r.latest)
}

func (r *ReplaySource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
