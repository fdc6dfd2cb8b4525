// Package opencv binds the tracking loop to OpenCV through gocv: camera
// capture, KCF/CSRT/MIL trackers, interactive ROI selection and the preview
// window. Building it requires the OpenCV native libraries.
package opencv

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/soocke/turret-tracker/domain/capture"
	"github.com/soocke/turret-tracker/domain/tracking"
)

// Capture backends by name. Values mirror OpenCV's cv::VideoCaptureAPIs.
var backends = map[string]gocv.VideoCaptureAPI{
	"":             gocv.VideoCaptureAPI(0),
	"any":          gocv.VideoCaptureAPI(0),
	"v4l":          gocv.VideoCaptureAPI(200),
	"v4l2":         gocv.VideoCaptureAPI(200),
	"dshow":        gocv.VideoCaptureAPI(700),
	"msmf":         gocv.VideoCaptureAPI(1400),
	"avfoundation": gocv.VideoCaptureAPI(1200),
	"ffmpeg":       gocv.VideoCaptureAPI(1900),
	"gstreamer":    gocv.VideoCaptureAPI(1800),
}

// DefaultBackend returns the capture backend conventionally used on goos.
func DefaultBackend(goos string) string {
	switch goos {
	case "linux":
		return "v4l2"
	case "windows":
		return "dshow"
	case "darwin":
		return "avfoundation"
	default:
		return "any"
	}
}

// CameraOptions configures a Camera.
type CameraOptions struct {
	// Device is a camera index ("0", "2") or a video file path or URL.
	Device  string
	Backend string
	Width   int
	Height  int
	// MaxReadFailures is how many consecutive empty reads a live device may
	// produce before Read gives up.
	MaxReadFailures int
}

// Camera reads frames from a gocv.VideoCapture into a reused Mat. The Mat
// returned by Read stays valid until the next Read.
type Camera struct {
	vc        *gocv.VideoCapture
	mat       gocv.Mat
	live      bool
	bounds    image.Rectangle
	maxFails  int
	logger    *slog.Logger
	mu        sync.Mutex
	closed    bool
	captures  uint64
	skipped   uint64
	nanos     uint64
	lastFrame time.Time
}

var _ capture.Source = (*Camera)(nil)

// OpenCamera opens the device and requests the configured frame size.
func OpenCamera(opts CameraOptions, logger *slog.Logger) (*Camera, error) {
	api, ok := backends[strings.ToLower(opts.Backend)]
	if !ok {
		return nil, fmt.Errorf("opencv: unknown capture backend %q", opts.Backend)
	}
	var target any = opts.Device
	live := false
	if id, err := strconv.Atoi(opts.Device); err == nil {
		target = id
		live = true
	}
	vc, err := gocv.OpenVideoCaptureWithAPI(target, api)
	if err != nil {
		return nil, fmt.Errorf("opencv: open %s: %w", opts.Device, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("opencv: device %s not opened", opts.Device)
	}
	if opts.Width > 0 && opts.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	w := int(vc.Get(gocv.VideoCaptureFrameWidth))
	h := int(vc.Get(gocv.VideoCaptureFrameHeight))
	if w <= 0 || h <= 0 {
		w, h = opts.Width, opts.Height
	}
	maxFails := opts.MaxReadFailures
	if maxFails <= 0 {
		maxFails = 30
	}
	c := &Camera{vc: vc, mat: gocv.NewMat(), live: live, bounds: image.Rect(0, 0, w, h), maxFails: maxFails, logger: logger}
	if logger != nil {
		logger.Info("camera opened", "device", opts.Device, "backend", opts.Backend, "width", w, "height", h)
	}
	return c, nil
}

// Bounds returns the negotiated frame size, updated after every read.
func (c *Camera) Bounds() image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bounds
}

// Read blocks until the device yields a frame. File sources end with
// capture.ErrEndOfStream.
func (c *Camera) Read() (tracking.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, capture.ErrClosed
	}
	fails := 0
	for {
		start := time.Now()
		if c.vc.Read(&c.mat) && !c.mat.Empty() {
			c.captures++
			c.nanos += uint64(time.Since(start).Nanoseconds())
			c.lastFrame = time.Now()
			c.bounds = image.Rect(0, 0, c.mat.Cols(), c.mat.Rows())
			return &c.mat, nil
		}
		c.skipped++
		if !c.live {
			return nil, capture.ErrEndOfStream
		}
		fails++
		if fails >= c.maxFails {
			return nil, errors.New("opencv: camera stopped delivering frames")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (c *Camera) Stats() capture.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := capture.Stats{Captures: c.captures, Skipped: c.skipped, LastCapture: c.lastFrame, Sequence: c.captures}
	if c.captures > 0 {
		st.AvgCapture = time.Duration(c.nanos / c.captures)
		st.AvgCaptureMicros = float64(st.AvgCapture) / float64(time.Microsecond)
	}
	if !c.lastFrame.IsZero() {
		st.LatestFrameAge = time.Since(c.lastFrame)
	}
	return st
}

// Close releases the device and the frame buffer once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.vc.Close()
	if mErr := c.mat.Close(); err == nil {
		err = mErr
	}
	if c.logger != nil {
		c.logger.Info("camera released", "captures", c.captures, "skipped", c.skipped)
	}
	return err
}

func asMat(frame tracking.Frame) (*gocv.Mat, error) {
	switch f := frame.(type) {
	case *gocv.Mat:
		if f == nil || f.Closed() {
			return nil, errors.New("opencv: released frame")
		}
		if f.Empty() {
			return nil, errors.New("opencv: empty frame")
		}
		return f, nil
	default:
		return nil, fmt.Errorf("opencv: unsupported frame %T", frame)
	}
}
