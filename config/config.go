package config

import (
	"encoding/json"
	"flag"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/soocke/turret-tracker/domain/actuator"
	"github.com/soocke/turret-tracker/domain/tracker"
	"github.com/soocke/turret-tracker/domain/tracking"
)

// Config holds runtime configuration for capture, tracking and the actuator.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`

	// Frame geometry requested from the source.
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	// Camera source
	CameraDevice  string `json:"camera_device"`
	CameraBackend string `json:"camera_backend"`

	// Tracker selection and NCC tracker parameters
	Tracker      string    `json:"tracker"`
	Threshold    float64   `json:"threshold"`
	Stride       int       `json:"stride"`
	Refine       bool      `json:"refine"`
	SearchMargin int       `json:"search_margin"`
	Scales       []float64 `json:"scales"`
	RefreshScore float64   `json:"refresh_score"`

	// Actuator link
	SerialDevice     string `json:"serial_device"`
	BaudRate         int    `json:"baud_rate"`
	DataBits         int    `json:"data_bits"`
	StopBits         int    `json:"stop_bits"`
	Parity           string `json:"parity"`
	ActuatorDisabled bool   `json:"actuator_disabled"`

	// Input
	PollIntervalMs int    `json:"poll_interval_ms"`
	KeySelect      string `json:"key_select"`
	KeyQuit        string `json:"key_quit"`

	// Screen capture rectangle; zero size means the whole primary display.
	CaptureX   int `json:"capture_x"`
	CaptureY   int `json:"capture_y"`
	CaptureW   int `json:"capture_w"`
	CaptureH   int `json:"capture_h"`
	CaptureFPS int `json:"capture_fps"`

	// Replay of recorded frames instead of live capture.
	ReplayDir  string `json:"replay_dir"`
	ReplayLoop bool   `json:"replay_loop"`

	// SelectRegion, as "x,y,w,h", replaces interactive selection.
	SelectRegion string `json:"select_region"`

	// TelemetryAddr enables the websocket render-model feed when non-empty.
	TelemetryAddr string `json:"telemetry_addr"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:          false,
		LogLevel:       "info",
		FrameWidth:     640,
		FrameHeight:    480,
		CameraDevice:   "0",
		CameraBackend:  "",
		Tracker:        "kcf",
		Threshold:      0.60,
		Stride:         2,
		Refine:         true,
		SearchMargin:   0,
		Scales:         []float64{1.0},
		RefreshScore:   0.90,
		BaudRate:       115200,
		DataBits:       8,
		StopBits:       1,
		Parity:         "N",
		PollIntervalMs: 5,
		KeySelect:      "k",
		KeyQuit:        "q",
		CaptureFPS:     30,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.FrameWidth <= 0 {
		c.FrameWidth = 640
	}
	if c.FrameHeight <= 0 {
		c.FrameHeight = 480
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Tracker = strings.ToLower(strings.TrimSpace(c.Tracker))
	if c.Tracker == "" {
		c.Tracker = "kcf"
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		c.Threshold = 0.60
	}
	if c.Stride <= 0 {
		c.Stride = 2
	}
	if c.SearchMargin < 0 {
		c.SearchMargin = 0
	}
	scales := c.Scales[:0]
	for _, s := range c.Scales {
		if s > 0 {
			scales = append(scales, s)
		}
	}
	c.Scales = scales
	if len(c.Scales) == 0 {
		c.Scales = []float64{1.0}
	}
	if c.RefreshScore < 0 || c.RefreshScore > 1 {
		c.RefreshScore = 0.90
	}
	if c.BaudRate <= 0 {
		c.BaudRate = 115200
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = 5
	}
	if c.PollIntervalMs > 1000 {
		c.PollIntervalMs = 1000
	}
	if len([]rune(c.KeySelect)) != 1 {
		c.KeySelect = "k"
	}
	if len([]rune(c.KeyQuit)) != 1 || c.KeyQuit == c.KeySelect {
		c.KeyQuit = "q"
		if c.KeySelect == "q" {
			c.KeySelect = "k"
		}
	}
	if c.CaptureW < 0 || c.CaptureH < 0 {
		c.CaptureW, c.CaptureH = 0, 0
	}
	if c.CaptureFPS <= 0 || c.CaptureFPS > 240 {
		c.CaptureFPS = 30
	}
	return nil
}

// CaptureRect returns the configured screen rectangle, or false when the
// whole display should be captured.
func (c *Config) CaptureRect() (image.Rectangle, bool) {
	if c.CaptureW <= 0 || c.CaptureH <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(c.CaptureX, c.CaptureY, c.CaptureX+c.CaptureW, c.CaptureY+c.CaptureH), true
}

// CaptureInterval converts CaptureFPS into a frame interval.
func (c *Config) CaptureInterval() time.Duration {
	if c.CaptureFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.CaptureFPS)
}

// PollInterval returns the keyboard poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Keys returns the select and quit keys as runes.
func (c *Config) Keys() (sel, quit rune) {
	return []rune(c.KeySelect)[0], []rune(c.KeyQuit)[0]
}

// KeyBindings returns the configured keys as tracking bindings.
func (c *Config) KeyBindings() tracking.KeyBindings {
	sel, quit := c.Keys()
	return tracking.KeyBindings{Select: sel, Quit: quit}
}

// Region parses SelectRegion. It reports false when unset or malformed.
func (c *Config) Region() (tracking.Region, bool) {
	parts := strings.Split(c.SelectRegion, ",")
	if len(parts) != 4 {
		return tracking.Region{}, false
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return tracking.Region{}, false
		}
		v[i] = n
	}
	r := tracking.Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	return r, !r.Degenerate()
}

// TrackerOptions returns the NCC tracker parameters.
func (c *Config) TrackerOptions() tracker.Options {
	return tracker.Options{
		Threshold:    c.Threshold,
		Stride:       c.Stride,
		Refine:       c.Refine,
		SearchMargin: c.SearchMargin,
		Scales:       append([]float64(nil), c.Scales...),
		RefreshScore: c.RefreshScore,
	}
}

// PortOptions returns the serial line settings for the actuator.
func (c *Config) PortOptions() actuator.PortOptions {
	return actuator.PortOptions{BaudRate: c.BaudRate, DataBits: c.DataBits, StopBits: c.StopBits, Parity: c.Parity}
}

// BindFlags registers command-line overrides for c on fs. Call Validate after
// fs.Parse.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging and diagnostics")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.IntVar(&c.FrameWidth, "width", c.FrameWidth, "requested frame width")
	fs.IntVar(&c.FrameHeight, "height", c.FrameHeight, "requested frame height")
	fs.StringVar(&c.CameraDevice, "camera", c.CameraDevice, "camera index or video file")
	fs.StringVar(&c.CameraBackend, "backend", c.CameraBackend, "capture backend (v4l2, dshow, avfoundation, any)")
	fs.StringVar(&c.Tracker, "tracker", c.Tracker, "tracking algorithm")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "ncc tracker minimum score")
	fs.IntVar(&c.Stride, "stride", c.Stride, "ncc tracker coarse scan stride")
	fs.IntVar(&c.SearchMargin, "search-margin", c.SearchMargin, "ncc tracker search margin in pixels (0 = region size)")
	fs.StringVar(&c.SerialDevice, "serial", c.SerialDevice, "actuator serial device (empty = platform default)")
	fs.IntVar(&c.BaudRate, "baud", c.BaudRate, "actuator baud rate")
	fs.BoolVar(&c.ActuatorDisabled, "no-actuator", c.ActuatorDisabled, "run without the actuator link")
	fs.IntVar(&c.PollIntervalMs, "poll-ms", c.PollIntervalMs, "keyboard poll interval in milliseconds")
	fs.StringVar(&c.KeySelect, "key-select", c.KeySelect, "key that starts target selection")
	fs.StringVar(&c.KeyQuit, "key-quit", c.KeyQuit, "key that quits")
	fs.IntVar(&c.CaptureX, "capture-x", c.CaptureX, "screen capture left edge")
	fs.IntVar(&c.CaptureY, "capture-y", c.CaptureY, "screen capture top edge")
	fs.IntVar(&c.CaptureW, "capture-w", c.CaptureW, "screen capture width (0 = full display)")
	fs.IntVar(&c.CaptureH, "capture-h", c.CaptureH, "screen capture height (0 = full display)")
	fs.IntVar(&c.CaptureFPS, "fps", c.CaptureFPS, "screen capture or replay rate")
	fs.StringVar(&c.ReplayDir, "replay", c.ReplayDir, "replay frames from this directory")
	fs.BoolVar(&c.ReplayLoop, "replay-loop", c.ReplayLoop, "loop the replay")
	fs.StringVar(&c.SelectRegion, "region", c.SelectRegion, "select this x,y,w,h region instead of asking")
	fs.StringVar(&c.TelemetryAddr, "telemetry", c.TelemetryAddr, "serve render models over websocket on this address")
}

// SlogLevel parses LogLevel. Debug forces slog.LevelDebug; unknown names
// fall back to info.
func (c *Config) SlogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// PathFromArgs returns the value of a -config/--config flag in args, or def.
// It lets the file be loaded before the remaining flags override it.
func PathFromArgs(args []string, def string) string {
	for i, a := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return def
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
