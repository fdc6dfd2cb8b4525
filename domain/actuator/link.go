package actuator

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	// ErrWouldBlock is returned when a previous control signal is still being
	// written. The caller drops the signal; the next tick supersedes it.
	ErrWouldBlock = errors.New("actuator: link busy")
	ErrClosed     = errors.New("actuator: link closed")
)

const (
	linkStatsLogInterval = 10 * time.Second
	// linkDrainTimeout bounds each wait for the writer goroutine during Close.
	linkDrainTimeout = 250 * time.Millisecond
)

// LinkStats summarises link activity.
type LinkStats struct {
	Accepted     uint64
	Dropped      uint64
	Written      uint64
	BytesWritten uint64
	Errors       uint64
	LastWrite    time.Time
}

// Link delivers control signals to a Port from a dedicated writer goroutine.
// Write never blocks: a signal is accepted only while the writer is idle, and
// one arriving while a signal is pending or being written is rejected with
// ErrWouldBlock. Nothing ever waits behind the write in progress.
type Link struct {
	port      Port
	logger    *slog.Logger
	slot      chan []byte
	busy      atomic.Bool
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
	accepted  atomic.Uint64
	dropped   atomic.Uint64
	written   atomic.Uint64
	bytes     atomic.Uint64
	errs      atomic.Uint64
	lastWrite atomic.Int64
}

// NewLink starts the writer goroutine for port.
func NewLink(port Port, logger *slog.Logger) *Link {
	l := &Link{
		port:   port,
		logger: logger,
		slot:   make(chan []byte, 1),
		done:   make(chan struct{}),
	}
	go l.loop()
	return l
}

// Write hands p to the writer goroutine. It copies p so callers may reuse it.
func (l *Link) Write(p []byte) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, ErrClosed
	}
	if !l.busy.CompareAndSwap(false, true) {
		l.dropped.Add(1)
		return 0, ErrWouldBlock
	}
	// busy is only cleared once the writer has drained the slot.
	l.slot <- append([]byte(nil), p...)
	l.accepted.Add(1)
	return len(p), nil
}

func (l *Link) loop() {
	defer close(l.done)
	ticker := time.NewTicker(linkStatsLogInterval)
	defer ticker.Stop()
	for {
		select {
		case buf, ok := <-l.slot:
			if !ok {
				return
			}
			l.deliver(buf)
			l.busy.Store(false)
		case <-ticker.C:
			l.logStats()
		}
	}
}

func (l *Link) deliver(buf []byte) {
	n, err := l.port.Write(buf)
	l.bytes.Add(uint64(n))
	if err != nil {
		l.errs.Add(1)
		if l.logger != nil {
			l.logger.Warn("actuator write failed", "error", err)
		}
		return
	}
	l.written.Add(1)
	l.lastWrite.Store(time.Now().UnixNano())
}

// Stats returns a snapshot of the link counters.
func (l *Link) Stats() LinkStats {
	st := LinkStats{
		Accepted:     l.accepted.Load(),
		Dropped:      l.dropped.Load(),
		Written:      l.written.Load(),
		BytesWritten: l.bytes.Load(),
		Errors:       l.errs.Load(),
	}
	if ns := l.lastWrite.Load(); ns > 0 {
		st.LastWrite = time.Unix(0, ns)
	}
	return st
}

func (l *Link) logStats() {
	if l.logger == nil {
		return
	}
	st := l.Stats()
	l.logger.Debug("actuator link stats",
		"accepted", st.Accepted,
		"dropped", st.Dropped,
		"written", st.Written,
		"bytes", humanize.Bytes(st.BytesWritten),
		"errors", st.Errors,
	)
}

// Close stops accepting writes and closes the port. A signal still being
// written gets a short grace period; a write stalled behind the device is cut
// off by closing the port. Close never waits longer than twice
// linkDrainTimeout. Only the first call closes the port.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.slot)
		l.mu.Unlock()
		drained := l.wait()
		l.closeErr = l.port.Close()
		if !drained && !l.wait() && l.logger != nil {
			l.logger.Warn("actuator writer still blocked after port close")
		}
		if l.logger != nil {
			st := l.Stats()
			l.logger.Info("actuator link closed",
				"written", st.Written,
				"dropped", st.Dropped,
				"bytes", humanize.Bytes(st.BytesWritten),
			)
		}
	})
	return l.closeErr
}

func (l *Link) wait() bool {
	t := time.NewTimer(linkDrainTimeout)
	defer t.Stop()
	select {
	case <-l.done:
		return true
	case <-t.C:
		return false
	}
}
