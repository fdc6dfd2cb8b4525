package actuator

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// TestablePort implements Port with configurable behaviour for tests.
type TestablePort struct {
	mu sync.Mutex

	// WriteBuffer captures every byte written.
	WriteBuffer *bytes.Buffer
	// Writes records each write separately.
	Writes [][]byte
	// WriteLatency delays each Write. Close cuts the delay short and the
	// interrupted Write fails, as a real port does.
	WriteLatency time.Duration
	// WriteError is returned by the next Write if set.
	WriteError error
	// CloseError is returned by Close if set.
	CloseError error
	Closed     bool
	CloseCalls int
	WriteCalls int

	closing chan struct{}
}

func NewTestablePort() *TestablePort {
	return &TestablePort{WriteBuffer: bytes.NewBuffer(nil)}
}

func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	t.WriteCalls++
	if t.Closed {
		t.mu.Unlock()
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		t.mu.Unlock()
		return 0, err
	}
	latency := t.WriteLatency
	closing := t.closingLocked()
	t.mu.Unlock()
	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-closing:
			timer.Stop()
			return 0, errors.New("serial port closed")
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Writes = append(t.Writes, append([]byte(nil), p...))
	return t.WriteBuffer.Write(p)
}

func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Closed {
		close(t.closingLocked())
	}
	t.Closed = true
	t.CloseCalls++
	return t.CloseError
}

func (t *TestablePort) closingLocked() chan struct{} {
	if t.closing == nil {
		t.closing = make(chan struct{})
	}
	return t.closing
}

// Written returns a copy of each write in order.
func (t *TestablePort) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.Writes))
	for i, w := range t.Writes {
		out[i] = string(w)
	}
	return out
}

// Calls returns the write and close call counts.
func (t *TestablePort) Calls() (writes, closes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.WriteCalls, t.CloseCalls
}

// MockPortFactory implements PortFactory for tests.
type MockPortFactory struct {
	mu        sync.Mutex
	Port      Port
	Error     error
	OpenCalls []MockOpenCall
}

// MockOpenCall records one Open call.
type MockOpenCall struct {
	Path string
	Opts PortOptions
}

func NewMockPortFactory(port Port) *MockPortFactory {
	return &MockPortFactory{Port: port}
}

func (f *MockPortFactory) Open(path string, opts PortOptions) (Port, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenCalls = append(f.OpenCalls, MockOpenCall{Path: path, Opts: opts})
	if f.Error != nil {
		return nil, f.Error
	}
	return f.Port, nil
}

// LastCall returns the most recent Open call, or nil if none.
func (f *MockPortFactory) LastCall() *MockOpenCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.OpenCalls) == 0 {
		return nil
	}
	return &f.OpenCalls[len(f.OpenCalls)-1]
}
