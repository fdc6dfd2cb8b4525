package actuator

import "sync/atomic"

// DisabledLink accepts and discards every control signal. It stands in for the
// actuator when the tracker runs without hardware attached.
type DisabledLink struct {
	writes atomic.Uint64
	closes atomic.Uint64
}

func NewDisabledLink() *DisabledLink { return &DisabledLink{} }

func (d *DisabledLink) Write(p []byte) (int, error) {
	d.writes.Add(1)
	return len(p), nil
}

// Writes returns the number of discarded signals.
func (d *DisabledLink) Writes() uint64 { return d.writes.Load() }

func (d *DisabledLink) Close() error {
	d.closes.Add(1)
	return nil
}

// Closes returns the number of Close calls.
func (d *DisabledLink) Closes() uint64 { return d.closes.Load() }
