package model

import (
	"time"
)

// SessionModel tracks how long the current tracking session has run and the
// accumulated tracking time across sessions. The zero value is ready to use.
type SessionModel struct {
	id          string
	start       time.Time
	current     time.Duration
	accumulated time.Duration
	sessions    int
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick updates the model with the session id reported for this tick. An
// empty id means no session is active. A changed id closes the previous
// session and opens a new one.
func (m *SessionModel) OnTick(id string, now time.Time) {
	if m == nil {
		return
	}
	if id == m.id {
		if id != "" {
			m.current = now.Sub(m.start)
		}
		return
	}
	if m.id != "" {
		m.current = now.Sub(m.start)
		m.accumulated += m.current
	}
	m.id = id
	if id != "" {
		m.start = now
		m.current = 0
		m.sessions++
	}
}

// Values returns the current session duration and the total tracked time,
// including the ongoing session.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.current
	total = m.accumulated
	if m.id != "" {
		total += session
	}
	return
}

// ID returns the active session id or "".
func (m *SessionModel) ID() string {
	if m == nil {
		return ""
	}
	return m.id
}

// Sessions returns how many sessions have been observed.
func (m *SessionModel) Sessions() int {
	if m == nil {
		return 0
	}
	return m.sessions
}
