package presenter

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/model"
)

// SessionView displays session durations and controller counters.
type SessionView interface {
	SetSession(session, total time.Duration)
	SetStats(text string)
}

// StatsSource reports controller counters.
type StatsSource func() tracking.Stats

// SessionPresenter feeds the session model from render models and pushes
// durations and counters to the view on every tick.
type SessionPresenter struct {
	sess  *model.SessionModel
	stats StatsSource
	view  SessionView
	now   func() time.Time

	lastID    string
	lastStats string
}

// NewSessionPresenter returns a new SessionPresenter. stats may be nil.
func NewSessionPresenter(sess *model.SessionModel, stats StatsSource, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, stats: stats, view: view, now: time.Now}
}

// Present records the model's session id.
func (p *SessionPresenter) Present(_ tracking.Frame, m tracking.RenderModel) {
	if p == nil {
		return
	}
	p.lastID = m.Session
}

// Tick advances the session model and refreshes the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.lastID, now)
	s, t := p.sess.Values()
	p.view.SetSession(s, t)
	if p.stats == nil {
		return
	}
	text := FormatStats(p.stats(), p.sess.Sessions())
	if text != p.lastStats {
		p.lastStats = text
		p.view.SetStats(text)
	}
}

// FormatStats renders controller counters for a status label.
func FormatStats(st tracking.Stats, sessions int) string {
	return fmt.Sprintf("sent %s  dropped %s  lost %s  sessions %d",
		humanize.Comma(int64(st.Transmissions)),
		humanize.Comma(int64(st.Dropped)),
		humanize.Comma(int64(st.Lost)),
		sessions)
}
