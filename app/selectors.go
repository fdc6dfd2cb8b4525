package app

import "github.com/soocke/turret-tracker/domain/tracking"

// FixedSelector confirms the same region every time it is asked.
type FixedSelector struct {
	Region tracking.Region
}

func (f FixedSelector) Select(tracking.Frame) (tracking.Region, tracking.SelectionStatus) {
	if f.Region.Degenerate() {
		return tracking.Region{}, tracking.SelectionCancelled
	}
	return f.Region, tracking.SelectionConfirmed
}
