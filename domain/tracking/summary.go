package tracking

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const summaryWindow = 4096

// offsetSummary accumulates the offsets of one session for the end-of-session
// log line. Only the most recent summaryWindow samples are kept.
type offsetSummary struct {
	dx, dy []float64
	next   int
}

func (s *offsetSummary) add(o Offset) {
	if len(s.dx) < summaryWindow {
		s.dx = append(s.dx, float64(o.DX))
		s.dy = append(s.dy, float64(o.DY))
		return
	}
	s.dx[s.next] = float64(o.DX)
	s.dy[s.next] = float64(o.DY)
	s.next = (s.next + 1) % summaryWindow
}

func (s *offsetSummary) reset() {
	s.dx = s.dx[:0]
	s.dy = s.dy[:0]
	s.next = 0
}

// OffsetStats describes the distribution of offsets over a session.
type OffsetStats struct {
	Samples int
	MeanDX  float64
	StdDX   float64
	MeanDY  float64
	StdDY   float64
	MaxAbs  float64
}

func (s *offsetSummary) stats() OffsetStats {
	out := OffsetStats{Samples: len(s.dx)}
	if out.Samples == 0 {
		return out
	}
	out.MeanDX, out.StdDX = stat.MeanStdDev(s.dx, nil)
	out.MeanDY, out.StdDY = stat.MeanStdDev(s.dy, nil)
	for _, v := range s.dx {
		out.MaxAbs = math.Max(out.MaxAbs, math.Abs(v))
	}
	if out.Samples == 1 {
		out.StdDX, out.StdDY = 0, 0
	}
	return out
}
