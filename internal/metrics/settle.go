package metrics

import "github.com/mellw0101/3d-sim/internal/body"

// Settle reports the first frame from which every dynamic body stayed below
// the speed threshold. It is -1 while anything is still moving.
type Settle struct {
	name      string
	threshold float32
	since     int
}

func NewSettle(threshold float32) *Settle {
	return &Settle{
		name:      "settle_frame",
		threshold: threshold,
		since:     -1,
	}
}

func (s *Settle) Name() string {
	return s.name
}

func (s *Settle) Observe(frame int, bodies []*body.Body) {
	for _, b := range bodies {
		if !b.Flags.Static() && b.Velocity.Len() > s.threshold {
			s.since = -1
			return
		}
	}
	if s.since < 0 {
		s.since = frame
	}
}

func (s *Settle) Value() float64 {
	return float64(s.since)
}

func (s *Settle) Reset() {
	s.since = -1
}
