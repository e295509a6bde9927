package metrics

import (
	"github.com/mellw0101/3d-sim/internal/body"
	"github.com/mellw0101/3d-sim/internal/collision"
)

// Penetration is the deepest overlap left between a dynamic and a static body
// after any observed frame. Resting contact measures zero.
type Penetration struct {
	max float32
}

func NewPenetration() *Penetration {
	return &Penetration{}
}

func (p *Penetration) Name() string { return "penetration" }

func (p *Penetration) Observe(frame int, bodies []*body.Body) {
	for _, a := range bodies {
		if a.Flags.Static() {
			continue
		}
		for _, b := range bodies {
			if !b.Flags.Static() {
				continue
			}
			p.max = max(p.max, Overlap(collision.BoxOf(a), collision.BoxOf(b)))
		}
	}
}

func (p *Penetration) Value() float64 { return float64(p.max) }
func (p *Penetration) Reset()         { p.max = 0 }

// Overlap is the smallest push that would separate a from b, or zero when
// they do not overlap.
func Overlap(a, b collision.Box) float32 {
	if !collision.Overlapping(a, b) {
		return 0
	}
	depths := collision.Depths(a, b)
	least := depths[0]
	for _, d := range depths[1:] {
		least = min(least, d)
	}
	return max(least, 0)
}
