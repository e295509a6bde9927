package metrics

import (
	"math"

	"github.com/mellw0101/3d-sim/internal/body"
)

// mechanical is the unit-mass energy of b above the ground plane.
func mechanical(b *body.Body, gravity float32) float64 {
	ke := 0.5 * b.Velocity.Dot(b.Velocity)
	pe := gravity * b.Position.Y()
	return float64(ke + pe)
}

// Energy is the mean mechanical energy per dynamic body, averaged over frames.
type Energy struct {
	name        string
	gravity     float32
	samples     int
	totalEnergy float64
}

func NewEnergy(gravity float32) *Energy {
	return &Energy{
		name:    "energy",
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(frame int, bodies []*body.Body) {
	var sum float64
	n := 0
	for _, b := range bodies {
		if b.Flags.Static() {
			continue
		}
		sum += mechanical(b, e.gravity)
		n++
	}
	if n == 0 {
		return
	}
	e.totalEnergy += sum / float64(n)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyLoss is the largest fraction of the first observed total energy lost
// so far. Ground and collision contacts are inelastic, so it only grows.
type EnergyLoss struct {
	name          string
	gravity       float32
	initialEnergy float64
	maxLoss       float64
	samples       int
}

func NewEnergyLoss(gravity float32) *EnergyLoss {
	return &EnergyLoss{
		name:    "energy_loss",
		gravity: gravity,
	}
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(frame int, bodies []*body.Body) {
	var energy float64
	for _, b := range bodies {
		if !b.Flags.Static() {
			energy += mechanical(b, e.gravity)
		}
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		loss := (e.initialEnergy - energy) / e.initialEnergy
		e.maxLoss = math.Max(e.maxLoss, loss)
	}
}

func (e *EnergyLoss) Value() float64 {
	return e.maxLoss
}

func (e *EnergyLoss) Reset() {
	e.initialEnergy = 0
	e.maxLoss = 0
	e.samples = 0
}
