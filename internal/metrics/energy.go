package metrics

import (
	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/sim"
)

// Default returns the metrics recorded by every run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewPeakKineticEnergy(),
		NewMaxPenetration(),
		NewContactCount(),
		NewSleepRatio(),
		NewJointError(),
	}
}

// KineticEnergyOf sums translational and rotational kinetic energy over
// the non-static bodies of w.
func KineticEnergyOf(w *dynamics.World) float64 {
	total := 0.0
	for _, b := range w.Bodies() {
		if b.IsStatic() {
			continue
		}
		v := b.LinearVelocity()
		omega := b.AngularVelocity()
		total += 0.5*b.Mass()*v.Dot(v) + 0.5*b.Inertia()*omega*omega
	}
	return total
}

// KineticEnergy is the mean kinetic energy over the observed steps.
type KineticEnergy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(w *dynamics.World, t float64) {
	e.totalEnergy += KineticEnergyOf(w)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// PeakKineticEnergy is the largest kinetic energy seen.
type PeakKineticEnergy struct {
	name string
	peak float64
}

func NewPeakKineticEnergy() *PeakKineticEnergy {
	return &PeakKineticEnergy{name: "peak_kinetic_energy"}
}

func (e *PeakKineticEnergy) Name() string { return e.name }

func (e *PeakKineticEnergy) Observe(w *dynamics.World, t float64) {
	e.peak = max(e.peak, KineticEnergyOf(w))
}

func (e *PeakKineticEnergy) Value() float64 { return e.peak }
func (e *PeakKineticEnergy) Reset()         { e.peak = 0 }
