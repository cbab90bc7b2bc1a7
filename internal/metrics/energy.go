package metrics

import (
	"github.com/san-kum/orbiter/internal/sim"
)

// KineticEnergy reports the mean total kinetic energy over observed ticks.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(v sim.View, dt, t float64) {
	k.total += sim.KineticEnergy(v.Bodies(), sim.StepDt(v, dt))
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}
