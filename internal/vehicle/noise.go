package vehicle

import "math/rand"

// Noise draws Gaussian perturbations from a seeded source. The same seed
// reproduces the same sequence of samples, which regression tests rely on.
type Noise struct {
	cfg NoiseParam
	rng *rand.Rand
}

func NewNoise(cfg NoiseParam) *Noise {
	return &Noise{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Sample returns one draw from N(mean, stddev).
func (n *Noise) Sample(mean, stddev float64) float64 {
	return mean + stddev*n.rng.NormFloat64()
}

// ApplyState perturbs the published state channels. Accelerations are left
// untouched; they are derived quantities.
func (n *Noise) ApplyState(s State) State {
	if !n.cfg.Enabled {
		return s
	}
	s.X = n.Sample(s.X, n.cfg.Position)
	s.Y = n.Sample(s.Y, n.cfg.Position)
	s.Yaw = wrapAngle(n.Sample(s.Yaw, n.cfg.Yaw))
	s.Vx = n.Sample(s.Vx, n.cfg.Velocity)
	s.Vy = n.Sample(s.Vy, n.cfg.Velocity)
	s.R = n.Sample(s.R, n.cfg.YawRate)
	return s
}

// ApplyInput perturbs the commanded actuation before it reaches the model.
func (n *Noise) ApplyInput(u Input) Input {
	if !n.cfg.Enabled {
		return u
	}
	u.Acc = n.Sample(u.Acc, n.cfg.Acc)
	u.Delta = n.Sample(u.Delta, n.cfg.Steering)
	return u
}
