package vehicle

import "math"

// State is the planar vehicle state: pose in the world frame, velocities in
// the body frame (x forward, y left) and the accelerations of the last step.
type State struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Yaw float64 `yaml:"yaw"`
	Vx  float64 `yaml:"vx"`
	Vy  float64 `yaml:"vy"`
	R   float64 `yaml:"r"`
	Ax  float64 `yaml:"ax"`
	Ay  float64 `yaml:"ay"`
}

func (s State) Add(o State) State {
	return State{
		X:   s.X + o.X,
		Y:   s.Y + o.Y,
		Yaw: s.Yaw + o.Yaw,
		Vx:  s.Vx + o.Vx,
		Vy:  s.Vy + o.Vy,
		R:   s.R + o.R,
		Ax:  s.Ax + o.Ax,
		Ay:  s.Ay + o.Ay,
	}
}

func (s State) Scale(factor float64) State {
	return State{
		X:   s.X * factor,
		Y:   s.Y * factor,
		Yaw: s.Yaw * factor,
		Vx:  s.Vx * factor,
		Vy:  s.Vy * factor,
		R:   s.R * factor,
		Ax:  s.Ax * factor,
		Ay:  s.Ay * factor,
	}
}

func (s State) IsValid() bool {
	for _, v := range [...]float64{s.X, s.Y, s.Yaw, s.Vx, s.Vy, s.R, s.Ax, s.Ay} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Speed returns the magnitude of the body-frame velocity.
func (s State) Speed() float64 {
	return math.Hypot(s.Vx, s.Vy)
}

// WrapYaw returns the state with yaw normalized to (-pi, pi].
func (s State) WrapYaw() State {
	s.Yaw = wrapAngle(s.Yaw)
	return s
}

// Input is the externally commanded actuation. Acc and Vel are alternative
// longitudinal commands; which one a model consumes depends on the command
// mode of the upstream driver.
type Input struct {
	Acc   float64 `yaml:"acc"`
	Vel   float64 `yaml:"vel"`
	Delta float64 `yaml:"delta"`
}

func (u Input) IsValid() bool {
	for _, v := range [...]float64{u.Acc, u.Vel, u.Delta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
