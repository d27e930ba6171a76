package vehicle

import "math"

// PointMass treats the car as a point accelerating along the steering
// direction. The derivative is evaluated on the pre-update state, then one
// explicit Euler step is taken: from rest with acc=1 and dt=1 the step yields
// v_x=1 but x=0. Yaw is not integrated; it is derived from the velocity
// vector after the step and held while the car is stationary.
type PointMass struct {
	param *Param
}

func NewPointMass(p *Param) *PointMass {
	return &PointMass{param: p}
}

func (pm *PointMass) Next(x State, u Input, dt float64) State {
	ax := u.Acc * math.Cos(u.Delta)
	ay := u.Acc * math.Sin(u.Delta)

	deriv := State{
		X:  x.Vx,
		Y:  x.Vy,
		Vx: ax,
		Vy: ay,
	}

	next := x.Add(deriv.Scale(dt))
	next.Ax = ax
	next.Ay = ay
	if next.Vx != 0 || next.Vy != 0 {
		next.Yaw = math.Atan2(next.Vy, next.Vx)
	}
	return next
}
