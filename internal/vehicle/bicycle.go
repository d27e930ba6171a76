package vehicle

import "math"

// Slip angles are undefined as v_x approaches zero; below this speed they are
// taken as zero and the kinematic blend carries the step.
const slipGuardSpeed = 0.1

// DynamicBicycle integrates a planar two-wheel rigid-body model. Lateral tire
// forces follow the magic formula with per-axle coefficients, axle loads
// combine static weight, quadratic downforce and drag-induced transfer, and
// below the configured blend band the result is mixed with a no-slip
// kinematic bicycle estimate so a standing start stays well conditioned.
type DynamicBicycle struct {
	param *Param
}

func NewDynamicBicycle(p *Param) *DynamicBicycle {
	return &DynamicBicycle{param: p}
}

func (d *DynamicBicycle) Next(x State, u Input, dt float64) State {
	p := d.param

	fDrag := d.drag(x)
	fx := p.Vehicle.Mass*u.Acc - fDrag

	alphaF := d.slipAngle(x, u, true)
	alphaR := d.slipAngle(x, u, false)
	fzF, fzR := d.axleLoads(x, fDrag)
	fyF := lateralForce(p.TireFront, fzF, alphaF)
	fyR := lateralForce(p.TireRear, fzR, alphaR)

	deriv := d.derivative(x, u, fx, fyF, fyR)
	next := x.Add(deriv.Scale(dt))
	next.Ax = deriv.Vx - x.Vy*x.R
	next.Ay = deriv.Vy + x.Vx*x.R

	return d.blendKinematic(x, next, u, fx, dt)
}

// slipAngle computes the angle between a tire's heading and its velocity
// vector, clamped to zero near standstill rather than dividing by ~0.
func (d *DynamicBicycle) slipAngle(x State, u Input, front bool) float64 {
	vx := math.Abs(x.Vx)
	if vx < slipGuardSpeed {
		return 0
	}
	if front {
		return u.Delta - math.Atan2(x.Vy+d.param.Vehicle.Lf*x.R, vx)
	}
	return -math.Atan2(x.Vy-d.param.Vehicle.Lr*x.R, vx)
}

func (d *DynamicBicycle) downforce(x State) float64 {
	return d.param.Aero.CDown * x.Vx * x.Vx
}

func (d *DynamicBicycle) drag(x State) float64 {
	return d.param.Aero.CDrag * x.Vx * x.Vx
}

// axleLoads distributes the vertical load: static split by wheelbase,
// downforce split by the aero balance, and drag shifting load rearwards
// through the CoG height.
func (d *DynamicBicycle) axleLoads(x State, fDrag float64) (fzF, fzR float64) {
	p := d.param
	l := p.Vehicle.Wheelbase()
	static := p.Vehicle.Mass * p.Vehicle.Gravity
	down := d.downforce(x)
	transfer := fDrag * p.Vehicle.HCog / l

	fzF = static*p.Vehicle.Lr/l + down*p.Aero.SplitFront - transfer
	fzR = static*p.Vehicle.Lf/l + down*(1-p.Aero.SplitFront) + transfer
	return fzF, fzR
}

// lateralForce evaluates the magic-formula curve Fz*D*sin(C*atan(B*a - E*(B*a
// - atan(B*a)))). Odd in the slip angle, saturating at D*Fz.
func lateralForce(t TireParam, fz, alpha float64) float64 {
	ba := t.B * alpha
	return fz * t.D * math.Sin(t.C*math.Atan(ba-t.E*(ba-math.Atan(ba))))
}

func (d *DynamicBicycle) derivative(x State, u Input, fx, fyF, fyR float64) State {
	p := d.param
	m := p.Vehicle.Mass
	sinYaw, cosYaw := math.Sincos(x.Yaw)
	sinDelta, cosDelta := math.Sincos(u.Delta)

	return State{
		X:   x.Vx*cosYaw - x.Vy*sinYaw,
		Y:   x.Vx*sinYaw + x.Vy*cosYaw,
		Yaw: x.R,
		Vx:  (fx-fyF*sinDelta)/m + x.Vy*x.R,
		Vy:  (fyR+fyF*cosDelta)/m - x.Vx*x.R,
		R:   (fyF*p.Vehicle.Lf*cosDelta - fyR*p.Vehicle.Lr) / p.Vehicle.Iz,
	}
}

// blendWeight ramps linearly from 0 below the blend band to 1 above it.
func (d *DynamicBicycle) blendWeight(vx float64) float64 {
	b := d.param.Blend
	return clamp((math.Abs(vx)-b.MinSpeed)/(b.MaxSpeed-b.MinSpeed), 0, 1)
}

// blendKinematic mixes the dynamic step with a no-slip bicycle estimate. The
// weight is continuous in v_x, so accelerations stay continuous across the
// band instead of jumping at a hard threshold.
func (d *DynamicBicycle) blendKinematic(x, dyn State, u Input, fx, dt float64) State {
	w := d.blendWeight(x.Vx)
	if w >= 1 {
		return dyn
	}
	p := d.param
	l := p.Vehicle.Wheelbase()

	vxKin := x.Vx + fx/p.Vehicle.Mass*dt
	vyKin := vxKin * math.Tan(u.Delta) * p.Vehicle.Lr / l
	rKin := vxKin * math.Tan(u.Delta) / l

	dyn.Vx = w*dyn.Vx + (1-w)*vxKin
	dyn.Vy = w*dyn.Vy + (1-w)*vyKin
	dyn.R = w*dyn.R + (1-w)*rKin
	return dyn
}
