package vehicle

import (
	"fmt"
	"math"
)

// Dynamics advances a valid, clamped state/input pair by dt. Implementations
// must stay finite for every clamped input and dt >= 0; degenerate geometry
// (standing start, zero forward speed) is theirs to absorb.
type Dynamics interface {
	Next(x State, u Input, dt float64) State
}

// Model wraps a Dynamics variant with the shared validation contract:
// non-finite input or state fails the tick, in-range violations are clamped,
// and the resulting yaw is wrapped.
type Model struct {
	name  string
	param *Param
	dyn   Dynamics
}

// New constructs a model by variant name ("point_mass" or "dynamic_bicycle").
func New(name string, p *Param) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var dyn Dynamics
	switch name {
	case "point_mass":
		dyn = NewPointMass(p)
	case "dynamic_bicycle":
		dyn = NewDynamicBicycle(p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return &Model{name: name, param: p, dyn: dyn}, nil
}

func (m *Model) Name() string  { return m.name }
func (m *Model) Param() *Param { return m.param }

// UpdateState produces the state after dt seconds under input u. The incoming
// state is returned unchanged on error.
func (m *Model) UpdateState(x State, u Input, dt float64) (State, error) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return x, fmt.Errorf("%w: dt=%v", ErrInvalidTimestep, dt)
	}
	if !u.IsValid() {
		return x, fmt.Errorf("%w: acc=%v vel=%v delta=%v", ErrInvalidInput, u.Acc, u.Vel, u.Delta)
	}
	if !x.IsValid() {
		return x, ErrInvalidState
	}

	u = m.param.Input.Clamp(u)
	next := m.dyn.Next(x, u, dt).WrapYaw()
	if !next.IsValid() {
		return x, fmt.Errorf("%w: %s produced non-finite state", ErrInvalidState, m.name)
	}
	return next, nil
}
