// Package driver runs the fixed-tick simulation loop: it feeds buffered
// mission triggers to the state machine, gates the commanded input through
// the actuation contract and advances the vehicle model.
package driver

import (
	"fmt"

	"github.com/san-kum/racesim/internal/mission"
	"github.com/san-kum/racesim/internal/vehicle"
)

// TriggerKind enumerates the external mission signals.
type TriggerKind int

const (
	TriggerSelectMission TriggerKind = iota
	TriggerGo
	TriggerFinish
	TriggerEmergencyBrake
	TriggerReset
	TriggerManual
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerSelectMission:
		return "select"
	case TriggerGo:
		return "go"
	case TriggerFinish:
		return "finish"
	case TriggerEmergencyBrake:
		return "ebs"
	case TriggerReset:
		return "reset"
	case TriggerManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Trigger is one buffered mission signal, consumed at the next tick boundary.
type Trigger struct {
	Kind    TriggerKind
	Mission string // TriggerSelectMission payload
	Level   bool   // raw go/flag line level for TriggerGo
	Reason  string // TriggerEmergencyBrake annotation
}

// Snapshot is the per-tick output handed to collaborators for publishing.
type Snapshot struct {
	Time             float64
	State            vehicle.State
	Input            vehicle.Input // effective input after gating and clamping
	Mission          mission.State
	ActuationEnabled bool
}

// StepError carries tick context out of a failed model update.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Driver owns the vehicle state and input across ticks. Not safe for
// concurrent use; external trigger delivery must be serialized before it
// reaches Push.
type Driver struct {
	model   *vehicle.Model
	machine *mission.Machine
	noise   *vehicle.Noise

	state   vehicle.State
	command vehicle.Input
	pending []Trigger

	time     float64
	step     int
	warnings []string
}

// New wires a driver. The noise source may be nil to disable perturbation
// regardless of parameter settings.
func New(model *vehicle.Model, machine *mission.Machine, noise *vehicle.Noise) *Driver {
	return &Driver{model: model, machine: machine, noise: noise}
}

func (d *Driver) State() vehicle.State { return d.state }

func (d *Driver) Time() float64 { return d.time }

func (d *Driver) Machine() *mission.Machine { return d.machine }

func (d *Driver) Warnings() []string { return d.warnings }

// SetState places the vehicle, e.g. at the configured grid position.
func (d *Driver) SetState(s vehicle.State) { d.state = s }

// Command stores the externally commanded input. It is applied every tick
// until replaced, but only reaches the model while actuation is enabled.
func (d *Driver) Command(u vehicle.Input) { d.command = u }

// Push buffers a mission trigger for the next tick.
func (d *Driver) Push(t Trigger) { d.pending = append(d.pending, t) }

func (d *Driver) applyTrigger(t Trigger) error {
	switch t.Kind {
	case TriggerSelectMission:
		return d.machine.SelectMission(t.Mission)
	case TriggerGo:
		return d.machine.GoSignal(t.Level)
	case TriggerFinish:
		return d.machine.Finish()
	case TriggerEmergencyBrake:
		reason := t.Reason
		if reason == "" {
			reason = "external request"
		}
		return d.machine.EmergencyBrake(reason)
	case TriggerReset:
		d.machine.Reset()
		return nil
	case TriggerManual:
		return d.machine.EnterManual()
	default:
		return fmt.Errorf("%w: unknown trigger %d", mission.ErrInvalidTransition, t.Kind)
	}
}

// Step advances the simulation by dt. Trigger processing and the limit check
// resolve before the model integrates, so a same-tick emergency brake already
// zeroes this tick's input.
func (d *Driver) Step(dt float64) (Snapshot, error) {
	for _, t := range d.pending {
		if err := d.applyTrigger(t); err != nil {
			d.warnings = append(d.warnings, fmt.Sprintf("t=%.3f: %s ignored: %v", d.time, t.Kind, err))
		}
	}
	d.pending = d.pending[:0]

	d.machine.Tick(dt, d.state.Vx)

	u := d.command
	if !d.machine.ActuationAllowed() {
		u = vehicle.Input{}
	} else if d.noise != nil {
		u = d.noise.ApplyInput(u)
	}

	next, err := d.model.UpdateState(d.state, u, dt)
	if err != nil {
		return Snapshot{}, &StepError{Step: d.step, Time: d.time, Err: err}
	}

	d.state = next
	d.time += dt
	d.step++

	return Snapshot{
		Time:             d.time,
		State:            d.state,
		Input:            u,
		Mission:          d.machine.Current(),
		ActuationEnabled: d.machine.ActuationAllowed(),
	}, nil
}

// Observed returns the current state with sensor noise applied, leaving the
// ground truth untouched.
func (d *Driver) Observed() vehicle.State {
	if d.noise == nil {
		return d.state
	}
	return d.noise.ApplyState(d.state)
}
