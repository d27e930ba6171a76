// Package mission implements the discrete mission automaton that gates
// vehicle actuation. The single invariant everything else hangs off: no
// actuation without an explicitly enabling mission state.
package mission

import (
	"errors"
	"fmt"
)

// State is the car's high-level operating mode.
type State int

const (
	Off State = iota
	Ready
	Driving
	EmergencyBrake
	Finished
	// Manual bypasses mission gating for direct-drive debugging. Entered and
	// left only by explicit external request, never by the automaton.
	Manual
)

func (s State) String() string {
	switch s {
	case Off:
		return "OFF"
	case Ready:
		return "READY"
	case Driving:
		return "DRIVING"
	case EmergencyBrake:
		return "EMERGENCY_BRAKE"
	case Finished:
		return "FINISHED"
	case Manual:
		return "MANUAL"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether driving can only resume via an explicit reset.
func (s State) Terminal() bool {
	return s == EmergencyBrake || s == Finished
}

// ErrInvalidTransition marks a trigger that is not valid for the current
// state. Callers log it and carry on; it is never fatal.
var ErrInvalidTransition = errors.New("mission: invalid transition")

// Limits are the internal conditions that force an emergency brake while
// driving. Zero values disable a check.
type Limits struct {
	MaxDrivingTime float64
	MaxSpeed       float64
}

// Machine holds the current mission state and is its sole mutator. It is not
// safe for concurrent use; the simulation driver serializes all triggers at
// tick boundaries.
type Machine struct {
	current  State
	previous State
	mission  string

	prevGo      bool
	drivingTime float64
	violation   string
	limits      Limits
}

func NewMachine(limits Limits) *Machine {
	return &Machine{limits: limits}
}

func (m *Machine) Current() State  { return m.current }
func (m *Machine) Previous() State { return m.previous }
func (m *Machine) Mission() string { return m.mission }

// Violation returns the reason for the last limit-triggered emergency brake,
// empty if none is latched.
func (m *Machine) Violation() string { return m.violation }

// DrivingTime returns the simulated seconds spent in DRIVING since the last
// transition into it.
func (m *Machine) DrivingTime() float64 { return m.drivingTime }

// ActuationAllowed reports whether commanded input may reach the vehicle
// model. True only while DRIVING or in the MANUAL escape hatch.
func (m *Machine) ActuationAllowed() bool {
	return m.current == Driving || m.current == Manual
}

func (m *Machine) transition(to State) {
	m.previous = m.current
	m.current = to
	if to == Driving {
		m.drivingTime = 0
	}
}

// SelectMission validates and stores the mission. Accepted while OFF or
// READY only; a validated selection moves the machine to READY.
func (m *Machine) SelectMission(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty mission selection in %s", ErrInvalidTransition, m.current)
	}
	if m.current != Off && m.current != Ready {
		return fmt.Errorf("%w: mission selection in %s", ErrInvalidTransition, m.current)
	}
	m.mission = name
	m.transition(Ready)
	return nil
}

// GoSignal feeds the raw go/flag level. Only a rising edge while READY starts
// driving; a rising edge anywhere else is rejected and the state is left
// untouched.
func (m *Machine) GoSignal(level bool) error {
	rising := level && !m.prevGo
	m.prevGo = level
	if !rising {
		return nil
	}
	if m.current != Ready {
		return fmt.Errorf("%w: go signal in %s", ErrInvalidTransition, m.current)
	}
	m.transition(Driving)
	return nil
}

// EmergencyBrake forces EMERGENCY_BRAKE from any non-terminal state,
// overriding all other logic. Already being in EMERGENCY_BRAKE is a no-op.
func (m *Machine) EmergencyBrake(reason string) error {
	switch m.current {
	case EmergencyBrake:
		return nil
	case Finished:
		return fmt.Errorf("%w: emergency brake in %s", ErrInvalidTransition, m.current)
	}
	m.violation = reason
	m.transition(EmergencyBrake)
	return nil
}

// Finish marks the course complete. Valid while DRIVING only.
func (m *Machine) Finish() error {
	if m.current != Driving {
		return fmt.Errorf("%w: finish in %s", ErrInvalidTransition, m.current)
	}
	m.transition(Finished)
	return nil
}

// EnterManual switches to the direct-drive debugging mode. Allowed from OFF
// only so it can never preempt a mission.
func (m *Machine) EnterManual() error {
	if m.current != Off {
		return fmt.Errorf("%w: manual mode in %s", ErrInvalidTransition, m.current)
	}
	m.transition(Manual)
	return nil
}

// Reset returns to OFF from any state, clearing the latched violation, the
// selected mission and the stored go-signal level. The simulation has no
// hardware interlock, so this always succeeds.
func (m *Machine) Reset() {
	m.transition(Off)
	m.mission = ""
	m.violation = ""
	m.prevGo = false
	m.drivingTime = 0
}

// Tick advances simulated time and evaluates the internal limit conditions.
// Called once per simulation step before the vehicle model integrates.
func (m *Machine) Tick(dt, vx float64) {
	if m.current != Driving {
		return
	}
	m.drivingTime += dt
	if m.limits.MaxDrivingTime > 0 && m.drivingTime > m.limits.MaxDrivingTime {
		m.EmergencyBrake(fmt.Sprintf("max driving time %.1fs exceeded", m.limits.MaxDrivingTime))
		return
	}
	if m.limits.MaxSpeed > 0 && abs(vx) > m.limits.MaxSpeed {
		m.EmergencyBrake(fmt.Sprintf("max speed %.1f m/s exceeded", m.limits.MaxSpeed))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
