// Package metrics reduces a simulation run to headline numbers.
package metrics

import (
	"math"

	"github.com/san-kum/racesim/internal/driver"
)

// TopSpeed tracks the highest speed magnitude seen during a run.
type TopSpeed struct {
	max float64
}

func NewTopSpeed() *TopSpeed { return &TopSpeed{} }

func (m *TopSpeed) Name() string { return "top_speed" }

func (m *TopSpeed) Observe(s driver.Snapshot) {
	if v := s.State.Speed(); v > m.max {
		m.max = v
	}
}

func (m *TopSpeed) Value() float64 { return m.max }

func (m *TopSpeed) Reset() { m.max = 0 }

// Distance integrates the travelled path length from snapshot to snapshot.
type Distance struct {
	total float64
	prev  driver.Snapshot
	first bool
}

func NewDistance() *Distance { return &Distance{first: true} }

func (m *Distance) Name() string { return "distance" }

func (m *Distance) Observe(s driver.Snapshot) {
	if !m.first {
		m.total += math.Hypot(s.State.X-m.prev.State.X, s.State.Y-m.prev.State.Y)
	}
	m.prev = s
	m.first = false
}

func (m *Distance) Value() float64 { return m.total }

func (m *Distance) Reset() {
	m.total = 0
	m.first = true
}

// ControlEffort averages the absolute effective actuation per tick. Gated
// ticks contribute zero, so a run that never leaves OFF scores zero.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (m *ControlEffort) Name() string { return "control_effort" }

func (m *ControlEffort) Observe(s driver.Snapshot) {
	m.sum += math.Abs(s.Input.Acc) + math.Abs(s.Input.Delta)
	m.samples++
}

func (m *ControlEffort) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *ControlEffort) Reset() {
	m.sum = 0
	m.samples = 0
}

// DrivingTime accumulates simulated seconds with actuation enabled.
type DrivingTime struct {
	total float64
	prevT float64
	first bool
}

func NewDrivingTime() *DrivingTime { return &DrivingTime{first: true} }

func (m *DrivingTime) Name() string { return "driving_time" }

func (m *DrivingTime) Observe(s driver.Snapshot) {
	if !m.first && s.ActuationEnabled {
		m.total += s.Time - m.prevT
	}
	if m.first && s.ActuationEnabled {
		m.total += s.Time
	}
	m.prevT = s.Time
	m.first = false
}

func (m *DrivingTime) Value() float64 { return m.total }

func (m *DrivingTime) Reset() {
	m.total = 0
	m.prevT = 0
	m.first = true
}

// Default returns the standard metric set for a run.
func Default() []driver.Metric {
	return []driver.Metric{NewTopSpeed(), NewDistance(), NewControlEffort(), NewDrivingTime()}
}
