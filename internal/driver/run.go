package driver

import (
	"context"
	"fmt"
	"sort"
)

// Metric observes every tick of a run and reduces it to one number.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Event schedules a trigger at a simulated time, letting a headless run
// exercise a full mission sequence without external collaborators.
type Event struct {
	At      float64
	Trigger Trigger
}

// Config controls one headless run.
type Config struct {
	Dt       float64
	Duration float64
	Events   []Event
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	for _, e := range c.Events {
		if e.At < 0 {
			return fmt.Errorf("event %s scheduled before t=0", e.Trigger.Kind)
		}
	}
	return nil
}

// Result aggregates a completed (or aborted) run.
type Result struct {
	Snapshots  []Snapshot
	Metrics    map[string]float64
	Warnings   []string
	StepsTaken int
}

// Final returns the last recorded snapshot.
func (r *Result) Final() Snapshot {
	if len(r.Snapshots) == 0 {
		return Snapshot{}
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Run executes the fixed-tick loop until the duration elapses, the context is
// canceled or the model rejects a state. Scheduled events fire in time order
// at the first tick whose start time has reached them.
func (d *Driver) Run(ctx context.Context, cfg Config, metrics []Metric) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	events := make([]Event, len(cfg.Events))
	copy(events, cfg.Events)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &Result{
		Snapshots: make([]Snapshot, 0, steps),
		Metrics:   make(map[string]float64),
	}

	for _, m := range metrics {
		m.Reset()
	}

	nextEvent := 0
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.Warnings = d.warnings
			return result, ctx.Err()
		default:
		}

		for nextEvent < len(events) && events[nextEvent].At <= d.time {
			d.Push(events[nextEvent].Trigger)
			nextEvent++
		}

		snap, err := d.Step(cfg.Dt)
		if err != nil {
			result.Warnings = d.warnings
			return result, err
		}

		for _, m := range metrics {
			m.Observe(snap)
		}
		result.Snapshots = append(result.Snapshots, snap)
		result.StepsTaken++
	}

	for _, m := range metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Warnings = d.warnings
	return result, nil
}
