// Package config loads and validates simulation run configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/racesim/internal/driver"
	"github.com/san-kum/racesim/internal/vehicle"
)

const (
	DefaultModel    = "dynamic_bicycle"
	DefaultMission  = "acceleration"
	DefaultDt       = 0.01
	DefaultDuration = 30.0
)

// Config is the full description of one run: model choice, timing, the
// vehicle constants and the scheduled mission events.
type Config struct {
	Model    string        `yaml:"model"`
	Mission  string        `yaml:"mission"`
	Dt       float64       `yaml:"dt"`
	Duration float64       `yaml:"duration"`
	Seed     int64         `yaml:"seed"`
	Init     vehicle.State `yaml:"init_state"`
	Command  vehicle.Input `yaml:"command"`
	Param    vehicle.Param `yaml:"param"`
	Events   []EventConfig `yaml:"events"`
}

// EventConfig schedules one mission trigger. Trigger is one of: select, go,
// finish, ebs, reset, manual.
type EventConfig struct {
	At      float64 `yaml:"at"`
	Trigger string  `yaml:"trigger"`
	Mission string  `yaml:"mission"`
	Level   bool    `yaml:"level"`
	Reason  string  `yaml:"reason"`
}

// Default returns a runnable configuration: straight-line acceleration with
// the go flag raised shortly after start.
func Default() *Config {
	return &Config{
		Model:    DefaultModel,
		Mission:  DefaultMission,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Command:  vehicle.Input{Acc: 5.0},
		Param:    *vehicle.DefaultParam(),
		Events: []EventConfig{
			{At: 0.5, Trigger: "go", Level: true},
		},
	}
}

// Load reads a YAML config on top of the defaults, so partial files stay
// runnable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model != "point_mass" && c.Model != "dynamic_bicycle" {
		return fmt.Errorf("%w: %q", vehicle.ErrUnknownModel, c.Model)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	if !c.Init.IsValid() {
		return fmt.Errorf("init_state contains non-finite values")
	}
	if !c.Command.IsValid() {
		return fmt.Errorf("command contains non-finite values")
	}
	if err := c.Param.Validate(); err != nil {
		return err
	}
	for _, e := range c.Events {
		if _, err := e.AsEvent(); err != nil {
			return err
		}
	}
	return nil
}

// AsEvent converts the YAML form into a driver event.
func (e EventConfig) AsEvent() (driver.Event, error) {
	if e.At < 0 {
		return driver.Event{}, fmt.Errorf("event %q scheduled before t=0", e.Trigger)
	}
	trig := driver.Trigger{Mission: e.Mission, Level: e.Level, Reason: e.Reason}
	switch e.Trigger {
	case "select":
		trig.Kind = driver.TriggerSelectMission
	case "go":
		trig.Kind = driver.TriggerGo
		// A bare "go" raises the flag.
		if !e.Level {
			trig.Level = true
		}
	case "finish":
		trig.Kind = driver.TriggerFinish
	case "ebs":
		trig.Kind = driver.TriggerEmergencyBrake
	case "reset":
		trig.Kind = driver.TriggerReset
	case "manual":
		trig.Kind = driver.TriggerManual
	default:
		return driver.Event{}, fmt.Errorf("unknown trigger %q", e.Trigger)
	}
	return driver.Event{At: e.At, Trigger: trig}, nil
}

// DriverEvents builds the run's event list: the configured mission is
// selected at t=0, then the scheduled events follow.
func (c *Config) DriverEvents() ([]driver.Event, error) {
	events := make([]driver.Event, 0, len(c.Events)+1)
	if c.Mission != "" {
		events = append(events, driver.Event{
			Trigger: driver.Trigger{Kind: driver.TriggerSelectMission, Mission: c.Mission},
		})
	}
	for _, e := range c.Events {
		ev, err := e.AsEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
