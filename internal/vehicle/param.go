package vehicle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Param bundles the physical constants of one vehicle. It is loaded once at
// model construction and shared by reference; nothing mutates it afterwards.
type Param struct {
	Vehicle   ChassisParam `yaml:"vehicle"`
	Aero      AeroParam    `yaml:"aero"`
	TireFront TireParam    `yaml:"tire_front"`
	TireRear  TireParam    `yaml:"tire_rear"`
	Input     InputRanges  `yaml:"input"`
	Noise     NoiseParam   `yaml:"noise"`
	Limits    LimitParam   `yaml:"limits"`
	Blend     BlendParam   `yaml:"kinematic"`
}

type ChassisParam struct {
	Mass    float64 `yaml:"mass"`
	Iz      float64 `yaml:"inertia_z"`
	Lf      float64 `yaml:"wheelbase_front"` // CoG to front axle
	Lr      float64 `yaml:"wheelbase_rear"`  // CoG to rear axle
	HCog    float64 `yaml:"cog_height"`
	Gravity float64 `yaml:"gravity"`
}

// Wheelbase returns the full axle-to-axle distance.
func (c ChassisParam) Wheelbase() float64 {
	return c.Lf + c.Lr
}

type AeroParam struct {
	CDown      float64 `yaml:"c_down"`
	CDrag      float64 `yaml:"c_drag"`
	SplitFront float64 `yaml:"downforce_split_front"`
}

// TireParam holds the Pacejka magic-formula coefficients of one axle. The
// curve shape is entirely parameter-driven; C=1, E=0 degrades to a saturating
// linear-in-slip response.
type TireParam struct {
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
	D float64 `yaml:"d"`
	E float64 `yaml:"e"`
}

type InputRanges struct {
	MaxAcc   float64 `yaml:"max_acceleration"`
	MaxVel   float64 `yaml:"max_velocity"`
	MinVel   float64 `yaml:"min_velocity"`
	MaxSteer float64 `yaml:"max_steering"`
}

// Clamp saturates a finite input to the declared actuation ranges.
func (r InputRanges) Clamp(u Input) Input {
	u.Acc = clamp(u.Acc, -r.MaxAcc, r.MaxAcc)
	u.Vel = clamp(u.Vel, r.MinVel, r.MaxVel)
	u.Delta = clamp(u.Delta, -r.MaxSteer, r.MaxSteer)
	return u
}

// NoiseParam configures the Gaussian perturbation applied to published state
// and incoming input. All perturbations are zero-mean; the fields are
// standard deviations per channel.
type NoiseParam struct {
	Enabled  bool    `yaml:"enabled"`
	Seed     int64   `yaml:"seed"`
	Position float64 `yaml:"position"`
	Yaw      float64 `yaml:"yaw"`
	Velocity float64 `yaml:"velocity"`
	YawRate  float64 `yaml:"yaw_rate"`
	Acc      float64 `yaml:"acceleration"`
	Steering float64 `yaml:"steering"`
}

// LimitParam configures the mission-level safety limits. A zero value
// disables the corresponding check.
type LimitParam struct {
	MaxDrivingTime float64 `yaml:"max_driving_time"`
	MaxSpeed       float64 `yaml:"max_speed"`
}

// BlendParam configures the speed band over which the dynamic bicycle blends
// with the kinematic estimate: fully kinematic below MinSpeed, fully dynamic
// above MaxSpeed, linear ramp in between.
type BlendParam struct {
	MinSpeed float64 `yaml:"blend_min_speed"`
	MaxSpeed float64 `yaml:"blend_max_speed"`
}

// DefaultParam returns constants for a typical electric formula student car.
func DefaultParam() *Param {
	return &Param{
		Vehicle: ChassisParam{
			Mass:    190.0,
			Iz:      110.0,
			Lf:      0.711,
			Lr:      0.822,
			HCog:    0.25,
			Gravity: 9.81,
		},
		Aero: AeroParam{
			CDown:      1.9,
			CDrag:      0.9,
			SplitFront: 0.4,
		},
		TireFront: TireParam{B: 9.6, C: 1.9, D: 1.0, E: 0.97},
		TireRear:  TireParam{B: 9.6, C: 1.9, D: 1.0, E: 0.97},
		Input: InputRanges{
			MaxAcc:   10.0,
			MaxVel:   30.0,
			MinVel:   -5.0,
			MaxSteer: 0.52,
		},
		Noise: NoiseParam{
			Seed:     42,
			Position: 0.01,
			Yaw:      0.005,
			Velocity: 0.02,
			YawRate:  0.01,
			Acc:      0.05,
			Steering: 0.002,
		},
		Limits: LimitParam{
			MaxDrivingTime: 300.0,
			MaxSpeed:       35.0,
		},
		Blend: BlendParam{MinSpeed: 1.5, MaxSpeed: 3.5},
	}
}

// LoadParam reads vehicle constants from a YAML file, starting from the
// defaults so partial files stay valid.
func LoadParam(path string) (*Param, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := DefaultParam()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadParam, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the constants for physical plausibility. Failures here are
// fatal at startup; integration never re-checks them.
func (p *Param) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{p.Vehicle.Mass > 0, "vehicle.mass must be positive"},
		{p.Vehicle.Iz > 0, "vehicle.inertia_z must be positive"},
		{p.Vehicle.Lf > 0, "vehicle.wheelbase_front must be positive"},
		{p.Vehicle.Lr > 0, "vehicle.wheelbase_rear must be positive"},
		{p.Vehicle.HCog >= 0, "vehicle.cog_height must not be negative"},
		{p.Vehicle.Gravity > 0, "vehicle.gravity must be positive"},
		{p.Aero.CDown >= 0, "aero.c_down must not be negative"},
		{p.Aero.CDrag >= 0, "aero.c_drag must not be negative"},
		{p.Aero.SplitFront >= 0 && p.Aero.SplitFront <= 1, "aero.downforce_split_front must be in [0,1]"},
		{p.TireFront.D >= 0, "tire_front.d must not be negative"},
		{p.TireRear.D >= 0, "tire_rear.d must not be negative"},
		{p.Input.MaxAcc > 0, "input.max_acceleration must be positive"},
		{p.Input.MaxSteer > 0, "input.max_steering must be positive"},
		{p.Input.MaxVel > p.Input.MinVel, "input.max_velocity must exceed input.min_velocity"},
		{p.Limits.MaxDrivingTime >= 0, "limits.max_driving_time must not be negative"},
		{p.Limits.MaxSpeed >= 0, "limits.max_speed must not be negative"},
		{p.Blend.MaxSpeed > p.Blend.MinSpeed, "kinematic.blend_max_speed must exceed blend_min_speed"},
		{p.Blend.MinSpeed >= 0, "kinematic.blend_min_speed must not be negative"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrBadParam, c.msg)
		}
	}
	return nil
}
