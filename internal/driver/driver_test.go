package driver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/racesim/internal/mission"
	"github.com/san-kum/racesim/internal/vehicle"
)

func newTestDriver(t *testing.T, model string) *Driver {
	t.Helper()
	p := vehicle.DefaultParam()
	m, err := vehicle.New(model, p)
	if err != nil {
		t.Fatal(err)
	}
	return New(m, mission.NewMachine(mission.Limits{
		MaxDrivingTime: p.Limits.MaxDrivingTime,
		MaxSpeed:       p.Limits.MaxSpeed,
	}), nil)
}

func TestStepGatesInputUntilDriving(t *testing.T) {
	d := newTestDriver(t, "point_mass")
	d.Command(vehicle.Input{Acc: 5.0})

	// OFF: commanded acceleration must not move the car.
	snap, err := d.Step(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if snap.ActuationEnabled {
		t.Error("actuation enabled while OFF")
	}
	if snap.Input != (vehicle.Input{}) {
		t.Errorf("non-neutral input reached the model while OFF: %+v", snap.Input)
	}
	if snap.State.Vx != 0 {
		t.Errorf("car moved while OFF: v_x=%v", snap.State.Vx)
	}

	d.Push(Trigger{Kind: TriggerSelectMission, Mission: "acceleration"})
	d.Push(Trigger{Kind: TriggerGo, Level: true})
	snap, err = d.Step(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.ActuationEnabled {
		t.Fatal("actuation should be enabled after select+go")
	}
	if snap.State.Vx <= 0 {
		t.Errorf("car should accelerate while DRIVING, v_x=%v", snap.State.Vx)
	}
}

func TestEmergencyBrakeZeroesInputSameTick(t *testing.T) {
	d := newTestDriver(t, "point_mass")
	d.Push(Trigger{Kind: TriggerSelectMission, Mission: "trackdrive"})
	d.Push(Trigger{Kind: TriggerGo, Level: true})
	d.Command(vehicle.Input{Acc: 5.0})
	if _, err := d.Step(0.01); err != nil {
		t.Fatal(err)
	}
	vBefore := d.State().Vx

	d.Push(Trigger{Kind: TriggerEmergencyBrake, Reason: "test"})
	snap, err := d.Step(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Mission != mission.EmergencyBrake {
		t.Fatalf("expected EMERGENCY_BRAKE, got %v", snap.Mission)
	}
	if snap.Input != (vehicle.Input{}) {
		t.Error("input not neutralized on the brake tick")
	}
	if snap.State.Vx > vBefore {
		t.Error("car accelerated on the brake tick")
	}
}

func TestInvalidTriggerIsWarnedNotFatal(t *testing.T) {
	d := newTestDriver(t, "point_mass")
	d.Push(Trigger{Kind: TriggerGo, Level: true}) // go while OFF

	if _, err := d.Step(0.01); err != nil {
		t.Fatalf("invalid trigger must not fail the tick: %v", err)
	}
	if len(d.Warnings()) != 1 {
		t.Fatalf("expected one recorded warning, got %v", d.Warnings())
	}
	if d.Machine().Current() != mission.Off {
		t.Errorf("state changed by invalid trigger: %v", d.Machine().Current())
	}
}

func TestStepFailsFastOnInvalidState(t *testing.T) {
	d := newTestDriver(t, "point_mass")
	d.SetState(vehicle.State{Vx: math.NaN()})

	_, err := d.Step(0.01)
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if !errors.Is(err, vehicle.ErrInvalidState) {
		t.Fatalf("expected wrapped ErrInvalidState, got %v", err)
	}
}

func TestManualModeBypassesGating(t *testing.T) {
	d := newTestDriver(t, "point_mass")
	d.Push(Trigger{Kind: TriggerManual})
	d.Command(vehicle.Input{Acc: 2.0})

	snap, err := d.Step(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Mission != mission.Manual || !snap.ActuationEnabled {
		t.Fatalf("manual mode not active: %+v", snap)
	}
	if snap.State.Vx <= 0 {
		t.Error("manual command did not reach the model")
	}
}

func TestRunScheduledMissionSequence(t *testing.T) {
	d := newTestDriver(t, "dynamic_bicycle")
	d.Command(vehicle.Input{Acc: 3.0})

	cfg := Config{
		Dt:       0.01,
		Duration: 2.0,
		Events: []Event{
			{At: 0, Trigger: Trigger{Kind: TriggerSelectMission, Mission: "acceleration"}},
			{At: 0.1, Trigger: Trigger{Kind: TriggerGo, Level: true}},
			{At: 1.5, Trigger: Trigger{Kind: TriggerFinish}},
		},
	}

	result, err := d.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.StepsTaken != 200 {
		t.Errorf("expected 200 steps, got %d", result.StepsTaken)
	}

	final := result.Final()
	if final.Mission != mission.Finished {
		t.Errorf("expected FINISHED, got %v", final.Mission)
	}
	if final.State.X <= 0 {
		t.Error("car never moved forward")
	}

	// Enabled flag must track the mission phases.
	for _, snap := range result.Snapshots {
		want := snap.Mission == mission.Driving || snap.Mission == mission.Manual
		if snap.ActuationEnabled != want {
			t.Fatalf("t=%.2f: enabled=%v in %v", snap.Time, snap.ActuationEnabled, snap.Mission)
		}
	}
}

func TestRunSpeedViolationBrakes(t *testing.T) {
	p := vehicle.DefaultParam()
	m, err := vehicle.New("point_mass", p)
	if err != nil {
		t.Fatal(err)
	}
	d := New(m, mission.NewMachine(mission.Limits{MaxSpeed: 5.0}), nil)
	d.Command(vehicle.Input{Acc: 10.0})

	cfg := Config{
		Dt:       0.01,
		Duration: 3.0,
		Events: []Event{
			{At: 0, Trigger: Trigger{Kind: TriggerSelectMission, Mission: "acceleration"}},
			{At: 0, Trigger: Trigger{Kind: TriggerGo, Level: true}},
		},
	}
	result, err := d.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Final().Mission != mission.EmergencyBrake {
		t.Fatalf("expected EMERGENCY_BRAKE after speed violation, got %v", result.Final().Mission)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	d := newTestDriver(t, "point_mass")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, Config{Dt: 0.01, Duration: 10.0}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	d := newTestDriver(t, "point_mass")
	if _, err := d.Run(context.Background(), Config{Dt: 0, Duration: 1}, nil); err == nil {
		t.Error("expected error for dt=0")
	}
	if _, err := d.Run(context.Background(), Config{Dt: 0.01, Duration: -1}, nil); err == nil {
		t.Error("expected error for negative duration")
	}
}
