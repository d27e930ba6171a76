package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/san-kum/racesim/internal/driver"
	"github.com/san-kum/racesim/internal/mission"
	"github.com/san-kum/racesim/internal/vehicle"
)

func sampleResult() *driver.Result {
	return &driver.Result{
		Snapshots: []driver.Snapshot{
			{Time: 0.01, State: vehicle.State{X: 0.1, Vx: 1.0}, Mission: mission.Ready},
			{Time: 0.02, State: vehicle.State{X: 0.2, Vx: 2.0, Yaw: -0.5}, Mission: mission.Driving, ActuationEnabled: true},
		},
		Metrics:    map[string]float64{"top_speed": 2.0},
		StepsTaken: 2,
	}
}

func TestSaveAndList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := st.Save("dynamic_bicycle", "trackdrive", 0.01, 0.02, 7, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != runID || run.Model != "dynamic_bicycle" || run.Mission != "trackdrive" {
		t.Errorf("metadata mismatch: %+v", run)
	}
	if run.FinalMission != "DRIVING" {
		t.Errorf("expected final mission DRIVING, got %s", run.FinalMission)
	}
	if run.Metrics["top_speed"] != 2.0 {
		t.Errorf("metrics not persisted: %+v", run.Metrics)
	}
}

func TestTelemetryRoundtrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := st.Save("point_mass", "skidpad", 0.01, 0.02, 1, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	rows, err := st.LoadTelemetry(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if math.Abs(rows[1].State.Yaw+0.5) > 1e-6 {
		t.Errorf("yaw not round-tripped: %v", rows[1].State.Yaw)
	}
	if rows[1].Mission != "DRIVING" || !rows[1].Enabled {
		t.Errorf("mission columns lost: %+v", rows[1])
	}
	if rows[0].Enabled {
		t.Error("first row should be gated")
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir())
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestGetMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Get("nope_123"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save("point_mass", "autocross", 0.01, 0.02, 3, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.ID != runID || data.Steps != 2 || len(data.States) != 2 {
		t.Errorf("export mismatch: %+v", data)
	}
	if len(data.States[0]) != 8 {
		t.Errorf("expected 8 state columns, got %d", len(data.States[0]))
	}
	if data.Missions[1] != "DRIVING" || !data.Enabled[1] {
		t.Error("mission columns missing from export")
	}
}
