// Package storage persists simulation runs as flat files: one directory per
// run holding metadata.json and telemetry.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/racesim/internal/driver"
	"github.com/san-kum/racesim/internal/vehicle"
)

var csvHeader = []string{
	"time", "x", "y", "yaw", "v_x", "v_y", "r", "a_x", "a_y", "mission", "enabled",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Model        string             `json:"model"`
	Mission      string             `json:"mission"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Steps        int                `json:"steps"`
	FinalMission string             `json:"final_mission"`
	Metrics      map[string]float64 `json:"metrics"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// Save writes one completed run and returns its generated id.
func (s *Store) Save(model, missionName string, dt, duration float64, seed int64, result *driver.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Model:        model,
		Mission:      missionName,
		Timestamp:    time.Now(),
		Seed:         seed,
		Dt:           dt,
		Duration:     duration,
		Steps:        result.StepsTaken,
		FinalMission: result.Final().Mission.String(),
		Metrics:      result.Metrics,
		Warnings:     result.Warnings,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "telemetry.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, snap := range result.Snapshots {
		row := []string{
			formatFloat(snap.Time),
			formatFloat(snap.State.X),
			formatFloat(snap.State.Y),
			formatFloat(snap.State.Yaw),
			formatFloat(snap.State.Vx),
			formatFloat(snap.State.Vy),
			formatFloat(snap.State.R),
			formatFloat(snap.State.Ax),
			formatFloat(snap.State.Ay),
			snap.Mission.String(),
			strconv.FormatBool(snap.ActuationEnabled),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Get loads the metadata of one run.
func (s *Store) Get(runID string) (RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return RunMetadata{}, fmt.Errorf("run %s: %w", runID, err)
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return RunMetadata{}, fmt.Errorf("run %s: %w", runID, err)
	}
	return meta, nil
}

// Row is one parsed telemetry sample.
type Row struct {
	Time    float64
	State   vehicle.State
	Mission string
	Enabled bool
}

// LoadTelemetry reads a run's CSV back for plotting and export.
func (s *Store) LoadTelemetry(runID string) ([]Row, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: empty telemetry", runID)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("run %s: malformed telemetry row", runID)
		}
		vals := make([]float64, 9)
		for i := range vals {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", runID, err)
			}
			vals[i] = v
		}
		rows = append(rows, Row{
			Time: vals[0],
			State: vehicle.State{
				X: vals[1], Y: vals[2], Yaw: vals[3],
				Vx: vals[4], Vy: vals[5], R: vals[6],
				Ax: vals[7], Ay: vals[8],
			},
			Mission: rec[9],
			Enabled: rec[10] == "true",
		})
	}
	return rows, nil
}
