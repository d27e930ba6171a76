package storage

import (
	"encoding/json"
	"io"
)

// ExportData is the JSON export schema consumed by external analysis tools.
type ExportData struct {
	ID           string             `json:"id"`
	Model        string             `json:"model"`
	Mission      string             `json:"mission"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Steps        int                `json:"steps"`
	FinalMission string             `json:"final_mission"`
	Metrics      map[string]float64 `json:"metrics"`
	Times        []float64          `json:"times"`
	States       [][]float64        `json:"states"`
	Missions     []string           `json:"missions"`
	Enabled      []bool             `json:"enabled"`
}

// ExportJSON streams a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Get(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadTelemetry(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		ID:           meta.ID,
		Model:        meta.Model,
		Mission:      meta.Mission,
		Dt:           meta.Dt,
		Duration:     meta.Duration,
		Steps:        meta.Steps,
		FinalMission: meta.FinalMission,
		Metrics:      meta.Metrics,
		Times:        make([]float64, len(rows)),
		States:       make([][]float64, len(rows)),
		Missions:     make([]string, len(rows)),
		Enabled:      make([]bool, len(rows)),
	}
	for i, row := range rows {
		data.Times[i] = row.Time
		data.States[i] = []float64{
			row.State.X, row.State.Y, row.State.Yaw,
			row.State.Vx, row.State.Vy, row.State.R,
			row.State.Ax, row.State.Ay,
		}
		data.Missions[i] = row.Mission
		data.Enabled[i] = row.Enabled
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
