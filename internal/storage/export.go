package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orbiter/internal/sim"
)

type jsonExport struct {
	Run       RunMetadata  `json:"run"`
	Telemetry []sim.Sample `json:"telemetry"`
}

// ExportJSON writes a run's metadata and telemetry as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonExport{Run: *meta, Telemetry: samples})
}

// ExportCSV copies a run's telemetry to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	samples, err := s.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	return WriteCSV(w, samples)
}
