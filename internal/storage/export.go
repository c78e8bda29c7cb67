package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/fieldsim/internal/field"
)

// ExportData is the flat JSON shape of one run.
type ExportData struct {
	ID             string                `json:"id"`
	Preset         string                `json:"preset"`
	Seed           int64                 `json:"seed"`
	Size           int                   `json:"size"`
	Steps          int                   `json:"steps"`
	History        map[string][]float64  `json:"history"`
	Manifestations []field.Manifestation `json:"manifestations"`
	Metrics        map[string]float64    `json:"metrics"`
}

// ExportJSON loads a saved run and writes it as indented JSON.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	history, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}
	ms, err := s.LoadManifestations(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		ID:             meta.ID,
		Preset:         meta.Preset,
		Seed:           meta.Seed,
		Size:           meta.Size,
		Steps:          meta.Steps,
		History:        history,
		Manifestations: ms,
		Metrics:        meta.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (s *Store) ExportJSONStdout(runID string) error {
	return s.ExportJSON(runID, os.Stdout)
}
