package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/fieldsim/internal/field"
	"github.com/san-kum/fieldsim/internal/sim"
)

// Store persists run results under a base directory, one subdirectory
// per run: metadata.json, history.csv, manifestations.csv.
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
	ID             string             `json:"id"`
	Preset         string             `json:"preset"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Size           int                `json:"size"`
	Steps          int                `json:"steps"`
	Manifestations int                `json:"manifestations"`
	Metrics        map[string]float64 `json:"metrics"`
}

func (s *Store) Save(preset string, size int, seed int64, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             runID,
		Preset:         preset,
		Timestamp:      time.Now(),
		Seed:           seed,
		Size:           size,
		Steps:          result.Steps,
		Manifestations: len(result.Manifestations),
		Metrics:        result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, "history.csv"), result.History); err != nil {
		return "", err
	}
	if err := writeManifestations(filepath.Join(runDir, "manifestations.csv"), result.Manifestations); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeHistory(path string, h *sim.History) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append([]string{"step"}, sim.SeriesNames()...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < h.Len(); i++ {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(h.SubstrateMean[i], 'f', 6, 64),
			strconv.FormatFloat(h.ResponseMean[i], 'f', 6, 64),
			strconv.FormatFloat(h.FieldMean[i], 'f', 6, 64),
			strconv.FormatFloat(h.ManifestCount[i], 'f', 0, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func writeManifestations(path string, ms []field.Manifestation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"seq", "row", "col", "strength"}); err != nil {
		return err
	}

	for _, m := range ms {
		row := []string{
			strconv.Itoa(m.Seq),
			strconv.Itoa(m.Row),
			strconv.Itoa(m.Col),
			strconv.FormatFloat(m.Strength, 'f', 8, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue // skip runs with damaged metadata
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadHistory reads the four recorded series back, keyed by series name.
func (s *Store) LoadHistory(runID string) (map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "history.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("storage: empty history for run %s", runID)
	}

	header := records[0]
	series := make(map[string][]float64, len(header)-1)

	for _, rec := range records[1:] {
		for col := 1; col < len(header) && col < len(rec); col++ {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: bad value %q in run %s: %w", rec[col], runID, err)
			}
			series[header[col]] = append(series[header[col]], v)
		}
	}

	return series, nil
}

// LoadManifestations reads the event log back in sequence order.
func (s *Store) LoadManifestations(runID string) ([]field.Manifestation, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "manifestations.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	ms := make([]field.Manifestation, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 4 {
			continue
		}
		seq, err1 := strconv.Atoi(rec[0])
		row, err2 := strconv.Atoi(rec[1])
		col, err3 := strconv.Atoi(rec[2])
		strength, err4 := strconv.ParseFloat(rec[3], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("storage: bad manifestation record %v in run %s", rec, runID)
		}
		ms = append(ms, field.Manifestation{Seq: seq, Row: row, Col: col, Strength: strength})
	}

	return ms, nil
}
