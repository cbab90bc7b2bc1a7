package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orbiter/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Columns of telemetry.csv, in order.
var Columns = []string{
	"tick", "time", "bodies", "collision_checks", "collisions",
	"lookups", "max_depth", "nodes", "kinetic_energy",
}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Ticks     int                `json:"ticks"`
	Substeps  int                `json:"substeps"`
	Bodies    int                `json:"bodies"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and telemetry.csv into a new run directory.
// meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := s.now()
	runID := fmt.Sprintf("%s_%d", meta.Scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Ticks = result.Ticks
	meta.Elapsed = result.Elapsed
	meta.Metrics = finiteMetrics(result.Metrics)

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

	if err := WriteCSV(csvFile, result.Telemetry); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteCSV writes telemetry rows with a header.
func WriteCSV(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.Itoa(smp.Tick),
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.Itoa(smp.Bodies),
			strconv.Itoa(smp.CollisionChecks),
			strconv.Itoa(smp.Collisions),
			strconv.Itoa(smp.Lookups),
			strconv.Itoa(smp.MaxDepth),
			strconv.Itoa(smp.Nodes),
			strconv.FormatFloat(smp.KineticEnergy, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns every readable run, oldest first.
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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTelemetry(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "telemetry.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(Columns) {
			continue
		}
		smp, err := parseSample(rec)
		if err != nil {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(rec []string) (sim.Sample, error) {
	ints := make([]int, 0, 7)
	for _, i := range []int{0, 2, 3, 4, 5, 6, 7} {
		v, err := strconv.Atoi(rec[i])
		if err != nil {
			return sim.Sample{}, err
		}
		ints = append(ints, v)
	}
	t, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return sim.Sample{}, err
	}
	ke, err := strconv.ParseFloat(rec[8], 64)
	if err != nil {
		return sim.Sample{}, err
	}
	return sim.Sample{
		Tick:            ints[0],
		Time:            t,
		Bodies:          ints[1],
		CollisionChecks: ints[2],
		Collisions:      ints[3],
		Lookups:         ints[4],
		MaxDepth:        ints[5],
		Nodes:           ints[6],
		KineticEnergy:   ke,
	}, nil
}

// Column extracts one named telemetry column as floats.
func Column(samples []sim.Sample, name string) ([]float64, error) {
	out := make([]float64, len(samples))
	for i, s := range samples {
		switch name {
		case "tick":
			out[i] = float64(s.Tick)
		case "time":
			out[i] = s.Time
		case "bodies":
			out[i] = float64(s.Bodies)
		case "collision_checks":
			out[i] = float64(s.CollisionChecks)
		case "collisions":
			out[i] = float64(s.Collisions)
		case "lookups":
			out[i] = float64(s.Lookups)
		case "max_depth":
			out[i] = float64(s.MaxDepth)
		case "nodes":
			out[i] = float64(s.Nodes)
		case "kinetic_energy":
			out[i] = s.KineticEnergy
		default:
			return nil, fmt.Errorf("unknown column: %s", name)
		}
	}
	return out, nil
}

// finiteMetrics drops values JSON cannot encode.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}
