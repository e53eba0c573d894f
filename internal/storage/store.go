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

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/export"
	"github.com/san-kum/clothsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	meshFile     = "mesh.obj"
	configFile   = "config.yaml"
)

var frameHeader = []string{"time", "mean_height", "min_height", "max_height", "kinetic", "max_stretch", "clearance"}

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
	Preset       string             `json:"preset"`
	Timestamp    time.Time          `json:"timestamp"`
	Length       float32            `json:"length"`
	Subdivisions uint32             `json:"subdivisions"`
	Vertices     int                `json:"vertices"`
	Dt           float32            `json:"dt"`
	Duration     float64            `json:"duration"`
	Steps        int                `json:"steps"`
	Backend      string             `json:"backend"`
	Workers      int                `json:"workers"`
	Metrics      map[string]float64 `json:"metrics"`
	Errors       []string           `json:"errors,omitempty"`
}

// Save writes a run directory holding the metadata, the sampled frames, the
// configuration and the final mesh. indices may be nil to skip the mesh.
func (s *Store) Save(preset string, cfg *config.Config, result *sim.Result, indices []uint32) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", preset, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Preset:       preset,
		Timestamp:    now,
		Length:       cfg.Cloth.Length,
		Subdivisions: cfg.Cloth.Subdivisions,
		Vertices:     len(result.Final),
		Dt:           cfg.Params.Dt,
		Duration:     cfg.Run.Duration,
		Steps:        result.StepsTaken,
		Backend:      cfg.Run.Backend,
		Workers:      cfg.Run.Workers,
		Metrics:      result.Metrics,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}

	if indices != nil && len(result.Final) > 0 {
		mesh, err := os.Create(filepath.Join(runDir, meshFile))
		if err != nil {
			return "", err
		}
		defer mesh.Close()
		if err := export.WriteOBJ(mesh, result.Final, indices); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(frameHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, fr := range frames {
		row := []string{
			format(fr.Time), format(fr.MeanHeight), format(fr.MinHeight), format(fr.MaxHeight),
			format(fr.Kinetic), format(fr.MaxStretch), format(fr.Clearance),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run, oldest first.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadConfig returns the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// MeshPath returns where the final mesh of a run is stored.
func (s *Store) MeshPath(runID string) string {
	return filepath.Join(s.baseDir, runID, meshFile)
}

func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(frameHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Frame{}, nil
	}

	frames := make([]sim.Frame, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		var vals [7]float64
		for j, field := range records[i] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", framesFile, i+1, err)
			}
			vals[j] = v
		}
		frames = append(frames, sim.Frame{
			Time:       vals[0],
			MeanHeight: vals[1],
			MinHeight:  vals[2],
			MaxHeight:  vals[3],
			Kinetic:    vals[4],
			MaxStretch: vals[5],
			Clearance:  vals[6],
		})
	}

	return frames, nil
}
