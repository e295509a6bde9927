// Package storage records finished runs as trace files: metadata.json with the
// run parameters and metrics, and frames.csv with one row per body per frame.
// Traces are output only; nothing feeds them back into a simulation.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var ErrNotFound = errors.New("storage: run not found")

var frameHeader = []string{"frame", "t", "body", "px", "py", "pz", "vx", "vy", "vz"}

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
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Mode      string             `json:"mode"`
	Backend   string             `json:"backend"`
	FPS       int                `json:"fps"`
	Gravity   float32            `json:"gravity"`
	Frames    int                `json:"frames"`
	Bodies    []string           `json:"bodies"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Metrics   map[string]float64 `json:"metrics"`
}

// NewMetadata fills the run-derived fields of a metadata record.
func NewMetadata(scene string, fps int, gravity float32, result *sim.Result) RunMetadata {
	meta := RunMetadata{
		Scene:   scene,
		Mode:    result.Mode,
		Backend: result.Backend,
		FPS:     fps,
		Gravity: gravity,
		Frames:  result.StepsTaken,
		Elapsed: result.Elapsed,
		Metrics: result.Metrics,
	}
	if len(result.Frames) > 0 {
		for _, b := range result.Frames[0].Bodies {
			meta.Bodies = append(meta.Bodies, b.Name)
		}
	}
	return meta
}

// Save writes a new run directory and returns its ID.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Scene, now.UnixNano())
	meta.Timestamp = now
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(frameHeader); err != nil {
		return "", err
	}
	for _, f := range result.Frames {
		for _, b := range f.Bodies {
			row := []string{
				strconv.Itoa(f.Index),
				strconv.FormatFloat(f.Time, 'f', 6, 64),
				b.Name,
			}
			row = appendVec(row, b.Position)
			row = appendVec(row, b.Velocity)
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func appendVec(row []string, v mgl32.Vec3) []string {
	for _, c := range v {
		row = append(row, strconv.FormatFloat(float64(c), 'g', -1, 32))
	}
	return row
}

// List returns every readable run, newest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames rebuilds the recorded frames of a run. Camera state is not part
// of the trace.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
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

	frames := make([]sim.Frame, 0)
	for line, record := range records[1:] {
		index, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", framesFile, line+2, err)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", framesFile, line+2, err)
		}
		var vals [6]float32
		for i := range vals {
			v, err := strconv.ParseFloat(record[3+i], 32)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", framesFile, line+2, err)
			}
			vals[i] = float32(v)
		}

		if len(frames) == 0 || frames[len(frames)-1].Index != index {
			frames = append(frames, sim.Frame{Index: index, Time: t})
		}
		f := &frames[len(frames)-1]
		f.Bodies = append(f.Bodies, sim.BodyState{
			Name:     record[2],
			Position: mgl32.Vec3{vals[0], vals[1], vals[2]},
			Velocity: mgl32.Vec3{vals[3], vals[4], vals[5]},
		})
	}
	return frames, nil
}
