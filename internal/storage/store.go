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

	"github.com/google/uuid"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var frameHeader = []string{"frame", "time", "count", "strategy", "contacts", "kinetic", "max_overlap", "escaped"}

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
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Frames    int                `json:"frames"`
	Particles int                `json:"particles"`
	Elapsed   time.Duration      `json:"elapsed"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

func newRunID(preset string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", preset, now.Format("20060102-150405"), uuid.NewString()[:8])
}

func (s *Store) Save(cfg *config.Config, result *experiment.Result) (string, error) {
	now := time.Now()
	runID := newRunID(cfg.Name, now)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Preset:    cfg.Name,
		Timestamp: now,
		Seed:      result.Seed,
		Frames:    len(result.Frames),
		Particles: len(result.Particles),
		Elapsed:   result.Elapsed,
		Config:    cfg,
		Metrics:   result.Metrics,
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
		row := []string{
			strconv.Itoa(f.Frame),
			strconv.FormatFloat(f.Time, 'f', 6, 64),
			strconv.Itoa(f.Count),
			f.Strategy,
			strconv.Itoa(f.Contacts),
			strconv.FormatFloat(f.Kinetic, 'g', -1, 64),
			strconv.FormatFloat(f.MaxOverlap, 'g', -1, 64),
			strconv.Itoa(f.Escaped),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns all readable runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]experiment.FrameStats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(frameHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []experiment.FrameStats{}, nil
	}

	frames := make([]experiment.FrameStats, 0, len(records)-1)
	for i, rec := range records[1:] {
		f, err := parseFrame(rec)
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func parseFrame(rec []string) (experiment.FrameStats, error) {
	var (
		f   experiment.FrameStats
		err error
	)
	ints := []struct {
		dst *int
		src string
	}{
		{&f.Frame, rec[0]},
		{&f.Count, rec[2]},
		{&f.Contacts, rec[4]},
		{&f.Escaped, rec[7]},
	}
	for _, v := range ints {
		if *v.dst, err = strconv.Atoi(v.src); err != nil {
			return f, err
		}
	}
	floats := []struct {
		dst *float64
		src string
	}{
		{&f.Time, rec[1]},
		{&f.Kinetic, rec[5]},
		{&f.MaxOverlap, rec[6]},
	}
	for _, v := range floats {
		if *v.dst, err = strconv.ParseFloat(v.src, 64); err != nil {
			return f, err
		}
	}
	f.Strategy = rec[3]
	return f, nil
}
