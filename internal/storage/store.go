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

	"github.com/san-kum/rbdyn/internal/verify"
)

// Store keeps gradient-check runs on disk, one directory per run holding
// metadata.json and samples.csv.
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
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Seed      uint64    `json:"seed"`
	Step      float64   `json:"step"`
	Tolerance float64   `json:"tolerance"`
	Native    bool      `json:"native"`
	Samples   int       `json:"samples"`
	MaxError  float64   `json:"max_error"`
	Passed    bool      `json:"passed"`
}

func (s *Store) Save(model string, opts verify.Options, rep *verify.Report) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", model, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     model,
		Timestamp: now,
		Seed:      opts.Seed,
		Step:      opts.Step,
		Tolerance: opts.Tolerance,
		Native:    opts.Native,
		Samples:   len(rep.Samples),
		MaxError:  rep.MaxError,
		Passed:    rep.Passed,
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

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if len(rep.Samples) > 0 {
		header := []string{"sample"}
		for i := range rep.Samples[0].Q {
			header = append(header, fmt.Sprintf("q%d", i))
		}
		for i := range rep.Samples[0].V {
			header = append(header, fmt.Sprintf("v%d", i))
		}
		header = append(header, "dH", "dC", "dB", "passed")
		if err := w.Write(header); err != nil {
			return "", err
		}

		for i, sample := range rep.Samples {
			row := []string{strconv.Itoa(i)}
			for _, val := range sample.Q {
				row = append(row, formatFloat(val))
			}
			for _, val := range sample.V {
				row = append(row, formatFloat(val))
			}
			row = append(row, formatFloat(sample.DH), formatFloat(sample.DC), formatFloat(sample.DB), strconv.FormatBool(sample.Passed))
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns the saved runs, oldest first. Directories without readable
// metadata are skipped.
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
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads back the per-sample errors of a run. Q and V are split
// using the column header.
func (s *Store) LoadSamples(runID string) ([]verify.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []verify.Sample{}, nil
	}

	nq, nv := 0, 0
	for _, col := range records[0] {
		switch {
		case len(col) > 1 && col[0] == 'q':
			nq++
		case len(col) > 1 && col[0] == 'v':
			nv++
		}
	}
	if len(records[0]) != 1+nq+nv+4 {
		return nil, fmt.Errorf("run %s: unexpected header %v", runID, records[0])
	}

	samples := make([]verify.Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		vals := make([]float64, nq+nv+3)
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[1+j], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
			}
		}
		passed, err := strconv.ParseBool(record[len(record)-1])
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
		}
		samples = append(samples, verify.Sample{
			Q:      vals[:nq],
			V:      vals[nq : nq+nv],
			DH:     vals[nq+nv],
			DC:     vals[nq+nv+1],
			DB:     vals[nq+nv+2],
			Passed: passed,
		})
	}

	return samples, nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
