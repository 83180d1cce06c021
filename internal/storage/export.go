package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/san-kum/boxsim/internal/sim"
)

// Trace is a recorded run read back from states.csv.
type Trace struct {
	Columns []string
	Rows    [][]float64
}

// Channel returns one column over all rows.
func (t *Trace) Channel(name string) ([]float64, error) {
	col := slices.Index(t.Columns, name)
	if col < 0 {
		return nil, fmt.Errorf("%w: %s", sim.ErrUnknownChannel, name)
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[col]
	}
	return out, nil
}

func (t *Trace) Times() []float64 {
	times, _ := t.Channel("time")
	return times
}

// Dt is the spacing of the first two rows, or zero.
func (t *Trace) Dt() float64 {
	times := t.Times()
	if len(times) < 2 {
		return 0
	}
	return times[1] - times[0]
}

type ExportData struct {
	Meta    RunMetadata `json:"meta"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// ExportJSON writes the metadata and trace of a run as one JSON document.
func (s *Store) ExportJSON(out io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	trace, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Meta: *meta, Columns: trace.Columns, Rows: trace.Rows})
}

// ExportCSV copies states.csv of a run to out.
func (s *Store) ExportCSV(out io.Writer, runID string) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}
	file, err := os.Open(filepath.Join(dir, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer file.Close()

	_, err = io.Copy(out, file)
	return err
}
