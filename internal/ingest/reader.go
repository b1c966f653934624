package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gazelab/gaze.report/internal/gaze"
)

// ReadTrial parses one trial table from CSV. The first record is the header;
// rows may be ragged (short rows read as missing cells). Column meaning is
// the normalizer's business, this just slices text.
func ReadTrial(r io.Reader) (gaze.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return gaze.RawTable{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return gaze.RawTable{}, fmt.Errorf("no header row")
	}
	return gaze.RawTable{Columns: records[0], Rows: records[1:]}, nil
}

// ReadTrialFile reads one trial CSV from disk. Failures come back as a
// *SourceReadError naming the file.
func ReadTrialFile(path string) (gaze.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return gaze.RawTable{}, &SourceReadError{Source: path, Err: err}
	}
	defer f.Close()

	table, err := ReadTrial(f)
	if err != nil {
		return gaze.RawTable{}, &SourceReadError{Source: path, Err: err}
	}
	return table, nil
}

// ListTrialFiles returns the CSV files directly under dir, sorted by name.
func ListTrialFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan trial dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
