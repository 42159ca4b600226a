package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Header is the first row of a score CSV.
var Header = []string{"file_name", "trial_type", "frame", "attentional_preference_score"}

const delimiter = ';'

// WriteCSV writes records as semicolon-separated rows preceded by Header.
func WriteCSV(w io.Writer, records []TrialRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.FileName,
			r.TrialType,
			strconv.Itoa(r.Frame),
			strconv.FormatFloat(r.Score, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to path, creating parent directories.
func WriteCSVFile(path string, records []TrialRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV parses a score CSV written by WriteCSV.
func ReadCSV(r io.Reader) ([]TrialRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty score file")
	}
	if err != nil {
		return nil, err
	}
	for i, h := range Header {
		if head[i] != h {
			return nil, fmt.Errorf("unexpected header column %d: %q, want %q", i, head[i], h)
		}
	}

	var records []TrialRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		frame, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: frame: %w", len(records)+2, err)
		}
		if frame < 0 {
			return nil, fmt.Errorf("line %d: negative frame %d", len(records)+2, frame)
		}
		score, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: score: %w", len(records)+2, err)
		}
		records = append(records, TrialRecord{FileName: row[0], TrialType: row[1], Frame: frame, Score: score})
	}
	return records, nil
}

// ReadCSVFile reads a score CSV and groups it into trials.
func ReadCSVFile(path string) ([]Trial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Group(records), nil
}
