// Package storage persists numeric run artifacts as plain-text matrix
// files. The format is the numpy savetxt default (one row per line,
// values as %.18e separated by single spaces) so the output files feed
// directly into the downstream optimization tooling that loads them with
// loadtxt.
package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/turtacn/LatentMol/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Writing
// ─────────────────────────────────────────────────────────────────────────────

// WriteMatrix writes rows to path, one line per row. Rows may be empty
// (producing an empty file) but must be rectangular; a ragged input is a
// programming error surfaced before anything is written.
func WriteMatrix(path string, rows [][]float64) error {
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			if len(row) != width {
				return errors.Newf(errors.ErrCodeArtifactWrite,
					"matrix row %d has %d values, expected %d", i, len(row), width).WithDetail(path)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactWrite, "cannot create artifact").WithDetail(path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				if err := w.WriteByte(' '); err != nil {
					return errors.Wrap(err, errors.ErrCodeArtifactWrite, "write failed").WithDetail(path)
				}
			}
			if _, err := fmt.Fprintf(w, "%.18e", v); err != nil {
				return errors.Wrap(err, errors.ErrCodeArtifactWrite, "write failed").WithDetail(path)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return errors.Wrap(err, errors.ErrCodeArtifactWrite, "write failed").WithDetail(path)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactWrite, "flush failed").WithDetail(path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactWrite, "close failed").WithDetail(path)
	}
	return nil
}

// WriteVector writes values to path, one per line, matching savetxt on a
// one-dimensional array.
func WriteVector(path string, values []float64) error {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return WriteMatrix(path, rows)
}

// WriteLines writes raw text lines to path, one per line. Used for the
// invalid-SMILES report, which carries strings rather than numbers.
func WriteLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactWrite, "cannot create artifact").WithDetail(path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return errors.Wrap(err, errors.ErrCodeArtifactWrite, "write failed").WithDetail(path)
		}
		if err := w.WriteByte('\n'); err != nil {
			return errors.Wrap(err, errors.ErrCodeArtifactWrite, "write failed").WithDetail(path)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactWrite, "flush failed").WithDetail(path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactWrite, "close failed").WithDetail(path)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reading
// ─────────────────────────────────────────────────────────────────────────────

// ReadMatrix parses a whitespace-delimited float matrix from path. Blank
// lines are skipped, mirroring loadtxt. All non-blank lines must have the
// same number of columns.
func ReadMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIOFailure, "cannot open artifact").WithDetail(path)
	}
	defer f.Close()

	var rows [][]float64
	width := -1
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if width == -1 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, errors.Newf(errors.ErrCodeIOFailure,
				"line %d has %d values, expected %d", lineNo, len(fields), width).WithDetail(path)
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeIOFailure,
					fmt.Sprintf("line %d column %d is not a number", lineNo, i+1)).WithDetail(path)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIOFailure, "read failed").WithDetail(path)
	}
	return rows, nil
}

// ReadVector parses a single-column matrix from path into a flat slice.
func ReadVector(path string) ([]float64, error) {
	rows, err := ReadMatrix(path)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			return nil, errors.Newf(errors.ErrCodeIOFailure,
				"line %d has %d values, expected a single column", i+1, len(row)).WithDetail(path)
		}
		out[i] = row[0]
	}
	return out, nil
}
