// Package pipeline orchestrates an embedding run: load the SMILES dataset,
// embed every valid molecule into the latent space, score the batch for the
// selected objective, normalize, and persist the flat numeric artifacts the
// downstream optimizer consumes.
package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// smilesColumn is the required dataset column, matched case-insensitively.
const smilesColumn = "smiles"

// InvalidRow records one dataset row that failed SMILES validation.
type InvalidRow struct {
	// Row is the 1-based data row number, header excluded.
	Row    int
	SMILES string
	Reason string
}

// Dataset is the in-memory view of the input CSV after validation. Valid
// molecules keep their input order; invalid rows are skipped and recorded,
// never scored.
type Dataset struct {
	// SMILES holds the valid rows in input order.
	SMILES []string

	// Molecules holds the parsed structure for each entry of SMILES.
	Molecules []*molecule.Molecule

	// Invalid holds the rejected rows.
	Invalid []InvalidRow

	// TotalRows is the number of data rows considered after the cutoff.
	TotalRows int
}

// ValidCount returns the number of molecules that passed validation.
func (d *Dataset) ValidCount() int { return len(d.SMILES) }

// LoadDataset reads the molecule dataset at path. The file is a CSV with a
// header carrying a smiles column in any position. A cutoff > 0 keeps only
// the first cutoff data rows; a negative cutoff keeps all rows.
//
// Rows whose SMILES fails to parse are skipped and recorded, so one bad row
// never aborts a batch. A dataset with no rows, or where every row is
// invalid, is an error: the run would have nothing to embed.
func LoadDataset(path string, cutoff int) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeDatasetMissing, "opening dataset "+path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeIOFailure, "opening dataset "+path)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.Newf(errors.ErrCodeDatasetEmpty, "dataset %s is empty", path)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIOFailure, "reading dataset header")
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), smilesColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.Newf(errors.ErrCodeDatasetNoSMILES,
			"dataset %s has no %q column (header: %s)", path, smilesColumn, strings.Join(header, ","))
	}

	ds := &Dataset{}
	for {
		if cutoff > 0 && ds.TotalRows == cutoff {
			break
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeIOFailure, "reading dataset row")
		}
		ds.TotalRows++

		smiles := strings.TrimSpace(record[col])
		if smiles == "" {
			ds.Invalid = append(ds.Invalid, InvalidRow{
				Row:    ds.TotalRows,
				SMILES: smiles,
				Reason: "empty smiles",
			})
			continue
		}

		m, err := molecule.ParseSMILES(smiles)
		if err != nil {
			ds.Invalid = append(ds.Invalid, InvalidRow{
				Row:    ds.TotalRows,
				SMILES: smiles,
				Reason: err.Error(),
			})
			continue
		}

		ds.SMILES = append(ds.SMILES, smiles)
		ds.Molecules = append(ds.Molecules, m)
	}

	if ds.TotalRows == 0 {
		return nil, errors.Newf(errors.ErrCodeDatasetEmpty, "dataset %s has no data rows", path)
	}
	if ds.ValidCount() == 0 {
		return nil, errors.Newf(errors.ErrCodeDatasetEmpty,
			"dataset %s has no valid molecules (%d rows, all invalid)", path, ds.TotalRows)
	}
	return ds, nil
}
