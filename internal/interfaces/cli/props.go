package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/internal/domain/scoring"
)

// PropsRow is one molecule's property readout. Score orientation matches
// the run artifacts: higher is better, penalties are negated.
type PropsRow struct {
	SMILES    string  `json:"smiles"`
	Valid     bool    `json:"valid"`
	Reason    string  `json:"reason,omitempty"`
	LogP      float64 `json:"logp"`
	QED       float64 `json:"qed"`
	SA        float64 `json:"sa"`
	Cycle     float64 `json:"cycle"`
	FPOnBits  int     `json:"fp_on_bits"`
	FPDensity float64 `json:"fp_density"`
}

// PropsReport renders as an aligned table in text mode and as a document
// in JSON mode.
type PropsReport struct {
	Rows []PropsRow `json:"molecules"`
}

func (r *PropsReport) String() string {
	headers := []string{"SMILES", "VALID", "LOGP", "QED", "SA", "CYCLE", "FP_BITS", "FP_DENSITY"}
	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		if !row.Valid {
			rows[i] = []string{row.SMILES, "no", "-", "-", "-", "-", "-", "-"}
			continue
		}
		rows[i] = []string{
			row.SMILES,
			"yes",
			strconv.FormatFloat(row.LogP, 'f', 4, 64),
			strconv.FormatFloat(row.QED, 'f', 4, 64),
			strconv.FormatFloat(row.SA, 'f', 4, 64),
			strconv.FormatFloat(row.Cycle, 'f', 1, 64),
			strconv.Itoa(row.FPOnBits),
			strconv.FormatFloat(row.FPDensity, 'f', 4, 64),
		}
	}
	return FormatTable(headers, rows)
}

// NewPropsCmd creates the props command: a per-molecule property table
// for SMILES given on the command line.
func NewPropsCmd() *cobra.Command {
	var radius, numBits int

	cmd := &cobra.Command{
		Use:   "props SMILES...",
		Short: "Print property scores for individual molecules",
		Long: "Props parses each SMILES argument and prints its objective component\n" +
			"scores plus Morgan fingerprint density. Molecules that fail to parse are\n" +
			"reported with their parse error instead of aborting the table.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if radius == 0 {
				radius = cliCtx.Config.QSAR.Radius
			}
			if numBits == 0 {
				numBits = cliCtx.Config.QSAR.NumBits
			}
			return PrintResult(cmd, buildPropsReport(args, radius, numBits))
		},
	}

	cmd.Flags().IntVar(&radius, "radius", 0, "Morgan fingerprint radius (default from config)")
	cmd.Flags().IntVar(&numBits, "num-bits", 0, "fingerprint width in bits (default from config)")
	return cmd
}

func buildPropsReport(smiles []string, radius, numBits int) *PropsReport {
	logP := scoring.NewLogPScorer()
	qed := scoring.NewQEDScorer()
	sa := scoring.NewSAScorer()
	cycle := scoring.NewCycleScorer()

	report := &PropsReport{Rows: make([]PropsRow, 0, len(smiles))}
	for _, s := range smiles {
		row := PropsRow{SMILES: s}

		m, err := molecule.ParseSMILES(s)
		if err != nil {
			row.Reason = err.Error()
			report.Rows = append(report.Rows, row)
			continue
		}
		if row.LogP, err = logP.Score(m); err != nil {
			row.Reason = err.Error()
			report.Rows = append(report.Rows, row)
			continue
		}
		if row.QED, err = qed.Score(m); err != nil {
			row.Reason = err.Error()
			report.Rows = append(report.Rows, row)
			continue
		}
		if row.SA, err = sa.Score(m); err != nil {
			row.Reason = err.Error()
			report.Rows = append(report.Rows, row)
			continue
		}
		if row.Cycle, err = cycle.Score(m); err != nil {
			row.Reason = err.Error()
			report.Rows = append(report.Rows, row)
			continue
		}

		fp, err := molecule.MorganFingerprint(m, radius, numBits)
		if err != nil {
			row.Reason = err.Error()
			report.Rows = append(report.Rows, row)
			continue
		}
		row.Valid = true
		row.FPOnBits = fp.NumOnBits
		row.FPDensity = float64(fp.NumOnBits) / float64(fp.Length)
		report.Rows = append(report.Rows, row)
	}
	return report
}
