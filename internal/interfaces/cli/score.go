package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/LatentMol/internal/application/pipeline"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/logging"
)

// NewScoreCmd creates the score command: the scoring stages of a run
// without the encoder, for re-scoring a dataset under another objective.
func NewScoreCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a molecule dataset without embedding it",
		Long: "Score reads a SMILES dataset and writes the raw component scores and\n" +
			"normalized target vector for the selected objective. No encoder weights\n" +
			"are needed and no latent matrix is produced.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			applyRunOptions(cmd, cfg, opts)

			ws, err := prepareRun(cfg, "score")
			if err != nil {
				return err
			}
			logger := cliCtx.Logger.Named("score").With(logging.String("run_id", ws.ID))

			collector, metrics, err := buildRunMetrics(cfg, logger)
			if err != nil {
				return err
			}

			svc, err := pipeline.NewService(cfg, nil, ws, logger, metrics)
			if err != nil {
				return err
			}
			res, runErr := svc.Score(cmd.Context())
			dumpRunMetrics(collector, cfg, ws, logger)
			if runErr != nil {
				return runErr
			}
			return PrintResult(cmd, res)
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}
