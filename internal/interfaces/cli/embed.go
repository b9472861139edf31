package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/LatentMol/internal/application/pipeline"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LatentMol/internal/intelligence/encoder"
)

// NewEmbedCmd creates the embed command: dataset → latent matrix →
// scored optimization targets.
func NewEmbedCmd() *cobra.Command {
	opts := &runOptions{}
	var weightsPath string

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed a molecule dataset and write optimization targets",
		Long: "Embed reads a SMILES dataset, encodes every valid molecule into the\n" +
			"latent space, scores the batch under the selected objective, and writes\n" +
			"the latent matrix plus normalized target vectors into the run workspace.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			applyRunOptions(cmd, cfg, opts)
			if weightsPath != "" {
				cfg.Encoder.WeightsPath = weightsPath
			}

			ws, err := prepareRun(cfg, "embed")
			if err != nil {
				return err
			}
			logger := cliCtx.Logger.Named("embed").With(logging.String("run_id", ws.ID))

			collector, metrics, err := buildRunMetrics(cfg, logger)
			if err != nil {
				return err
			}

			emb, err := encoder.Load(encoderConfig(cfg), logger)
			if err != nil {
				return err
			}

			svc, err := pipeline.NewService(cfg, emb, ws, logger, metrics)
			if err != nil {
				return err
			}
			res, runErr := svc.Run(cmd.Context())
			dumpRunMetrics(collector, cfg, ws, logger)
			if runErr != nil {
				return runErr
			}
			return PrintResult(cmd, res)
		},
	}

	addRunFlags(cmd, opts)
	cmd.Flags().StringVar(&weightsPath, "weights", "", "encoder weights artifact path")
	return cmd
}
