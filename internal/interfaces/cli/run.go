package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/LatentMol/internal/application/pipeline"
	"github.com/turtacn/LatentMol/internal/config"
	"github.com/turtacn/LatentMol/internal/experiment"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/LatentMol/internal/intelligence/encoder"
)

// runOptions holds the flags shared by the embed and score commands.
// Zero values mean "not set"; the configuration value then applies.
type runOptions struct {
	input          string
	objective      string
	cutoff         int
	name           string
	writeHistogram bool
	metrics        bool
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "molecule dataset CSV with a smiles column")
	f.StringVar(&opts.objective, "objective", "", "objective mode (logp, qed, qsar, docking)")
	f.IntVarP(&opts.cutoff, "cutoff", "n", 0, "keep only the first N dataset rows (-1 for all)")
	f.StringVar(&opts.name, "name", "", "run name; artifacts land in <results-dir>/runs/<name>")
	f.BoolVar(&opts.writeHistogram, "histogram", false, "write a PNG histogram of the composite objective")
	f.BoolVar(&opts.metrics, "metrics", false, "dump run metrics as a Prometheus textfile")
}

func applyRunOptions(cmd *cobra.Command, cfg *config.Config, opts *runOptions) {
	if opts.input != "" {
		cfg.Pipeline.Input = opts.input
	}
	if opts.objective != "" {
		cfg.Pipeline.Objective = opts.objective
	}
	if opts.cutoff != 0 {
		cfg.Pipeline.Cutoff = opts.cutoff
	}
	if opts.name != "" {
		cfg.Pipeline.Name = opts.name
	}
	if cmd.Flags().Changed("histogram") {
		cfg.Pipeline.WriteHistogram = opts.writeHistogram
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics.Enabled = opts.metrics
	}
}

// prepareRun validates the effective configuration, gates the objective,
// creates the run workspace and dumps params.json into it. The objective
// gate comes before workspace creation so a docking run leaves no trace
// on disk.
func prepareRun(cfg *config.Config, command string) (*experiment.Workspace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := pipeline.CheckObjective(cfg.Pipeline.Objective); err != nil {
		return nil, err
	}

	ws, err := experiment.NewWorkspace(cfg.Pipeline.ResultsDir, cfg.Pipeline.Name)
	if err != nil {
		return nil, err
	}

	params := experiment.ParamsFromConfig(cfg)
	params.Set("run_id", ws.ID)
	params.Set("command", command)
	if err := params.Dump(ws.ParamsPath()); err != nil {
		return nil, err
	}
	return ws, nil
}

// buildRunMetrics returns a collector and metric set when metrics are
// enabled, nils otherwise.
func buildRunMetrics(cfg *config.Config, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.RunMetrics, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "latentmol",
		Subsystem: "run",
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return collector, prometheus.NewRunMetrics(collector), nil
}

// dumpRunMetrics writes the metrics textfile into the run's logs
// directory. A write failure is logged, not fatal: the run already
// finished or failed on its own terms.
func dumpRunMetrics(collector prometheus.MetricsCollector, cfg *config.Config, ws *experiment.Workspace, logger logging.Logger) {
	if collector == nil {
		return
	}
	path := ws.LogFile(cfg.Metrics.TextfileName)
	if err := collector.WriteTextfile(path); err != nil {
		logger.Warn("metrics textfile write failed",
			logging.String("path", path), logging.Err(err))
		return
	}
	logger.Debug("metrics textfile written", logging.String("path", path))
}

// encoderConfig maps the toolkit configuration onto the encoder's own
// config type.
func encoderConfig(cfg *config.Config) encoder.Config {
	return encoder.Config{
		WeightsPath: cfg.Encoder.WeightsPath,
		LatentDim:   cfg.Encoder.LatentDim,
		HiddenDim:   cfg.Encoder.HiddenDim,
		NumLayers:   cfg.Encoder.NumLayers,
		MaxAtoms:    cfg.Encoder.MaxAtoms,
		BatchSize:   cfg.Encoder.BatchSize,
	}
}
