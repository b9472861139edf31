// Package experiment manages run workspaces and their bookkeeping
// artifacts: the per-run directory layout, the params.json snapshot of the
// effective configuration, and the quick-look score histogram.
//
// Every pipeline run owns one workspace under <results>/runs/<name>. The
// data/ subdirectory holds numeric artifacts consumed by downstream
// optimizers; logs/ holds run reports and the metrics textfile.
package experiment

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/turtacn/LatentMol/pkg/errors"
)

const (
	dataDirName   = "data"
	logsDirName   = "logs"
	paramsName    = "params.json"
	histogramName = "targets_hist.png"
)

// Workspace is the on-disk home of a single run. Setup is idempotent:
// re-running with the same name reuses the directories, and existing
// artifacts are overwritten by the run that owns the name. The run ID is
// fresh on every setup so repeated runs remain distinguishable in logs.
type Workspace struct {
	// ID uniquely identifies this setup of the workspace.
	ID string

	// Name is the run label, a single path component under runs/.
	Name string

	// Root is <results>/runs/<name>.
	Root string
}

// NewWorkspace creates the run directory tree under resultsDir and returns
// the workspace handle. The name must be a plain path component; anything
// with separators would escape the runs/ tree.
func NewWorkspace(resultsDir, name string) (*Workspace, error) {
	if resultsDir == "" {
		return nil, errors.InvalidParam("results directory must not be empty")
	}
	if name == "" {
		return nil, errors.InvalidParam("run name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, errors.Newf(errors.ErrCodeInvalidParam,
			"run name %q must be a single path component", name)
	}

	root := filepath.Join(resultsDir, "runs", name)
	for _, dir := range []string{
		filepath.Join(root, dataDirName),
		filepath.Join(root, logsDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeIOFailure,
				"creating workspace directory "+dir)
		}
	}

	return &Workspace{
		ID:   uuid.New().String(),
		Name: name,
		Root: root,
	}, nil
}

// DataDir returns the directory for numeric artifacts.
func (w *Workspace) DataDir() string { return filepath.Join(w.Root, dataDirName) }

// LogsDir returns the directory for run reports and metrics dumps.
func (w *Workspace) LogsDir() string { return filepath.Join(w.Root, logsDirName) }

// DataFile returns the path of a named artifact inside data/.
func (w *Workspace) DataFile(name string) string {
	return filepath.Join(w.DataDir(), name)
}

// LogFile returns the path of a named file inside logs/.
func (w *Workspace) LogFile(name string) string {
	return filepath.Join(w.LogsDir(), name)
}

// ParamsPath returns the path of the run's params.json.
func (w *Workspace) ParamsPath() string { return filepath.Join(w.Root, paramsName) }

// HistogramPath returns the path of the run's score histogram.
func (w *Workspace) HistogramPath() string { return filepath.Join(w.Root, histogramName) }
