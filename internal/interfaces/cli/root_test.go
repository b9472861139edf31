package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/turtacn/LatentMol/pkg/errors"
)

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	if cmd == nil {
		t.Fatal("NewRootCommand should return a command")
	}

	if cmd.Use != "latentmol" {
		t.Errorf("expected Use='latentmol', got %q", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("Short should not be empty")
	}
	if cmd.Long == "" {
		t.Error("Long should not be empty")
	}
	if !cmd.SilenceUsage || !cmd.SilenceErrors {
		t.Error("root command should silence cobra's own usage and error output")
	}
}

func TestNewRootCommand_SubcommandRegistration(t *testing.T) {
	cmd := NewRootCommand()

	subNames := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subNames[sub.Name()] = true
	}

	for _, name := range []string{"embed", "score", "props", "version"} {
		if !subNames[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	pf := cmd.PersistentFlags()

	for _, name := range []string{"config", "log-level", "output", "results-dir"} {
		if pf.Lookup(name) == nil {
			t.Errorf("%s flag should exist", name)
		}
	}

	outputFlag := pf.Lookup("output")
	if outputFlag == nil {
		t.Fatal("output flag should exist")
	}
	if outputFlag.DefValue != "text" {
		t.Errorf("expected output default 'text', got %q", outputFlag.DefValue)
	}
	if outputFlag.Shorthand != "o" {
		t.Errorf("expected output shorthand 'o', got %q", outputFlag.Shorthand)
	}
	if got := pf.Lookup("config").Shorthand; got != "c" {
		t.Errorf("expected config shorthand 'c', got %q", got)
	}
}

func TestRunCommands_Flags(t *testing.T) {
	root := NewRootCommand()

	var embed, score *cobra.Command
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "embed":
			embed = sub
		case "score":
			score = sub
		}
	}
	if embed == nil || score == nil {
		t.Fatal("embed and score commands should be registered")
	}

	for _, name := range []string{"input", "objective", "cutoff", "name", "histogram", "metrics"} {
		if embed.Flags().Lookup(name) == nil {
			t.Errorf("embed should have %s flag", name)
		}
		if score.Flags().Lookup(name) == nil {
			t.Errorf("score should have %s flag", name)
		}
	}

	if embed.Flags().Lookup("weights") == nil {
		t.Error("embed should have a weights flag")
	}
	if score.Flags().Lookup("weights") != nil {
		t.Error("score should not have a weights flag; it never loads the encoder")
	}
	if got := embed.Flags().Lookup("cutoff").Shorthand; got != "n" {
		t.Errorf("expected cutoff shorthand 'n', got %q", got)
	}
}

func TestGetCLIContext_Uninitialized(t *testing.T) {
	cmd := &cobra.Command{Use: "orphan"}

	_, err := GetCLIContext(cmd)
	if err == nil {
		t.Fatal("expected an error for a command without CLI context")
	}
	if !errors.IsCode(err, errors.ErrCodeInternal) {
		t.Errorf("expected internal error code, got %v", errors.GetCode(err))
	}
}

func TestFormatTable(t *testing.T) {
	headers := []string{"NAME", "VALUE"}
	rows := [][]string{
		{"alpha", "1"},
		{"beta-long", "22"},
	}

	got := FormatTable(headers, rows)
	want := "NAME       VALUE\n" +
		"---------  -----\n" +
		"alpha      1    \n" +
		"beta-long  22   \n"
	if got != want {
		t.Errorf("table mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatTable_NoHeaders(t *testing.T) {
	if got := FormatTable(nil, nil); got != "" {
		t.Errorf("expected empty output for no headers, got %q", got)
	}
}

func TestVersionCommand_Output(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out.String(), "latentmol "+Version) {
		t.Errorf("expected version output to mention 'latentmol %s', got %q", Version, out.String())
	}
}
