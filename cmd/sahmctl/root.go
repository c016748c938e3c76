// sahmctl runs the dispatch decision core from the command line: classify,
// decide, assign, fleet and validate.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sahm/internal/config"
	"sahm/internal/logging"
	"sahm/internal/rules"
)

// version is set at build time via -ldflags.
var version = "dev"

type globalFlags struct {
	rulesFile string
	output    string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "sahmctl",
		Short: "Triage, dispatch and medic assignment for the SAHM drone service",
		Long:  "sahmctl evaluates incidents with the same decision tables as the dispatch server,\nso operators can replay and audit individual decisions.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Init(logging.ParseLevel(g.logLevel), "text", cmd.ErrOrStderr())
		},
	}
	root.Version = version

	f := root.PersistentFlags()
	f.StringVar(&g.rulesFile, "rules", config.Get("SAHM_RULES_FILE", ""), "Decision tables YAML (default: embedded)")
	f.StringVarP(&g.output, "output", "o", "text", "Output format: text or json")
	f.StringVar(&g.logLevel, "log-level", config.Get("LOG_LEVEL", "warn"), "Log level")

	root.AddCommand(
		newClassifyCmd(g),
		newDecideCmd(g),
		newAssignCmd(g),
		newFleetCmd(g),
		newValidateCmd(g),
	)
	return root
}

func (g *globalFlags) tables() (*rules.Tables, error) {
	t, err := rules.Load(g.rulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return t, nil
}

func (g *globalFlags) jsonOutput() bool {
	return g.output == "json"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
