package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sahm/internal/dispatch"
	"sahm/internal/logging"
	"sahm/internal/triage"
	"sahm/internal/validate"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	var corpusPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Replay the reference corpus and report agreement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := g.tables()
			if err != nil {
				return err
			}

			corpus, err := validate.DefaultCorpus()
			if corpusPath != "" {
				corpus, err = validate.LoadCorpus(corpusPath)
			}
			if err != nil {
				return err
			}

			v := validate.NewValidator(triage.NewScoringClassifier(tables), dispatch.NewRuleEngine(tables))
			reports, err := v.Run(cmd.Context(), corpus)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				if err := writeJSON(out, reports); err != nil {
					return err
				}
			} else {
				for _, r := range reports {
					fmt.Fprintf(out, "%-10s %d/%d (%.1f%%)\n", r.Name+":", r.Matches, r.Total, r.Accuracy()*100)
					for _, m := range r.Mismatches {
						fmt.Fprintf(out, "  MISMATCH %s: expected %s, got %s\n", m.Name, m.Expected, m.Got)
					}
				}
			}

			failed := 0
			for _, r := range reports {
				failed += r.Total - r.Matches
			}
			if failed > 0 {
				logging.New("validate").Warn("reference corpus disagreement", "mismatches", failed)
				return fmt.Errorf("%d reference entries disagree with the rules", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Corpus YAML (default: embedded)")
	return cmd
}
