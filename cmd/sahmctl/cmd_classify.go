package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sahm/internal/dispatch"
	"sahm/internal/models"
	"sahm/internal/triage"
)

func newClassifyCmd(g *globalFlags) *cobra.Command {
	var signal models.IncidentSignal

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Triage a caller signal into severity and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := g.tables()
			if err != nil {
				return err
			}
			result := triage.NewScoringClassifier(tables).Classify(signal)
			harm := dispatch.NewRuleEngine(tables).HarmThreshold(result)

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				return writeJSON(out, struct {
					models.TriageResult
					StressLevel      string  `json:"stress_level"`
					HarmThresholdMin float64 `json:"harm_threshold_min"`
				}{result, models.StressLevel(signal.VoiceStressScore), harm})
			}

			fmt.Fprintf(out, "Severity:   %d (%s)\n", int(result.SeverityLevel), result.SeverityLevel)
			fmt.Fprintf(out, "Category:   %s\n", result.Category)
			fmt.Fprintf(out, "Confidence: %.2f\n", result.Confidence)
			fmt.Fprintf(out, "Score:      %.2f\n", result.Score)
			fmt.Fprintf(out, "Stress:     %s\n", models.StressLevel(signal.VoiceStressScore))
			fmt.Fprintf(out, "Harm:       %.0f min\n", harm)
			if len(result.RedFlags) > 0 {
				fmt.Fprintf(out, "Red flags:  %s\n", strings.Join(result.RedFlags, ", "))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&signal.Symptoms, "symptoms", nil, "Comma-separated symptom tokens")
	f.StringVar(&signal.FreeText, "text", "", "Free-text call description")
	f.IntVar(&signal.DurationMinutes, "duration", 0, "Minutes since symptom onset")
	f.Float64Var(&signal.VoiceStressScore, "stress", 0, "Voice stress score (0-1)")
	return cmd
}
