package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sahm/internal/dispatch"
	"sahm/internal/models"
)

func newDecideCmd(g *globalFlags) *cobra.Command {
	var m models.EnvironmentMetrics

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Evaluate the dispatch gates for environmental metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := g.tables()
			if err != nil {
				return err
			}
			d := dispatch.NewRuleEngine(tables).Decide(m)

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				return writeJSON(out, d)
			}

			fmt.Fprintf(out, "Mode:       %s\n", d.ResponseMode)
			fmt.Fprintf(out, "Rule:       %s\n", d.RuleTriggered)
			fmt.Fprintf(out, "Confidence: %.2f\n", d.Confidence)
			fmt.Fprintf(out, "Time delta: %.1f min\n", d.TimeDeltaMin)
			for _, r := range d.Reasons {
				fmt.Fprintf(out, "  [%s] %s\n", dispatch.ReasonTone(r, d), r)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&m.WeatherRiskPct, "weather", 0, "Weather risk percentage (0-100)")
	f.Float64Var(&m.HarmThresholdMin, "harm", 0, "Minutes until irreversible harm")
	f.Float64Var(&m.GroundETAMin, "ground", 0, "Ground ambulance ETA in minutes")
	f.Float64Var(&m.AirETAMin, "air", 0, "Drone ETA in minutes")
	_ = cmd.MarkFlagRequired("harm")
	_ = cmd.MarkFlagRequired("ground")
	_ = cmd.MarkFlagRequired("air")
	return cmd
}
