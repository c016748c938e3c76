package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sahm/internal/assign"
	"sahm/internal/fleet"
	"sahm/internal/models"
)

func newAssignCmd(g *globalFlags) *cobra.Command {
	var flags struct {
		mode     string
		severity int
		category string
		lat, lon float64
		seed     int64
	}

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Select the field medic for a dispatch decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := g.tables()
			if err != nil {
				return err
			}

			var loc *models.Location
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				loc = &models.Location{Latitude: flags.lat, Longitude: flags.lon}
			}
			t := models.TriageResult{
				SeverityLevel: models.Severity(flags.severity),
				Category:      models.Category(flags.category),
			}
			engine := assign.NewEngine(tables, fleet.NewGenerator(tables))
			result := engine.Assign(models.ParseResponseMode(flags.mode), t, loc, flags.seed)

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				return writeJSON(out, result)
			}

			fmt.Fprintf(out, "Status:    %s\n", result.Status)
			if m := result.AssignedMedic; m != nil {
				fmt.Fprintf(out, "Medic:     %s (%s)\n", m.Name, m.ID)
				fmt.Fprintf(out, "Specialty: %s, %s\n", m.Specialty, m.CertificationLevel)
				fmt.Fprintf(out, "Score:     %.3f (distance %.2f, specialty %.2f, workload %.2f, rating %.2f)\n",
					result.MatchScore, result.MatchBreakdown.DistanceScore, result.MatchBreakdown.SpecialtyScore,
					result.MatchBreakdown.WorkloadScore, result.MatchBreakdown.RatingScore)
				fmt.Fprintf(out, "ETA:       %.1f min over %.1f km\n", result.ETAMinutes, result.DistanceKm)
			}
			fmt.Fprintf(out, "Reasoning: %s\n", result.Reasoning)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.mode, "mode", "BOTH", "Response mode (AMBULANCE, DOCTOR_DRONE, BOTH or ground_only, aerial_only, combined)")
	f.IntVar(&flags.severity, "severity", 3, "Triage severity (0-3)")
	f.StringVar(&flags.category, "category", string(models.CategoryOtherUnclear), "Triage category")
	f.Float64Var(&flags.lat, "lat", models.DefaultOpsLocation.Latitude, "Patient latitude")
	f.Float64Var(&flags.lon, "lon", models.DefaultOpsLocation.Longitude, "Patient longitude")
	f.Int64Var(&flags.seed, "seed", 0, "Fleet seed")
	return cmd
}
