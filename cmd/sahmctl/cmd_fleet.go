package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sahm/internal/fleet"
	"sahm/internal/geo"
	"sahm/internal/models"
)

func newFleetCmd(g *globalFlags) *cobra.Command {
	var flags struct {
		seed int64
		loc  models.Location
		size int
	}

	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Print the deterministic medic fleet for a seed and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := g.tables()
			if err != nil {
				return err
			}
			medics := fleet.NewGenerator(tables).Generate(flags.seed, flags.loc, flags.size)

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				return writeJSON(out, medics)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSPECIALTY\tSTATUS\tLOAD\tRATING\tKM")
			for _, m := range medics {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1f\t%.1f\n",
					m.ID, m.Name, m.Specialty, m.Status, m.CurrentLoad, m.Rating, geo.DistanceKm(flags.loc, m.GPSLocation))
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.Int64Var(&flags.seed, "seed", 0, "Fleet seed")
	f.Float64Var(&flags.loc.Latitude, "lat", models.DefaultOpsLocation.Latitude, "Center latitude")
	f.Float64Var(&flags.loc.Longitude, "lon", models.DefaultOpsLocation.Longitude, "Center longitude")
	f.IntVar(&flags.size, "size", 0, "Fleet size (default from rules)")
	return cmd
}
