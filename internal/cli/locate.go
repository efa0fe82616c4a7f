package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/geotask/internal/model"
)

var locateCmd = &cobra.Command{
	Use:   "locate LATITUDE LONGITUDE",
	Short: "Report a position and fire reminders for regions entered",
	Long: `Report a location sample as a background location update would. Lists
anchored within the geofence radius of the point raise a reminder the first
time the point moves inside them.

Examples:
  geotask locate 55.6761 12.5683`,
	Args: cobra.ExactArgs(2),
	RunE: runLocate,
}

func runLocate(cmd *cobra.Command, args []string) error {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("parsing latitude %q: %w", args[0], err)
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parsing longitude %q: %w", args[1], err)
	}
	point := model.GeoPoint{Latitude: lat, Longitude: lon}
	if err := point.Validate(); err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	rt.Arm(ctx)

	before, _ := rt.sim.Active(ctx)
	rt.location.Set(point)
	if err := rt.sampler.HandleBackgroundUpdate(ctx, []model.GeoPoint{point}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Location set to %.5f, %.5f (%d regions monitored)\n", lat, lon, len(before))
	for _, r := range before {
		if r.Contains(point) {
			fmt.Fprintf(cmd.OutOrStdout(), "  inside %s\n", r.Title)
		}
	}
	return nil
}
