package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/planner"
)

var (
	stopsAddress string
	stopsLat     float64
	stopsLng     float64
	stopsRadius  float64
	stopsOutput  string
)

var stopsCmd = &cobra.Command{
	Use:   "stops",
	Short: "List rail stations and bus stops near an address or point",
	Example: `  disruption stops --address "Union Station, Chicago" --radius 400
  disruption stops --lat 41.8786 --lng -87.6403`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req := planner.StopsRequest{Address: stopsAddress, RadiusMeters: stopsRadius}
		latSet, lngSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
		if latSet != lngSet {
			return eris.Wrap(model.ErrInvalidRequest, "--lat and --lng must be given together")
		}
		if latSet {
			req.Center = &geo.Point{Lat: stopsLat, Lng: stopsLng}
		}

		env, err := initEnv(ctx, "stops", envOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Planner.NearbyStops(ctx, req)
		if err != nil {
			return eris.Wrap(err, model.UserMessage(err))
		}
		return renderStops(cmd.OutOrStdout(), res, stopsOutput)
	},
}

func renderStops(w io.Writer, res *planner.StopsResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "Stops within %.0f m of %s\n", res.RadiusMeters, endpointLabel(res.Center))
	if len(res.Stops) == 0 {
		fmt.Fprintln(w, "  none")
		return nil
	}
	for _, m := range res.Stops {
		fmt.Fprintf(w, "  %-4s %6.0f m  %s\n", m.Kind, m.DistanceMeters, m.Name)
	}
	return nil
}

func init() {
	stopsCmd.Flags().StringVar(&stopsAddress, "address", "", "center address")
	stopsCmd.Flags().Float64Var(&stopsLat, "lat", 0, "center latitude")
	stopsCmd.Flags().Float64Var(&stopsLng, "lng", 0, "center longitude")
	stopsCmd.Flags().Float64Var(&stopsRadius, "radius", 500, "search radius in meters")
	stopsCmd.Flags().StringVarP(&stopsOutput, "output", "o", "text", "output format (text, json)")
	rootCmd.AddCommand(stopsCmd)
}
