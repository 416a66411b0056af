package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/planner"
)

var (
	checkStart      string
	checkEnd        string
	checkDate       string
	checkEventsFile string
	checkOutput     string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Suggest a transit route and flag events that may disrupt it",
	Example: `  disruption check --start "225 S Canal St, Chicago" \
    --end "1410 Special Olympics Dr, Chicago" --date 2026-10-18`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "check", envOptions{EventsFile: checkEventsFile})
		if err != nil {
			return err
		}
		defer env.Close()

		day, err := resolveDate(checkDate, time.Now().In(env.Location))
		if err != nil {
			return err
		}

		plan, err := env.Planner.Check(ctx, planner.Request{Start: checkStart, End: checkEnd, Date: day})
		if err != nil {
			return eris.Wrap(err, model.UserMessage(err))
		}
		return renderPlan(cmd.OutOrStdout(), plan, checkOutput)
	},
}

// resolveDate parses a travel date given as YYYY-MM-DD, "today", or
// "tomorrow" relative to now.
func resolveDate(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	day, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, eris.Wrapf(model.ErrInvalidRequest, "date %q: want YYYY-MM-DD, today or tomorrow", s)
	}
	return day, nil
}

func renderPlan(w io.Writer, plan *planner.Plan, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	fmt.Fprintf(w, "Route on %s\n", plan.Date)
	fmt.Fprintf(w, "  from: %s\n", endpointLabel(plan.Start))
	fmt.Fprintf(w, "  to:   %s\n", endpointLabel(plan.End))
	if !plan.Departure.IsZero() {
		fmt.Fprintf(w, "  departing %s\n", plan.Departure.Format("Mon Jan 2 15:04 MST"))
	}
	fmt.Fprintf(w, "  %.1f km, %d waypoints\n", plan.Route.LengthMeters()/1000, plan.Route.Len())

	if len(plan.Stops) > 0 {
		fmt.Fprintln(w, "\nTransit stops:")
		for i, s := range plan.Stops {
			if s.Line != "" {
				fmt.Fprintf(w, "  %d. %s (%s)\n", i+1, s.Name, s.Line)
			} else {
				fmt.Fprintf(w, "  %d. %s\n", i+1, s.Name)
			}
		}
	}

	if plan.Disruptions.IsEmpty() {
		fmt.Fprintln(w, "\nNo scheduled events intersect this route.")
	} else {
		fmt.Fprintf(w, "\nPossible disruptions (%d):\n", plan.Disruptions.Len())
		for _, name := range plan.Disruptions.Names() {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}

	if n := len(plan.Zones.Misses); n > 0 {
		fmt.Fprintf(w, "\n%d of %d events on this date could not be located:\n", n, plan.Zones.Events)
		for _, name := range plan.Zones.Misses {
			fmt.Fprintf(w, "  ? %s\n", name)
		}
	}
	if n := len(plan.Zones.LookupFailures); n > 0 {
		fmt.Fprintf(w, "\n%d events were skipped because the address lookup failed:\n", n)
		for _, name := range plan.Zones.LookupFailures {
			fmt.Fprintf(w, "  ! %s\n", name)
		}
	}
	return nil
}

func endpointLabel(e planner.Endpoint) string {
	label := e.Address
	if e.FormattedAddress != "" {
		label = e.FormattedAddress
	}
	return fmt.Sprintf("%s (%.5f, %.5f)", label, e.Location.Lat, e.Location.Lng)
}

func init() {
	checkCmd.Flags().StringVar(&checkStart, "start", "", "start address")
	checkCmd.Flags().StringVar(&checkEnd, "end", "", "destination address")
	checkCmd.Flags().StringVar(&checkDate, "date", "today", "travel date (YYYY-MM-DD, today, tomorrow)")
	checkCmd.Flags().StringVar(&checkEventsFile, "events-file", "", "read events from this JSON file instead of the store")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "output format (text, json)")
	_ = checkCmd.MarkFlagRequired("start")
	_ = checkCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(checkCmd)
}
