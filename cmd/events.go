package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/disruption-cli/internal/events"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Scrape and inspect scheduled events",
}

var (
	scrapeNoFile   bool
	scrapePrune    bool
	scrapeMaxPages int
)

var eventsScrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch upcoming events and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts := []events.ScraperOption{events.WithLocation(localTime())}
		if scrapeMaxPages > 0 {
			opts = append(opts, events.WithMaxPages(scrapeMaxPages))
		}
		scraper := events.NewScraper(cfg.Events, initFetcher(), opts...)
		from, to := scraper.Window()

		start := time.Now()
		evs, err := scraper.Scrape(ctx)
		if err != nil {
			return eris.Wrap(err, "scrape events")
		}

		n, err := st.UpsertEvents(ctx, evs)
		if err != nil {
			return eris.Wrap(err, "store events")
		}

		if !scrapeNoFile && cfg.Events.File != "" {
			if err := events.WriteFile(cfg.Events.File, evs); err != nil {
				return err
			}
		}

		pruned := 0
		if scrapePrune {
			pruned, err = st.DeleteEventsBefore(ctx, from.Format(model.DateLayout))
			if err != nil {
				return eris.Wrap(err, "prune events")
			}
		}

		zap.L().Info("events scraped",
			zap.String("from", from.Format(model.DateLayout)),
			zap.String("to", to.Format(model.DateLayout)),
			zap.Int("scraped", len(evs)),
			zap.Int("stored", n),
			zap.Int("pruned", pruned),
			zap.Duration("elapsed", time.Since(start)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "stored %d events dated %s to %s\n",
			n, from.Format(model.DateLayout), to.Format(model.DateLayout))
		return nil
	},
}

var (
	listFrom   string
	listTo     string
	listVenue  string
	listLimit  int
	listFormat string
)

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("list"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		evs, err := st.ListEvents(ctx, store.EventFilter{
			From:  listFrom,
			To:    listTo,
			Venue: listVenue,
			Limit: listLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list events")
		}
		return renderEvents(cmd.OutOrStdout(), evs, listFormat)
	},
}

// eventRow is the flat CSV shape of a stored event.
type eventRow struct {
	Date    string `csv:"date"`
	Name    string `csv:"event_name"`
	Venue   string `csv:"venue"`
	Address string `csv:"location"`
	URL     string `csv:"url"`
}

func renderEvents(w io.Writer, evs []model.Event, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if evs == nil {
			evs = []model.Event{}
		}
		return enc.Encode(evs)
	case "csv":
		rows := make([]eventRow, len(evs))
		for i, e := range evs {
			rows[i] = eventRow{Date: e.Date, Name: e.Name, Venue: e.Venue, Address: e.Address, URL: e.URL}
		}
		return gocsv.Marshal(rows, w)
	case "text", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tEVENT\tVENUE")
		for _, e := range evs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date, e.Name, e.Venue)
		}
		return tw.Flush()
	default:
		return eris.Errorf("unknown format %q (text, json, csv)", format)
	}
}

func init() {
	eventsScrapeCmd.Flags().BoolVar(&scrapeNoFile, "no-file", false, "do not write the events JSON file")
	eventsScrapeCmd.Flags().BoolVar(&scrapePrune, "prune", false, "delete stored events dated before today")
	eventsScrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "stop after this many pages (default 100)")

	eventsListCmd.Flags().StringVar(&listFrom, "from", "", "first date (YYYY-MM-DD)")
	eventsListCmd.Flags().StringVar(&listTo, "to", "", "last date (YYYY-MM-DD)")
	eventsListCmd.Flags().StringVar(&listVenue, "venue", "", "venue name")
	eventsListCmd.Flags().IntVar(&listLimit, "limit", 0, "max events (0 = all)")
	eventsListCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "output format (text, json, csv)")

	eventsCmd.AddCommand(eventsScrapeCmd, eventsListCmd)
	rootCmd.AddCommand(eventsCmd)
}
