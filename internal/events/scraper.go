// Package events ingests scheduled events from the Choose Chicago listing,
// serves them back by travel date, and turns them into disruption zones.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/disruption-cli/internal/config"
	"github.com/sells-group/disruption-cli/internal/fetcher"
	"github.com/sells-group/disruption-cli/internal/model"
)

// SourceChooseChicago tags events scraped from the Choose Chicago listing.
const SourceChooseChicago = "choosechicago"

// tribeDateLayout is the start_date format of The Events Calendar REST API.
const tribeDateLayout = "2006-01-02 15:04:05"

const defaultMaxPages = 100

// tribePage is one page of /wp-json/tribe/events/v1/events.
type tribePage struct {
	Events     []tribeEvent `json:"events"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
}

type tribeEvent struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	StartDate string `json:"start_date"`
	// Venue is an object, or an empty array when the event has none.
	Venue json.RawMessage `json:"venue"`
}

type tribeVenue struct {
	Venue   string `json:"venue"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// Scraper pages through the Tribe events API and keeps the events that start
// within a rolling window from today.
type Scraper struct {
	baseURL  string
	pageSize int
	window   int
	maxPages int
	fetcher  fetcher.Fetcher
	pacer    *rate.Limiter
	loc      *time.Location
	now      func() time.Time
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithClock overrides the clock used to compute today.
func WithClock(now func() time.Time) ScraperOption {
	return func(s *Scraper) { s.now = now }
}

// WithLocation sets the time zone that defines "today".
func WithLocation(loc *time.Location) ScraperOption {
	return func(s *Scraper) { s.loc = loc }
}

// WithMaxPages caps the number of pages fetched in one run.
func WithMaxPages(n int) ScraperOption {
	return func(s *Scraper) { s.maxPages = n }
}

// NewScraper creates a Scraper from the events configuration.
func NewScraper(cfg config.EventsConfig, f fetcher.Fetcher, opts ...ScraperOption) *Scraper {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	window := cfg.WindowDays
	if window < 0 {
		window = 0
	}
	pace := rate.Inf
	if cfg.PagesPerSec > 0 {
		pace = rate.Limit(cfg.PagesPerSec)
	}

	s := &Scraper{
		baseURL:  cfg.SourceURL,
		pageSize: pageSize,
		window:   window,
		maxPages: defaultMaxPages,
		fetcher:  f,
		pacer:    rate.NewLimiter(pace, 1),
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the inclusive date range the scraper keeps.
func (s *Scraper) Window() (from, to time.Time) {
	now := s.now().In(s.loc)
	from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, s.window)
}

// Scrape fetches pages until a page is empty, an event starts after the
// window, the last page is reached, or the page cap is hit.
func (s *Scraper) Scrape(ctx context.Context) ([]model.Event, error) {
	log := zap.L().With(zap.String("component", "events.scraper"))
	from, to := s.Window()
	scrapedAt := s.now().UTC()

	var out []model.Event
	for page := 1; page <= s.maxPages; page++ {
		if err := s.pacer.Wait(ctx); err != nil {
			return out, eris.Wrap(err, "events: pace")
		}

		pageURL, err := s.pageURL(page)
		if err != nil {
			return out, err
		}
		resp, err := fetcher.GetJSON[tribePage](ctx, s.fetcher, pageURL)
		if err != nil {
			return out, eris.Wrapf(err, "events: fetch page %d", page)
		}
		log.Debug("scraped page", zap.Int("page", page), zap.Int("events", len(resp.Events)))

		if len(resp.Events) == 0 {
			break
		}

		beyond := false
		for _, te := range resp.Events {
			day, ok := parseStartDate(te.StartDate)
			if !ok {
				log.Debug("skipping event with invalid start date",
					zap.String("title", te.Title), zap.String("start_date", te.StartDate))
				continue
			}
			if day.After(to) {
				beyond = true
				break
			}
			if day.Before(from) {
				continue
			}
			e := te.event(day)
			e.ScrapedAt = scrapedAt
			out = append(out, e)
		}

		if beyond {
			log.Debug("reached events beyond the window", zap.Time("until", to))
			break
		}
		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
	}

	log.Info("scrape finished",
		zap.Int("events", len(out)),
		zap.String("from", from.Format(model.DateLayout)),
		zap.String("to", to.Format(model.DateLayout)),
	)
	return out, nil
}

func (s *Scraper) pageURL(page int) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", eris.Wrapf(err, "events: parse source url %q", s.baseURL)
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(s.pageSize))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseStartDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(tribeDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func (te tribeEvent) event(day time.Time) model.Event {
	e := model.Event{
		Name:    orDefault(html.UnescapeString(te.Title), model.NoTitle),
		Date:    day.Format(model.DateLayout),
		Venue:   model.NoVenue,
		Address: model.NoAddress,
		URL:     orDefault(te.URL, model.NoURL),
		Source:  SourceChooseChicago,
	}

	raw := bytes.TrimSpace(te.Venue)
	if len(raw) == 0 || raw[0] != '{' {
		return e
	}
	var v tribeVenue
	if err := json.Unmarshal(raw, &v); err != nil {
		return e
	}
	e.Venue = orDefault(html.UnescapeString(v.Venue), model.NoVenue)
	if addr := strings.TrimSpace(v.Address); addr != "" {
		e.Address = joinNonEmpty(addr, v.City, strings.TrimSpace(v.State+" "+v.Zip))
	}
	return e
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
