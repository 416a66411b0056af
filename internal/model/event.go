package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the civil date format used for event dates and travel dates.
const DateLayout = "2006-01-02"

// Placeholders written by the event scraper when the upstream record has no venue.
const (
	NoVenue   = "No venue"
	NoAddress = "No address"
	NoTitle   = "No title"
	NoURL     = "No URL"
)

// Event is one scheduled event as ingested from an event listing.
type Event struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"event_name"`
	Date      string    `json:"date"`
	Venue     string    `json:"venue"`
	Address   string    `json:"location"`
	URL       string    `json:"url"`
	Source    string    `json:"source,omitempty"`
	ScrapedAt time.Time `json:"scraped_at,omitzero"`
}

// Day parses the event date.
func (e Event) Day() (time.Time, error) {
	d, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "model: event %q date", e.Name)
	}
	return d, nil
}

// HasAddress reports whether the event carries a geocodable address.
func (e Event) HasAddress() bool {
	a := strings.TrimSpace(e.Address)
	return a != "" && !strings.EqualFold(a, NoAddress)
}

// ParseDate parses a travel date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "model: parse date %q", s)
	}
	return d, nil
}
