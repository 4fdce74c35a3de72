// Package almanac serves the fact of the day, the saint and the proverb of a date.
package almanac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/Fau-Caudullo/happyapp/internal/model"
)

const (
	PlaceholderTitle = "Fact of the day"
	PlaceholderText  = "In questo giorno la storia ha scritto pagine indimenticabili."
	DefaultSaint     = "Santi del Giorno"
	DefaultProverb   = "Cogli l'attimo."
)

// Placeholder is returned whenever no fact can be fetched.
func Placeholder() model.Fact {
	return model.Fact{Title: PlaceholderTitle, Text: PlaceholderText}
}

// Options configure a Client.
type Options struct {
	BaseURL string
	Lang    string
	Timeout time.Duration
}

// Client reads the Wikimedia "on this day" feed.
type Client struct {
	http  *resty.Client
	lang  string
	table *Table
	log   zerolog.Logger
}

// New creates a client; a nil table uses the embedded one.
func New(opts Options, table *Table, log zerolog.Logger) *Client {
	to := opts.Timeout
	if to <= 0 {
		to = 5 * time.Second
	}
	lang := opts.Lang
	if lang == "" {
		lang = "it"
	}
	if table == nil {
		table = DefaultTable()
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "happyapp/1.0").
		SetTimeout(to)
	return &Client{http: c, lang: lang, table: table, log: log}
}

type feedPage struct {
	Titles struct {
		Normalized string `json:"normalized"`
	} `json:"titles"`
}

type feedEntry struct {
	Text  string     `json:"text"`
	Year  int        `json:"year"`
	Pages []feedPage `json:"pages"`
}

type feedResponse struct {
	Selected []feedEntry `json:"selected"`
	Events   []feedEntry `json:"events"`
	Holidays []feedEntry `json:"holidays"`
}

// ValidMonthDay reports whether month/day exists in a leap year.
func ValidMonthDay(month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= time.Date(2024, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FactOfDay returns the first "selected" entry of the day, then "events", then "holidays".
// Invalid dates and every failure yield Placeholder.
func (c *Client) FactOfDay(ctx context.Context, month, day int) model.Fact {
	if !ValidMonthDay(month, day) {
		factFallbacksTotal.WithLabelValues("invalid_date").Inc()
		return Placeholder()
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/onthisday/selected/%02d/%02d", c.lang, month, day))
	if err != nil {
		factFallbacksTotal.WithLabelValues("network").Inc()
		c.log.Warn().Err(err).Int("month", month).Int("day", day).Msg("fact of the day request failed")
		return Placeholder()
	}
	if resp.StatusCode() != http.StatusOK {
		factFallbacksTotal.WithLabelValues("status").Inc()
		c.log.Warn().Int("status", resp.StatusCode()).Int("month", month).Int("day", day).Msg("fact of the day request failed")
		return Placeholder()
	}

	var feed feedResponse
	if err := json.Unmarshal(resp.Body(), &feed); err != nil {
		factFallbacksTotal.WithLabelValues("decode").Inc()
		c.log.Warn().Err(err).Msg("fact of the day response malformed")
		return Placeholder()
	}
	for _, list := range [][]feedEntry{feed.Selected, feed.Events, feed.Holidays} {
		for _, e := range list {
			if strings.TrimSpace(e.Text) == "" {
				continue
			}
			return model.Fact{Title: entryTitle(e), Text: e.Text}
		}
	}
	factFallbacksTotal.WithLabelValues("empty").Inc()
	return Placeholder()
}

func entryTitle(e feedEntry) string {
	if e.Year != 0 {
		return strconv.Itoa(e.Year)
	}
	if len(e.Pages) > 0 && e.Pages[0].Titles.Normalized != "" {
		return e.Pages[0].Titles.Normalized
	}
	return PlaceholderTitle
}

// Almanac combines the fact of the day with the saint and proverb of date (YYYY-MM-DD).
func (c *Client) Almanac(ctx context.Context, date string) (model.Almanac, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return model.Almanac{}, model.NewValidationError("date", "must be YYYY-MM-DD")
	}
	saint, proverb := c.table.Lookup(int(t.Month()), t.Day())
	return model.Almanac{
		Date:    date,
		Saint:   saint,
		Proverb: proverb,
		Fact:    c.FactOfDay(ctx, int(t.Month()), t.Day()),
	}, nil
}

// SaintAndProverb looks up the table only.
func (c *Client) SaintAndProverb(month, day int) (string, string) {
	return c.table.Lookup(month, day)
}
