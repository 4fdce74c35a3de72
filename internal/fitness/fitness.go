// Package fitness reads daily step totals from the Google Fit REST API.
package fitness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/Fau-Caudullo/happyapp/internal/model"
)

// Scopes requested by the authorization URL.
var Scopes = []string{
	"https://www.googleapis.com/auth/fitness.activity.read",
	"https://www.googleapis.com/auth/fitness.body.read",
	"https://www.googleapis.com/auth/fitness.reproductive_health.read",
}

// Endpoint is Google's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

const stepsDataSource = "derived:com.google.step_count.delta:com.google.android.gms:estimated_steps"

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// ErrUnauthorized is returned when the API rejects the access token.
var ErrUnauthorized = errors.New("fitness: access token rejected")

// Options configure a Client.
type Options struct {
	BaseURL     string
	ClientID    string
	RedirectURL string
	Location    *time.Location
	Timeout     time.Duration
}

// Client builds authorization URLs and queries step aggregates.
type Client struct {
	oauth   oauth2.Config
	baseURL string
	loc     *time.Location
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a Client.
func New(opts Options, log zerolog.Logger) *Client {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	to := opts.Timeout
	if to <= 0 {
		to = 10 * time.Second
	}
	return &Client{
		oauth: oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURL,
			Scopes:      Scopes,
			Endpoint:    Endpoint,
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		loc:     loc,
		timeout: to,
		log:     log,
	}
}

// AuthURL returns the implicit-flow authorization URL; the token comes back in the redirect fragment.
func (c *Client) AuthURL(state string) (string, error) {
	if c.oauth.ClientID == "" {
		return "", model.NewValidationError("client_id", "google client id is not configured")
	}
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token")), nil
}

// TokenFromFragment extracts the access token from a redirect fragment such as
// "#access_token=...&token_type=Bearer&expires_in=3599".
func TokenFromFragment(fragment string) (*oauth2.Token, error) {
	vals, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return nil, model.NewValidationError("fragment", err.Error())
	}
	access := vals.Get("access_token")
	if access == "" {
		return nil, model.NewValidationError("fragment", "access_token missing")
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: vals.Get("token_type")}
	if secs, err := strconv.Atoi(vals.Get("expires_in")); err == nil {
		tok.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
	}
	return tok, nil
}

type aggregateBy struct {
	DataTypeName string `json:"dataTypeName,omitempty"`
	DataSourceID string `json:"dataSourceId"`
}

type aggregateRequest struct {
	AggregateBy     []aggregateBy `json:"aggregateBy"`
	BucketByTime    bucketByTime  `json:"bucketByTime"`
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateResponse struct {
	Bucket []struct {
		Dataset []struct {
			Point []struct {
				Value []struct {
					IntVal int64 `json:"intVal"`
				} `json:"value"`
			} `json:"point"`
		} `json:"dataset"`
	} `json:"bucket"`
}

// DayBounds returns [00:00, 23:59:59.999] of date in loc as epoch milliseconds.
func DayBounds(date string, loc *time.Location) (start, end int64, err error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return 0, 0, model.NewValidationError("date", "must be YYYY-MM-DD")
	}
	next := time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
	return d.UnixMilli(), next.UnixMilli() - 1, nil
}

// DailySteps returns the estimated step total for date. Missing buckets count as zero.
func (c *Client) DailySteps(ctx context.Context, token *oauth2.Token, date string) (int64, error) {
	if token == nil || token.AccessToken == "" {
		return 0, model.NewValidationError("token", "access token is required")
	}
	start, end, err := DayBounds(date, c.loc)
	if err != nil {
		return 0, err
	}

	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	rc := resty.NewWithClient(hc).
		SetBaseURL(c.baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(c.timeout)

	body := aggregateRequest{
		AggregateBy:     []aggregateBy{{DataSourceID: stepsDataSource}},
		BucketByTime:    bucketByTime{DurationMillis: dayMillis},
		StartTimeMillis: start,
		EndTimeMillis:   end,
	}
	resp, err := rc.R().SetContext(ctx).SetBody(&body).Post("/users/me/dataset:aggregate")
	if err != nil {
		return 0, model.UpstreamError{Service: "fitness", Err: err}
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		return 0, ErrUnauthorized
	case resp.StatusCode() != http.StatusOK:
		return 0, model.UpstreamError{Service: "fitness", Err: fmt.Errorf("aggregate status %d: %s", resp.StatusCode(), resp.String())}
	}

	var ar aggregateResponse
	if err := json.Unmarshal(resp.Body(), &ar); err != nil {
		return 0, model.UpstreamError{Service: "fitness", Err: fmt.Errorf("decode aggregate: %w", err)}
	}
	var steps int64
	for _, b := range ar.Bucket {
		for _, ds := range b.Dataset {
			for _, p := range ds.Point {
				for _, v := range p.Value {
					steps += v.IntVal
				}
			}
		}
	}
	c.log.Debug().Str("date", date).Int64("steps", steps).Msg("fitness aggregate")
	return steps, nil
}
