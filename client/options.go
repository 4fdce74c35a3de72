package client

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout bounds every request. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.SetTimeout(d)
		return nil
	}
}

// WithRetries retries transport errors, 429 and 5xx responses up to n times
// with resty's backoff.
func WithRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("retries must be >= 0")
		}
		c.http.SetRetryCount(n).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				code := r.StatusCode()
				return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
			})
		return nil
	}
}

// WithDebugLogging logs every request and response. Bodies are included.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.http.SetDebug(enabled)
		return nil
	}
}

// debugLoggingRequested reports whether HAPPYAPP_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("HAPPYAPP_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
