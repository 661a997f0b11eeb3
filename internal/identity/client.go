package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/RazaAli313/clubchat/internal/apperr"
	"github.com/RazaAli313/clubchat/internal/domain"
)

// Profile is the identity store's view of a user.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// Client resolves external user ids against the club's auth backend.
// Calls retry transient failures with exponential backoff and run behind
// a circuit breaker so a dead backend fails fast instead of hanging
// every participant listing.
type Client struct {
	base string
	http *http.Client
	cb   *gobreaker.CircuitBreaker
	conf Config
}

func NewClient(conf Config) *Client {
	if conf.Timeout == 0 {
		conf.Timeout = 3 * time.Second
	}
	if conf.RetryMaxElapsed == 0 {
		conf.RetryMaxElapsed = 5 * time.Second
	}
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
		MaxIdleConns:    32,
		IdleConnTimeout: 60 * time.Second,
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "identity",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a missing profile is an answer, not a backend failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperr.ErrNotFound)
		},
	})
	return &Client{
		base: conf.BaseURL,
		http: &http.Client{Transport: tr, Timeout: conf.Timeout},
		cb:   cb,
		conf: conf,
	}
}

// Lookup returns the profile for id, or apperr.ErrNotFound when the
// identity store has no record of it.
func (c *Client) Lookup(ctx context.Context, id domain.UserID) (*Profile, error) {
	v, err := c.cb.Execute(func() (interface{}, error) {
		return c.lookup(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Profile), nil
}

func (c *Client) lookup(ctx context.Context, id domain.UserID) (*Profile, error) {
	u := fmt.Sprintf("%s/api/users/%s", c.base, url.PathEscape(string(id)))
	var p *Profile
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(apperr.ErrNotFound)
		case resp.StatusCode >= 500:
			return fmt.Errorf("identity: status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("identity: status %d", resp.StatusCode))
		}
		var out Profile
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(err)
		}
		p = &out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.conf.RetryMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return p, nil
}
