// Package payment talks to the external payment provider over HTTP.
// All calls run through a circuit breaker so a provider outage fails
// fast instead of stacking up blocked checkouts.
package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Client implements the engine's payment port against a REST provider.
type Client struct {
	http     *resty.Client
	breaker  *gobreaker.CircuitBreaker
	authDays int
	log      *logrus.Entry
}

// New builds a payment client for the given provider base URL and API
// key.  authDays is how long the provider should keep an authorization
// hold open before it lapses; it must outlive the rental window plus
// the return grace period.  Retries are left to callers; the breaker
// trips once 60% of recent calls fail.
func New(baseURL, apiKey string, authDays int) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-provider",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("payment circuit state changed")
		},
	})
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(5 * time.Second).
			SetRetryCount(0).
			SetAuthToken(apiKey).
			SetHeader("Content-Type", "application/json"),
		breaker:  breaker,
		authDays: authDays,
		log:      logrus.WithField("component", "payment"),
	}
}

type intentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Authorize places a hold for the given amount and returns the
// provider intent id.  The hold covers price plus deposit; capture and
// deposit charges reference the same intent later.
func (c *Client) Authorize(ctx context.Context, amountCents int64, metadata map[string]string) (string, error) {
	body := map[string]any{
		"amount_cents":   amountCents,
		"currency":       "EUR",
		"capture":        false,
		"auth_hold_days": c.authDays,
		"metadata":       metadata,
	}
	out, err := c.breaker.Execute(func() (any, error) {
		var intent intentResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&intent).
			SetError(&errorResponse{}).
			Post("/v1/intents")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, providerError(resp)
		}
		return intent.ID, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Capture settles a previously authorized intent.
func (c *Client) Capture(ctx context.Context, intentID string) error {
	return c.post(ctx, fmt.Sprintf("/v1/intents/%s/capture", intentID), nil)
}

// CancelIntent voids an authorization.
func (c *Client) CancelIntent(ctx context.Context, intentID string) error {
	return c.post(ctx, fmt.Sprintf("/v1/intents/%s/cancel", intentID), nil)
}

// ChargeDeposit charges the stored payment method behind an intent,
// used when gear comes back damaged or not at all.
func (c *Client) ChargeDeposit(ctx context.Context, intentID string, amountCents int64) error {
	return c.post(ctx, fmt.Sprintf("/v1/intents/%s/charge", intentID),
		map[string]any{"amount_cents": amountCents})
}

// RetrieveStatus reports the provider-side status of an intent.
func (c *Client) RetrieveStatus(ctx context.Context, intentID string) (string, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		var intent intentResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&intent).
			SetError(&errorResponse{}).
			Get(fmt.Sprintf("/v1/intents/%s", intentID))
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, providerError(resp)
		}
		return intent.Status, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req := c.http.R().SetContext(ctx).SetError(&errorResponse{})
		if body != nil {
			req.SetBody(body)
		}
		resp, err := req.Post(path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, providerError(resp)
		}
		return nil, nil
	})
	return err
}

func providerError(resp *resty.Response) error {
	if e, ok := resp.Error().(*errorResponse); ok && e.Message != "" {
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode(), e.Message)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("provider returned 404: unknown intent")
	}
	return fmt.Errorf("provider returned %d", resp.StatusCode())
}
