// Package google implements the directions provider against the Google
// Directions HTTP API, with a shared rate limiter and retry on quota
// errors so concurrent generation runs stay within the provider's
// request budget.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/pkg/metrics"
)

const (
	defaultBaseURL    = "https://maps.googleapis.com"
	directionsPath    = "/maps/api/directions/json"
	defaultMaxRetries = 3
	requestTimeout    = 15 * time.Second
)

// Client calls the Google Directions API. All route-generation callers
// share one Client so the rate limiter bounds the whole process, not
// each run.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	maxRetries int
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithMaxRetries bounds retries on quota errors.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient creates a directions client. requestsPerSecond bounds the
// outbound request rate across all callers; zero or negative disables
// limiting.
func NewClient(apiKey string, requestsPerSecond float64, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		maxRetries: defaultMaxRetries,
	}
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Route requests directions through the given waypoints, in order.
// Quota errors are retried with exponential backoff (1s, 2s, 4s); any
// other failure propagates immediately.
func (c *Client) Route(ctx context.Context, req *domain.DirectionsRequest) (*domain.DirectionsResult, error) {
	metrics.DirectionsRequests.WithLabelValues(string(req.TravelMode)).Inc()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.DirectionsRetries.Inc()
			wait := time.Duration(1<<(attempt-1)) * time.Second
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := c.route(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrRateLimited) {
			metrics.DirectionsFailures.WithLabelValues(failureReason(err)).Inc()
			return nil, err
		}
	}
	metrics.DirectionsFailures.WithLabelValues("rate_limited").Inc()
	return nil, fmt.Errorf("directions request: retries exhausted: %w", lastErr)
}

func (c *Client) route(ctx context.Context, req *domain.DirectionsRequest) (*domain.DirectionsResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+directionsPath+"?"+c.query(req), nil)
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("directions request: %w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("directions request: rate limited: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions request: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "OVER_QUERY_LIMIT":
		return nil, fmt.Errorf("directions request: rate limited: %w", domain.ErrRateLimited)
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, fmt.Errorf("directions request: %w: status %s", domain.ErrNoRoute, body.Status)
	default:
		return nil, fmt.Errorf("directions request failed: status %s: %s", body.Status, body.ErrorMessage)
	}

	if len(body.Routes) == 0 {
		return nil, fmt.Errorf("directions request: %w: no routes returned", domain.ErrNoRoute)
	}
	return decodeRoute(&body.Routes[0])
}

func (c *Client) query(req *domain.DirectionsRequest) string {
	q := url.Values{}
	q.Set("origin", formatLatLng(req.Origin))
	q.Set("destination", formatLatLng(req.Destination))
	q.Set("mode", strings.ToLower(string(req.TravelMode)))
	q.Set("key", c.apiKey)

	if len(req.Waypoints) > 0 {
		// via: keeps waypoints as pass-through points, in order, so
		// the route traces the drawn shape instead of the best tour.
		parts := make([]string, len(req.Waypoints))
		for i, w := range req.Waypoints {
			parts[i] = "via:" + formatLatLng(w)
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}
	return q.Encode()
}

func formatLatLng(p domain.LatLng) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoRoute):
		return "no_route"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}

type directionsResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Routes       []responseRoute `json:"routes"`
}

type responseRoute struct {
	Legs []responseLeg `json:"legs"`
}

type responseLeg struct {
	Distance responseValue  `json:"distance"`
	Duration responseValue  `json:"duration"`
	Steps    []responseStep `json:"steps"`
}

type responseValue struct {
	Value float64 `json:"value"`
}

type responseStep struct {
	Polyline responsePolyline `json:"polyline"`
}

type responsePolyline struct {
	Points string `json:"points"`
}

func decodeRoute(route *responseRoute) (*domain.DirectionsResult, error) {
	result := &domain.DirectionsResult{}
	for _, leg := range route.Legs {
		result.Distance += leg.Distance.Value
		result.Duration += leg.Duration.Value

		for _, step := range leg.Steps {
			if step.Polyline.Points == "" {
				continue
			}
			points, err := DecodePolyline(step.Polyline.Points)
			if err != nil {
				return nil, fmt.Errorf("decode step polyline: %w", err)
			}
			result.Path = append(result.Path, points...)
		}
	}
	return result, nil
}
