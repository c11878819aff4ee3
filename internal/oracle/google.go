package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fieldservice-backend/config"
)

const distanceMatrixPath = "/maps/api/distancematrix/json"

// GoogleClient queries the Google Distance Matrix API. Each instance owns its
// HTTP client and rate limiter; share one instance per process.
type GoogleClient struct {
	cfg     config.OracleConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// NewGoogleClient creates a client from the oracle configuration.
func NewGoogleClient(cfg config.OracleConfig, logger *zap.Logger) *GoogleClient {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warn("invalid oracle proxy URL; connecting directly",
				zap.String("proxy", cfg.HTTPProxy), zap.Error(err))
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &GoogleClient{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		now:     time.Now,
	}
}

// TravelTime implements Oracle.
func (c *GoogleClient) TravelTime(ctx context.Context, req Request) (TravelTimeResult, error) {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return TravelTimeResult{}, ErrEmptyAddress
	}
	if err := c.Wait(ctx); err != nil {
		return TravelTimeResult{}, err
	}
	return c.Lookup(ctx, req)
}

// Wait blocks until the rate limiter admits one call or ctx is done. Unlike
// rate.Limiter.Wait it does not give up early because the reservation would
// outlast ctx's deadline.
func (c *GoogleClient) Wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate limiter: burst is zero")
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return fmt.Errorf("rate limiter: %w", ctx.Err())
	}
}

// Lookup performs one Distance Matrix request without consulting the rate
// limiter. Callers must have been admitted by Wait.
func (c *GoogleClient) Lookup(ctx context.Context, req Request) (TravelTimeResult, error) {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return TravelTimeResult{}, ErrEmptyAddress
	}

	resp, err := c.fetch(ctx, req)
	if err != nil {
		return TravelTimeResult{}, err
	}
	return toResult(req, resp)
}

// departureParam formats the departure time; the API rejects past instants.
func (c *GoogleClient) departureParam(t time.Time) string {
	if t.IsZero() || !t.After(c.now()) {
		return "now"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func (c *GoogleClient) fetch(ctx context.Context, req Request) (*distanceMatrixResponse, error) {
	q := url.Values{}
	q.Set("origins", req.Origin)
	q.Set("destinations", req.Destination)
	q.Set("mode", "driving")
	q.Set("units", "metric")
	q.Set("departure_time", c.departureParam(req.DepartureTime))
	if c.cfg.TrafficModel != "" {
		q.Set("traffic_model", c.cfg.TrafficModel)
	}
	q.Set("key", c.cfg.APIKey)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + distanceMatrixPath + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var dm distanceMatrixResponse
	if err := json.Unmarshal(body, &dm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distance matrix response: %w", err)
	}
	if dm.Status != "OK" {
		if dm.ErrorMessage != "" {
			return nil, fmt.Errorf("distance matrix returned status %s: %s", dm.Status, dm.ErrorMessage)
		}
		return nil, fmt.Errorf("distance matrix returned status %s", dm.Status)
	}
	return &dm, nil
}

func toResult(req Request, dm *distanceMatrixResponse) (TravelTimeResult, error) {
	if len(dm.Rows) == 0 || len(dm.Rows[0].Elements) == 0 {
		return TravelTimeResult{}, fmt.Errorf("distance matrix response has no elements")
	}
	el := dm.Rows[0].Elements[0]
	switch el.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return TravelTimeResult{}, fmt.Errorf("%w: element status %s", ErrNoRoute, el.Status)
	default:
		return TravelTimeResult{}, fmt.Errorf("distance matrix element status %s", el.Status)
	}
	if el.Duration == nil {
		return TravelTimeResult{}, fmt.Errorf("distance matrix element has no duration")
	}

	result := TravelTimeResult{
		DurationMinutes:    ceilMinutes(el.Duration.Value),
		OriginAddress:      req.Origin,
		DestinationAddress: req.Destination,
	}
	if el.Distance != nil {
		result.DistanceKm = float64(el.Distance.Value) / 1000
	}
	if el.DurationInTraffic != nil {
		m := ceilMinutes(el.DurationInTraffic.Value)
		result.DurationInTrafficMinutes = &m
	}
	if len(dm.OriginAddresses) > 0 && dm.OriginAddresses[0] != "" {
		result.OriginAddress = dm.OriginAddresses[0]
	}
	if len(dm.DestinationAddresses) > 0 && dm.DestinationAddresses[0] != "" {
		result.DestinationAddress = dm.DestinationAddresses[0]
	}
	return result, nil
}

// ceilMinutes rounds seconds up so a partial minute still counts as travel.
func ceilMinutes(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int((seconds + 59) / 60)
}
