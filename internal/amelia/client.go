// Package amelia is the HTTP gateway to the Amelia scheduling backend. It
// owns retry-on-overload, request timeouts, response caching, and the
// normalization of the backend's inconsistent envelopes into canonical
// collections.
package amelia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dottori-online/agenda-calendar/internal/appointments"
	"github.com/dottori-online/agenda-calendar/internal/calendar"
	"github.com/dottori-online/agenda-calendar/internal/observability/metrics"
	"github.com/dottori-online/agenda-calendar/pkg/logging"
)

const (
	defaultTimeout = 5 * time.Second
	defaultRetries = 2
	defaultBackoff = 300 * time.Millisecond

	nonceHeader     = "X-WP-Nonce"
	requestIDHeader = "X-Request-Id"
)

// Config carries the connection settings for the backend.
type Config struct {
	BaseURL    string
	Nonce      string
	Timeout    time.Duration
	MaxRetries int // extra attempts after the first, on transient errors
	Backoff    time.Duration
}

// Client talks to the Amelia backend.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *Cache
	metrics    *metrics.GatewayMetrics
	logger     *logging.Logger
}

// NewClient creates a gateway client. cache and m may be nil.
func NewClient(cfg Config, cache *Cache, m *metrics.GatewayMetrics, logger *logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		cache:      cache,
		metrics:    m,
		logger:     logger.With("component", "amelia"),
	}
}

// ListAppointments fetches all appointments whose bookingStart falls in the
// window, already validated against the data contract. The returned slice is
// the full superset including canceled items.
func (c *Client) ListAppointments(ctx context.Context, start, end time.Time) ([]*appointments.Appointment, error) {
	params := url.Values{}
	params.Set("start_date", start.Format(calendar.WireDateTime))
	params.Set("end_date", end.Format(calendar.WireDateTime))

	body, err := c.get(ctx, "appointments", params)
	if err != nil {
		return nil, err
	}
	appts, err := normalizeCollection[*appointments.Appointment](body)
	if err != nil {
		return nil, err
	}
	for _, a := range appts {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("amelia: appointments response: %w", err)
		}
	}
	return appts, nil
}

// ListServices fetches the bookable services.
func (c *Client) ListServices(ctx context.Context) ([]*appointments.Service, error) {
	body, err := c.get(ctx, "services", nil)
	if err != nil {
		return nil, err
	}
	return normalizeCollection[*appointments.Service](body)
}

// ListCustomers fetches the customer selection list.
func (c *Client) ListCustomers(ctx context.Context) ([]*appointments.Customer, error) {
	body, err := c.get(ctx, "customers", nil)
	if err != nil {
		return nil, err
	}
	return normalizeCollection[*appointments.Customer](body)
}

// ListLocations fetches the clinic locations.
func (c *Client) ListLocations(ctx context.Context) ([]*appointments.Location, error) {
	body, err := c.get(ctx, "locations", nil)
	if err != nil {
		return nil, err
	}
	return normalizeCollection[*appointments.Location](body)
}

// GetStats fetches the aggregate counters for the header cards.
func (c *Client) GetStats(ctx context.Context) (*appointments.Stats, error) {
	body, err := c.get(ctx, "stats", nil)
	if err != nil {
		return nil, err
	}
	stats, err := normalizeObject[appointments.Stats](body)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// AvailableDays returns the bookable dates ("YYYY-MM-DD") of a month for a
// service at a location.
func (c *Client) AvailableDays(ctx context.Context, year int, month int, serviceID, locationID int64) ([]string, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))
	params.Set("month", strconv.Itoa(month))
	params.Set("service_id", strconv.FormatInt(serviceID, 10))
	params.Set("location_id", strconv.FormatInt(locationID, 10))

	body, err := c.get(ctx, "availability/days", params)
	if err != nil {
		return nil, err
	}
	return normalizeCollection[string](body)
}

// AvailableSlots returns the free slot times per date in [start, end].
func (c *Client) AvailableSlots(ctx context.Context, start, end time.Time, serviceID, locationID int64) (map[string][]appointments.LocalTime, error) {
	params := url.Values{}
	params.Set("start_date", start.Format(calendar.WireDate))
	params.Set("end_date", end.Format(calendar.WireDate))
	params.Set("service_id", strconv.FormatInt(serviceID, 10))
	params.Set("location_id", strconv.FormatInt(locationID, 10))

	body, err := c.get(ctx, "availability/slots", params)
	if err != nil {
		return nil, err
	}
	return normalizeObject[map[string][]appointments.LocalTime](body)
}

// CreateAppointment creates a booking. The returned appointment may be nil
// when the backend acknowledges without echoing the record.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*appointments.Appointment, error) {
	env, err := c.mutate(ctx, http.MethodPost, "appointments", req)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, nil
	}
	var created appointments.Appointment
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return nil, fmt.Errorf("amelia: decode created appointment: %w", err)
	}
	return &created, nil
}

// UpdateAppointment sends a partial update. fields is forwarded exactly as
// supplied; the gateway does not diff or fill in anything.
func (c *Client) UpdateAppointment(ctx context.Context, id int64, fields map[string]any) error {
	_, err := c.mutate(ctx, http.MethodPut, fmt.Sprintf("appointments/%d", id), fields)
	return err
}

// DeleteAppointment removes a booking entirely. This is the hard removal,
// distinct from a status update to canceled.
func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	_, err := c.mutate(ctx, http.MethodDelete, fmt.Sprintf("appointments/%d", id), nil)
	return err
}

// CreateCustomer creates a customer and returns the stored record so the
// caller can add it to the selection list without a refetch.
func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*appointments.Customer, error) {
	env, err := c.mutate(ctx, http.MethodPost, "customers", req)
	if err != nil {
		return nil, err
	}

	// The API returns either {data: customer} or the customer directly.
	raw := env.Data
	if len(raw) == 0 {
		raw = env.raw
	}
	var customer appointments.Customer
	if err := json.Unmarshal(raw, &customer); err != nil {
		return nil, fmt.Errorf("amelia: decode created customer: %w", err)
	}
	if customer.ID == 0 {
		return nil, fmt.Errorf("amelia: create customer: response missing customer id")
	}
	if customer.Name == "" {
		customer.Name = customer.DisplayName()
	}
	return &customer, nil
}

// get performs a cached, retried GET for a resource.
func (c *Client) get(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	key := resource
	if len(params) > 0 {
		key += "?" + params.Encode()
	}
	if data, ok := c.cache.Get(ctx, key); ok {
		c.metrics.ObserveCache(true)
		return data, nil
	}
	c.metrics.ObserveCache(false)

	body, err := c.do(ctx, http.MethodGet, key, resource, nil)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, body)
	return body, nil
}

// mutate performs a write. Writes are never cached and invalidate nothing;
// callers re-fetch explicitly afterwards.
func (c *Client) mutate(ctx context.Context, method, path string, payload any) (*mutationResult, error) {
	body, err := c.do(ctx, method, path, path, payload)
	if err != nil {
		return nil, err
	}

	var env mutationEnvelope
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("amelia: decode mutation response: %w", err)
		}
		if !env.ok() && (env.Status != "" || env.Message != "") {
			msg := env.Message
			if msg == "" {
				msg = "mutation failed"
			}
			return nil, &ServerError{Status: http.StatusOK, Message: msg}
		}
	}
	return &mutationResult{mutationEnvelope: env, raw: body}, nil
}

type mutationResult struct {
	mutationEnvelope
	raw json.RawMessage
}

// do runs one request with the retry budget. Transient failures (503, 508,
// timeout) are retried with a fixed backoff; everything else surfaces
// immediately.
func (c *Client) do(ctx context.Context, method, pathWithQuery, resource string, payload any) ([]byte, error) {
	requestID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		body, err := c.attempt(ctx, method, pathWithQuery, payload, requestID)
		if err == nil {
			c.metrics.ObserveRequest(resource, "success")
			return body, nil
		}

		if IsTransient(err) && attempt < c.cfg.MaxRetries {
			c.metrics.ObserveRetry(resource)
			c.logger.Warn("transient backend error, retrying",
				"resource", resource,
				"attempt", attempt+1,
				"request_id", requestID,
				"error", err,
			)
			select {
			case <-time.After(c.cfg.Backoff):
			case <-ctx.Done():
				c.metrics.ObserveRequest(resource, "canceled")
				return nil, fmt.Errorf("amelia: %s %s: %w", method, resource, ctx.Err())
			}
			continue
		}

		c.metrics.ObserveRequest(resource, "error")
		return nil, err
	}
}

func (c *Client) attempt(ctx context.Context, method, pathWithQuery string, payload any, requestID string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("amelia: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, method, c.cfg.BaseURL+"/"+pathWithQuery, reqBody)
	if err != nil {
		return nil, fmt.Errorf("amelia: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(nonceHeader, c.cfg.Nonce)
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A timed-out attempt is transient; the parent context being done
		// is a real cancellation.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TransientError{Err: err}
		}
		return nil, fmt.Errorf("amelia: %s %s: %w", method, pathWithQuery, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("amelia: read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusLoopDetected:
		return nil, &TransientError{Status: resp.StatusCode}
	default:
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		return nil, &ServerError{Status: resp.StatusCode, Message: eb.Message}
	}
}
