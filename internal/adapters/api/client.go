// Package api implements the data-access contract against the
// measurement backend's HTTP API.
//
// Every call except Login carries the bearer token obtained at login.
// Timestamps cross this boundary as second-precision strings without a
// timezone suffix; the client passes them through verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/pkg/metrics"
)

// defaultTimeout bounds a single API call when no option overrides it.
const defaultTimeout = 10 * time.Second

// Client talks to the measurement backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// SeriesRequest carries the full-replace payload for series writes.
type SeriesRequest struct {
	Name     string  `json:"name"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
	Color    string  `json:"color,omitempty"`
	Icon     string  `json:"icon,omitempty"`
}

// MeasurementQuery filters a measurement list fetch. Empty From/To leave
// that edge unconstrained.
type MeasurementQuery struct {
	SeriesID int64
	From     string
	To       string
	Limit    int
	Offset   int
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a bearer token and holds it for
// subsequent calls. The backend expects a form-encoded body.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.roundTrip("login", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus("login", resp); err != nil {
		return err
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	c.token = body.AccessToken
	return nil
}

// Logout clears the held credential.
func (c *Client) Logout() {
	c.token = ""
}

// Authenticated reports whether a bearer token is held.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// ChangePassword rotates the credential of the logged-in account.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	payload := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return c.do(ctx, "change_password", http.MethodPost, "/auth/change-password", nil, payload, nil)
}

// ListSeries fetches series definitions.
func (c *Client) ListSeries(ctx context.Context, limit, offset int) ([]model.Series, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var raw json.RawMessage
	if err := c.do(ctx, "list_series", http.MethodGet, "/series", q, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Series](raw)
}

// CreateSeries creates a series definition.
func (c *Client) CreateSeries(ctx context.Context, req SeriesRequest) (model.Series, error) {
	var out model.Series
	err := c.do(ctx, "create_series", http.MethodPost, "/series", nil, req, &out)
	return out, err
}

// UpdateSeries fully replaces a series definition.
func (c *Client) UpdateSeries(ctx context.Context, id int64, req SeriesRequest) (model.Series, error) {
	var out model.Series
	err := c.do(ctx, "update_series", http.MethodPut, "/series/"+strconv.FormatInt(id, 10), nil, req, &out)
	return out, err
}

// DeleteSeries deletes a series; the backend cascades to its measurements.
func (c *Client) DeleteSeries(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_series", http.MethodDelete, "/series/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// ListMeasurements fetches one series' measurements within the query bounds.
func (c *Client) ListMeasurements(ctx context.Context, query MeasurementQuery) ([]model.Measurement, error) {
	q := url.Values{}
	q.Set("series_id", strconv.FormatInt(query.SeriesID, 10))
	q.Set("limit", strconv.Itoa(query.Limit))
	q.Set("offset", strconv.Itoa(query.Offset))
	if query.From != "" {
		q.Set("ts_from", query.From)
	}
	if query.To != "" {
		q.Set("ts_to", query.To)
	}

	var raw json.RawMessage
	if err := c.do(ctx, "list_measurements", http.MethodGet, "/measurements", q, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Measurement](raw)
}

// CreateMeasurement stores a new measurement.
func (c *Client) CreateMeasurement(ctx context.Context, seriesID int64, value float64, timestamp string) (model.Measurement, error) {
	payload := map[string]any{
		"series_id": seriesID,
		"value":     value,
		"timestamp": timestamp,
	}
	var out model.Measurement
	err := c.do(ctx, "create_measurement", http.MethodPost, "/measurements", nil, payload, &out)
	return out, err
}

// UpdateMeasurement fully replaces a measurement.
func (c *Client) UpdateMeasurement(ctx context.Context, id, seriesID int64, value float64, timestamp string) (model.Measurement, error) {
	payload := map[string]any{
		"series_id": seriesID,
		"value":     value,
		"timestamp": timestamp,
	}
	var out model.Measurement
	err := c.do(ctx, "update_measurement", http.MethodPut, "/measurements/"+strconv.FormatInt(id, 10), nil, payload, &out)
	return out, err
}

// DeleteMeasurement deletes one measurement.
func (c *Client) DeleteMeasurement(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_measurement", http.MethodDelete, "/measurements/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// do runs one JSON API call and decodes the response into out when given.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, payload, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.roundTrip(endpoint, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(endpoint, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) roundTrip(endpoint string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveAPILatency(endpoint, time.Since(start).Seconds())
	if err != nil {
		metrics.RecordAPICallError(endpoint)
		return nil, fmt.Errorf("call %s: %w", endpoint, err)
	}
	metrics.RecordAPIRequest(endpoint, strconv.Itoa(resp.StatusCode))
	return resp, nil
}

// checkStatus turns a non-2xx response into a CallError carrying the
// server's detail message when one is present.
func checkStatus(endpoint string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	callErr := &CallError{Endpoint: endpoint, Status: resp.StatusCode}
	var body struct {
		Detail string `json:"detail"`
	}
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		if json.Unmarshal(raw, &body) == nil {
			callErr.Detail = body.Detail
		}
	}
	return callErr
}

// decodeList accepts either a bare JSON array or an {"items": [...]}
// envelope; deployments differ on which shape they return.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var envelope struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return envelope.Items, nil
}
