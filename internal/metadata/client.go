package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 5 * time.Second

	// maxResponseSize bounds registry responses (1MB).
	maxResponseSize = 1 << 20

	apiBase = "/api/v1"
)

// Client talks to the metadata registry over HTTP.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a registry client. A non-positive timeout uses 5 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Device fetches a device by id.
func (c *Client) Device(ctx context.Context, id string) (*Device, error) {
	var d Device
	if err := c.get(ctx, "device", id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Profile fetches a device profile by id.
func (c *Client) Profile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "deviceprofile", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProfileByName fetches a device profile by name.
func (c *Client) ProfileByName(ctx context.Context, name string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "deviceprofile/name", name, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProvisionWatcher fetches a provision watcher by id.
func (c *Client) ProvisionWatcher(ctx context.Context, id string) (*ProvisionWatcher, error) {
	var w ProvisionWatcher
	if err := c.get(ctx, "provisionwatcher", id, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Schedule fetches a schedule by id.
func (c *Client) Schedule(ctx context.Context, id string) (*Schedule, error) {
	var s Schedule
	if err := c.get(ctx, "schedule", id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ScheduleByName fetches a schedule by name.
func (c *Client) ScheduleByName(ctx context.Context, name string) (*Schedule, error) {
	var s Schedule
	if err := c.get(ctx, "schedule/name", name, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ScheduleEvent fetches a schedule event by id.
func (c *Client) ScheduleEvent(ctx context.Context, id string) (*ScheduleEvent, error) {
	var e ScheduleEvent
	if err := c.get(ctx, "scheduleevent", id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// AddDevice registers a new device and returns the id the registry assigned.
// The registry answers with the id as a plain-text body.
func (c *Client) AddDevice(ctx context.Context, d Device) (string, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("metadata: encoding device: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiBase+"/device", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("metadata: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(string(data)), `"`), nil
}

// get fetches {base}/api/v1/{resource}/{key} and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, resource, key string, out any) error {
	if key == "" {
		return ErrInvalidID
	}

	endpoint := fmt.Sprintf("%s%s/%s/%s", c.baseURL, apiBase, resource, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("metadata: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("metadata: decoding %s %s: %w", resource, key, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Body fully read below

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("metadata: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, req.Method, req.URL.Path, resp.StatusCode)
	}
	return data, nil
}
