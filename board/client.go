package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"printboard/models"
	"printboard/printers"
)

// FetchError is a failed status fetch for one printer. It carries the
// printer id and the underlying cause; the board recovers from it by
// degrading that tile until the next poll.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("status fetch for %q failed: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusClient fetches one printer's current status. Every call is a
// fresh round trip; there is no retry and no cache, the next scheduled
// poll is the retry.
type StatusClient interface {
	FetchStatus(ctx context.Context, id string) (models.DeviceStatus, error)
}

// RegistryClient serves the board from the in-process printer registry.
type RegistryClient struct {
	Registry *printers.Registry
}

func (c *RegistryClient) FetchStatus(ctx context.Context, id string) (models.DeviceStatus, error) {
	printer, err := c.Registry.Get(id)
	if err != nil {
		return models.DeviceStatus{}, &FetchError{ID: id, Err: err}
	}
	return printer.Describe(ctx), nil
}

// HTTPClient polls a remote board server's /info/{id}.json endpoint,
// for a kiosk pointed at another instance.
type HTTPClient struct {
	base   string
	client *http.Client
}

func NewHTTPClient(base string) *HTTPClient {
	return &HTTPClient{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) FetchStatus(ctx context.Context, id string) (models.DeviceStatus, error) {
	endpoint := fmt.Sprintf("%s/info/%s.json", c.base, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.DeviceStatus{}, &FetchError{ID: id, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.DeviceStatus{}, &FetchError{ID: id, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return models.DeviceStatus{}, &FetchError{ID: id, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var status models.DeviceStatus
	if err = json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return models.DeviceStatus{}, &FetchError{ID: id, Err: err}
	}
	return status, nil
}
