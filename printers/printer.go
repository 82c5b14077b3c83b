package printers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"printboard/config"
	"printboard/models"
)

// Printer is one networked 3D printer. Describe never fails: a printer
// that cannot be reached reports status "unknown" with whatever
// capabilities its configuration declares.
type Printer interface {
	Name() string
	Describe(ctx context.Context) models.DeviceStatus

	// StreamSource is the URL the HLS relay pulls from.
	StreamSource() string

	// SupportsGCode reports whether this printer type can ever serve
	// gcode; actual availability surfaces as an error from GCode.
	SupportsGCode() bool
	GCode(ctx context.Context) (string, error)

	// JobStarted reports when the current print job began, used for
	// model cache freshness. ok is false when there is no job.
	JobStarted(ctx context.Context) (time.Time, bool)
}

type base struct {
	id  string
	cfg config.PrinterConfig
}

func (b base) Name() string { return b.id }

func (b base) StreamSource() string { return b.cfg.Video }

func (b base) video() *models.VideoInfo {
	if b.cfg.Video == "" {
		return nil
	}
	vtype := models.VideoType(b.cfg.VideoType)
	if vtype == "" {
		vtype = models.VideoUnknown
	}
	return &models.VideoInfo{
		URL:      b.cfg.Video,
		Type:     vtype,
		Settings: b.videoSettings(),
	}
}

func (b base) videoSettings() []string {
	return strings.Fields(b.cfg.VideoSettings)
}

func (b base) link() *string {
	if b.cfg.Link == "" {
		return nil
	}
	link := b.cfg.Link
	return &link
}

// Static is a printer the server knows nothing about beyond its
// configuration. Its status is always unknown.
type Static struct {
	base
}

func NewStatic(id string, cfg config.PrinterConfig) *Static {
	return &Static{base{id: id, cfg: cfg}}
}

func (p *Static) Describe(_ context.Context) models.DeviceStatus {
	return models.DeviceStatus{
		Name:   p.id,
		Status: models.StatusUnknown,
		Video:  p.video(),
		Link:   p.link(),
	}
}

func (p *Static) SupportsGCode() bool { return false }

func (p *Static) GCode(_ context.Context) (string, error) {
	return "", fmt.Errorf("printer %s does not serve gcode", p.id)
}

func (p *Static) JobStarted(_ context.Context) (time.Time, bool) {
	return time.Time{}, false
}

func newAPIClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.url, e.code)
}

func isStatusErr(err error, code int) bool {
	var serr *statusError
	return errors.As(err, &serr) && serr.code == code
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, url: url}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getText(ctx context.Context, client *http.Client, url string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, url: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
