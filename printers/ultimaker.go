package printers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"printboard/config"
	"printboard/models"
)

// Ultimaker talks to the printer's built-in REST API.
type Ultimaker struct {
	base
	client *http.Client
}

func NewUltimaker(id string, cfg config.PrinterConfig) (*Ultimaker, error) {
	if cfg.Hostname == "" {
		return nil, fmt.Errorf("ultimaker printer %s has no hostname", id)
	}
	return &Ultimaker{
		base:   base{id: id, cfg: cfg},
		client: newAPIClient(),
	}, nil
}

type ultimakerJob struct {
	State           string  `json:"state"`
	TimeTotal       float64 `json:"time_total"`
	TimeElapsed     float64 `json:"time_elapsed"`
	DatetimeStarted string  `json:"datetime_started"`
}

func (p *Ultimaker) api(path string) string {
	return fmt.Sprintf("http://%s/api/v1%s", p.cfg.Hostname, path)
}

func (p *Ultimaker) Describe(ctx context.Context) models.DeviceStatus {
	info := models.DeviceStatus{
		Name:          p.id,
		Status:        models.StatusUnknown,
		Video:         p.video(),
		Link:          p.link(),
		SupportsModel: true,
	}

	var status string
	if err := getJSON(ctx, p.client, p.api("/printer/status"), nil, &status); err != nil {
		return info
	}

	job, jobErr := p.job(ctx)

	switch status {
	case "printing":
		if jobErr != nil {
			info.Status = models.StatusPrinting
			break
		}
		switch job.State {
		case "printing", "resuming", "pre_print", "post_print":
			info.Status = models.StatusPrinting
		case "paused", "pausing":
			info.Status = models.StatusPaused
		case "none", "no_job", "wait_cleanup", "wait_user_action":
			info.Status = models.StatusDone
		}
	case "error", "maintenance", "booting":
		info.Status = models.StatusError
	case "idle":
		info.Status = models.StatusReady
	}

	if jobErr == nil {
		info.Job = &models.JobInfo{
			Remaining: job.TimeTotal - job.TimeElapsed,
			Started:   job.DatetimeStarted,
		}
	}
	return info
}

func (p *Ultimaker) job(ctx context.Context) (ultimakerJob, error) {
	var job ultimakerJob
	err := getJSON(ctx, p.client, p.api("/print_job"), nil, &job)
	return job, err
}

// video defaults to the mjpg-streamer every Ultimaker camera exposes.
func (p *Ultimaker) video() *models.VideoInfo {
	url := p.cfg.Video
	if url == "" {
		url = fmt.Sprintf("http://%s:8080/?action=stream", p.cfg.Hostname)
	}
	vtype := models.VideoType(p.cfg.VideoType)
	if vtype == "" {
		vtype = models.VideoMJPEG
	}
	return &models.VideoInfo{URL: url, Type: vtype, Settings: p.base.videoSettings()}
}

func (p *Ultimaker) link() *string {
	link := p.cfg.Link
	if link == "" {
		link = fmt.Sprintf("http://%s/print_jobs", p.cfg.Hostname)
	}
	return &link
}

func (p *Ultimaker) StreamSource() string {
	return p.video().URL
}

func (p *Ultimaker) SupportsGCode() bool { return true }

func (p *Ultimaker) GCode(ctx context.Context) (string, error) {
	return getText(ctx, p.client, p.api("/print_job/gcode"), nil)
}

func (p *Ultimaker) JobStarted(ctx context.Context) (time.Time, bool) {
	job, err := p.job(ctx)
	if err != nil || job.DatetimeStarted == "" {
		return time.Time{}, false
	}
	started, err := time.Parse(time.RFC3339, job.DatetimeStarted)
	if err != nil {
		return time.Time{}, false
	}
	return started, true
}
