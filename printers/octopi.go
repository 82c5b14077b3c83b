package printers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"printboard/config"
	"printboard/models"
)

// Octopi talks to an OctoPrint instance using its API key.
type Octopi struct {
	base
	client *http.Client
}

func NewOctopi(id string, cfg config.PrinterConfig) (*Octopi, error) {
	if cfg.Hostname == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("octopi printer %s needs hostname and apikey", id)
	}
	return &Octopi{
		base:   base{id: id, cfg: cfg},
		client: newAPIClient(),
	}, nil
}

type octopiFlags struct {
	Operational   bool `json:"operational"`
	Ready         bool `json:"ready"`
	Printing      bool `json:"printing"`
	Resuming      bool `json:"resuming"`
	Finishing     bool `json:"finishing"`
	Cancelling    bool `json:"cancelling"`
	Paused        bool `json:"paused"`
	Pausing       bool `json:"pausing"`
	ClosedOrError bool `json:"closedOrError"`
	Error         bool `json:"error"`
}

type octopiWebcam struct {
	Enabled     bool   `json:"webcamEnabled"`
	StreamURL   string `json:"streamUrl"`
	StreamRatio string `json:"streamRatio"`
	FlipH       bool   `json:"flipH"`
	FlipV       bool   `json:"flipV"`
	Rotate90    bool   `json:"rotate90"`
}

type octopiJob struct {
	Job struct {
		File struct {
			Name   string `json:"name"`
			Origin string `json:"origin"`
			Path   string `json:"path"`
		} `json:"file"`
	} `json:"job"`
	Progress struct {
		PrintTime     float64 `json:"printTime"`
		PrintTimeLeft float64 `json:"printTimeLeft"`
	} `json:"progress"`
}

func (p *Octopi) api(path string) string {
	return fmt.Sprintf("http://%s/api%s", p.cfg.Hostname, path)
}

func (p *Octopi) headers() map[string]string {
	return map[string]string{"X-Api-Key": p.cfg.APIKey}
}

func (p *Octopi) Describe(ctx context.Context) models.DeviceStatus {
	info := models.DeviceStatus{
		Name:   p.id,
		Status: p.status(ctx),
		Video:  p.video(ctx),
		Link:   p.link(),
	}

	if info.Status == models.StatusError || info.Status == models.StatusUnknown {
		return info
	}

	job, err := p.job(ctx)
	if err != nil {
		return info
	}
	info.SupportsModel = job.Job.File.Path != ""
	info.Job = &models.JobInfo{
		Remaining: job.Progress.PrintTimeLeft,
		Started:   time.Now().Add(-time.Duration(job.Progress.PrintTime * float64(time.Second))).UTC().Format(time.RFC3339),
	}
	return info
}

func (p *Octopi) status(ctx context.Context) models.PrinterStatus {
	var state struct {
		State struct {
			Flags octopiFlags `json:"flags"`
		} `json:"state"`
	}

	err := getJSON(ctx, p.client, p.api("/printer"), p.headers(), &state)
	if err != nil {
		// OctoPrint answers 409 when the printer is disconnected, which
		// is a maintenance condition rather than an unreachable host.
		if isStatusErr(err, http.StatusConflict) {
			return models.StatusError
		}
		return models.StatusUnknown
	}

	flags := state.State.Flags
	switch {
	case flags.Paused || flags.Pausing:
		return models.StatusPaused
	case flags.Printing || flags.Resuming || flags.Finishing || flags.Cancelling:
		return models.StatusPrinting
	case flags.ClosedOrError || flags.Error:
		return models.StatusError
	case flags.Operational || flags.Ready:
		return models.StatusReady
	}
	return models.StatusUnknown
}

// video prefers explicit configuration, then OctoPrint's own webcam
// settings, mapping its flip/rotate flags to display tags.
func (p *Octopi) video(ctx context.Context) *models.VideoInfo {
	if p.cfg.Video != "" {
		return p.base.video()
	}

	var settings struct {
		Webcam octopiWebcam `json:"webcam"`
	}
	if err := getJSON(ctx, p.client, p.api("/settings"), p.headers(), &settings); err != nil {
		return nil
	}

	webcam := settings.Webcam
	if !webcam.Enabled || webcam.StreamURL == "" {
		return nil
	}

	var tags []string
	if webcam.FlipH {
		tags = append(tags, "flipH")
	}
	if webcam.FlipV {
		tags = append(tags, "flipV")
	}
	if webcam.Rotate90 {
		tags = append(tags, "rotate90")
	}
	if webcam.StreamRatio != "" {
		tags = append(tags, webcam.StreamRatio)
	}

	vtype := models.VideoType(p.cfg.VideoType)
	if vtype == "" {
		vtype = models.VideoMJPEG
	}
	return &models.VideoInfo{URL: webcam.StreamURL, Type: vtype, Settings: tags}
}

func (p *Octopi) link() *string {
	link := p.cfg.Link
	if link == "" {
		link = fmt.Sprintf("http://%s/", p.cfg.Hostname)
	}
	return &link
}

func (p *Octopi) StreamSource() string {
	if p.cfg.Video != "" {
		return p.cfg.Video
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if video := p.video(ctx); video != nil {
		return video.URL
	}
	return ""
}

func (p *Octopi) job(ctx context.Context) (octopiJob, error) {
	var job octopiJob
	err := getJSON(ctx, p.client, p.api("/job"), p.headers(), &job)
	return job, err
}

func (p *Octopi) SupportsGCode() bool { return true }

// GCode downloads the file of the current job from OctoPrint's local
// storage.
func (p *Octopi) GCode(ctx context.Context) (string, error) {
	job, err := p.job(ctx)
	if err != nil {
		return "", err
	}
	if job.Job.File.Path == "" {
		return "", fmt.Errorf("printer %s has no current job file", p.id)
	}
	url := fmt.Sprintf("http://%s/downloads/files/%s/%s",
		p.cfg.Hostname, job.Job.File.Origin, job.Job.File.Path)
	return getText(ctx, p.client, url, p.headers())
}

func (p *Octopi) JobStarted(ctx context.Context) (time.Time, bool) {
	job, err := p.job(ctx)
	if err != nil || job.Job.File.Path == "" {
		return time.Time{}, false
	}
	return time.Now().Add(-time.Duration(job.Progress.PrintTime * float64(time.Second))), true
}
