package models

import "encoding/json"

// PrinterStatus is the six-way state every printer reports.
type PrinterStatus string

const (
	StatusReady    PrinterStatus = "ready"
	StatusPrinting PrinterStatus = "printing"
	StatusPaused   PrinterStatus = "paused"
	StatusDone     PrinterStatus = "done"
	StatusError    PrinterStatus = "error"
	StatusUnknown  PrinterStatus = "unknown"
)

// Valid reports whether s is one of the recognized status values.
func (s PrinterStatus) Valid() bool {
	switch s {
	case StatusReady, StatusPrinting, StatusPaused, StatusDone, StatusError, StatusUnknown:
		return true
	}
	return false
}

type VideoType string

const (
	VideoMJPEG   VideoType = "MJPEG"
	VideoHLS     VideoType = "HLS"
	VideoUnknown VideoType = "unknown"
)

// VideoInfo describes a printer's camera feed. Settings carries display
// modifier tags (flipH, flipV, rotate90/180/270 and at most one aspect
// ratio such as 16:9).
type VideoInfo struct {
	URL      string    `json:"url"`
	Type     VideoType `json:"type"`
	Settings []string  `json:"settings"`
}

// JobInfo describes the current print job.
type JobInfo struct {
	Remaining float64 `json:"remaining"`
	Started   string  `json:"started"`
}

// DeviceStatus is the per-printer record served at /info/{id}.json and
// consumed by the board. Link is null in the JSON when the printer has no
// landing page; Video and Job are omitted entirely when unsupported.
type DeviceStatus struct {
	Name          string        `json:"name"`
	Status        PrinterStatus `json:"status"`
	Video         *VideoInfo    `json:"video,omitempty"`
	Link          *string       `json:"link"`
	SupportsModel bool          `json:"supports_model"`
	Job           *JobInfo      `json:"job,omitempty"`
}

// UnmarshalJSON decodes a status payload leniently: a malformed or missing
// optional field means the capability is absent, it is never a decode
// failure. Only a payload that is not a JSON object at all errors.
func (d *DeviceStatus) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          json.RawMessage `json:"name"`
		Status        json.RawMessage `json:"status"`
		Video         json.RawMessage `json:"video"`
		Link          json.RawMessage `json:"link"`
		SupportsModel json.RawMessage `json:"supports_model"`
		Job           json.RawMessage `json:"job"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = DeviceStatus{Status: StatusUnknown}
	_ = json.Unmarshal(raw.Name, &d.Name)

	var status PrinterStatus
	if json.Unmarshal(raw.Status, &status) == nil && status.Valid() {
		d.Status = status
	}

	var video VideoInfo
	if len(raw.Video) > 0 && json.Unmarshal(raw.Video, &video) == nil && video.URL != "" {
		d.Video = &video
	}

	var link string
	if len(raw.Link) > 0 && json.Unmarshal(raw.Link, &link) == nil && link != "" {
		d.Link = &link
	}

	var supports bool
	if json.Unmarshal(raw.SupportsModel, &supports) == nil {
		d.SupportsModel = supports
	}

	var job JobInfo
	if len(raw.Job) > 0 && json.Unmarshal(raw.Job, &job) == nil {
		d.Job = &job
	}
	return nil
}

// AppStatus is the health record served at /api/status.
type AppStatus struct {
	Printers      int     `json:"printers"`
	ActiveStreams int     `json:"activeStreams"`
	OverlayOpen   bool    `json:"overlayOpen"`
	DiskUsage     float32 `json:"diskUsage"`
}
