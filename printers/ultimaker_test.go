package printers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"printboard/config"
	"printboard/models"
)

func ultimakerServer(t *testing.T, status string, jobState string) *Ultimaker {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/printer/status", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(status)
	})
	mux.HandleFunc("/api/v1/print_job", func(w http.ResponseWriter, _ *http.Request) {
		if jobState == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"state":            jobState,
			"time_total":       3600.0,
			"time_elapsed":     600.0,
			"datetime_started": "2026-08-23T10:00:00Z",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	host, _ := url.Parse(server.URL)
	printer, err := NewUltimaker("ada", config.PrinterConfig{Type: "ultimaker", Hostname: host.Host})
	if err != nil {
		t.Fatal(err)
	}
	return printer
}

func TestUltimakerStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		jobState string
		want     models.PrinterStatus
	}{
		{"idle", "idle", "", models.StatusReady},
		{"printing", "printing", "printing", models.StatusPrinting},
		{"pre print", "printing", "pre_print", models.StatusPrinting},
		{"paused", "printing", "paused", models.StatusPaused},
		{"pausing", "printing", "pausing", models.StatusPaused},
		{"waiting for cleanup", "printing", "wait_cleanup", models.StatusDone},
		{"maintenance", "maintenance", "", models.StatusError},
		{"booting", "booting", "", models.StatusError},
		{"error", "error", "", models.StatusError},
		{"unexpected job state", "printing", "levitating", models.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			printer := ultimakerServer(t, tt.status, tt.jobState)
			if got := printer.Describe(context.Background()).Status; got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUltimakerDefaults(t *testing.T) {
	printer := ultimakerServer(t, "idle", "")
	info := printer.Describe(context.Background())

	if info.Video == nil {
		t.Fatal("every ultimaker reports a camera")
	}
	if info.Video.Type != models.VideoMJPEG {
		t.Errorf("video type = %q, want MJPEG", info.Video.Type)
	}
	if info.Link == nil {
		t.Fatal("every ultimaker reports a landing page")
	}
	if !info.SupportsModel {
		t.Error("ultimakers serve gcode")
	}
}

func TestUltimakerJobInfo(t *testing.T) {
	printer := ultimakerServer(t, "printing", "printing")
	info := printer.Describe(context.Background())

	if info.Job == nil {
		t.Fatal("expected job info while printing")
	}
	if info.Job.Remaining != 3000 {
		t.Errorf("remaining = %v, want 3000", info.Job.Remaining)
	}
	if info.Job.Started != "2026-08-23T10:00:00Z" {
		t.Errorf("started = %q", info.Job.Started)
	}
}

func TestUltimakerUnreachableIsUnknown(t *testing.T) {
	printer, err := NewUltimaker("ada", config.PrinterConfig{Type: "ultimaker", Hostname: "127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}

	info := printer.Describe(context.Background())
	if info.Status != models.StatusUnknown {
		t.Errorf("status = %q, want unknown", info.Status)
	}
	if info.Job != nil {
		t.Error("no job info should survive a failed fetch")
	}
}
