package board

import (
	"errors"
	"reflect"
	"testing"

	"printboard/logger"
	"printboard/models"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	logman, err := logger.NewLogger("")
	if err != nil {
		t.Fatal(err)
	}
	return logman
}

type openCall struct {
	kind   Kind
	url    string
	inline bool
	tags   []string
}

func recordOpens(calls *[]openCall) openFunc {
	return func(kind Kind, url string, inline bool, tags []string) {
		*calls = append(*calls, openCall{kind: kind, url: url, inline: inline, tags: tags})
	}
}

func strptr(s string) *string { return &s }

func mjpegStatus() models.DeviceStatus {
	return models.DeviceStatus{
		Name:   "bacchus",
		Status: models.StatusPrinting,
		Video: &models.VideoInfo{
			URL:      "http://bacchus.local:8080/?action=stream",
			Type:     models.VideoMJPEG,
			Settings: []string{"flipH", "4:3"},
		},
		SupportsModel: true,
		Link:          strptr("http://bacchus.local/"),
	}
}

func TestReconcileAffordancePresence(t *testing.T) {
	tests := []struct {
		name       string
		status     models.DeviceStatus
		wantCamera bool
		wantModel  bool
	}{
		{"camera and model", mjpegStatus(), true, true},
		{"camera only", models.DeviceStatus{
			Status: models.StatusReady,
			Video:  &models.VideoInfo{URL: "http://x/stream", Type: models.VideoMJPEG},
		}, true, false},
		{"model only", models.DeviceStatus{Status: models.StatusReady, SupportsModel: true}, false, true},
		{"neither", models.DeviceStatus{Status: models.StatusReady}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := NewTile("bacchus", recordOpens(&[]openCall{}), testLogger(t))
			tile.Reconcile(tt.status)

			state := tile.State()
			if got := state.Camera != nil; got != tt.wantCamera {
				t.Errorf("camera affordance present = %v, want %v", got, tt.wantCamera)
			}
			if got := state.Model != nil; got != tt.wantModel {
				t.Errorf("model affordance present = %v, want %v", got, tt.wantModel)
			}
		})
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	tile := NewTile("bacchus", recordOpens(&[]openCall{}), testLogger(t))

	status := mjpegStatus()
	tile.Reconcile(status)

	firstState := tile.State()
	firstCamera := tile.camera
	firstModel := tile.model

	tile.Reconcile(status)

	if !reflect.DeepEqual(tile.State(), firstState) {
		t.Errorf("second reconcile changed state: %+v vs %+v", tile.State(), firstState)
	}
	if tile.camera != firstCamera {
		t.Error("second reconcile rebuilt the camera affordance")
	}
	if tile.model != firstModel {
		t.Error("second reconcile rebuilt the model affordance")
	}
}

func TestReconcileRemovesDroppedAffordances(t *testing.T) {
	tile := NewTile("bacchus", recordOpens(&[]openCall{}), testLogger(t))

	tile.Reconcile(mjpegStatus())
	tile.Reconcile(models.DeviceStatus{Status: models.StatusReady})

	state := tile.State()
	if state.Camera != nil {
		t.Error("camera affordance should be gone once video support is dropped")
	}
	if state.Model != nil {
		t.Error("model affordance should be gone once model support is dropped")
	}
	if state.Link != "" {
		t.Error("name should be dimmed once the link is dropped")
	}
}

func TestCameraTargetSelection(t *testing.T) {
	tests := []struct {
		name       string
		video      models.VideoInfo
		wantTarget string
		wantInline bool
	}{
		{
			"mjpeg embeds the raw stream",
			models.VideoInfo{URL: "http://cam.local/stream", Type: models.VideoMJPEG},
			"http://cam.local/stream", true,
		},
		{
			"hls goes through the player page",
			models.VideoInfo{URL: "rtsp://cam.local/live", Type: models.VideoHLS},
			"/video/ada.html", false,
		},
		{
			"unknown types go through the player page too",
			models.VideoInfo{URL: "http://cam.local/whatever", Type: models.VideoUnknown},
			"/video/ada.html", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := NewTile("ada", recordOpens(&[]openCall{}), testLogger(t))
			video := tt.video
			tile.Reconcile(models.DeviceStatus{Status: models.StatusPrinting, Video: &video})

			state := tile.State()
			if state.Camera == nil {
				t.Fatal("expected a camera affordance")
			}
			if state.Camera.Target != tt.wantTarget {
				t.Errorf("target = %q, want %q", state.Camera.Target, tt.wantTarget)
			}
			if state.Camera.Inline != tt.wantInline {
				t.Errorf("inline = %v, want %v", state.Camera.Inline, tt.wantInline)
			}
		})
	}
}

func TestDegradeKeepsTilePollable(t *testing.T) {
	tile := NewTile("bacchus", recordOpens(&[]openCall{}), testLogger(t))
	tile.Reconcile(mjpegStatus())

	tile.Degrade(errors.New("connection refused"))

	state := tile.State()
	if state.Status != models.StatusUnknown {
		t.Errorf("status after failure = %q, want %q", state.Status, models.StatusUnknown)
	}
	if state.Camera == nil {
		t.Error("a transport failure should not strip affordances")
	}

	// The next good poll heals the tile completely.
	tile.Reconcile(mjpegStatus())
	if got := tile.State().Status; got != models.StatusPrinting {
		t.Errorf("status after recovery = %q, want %q", got, models.StatusPrinting)
	}
}

func TestReconcileLastWriteWins(t *testing.T) {
	newer := mjpegStatus()
	older := models.DeviceStatus{Status: models.StatusReady}

	forward := NewTile("bacchus", recordOpens(&[]openCall{}), testLogger(t))
	forward.Reconcile(older)
	forward.Reconcile(newer)

	backward := NewTile("bacchus", recordOpens(&[]openCall{}), testLogger(t))
	backward.Reconcile(newer)
	backward.Reconcile(older)

	if got := forward.State().Status; got != models.StatusPrinting {
		t.Errorf("final status = %q, want the last applied %q", got, models.StatusPrinting)
	}
	if got := backward.State().Status; got != models.StatusReady {
		t.Errorf("final status = %q, want the last applied %q", got, models.StatusReady)
	}
	if backward.State().Camera != nil {
		t.Error("stale-after-fresh delivery must fully replace derived state")
	}
}

func TestOpenCameraUsesCurrentTarget(t *testing.T) {
	var calls []openCall
	tile := NewTile("bacchus", recordOpens(&calls), testLogger(t))

	tile.Reconcile(mjpegStatus())

	moved := mjpegStatus()
	moved.Video.URL = "http://bacchus.local:8081/?action=stream"
	tile.Reconcile(moved)

	if err := tile.OpenCamera(); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("open calls = %d, want 1", len(calls))
	}
	if calls[0].url != moved.Video.URL {
		t.Errorf("opened %q, want the refreshed target %q", calls[0].url, moved.Video.URL)
	}
	if calls[0].kind != KindCamera {
		t.Errorf("kind = %q, want %q", calls[0].kind, KindCamera)
	}
}

func TestOpenWithoutAffordanceFails(t *testing.T) {
	tile := NewTile("bacchus", recordOpens(&[]openCall{}), testLogger(t))
	tile.Reconcile(models.DeviceStatus{Status: models.StatusReady})

	if err := tile.OpenCamera(); err == nil {
		t.Error("opening a camera view without a camera affordance should fail")
	}
	if err := tile.OpenModel(); err == nil {
		t.Error("opening a model view without a model affordance should fail")
	}
}
