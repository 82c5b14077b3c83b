package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"printboard/app"
	"printboard/config"
	"printboard/logger"
	"printboard/web/controller"
	"printboard/web/router"
)

const fleetYAML = `printers:
  curie:
    video: http://curie.local/stream
    video_type: MJPEG
    link: http://curie.local/
`

type tileDoc struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Link   string `json:"link"`
	Camera *struct {
		Target string `json:"target"`
		Inline bool   `json:"inline"`
	} `json:"camera"`
	Model *struct {
		Target string `json:"target"`
	} `json:"model"`
}

type snapshotDoc struct {
	Tiles   []tileDoc `json:"tiles"`
	Overlay struct {
		Active    bool   `json:"active"`
		Kind      string `json:"kind"`
		SourceURL string `json:"sourceUrl"`
		Inline    bool   `json:"inline"`
	} `json:"overlay"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	printersFile := filepath.Join(dir, "printers.yaml")
	if err := os.WriteFile(printersFile, []byte(fleetYAML), 0644); err != nil {
		t.Fatal(err)
	}

	config.Conf = config.Config{
		PrintersFile: printersFile,
		StreamFolder: filepath.Join(dir, "streams"),
		ModelFolder:  filepath.Join(dir, "models"),
		StaticFolder: filepath.Join(dir, "static"),
		PollInterval: 50 * time.Millisecond,
	}

	logman, err := logger.NewLogger("")
	if err != nil {
		t.Fatal(err)
	}

	svc, err := app.NewApp(logman)
	if err != nil {
		t.Fatal(err)
	}
	svc.Start()
	t.Cleanup(svc.Shutdown)

	server := httptest.NewServer(router.InitRouter(controller.NewController(svc, logman), logman))
	t.Cleanup(server.Close)
	return server
}

func getSnapshot(t *testing.T, server *httptest.Server) snapshotDoc {
	t.Helper()

	resp, err := http.Get(server.URL + "/api/board")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("board status = %d", resp.StatusCode)
	}

	var doc snapshotDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

// waitForCamera blocks until the first poll populated the tile.
func waitForCamera(t *testing.T, server *httptest.Server) snapshotDoc {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		doc := getSnapshot(t, server)
		if len(doc.Tiles) > 0 && doc.Tiles[0].Camera != nil {
			return doc
		}
		if time.Now().After(deadline) {
			t.Fatal("tile never gained its camera affordance")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInfoEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/info/curie.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var doc struct {
		Name   string  `json:"name"`
		Status string  `json:"status"`
		Link   *string `json:"link"`
		Video  *struct {
			URL  string `json:"url"`
			Type string `json:"type"`
		} `json:"video"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}

	if doc.Name != "curie" {
		t.Errorf("name = %q", doc.Name)
	}
	if doc.Status != "unknown" {
		t.Errorf("status = %q, want unknown for a camera-only printer", doc.Status)
	}
	if doc.Video == nil || doc.Video.URL != "http://curie.local/stream" {
		t.Errorf("video = %+v", doc.Video)
	}
	if doc.Link == nil || *doc.Link != "http://curie.local/" {
		t.Errorf("link = %v", doc.Link)
	}
}

func TestInfoUnknownPrinter(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/info/ghost.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	var doc map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc["error"] == "" {
		t.Error("error body should carry a message")
	}
}

func TestBoardSnapshot(t *testing.T) {
	server := newTestServer(t)

	doc := waitForCamera(t, server)
	tile := doc.Tiles[0]

	if tile.ID != "curie" {
		t.Errorf("id = %q", tile.ID)
	}
	if tile.Link != "http://curie.local/" {
		t.Errorf("link = %q", tile.Link)
	}
	if tile.Camera.Target != "http://curie.local/stream" || !tile.Camera.Inline {
		t.Errorf("camera = %+v, want the raw feed embedded inline", tile.Camera)
	}
	if tile.Model != nil {
		t.Error("a camera-only printer has no model preview")
	}
	if doc.Overlay.Active {
		t.Error("overlay starts closed")
	}
}

func TestOverlayLifecycle(t *testing.T) {
	server := newTestServer(t)
	waitForCamera(t, server)

	resp, err := http.Post(server.URL+"/api/overlay", "application/json",
		strings.NewReader(`{"kind":"camera","id":"curie"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d", resp.StatusCode)
	}

	doc := getSnapshot(t, server)
	if !doc.Overlay.Active || doc.Overlay.Kind != "camera" {
		t.Fatalf("overlay = %+v, want an active camera view", doc.Overlay)
	}
	if doc.Overlay.SourceURL != "http://curie.local/stream" || !doc.Overlay.Inline {
		t.Errorf("overlay = %+v", doc.Overlay)
	}

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/overlay", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close status = %d", resp.StatusCode)
	}

	if doc = getSnapshot(t, server); doc.Overlay.Active {
		t.Error("overlay still active after dismissal")
	}
}

func TestOverlayBadRequests(t *testing.T) {
	server := newTestServer(t)
	waitForCamera(t, server)

	resp, err := http.Post(server.URL+"/api/overlay", "application/json",
		strings.NewReader(`{"kind":"hologram","id":"curie"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Post(server.URL+"/api/overlay", "application/json",
		strings.NewReader(`{"kind":"camera","id":"ghost"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown printer status = %d, want 404", resp.StatusCode)
	}

	// A camera-only printer cannot host a model preview.
	resp, err = http.Post(server.URL+"/api/overlay", "application/json",
		strings.NewReader(`{"kind":"model","id":"curie"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing affordance status = %d, want 404", resp.StatusCode)
	}
}

func TestAppStatusEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var doc struct {
		Printers      int `json:"printers"`
		ActiveStreams int `json:"activeStreams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.Printers != 1 {
		t.Errorf("printers = %d, want 1", doc.Printers)
	}
	if doc.ActiveStreams != 0 {
		t.Errorf("activeStreams = %d, want 0", doc.ActiveStreams)
	}
}

func TestModelPage(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/model/curie.html")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}

	resp, err = http.Get(server.URL + "/model/ghost.html")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown printer page status = %d, want 404", resp.StatusCode)
	}
}

func TestRootRedirectsToDashboard(t *testing.T) {
	server := newTestServer(t)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("location = %q", loc)
	}
}
