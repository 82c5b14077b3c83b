package controller

import (
	"encoding/json"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"printboard/app"
	"printboard/apperror"
	"printboard/logger"
	"printboard/web/helper"
)

type Controller struct {
	logger *logger.Logger
	app    *app.App
}

func NewController(app *app.App, logger *logger.Logger) *Controller {
	return &Controller{
		app:    app,
		logger: logger,
	}
}

// Info serves the per-printer status record the board polls.
func (c *Controller) Info(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	info, err := c.app.Describe(r.Context(), id)

	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}
	helper.ReturnSuccess(w, info)
}

// BoardState serves the full tile/overlay snapshot for the dashboard
// page.
func (c *Controller) BoardState(w http.ResponseWriter, _ *http.Request) {
	helper.ReturnSuccess(w, c.app.Snapshot())
}

// OpenOverlay mounts a camera or model view on the shared overlay.
func (c *Controller) OpenOverlay(w http.ResponseWriter, r *http.Request) {
	p := struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}{}

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		c.logger.LogError(err, "Error decoding overlay request")
		helper.ReturnFailure(w, apperror.InvalidRequest)
		return
	}

	if err := c.app.OpenOverlay(p.Kind, p.ID); err != nil {
		c.logger.LogError(err, "Error opening overlay", "printer", p.ID, "kind", p.Kind)
		helper.ReturnFailure(w, err)
		return
	}
	helper.ReturnSuccess(w, c.app.Snapshot().Overlay)
}

// CloseOverlay is the one dismissal endpoint; close button, backdrop
// click and Escape all land here.
func (c *Controller) CloseOverlay(w http.ResponseWriter, _ *http.Request) {
	c.app.CloseOverlay()
	helper.ReturnSuccess(w, nil)
}

func (c *Controller) AppStatus(w http.ResponseWriter, _ *http.Request) {
	helper.ReturnSuccess(w, c.app.AppStatus())
}

// VideoPlaylist starts (or refreshes) the printer's HLS relay and
// serves its playlist.
func (c *Controller) VideoPlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	path, err := c.app.StreamPlaylist(r.Context(), id)

	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	http.ServeFile(w, r, path)
}

// VideoSegment serves a transport-stream segment from the relay
// scratch directory.
func (c *Controller) VideoSegment(w http.ResponseWriter, r *http.Request) {
	file := filepath.Base(mux.Vars(r)["file"]) + ".ts"
	http.ServeFile(w, r, filepath.Join(c.app.StreamDir(), file))
}

func (c *Controller) VideoPage(w http.ResponseWriter, r *http.Request) {
	c.renderPage(w, r, videoPage)
}

func (c *Controller) ModelPage(w http.ResponseWriter, r *http.Request) {
	c.renderPage(w, r, modelPage)
}

func (c *Controller) renderPage(w http.ResponseWriter, r *http.Request, page *template.Template) {
	id := mux.Vars(r)["id"]

	if !c.app.HasPrinter(id) {
		helper.ReturnFailure(w, apperror.NotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, pageData{Name: id}); err != nil {
		c.logger.LogError(err, "Error rendering page", "printer", id)
	}
}

// ModelFile serves the gcode of the current job, or its json/obj
// conversion. infill defaults to auto (on for small prints), support to
// off.
func (c *Controller) ModelFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, ext := vars["id"], vars["ext"]

	infill := boolArg(r.URL.Query().Get("infill"))
	support := false
	if v := boolArg(r.URL.Query().Get("support")); v != nil {
		support = *v
	}

	path, err := c.app.ModelFile(r.Context(), id, ext, infill, support)

	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	switch ext {
	case "json":
		w.Header().Set("Content-Type", "application/json")
	case "obj":
		w.Header().Set("Content-Type", "model/obj")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	http.ServeFile(w, r, path)
}

var boolVals = map[string]bool{
	"y": true, "yes": true,
	"n": false, "no": false,
	"t": true, "true": true,
	"f": false, "false": false,
	"on": true, "off": false,
	"1": true, "0": false,
}

// boolArg parses a lenient boolean query value; nil means absent or
// unparseable.
func boolArg(value string) *bool {
	parsed, ok := boolVals[strings.ToLower(value)]
	if !ok {
		return nil
	}
	return &parsed
}
