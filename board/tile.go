package board

import (
	"fmt"
	"sync"

	"printboard/apperror"
	"printboard/logger"
	"printboard/models"
)

// openFunc mounts a view on the shared overlay. It is bound into an
// affordance exactly once, when the affordance is created.
type openFunc func(kind Kind, url string, inline bool, tags []string)

// Affordance is an optional clickable component of a tile (camera or
// model button). It exists only while the printer reports the matching
// capability; its fields are refreshed in place on later polls so the
// click binding is never duplicated.
type Affordance struct {
	kind     Kind
	target   string
	inline   bool
	settings []string
	open     openFunc
}

func (a *Affordance) Target() string { return a.target }

// AffordanceState is the serialized form for the presentation layer.
type AffordanceState struct {
	Target string `json:"target"`
	Inline bool   `json:"inline"`
}

// TileState is a tile snapshot for the presentation layer. An empty
// Link means the printer name renders dimmed and non-interactive.
type TileState struct {
	ID     string               `json:"id"`
	Status models.PrinterStatus `json:"status"`
	Link   string               `json:"link,omitempty"`
	Camera *AffordanceState     `json:"camera,omitempty"`
	Model  *AffordanceState     `json:"model,omitempty"`
}

// Tile owns the presentation state of one printer: status indicator,
// name link, and the optional camera/model affordances. It is created
// once per configured printer and never destroyed.
type Tile struct {
	id     string
	open   openFunc
	logger *logger.Logger

	mu     sync.Mutex
	status models.PrinterStatus
	link   string
	camera *Affordance
	model  *Affordance
}

func NewTile(id string, open openFunc, logman *logger.Logger) *Tile {
	return &Tile{
		id:     id,
		open:   open,
		logger: logman,
		status: models.StatusUnknown,
	}
}

func (t *Tile) ID() string { return t.id }

// Reconcile applies a freshly fetched status to the tile. It is
// idempotent: applying the same status twice leaves the tile unchanged,
// with no duplicate affordances or bindings. Out-of-order responses are
// safe because each call fully replaces the derived state.
func (t *Tile) Reconcile(status models.DeviceStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status.Status.Valid() {
		t.status = status.Status
	} else {
		t.status = models.StatusUnknown
	}

	if status.Video != nil {
		if t.camera == nil {
			t.camera = &Affordance{kind: KindCamera, open: t.open}
		}
		t.camera.target, t.camera.inline = cameraTarget(t.id, status.Video)
		t.camera.settings = status.Video.Settings
	} else {
		t.camera = nil
	}

	if status.SupportsModel {
		if t.model == nil {
			t.model = &Affordance{
				kind:   KindModel,
				target: fmt.Sprintf("/model/%s.html", t.id),
				open:   t.open,
			}
		}
	} else {
		t.model = nil
	}

	if status.Link != nil {
		t.link = *status.Link
	} else {
		t.link = ""
	}
}

// cameraTarget picks the overlay source for a camera view. An MJPEG
// feed embeds directly as a frame-replacing image; every other type
// needs the per-printer player page hosted in a frame.
func cameraTarget(id string, video *models.VideoInfo) (target string, inline bool) {
	if video.Type == models.VideoMJPEG {
		return video.URL, true
	}
	return fmt.Sprintf("/video/%s.html", id), false
}

// Degrade marks the tile neutral after a failed poll. Affordances
// derived from the last good payload stay; only a parsed payload
// rewrites them. The tile stays pollable, so the next cycle heals it.
func (t *Tile) Degrade(err error) {
	t.mu.Lock()
	t.status = models.StatusUnknown
	t.mu.Unlock()

	t.logger.LogWarning(err, "Status fetch failed, tile degraded", "printer", t.id)
}

// OpenCamera mounts this tile's camera view on the shared overlay.
func (t *Tile) OpenCamera() error {
	t.mu.Lock()
	affordance := t.camera
	var target string
	var inline bool
	var settings []string
	if affordance != nil {
		target, inline, settings = affordance.target, affordance.inline, affordance.settings
	}
	t.mu.Unlock()

	if affordance == nil {
		return apperror.NotFound.SetMessage("Printer Has No Camera View")
	}
	affordance.open(KindCamera, target, inline, settings)
	return nil
}

// OpenModel mounts this tile's model preview on the shared overlay.
// The viewer page is an opaque frame; only the default transform
// applies.
func (t *Tile) OpenModel() error {
	t.mu.Lock()
	affordance := t.model
	var target string
	if affordance != nil {
		target = affordance.target
	}
	t.mu.Unlock()

	if affordance == nil {
		return apperror.NotFound.SetMessage("Printer Has No Model Preview")
	}
	affordance.open(KindModel, target, false, nil)
	return nil
}

func (t *Tile) State() TileState {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := TileState{
		ID:     t.id,
		Status: t.status,
		Link:   t.link,
	}
	if t.camera != nil {
		state.Camera = &AffordanceState{Target: t.camera.target, Inline: t.camera.inline}
	}
	if t.model != nil {
		state.Model = &AffordanceState{Target: t.model.target}
	}
	return state
}
