package board

import (
	"strings"
	"sync"

	"printboard/logger"
)

// Kind is what the shared overlay is currently hosting.
type Kind string

const (
	KindNone   Kind = "none"
	KindCamera Kind = "camera"
	KindModel  Kind = "model"
)

// Host is the element mounted inside the overlay. A fresh Host is built
// on every open and dropped entirely on close so no playback state or
// late callback survives a dismissed view.
type Host struct {
	Kind         Kind
	URL          string
	Inline       bool
	MediaClasses []string
}

// State is a snapshot of the overlay for the presentation layer.
type State struct {
	Active       bool     `json:"active"`
	Kind         Kind     `json:"kind"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
	Inline       bool     `json:"inline,omitempty"`
	ModalClasses []string `json:"modalClasses,omitempty"`
	MediaClasses []string `json:"mediaClasses,omitempty"`
}

// OverlayController owns the single shared modal surface. At most one
// view is live at a time; opening a second view tears the first down
// before mounting.
type OverlayController struct {
	mu           sync.Mutex
	host         *Host
	modalClasses []string
	logger       *logger.Logger
}

func NewOverlayController(logman *logger.Logger) *OverlayController {
	return &OverlayController{logger: logman}
}

// Open mounts a view. An already-active view is fully torn down first,
// whatever its kind, so two live views never coexist.
func (o *OverlayController) Open(kind Kind, url string, inline bool, tags []string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.host != nil {
		o.teardown()
	}

	transform, ignored := ParseTransform(tags)
	if len(ignored) > 0 {
		o.logger.LogInfo("Ignoring unrecognized aspect ratio tags", "tags", strings.Join(ignored, " "))
	}

	o.host = &Host{
		Kind:         kind,
		URL:          url,
		Inline:       inline,
		MediaClasses: transform.MediaClasses(),
	}
	o.modalClasses = transform.ModalClasses()
}

// Close detaches the hosted element and clears all transform state.
// Every dismissal path (close button, backdrop click, Escape) ends up
// here.
func (o *OverlayController) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.teardown()
}

func (o *OverlayController) teardown() {
	o.host = nil
	o.modalClasses = nil
}

func (o *OverlayController) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.host == nil {
		return State{Active: false, Kind: KindNone}
	}
	return State{
		Active:       true,
		Kind:         o.host.Kind,
		SourceURL:    o.host.URL,
		Inline:       o.host.Inline,
		ModalClasses: append([]string(nil), o.modalClasses...),
		MediaClasses: append([]string(nil), o.host.MediaClasses...),
	}
}
