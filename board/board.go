package board

import (
	"context"
	"sync"
	"time"

	"printboard/apperror"
	"printboard/logger"
)

// Board wires one tile per configured printer to the shared overlay and
// drives the polling loop. All state is in memory and rebuilt from the
// fleet configuration at startup; an empty fleet is a valid board.
type Board struct {
	client   StatusClient
	overlay  *OverlayController
	interval time.Duration
	logger   *logger.Logger

	tiles map[string]*Tile
	ids   []string

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(client StatusClient, ids []string, interval time.Duration, logman *logger.Logger) *Board {
	b := &Board{
		client:   client,
		overlay:  NewOverlayController(logman),
		interval: interval,
		logger:   logman,
		tiles:    make(map[string]*Tile, len(ids)),
		ids:      append([]string(nil), ids...),
		stop:     make(chan struct{}),
	}

	for _, id := range b.ids {
		b.tiles[id] = NewTile(id, b.overlay.Open, logman)
	}
	return b
}

// Start polls every tile once immediately, then re-polls each on the
// fixed cadence with its own goroutine. Tiles never wait on each other:
// a slow or failing printer cannot stall the rest of the board.
func (b *Board) Start() {
	b.logger.LogInfo("Starting board polling", "interval", b.interval.String())

	for _, id := range b.ids {
		b.wg.Add(1)
		go b.loop(id)
	}
}

func (b *Board) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	b.wg.Wait()
}

func (b *Board) loop(id string) {
	defer b.wg.Done()

	b.pollOnce(id)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.pollOnce(id)
		}
	}
}

// pollOnce performs one fetch-reconcile cycle for a tile. A failure
// degrades the tile to neutral; it never aborts the loop.
func (b *Board) pollOnce(id string) {
	tile := b.tiles[id]

	ctx, cancel := context.WithTimeout(context.Background(), b.interval)
	defer cancel()

	status, err := b.client.FetchStatus(ctx, id)
	if err != nil {
		tile.Degrade(err)
		return
	}
	tile.Reconcile(status)
}

func (b *Board) Tile(id string) (*Tile, bool) {
	tile, ok := b.tiles[id]
	return tile, ok
}

func (b *Board) Overlay() *OverlayController { return b.overlay }

// OpenCamera mounts the camera view of the given printer on the shared
// overlay.
func (b *Board) OpenCamera(id string) error {
	tile, ok := b.tiles[id]
	if !ok {
		return apperror.NotFound
	}
	return tile.OpenCamera()
}

// OpenModel mounts the model preview of the given printer on the shared
// overlay.
func (b *Board) OpenModel(id string) error {
	tile, ok := b.tiles[id]
	if !ok {
		return apperror.NotFound
	}
	return tile.OpenModel()
}

// CloseOverlay is the single teardown every dismissal trigger routes
// through.
func (b *Board) CloseOverlay() {
	b.overlay.Close()
}

// Snapshot is the whole board for the presentation layer.
type Snapshot struct {
	Tiles   []TileState `json:"tiles"`
	Overlay State       `json:"overlay"`
}

func (b *Board) Snapshot() Snapshot {
	tiles := make([]TileState, 0, len(b.ids))
	for _, id := range b.ids {
		tiles = append(tiles, b.tiles[id].State())
	}
	return Snapshot{
		Tiles:   tiles,
		Overlay: b.overlay.State(),
	}
}
