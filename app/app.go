package app

import (
	"context"
	"math"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"printboard/apperror"
	"printboard/board"
	"printboard/config"
	"printboard/logger"
	"printboard/model"
	"printboard/models"
	"printboard/printers"
	"printboard/stream"
)

// App ties the fleet registry, the board engine, the HLS relays and the
// model cache together behind one service surface for the web layer.
type App struct {
	registry *printers.Registry
	board    *board.Board
	streams  *stream.Manager
	models   *model.Cache
	logger   *logger.Logger
}

func NewApp(logman *logger.Logger) (*App, error) {
	cfg := config.GetConfig()

	logman.LogInfo("Loading fleet configuration", "file", cfg.PrintersFile)
	fleet, err := config.LoadFleet(cfg.PrintersFile)

	if err != nil {
		logman.LogError(err, "Error loading fleet configuration")
		return nil, err
	}

	registry := printers.NewRegistry(fleet, logman)
	logman.LogInfo("Fleet loaded", "printers", strconv.Itoa(registry.Size()))

	var client board.StatusClient
	if cfg.BoardUpstream != "" {
		logman.LogInfo("Board polls a remote server", "upstream", cfg.BoardUpstream)
		client = board.NewHTTPClient(cfg.BoardUpstream)
	} else {
		client = &board.RegistryClient{Registry: registry}
	}

	if err = os.MkdirAll(cfg.ModelFolder, 0755); err != nil {
		logman.LogError(err, "Error creating model cache folder")
		return nil, err
	}

	return &App{
		registry: registry,
		board:    board.New(client, registry.IDs(), cfg.PollInterval, logman),
		streams:  stream.NewManager(cfg.StreamFolder, logman),
		models:   model.NewCache(cfg.ModelFolder, logman),
		logger:   logman,
	}, nil
}

// Start launches the board polling loop and the stream reaper.
func (a *App) Start() {
	a.board.Start()
	a.streams.Run()
}

// Shutdown stops polling and terminates every running relay.
func (a *App) Shutdown() {
	a.board.Stop()
	a.streams.Shutdown()
}

func (a *App) HasPrinter(id string) bool {
	_, err := a.registry.Get(id)
	return err == nil
}

// Describe builds the status record served at /info/{id}.json.
func (a *App) Describe(ctx context.Context, id string) (models.DeviceStatus, error) {
	printer, err := a.registry.Get(id)
	if err != nil {
		return models.DeviceStatus{}, err
	}
	return printer.Describe(ctx), nil
}

// StreamPlaylist ensures the printer's HLS relay runs and returns the
// playlist path.
func (a *App) StreamPlaylist(ctx context.Context, id string) (string, error) {
	printer, err := a.registry.Get(id)
	if err != nil {
		return "", err
	}

	source := printer.StreamSource()
	if source == "" {
		return "", apperror.NotFound.SetMessage("Printer Has No Video Source")
	}

	path, err := a.streams.Playlist(ctx, id, source)
	if err != nil {
		a.logger.LogError(err, "Error starting stream relay", "printer", id)
		return "", apperror.ServerError.Wrap(err)
	}
	return path, nil
}

func (a *App) StreamDir() string {
	return a.streams.Dir()
}

// ModelFile returns the cached gcode/json/obj artifact for the printer.
func (a *App) ModelFile(ctx context.Context, id, ext string, infill *bool, support bool) (string, error) {
	printer, err := a.registry.Get(id)
	if err != nil {
		return "", err
	}
	return a.models.File(ctx, printer, ext, infill, support)
}

func (a *App) Snapshot() board.Snapshot {
	return a.board.Snapshot()
}

// OpenOverlay mounts a camera or model view for the given printer.
func (a *App) OpenOverlay(kind, id string) error {
	switch board.Kind(kind) {
	case board.KindCamera:
		return a.board.OpenCamera(id)
	case board.KindModel:
		return a.board.OpenModel(id)
	}
	return apperror.InvalidRequest.SetMessage("Unknown Overlay Kind")
}

func (a *App) CloseOverlay() {
	a.board.CloseOverlay()
}

// AppStatus reports board health, including how full the disk holding
// the model cache is.
func (a *App) AppStatus() *models.AppStatus {
	status := &models.AppStatus{
		Printers:      a.registry.Size(),
		ActiveStreams: a.streams.Active(),
		OverlayOpen:   a.board.Overlay().State().Active,
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(config.GetConfig().ModelFolder, &stat); err != nil {
		a.logger.LogError(err, "Error getting disk usage")
		return status
	}

	availableBlocks := float64(stat.Bavail) * float64(stat.Bsize)
	totalBlocks := float64(stat.Blocks) * float64(stat.Bsize)
	if totalBlocks > 0 {
		used := (100 - (availableBlocks/totalBlocks)*100) / 100
		status.DiskUsage = float32(math.Trunc(used*100) / 100)
	}
	return status
}
