package printers

import (
	"sort"

	"printboard/apperror"
	"printboard/config"
	"printboard/logger"
)

// Registry holds every configured printer keyed by its id.
type Registry struct {
	printers map[string]Printer
	logger   *logger.Logger
}

// NewRegistry builds printers from the fleet file. Entries with a
// missing or unrecognized type become Static printers so the board
// still shows a tile for them; entries missing required fields are
// skipped with a warning.
func NewRegistry(fleet config.Fleet, logman *logger.Logger) *Registry {
	registry := &Registry{
		printers: make(map[string]Printer, len(fleet.Printers)),
		logger:   logman,
	}

	for id, cfg := range fleet.Printers {
		printer, err := build(id, cfg)

		if err != nil {
			logman.LogWarning(err, "Skipping misconfigured printer", "printer", id)
			continue
		}
		registry.printers[id] = printer
	}

	return registry
}

func build(id string, cfg config.PrinterConfig) (Printer, error) {
	switch cfg.Type {
	case "ultimaker":
		return NewUltimaker(id, cfg)
	case "octopi":
		return NewOctopi(id, cfg)
	default:
		return NewStatic(id, cfg), nil
	}
}

func (r *Registry) Get(id string) (Printer, error) {
	printer, ok := r.printers[id]
	if !ok {
		return nil, apperror.NotFound
	}
	return printer, nil
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.printers))
	for id := range r.printers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Size() int {
	return len(r.printers)
}
