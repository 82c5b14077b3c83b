package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"printboard/apperror"
	"printboard/logger"
	"printboard/printers"
)

// autoInfillLimit: below this gcode size the preview includes infill by
// default; above it the payload gets unwieldy.
const autoInfillLimit = 10 * 1024 * 1024

// Cache keeps downloaded gcode and its converted forms on disk, keyed
// by printer id. A cached file is fresh while its mtime is newer than
// the start of the printer's current job.
type Cache struct {
	dir    string
	logger *logger.Logger
	mu     sync.Mutex
}

func NewCache(dir string, logman *logger.Logger) *Cache {
	return &Cache{dir: dir, logger: logman}
}

// File returns the path of the requested artifact, ext one of gcode,
// json or obj. infill nil means auto (on for small prints); conversions
// are cached under suffixed names so both variants can coexist.
func (c *Cache) File(ctx context.Context, printer printers.Printer, ext string, infill *bool, support bool) (string, error) {
	if !printer.SupportsGCode() {
		return "", apperror.InvalidRequest.SetMessage("Printer Does Not Serve GCode")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", err
	}

	gcodePath := filepath.Join(c.dir, printer.Name()+".gcode")
	updated, err := c.updateGCode(ctx, printer, gcodePath)
	if err != nil {
		return "", err
	}
	if ext == "gcode" {
		return gcodePath, nil
	}

	withInfill := infill != nil && *infill
	if infill == nil {
		fi, err := os.Stat(gcodePath)
		if err != nil {
			return "", err
		}
		withInfill = fi.Size() < autoInfillLimit
	}

	name := printer.Name()
	if !withInfill {
		name += "_no_infill"
	}
	if support {
		name += "_support"
	}
	name += "." + ext
	outPath := filepath.Join(c.dir, name)

	if updated || !fresh(ctx, printer, outPath) {
		if err := convert(gcodePath, outPath, ext, withInfill, support); err != nil {
			return "", err
		}
		c.logger.LogInfo("Converted gcode", "printer", printer.Name(), "file", name)
	}
	return outPath, nil
}

// updateGCode downloads the current job's gcode unless the cached copy
// is already fresh. A failed download falls back to a stale copy when
// one exists.
func (c *Cache) updateGCode(ctx context.Context, printer printers.Printer, path string) (bool, error) {
	if fresh(ctx, printer, path) {
		return false, nil
	}

	gcode, err := printer.GCode(ctx)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			c.logger.LogWarning(err, "GCode download failed, serving cached copy", "printer", printer.Name())
			return false, nil
		}
		return false, apperror.NotFound.Wrap(fmt.Errorf("no gcode for %s: %w", printer.Name(), err))
	}

	if err := os.WriteFile(path, []byte(gcode), 0644); err != nil {
		return false, err
	}
	return true, nil
}

func fresh(ctx context.Context, printer printers.Printer, path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	started, ok := printer.JobStarted(ctx)
	if !ok {
		return false
	}
	return fi.ModTime().After(started)
}

func convert(gcodePath, outPath, ext string, withInfill, withSupport bool) error {
	in, err := os.Open(gcodePath)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	parsed, err := Parse(in, Options{IgnoreInfill: !withInfill, IgnoreSupport: !withSupport})
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if ext == "obj" {
		return parsed.WriteOBJ(out)
	}
	return parsed.WriteJSON(out)
}
