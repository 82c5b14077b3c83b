// Package model turns the gcode of the currently printing job into
// layer previews: a JSON list of extrude polylines per layer for the
// in-browser viewer, or a plain OBJ export.
package model

import (
	"bufio"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Options selects which extrusion classes end up in the preview.
// Slicers tag sections with ";TYPE:" comments; infill and support are
// the bulky ones worth dropping for large prints.
type Options struct {
	IgnoreInfill  bool
	IgnoreSupport bool
}

const maxExtruders = 2

type polyline struct {
	z   float64
	pts [][2]float64
}

// Model holds extrude polylines per extruder, in print order.
type Model struct {
	extruders [][]polyline
}

type parser struct {
	opts Options

	x, y, z, e float64
	absMove    bool
	absExtrude bool
	extruder   int
	section    string

	current *polyline
	lines   [][]polyline
}

// Parse reads gcode and collects the extrude movements. Unrecognized
// commands are skipped; gcode is too dialect-ridden for strictness to
// pay off.
func Parse(r io.Reader, opts Options) (*Model, error) {
	p := &parser{
		opts:       opts,
		absMove:    true,
		absExtrude: true,
		lines:      make([][]polyline, maxExtruders),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		p.handleLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.flush()

	model := &Model{extruders: p.lines}
	model.simplify()
	return model, nil
}

func (p *parser) handleLine(raw string) {
	line := strings.TrimSpace(raw)

	if strings.HasPrefix(line, ";TYPE:") {
		p.section = strings.TrimSpace(line[len(";TYPE:"):])
		return
	}
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return
	}

	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])

	switch cmd {
	case "G0", "G1":
		p.move(fields[1:])
	case "G90":
		p.absMove, p.absExtrude = true, true
	case "G91":
		p.absMove, p.absExtrude = false, false
	case "M82":
		p.absExtrude = true
	case "M83":
		p.absExtrude = false
	case "G92":
		p.reset(fields[1:])
	case "T0", "T1":
		p.flush()
		p.extruder = int(cmd[1] - '0')
	}
}

func word(field string) (byte, float64, bool) {
	if len(field) < 2 {
		return 0, 0, false
	}
	value, err := strconv.ParseFloat(field[1:], 64)
	if err != nil {
		return 0, 0, false
	}
	return field[0] &^ 0x20, value, true
}

func (p *parser) move(params []string) {
	nx, ny, nz, ne := p.x, p.y, p.z, p.e
	hasXY := false

	for _, param := range params {
		letter, value, ok := word(param)
		if !ok {
			continue
		}
		switch letter {
		case 'X':
			if !p.absMove {
				value += p.x
			}
			nx, hasXY = value, true
		case 'Y':
			if !p.absMove {
				value += p.y
			}
			ny, hasXY = value, true
		case 'Z':
			if !p.absMove {
				value += p.z
			}
			nz = value
		case 'E':
			if !p.absExtrude {
				value += p.e
			}
			ne = value
		}
	}

	extruding := ne > p.e && hasXY && (nx != p.x || ny != p.y)
	if nz != p.z {
		p.flush()
	}

	if extruding && !p.skipSection() {
		if p.current == nil {
			p.current = &polyline{z: nz, pts: [][2]float64{{p.x, p.y}}}
		}
		p.current.pts = append(p.current.pts, [2]float64{nx, ny})
	} else {
		p.flush()
	}

	p.x, p.y, p.z, p.e = nx, ny, nz, ne
}

func (p *parser) reset(params []string) {
	for _, param := range params {
		letter, value, ok := word(param)
		if !ok {
			continue
		}
		switch letter {
		case 'X':
			p.x = value
		case 'Y':
			p.y = value
		case 'Z':
			p.z = value
		case 'E':
			p.e = value
		}
	}
}

func (p *parser) skipSection() bool {
	if p.opts.IgnoreInfill && p.section == "FILL" {
		return true
	}
	if p.opts.IgnoreSupport && strings.HasPrefix(p.section, "SUPPORT") {
		return true
	}
	return false
}

func (p *parser) flush() {
	if p.current == nil {
		return
	}
	if p.extruder < maxExtruders && len(p.current.pts) > 1 {
		p.lines[p.extruder] = append(p.lines[p.extruder], *p.current)
	}
	p.current = nil
}

const (
	areaTolerance   = 1e-2
	sinTolerance    = 1e-3
	lengthTolerance = 0.1 // sqrt of areaTolerance
)

// simplify merges (near-)colinear consecutive segments and drops
// degenerate polylines, which shrinks preview payloads considerably.
func (m *Model) simplify() {
	for e, lines := range m.extruders {
		kept := lines[:0]
		for _, line := range lines {
			line.pts = simplifyPoints(line.pts)
			if len(line.pts) < 2 {
				continue
			}
			if len(line.pts) == 2 && dist(line.pts[0], line.pts[1]) < lengthTolerance {
				continue
			}
			kept = append(kept, line)
		}
		m.extruders[e] = kept
	}
}

func simplifyPoints(pts [][2]float64) [][2]float64 {
	if len(pts) < 3 {
		return pts
	}
	out := pts[:1]
	for i := 1; i < len(pts)-1; i++ {
		a, b, c := out[len(out)-1], pts[i], pts[i+1]
		if colinear(a, b, c) {
			continue
		}
		out = append(out, b)
	}
	return append(out, pts[len(pts)-1])
}

func colinear(a, b, c [2]float64) bool {
	abx, aby := b[0]-a[0], b[1]-a[1]
	acx, acy := c[0]-a[0], c[1]-a[1]
	cross := math.Abs(abx*acy - aby*acx)

	if cross/2 < areaTolerance {
		return true
	}
	lab := math.Hypot(abx, aby)
	lac := math.Hypot(acx, acy)
	return lab > 0 && lac > 0 && cross/(lab*lac) < sinTolerance
}

func dist(a, b [2]float64) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// zLevels returns the sorted unique layer heights across all extruders.
func (m *Model) zLevels() []float64 {
	seen := make(map[float64]struct{})
	var levels []float64
	for _, lines := range m.extruders {
		for _, line := range lines {
			if _, ok := seen[line.z]; !ok {
				seen[line.z] = struct{}{}
				levels = append(levels, line.z)
			}
		}
	}
	sort.Float64s(levels)
	return levels
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
