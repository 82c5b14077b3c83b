package model

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// extruderSeparation shifts the second extruder's lines sideways in the
// preview so dual-extrusion prints don't overlap (mm).
const extruderSeparation = 18.0

type jsonLayer struct {
	Z      float64        `json:"z"`
	Height float64        `json:"height"`
	Lines  [][][2]float64 `json:"lines"`
}

type jsonModel struct {
	Layers [][]jsonLayer `json:"layers"`
}

// WriteJSON emits the layered polyline form the viewer page fetches:
// one layer list per extruder, each layer carrying its mid z, height
// and extrude lines as [x,y] chains.
func (m *Model) WriteJSON(w io.Writer) error {
	levels := m.zLevels()
	heights := make([]float64, len(levels))
	index := make(map[float64]int, len(levels))
	for i, z := range levels {
		if i == 0 {
			heights[i] = z
		} else {
			heights[i] = z - levels[i-1]
		}
		index[z] = i
	}

	doc := jsonModel{Layers: [][]jsonLayer{}}
	for e, lines := range m.extruders {
		if len(lines) == 0 {
			continue
		}

		layers := make([]jsonLayer, len(levels))
		for i, z := range levels {
			layers[i] = jsonLayer{
				Z:      round4(z - heights[i]/2),
				Height: round4(heights[i]),
				Lines:  [][][2]float64{},
			}
		}

		shift := extruderSeparation * float64(e)
		for _, line := range lines {
			pts := make([][2]float64, len(line.pts))
			for i, pt := range line.pts {
				pts[i] = [2]float64{round4(pt[0] + shift), round4(pt[1])}
			}
			layer := &layers[index[line.z]]
			layer.Lines = append(layer.Lines, pts)
		}
		doc.Layers = append(doc.Layers, layers)
	}

	return json.NewEncoder(w).Encode(doc)
}

// WriteOBJ emits the polylines as an OBJ wireframe (v/l statements,
// y-up) for tools that want the geometry outside the viewer page.
func (m *Model) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	vertex := 1

	for e, lines := range m.extruders {
		shift := extruderSeparation * float64(e)
		for _, line := range lines {
			for _, pt := range line.pts {
				fmt.Fprintf(bw, "v %g %g %g\n", round4(pt[0]+shift), round4(line.z), round4(pt[1]))
			}
			bw.WriteString("l")
			for i := range line.pts {
				fmt.Fprintf(bw, " %d", vertex+i)
			}
			bw.WriteByte('\n')
			vertex += len(line.pts)
		}
	}
	return bw.Flush()
}
