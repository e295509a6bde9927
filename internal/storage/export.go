package storage

import (
	"encoding/json"
	"io"

	"github.com/mellw0101/3d-sim/internal/sim"
)

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

type ExportFrame struct {
	Index  int               `json:"frame"`
	Time   float64           `json:"t"`
	Bodies []ExportBodyState `json:"bodies"`
}

type ExportBodyState struct {
	Name     string     `json:"name"`
	Position [3]float32 `json:"position"`
	Velocity [3]float32 `json:"velocity"`
}

// ExportJSON writes a run and its frames as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, frames []sim.Frame) error {
	data := ExportData{
		Run:    meta,
		Frames: make([]ExportFrame, len(frames)),
	}
	for i, f := range frames {
		ef := ExportFrame{Index: f.Index, Time: f.Time, Bodies: make([]ExportBodyState, len(f.Bodies))}
		for j, b := range f.Bodies {
			ef.Bodies[j] = ExportBodyState{Name: b.Name, Position: b.Position, Velocity: b.Velocity}
		}
		data.Frames[i] = ef
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
