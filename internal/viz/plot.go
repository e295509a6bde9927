package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/mellw0101/3d-sim/internal/sim"
)

// PlotTrack charts one position component (0=x, 1=y, 2=z) of a recorded
// body track.
func PlotTrack(name string, track []sim.BodyState, component int) (string, error) {
	if component < 0 || component > 2 {
		return "", fmt.Errorf("component %d out of range", component)
	}
	if len(track) < 2 {
		return "", fmt.Errorf("track %q has %d samples, need at least 2", name, len(track))
	}
	data := make([]float64, len(track))
	for i, s := range track {
		data[i] = float64(s.Position[component])
	}
	caption := fmt.Sprintf("%s %c over %d frames", name, "xyz"[component], len(track)-1)
	return asciigraph.Plot(data, asciigraph.Height(12), asciigraph.Width(70), asciigraph.Caption(caption)), nil
}
