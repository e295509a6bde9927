// Package export renders scenes and recorded runs as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/sim"
	"github.com/mellw0101/3d-sim/internal/viz"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

// CanvasToSVG draws every lit dot of a Braille canvas as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.Dot(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Track is the recorded path of one body.
type Track struct {
	Name   string
	Points []mgl32.Vec3
}

// TracksFromFrames collects one track per body, in body order.
func TracksFromFrames(frames []sim.Frame) []Track {
	if len(frames) == 0 {
		return nil
	}
	tracks := make([]Track, len(frames[0].Bodies))
	index := make(map[string]int, len(tracks))
	for i, b := range frames[0].Bodies {
		tracks[i] = Track{Name: b.Name, Points: make([]mgl32.Vec3, 0, len(frames))}
		index[b.Name] = i
	}
	for _, f := range frames {
		for _, b := range f.Bodies {
			if i, ok := index[b.Name]; ok {
				tracks[i].Points = append(tracks[i].Points, b.Position)
			}
		}
	}
	return tracks
}

// TracksToSVG plots the tracks projected on two position components, h on
// the horizontal axis and v on the vertical, sharing one padded scale.
func TracksToSVG(tracks []Track, h, v, width, height int) (string, error) {
	if h < 0 || h > 2 || v < 0 || v > 2 || h == v {
		return "", fmt.Errorf("invalid plane %d/%d", h, v)
	}
	first := true
	var minX, maxX, minY, maxY float32
	for _, t := range tracks {
		for _, p := range t.Points {
			if first {
				minX, maxX, minY, maxY = p[h], p[h], p[v], p[v]
				first = false
				continue
			}
			minX, maxX = min(minX, p[h]), max(maxX, p[h])
			minY, maxY = min(minY, p[v]), max(maxY, p[v])
		}
	}
	if first {
		return "", fmt.Errorf("no points to plot")
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX, maxX = minX-rangeX*0.1, maxX+rangeX*0.1
	minY, maxY = minY-rangeY*0.1, maxY+rangeY*0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, t := range tracks {
		if len(t.Points) == 0 {
			continue
		}
		color := palette[i%len(palette)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, color)
		for j, p := range t.Points {
			x := float64((p[h] - minX) / rangeX * float32(width))
			y := float64(height) - float64((p[v]-minY)/rangeY*float32(height))
			if j == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, "<text x=\"8\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n", 16+14*i, color, t.Name)
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}
