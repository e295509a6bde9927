package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of lipgloss styles derived from a Theme.
type Styles struct {
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	Running     lipgloss.Style
	Paused      lipgloss.Style
	Failed      lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	KeyHint     lipgloss.Style
	Selected    lipgloss.Style
	Graph       lipgloss.Style
	sparkHigh   lipgloss.Style
	sparkMid    lipgloss.Style
	sparkLow    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Subtle:      lipgloss.NewStyle().Foreground(t.Muted),
		Running:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Paused:      lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Failed:      lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		MetricLabel: lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		MetricValue: lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		KeyHint:     lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Graph:       lipgloss.NewStyle().Foreground(t.Primary),
		sparkHigh:   lipgloss.NewStyle().Foreground(t.Success),
		sparkMid:    lipgloss.NewStyle().Foreground(t.Warning),
		sparkLow:    lipgloss.NewStyle().Foreground(t.Error),
	}
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the most recent width values as a one-line chart.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := min(max(int(norm*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)
		c := string(sparkChars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(s.sparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(s.sparkMid.Render(c))
		default:
			b.WriteString(s.sparkLow.Render(c))
		}
	}
	return b.String()
}

// Separator renders a muted rule of the given width.
func (s Styles) Separator(width int) string {
	if width < 7 {
		return s.Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return s.Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
