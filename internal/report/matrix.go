package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/mat"
)

// Matrix renders m as right-aligned columns inside a titled panel.
func Matrix(title string, m mat.Matrix, precision int) string {
	if m == nil {
		return Panel.Render(Title.Render(title) + "\n" + Subtle.Render("(none)"))
	}
	r, c := m.Dims()
	cells := make([][]string, r)
	width := 0
	for i := 0; i < r; i++ {
		cells[i] = make([]string, c)
		for j := 0; j < c; j++ {
			cells[i][j] = fmt.Sprintf("%.*f", precision, m.At(i, j))
			width = max(width, len(cells[i][j]))
		}
	}

	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("%s  %d×%d", title, r, c)))
	for i := 0; i < r; i++ {
		b.WriteByte('\n')
		for j := 0; j < c; j++ {
			if j > 0 {
				b.WriteString("  ")
			}
			cell := fmt.Sprintf("%*s", width, cells[i][j])
			if m.At(i, j) == 0 {
				b.WriteString(Zero.Render(cell))
			} else {
				b.WriteString(Value.Render(cell))
			}
		}
	}
	return Panel.Render(b.String())
}

// Row joins rendered panels side by side.
func Row(panels ...string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

// KeyValue renders a labelled value line.
func KeyValue(label string, value any) string {
	return Label.Render(label) + Value.Render(fmt.Sprint(value))
}

// Plot draws one or more series against a shared axis. Legends, when given,
// name the series in order.
func Plot(caption string, legends []string, series ...[]float64) string {
	if len(series) == 0 || len(series[0]) == 0 {
		return Subtle.Render("no data to plot")
	}
	opts := []asciigraph.Option{
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption(caption),
	}
	if len(legends) > 0 {
		opts = append(opts, asciigraph.SeriesLegends(legends...))
	}
	if len(series) > 1 {
		colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green}
		opts = append(opts, asciigraph.SeriesColors(colors[:min(len(series), len(colors))]...))
		return asciigraph.PlotMany(series, opts...)
	}
	return asciigraph.Plot(series[0], opts...)
}
