package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/steamview/internal/imagecache"
)

// Thumbnail cell sizes. Each cell shows two vertically stacked pixels.
const (
	boxArtCols = 16
	boxArtRows = 3
	iconCols   = 4
	iconRows   = 2
)

// renderThumbnail draws img as rows lines of cols upper-half-block cells.
// A nil image renders as blank cells.
func renderThumbnail(img image.Image, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	lines := make([]string, rows)
	if img == nil {
		blank := strings.Repeat(" ", cols)
		for i := range lines {
			lines[i] = blank
		}
		return lines
	}

	small := imagecache.Resize(img, image.Pt(cols, rows*2))
	b := small.Bounds()
	for y := range rows {
		var sb strings.Builder
		for x := range cols {
			top := hexColor(small.At(b.Min.X+x, b.Min.Y+2*y))
			bottom := hexColor(small.At(b.Min.X+x, b.Min.Y+2*y+1))
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
		lines[y] = sb.String()
	}
	return lines
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8)
}
