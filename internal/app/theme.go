package app

import (
	"image/color"

	"spacetime-chart/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// ChartTheme matches the fyne widgets around the chart to its palette.
type ChartTheme struct {
	palette config.Palette
}

var _ fyne.Theme = (*ChartTheme)(nil)

// NewChartTheme returns a theme built on p.
func NewChartTheme(p config.Palette) *ChartTheme {
	return &ChartTheme{palette: p}
}

func (t *ChartTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return t.palette.Path
	case theme.ColorNameSelection:
		return t.palette.Selection
	case theme.ColorNameBackground:
		return t.palette.Background
	case theme.ColorNameForeground:
		return t.palette.Text
	case theme.ColorNameSeparator:
		return t.palette.GridMajor
	case theme.ColorNameError:
		return t.palette.Hover
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *ChartTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *ChartTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *ChartTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameCaptionText:
		return float32(t.palette.CaptionFontSize)
	case theme.SizeNameScrollBar:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
