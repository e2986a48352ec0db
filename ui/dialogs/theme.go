// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"image/color"
	"strconv"

	"spacetime-chart/internal/config"
	"spacetime-chart/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// colorField is one editable palette entry.
type colorField struct {
	label  string
	value  *string
	entry  *widget.Entry
	swatch *fynecanvas.Rectangle
}

// ThemeDialog provides a property sheet for editing the chart theme.
type ThemeDialog struct {
	theme  config.ThemeConfig
	window fyne.Window

	colors []*colorField

	pathWidthEntry  *widget.Entry
	pauseWidthEntry *widget.Entry
	captionEntry    *widget.Entry

	onSave func(config.ThemeConfig) error
}

// NewThemeDialog creates a dialog editing a copy of theme. onSave receives the
// edited theme; an error keeps the dialog's changes from being applied and is
// shown to the user.
func NewThemeDialog(theme config.ThemeConfig, window fyne.Window, onSave func(config.ThemeConfig) error) *ThemeDialog {
	return &ThemeDialog{
		theme:  theme,
		window: window,
		onSave: onSave,
	}
}

// Show displays the dialog.
func (d *ThemeDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Chart Theme",
		"Apply",
		"Cancel",
		content,
		func(apply bool) {
			if !apply {
				return
			}
			theme, err := d.applyChanges()
			if err == nil && d.onSave != nil {
				err = d.onSave(theme)
			}
			if err != nil {
				dialog.ShowError(err, d.window)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(420, 560))
	dlg.Show()
}

func (d *ThemeDialog) fields() []*colorField {
	t := &d.theme
	return []*colorField{
		{label: "Background", value: &t.Background},
		{label: "Grid", value: &t.Grid},
		{label: "Major grid", value: &t.GridMajor},
		{label: "Text", value: &t.Text},
		{label: "Path", value: &t.Path},
		{label: "Hover", value: &t.Hover},
		{label: "Selection", value: &t.Selection},
		{label: "Occupancy zone", value: &t.OccupancyZone},
		{label: "Conflict", value: &t.Conflict},
	}
}

func (d *ThemeDialog) createContent() fyne.CanvasObject {
	d.colors = d.fields()

	colorRows := container.NewVBox()
	for _, f := range d.colors {
		f.entry = widget.NewEntry()
		f.entry.SetText(*f.value)
		f.swatch = fynecanvas.NewRectangle(color.Transparent)
		f.swatch.SetMinSize(fyne.NewSize(40, 24))

		field := f
		f.entry.OnChanged = func(string) { updateSwatch(field) }
		updateSwatch(f)

		colorRows.Add(container.NewBorder(nil, nil,
			widget.NewLabel(f.label+":"), field.swatch, field.entry))
	}

	d.pathWidthEntry = widget.NewEntry()
	d.pathWidthEntry.SetText(fmt.Sprintf("%.1f", d.theme.PathWidth))
	d.pauseWidthEntry = widget.NewEntry()
	d.pauseWidthEntry.SetText(fmt.Sprintf("%.1f", d.theme.PauseWidth))
	d.captionEntry = widget.NewEntry()
	d.captionEntry.SetText(fmt.Sprintf("%.0f", d.theme.CaptionFontSize))

	strokeForm := widget.NewForm(
		widget.NewFormItem("Path width (px)", d.pathWidthEntry),
		widget.NewFormItem("Stop width (px)", d.pauseWidthEntry),
		widget.NewFormItem("Caption size (pt)", d.captionEntry),
	)

	return container.NewVBox(
		widget.NewCard("Colors", "#rrggbb or #rrggbbaa", colorRows),
		widget.NewCard("Strokes", "", strokeForm),
	)
}

// applyChanges copies the entries into the theme and checks the result.
func (d *ThemeDialog) applyChanges() (config.ThemeConfig, error) {
	for _, f := range d.colors {
		*f.value = f.entry.Text
	}
	for _, num := range []struct {
		entry *widget.Entry
		dst   *float64
	}{
		{d.pathWidthEntry, &d.theme.PathWidth},
		{d.pauseWidthEntry, &d.theme.PauseWidth},
		{d.captionEntry, &d.theme.CaptionFontSize},
	} {
		v, err := strconv.ParseFloat(num.entry.Text, 64)
		if err != nil || v <= 0 {
			return d.theme, fmt.Errorf("invalid size %q", num.entry.Text)
		}
		*num.dst = v
	}
	if _, err := d.theme.Palette(); err != nil {
		return d.theme, err
	}
	return d.theme, nil
}

// updateSwatch shows the entry's color, or nothing while it does not parse.
func updateSwatch(f *colorField) {
	c, err := colorutil.ParseHex(f.entry.Text)
	if err != nil {
		f.swatch.FillColor = color.Transparent
	} else {
		f.swatch.FillColor = c
	}
	fynecanvas.Refresh(f.swatch)
}
