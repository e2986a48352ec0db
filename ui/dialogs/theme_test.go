package dialogs

import (
	"testing"

	"spacetime-chart/internal/config"

	"fyne.io/fyne/v2/test"
)

func TestThemeDialogApply(t *testing.T) {
	test.NewApp()
	d := NewThemeDialog(config.Default().Theme, test.NewWindow(nil), nil)
	d.createContent()

	d.colors[4].entry.SetText("#00ff00")
	d.pathWidthEntry.SetText("2.5")
	theme, err := d.applyChanges()
	if err != nil {
		t.Fatal(err)
	}
	if theme.Path != "#00ff00" || theme.PathWidth != 2.5 {
		t.Errorf("theme = %+v", theme)
	}
	if theme.Background != config.Default().Theme.Background {
		t.Errorf("untouched background changed to %q", theme.Background)
	}
}

func TestThemeDialogRejects(t *testing.T) {
	test.NewApp()
	for name, edit := range map[string]func(d *ThemeDialog){
		"bad color":  func(d *ThemeDialog) { d.colors[0].entry.SetText("white") },
		"bad width":  func(d *ThemeDialog) { d.pauseWidthEntry.SetText("wide") },
		"zero width": func(d *ThemeDialog) { d.pathWidthEntry.SetText("0") },
	} {
		d := NewThemeDialog(config.Default().Theme, test.NewWindow(nil), nil)
		d.createContent()
		edit(d)
		if _, err := d.applyChanges(); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}
