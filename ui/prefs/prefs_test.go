package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", prefsFile)
	p := LoadFrom(path)
	if p.Bool(KeyProportional, true) != true || p.Float(KeyYZoom, 1) != 1 || p.String(KeyLastScene) != "" {
		t.Fatal("fresh prefs are not empty")
	}
	p.SetBool(KeyProportional, false)
	p.SetFloat(KeyYZoom, 2.5)
	p.SetString(KeyLastScene, "/tmp/scene.yaml")
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	q := LoadFrom(path)
	if q.Bool(KeyProportional, true) || q.Float(KeyYZoom, 1) != 2.5 || q.String(KeyLastScene) != "/tmp/scene.yaml" {
		t.Errorf("reloaded prefs = %+v", q.values)
	}
}

func TestSaveIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	p := LoadFrom(path)
	if err := p.SaveIfChanged(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("unchanged prefs were written")
	}

	p.SetFloat(KeyMsPerPx, 7500)
	if err := p.SaveIfChanged(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("changed prefs not written: %v", err)
	}

	os.Remove(path)
	p.SetFloat(KeyMsPerPx, 7500)
	if err := p.SaveIfChanged(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("setting an equal value marked prefs changed")
	}
}

func TestCorruptFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := LoadFrom(path)
	if p.Float(KeyYZoom, 3) != 3 {
		t.Error("corrupt file produced values")
	}
}
