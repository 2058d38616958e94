package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrefs_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if got := LoadPrefs(); got != DefaultPrefs() {
		t.Fatalf("expected defaults, got %#v", got)
	}
}

func TestPrefs_SaveAndLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := SavePrefs(Prefs{ShowContext: false}); err != nil {
		t.Fatalf("SavePrefs: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".dabcheck", "tui_prefs.json")); err != nil {
		t.Fatalf("expected prefs file: %v", err)
	}
	if got := LoadPrefs(); got.ShowContext {
		t.Fatalf("expected show_context=false, got %#v", got)
	}
}

func TestPrefs_CorruptFileFallsBack(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".dabcheck")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tui_prefs.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := LoadPrefs(); got != DefaultPrefs() {
		t.Fatalf("expected defaults, got %#v", got)
	}
}
