package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "dabcheck.yaml", "threads: 4\nmax_bytes: 123\nsince: \"1.0\"\nfail_on: high\n")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("expected threads=4, got %#v", cfg.Threads)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 123 {
		t.Fatalf("expected max_bytes=123, got %#v", cfg.MaxBytes)
	}
	if cfg.Since == nil || *cfg.Since != "1.0" {
		t.Fatalf("expected since=1.0, got %#v", cfg.Since)
	}
	if cfg.FailOn == nil || *cfg.FailOn != "high" {
		t.Fatalf("expected fail_on=high, got %#v", cfg.FailOn)
	}
}

func TestLoadFile_LibraryPathsRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "torch.csv")
	body := "libraries:\n  scipy: tables/scipy.csv\n  torch: " + abs + "\nseverity:\n  sklearn: high\n"
	cfg, err := LoadFile(writeTemp(t, dir, ".dabcheck.yml", body))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tables", "scipy.csv"), cfg.Libraries["scipy"])
	assert.Equal(t, abs, cfg.Libraries["torch"])
	assert.Equal(t, map[string]string{"sklearn": "high"}, cfg.Severity)
}

func TestLoadFile_Malformed(t *testing.T) {
	_, err := LoadFile(writeTemp(t, t.TempDir(), "bad.yml", "threads: [\n"))
	assert.Error(t, err)
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "dabcheck.yaml", "threads: 1\n")
	writeTemp(t, dir, ".dabcheck.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 7 {
		t.Fatalf("expected threads=7 from .dabcheck.yaml, got %#v", cfg.Threads)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "dabcheck")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemp(t, cfgDir, "config.yml", "threads: 9\n")
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 9 {
		t.Fatalf("expected threads=9 from global config, got %#v", cfg.Threads)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	// Simulate no HOME as well by clearing HOME; LoadGlobal should error
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}

func TestMerge_LocalOverridesGlobal(t *testing.T) {
	four, eight := 4, 8
	low, high := "low", "high"
	global := FileConfig{Threads: &four, FailOn: &low, Severity: map[string]string{"numpy": "low", "pandas": "low"}}
	local := FileConfig{Threads: &eight, Severity: map[string]string{"numpy": "high"}}

	got := global.Merge(local)
	assert.Equal(t, 8, *got.Threads)
	assert.Equal(t, "low", *got.FailOn)
	assert.Equal(t, map[string]string{"numpy": "high", "pandas": "low"}, got.Severity)
	assert.Nil(t, got.Libraries)
	// inputs untouched
	assert.Equal(t, "low", global.Severity["numpy"])

	got = got.Merge(FileConfig{FailOn: &high})
	assert.Equal(t, "high", *got.FailOn)
}

func TestEffective(t *testing.T) {
	xdg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "dabcheck"), 0o755))
	writeTemp(t, filepath.Join(xdg, "dabcheck"), "config.yml", "threads: 2\nlog_level: debug\n")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	repo := t.TempDir()
	writeTemp(t, repo, "dabcheck.yml", "threads: 6\n")
	cfg, err := Effective(repo)
	require.NoError(t, err)
	assert.Equal(t, 6, *cfg.Threads)
	assert.Equal(t, "debug", *cfg.LogLevel)

	cfg, err = Effective(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2, *cfg.Threads)
}

func TestStarterIsValidYAML(t *testing.T) {
	var cfg FileConfig
	require.NoError(t, yaml.Unmarshal([]byte(Starter), &cfg))
	assert.Nil(t, cfg.Threads)
}
