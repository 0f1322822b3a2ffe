package deckd

import (
	"path/filepath"
	"testing"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.BaseDir == "" || !filepath.IsAbs(cfg.BaseDir) {
		t.Fatalf("expected absolute base dir default, got %q", cfg.BaseDir)
	}
	if cfg.TemplateDir != filepath.Join(cfg.BaseDir, "templates") {
		t.Fatalf("expected template dir under base, got %q", cfg.TemplateDir)
	}
	if cfg.DefaultAspectRatio != "16:9" {
		t.Fatalf("expected 16:9 default aspect ratio, got %q", cfg.DefaultAspectRatio)
	}
	if cfg.AllowAbsolutePaths {
		t.Fatal("absolute paths must be off by default")
	}
}

func TestConfigValidateRejectsUnknownAspectRatio(t *testing.T) {
	cfg := Config{BaseDir: t.TempDir(), DefaultAspectRatio: "3:2"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown aspect ratio")
	}
}

func TestConfigValidateKeepsExplicitDirs(t *testing.T) {
	base := t.TempDir()
	tpl := t.TempDir()
	cfg := Config{BaseDir: base, TemplateDir: tpl}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.BaseDir != base {
		t.Fatalf("expected base %q, got %q", base, cfg.BaseDir)
	}
	if cfg.TemplateDir != tpl {
		t.Fatalf("expected template dir %q, got %q", tpl, cfg.TemplateDir)
	}
}
