package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"pkt.systems/pslog"
)

func TestRootCommandFlagShorthands(t *testing.T) {
	root := newRootCommand(pslog.NewStructured(io.Discard))
	if flag := root.Flags().ShorthandLookup("l"); flag == nil || flag.Name != "listen" {
		t.Fatalf("expected -l shorthand for --listen, got %#v", flag)
	}
	if flag := root.Flags().ShorthandLookup("t"); flag == nil || flag.Name != "transport" {
		t.Fatalf("expected -t shorthand for --transport, got %#v", flag)
	}
	if flag := root.Flags().ShorthandLookup("d"); flag == nil || flag.Name != "base-dir" {
		t.Fatalf("expected -d shorthand for --base-dir, got %#v", flag)
	}
	if flag := root.PersistentFlags().ShorthandLookup("c"); flag == nil || flag.Name != "config" {
		t.Fatalf("expected global -c shorthand for --config, got %#v", flag)
	}
}

func TestRootCommandTransportDefault(t *testing.T) {
	root := newRootCommand(pslog.NewStructured(io.Discard))
	flag := root.Flags().Lookup("transport")
	if flag == nil {
		t.Fatal("expected --transport flag on root")
	}
	if flag.DefValue != "stdio" {
		t.Fatalf("expected stdio transport default, got %q", flag.DefValue)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("os.UserHomeDir: %v", err)
	}

	got, err := expandPath("")
	if err != nil || got != "" {
		t.Fatalf("expandPath(\"\")=%q, %v; want empty, nil", got, err)
	}

	got, err = expandPath("~/decks")
	if err != nil {
		t.Fatalf("expandPath(~/decks): %v", err)
	}
	if got != filepath.Join(home, "decks") {
		t.Fatalf("expandPath(~/decks)=%q, want under %q", got, home)
	}

	got, err = expandPath("relative/dir")
	if err != nil {
		t.Fatalf("expandPath(relative/dir): %v", err)
	}
	if !filepath.IsAbs(got) || !strings.HasSuffix(got, filepath.Join("relative", "dir")) {
		t.Fatalf("expandPath(relative/dir)=%q, want absolute path ending in relative/dir", got)
	}
}

func TestLoadConfigFileExplicitMissing(t *testing.T) {
	newRootCommand(pslog.NewStructured(io.Discard))
	viper.Set(configKey, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Cleanup(func() { viper.Set(configKey, "") })

	if _, err := loadConfigFile(); err == nil {
		t.Fatal("expected error for explicitly named missing config file")
	}
}

func TestLoadConfigFileAppliesValues(t *testing.T) {
	newRootCommand(pslog.NewStructured(io.Discard))
	path := filepath.Join(t.TempDir(), "deckd.yaml")
	if err := os.WriteFile(path, []byte("transport: http\nlisten: 0.0.0.0:9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	viper.Set(configKey, path)
	t.Cleanup(func() { viper.Set(configKey, "") })

	resolved, err := loadConfigFile()
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved config %q, want %q", resolved, path)
	}
	if got := viper.GetString(transportKey); got != "http" {
		t.Fatalf("transport from config=%q, want http", got)
	}
	if got := viper.GetString(listenKey); got != "0.0.0.0:9000" {
		t.Fatalf("listen from config=%q, want 0.0.0.0:9000", got)
	}
}
