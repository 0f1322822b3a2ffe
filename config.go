package deckd

import (
	"fmt"
	"os"
	"path/filepath"

	"pkt.systems/deckd/pptx"
)

// DefaultConfigFileName is the YAML config file name under the deckd config
// directory.
const DefaultConfigFileName = "deckd.yaml"

// Config controls deck lifecycle behavior. Validate applies defaults in
// place before first use.
type Config struct {
	// BaseDir roots every client-supplied relative path. Defaults to the
	// working directory.
	BaseDir string

	// TemplateDir roots template lookups. Defaults to BaseDir/templates.
	TemplateDir string

	// AllowAbsolutePaths opts the whole process into accepting absolute
	// client paths verbatim. Off by default; absolute paths are then
	// reduced to their final element inside BaseDir.
	AllowAbsolutePaths bool

	// DefaultAspectRatio applies to decks created without an explicit
	// ratio. Defaults to 16:9.
	DefaultAspectRatio string
}

// Validate applies defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("deckd: resolve working directory: %w", err)
		}
		c.BaseDir = cwd
	}
	abs, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return fmt.Errorf("deckd: resolve base dir %q: %w", c.BaseDir, err)
	}
	c.BaseDir = abs

	if c.TemplateDir == "" {
		c.TemplateDir = filepath.Join(c.BaseDir, "templates")
	}
	abs, err = filepath.Abs(c.TemplateDir)
	if err != nil {
		return fmt.Errorf("deckd: resolve template dir %q: %w", c.TemplateDir, err)
	}
	c.TemplateDir = abs

	if c.DefaultAspectRatio == "" {
		c.DefaultAspectRatio = string(pptx.Aspect16x9)
	}
	if _, err := pptx.ParseAspectRatio(c.DefaultAspectRatio); err != nil {
		return fmt.Errorf("deckd: default aspect ratio: %w", err)
	}
	return nil
}

// DefaultConfigDir returns the per-user deckd configuration directory.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv("DECKD_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("deckd: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".deckd"), nil
}
