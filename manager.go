package deckd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"pkt.systems/deckd/pathguard"
	"pkt.systems/deckd/pptx"
	"pkt.systems/pslog"
)

// Manager implements the deck lifecycle: create, open, save, close, and the
// in-memory import/export pair used by the storage connector. Every
// filesystem path passes through pathguard before any read or write; every
// operation validates its inputs before touching a presentation, so a failed
// call leaves the registry unchanged.
type Manager struct {
	cfg      Config
	registry *Registry
	logger   pslog.Logger
}

// NewManager wires a Manager to its registry. The config is validated and
// defaulted in place.
func NewManager(cfg Config, registry *Registry, logger pslog.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &Manager{cfg: cfg, registry: registry, logger: logger}, nil
}

// Config returns the validated configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Registry returns the injected registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// CreateRequest parameterizes Create.
type CreateRequest struct {
	// Identifier is optional; a random identifier is generated when empty.
	Identifier string
	// TemplatePath optionally seeds the new deck from a .pptx/.potx file,
	// resolved against the template directory.
	TemplatePath string
	// AspectRatio overrides the configured default for blank decks.
	AspectRatio string
}

// Create registers a new deck, blank or seeded from a template, sets it
// current, and returns its identifier.
func (m *Manager) Create(req CreateRequest) (string, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = uuid.NewString()
	}
	if _, err := m.registry.Get(identifier); err == nil {
		return "", &DuplicateIdentifierError{Identifier: identifier}
	}

	var pres *pptx.Presentation
	if req.TemplatePath != "" {
		resolved, err := pathguard.Sanitize(req.TemplatePath, m.cfg.TemplateDir, m.guardOpts()...)
		if err != nil {
			return "", err
		}
		pres, err = m.loadTemplate(resolved.Path)
		if err != nil {
			return "", err
		}
	} else {
		ratio := req.AspectRatio
		if ratio == "" {
			ratio = m.cfg.DefaultAspectRatio
		}
		parsed, err := pptx.ParseAspectRatio(ratio)
		if err != nil {
			return "", err
		}
		pres = pptx.New(parsed)
	}

	deck := &Deck{Identifier: identifier, Presentation: pres}
	if err := m.registry.Insert(deck); err != nil {
		return "", err
	}
	if err := m.registry.SetCurrent(identifier); err != nil {
		return "", err
	}
	m.logger.Info("deck.created", "deck_id", identifier, "template", req.TemplatePath != "")
	return identifier, nil
}

func (m *Manager) loadTemplate(path string) (*pptx.Presentation, error) {
	if !hasPresentationExtension(path) {
		return nil, &UnsupportedFormatError{Path: path, Err: fmt.Errorf("template must be a .pptx or .potx file")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("deckd: read template %s: %w", path, err)
	}
	pres, err := pptx.Read(data)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: path, Err: err}
	}
	return pres, nil
}

// OpenRequest parameterizes Open.
type OpenRequest struct {
	// Path locates the presentation file, resolved against the base
	// directory.
	Path string
	// Identifier is optional; a random identifier is generated when empty.
	Identifier string
}

// Open loads a presentation from a guarded path, registers it, sets it
// current, and returns its identifier.
func (m *Manager) Open(req OpenRequest) (string, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = uuid.NewString()
	}
	if _, err := m.registry.Get(identifier); err == nil {
		return "", &DuplicateIdentifierError{Identifier: identifier}
	}

	resolved, err := pathguard.Sanitize(req.Path, m.cfg.BaseDir, m.guardOpts()...)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &FileNotFoundError{Path: resolved.Path}
		}
		return "", fmt.Errorf("deckd: read %s: %w", resolved.Path, err)
	}
	pres, err := pptx.Read(data)
	if err != nil {
		return "", &UnsupportedFormatError{Path: resolved.Path, Err: err}
	}

	deck := &Deck{Identifier: identifier, SourcePath: resolved.Path, Presentation: pres}
	if err := m.registry.Insert(deck); err != nil {
		return "", err
	}
	if err := m.registry.SetCurrent(identifier); err != nil {
		return "", err
	}
	m.logger.Info("deck.opened", "deck_id", identifier, "path", resolved.Path)
	return identifier, nil
}

// SaveRequest parameterizes Save.
type SaveRequest struct {
	// Identifier addresses the deck; empty means the current deck.
	Identifier string
	// Path is the target file; empty falls back to the deck's source path.
	Path string
}

// Save writes the deck to a guarded path and returns the resolved target.
// The deck's source path is updated only after a successful write. Save is
// idempotent with respect to content.
func (m *Manager) Save(req SaveRequest) (string, error) {
	deck, err := m.registry.Get(req.Identifier)
	if err != nil {
		return "", err
	}

	var target string
	switch {
	case req.Path != "":
		resolved, err := pathguard.Sanitize(req.Path, m.cfg.BaseDir, m.guardOpts()...)
		if err != nil {
			return "", err
		}
		target = resolved.Path
	case deck.SourcePath != "":
		// The source path already passed pathguard when it was recorded;
		// re-resolve it verbatim in case intermediate directories moved.
		resolved, err := pathguard.Sanitize(deck.SourcePath, m.cfg.BaseDir, pathguard.AllowAbsolute())
		if err != nil {
			return "", err
		}
		target = resolved.Path
	default:
		return "", ErrNoTargetPath
	}

	data, err := deck.Presentation.Bytes()
	if err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	deck.SourcePath = target
	m.logger.Info("deck.saved", "deck_id", deck.Identifier, "path", target, "bytes", len(data))
	return target, nil
}

// Close removes the deck from the registry without saving; in-memory content
// is discarded. The current pointer is cleared when it referenced the closed
// deck.
func (m *Manager) Close(identifier string) error {
	deck, err := m.registry.Get(identifier)
	if err != nil {
		return err
	}
	if err := m.registry.Remove(deck.Identifier); err != nil {
		return err
	}
	m.logger.Info("deck.closed", "deck_id", deck.Identifier)
	return nil
}

// ImportBytes registers a deck parsed from an in-memory buffer, bypassing
// pathguard since no filesystem path is involved. Used by the storage
// connector after a download.
func (m *Manager) ImportBytes(data []byte, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		identifier = uuid.NewString()
	}
	if _, err := m.registry.Get(identifier); err == nil {
		return "", &DuplicateIdentifierError{Identifier: identifier}
	}
	pres, err := pptx.Read(data)
	if err != nil {
		return "", &UnsupportedFormatError{Err: err}
	}
	deck := &Deck{Identifier: identifier, Presentation: pres}
	if err := m.registry.Insert(deck); err != nil {
		return "", err
	}
	if err := m.registry.SetCurrent(identifier); err != nil {
		return "", err
	}
	m.logger.Info("deck.imported", "deck_id", identifier, "bytes", len(data))
	return identifier, nil
}

// ExportBytes serializes the deck into a .pptx buffer, bypassing pathguard.
// Used by the storage connector before an upload.
func (m *Manager) ExportBytes(identifier string) ([]byte, error) {
	deck, err := m.registry.Get(identifier)
	if err != nil {
		return nil, err
	}
	data, err := deck.Presentation.Bytes()
	if err != nil {
		return nil, fmt.Errorf("deckd: encode deck %q: %w", deck.Identifier, err)
	}
	return data, nil
}

// Deck returns the handle registered under identifier (empty for current)
// for in-place edits by tool helpers.
func (m *Manager) Deck(identifier string) (*Deck, error) {
	return m.registry.Get(identifier)
}

// TemplateInfo describes a template file.
type TemplateInfo struct {
	Path        string
	SizeBytes   int64
	SlideCount  int
	Layouts     []pptx.Layout
	Props       pptx.CoreProperties
	SlideWidth  int64
	SlideHeight int64
}

// Template resolves a template path and probes the file without registering
// a deck.
func (m *Manager) Template(path string) (TemplateInfo, error) {
	resolved, err := pathguard.Sanitize(path, m.cfg.TemplateDir, m.guardOpts()...)
	if err != nil {
		return TemplateInfo{}, err
	}
	info, err := os.Stat(resolved.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return TemplateInfo{}, &TemplateNotFoundError{Path: resolved.Path}
		}
		return TemplateInfo{}, fmt.Errorf("deckd: stat template %s: %w", resolved.Path, err)
	}
	pres, err := m.loadTemplate(resolved.Path)
	if err != nil {
		return TemplateInfo{}, err
	}
	cx, cy := pres.SlideSize()
	return TemplateInfo{
		Path:        resolved.Path,
		SizeBytes:   info.Size(),
		SlideCount:  pres.SlideCount(),
		Layouts:     pres.Layouts(),
		Props:       pres.Props(),
		SlideWidth:  cx,
		SlideHeight: cy,
	}, nil
}

func (m *Manager) guardOpts() []pathguard.Option {
	if m.cfg.AllowAbsolutePaths {
		return []pathguard.Option{pathguard.AllowAbsolute()}
	}
	return nil
}

func hasPresentationExtension(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".pptx") || strings.HasSuffix(lower, ".potx")
}
