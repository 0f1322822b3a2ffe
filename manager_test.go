package deckd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pkt.systems/deckd/pathguard"
	"pkt.systems/deckd/pptx"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "templates"), 0o755); err != nil {
		t.Fatalf("mkdir templates: %v", err)
	}
	m, err := NewManager(Config{BaseDir: base}, NewRegistry(), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestManagerCreateGeneratesUniqueIdentifiers(t *testing.T) {
	m := newTestManager(t)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		id, err := m.Create(CreateRequest{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if id == "" {
			t.Fatal("expected generated identifier")
		}
		if seen[id] {
			t.Fatalf("identifier %q generated twice", id)
		}
		seen[id] = true
	}
	if m.Registry().Len() != 5 {
		t.Fatalf("expected 5 decks, got %d", m.Registry().Len())
	}
}

func TestManagerCreateSetsCurrent(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Create(CreateRequest{Identifier: "pitch"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "pitch" {
		t.Fatalf("expected caller identifier preserved, got %q", id)
	}
	deck, err := m.Deck("")
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if deck.Identifier != "pitch" {
		t.Fatalf("expected current deck pitch, got %q", deck.Identifier)
	}
}

func TestManagerCreateDuplicateIdentifier(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Create(CreateRequest{Identifier: "pitch"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := m.Create(CreateRequest{Identifier: "pitch"})
	var dup *DuplicateIdentifierError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateIdentifierError, got %v", err)
	}
}

func TestManagerCreateWithAspectRatio(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Create(CreateRequest{Identifier: "wide", AspectRatio: "4:3"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	deck, err := m.Deck("wide")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	cx, _ := deck.Presentation.SlideSize()
	if cx != 10*pptx.EMUPerInch {
		t.Fatalf("expected 4:3 width, got %d", cx)
	}
	if _, err := m.Create(CreateRequest{AspectRatio: "9:32"}); err == nil {
		t.Fatal("expected error for unknown aspect ratio")
	}
}

func TestManagerCreateFromTemplate(t *testing.T) {
	m := newTestManager(t)
	tpl := pptx.New(pptx.Aspect16x9)
	tpl.AddSlide("Template Slide", "boilerplate")
	data, err := tpl.Bytes()
	if err != nil {
		t.Fatalf("template bytes: %v", err)
	}
	tplPath := filepath.Join(m.Config().TemplateDir, "base.pptx")
	if err := os.WriteFile(tplPath, data, 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	id, err := m.Create(CreateRequest{TemplatePath: "base.pptx"})
	if err != nil {
		t.Fatalf("create from template: %v", err)
	}
	deck, err := m.Deck(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if deck.Presentation.SlideCount() != 1 {
		t.Fatalf("expected template slide carried over, got %d slides", deck.Presentation.SlideCount())
	}
}

func TestManagerCreateTemplateNotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(CreateRequest{TemplatePath: "missing.pptx"})
	var notFound *TemplateNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *TemplateNotFoundError, got %v", err)
	}
}

func TestManagerCreateTemplateWrongExtension(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(m.Config().TemplateDir, "notes.txt")
	if err := os.WriteFile(path, []byte("text"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := m.Create(CreateRequest{TemplatePath: "notes.txt"})
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedFormatError, got %v", err)
	}
}

func TestManagerCreateTemplateTraversalRejected(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(CreateRequest{TemplatePath: "../../../etc/passwd"})
	var traversal *pathguard.TraversalError
	if !errors.As(err, &traversal) {
		t.Fatalf("expected *pathguard.TraversalError, got %v", err)
	}
	if m.Registry().Len() != 0 {
		t.Fatal("failed create must not register a deck")
	}
}

func TestManagerOpenSaveRoundTrip(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Create(CreateRequest{Identifier: "deck"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	deck, err := m.Deck(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	deck.Presentation.AddSlide("Hello", "World")

	saved, err := m.Save(SaveRequest{Identifier: id, Path: "out/deck.pptx"})
	if err == nil {
		t.Fatalf("expected write error for missing directory, got path %s", saved)
	}
	if err := os.MkdirAll(filepath.Join(m.Config().BaseDir, "out"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	saved, err = m.Save(SaveRequest{Identifier: id, Path: "out/deck.pptx"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if deck.SourcePath != saved {
		t.Fatalf("expected source path updated to %q, got %q", saved, deck.SourcePath)
	}

	opened, err := m.Open(OpenRequest{Path: "out/deck.pptx", Identifier: "copy"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	copyDeck, err := m.Deck(opened)
	if err != nil {
		t.Fatalf("get copy: %v", err)
	}
	if copyDeck.Presentation.SlideCount() != 1 {
		t.Fatalf("expected 1 slide after reopen, got %d", copyDeck.Presentation.SlideCount())
	}
	if copyDeck.SourcePath != saved {
		t.Fatalf("expected source path %q, got %q", saved, copyDeck.SourcePath)
	}

	// Save without an explicit path reuses the source path.
	if _, err := m.Save(SaveRequest{Identifier: opened}); err != nil {
		t.Fatalf("save to source path: %v", err)
	}
}

func TestManagerSaveWithoutTargetPath(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Create(CreateRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = m.Save(SaveRequest{Identifier: id})
	if !errors.Is(err, ErrNoTargetPath) {
		t.Fatalf("expected ErrNoTargetPath, got %v", err)
	}
	deck, err := m.Deck(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if deck.SourcePath != "" {
		t.Fatal("failed save must not mutate the handle")
	}
}

func TestManagerSaveTraversalRejected(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Create(CreateRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = m.Save(SaveRequest{Identifier: id, Path: "../../../tmp/evil.pptx"})
	var traversal *pathguard.TraversalError
	if !errors.As(err, &traversal) {
		t.Fatalf("expected *pathguard.TraversalError, got %v", err)
	}
}

func TestManagerOpenMissingFile(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Open(OpenRequest{Path: "absent.pptx"})
	var notFound *FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *FileNotFoundError, got %v", err)
	}
}

func TestManagerOpenUnsupportedFormat(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(m.Config().BaseDir, "bogus.pptx")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := m.Open(OpenRequest{Path: "bogus.pptx"})
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedFormatError, got %v", err)
	}
	if !errors.Is(err, pptx.ErrNotPresentation) {
		t.Fatalf("expected wrapped pptx.ErrNotPresentation, got %v", err)
	}
}

func TestManagerCloseDiscardsWithoutSaving(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Create(CreateRequest{Identifier: "scratch"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	deck, err := m.Deck(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	deck.Presentation.AddSlide("unsaved", "")
	if err := m.Close(""); err != nil {
		t.Fatalf("close current: %v", err)
	}
	if _, err := m.Deck(""); !errors.Is(err, ErrNoCurrentDeck) {
		t.Fatalf("expected ErrNoCurrentDeck after close, got %v", err)
	}
	if m.Registry().Len() != 0 {
		t.Fatal("expected empty registry after close")
	}
}

func TestManagerImportExportRoundTrip(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Create(CreateRequest{Identifier: "origin"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	deck, err := m.Deck(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	deck.Presentation.AddSlide("Roadmap", "H1\nH2")

	data, err := m.ExportBytes(id)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	imported, err := m.ImportBytes(data, "clone")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	clone, err := m.Deck(imported)
	if err != nil {
		t.Fatalf("get clone: %v", err)
	}
	if clone.Presentation.SlideCount() != deck.Presentation.SlideCount() {
		t.Fatalf("slide count mismatch: %d vs %d", clone.Presentation.SlideCount(), deck.Presentation.SlideCount())
	}
	got := clone.Presentation.Slides()
	if got[0].Title != "Roadmap" || got[0].Body != "H1\nH2" {
		t.Fatalf("content mismatch after round trip: %+v", got[0])
	}
	if clone.SourcePath != "" {
		t.Fatal("imported deck must have no source path")
	}
}

func TestManagerImportRejectsGarbage(t *testing.T) {
	m := newTestManager(t)
	_, err := m.ImportBytes([]byte("garbage"), "")
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedFormatError, got %v", err)
	}
	if m.Registry().Len() != 0 {
		t.Fatal("failed import must not register a deck")
	}
}

func TestManagerTemplateInfo(t *testing.T) {
	m := newTestManager(t)
	tpl := pptx.New(pptx.Aspect16x9)
	tpl.AddSlide("Cover", "")
	tpl.SetProps(pptx.CoreProperties{Title: "Corporate"})
	data, err := tpl.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if err := os.WriteFile(filepath.Join(m.Config().TemplateDir, "corp.pptx"), data, 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	info, err := m.Template("corp.pptx")
	if err != nil {
		t.Fatalf("template info: %v", err)
	}
	if info.SlideCount != 1 {
		t.Fatalf("expected 1 slide, got %d", info.SlideCount)
	}
	if info.Props.Title != "Corporate" {
		t.Fatalf("expected template title Corporate, got %q", info.Props.Title)
	}
	if info.SizeBytes != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), info.SizeBytes)
	}
}
