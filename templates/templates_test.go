package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pkt.systems/deckd/pathguard"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestInventoryListSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "corporate.pptx"))
	writeFile(t, filepath.Join(root, "brand", "light.potx"))
	writeFile(t, filepath.Join(root, "README.md"))

	inv, err := NewInventory(root, nil)
	if err != nil {
		t.Fatalf("new inventory: %v", err)
	}
	entries := inv.List()
	if len(entries) != 2 {
		t.Fatalf("expected 2 templates, got %d: %+v", len(entries), entries)
	}
	if entries[0].Name != "brand/light.potx" || entries[1].Name != "corporate.pptx" {
		t.Fatalf("unexpected order %+v", entries)
	}
}

func TestInventoryResolve(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "corporate.pptx"))

	inv, err := NewInventory(root, nil)
	if err != nil {
		t.Fatalf("new inventory: %v", err)
	}
	entry, err := inv.Resolve("corporate.pptx")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if entry.Path != filepath.Join(root, "corporate.pptx") {
		t.Fatalf("unexpected path %q", entry.Path)
	}
	if _, err := inv.Resolve("missing.pptx"); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestInventoryResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "escape.pptx")
	writeFile(t, outside)
	defer os.Remove(outside)

	inv, err := NewInventory(root, nil)
	if err != nil {
		t.Fatalf("new inventory: %v", err)
	}
	var traversal *pathguard.TraversalError
	if _, err := inv.Resolve("../escape.pptx"); !errors.As(err, &traversal) {
		t.Fatalf("expected *pathguard.TraversalError, got %v", err)
	}
}

func TestInventoryResolveRescansForNewFiles(t *testing.T) {
	root := t.TempDir()
	inv, err := NewInventory(root, nil)
	if err != nil {
		t.Fatalf("new inventory: %v", err)
	}
	if len(inv.List()) != 0 {
		t.Fatalf("expected empty inventory, got %+v", inv.List())
	}
	writeFile(t, filepath.Join(root, "late.pptx"))
	entry, err := inv.Resolve("late.pptx")
	if err != nil {
		t.Fatalf("resolve after add: %v", err)
	}
	if entry.Name != "late.pptx" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestInventoryWatchClose(t *testing.T) {
	root := t.TempDir()
	inv, err := NewInventory(root, nil)
	if err != nil {
		t.Fatalf("new inventory: %v", err)
	}
	if err := inv.Watch(); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := inv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Close is idempotent.
	if err := inv.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
