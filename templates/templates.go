// Package templates maintains an inventory of presentation templates under a
// configured directory. The inventory is rescanned lazily and refreshed by a
// filesystem watcher, so template listings stay current without restarting
// the server.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/deckd/pathguard"
	"pkt.systems/pslog"
)

// Entry describes one template file relative to the inventory root.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime int64
}

// Inventory scans a directory tree for .pptx and .potx files. All lookups go
// through pathguard so a template name can never escape the root.
type Inventory struct {
	root   string
	logger pslog.Logger

	mu      sync.Mutex
	entries map[string]Entry
	watcher *fsnotify.Watcher
	stop    chan struct{}
	once    sync.Once
}

// NewInventory scans root once and returns the inventory. The root must
// exist; create it before constructing the inventory.
func NewInventory(root string, logger pslog.Logger) (*Inventory, error) {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("templates: resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("templates: stat root %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates: root %q is not a directory", abs)
	}
	inv := &Inventory{root: abs, logger: logger, stop: make(chan struct{})}
	if err := inv.rescan(); err != nil {
		return nil, err
	}
	return inv, nil
}

// Root returns the absolute inventory root.
func (inv *Inventory) Root() string {
	return inv.root
}

// Refresh rescans the root immediately.
func (inv *Inventory) Refresh() error {
	return inv.rescan()
}

// List returns the known templates sorted by name.
func (inv *Inventory) List() []Entry {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]Entry, 0, len(inv.entries))
	for _, entry := range inv.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve sanitizes name against the inventory root and returns the entry.
// Unknown names trigger a rescan before failing, covering files added since
// the last watcher event.
func (inv *Inventory) Resolve(name string) (Entry, error) {
	resolved, err := pathguard.Sanitize(name, inv.root)
	if err != nil {
		return Entry{}, err
	}
	rel, err := filepath.Rel(inv.root, resolved.Path)
	if err != nil {
		return Entry{}, fmt.Errorf("templates: relativize %q: %w", resolved.Path, err)
	}
	key := filepath.ToSlash(rel)

	inv.mu.Lock()
	entry, ok := inv.entries[key]
	inv.mu.Unlock()
	if ok {
		return entry, nil
	}
	if err := inv.rescan(); err != nil {
		return Entry{}, err
	}
	inv.mu.Lock()
	entry, ok = inv.entries[key]
	inv.mu.Unlock()
	if !ok {
		return Entry{}, fmt.Errorf("templates: %q not found under %s", name, inv.root)
	}
	return entry, nil
}

// Watch starts a filesystem watcher on the root and rescans on changes.
// Subdirectories added later are picked up by the rescan walking the whole
// tree. Call Close to stop.
func (inv *Inventory) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("templates: create watcher: %w", err)
	}
	if err := watcher.Add(inv.root); err != nil {
		watcher.Close()
		return fmt.Errorf("templates: watch %q: %w", inv.root, err)
	}
	inv.mu.Lock()
	inv.watcher = watcher
	inv.mu.Unlock()
	go inv.run(watcher)
	return nil
}

// Close stops the watcher, if running.
func (inv *Inventory) Close() error {
	inv.once.Do(func() {
		close(inv.stop)
		inv.mu.Lock()
		if inv.watcher != nil {
			inv.watcher.Close()
		}
		inv.mu.Unlock()
	})
	return nil
}

func (inv *Inventory) run(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-inv.stop:
			return
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			if err := inv.rescan(); err != nil {
				inv.logger.Warn("templates.rescan_failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			inv.logger.Warn("templates.watch_error", "error", err)
		}
	}
}

func (inv *Inventory) rescan() error {
	entries := make(map[string]Entry)
	err := filepath.WalkDir(inv.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isTemplateFile(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(inv.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		entries[name] = Entry{
			Name:    name,
			Path:    p,
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("templates: scan %q: %w", inv.root, err)
	}
	inv.mu.Lock()
	inv.entries = entries
	inv.mu.Unlock()
	return nil
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx", ".potx":
		return true
	}
	return false
}
