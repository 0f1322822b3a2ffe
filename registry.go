package deckd

import (
	"sort"
	"sync"

	"pkt.systems/deckd/pptx"
)

// Deck is a loaded presentation handle. Decks are owned by the Registry and
// addressed by identifier; callers must not retain long-lived references.
type Deck struct {
	// Identifier is the opaque registry key, stable for the deck's
	// lifetime.
	Identifier string

	// SourcePath is the sanitized absolute path the deck was opened from
	// or last saved to. Empty for decks that never touched the
	// filesystem.
	SourcePath string

	// Presentation is the mutable in-memory document.
	Presentation *pptx.Presentation
}

// Registry is the process-wide identifier-to-deck table plus the current
// pointer. One Registry is constructed at startup and injected into the
// Manager; a single mutex makes insert/get/remove/set-current atomic with
// respect to one another.
type Registry struct {
	mu      sync.Mutex
	decks   map[string]*Deck
	current string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decks: make(map[string]*Deck)}
}

// Insert registers a deck under its identifier and fails with
// *DuplicateIdentifierError when the identifier is taken. The prior deck is
// never implicitly discarded.
func (r *Registry) Insert(deck *Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decks[deck.Identifier]; exists {
		return &DuplicateIdentifierError{Identifier: deck.Identifier}
	}
	r.decks[deck.Identifier] = deck
	return nil
}

// Get returns the deck registered under identifier, or the current deck when
// identifier is empty. Fails with ErrNoCurrentDeck when no deck is selected,
// or *UnknownIdentifierError when the identifier has no entry.
func (r *Registry) Get(identifier string) (*Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identifier == "" {
		if r.current == "" {
			return nil, ErrNoCurrentDeck
		}
		identifier = r.current
	}
	deck, ok := r.decks[identifier]
	if !ok {
		return nil, &UnknownIdentifierError{Identifier: identifier}
	}
	return deck, nil
}

// Remove deletes the deck registered under identifier, clearing the current
// pointer when it referenced the removed deck.
func (r *Registry) Remove(identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decks[identifier]; !ok {
		return &UnknownIdentifierError{Identifier: identifier}
	}
	delete(r.decks, identifier)
	if r.current == identifier {
		r.current = ""
	}
	return nil
}

// SetCurrent points the current pointer at a registered deck.
func (r *Registry) SetCurrent(identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decks[identifier]; !ok {
		return &UnknownIdentifierError{Identifier: identifier}
	}
	r.current = identifier
	return nil
}

// Current returns the current pointer, empty when unset.
func (r *Registry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// List returns the registered identifiers, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.decks))
	for id := range r.decks {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered decks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.decks)
}
