package deckd

import (
	"errors"
	"fmt"
)

// Sentinel failures shared across lifecycle operations.
var (
	// ErrNoCurrentDeck indicates an operation addressed the current deck
	// while no deck is selected.
	ErrNoCurrentDeck = errors.New("deckd: no deck is currently selected")
	// ErrNoTargetPath indicates a save with neither an explicit path nor a
	// recorded source path.
	ErrNoTargetPath = errors.New("deckd: no target path for save")
)

// DuplicateIdentifierError reports an insert with an identifier that is
// already registered.
type DuplicateIdentifierError struct {
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("deckd: deck %q already exists", e.Identifier)
}

// UnknownIdentifierError reports an identifier with no registered deck.
type UnknownIdentifierError struct {
	Identifier string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("deckd: unknown deck %q", e.Identifier)
}

// TemplateNotFoundError reports a create from a template path that does not
// exist.
type TemplateNotFoundError struct {
	Path string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("deckd: template not found: %s", e.Path)
}

// FileNotFoundError reports an open of a path that does not exist.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("deckd: file not found: %s", e.Path)
}

// UnsupportedFormatError reports a file or buffer that is not a PowerPoint
// package.
type UnsupportedFormatError struct {
	Path string
	Err  error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("deckd: unsupported format: %v", e.Err)
	}
	return fmt.Sprintf("deckd: unsupported format %s: %v", e.Path, e.Err)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

// WriteError reports an I/O failure while persisting a deck. Reported, not
// retried.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("deckd: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
