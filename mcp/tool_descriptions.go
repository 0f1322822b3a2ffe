package mcp

import (
	"fmt"
	"strings"
)

const (
	toolDeckCreate        = "deck.create"
	toolDeckOpen          = "deck.open"
	toolDeckSave          = "deck.save"
	toolDeckClose         = "deck.close"
	toolDeckList          = "deck.list"
	toolDeckSwitch        = "deck.switch"
	toolDeckInfo          = "deck.info"
	toolDeckPropertiesSet = "deck.properties.set"
	toolDeckSlideAdd      = "deck.slide.add"

	toolTemplateList = "template.list"
	toolTemplateInfo = "template.info"

	toolStorageConfigure   = "storage.configure"
	toolStorageConnections = "storage.connections"
	toolStorageUpload      = "storage.upload"
	toolStorageDownload    = "storage.download"
	toolStorageList        = "storage.list"
	toolStorageDelete      = "storage.delete"
	toolStorageStat        = "storage.stat"
)

var mcpToolNames = []string{
	toolDeckCreate,
	toolDeckOpen,
	toolDeckSave,
	toolDeckClose,
	toolDeckList,
	toolDeckSwitch,
	toolDeckInfo,
	toolDeckPropertiesSet,
	toolDeckSlideAdd,
	toolTemplateList,
	toolTemplateInfo,
	toolStorageConfigure,
	toolStorageConnections,
	toolStorageUpload,
	toolStorageDownload,
	toolStorageList,
	toolStorageDelete,
	toolStorageStat,
}

type toolContract struct {
	Purpose  string
	Requires string
	Effects  string
	Next     string
}

func formatToolDescription(spec toolContract) string {
	return strings.Join([]string{
		"Purpose: " + spec.Purpose,
		"Requires: " + spec.Requires,
		"Effects: " + spec.Effects,
		"Next: " + spec.Next,
	}, "\n")
}

const deckIDDefaultLine = "`deck_id` is optional and defaults to the current deck."

func buildToolDescriptions(cfg Config) map[string]string {
	aspect := strings.TrimSpace(cfg.DefaultAspectRatio)
	if aspect == "" {
		aspect = "16:9"
	}

	return map[string]string{
		toolDeckCreate: formatToolDescription(toolContract{
			Purpose:  "Create a new presentation deck, blank or seeded from a template, and make it the current deck.",
			Requires: fmt.Sprintf("All inputs optional. `deck_id` must be unused; a random one is generated when empty. `template` names a .pptx/.potx file under the template directory. `aspect_ratio` (4:3, 16:9, 16:10, a4) defaults to %q and only applies to blank decks.", aspect),
			Effects:  "Registers the deck in memory and returns its `deck_id`. Nothing touches the filesystem until deck.save.",
			Next:     "call `deck.slide.add` or `deck.properties.set`, then `deck.save` or `storage.upload`.",
		}),
		toolDeckOpen: formatToolDescription(toolContract{
			Purpose:  "Load a presentation file into memory and make it the current deck.",
			Requires: "`path` is required and resolves inside the configured base directory. `deck_id` is optional and must be unused.",
			Effects:  "Registers the deck and records the resolved path as its save target.",
			Next:     "edit with deck tools, then `deck.save` to persist changes.",
		}),
		toolDeckSave: formatToolDescription(toolContract{
			Purpose:  "Write a deck to disk as .pptx.",
			Requires: deckIDDefaultLine + " `path` is optional; it falls back to the path the deck was opened from or last saved to.",
			Effects:  "Writes the file and updates the deck's save target. The deck stays open; saving is idempotent.",
			Next:     "continue editing, `deck.close` when done, or `storage.upload` to push the deck to a bucket.",
		}),
		toolDeckClose: formatToolDescription(toolContract{
			Purpose:  "Remove a deck from memory.",
			Requires: deckIDDefaultLine,
			Effects:  "Discards unsaved changes; nothing is written. The current pointer is cleared when it referenced the closed deck.",
			Next:     "call `deck.save` first if the content must survive.",
		}),
		toolDeckList: formatToolDescription(toolContract{
			Purpose:  "List open decks and show which one is current.",
			Requires: "No inputs.",
			Effects:  "Read-only.",
			Next:     "use `deck.switch` to change the current deck.",
		}),
		toolDeckSwitch: formatToolDescription(toolContract{
			Purpose:  "Point the current-deck pointer at another open deck.",
			Requires: "`deck_id` is required and must name an open deck.",
			Effects:  "Subsequent tools called without `deck_id` operate on this deck.",
			Next:     "call any deck tool without `deck_id`.",
		}),
		toolDeckInfo: formatToolDescription(toolContract{
			Purpose:  "Describe a deck: slide count, slide size, source path, and core document properties.",
			Requires: deckIDDefaultLine,
			Effects:  "Read-only.",
			Next:     "use the slide count to target `deck.slide.add` output.",
		}),
		toolDeckPropertiesSet: formatToolDescription(toolContract{
			Purpose:  "Set core document properties (title, subject, author, keywords, comments).",
			Requires: deckIDDefaultLine + " Empty fields keep their existing values.",
			Effects:  "Updates the in-memory deck; persists on the next save or upload.",
			Next:     "`deck.info` to confirm, then `deck.save`.",
		}),
		toolDeckSlideAdd: formatToolDescription(toolContract{
			Purpose:  "Append a slide with a title and optional body text.",
			Requires: deckIDDefaultLine + " `title` and `body` are both optional; body lines become separate paragraphs.",
			Effects:  "Appends to the in-memory deck and returns the new slide index.",
			Next:     "add more slides or `deck.save`.",
		}),
		toolTemplateList: formatToolDescription(toolContract{
			Purpose:  "List the .pptx/.potx templates available under the template directory.",
			Requires: "No inputs.",
			Effects:  "Read-only; the inventory refreshes automatically when files change.",
			Next:     "pass a listed name as `template` to `deck.create` or `template.info`.",
		}),
		toolTemplateInfo: formatToolDescription(toolContract{
			Purpose:  "Probe a template file: slide count, layouts, slide size, and properties.",
			Requires: "`template` is required and resolves inside the template directory.",
			Effects:  "Read-only; no deck is registered.",
			Next:     "`deck.create` with the same `template` value.",
		}),
		toolStorageConfigure: formatToolDescription(toolContract{
			Purpose:  "Register or replace a named S3 connection for the storage tools.",
			Requires: "`connection`, `backend` (minio or aws), and `bucket` are required. `region` is required for the aws backend. Credentials are optional; the environment credential chain is used when omitted.",
			Effects:  "Stores the connection in memory for this process. Credentials are never echoed back.",
			Next:     "`storage.upload` or `storage.download` using the connection name.",
		}),
		toolStorageConnections: formatToolDescription(toolContract{
			Purpose:  "List configured storage connections with secrets redacted.",
			Requires: "No inputs.",
			Effects:  "Read-only.",
			Next:     "`storage.configure` to add or replace a connection.",
		}),
		toolStorageUpload: formatToolDescription(toolContract{
			Purpose:  "Serialize a deck to .pptx and upload it to a bucket.",
			Requires: "`connection` and `key` are required. " + deckIDDefaultLine,
			Effects:  "Overwrites the object under `key`. The deck's local save target is unchanged.",
			Next:     "`storage.stat` to verify, or `storage.list` to browse the bucket.",
		}),
		toolStorageDownload: formatToolDescription(toolContract{
			Purpose:  "Download a .pptx object and open it as a new deck.",
			Requires: "`connection` and `key` are required. `deck_id` is optional and must be unused.",
			Effects:  "Registers the downloaded deck and makes it current. It has no local save target until deck.save with an explicit path.",
			Next:     "edit with deck tools, then `deck.save` or `storage.upload`.",
		}),
		toolStorageList: formatToolDescription(toolContract{
			Purpose:  "List objects in a configured bucket.",
			Requires: "`connection` is required. `prefix` is optional.",
			Effects:  "Read-only.",
			Next:     "`storage.download` a listed key.",
		}),
		toolStorageDelete: formatToolDescription(toolContract{
			Purpose:  "Delete an object from a configured bucket.",
			Requires: "`connection` and `key` are required.",
			Effects:  "Removes the object. Open decks downloaded from it are unaffected.",
			Next:     "`storage.list` to confirm.",
		}),
		toolStorageStat: formatToolDescription(toolContract{
			Purpose:  "Fetch object metadata (size, etag, content type, last modified) without downloading.",
			Requires: "`connection` and `key` are required.",
			Effects:  "Read-only.",
			Next:     "`storage.download` when the object looks right.",
		}),
	}
}
