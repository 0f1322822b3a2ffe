package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/deckd"
	"pkt.systems/deckd/pptx"
)

type deckCreateInput struct {
	DeckID      string `json:"deck_id,omitempty" jsonschema:"Identifier for the new deck (generated when empty)"`
	Template    string `json:"template,omitempty" jsonschema:"Template file name under the template directory (.pptx or .potx)"`
	AspectRatio string `json:"aspect_ratio,omitempty" jsonschema:"Aspect ratio for blank decks: 4:3, 16:9, 16:10, or a4"`
}

type deckCreateOutput struct {
	DeckID      string `json:"deck_id"`
	SlideCount  int    `json:"slide_count"`
	SlideWidth  int64  `json:"slide_width_emu"`
	SlideHeight int64  `json:"slide_height_emu"`
}

func (s *server) handleDeckCreateTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckCreateInput) (*mcpsdk.CallToolResult, deckCreateOutput, error) {
	id, err := s.manager.Create(deckd.CreateRequest{
		Identifier:   input.DeckID,
		TemplatePath: strings.TrimSpace(input.Template),
		AspectRatio:  strings.TrimSpace(input.AspectRatio),
	})
	if err != nil {
		return nil, deckCreateOutput{}, err
	}
	deck, err := s.manager.Deck(id)
	if err != nil {
		return nil, deckCreateOutput{}, err
	}
	cx, cy := deck.Presentation.SlideSize()
	return nil, deckCreateOutput{
		DeckID:      id,
		SlideCount:  deck.Presentation.SlideCount(),
		SlideWidth:  cx,
		SlideHeight: cy,
	}, nil
}

type deckOpenInput struct {
	Path   string `json:"path" jsonschema:"Presentation file to open, resolved inside the base directory"`
	DeckID string `json:"deck_id,omitempty" jsonschema:"Identifier for the opened deck (generated when empty)"`
}

type deckOpenOutput struct {
	DeckID     string `json:"deck_id"`
	Path       string `json:"path"`
	SlideCount int    `json:"slide_count"`
}

func (s *server) handleDeckOpenTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckOpenInput) (*mcpsdk.CallToolResult, deckOpenOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, deckOpenOutput{}, fmt.Errorf("path is required")
	}
	id, err := s.manager.Open(deckd.OpenRequest{Path: input.Path, Identifier: input.DeckID})
	if err != nil {
		return nil, deckOpenOutput{}, err
	}
	deck, err := s.manager.Deck(id)
	if err != nil {
		return nil, deckOpenOutput{}, err
	}
	return nil, deckOpenOutput{
		DeckID:     id,
		Path:       deck.SourcePath,
		SlideCount: deck.Presentation.SlideCount(),
	}, nil
}

type deckSaveInput struct {
	DeckID string `json:"deck_id,omitempty" jsonschema:"Deck to save (defaults to the current deck)"`
	Path   string `json:"path,omitempty" jsonschema:"Target file (defaults to the deck's source path)"`
}

type deckSaveOutput struct {
	DeckID string `json:"deck_id"`
	Path   string `json:"path"`
}

func (s *server) handleDeckSaveTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckSaveInput) (*mcpsdk.CallToolResult, deckSaveOutput, error) {
	deck, err := s.manager.Deck(input.DeckID)
	if err != nil {
		return nil, deckSaveOutput{}, err
	}
	target, err := s.manager.Save(deckd.SaveRequest{Identifier: deck.Identifier, Path: input.Path})
	if err != nil {
		return nil, deckSaveOutput{}, err
	}
	return nil, deckSaveOutput{DeckID: deck.Identifier, Path: target}, nil
}

type deckCloseInput struct {
	DeckID string `json:"deck_id,omitempty" jsonschema:"Deck to close (defaults to the current deck)"`
}

type deckCloseOutput struct {
	DeckID string `json:"deck_id"`
	Closed bool   `json:"closed"`
}

func (s *server) handleDeckCloseTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckCloseInput) (*mcpsdk.CallToolResult, deckCloseOutput, error) {
	deck, err := s.manager.Deck(input.DeckID)
	if err != nil {
		return nil, deckCloseOutput{}, err
	}
	if err := s.manager.Close(deck.Identifier); err != nil {
		return nil, deckCloseOutput{}, err
	}
	return nil, deckCloseOutput{DeckID: deck.Identifier, Closed: true}, nil
}

type deckSummary struct {
	DeckID     string `json:"deck_id"`
	SourcePath string `json:"source_path,omitempty"`
	SlideCount int    `json:"slide_count"`
	Current    bool   `json:"current"`
}

type deckListOutput struct {
	Decks   []deckSummary `json:"decks"`
	Current string        `json:"current,omitempty"`
}

func (s *server) handleDeckListTool(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, deckListOutput, error) {
	registry := s.manager.Registry()
	current := registry.Current()
	out := deckListOutput{Current: current, Decks: make([]deckSummary, 0, registry.Len())}
	for _, id := range registry.List() {
		deck, err := registry.Get(id)
		if err != nil {
			continue
		}
		out.Decks = append(out.Decks, deckSummary{
			DeckID:     deck.Identifier,
			SourcePath: deck.SourcePath,
			SlideCount: deck.Presentation.SlideCount(),
			Current:    deck.Identifier == current,
		})
	}
	return nil, out, nil
}

type deckSwitchInput struct {
	DeckID string `json:"deck_id" jsonschema:"Deck to make current"`
}

type deckSwitchOutput struct {
	DeckID string `json:"deck_id"`
}

func (s *server) handleDeckSwitchTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckSwitchInput) (*mcpsdk.CallToolResult, deckSwitchOutput, error) {
	id := strings.TrimSpace(input.DeckID)
	if id == "" {
		return nil, deckSwitchOutput{}, fmt.Errorf("deck_id is required")
	}
	if err := s.manager.Registry().SetCurrent(id); err != nil {
		return nil, deckSwitchOutput{}, err
	}
	return nil, deckSwitchOutput{DeckID: id}, nil
}

type deckProperties struct {
	Title    string `json:"title,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Author   string `json:"author,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Comments string `json:"comments,omitempty"`
}

type deckInfoInput struct {
	DeckID string `json:"deck_id,omitempty" jsonschema:"Deck to describe (defaults to the current deck)"`
}

type deckInfoOutput struct {
	DeckID      string         `json:"deck_id"`
	SourcePath  string         `json:"source_path,omitempty"`
	SlideCount  int            `json:"slide_count"`
	SlideWidth  int64          `json:"slide_width_emu"`
	SlideHeight int64          `json:"slide_height_emu"`
	Layouts     []layoutEntry  `json:"layouts,omitempty"`
	Properties  deckProperties `json:"properties"`
	Current     bool           `json:"current"`
}

type layoutEntry struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Placeholders int    `json:"placeholders"`
}

func (s *server) handleDeckInfoTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckInfoInput) (*mcpsdk.CallToolResult, deckInfoOutput, error) {
	deck, err := s.manager.Deck(input.DeckID)
	if err != nil {
		return nil, deckInfoOutput{}, err
	}
	cx, cy := deck.Presentation.SlideSize()
	return nil, deckInfoOutput{
		DeckID:      deck.Identifier,
		SourcePath:  deck.SourcePath,
		SlideCount:  deck.Presentation.SlideCount(),
		SlideWidth:  cx,
		SlideHeight: cy,
		Layouts:     layoutEntries(deck.Presentation.Layouts()),
		Properties:  propertiesOut(deck.Presentation.Props()),
		Current:     deck.Identifier == s.manager.Registry().Current(),
	}, nil
}

type deckPropertiesSetInput struct {
	DeckID   string `json:"deck_id,omitempty" jsonschema:"Deck to update (defaults to the current deck)"`
	Title    string `json:"title,omitempty" jsonschema:"Document title (empty keeps the existing value)"`
	Subject  string `json:"subject,omitempty" jsonschema:"Document subject (empty keeps the existing value)"`
	Author   string `json:"author,omitempty" jsonschema:"Document author (empty keeps the existing value)"`
	Keywords string `json:"keywords,omitempty" jsonschema:"Document keywords (empty keeps the existing value)"`
	Comments string `json:"comments,omitempty" jsonschema:"Document comments (empty keeps the existing value)"`
}

type deckPropertiesSetOutput struct {
	DeckID     string         `json:"deck_id"`
	Properties deckProperties `json:"properties"`
}

func (s *server) handleDeckPropertiesSetTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckPropertiesSetInput) (*mcpsdk.CallToolResult, deckPropertiesSetOutput, error) {
	deck, err := s.manager.Deck(input.DeckID)
	if err != nil {
		return nil, deckPropertiesSetOutput{}, err
	}
	props := deck.Presentation.Props()
	if input.Title != "" {
		props.Title = input.Title
	}
	if input.Subject != "" {
		props.Subject = input.Subject
	}
	if input.Author != "" {
		props.Creator = input.Author
	}
	if input.Keywords != "" {
		props.Keywords = input.Keywords
	}
	if input.Comments != "" {
		props.Description = input.Comments
	}
	deck.Presentation.SetProps(props)
	return nil, deckPropertiesSetOutput{
		DeckID:     deck.Identifier,
		Properties: propertiesOut(deck.Presentation.Props()),
	}, nil
}

type deckSlideAddInput struct {
	DeckID string `json:"deck_id,omitempty" jsonschema:"Deck to append to (defaults to the current deck)"`
	Title  string `json:"title,omitempty" jsonschema:"Slide title text"`
	Body   string `json:"body,omitempty" jsonschema:"Slide body text; lines become separate paragraphs"`
}

type deckSlideAddOutput struct {
	DeckID     string `json:"deck_id"`
	SlideIndex int    `json:"slide_index"`
	SlideCount int    `json:"slide_count"`
}

func (s *server) handleDeckSlideAddTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deckSlideAddInput) (*mcpsdk.CallToolResult, deckSlideAddOutput, error) {
	deck, err := s.manager.Deck(input.DeckID)
	if err != nil {
		return nil, deckSlideAddOutput{}, err
	}
	index := deck.Presentation.AddSlide(input.Title, input.Body)
	return nil, deckSlideAddOutput{
		DeckID:     deck.Identifier,
		SlideIndex: index,
		SlideCount: deck.Presentation.SlideCount(),
	}, nil
}

type templateEntry struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Size      string `json:"size"`
}

type templateListOutput struct {
	Templates []templateEntry `json:"templates"`
}

func (s *server) handleTemplateListTool(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, templateListOutput, error) {
	if err := s.inventory.Refresh(); err != nil {
		return nil, templateListOutput{}, err
	}
	entries := s.inventory.List()
	out := templateListOutput{Templates: make([]templateEntry, 0, len(entries))}
	for _, entry := range entries {
		out.Templates = append(out.Templates, templateEntry{
			Name:      entry.Name,
			SizeBytes: entry.Size,
			Size:      humanize.Bytes(uint64(entry.Size)),
		})
	}
	return nil, out, nil
}

type templateInfoInput struct {
	Template string `json:"template" jsonschema:"Template file name under the template directory"`
}

type templateInfoOutput struct {
	Template    string         `json:"template"`
	Path        string         `json:"path"`
	SizeBytes   int64          `json:"size_bytes"`
	Size        string         `json:"size"`
	SlideCount  int            `json:"slide_count"`
	SlideWidth  int64          `json:"slide_width_emu"`
	SlideHeight int64          `json:"slide_height_emu"`
	Layouts     []layoutEntry  `json:"layouts,omitempty"`
	Properties  deckProperties `json:"properties"`
}

func (s *server) handleTemplateInfoTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input templateInfoInput) (*mcpsdk.CallToolResult, templateInfoOutput, error) {
	name := strings.TrimSpace(input.Template)
	if name == "" {
		return nil, templateInfoOutput{}, fmt.Errorf("template is required")
	}
	info, err := s.manager.Template(name)
	if err != nil {
		return nil, templateInfoOutput{}, err
	}
	return nil, templateInfoOutput{
		Template:    name,
		Path:        info.Path,
		SizeBytes:   info.SizeBytes,
		Size:        humanize.Bytes(uint64(info.SizeBytes)),
		SlideCount:  info.SlideCount,
		SlideWidth:  info.SlideWidth,
		SlideHeight: info.SlideHeight,
		Layouts:     layoutEntries(info.Layouts),
		Properties:  propertiesOut(info.Props),
	}, nil
}

func layoutEntries(layouts []pptx.Layout) []layoutEntry {
	if len(layouts) == 0 {
		return nil
	}
	out := make([]layoutEntry, 0, len(layouts))
	for _, layout := range layouts {
		out = append(out, layoutEntry{
			Index:        layout.Index,
			Name:         layout.Name,
			Placeholders: layout.PlaceholderCount,
		})
	}
	return out
}

func propertiesOut(props pptx.CoreProperties) deckProperties {
	return deckProperties{
		Title:    props.Title,
		Subject:  props.Subject,
		Author:   props.Creator,
		Keywords: props.Keywords,
		Comments: props.Description,
	}
}
