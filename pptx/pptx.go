// Package pptx builds and parses PowerPoint (.pptx) packages.
//
// The package implements the subset of the Open Packaging Conventions
// container that deckd needs: presentation size, slides with title and body
// text, slide layouts, and core document properties. Read extracts that
// editable model from an existing package; Bytes serializes the model back
// into a self-contained .pptx. Parts outside the model (embedded media,
// charts, custom XML) are not carried across a Read/Bytes round trip.
package pptx

import (
	"errors"
	"fmt"
	"time"
)

// EMUPerInch is the number of English Metric Units per inch.
const EMUPerInch = 914400

// ErrNotPresentation reports input that is not a PowerPoint package.
var ErrNotPresentation = errors.New("pptx: not a powerpoint package")

// AspectRatio names a slide dimension preset.
type AspectRatio string

// Supported slide dimension presets.
const (
	Aspect4x3   AspectRatio = "4:3"
	Aspect16x9  AspectRatio = "16:9"
	Aspect16x10 AspectRatio = "16:10"
	AspectA4    AspectRatio = "a4"
)

type dimensions struct {
	cx, cy int64
	name   string
}

var aspectDimensions = map[AspectRatio]dimensions{
	Aspect4x3:   {cx: 10 * EMUPerInch, cy: 6858000, name: "Standard (4:3)"},
	Aspect16x9:  {cx: 12192000, cy: 6858000, name: "Widescreen (16:9)"},
	Aspect16x10: {cx: 10 * EMUPerInch, cy: 5715000, name: "Widescreen (16:10)"},
	AspectA4:    {cx: 9905755, cy: 6858000, name: "A4 Paper"},
}

// ParseAspectRatio normalizes s into a known preset.
func ParseAspectRatio(s string) (AspectRatio, error) {
	ratio := AspectRatio(normalizeRatio(s))
	if _, ok := aspectDimensions[ratio]; !ok {
		return "", fmt.Errorf("pptx: unknown aspect ratio %q", s)
	}
	return ratio, nil
}

// Slide is one slide's editable text content.
type Slide struct {
	Title string
	Body  string
}

// Layout describes one slide layout available in the package.
type Layout struct {
	Index            int
	Name             string
	PlaceholderCount int
}

// CoreProperties are the package's core document properties
// (docProps/core.xml).
type CoreProperties struct {
	Title          string
	Subject        string
	Creator        string
	Keywords       string
	Description    string
	LastModifiedBy string
	Created        time.Time
	Modified       time.Time
}

// Presentation is an in-memory deck. The zero value is not usable; construct
// with New or Read.
type Presentation struct {
	cx, cy  int64
	slides  []Slide
	layouts []Layout
	props   CoreProperties
}

// New returns an empty presentation with the given dimension preset.
func New(ratio AspectRatio) *Presentation {
	dims, ok := aspectDimensions[ratio]
	if !ok {
		dims = aspectDimensions[Aspect16x9]
	}
	now := time.Now().UTC().Truncate(time.Second)
	return &Presentation{
		cx: dims.cx,
		cy: dims.cy,
		layouts: []Layout{
			{Index: 0, Name: "Title and Content", PlaceholderCount: 2},
		},
		props: CoreProperties{Created: now, Modified: now},
	}
}

// SlideSize returns the slide dimensions in EMU.
func (p *Presentation) SlideSize() (cx, cy int64) {
	return p.cx, p.cy
}

// SlideCount returns the number of slides.
func (p *Presentation) SlideCount() int {
	return len(p.slides)
}

// Slides returns a copy of the slide contents in order.
func (p *Presentation) Slides() []Slide {
	out := make([]Slide, len(p.slides))
	copy(out, p.slides)
	return out
}

// AddSlide appends a slide with the given title and body text and returns its
// zero-based index. Body lines separated by newlines become separate
// paragraphs.
func (p *Presentation) AddSlide(title, body string) int {
	p.slides = append(p.slides, Slide{Title: title, Body: body})
	p.touch()
	return len(p.slides) - 1
}

// Layouts returns the slide layouts known to the package.
func (p *Presentation) Layouts() []Layout {
	out := make([]Layout, len(p.layouts))
	copy(out, p.layouts)
	return out
}

// Props returns the core document properties.
func (p *Presentation) Props() CoreProperties {
	return p.props
}

// SetProps replaces the core document properties. A zero Created value keeps
// the existing timestamp; Modified is always set to the time of the call.
func (p *Presentation) SetProps(props CoreProperties) {
	if props.Created.IsZero() {
		props.Created = p.props.Created
	}
	p.props = props
	p.touch()
}

func (p *Presentation) touch() {
	p.props.Modified = time.Now().UTC().Truncate(time.Second)
}

func normalizeRatio(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '\t':
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
