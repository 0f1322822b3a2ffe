package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Read parses a .pptx package into its editable model. Input that is not a
// zip archive or lacks the main presentation part fails with an error
// wrapping ErrNotPresentation.
func Read(data []byte) (*Presentation, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	if _, ok := parts["ppt/presentation.xml"]; !ok {
		return nil, fmt.Errorf("%w: missing ppt/presentation.xml", ErrNotPresentation)
	}

	p := &Presentation{}
	if err := p.readPresentation(parts); err != nil {
		return nil, err
	}
	if err := p.readCoreProps(parts); err != nil {
		return nil, err
	}
	p.readLayouts(parts)
	if len(p.layouts) == 0 {
		p.layouts = []Layout{{Index: 0, Name: "Title and Content", PlaceholderCount: 2}}
	}
	if p.props.Created.IsZero() {
		p.props.Created = time.Now().UTC().Truncate(time.Second)
	}
	if p.props.Modified.IsZero() {
		p.props.Modified = p.props.Created
	}
	return p, nil
}

type relationshipsPart struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type presentationPart struct {
	SldIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
	SldSz struct {
		Cx int64 `xml:"cx,attr"`
		Cy int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

func (p *Presentation) readPresentation(parts map[string]*zip.File) error {
	var pres presentationPart
	if err := decodePart(parts["ppt/presentation.xml"], &pres); err != nil {
		return fmt.Errorf("%w: presentation part: %v", ErrNotPresentation, err)
	}
	p.cx, p.cy = pres.SldSz.Cx, pres.SldSz.Cy
	if p.cx == 0 || p.cy == 0 {
		dims := aspectDimensions[Aspect16x9]
		p.cx, p.cy = dims.cx, dims.cy
	}

	targets := map[string]string{}
	if rels, ok := parts["ppt/_rels/presentation.xml.rels"]; ok {
		var rp relationshipsPart
		if err := decodePart(rels, &rp); err != nil {
			return fmt.Errorf("%w: presentation rels: %v", ErrNotPresentation, err)
		}
		for _, rel := range rp.Rels {
			targets[rel.ID] = rel.Target
		}
	}

	// Slides in presentation order, resolved through the relationship table.
	for _, sld := range pres.SldIDs {
		target, ok := targets[sld.RID]
		if !ok {
			continue
		}
		name := path.Clean(path.Join("ppt", target))
		part, ok := parts[name]
		if !ok {
			continue
		}
		slide, err := readSlide(part)
		if err != nil {
			return err
		}
		p.slides = append(p.slides, slide)
	}
	return nil
}

// readSlide extracts the slide's title and body text. Shapes carrying a
// title placeholder become the title; every other paragraph lands in the
// body, one line per paragraph.
func readSlide(part *zip.File) (Slide, error) {
	rc, err := part.Open()
	if err != nil {
		return Slide{}, fmt.Errorf("pptx: open %s: %w", part.Name, err)
	}
	defer rc.Close()

	type shape struct {
		phType     string
		paragraphs []string
	}
	var (
		shapes    []shape
		current   *shape
		paragraph strings.Builder
		inPara    bool
		inText    bool
	)

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Slide{}, fmt.Errorf("pptx: parse %s: %w", part.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == nsPresentation && t.Name.Local == "sp":
				shapes = append(shapes, shape{})
				current = &shapes[len(shapes)-1]
			case t.Name.Space == nsPresentation && t.Name.Local == "ph":
				if current != nil {
					for _, attr := range t.Attr {
						if attr.Name.Local == "type" {
							current.phType = attr.Value
						}
					}
				}
			case t.Name.Space == nsDrawing && t.Name.Local == "p":
				inPara = true
				paragraph.Reset()
			case t.Name.Space == nsDrawing && t.Name.Local == "t":
				inText = true
			}
		case xml.CharData:
			if inPara && inText {
				paragraph.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == nsDrawing && t.Name.Local == "t":
				inText = false
			case t.Name.Space == nsDrawing && t.Name.Local == "p":
				if inPara && current != nil {
					current.paragraphs = append(current.paragraphs, paragraph.String())
				}
				inPara = false
			case t.Name.Space == nsPresentation && t.Name.Local == "sp":
				current = nil
			}
		}
	}

	var slide Slide
	var bodyLines []string
	titleTaken := false
	for _, sh := range shapes {
		text := strings.Join(sh.paragraphs, "\n")
		if text == "" {
			continue
		}
		isTitle := sh.phType == "title" || sh.phType == "ctrTitle"
		if isTitle && !titleTaken {
			slide.Title = text
			titleTaken = true
			continue
		}
		bodyLines = append(bodyLines, text)
	}
	if !titleTaken && len(bodyLines) > 0 {
		// No placeholder metadata: treat the first text shape as the title.
		slide.Title = bodyLines[0]
		bodyLines = bodyLines[1:]
	}
	slide.Body = strings.Join(bodyLines, "\n")
	return slide, nil
}

type corePropsPart struct {
	Title          string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Subject        string `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Creator        string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Description    string `xml:"http://purl.org/dc/elements/1.1/ description"`
	Keywords       string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties keywords"`
	LastModifiedBy string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties lastModifiedBy"`
	Created        string `xml:"http://purl.org/dc/terms/ created"`
	Modified       string `xml:"http://purl.org/dc/terms/ modified"`
}

func (p *Presentation) readCoreProps(parts map[string]*zip.File) error {
	part, ok := parts["docProps/core.xml"]
	if !ok {
		return nil
	}
	var core corePropsPart
	if err := decodePart(part, &core); err != nil {
		return fmt.Errorf("pptx: core properties: %w", err)
	}
	p.props.Title = core.Title
	p.props.Subject = core.Subject
	p.props.Creator = core.Creator
	p.props.Keywords = core.Keywords
	p.props.Description = core.Description
	p.props.LastModifiedBy = core.LastModifiedBy
	p.props.Created = parseW3CDTF(core.Created)
	p.props.Modified = parseW3CDTF(core.Modified)
	return nil
}

var layoutPartPattern = regexp.MustCompile(`^ppt/slideLayouts/slideLayout(\d+)\.xml$`)

type layoutPart struct {
	CSld struct {
		Name string `xml:"name,attr"`
	} `xml:"cSld"`
}

func (p *Presentation) readLayouts(parts map[string]*zip.File) {
	type numbered struct {
		n      int
		layout Layout
	}
	var found []numbered
	for name, part := range parts {
		m := layoutPartPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		var lp layoutPart
		if err := decodePart(part, &lp); err != nil {
			continue
		}
		layoutName := lp.CSld.Name
		if layoutName == "" {
			layoutName = fmt.Sprintf("Layout %d", n)
		}
		found = append(found, numbered{n: n, layout: Layout{
			Name:             layoutName,
			PlaceholderCount: countPlaceholders(part),
		}})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	for i, f := range found {
		f.layout.Index = i
		p.layouts = append(p.layouts, f.layout)
	}
}

func countPlaceholders(part *zip.File) int {
	rc, err := part.Open()
	if err != nil {
		return 0
	}
	defer rc.Close()
	count := 0
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Space == nsPresentation && start.Name.Local == "ph" {
				count++
			}
		}
	}
	return count
}

func decodePart(part *zip.File, v any) error {
	if part == nil {
		return fmt.Errorf("missing part")
	}
	rc, err := part.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

func parseW3CDTF(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
