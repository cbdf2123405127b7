package netex

import (
	"encoding/xml"
	"io"
	"strings"
)

type lineCapture int

const (
	lineCaptureNone lineCapture = iota
	lineCapturePublicCode
	lineCaptureMode
	lineCaptureColour
	lineCaptureTextColour
)

// LineParser turns a NeTEx token stream into a LineTable. Colours are only read inside a
// Presentation block of the line being parsed.
type LineParser struct {
	depth int

	line         *Line
	lineDepth    int
	presentation int

	capture      lineCapture
	captureDepth int
	text         strings.Builder

	table LineTable
}

// NewLineParser returns an empty parser.
func NewLineParser() *LineParser {
	return &LineParser{table: make(LineTable)}
}

// DecodeLines parses a complete line catalog document.
func DecodeLines(r io.Reader) (LineTable, error) {
	p := NewLineParser()
	if err := p.Consume(NewDecoder(r)); err != nil {
		return nil, err
	}
	return p.Table(), nil
}

// Consume feeds every token of src to the parser.
func (p *LineParser) Consume(src TokenReader) error {
	return drive(src, p)
}

// Table returns the lines parsed so far.
func (p *LineParser) Table() LineTable {
	return p.table
}

func (p *LineParser) handle(tok xml.Token) {
	switch t := tok.(type) {
	case xml.StartElement:
		p.depth++
		p.start(t)
	case xml.CharData:
		if p.capture != lineCaptureNone {
			p.text.Write(t)
		}
	case xml.EndElement:
		p.end(t)
		p.depth--
	}
}

func (p *LineParser) start(se xml.StartElement) {
	name := local(se.Name)
	if name == "Line" || name == "FlexibleLine" {
		if id := attr(se, "id"); id != "" && p.line == nil {
			p.line = &Line{ID: ShortLineID(id), FullID: id}
			p.lineDepth = p.depth
		}
		return
	}
	if p.line == nil {
		return
	}
	switch name {
	case "Presentation":
		if p.presentation == 0 {
			p.presentation = p.depth
		}
	case "PublicCode":
		p.begin(lineCapturePublicCode)
	case "TransportMode":
		p.begin(lineCaptureMode)
	case "Colour":
		if p.presentation != 0 {
			p.begin(lineCaptureColour)
		}
	case "TextColour":
		if p.presentation != 0 {
			p.begin(lineCaptureTextColour)
		}
	}
}

func (p *LineParser) begin(c lineCapture) {
	if p.capture != lineCaptureNone {
		return
	}
	p.capture = c
	p.captureDepth = p.depth
	p.text.Reset()
}

func (p *LineParser) end(ee xml.EndElement) {
	if p.capture != lineCaptureNone && p.depth == p.captureDepth {
		p.finishCapture()
	}
	if p.line == nil {
		return
	}
	switch local(ee.Name) {
	case "Presentation":
		if p.presentation == p.depth {
			p.presentation = 0
		}
	case "Line", "FlexibleLine":
		if p.depth == p.lineDepth {
			if p.line.ID != "" {
				p.table[p.line.ID] = p.line
			}
			p.table[p.line.FullID] = p.line
			p.line = nil
			p.presentation = 0
		}
	}
}

func (p *LineParser) finishCapture() {
	value := strings.TrimSpace(p.text.String())
	kind := p.capture
	p.capture = lineCaptureNone
	p.text.Reset()
	if value == "" {
		return
	}
	switch kind {
	case lineCapturePublicCode:
		if p.line.PublicCode == nil {
			p.line.PublicCode = &value
		}
	case lineCaptureMode:
		if p.line.TransportMode == nil {
			mode := strings.ToLower(value)
			p.line.TransportMode = &mode
		}
	case lineCaptureColour:
		color := "#" + strings.TrimPrefix(value, "#")
		p.line.Color = &color
	case lineCaptureTextColour:
		color := "#" + strings.TrimPrefix(value, "#")
		p.line.TextColor = &color
	}
}
