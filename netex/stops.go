package netex

import (
	"encoding/xml"
	"io"
	"strings"
)

// stopCapture names the element whose character data is currently being collected.
type stopCapture int

const (
	captureNone stopCapture = iota
	captureQuayName
	captureQuayMode
	capturePlaceMode
	capturePlaceOtherModes
	captureTopoName
)

// maxParentHops bounds the ParentSiteRef walk when looking for a stop place's city.
const maxParentHops = 8

type quayState struct {
	id             string
	name           string
	nameDirect     bool
	mode           string
	siteRef        string
	enclosingPlace string
	depth          int
}

type stopPlaceState struct {
	id            string
	mode          string
	otherModes    []string
	topoRef       string
	parentSiteRef string
	depth         int
}

type topoState struct {
	id         string
	name       string
	nameDirect bool
	depth      int
}

// StopParser turns a NeTEx token stream into Stop records.
//
// Three scopes can be open at once: a Quay, a StopPlace and a TopographicPlace. Stop places
// and topographic places are buffered by id as they close, and quays are only resolved
// against them in Stops, once the whole stream has been seen, so section order in the
// document does not matter.
type StopParser struct {
	depth int

	quay  *quayState
	place *stopPlaceState
	topo  *topoState

	capture      stopCapture
	captureDepth int
	text         strings.Builder

	quays  []quayState
	places map[string]*stopPlaceState
	cities map[string]string
}

// NewStopParser returns an empty parser.
func NewStopParser() *StopParser {
	return &StopParser{
		places: make(map[string]*stopPlaceState),
		cities: make(map[string]string),
	}
}

// DecodeStops parses a complete stop catalog document.
func DecodeStops(r io.Reader) ([]Stop, error) {
	p := NewStopParser()
	if err := p.Consume(NewDecoder(r)); err != nil {
		return nil, err
	}
	return p.Stops(), nil
}

// Consume feeds every token of src to the parser.
func (p *StopParser) Consume(src TokenReader) error {
	return drive(src, p)
}

func (p *StopParser) handle(tok xml.Token) {
	switch t := tok.(type) {
	case xml.StartElement:
		p.depth++
		p.start(t)
	case xml.CharData:
		if p.capture != captureNone {
			p.text.Write(t)
		}
	case xml.EndElement:
		p.end(t)
		p.depth--
	}
}

func (p *StopParser) start(se xml.StartElement) {
	switch local(se.Name) {
	case "Quay":
		if id := attr(se, "id"); id != "" && p.quay == nil {
			p.quay = &quayState{id: id, depth: p.depth}
			if p.place != nil {
				p.quay.enclosingPlace = p.place.id
			}
		}
	case "StopPlace":
		if id := attr(se, "id"); id != "" && p.place == nil {
			p.place = &stopPlaceState{id: id, depth: p.depth}
		}
	case "TopographicPlace":
		if id := attr(se, "id"); id != "" && p.topo == nil {
			p.topo = &topoState{id: id, depth: p.depth}
		}
	case "Name":
		switch {
		case p.quay != nil:
			p.begin(captureQuayName)
		case p.topo != nil:
			p.begin(captureTopoName)
		}
	case "TransportMode":
		switch {
		case p.quay != nil:
			p.begin(captureQuayMode)
		case p.place != nil:
			p.begin(capturePlaceMode)
		}
	case "OtherTransportModes":
		if p.place != nil && p.quay == nil {
			p.begin(capturePlaceOtherModes)
		}
	case "SiteRef":
		if p.quay != nil {
			if ref := attr(se, "ref"); ref != "" {
				p.quay.siteRef = ref
			}
		}
	case "TopographicPlaceRef":
		if p.place != nil && p.quay == nil {
			if ref := attr(se, "ref"); ref != "" {
				p.place.topoRef = ref
			}
		}
	case "ParentSiteRef":
		if p.place != nil && p.quay == nil {
			if ref := attr(se, "ref"); ref != "" {
				p.place.parentSiteRef = ref
			}
		}
	}
}

func (p *StopParser) begin(c stopCapture) {
	if p.capture != captureNone {
		return
	}
	p.capture = c
	p.captureDepth = p.depth
	p.text.Reset()
}

func (p *StopParser) end(ee xml.EndElement) {
	if p.capture != captureNone && p.depth == p.captureDepth {
		p.finishCapture()
	}

	switch local(ee.Name) {
	case "Quay":
		if p.quay != nil && p.quay.depth == p.depth {
			p.quays = append(p.quays, *p.quay)
			p.quay = nil
		}
	case "StopPlace":
		if p.place != nil && p.place.depth == p.depth {
			p.places[p.place.id] = p.place
			p.place = nil
		}
	case "TopographicPlace":
		if p.topo != nil && p.topo.depth == p.depth {
			p.cities[p.topo.id] = p.topo.name
			p.topo = nil
		}
	}
}

func (p *StopParser) finishCapture() {
	value := strings.TrimSpace(p.text.String())
	switch p.capture {
	case captureQuayName:
		direct := p.captureDepth == p.quay.depth+1
		if value != "" && (p.quay.name == "" || (direct && !p.quay.nameDirect)) {
			p.quay.name, p.quay.nameDirect = value, direct
		}
	case captureTopoName:
		direct := p.captureDepth == p.topo.depth+1
		if value != "" && (p.topo.name == "" || (direct && !p.topo.nameDirect)) {
			p.topo.name, p.topo.nameDirect = value, direct
		}
	case captureQuayMode:
		if value != "" {
			p.quay.mode = strings.ToLower(value)
		}
	case capturePlaceMode:
		if value != "" {
			p.place.mode = strings.ToLower(value)
		}
	case capturePlaceOtherModes:
		p.place.otherModes = strings.Fields(value)
	}
	p.capture = captureNone
	p.text.Reset()
}

// Stops resolves every closed quay against the buffered stop places and cities.
func (p *StopParser) Stops() []Stop {
	stops := make([]Stop, 0, len(p.quays))
	for _, q := range p.quays {
		s := Stop{
			ID:                  q.id,
			Name:                q.name,
			TransportMode:       q.mode,
			OtherTransportModes: []string{},
		}

		parentID := q.siteRef
		if parentID == "" {
			parentID = q.enclosingPlace
		}
		if parentID != "" {
			s.ParentStopPlaceID = &parentID
		}
		if place, ok := p.places[parentID]; ok {
			s.OtherTransportModes = append(s.OtherTransportModes, place.otherModes...)
			if s.TransportMode == "" {
				s.TransportMode = place.mode
			}
			if city, ok := p.cityOf(place); ok {
				s.CityName = &city
			}
		}
		if s.TransportMode == "" {
			s.TransportMode = UnknownMode
		}
		s.Normalize()
		stops = append(stops, s)
	}
	return stops
}

func (p *StopParser) cityOf(place *stopPlaceState) (string, bool) {
	for range maxParentHops {
		if place.topoRef != "" {
			if name := p.cities[place.topoRef]; name != "" {
				return name, true
			}
		}
		next, ok := p.places[place.parentSiteRef]
		if place.parentSiteRef == "" || !ok {
			return "", false
		}
		place = next
	}
	return "", false
}
