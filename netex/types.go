package netex

import (
	"github.com/theoremus-urban-solutions/siri-departures/textnorm"
)

// UnknownMode is the transport mode of a stop that declares none.
const UnknownMode = "unknown"

// Stop is a physical boarding point (a NeTEx Quay) with the context inherited from its
// stop place.
type Stop struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	TransportMode       string   `json:"transportMode"`
	OtherTransportModes []string `json:"otherTransportModes"`
	ParentStopPlaceID   *string  `json:"parentStopPlaceId,omitempty"`
	CityName            *string  `json:"cityName,omitempty"`
	NormalizedName      string   `json:"normalizedName"`
	NormalizedID        string   `json:"normalizedId"`
}

// Normalize recomputes the derived search keys from ID and Name.
func (s *Stop) Normalize() {
	s.NormalizedName = textnorm.Normalize(s.Name)
	s.NormalizedID = textnorm.Normalize(s.ID)
}

// Line is the display metadata of a transit line.
type Line struct {
	ID            string  `json:"id"`
	FullID        string  `json:"fullId"`
	PublicCode    *string `json:"publicCode,omitempty"`
	TransportMode *string `json:"transportMode,omitempty"`
	Color         *string `json:"color,omitempty"`
	TextColor     *string `json:"textColor,omitempty"`
}

// LineTable indexes lines by both their full and short identifiers. Both keys of a line
// point at the same record.
type LineTable map[string]*Line

// Get resolves ref as given, then by its short form.
func (t LineTable) Get(ref string) *Line {
	if len(t) == 0 || ref == "" {
		return nil
	}
	if l, ok := t[ref]; ok {
		return l
	}
	return t[ShortLineID(ref)]
}

// Lines returns each distinct line once, in no particular order.
func (t LineTable) Lines() []*Line {
	seen := make(map[*Line]struct{}, len(t)/2)
	out := make([]*Line, 0, len(t)/2)
	for _, l := range t {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
