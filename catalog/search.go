package catalog

import (
	"strings"

	"github.com/theoremus-urban-solutions/siri-departures/netex"
	"github.com/theoremus-urban-solutions/siri-departures/textnorm"
)

// Find returns the stops whose normalized name or id contains the normalized term, in
// catalog order. Callers reject empty terms before searching.
func Find(stops []netex.Stop, term string) []netex.Stop {
	key := textnorm.Normalize(term)
	var out []netex.Stop
	for _, s := range stops {
		if strings.Contains(s.NormalizedName, key) || strings.Contains(s.NormalizedID, key) {
			out = append(out, s)
		}
	}
	return out
}

// ByID returns the stop with the given id.
func ByID(stops []netex.Stop, id string) (netex.Stop, bool) {
	for _, s := range stops {
		if s.ID == id {
			return s, true
		}
	}
	return netex.Stop{}, false
}
