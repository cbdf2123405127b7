package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theoremus-urban-solutions/siri-departures/netex"
	"github.com/theoremus-urban-solutions/siri-departures/textnorm"
)

func sampleStops(names ...string) []netex.Stop {
	stops := make([]netex.Stop, 0, len(names))
	for i, n := range names {
		s := netex.Stop{
			ID:                  "FR:Quay:" + string(rune('A'+i)),
			Name:                n,
			TransportMode:       netex.UnknownMode,
			OtherTransportModes: []string{},
		}
		s.Normalize()
		stops = append(stops, s)
	}
	return stops
}

func TestFind(t *testing.T) {
	stops := sampleStops("Gare Centrale", "Hôtel de Ville", "Saint-Lazare", "Gare de l'Est")

	tests := []struct {
		name string
		term string
		want []string
	}{
		{name: "substring", term: "centrale", want: []string{"Gare Centrale"}},
		{name: "case and spaces", term: "GARE CENTRALE", want: []string{"Gare Centrale"}},
		{name: "diacritics", term: "hotel", want: []string{"Hôtel de Ville"}},
		{name: "hyphen insensitive", term: "saint lazare", want: []string{"Saint-Lazare"}},
		{name: "catalog order", term: "gare", want: []string{"Gare Centrale", "Gare de l'Est"}},
		{name: "by id", term: "fr:quay:c", want: []string{"Saint-Lazare"}},
		{name: "no match", term: "opera", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range Find(stops, tt.term) {
				got = append(got, s.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFind_SubstringOfNameAlwaysMatches(t *testing.T) {
	names := []string{"Gare Centrale", "Île-de-France", "Place d'Italie", "Straße 12"}
	for _, n := range names {
		stop := sampleStops(n)
		key := textnorm.Normalize(n)
		for i := 0; i < len(key); i++ {
			for j := i + 1; j <= len(key); j++ {
				term := key[i:j]
				assert.Len(t, Find(stop, term), 1, "name %q term %q", n, term)
			}
		}
	}
}

func TestByID(t *testing.T) {
	stops := sampleStops("A", "B")
	s, ok := ByID(stops, "FR:Quay:B")
	assert.True(t, ok)
	assert.Equal(t, "B", s.Name)
	_, ok = ByID(stops, "missing")
	assert.False(t, ok)
}
