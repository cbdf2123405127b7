// Package netex decodes the two NeTEx reference documents used for departures: the stop
// catalog (Quay, StopPlace, TopographicPlace) and the line catalog (Line, FlexibleLine).
//
// Both parsers are explicit state machines fed one token at a time from a pull iterator,
// so they can be driven from a file, a network stream or a hand-built token slice. Element
// names are matched on their local part only; namespace prefixes carry no meaning here.
//
// Example:
//
//	f, _ := os.Open("stops.xml")
//	defer f.Close()
//	stops, err := netex.DecodeStops(f)
package netex
