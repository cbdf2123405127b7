package siri

import "strings"

// Departure is one upcoming service at a stop. Timestamps are passed through as sent by
// the producer.
type Departure struct {
	LineRef               *string `json:"line_ref"`
	PublishedLineName     *string `json:"published_line_name"`
	DestinationName       *string `json:"destination_name"`
	ExpectedDepartureTime *string `json:"expected_departure_time"`
	AimedDepartureTime    *string `json:"aimed_departure_time"`
	VehicleMode           *string `json:"vehicle_mode"`
	VehicleAtStop         *bool   `json:"vehicle_at_stop"`

	// LineInfo is set when the line reference matched the line catalog.
	*LineInfo
}

// LineInfo is the line catalog data copied onto a departure.
type LineInfo struct {
	PublicCode    *string `json:"line_public_code"`
	TransportMode *string `json:"line_transport_mode"`
	Color         *string `json:"line_color"`
	TextColor     *string `json:"line_text_color"`
}

// StopRef returns the monitored stop of the visit, or "" when missing.
func (v *MonitoredStopVisit) StopRef() string {
	if ref := v.MonitoringRef.Value(); ref != nil {
		return *ref
	}
	return ""
}

// Departure converts the visit. It reports false when the visit has no vehicle journey
// or no monitored call.
func (v *MonitoredStopVisit) Departure() (Departure, bool) {
	mvj := v.MonitoredVehicleJourney
	if mvj == nil || len(mvj.MonitoredCall) == 0 {
		return Departure{}, false
	}
	call := &mvj.MonitoredCall[0]
	return Departure{
		LineRef:               mvj.LineRef.Value(),
		PublishedLineName:     firstValue(mvj.PublishedLineName),
		DestinationName:       firstValue(mvj.DestinationName),
		ExpectedDepartureTime: call.ExpectedDepartureTime.Value(),
		AimedDepartureTime:    call.AimedDepartureTime.Value(),
		VehicleMode:           firstValue(mvj.VehicleMode),
		VehicleAtStop:         parseFlag(call.VehicleAtStop),
	}, true
}

// parseFlag reads an xsd:boolean. Absent, blank and unrecognised values are unknown.
func parseFlag(t *Text) *bool {
	v := t.Value()
	if v == nil {
		return nil
	}
	var b bool
	switch strings.ToLower(*v) {
	case "true", "1":
		b = true
	case "false", "0":
		b = false
	default:
		return nil
	}
	return &b
}
