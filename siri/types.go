package siri

import (
	"encoding/xml"
	"strings"
)

// Namespace is the SIRI XML namespace.
const Namespace = "http://www.siri.org.uk/siri"

// Envelope is the Siri root element of a response.
type Envelope struct {
	XMLName         xml.Name          `xml:"http://www.siri.org.uk/siri Siri"`
	ServiceDelivery []ServiceDelivery `xml:"http://www.siri.org.uk/siri ServiceDelivery"`
}

// ServiceDelivery groups the deliveries of one response.
type ServiceDelivery struct {
	ResponseTimestamp      string                   `xml:"http://www.siri.org.uk/siri ResponseTimestamp"`
	ProducerRef            string                   `xml:"http://www.siri.org.uk/siri ProducerRef"`
	StopMonitoringDelivery []StopMonitoringDelivery `xml:"http://www.siri.org.uk/siri StopMonitoringDelivery"`
	// Other collects child elements not modelled above.
	Other []element `xml:",any"`
}

type element struct {
	XMLName xml.Name
}

// Empty reports whether the delivery has no child elements at all.
func (sd *ServiceDelivery) Empty() bool {
	return sd.ResponseTimestamp == "" && sd.ProducerRef == "" &&
		len(sd.StopMonitoringDelivery) == 0 && len(sd.Other) == 0
}

// StopMonitoring returns the first StopMonitoringDelivery, if any.
func (sd *ServiceDelivery) StopMonitoring() (*StopMonitoringDelivery, bool) {
	if len(sd.StopMonitoringDelivery) == 0 {
		return nil, false
	}
	return &sd.StopMonitoringDelivery[0], true
}

// StopMonitoringDelivery carries the visits for all monitored stops.
type StopMonitoringDelivery struct {
	ResponseTimestamp  string               `xml:"http://www.siri.org.uk/siri ResponseTimestamp"`
	Status             *Text                `xml:"http://www.siri.org.uk/siri Status"`
	ErrorCondition     *ErrorCondition      `xml:"http://www.siri.org.uk/siri ErrorCondition"`
	MonitoredStopVisit []MonitoredStopVisit `xml:"http://www.siri.org.uk/siri MonitoredStopVisit"`
}

// Failed reports whether the producer flagged the delivery as unsuccessful.
func (d *StopMonitoringDelivery) Failed() bool {
	if s := d.Status.Value(); s != nil && strings.EqualFold(*s, "false") {
		return true
	}
	return d.ErrorCondition != nil
}

// ErrorCondition explains a failed delivery.
type ErrorCondition struct {
	Description *Text `xml:"http://www.siri.org.uk/siri Description"`
}

// MonitoredStopVisit is one upcoming call at a monitored stop.
type MonitoredStopVisit struct {
	RecordedAtTime          string                   `xml:"http://www.siri.org.uk/siri RecordedAtTime"`
	MonitoringRef           *Text                    `xml:"http://www.siri.org.uk/siri MonitoringRef"`
	MonitoredVehicleJourney *MonitoredVehicleJourney `xml:"http://www.siri.org.uk/siri MonitoredVehicleJourney"`
}

// MonitoredVehicleJourney describes the vehicle serving a visit. Fields that SIRI allows
// to repeat (one per language, for instance) are slices; the first value is used.
type MonitoredVehicleJourney struct {
	LineRef           *Text           `xml:"http://www.siri.org.uk/siri LineRef"`
	DirectionName     []Text          `xml:"http://www.siri.org.uk/siri DirectionName"`
	PublishedLineName []Text          `xml:"http://www.siri.org.uk/siri PublishedLineName"`
	DestinationName   []Text          `xml:"http://www.siri.org.uk/siri DestinationName"`
	VehicleMode       []Text          `xml:"http://www.siri.org.uk/siri VehicleMode"`
	MonitoredCall     []MonitoredCall `xml:"http://www.siri.org.uk/siri MonitoredCall"`
}

// MonitoredCall is the call at the monitored stop.
type MonitoredCall struct {
	StopPointName         []Text `xml:"http://www.siri.org.uk/siri StopPointName"`
	VehicleAtStop         *Text  `xml:"http://www.siri.org.uk/siri VehicleAtStop"`
	AimedDepartureTime    *Text  `xml:"http://www.siri.org.uk/siri AimedDepartureTime"`
	ExpectedDepartureTime *Text  `xml:"http://www.siri.org.uk/siri ExpectedDepartureTime"`
}

// Text is an element holding character data.
type Text struct {
	Data string `xml:",chardata"`
}

// Value returns the trimmed text, or nil when t is absent or blank.
func (t *Text) Value() *string {
	if t == nil {
		return nil
	}
	v := strings.TrimSpace(t.Data)
	if v == "" {
		return nil
	}
	return &v
}

func firstValue(ts []Text) *string {
	for i := range ts {
		if v := ts[i].Value(); v != nil {
			return v
		}
	}
	return nil
}
