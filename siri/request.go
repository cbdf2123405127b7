package siri

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/siri-departures/utils"
)

// Version is the SIRI version announced in requests.
const Version = "2.0"

// DefaultRequestorRef identifies this client when none is configured.
const DefaultRequestorRef = "siri-departures"

// StopMonitoringRequest describes one batched request.
type StopMonitoringRequest struct {
	RequestorRef string
	// MessageIdentifier defaults to a random UUID.
	MessageIdentifier string
	// Timestamp defaults to now.
	Timestamp time.Time
	StopIDs   []string
	// MaximumStopVisits is sent for every stop when positive.
	MaximumStopVisits int
}

// BuildStopMonitoringRequest serializes req as a SIRI ServiceRequest with one
// StopMonitoringRequest per stop, in the order given.
func BuildStopMonitoringRequest(req StopMonitoringRequest) []byte {
	if req.RequestorRef == "" {
		req.RequestorRef = DefaultRequestorRef
	}
	if req.MessageIdentifier == "" {
		req.MessageIdentifier = uuid.NewString()
	}
	ts := utils.Iso8601Now()
	if !req.Timestamp.IsZero() {
		ts = utils.Iso8601FromTime(req.Timestamp)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<Siri xmlns="` + Namespace + `" xmlns:ns2="http://www.ifopt.org.uk/acsb" xmlns:ns3="http://www.ifopt.org.uk/ifopt" xmlns:ns4="http://datex2.eu/schema/2_0RC1/2_0" version="` + Version + `">`)
	b.WriteString("<ServiceRequest>")
	writeElement(&b, "RequestTimestamp", ts)
	writeElement(&b, "RequestorRef", req.RequestorRef)
	writeElement(&b, "MessageIdentifier", req.MessageIdentifier)
	for _, id := range req.StopIDs {
		b.WriteString(`<StopMonitoringRequest version="` + Version + `">`)
		writeElement(&b, "RequestTimestamp", ts)
		writeElement(&b, "MonitoringRef", id)
		if req.MaximumStopVisits > 0 {
			writeElement(&b, "MaximumStopVisits", strconv.Itoa(req.MaximumStopVisits))
		}
		b.WriteString("</StopMonitoringRequest>")
	}
	b.WriteString("</ServiceRequest>")
	b.WriteString("</Siri>")
	return []byte(b.String())
}

func writeElement(b *strings.Builder, name, value string) {
	b.WriteString("<")
	b.WriteString(name)
	b.WriteString(">")
	b.WriteString(xmlEscape(value))
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">")
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return escaper.Replace(s)
}
