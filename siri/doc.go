// Package siri speaks the SIRI StopMonitoring exchange (CEN/TS 15531).
//
// BuildStopMonitoringRequest writes one ServiceRequest carrying a StopMonitoringRequest per
// stop, so any number of stops costs a single round trip. DecodeServiceDelivery reads the
// answer; each MonitoredStopVisit converts to a Departure.
//
// Response elements are matched in the SIRI namespace only. Optional values are pointers:
// nil means the element was absent or empty.
package siri
