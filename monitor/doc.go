// Package monitor keeps the departures of a configured set of stops fresh.
//
// A Coordinator performs one batched SIRI request per refresh for every monitored stop,
// trims each stop to its own display limit and publishes the result as an immutable
// Snapshot. A failed refresh keeps the previous departures but marks every stop
// unavailable until the next success. Run drives refreshes on the scan interval and
// backs off exponentially, never beyond that interval, while the endpoint keeps failing.
//
// The coordinator also holds the stop catalog loaded at startup so that HTTP handlers
// can search it without reloading.
package monitor
