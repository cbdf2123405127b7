// Package gtfsrt republishes a departures snapshot as a GTFS-Realtime TripUpdates feed,
// so consumers that only speak GTFS-RT can read the same SIRI data.
//
// Each departure becomes one entity holding a single StopTimeUpdate. The line reference
// (short form) is used as route_id; SIRI StopMonitoring does not expose trip ids.
package gtfsrt
