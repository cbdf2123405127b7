// Package server exposes the departures coordinator over HTTP.
package server
