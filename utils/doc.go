// Package utils provides small time helpers shared by the export and API layers.
// SIRI timestamps are opaque strings everywhere else; only code that needs an instant
// parses them, through ParseISO8601.
package utils
