// Package config handles application configuration loading and validation.
//
// Configuration is read from a YAML file (config.yml by default), after an optional .env
// file has been loaded into the environment. ${VAR} references in the file are expanded
// before parsing, and the result is validated using struct tags. Several departure
// instances can be configured; each one names its own NeTEx sources, SIRI endpoint and
// monitored stops, and is selected by name.
package config
