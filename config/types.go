package config

import "time"

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// NeTExConfig points at the stop and line documents of an instance.
type NeTExConfig struct {
	StopsURL     string `yaml:"stopsURL" validate:"required"`
	LinesURL     string `yaml:"linesURL" validate:"omitempty"`
	SnapshotPath string `yaml:"snapshotPath"`
}

// SIRIConfig contains the StopMonitoring endpoint settings
type SIRIConfig struct {
	Endpoint     string `yaml:"endpoint" validate:"required,url"`
	DatasetID    string `yaml:"datasetID"`
	RequestorRef string `yaml:"requestorRef"`
	TimeoutMS    int    `yaml:"timeoutMS" validate:"gte=0"`
	AuthHeader   string `yaml:"authHeader" validate:"required_with=AuthValue"`
	AuthValue    string `yaml:"authValue"`
}

// Timeout returns the configured HTTP timeout, or zero to keep the client default.
func (s SIRIConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// StopConfig is one monitored stop.
type StopConfig struct {
	ID            string `yaml:"id" validate:"required"`
	Name          string `yaml:"name"`
	MaxDepartures int    `yaml:"maxDepartures" validate:"gte=0"`
}

// Instance is a single set of NeTEx sources, SIRI endpoint and monitored stops.
// Name doubles as the line cache scope.
type Instance struct {
	Name          string       `yaml:"name" validate:"required"`
	NeTEx         NeTExConfig  `yaml:"netex" validate:"required"`
	SIRI          SIRIConfig   `yaml:"siri" validate:"required"`
	ScanIntervalS int          `yaml:"scanIntervalS" validate:"gte=0"`
	MaxDepartures int          `yaml:"maxDepartures" validate:"gte=0"`
	Stops         []StopConfig `yaml:"stops" validate:"dive"`
}

// ScanInterval returns the refresh period of the instance.
func (i Instance) ScanInterval() time.Duration {
	return time.Duration(i.ScanIntervalS) * time.Second
}

// StopLimit returns the display limit for stop, falling back to the instance default.
func (i Instance) StopLimit(stop StopConfig) int {
	if stop.MaxDepartures > 0 {
		return stop.MaxDepartures
	}
	return i.MaxDepartures
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig `yaml:"server" validate:"required"`
	Log       LogConfig    `yaml:"log"`
	Instances []Instance   `yaml:"instances" validate:"dive"`
}
