package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
log:
  format: json
instances:
  - name: idfm
    netex:
      stopsURL: https://example.org/stops.xml
      linesURL: https://example.org/lines.xml
    siri:
      endpoint: https://example.org/siri
      datasetID: ${TEST_DATASET}
      authHeader: apikey
      authValue: secret
    stops:
      - id: "STIF:StopPoint:Q:1:"
        name: Gare
        maxDepartures: 3
      - id: "STIF:StopPoint:Q:2:"
  - name: other
    netex:
      stopsURL: /data/stops.xml
    siri:
      endpoint: http://localhost:9000/siri
    scanIntervalS: 30
    maxDepartures: 8
`

func TestParse(t *testing.T) {
	t.Setenv("TEST_DATASET", "DS42")
	t.Setenv(EnvPort, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.Len(t, cfg.Instances, 2)

	idfm := cfg.Instances[0]
	assert.Equal(t, "DS42", idfm.SIRI.DatasetID)
	assert.Equal(t, DefaultScanIntervalS, idfm.ScanIntervalS)
	assert.Equal(t, DefaultMaxDepartures, idfm.MaxDepartures)
	assert.Equal(t, 3, idfm.StopLimit(idfm.Stops[0]))
	assert.Equal(t, DefaultMaxDepartures, idfm.StopLimit(idfm.Stops[1]))

	other := cfg.Instances[1]
	assert.Equal(t, 30, other.ScanIntervalS)
	assert.Equal(t, 8, other.MaxDepartures)
}

func TestParse_Defaults(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Parse([]byte("server: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Instances)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9999")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Parse([]byte("server:\n  port: 8080\n"))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv(EnvPort, "abc")
	_, err = Parse([]byte("server: {}\n"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvLogLevel, "")

	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "server: [\n"},
		{"negative port", "server:\n  port: -1\n"},
		{"bad log format", "server: {}\nlog:\n  format: xml\n"},
		{"missing endpoint", "server: {}\ninstances:\n  - name: a\n    netex:\n      stopsURL: x\n"},
		{"bad endpoint", "server: {}\ninstances:\n  - name: a\n    netex:\n      stopsURL: x\n    siri:\n      endpoint: not a url\n"},
		{"stop without id", "server: {}\ninstances:\n  - name: a\n    netex:\n      stopsURL: x\n    siri:\n      endpoint: http://h/s\n    stops:\n      - name: n\n"},
		{"auth value without header", "server: {}\ninstances:\n  - name: a\n    netex:\n      stopsURL: x\n    siri:\n      endpoint: http://h/s\n      authValue: v\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestInstance(t *testing.T) {
	cfg := AppConfig{Instances: []Instance{{Name: "a"}, {Name: "b"}}}

	inst, err := cfg.Instance("b")
	require.NoError(t, err)
	assert.Equal(t, "b", inst.Name)

	inst, err = cfg.Instance("missing")
	require.NoError(t, err)
	assert.Equal(t, "a", inst.Name)

	_, err = AppConfig{}.Instance("")
	assert.ErrorIs(t, err, ErrNoInstance)
}

func TestLoadAppConfig_EnvPath(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv("TEST_DATASET", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	t.Setenv(EnvConfigPath, path)

	saved := Config
	t.Cleanup(func() { Config = saved })

	require.NoError(t, LoadAppConfig())
	inst, err := SelectInstance("other")
	require.NoError(t, err)
	assert.Equal(t, "other", inst.Name)
	assert.Equal(t, 8080, Config.Server.Port)
}
