package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/pkg/schema"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.True(t, cfg.PrettyXML)
	assert.Equal(t, "@every 1m", cfg.AutosaveCron)
}

func TestLoadConfig_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{"db_path":"/data/file.db","log_level":"warn","pretty_xml":false,"flow_type":"valueFlow"}`)
	t.Setenv("VDMLIO_LOG_LEVEL", "debug")
	t.Setenv("VDMLIO_METRICS_ADDR", ":9100")
	t.Setenv("VDMLIO_PRETTY_XML", "not-a-bool")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/file.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel, "env overrides the file")
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.False(t, cfg.PrettyXML, "unparsable env value is ignored")
	assert.Equal(t, "valueFlow", cfg.FlowType)
}

func TestLoadConfig_InvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{"log_level":"chatty","pool_size":4}`)

	_, err := loadConfig(path)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))
}

func TestRulesConfig(t *testing.T) {
	tests := []struct {
		flowType string
		want     schema.Kind
		wantErr  bool
	}{
		{"", schema.KindSequenceFlow, false},
		{"sequenceFlow", schema.KindSequenceFlow, false},
		{"valueFlow", schema.KindValueFlow, false},
		{"vdml:ValueFlow", schema.KindValueFlow, false},
		{"messageFlow", "", true},
		{"pipe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.flowType, func(t *testing.T) {
			rc, err := Config{FlowType: tt.flowType}.rulesConfig()
			if tt.wantErr {
				assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rc.FlowType)
		})
	}
}

func TestDiffConfigs(t *testing.T) {
	base := defaultConfig()

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   configDiff
	}{
		{"unchanged", func(*Config) {}, configDiff{}},
		{"log level", func(c *Config) { c.LogLevel = "debug" }, configDiff{LogLevelChanged: true}},
		{"autosave", func(c *Config) { c.AutosaveCron = "@every 5m" }, configDiff{AutosaveChanged: true}},
		{
			"restart fields",
			func(c *Config) { c.DBPath = "/other.db"; c.MetricsAddr = ":1"; c.FlowType = "valueFlow" },
			configDiff{RestartNeeded: []string{"db_path", "metrics_addr", "flow_type"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			assert.Equal(t, tt.want, diffConfigs(base, next))
		})
	}
}

func TestWriteSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	cfg := defaultConfig()
	cfg.MetricsAddr = "127.0.0.1:9090"
	require.NoError(t, writeSettings(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	cfg.LogLevel = "loud"
	assert.Error(t, writeSettings(path, cfg))
}
