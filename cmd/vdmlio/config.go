package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mrajende/vdmlio/internal/rules"
	"github.com/mrajende/vdmlio/internal/scheduler"
	"github.com/mrajende/vdmlio/internal/validation"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Config holds all vdmlio configuration.
// Priority: flags > env vars > settings.json > defaults.
type Config struct {
	DBPath         string `json:"db_path"`
	LogLevel       string `json:"log_level"`
	AutosaveCron   string `json:"autosave_cron"`
	MetricsAddr    string `json:"metrics_addr,omitempty"`
	PrettyXML      bool   `json:"pretty_xml"`
	FlowType       string `json:"flow_type"`
	DefaultDiagram string `json:"default_diagram,omitempty"`
}

func defaultConfig() Config {
	return Config{
		DBPath:       filepath.Join(vdmlioDir(), "vdmlio.db"),
		LogLevel:     "info",
		AutosaveCron: scheduler.DefaultSpec,
		PrettyXML:    true,
		FlowType:     "sequenceFlow",
	}
}

func vdmlioDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vdmlio"
	}
	return filepath.Join(home, ".vdmlio")
}

func settingsPath() string {
	return filepath.Join(vdmlioDir(), "settings.json")
}

// loadConfig layers defaults, the settings file at path and VDMLIO_*
// environment variables. A missing settings file is not an error; an
// invalid one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings.json.
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read settings: %w", err)
	default:
		if err := validation.ValidateSettings(data); err != nil {
			return cfg, fmt.Errorf("settings %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode settings: %w", err)
		}
	}

	// Layer 3: env vars override.
	if v := os.Getenv("VDMLIO_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("VDMLIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VDMLIO_AUTOSAVE_CRON"); v != "" {
		cfg.AutosaveCron = v
	}
	if v := os.Getenv("VDMLIO_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("VDMLIO_PRETTY_XML"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PrettyXML = b
		}
	}
	if v := os.Getenv("VDMLIO_FLOW_TYPE"); v != "" {
		cfg.FlowType = v
	}
	if v := os.Getenv("VDMLIO_DEFAULT_DIAGRAM"); v != "" {
		cfg.DefaultDiagram = v
	}

	return cfg, nil
}

// rulesConfig maps the flow_type setting onto the connection rules.
func (c Config) rulesConfig() (*rules.Config, error) {
	rc := rules.DefaultConfig()
	if c.FlowType == "" {
		return &rc, nil
	}
	kind, err := schema.ParseKind(c.FlowType)
	if err != nil {
		return nil, err
	}
	if !kind.Is(schema.KindSequenceFlow) {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "flow_type %s is not a sequence flow", c.FlowType)
	}
	rc.FlowType = kind
	return &rc, nil
}

// writeSettings stores cfg as the settings file at path, creating its
// directory.
func writeSettings(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := validation.ValidateSettings(data); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// configDiff describes what changed between two configurations.
type configDiff struct {
	LogLevelChanged bool
	AutosaveChanged bool
	RestartNeeded   []string // fields that require a restart
}

func diffConfigs(old, new Config) configDiff {
	var d configDiff
	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
	}
	if old.AutosaveCron != new.AutosaveCron {
		d.AutosaveChanged = true
	}
	if old.DBPath != new.DBPath {
		d.RestartNeeded = append(d.RestartNeeded, "db_path")
	}
	if old.MetricsAddr != new.MetricsAddr {
		d.RestartNeeded = append(d.RestartNeeded, "metrics_addr")
	}
	if old.FlowType != new.FlowType {
		d.RestartNeeded = append(d.RestartNeeded, "flow_type")
	}
	return d
}
