// Package validation checks the settings file against its JSON Schema and
// reviews documents for modeling mistakes the importer tolerates.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mrajende/vdmlio/pkg/schema"
)

const settingsSchemaURL = "https://vdmlio.dev/schemas/settings.json"

// settingsSchemaJSON is the JSON Schema of ~/.vdmlio/settings.json.
const settingsSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://vdmlio.dev/schemas/settings.json",
  "type": "object",
  "properties": {
    "db_path": { "type": "string", "minLength": 1 },
    "log_level": {
      "type": "string",
      "enum": ["debug", "info", "warn", "error"]
    },
    "autosave_cron": { "type": "string", "minLength": 1 },
    "metrics_addr": {
      "type": "string",
      "pattern": "^[^:]*:[0-9]{1,5}$"
    },
    "pretty_xml": { "type": "boolean" },
    "flow_type": {
      "type": "string",
      "enum": ["sequenceFlow", "valueFlow"]
    },
    "default_diagram": { "type": "string" }
  },
  "additionalProperties": false
}`

// SettingsValidator validates settings documents. It is safe for
// concurrent use.
type SettingsValidator struct {
	schema *jsonschema.Schema
}

// NewSettingsValidator compiles the settings schema.
func NewSettingsValidator() (*SettingsValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(settingsSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal settings schema: %w", err)
	}
	if err := c.AddResource(settingsSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add settings schema resource: %w", err)
	}
	compiled, err := c.Compile(settingsSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile settings schema: %w", err)
	}
	return &SettingsValidator{schema: compiled}, nil
}

// Validate checks raw settings JSON.
func (v *SettingsValidator) Validate(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "settings are not valid JSON").WithCause(err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return toVdmlError(err)
	}
	return nil
}

// ValidateValue checks a Go value by its JSON encoding.
func (v *SettingsValidator) ValidateValue(value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize settings").WithCause(err)
	}
	return v.Validate(b)
}

// ValidateSettings validates data with a freshly compiled schema.
func ValidateSettings(data []byte) error {
	v, err := NewSettingsValidator()
	if err != nil {
		return err
	}
	return v.Validate(data)
}

// toVdmlError converts a jsonschema.ValidationError into a VdmlError whose
// details list every violation.
func toVdmlError(err error) *schema.VdmlError {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	switch len(violations) {
	case 0:
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	case 1:
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}
	return schema.NewErrorf(schema.ErrCodeValidation, "settings have %d errors", len(violations)).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/" + strings.Join(verr.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
