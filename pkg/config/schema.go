package config

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
)

// durationPattern accepts the strings time.ParseDuration understands.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// Schema reflects the JSON schema of a configuration file.
//
// Property names follow the yaml tags, durations are typed as Go duration
// strings and the fields restricted by validation carry enums.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{Type: "string", Pattern: durationPattern}
			}
			return nil
		},
	}

	s := r.Reflect(&Config{})
	s.Title = "Storfiler Configuration"
	s.Description = "Resources, providers and adapters of a Storfiler gateway"
	return s
}

// WriteSchema writes the indented schema to w.
func WriteSchema(w io.Writer) error {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}

// JSONSchemaExtend restricts level and format to their accepted values.
func (LoggingConfig) JSONSchemaExtend(s *jsonschema.Schema) {
	setEnum(s, "level", "DEBUG", "INFO", "WARN", "ERROR")
	setEnum(s, "format", "text", "json")
}

// JSONSchemaExtend restricts kind to the supported provider kinds.
func (ProviderConfig) JSONSchemaExtend(s *jsonschema.Schema) {
	setEnum(s, "kind", "directory", "cloud_blob", "s3", "memory")
}

func setEnum(s *jsonschema.Schema, property string, values ...any) {
	if s.Properties == nil {
		return
	}
	if p, ok := s.Properties.Get(property); ok {
		p.Enum = values
	}
}
