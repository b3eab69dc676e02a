package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$defs": {
    "envelope": {
      "type": "object",
      "required": ["error_type", "value"],
      "additionalProperties": false,
      "properties": {
        "error_type": {"type": "string", "minLength": 1},
        "value": true
      }
    }
  },
  "$ref": "#/$defs/envelope"
}`

const diagnosticSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["error"],
  "additionalProperties": false,
  "properties": {
    "error": {"$ref": "envelope.json"}
  }
}`

var (
	envelopeValidator   *jsonschema.Schema
	diagnosticValidator *jsonschema.Schema
)

func init() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("envelope.json", bytes.NewReader([]byte(envelopeSchema))); err != nil {
		panic(err)
	}
	if err := c.AddResource("diagnostic.json", bytes.NewReader([]byte(diagnosticSchema))); err != nil {
		panic(err)
	}
	envelopeValidator = c.MustCompile("envelope.json")
	diagnosticValidator = c.MustCompile("diagnostic.json")
}

// Validate checks that raw is a well-formed envelope: an object with exactly
// the keys error_type and value.
func Validate(raw []byte) error {
	return validate(envelopeValidator, raw)
}

// ValidateDiagnostic checks a {"error":<envelope>} failure string.
func ValidateDiagnostic(raw []byte) error {
	return validate(diagnosticValidator, raw)
}

func validate(s *jsonschema.Schema, raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("envelope: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("envelope: %w", err)
	}
	return nil
}
