package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchemaURL = "schema://webpipe-config.json"

// configSchema describes the YAML config file. Environment variables are
// checked by Config.validate after decoding instead, since they arrive as
// strings.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "format": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "indent": {"type": "integer", "minimum": 1, "maximum": 16}
      }
    },
    "parse": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_depth": {"type": "integer", "minimum": 1}
      }
    },
    "log": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "error"]},
        "format": {"enum": ["text", "json"]}
      }
    }
  }
}`

var compiledConfigSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(configSchemaURL, strings.NewReader(configSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(configSchemaURL)
})

// validateConfigFile checks the raw values read from a config file
func validateConfigFile(path string, raw map[string]interface{}) error {
	schema, err := compiledConfigSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// Round-trip through JSON so values have the types the validator expects
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}
