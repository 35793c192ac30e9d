// Package schemas embeds the JSON Schemas for pulse's configuration files.
package schemas

import _ "embed"

// ConfigSchemaJSON is the JSON Schema for pulse.yaml.
//
//go:embed config.schema.json
var ConfigSchemaJSON string
