// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, SchemaID, schema["$id"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"surface", "log", "serve", "scripts", "palette"} {
		assert.Contains(t, props, key)
	}
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{name: "empty", yaml: ""},
		{name: "full", yaml: `
surface:
  width: 100
  height: 30
  foreground: "#eeeeee"
  background: black
log:
  format: text
  level: debug
serve:
  addr: ":9180"
scripts: [a.lua, b.lua]
palette:
  ember: "200,80,20"
`},
		{name: "unknown top-level key", yaml: "theme: dark\n", wantErr: true},
		{name: "unknown nested key", yaml: "surface:\n  depth: 3\n", wantErr: true},
		{name: "negative width", yaml: "surface:\n  width: -1\n", wantErr: true},
		{name: "palette value not a string", yaml: "palette:\n  ember: [1, 2]\n", wantErr: true},
		{name: "scripts not a list", yaml: "scripts: a.lua\n", wantErr: true},
		{name: "bad level", yaml: "log:\n  level: trace\n", wantErr: true},
		{name: "invalid yaml", yaml: "log: {\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFormatSchemaError(t *testing.T) {
	assert.Equal(t, "", FormatSchemaError(nil))

	err := ValidateSchema([]byte("theme: dark\n"))
	require.Error(t, err)
	msg := FormatSchemaError(err)
	assert.Contains(t, msg, "theme")
	assert.NotContains(t, msg, "invalid YAML")
}
