package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parseTarget struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestParseJSONPlainObject(t *testing.T) {
	got, err := ParseJSON[parseTarget](`{"name": "Ada", "age": 36}`)
	require.NoError(t, err)
	assert.Equal(t, parseTarget{Name: "Ada", Age: 36}, got)
}

func TestParseJSONStripsFencesAndProse(t *testing.T) {
	response := "Sure, here is the extraction:\n```json\n{\"name\": \"Ada\", \"age\": 36}\n```\nLet me know if you need more."
	got, err := ParseJSON[parseTarget](response)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

func TestParseJSONRepairsMalformedOutput(t *testing.T) {
	// Unquoted keys and a trailing comma, the usual model artifacts.
	got, err := ParseJSON[parseTarget](`{name: "Ada", age: 36,}`)
	require.NoError(t, err)
	assert.Equal(t, parseTarget{Name: "Ada", Age: 36}, got)
}

func TestParseJSONRejectsNonJSON(t *testing.T) {
	_, err := ParseJSON[parseTarget]("I could not find any structured data.")
	assert.Error(t, err)
}

func TestGenerateSchemaForbidsExtraProperties(t *testing.T) {
	schema := GenerateSchema(parseTarget{})
	data, err := json.Marshal(schema)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, false, doc["additionalProperties"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "age")
}
