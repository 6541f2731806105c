package common

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// ParseJSON extracts and unmarshals a JSON object from an LLM response.
// It tolerates surrounding prose and markdown fences, and as a last
// resort repairs malformed JSON before giving up.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end <= start {
		return zero, fmt.Errorf("no JSON object found in response")
	}
	jsonStr := response[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err == nil {
		return result, nil
	}

	repaired, err := jsonrepair.JSONRepair(jsonStr)
	if err != nil {
		return zero, fmt.Errorf("failed to repair JSON: %w", err)
	}
	var repairedResult T
	if err := json.Unmarshal([]byte(repaired), &repairedResult); err != nil {
		return zero, fmt.Errorf("failed to unmarshal repaired JSON: %w", err)
	}
	return repairedResult, nil
}

// GenerateSchema reflects a JSON schema from a Go type, inlined and with
// additional properties forbidden, the shape structured-output prompts
// want.
func GenerateSchema(value any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflector.Reflect(reflect.New(t).Interface())
}
