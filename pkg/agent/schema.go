package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaError reports a model response that failed schema validation. The
// pipeline treats it as fatal for the stage: there is no fallback reply
// synthesized from a malformed payload.
type SchemaError struct {
	Agent string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("agent %s produced an invalid response: %v", e.Agent, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// mustCompileSchema compiles a static schema literal. Schemas ship with the
// binary, so a compile failure is a programming error.
func mustCompileSchema(name, text string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name+".json", doc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name + ".json")
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return schema
}

// decodeValidated strips any markdown fencing from raw, validates the JSON
// against schema, and unmarshals it into target.
func decodeValidated(agentName string, schema *jsonschema.Schema, raw string, target any) error {
	cleaned := stripFences(raw)

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(cleaned))
	if err != nil {
		return &SchemaError{Agent: agentName, Err: fmt.Errorf("not valid JSON: %w", err)}
	}
	if err := schema.Validate(doc); err != nil {
		return &SchemaError{Agent: agentName, Err: err}
	}
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return &SchemaError{Agent: agentName, Err: err}
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag. Models emit these even under JSON response mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "json" || first == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
