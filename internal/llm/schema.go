package llm

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const roundsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["analysis", "suggestions"],
  "properties": {
    "analysis": {"type": "string", "minLength": 1},
    "suggestions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["position", "risk"],
        "properties": {
          "position": {"type": "string", "minLength": 1},
          "yield": {"type": "string"},
          "probability": {"type": "number", "minimum": 0, "maximum": 100},
          "risk": {"enum": ["Low", "Medium", "High"]}
        }
      }
    },
    "predictions": {
      "type": "array",
      "items": {"type": "number", "exclusiveMinimum": 0}
    },
    "extractedData": {"type": "string"}
  }
}`

const fairnessSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["analysisDetails", "signalTime", "timeRange", "duration", "expectedTarget", "riskLevel"],
  "properties": {
    "analysisDetails": {"type": "string", "minLength": 1},
    "signalTime": {"type": "string"},
    "timeRange": {"type": "string"},
    "duration": {"type": "string"},
    "expectedTarget": {"type": "string"},
    "riskLevel": {"type": "string", "pattern": "^(Low|Medium|High)"}
  }
}`

var (
	roundsSchema   = mustCompileSchema("rounds.json", roundsSchemaJSON)
	fairnessSchema = mustCompileSchema("fairness.json", fairnessSchemaJSON)
)

func compileSchema(name, raw string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

func mustCompileSchema(name, raw string) *jsonschema.Schema {
	schema, err := compileSchema(name, raw)
	if err != nil {
		panic(fmt.Sprintf("invalid schema %s: %v", name, err))
	}
	return schema
}
