package content

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// moduleSchema describes one module file. It rejects unknown keys so that a
// typo such as "corect: true" fails loudly instead of producing a question
// without a correct answer.
const moduleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["id", "title"],
  "properties": {
    "id": {"type": "integer", "minimum": 1},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "icon": {"type": "string"},
    "coming_soon": {"type": "boolean"},
    "learn": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["heading"],
        "properties": {
          "heading": {"type": "string", "minLength": 1},
          "body": {"type": "string"},
          "items": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["title", "text"],
              "properties": {
                "label": {"type": "string"},
                "title": {"type": "string"},
                "text": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "visualize": {
      "type": "object",
      "additionalProperties": false,
      "required": ["title", "bars"],
      "properties": {
        "title": {"type": "string"},
        "intro": {"type": "string"},
        "unit": {"type": "string"},
        "max": {"type": "number", "minimum": 0},
        "bars": {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["label", "value"],
            "properties": {
              "label": {"type": "string"},
              "value": {"type": "number", "minimum": 0},
              "color": {"type": "string"}
            }
          }
        },
        "callout": {
          "type": "object",
          "additionalProperties": false,
          "required": ["heading", "body"],
          "properties": {
            "heading": {"type": "string"},
            "body": {"type": "string"}
          }
        }
      }
    },
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["prompt", "options", "explanation"],
        "properties": {
          "prompt": {"type": "string", "minLength": 1},
          "explanation": {"type": "string"},
          "options": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["text", "correct"],
              "properties": {
                "text": {"type": "string", "minLength": 1},
                "correct": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	compiledSchema     *gojsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func schema() (*gojsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiledSchema, compiledSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(moduleSchema))
	})
	return compiledSchema, compiledSchemaErr
}

// checkSchema validates a decoded module document and returns one problem
// per schema violation.
func checkSchema(source string, doc any) ([]Problem, error) {
	s, err := schema()
	if err != nil {
		return nil, fmt.Errorf("compiling module schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", source, err)
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]Problem, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, Problem{
			Source:  source,
			Path:    re.Field(),
			Message: re.Description(),
		})
	}
	return problems, nil
}
