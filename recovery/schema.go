package recovery

import (
	"fmt"
	"strings"

	"github.com/rickchristie/refine/node"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// draftSchemaJSON accepts any object that looks like a draft. Fields are optional because
// producers routinely omit some of them; types are checked where they are present.
const draftSchemaJSON = `{
  "type": "object",
  "properties": {
    "title":    {"type": ["string", "null"]},
    "subtitle": {"type": ["string", "null"]},
    "sections": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "section_title":   {"type": ["string", "null"]},
          "section_bullets": {"type": ["array", "null"]}
        }
      }
    }
  },
  "anyOf": [
    {"required": ["title"]},
    {"required": ["subtitle"]},
    {"required": ["sections"]}
  ]
}`

// critiqueSchemaJSON accepts any object that looks like a critique. A rating may arrive as a
// number or a numeric string.
const critiqueSchemaJSON = `{
  "type": "object",
  "properties": {
    "rating":   {"type": ["integer", "number", "string", "null"]},
    "comments": {"type": ["array", "null"]},
    "summary":  {"type": ["string", "null"]}
  },
  "anyOf": [
    {"required": ["rating"]},
    {"required": ["comments"]},
    {"required": ["summary"]}
  ]
}`

var (
	draftSchema    = mustCompile("draft.json", draftSchemaJSON)
	critiqueSchema = mustCompile("critique.json", critiqueSchemaJSON)
)

// ValidationError wraps a JSON Schema validation error with a cleaner message.
type ValidationError struct {
	// Record names the record kind that failed validation ("draft" or "critique").
	Record string

	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s schema validation failed: %v", e.Record, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// compile compiles a JSON Schema document registered under the given resource name.
func compile(name, src string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

func mustCompile(name, src string) *jsonschema.Schema {
	s, err := compile(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

func validate(s *jsonschema.Schema, record string, tree *node.Node) error {
	if err := s.Validate(tree.Any()); err != nil {
		return &ValidationError{Record: record, Err: err}
	}
	return nil
}
