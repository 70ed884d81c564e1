package outline

import (
	"encoding/json"
	"fmt"
	"sync"
)

// The outline node shape, nested explicitly three levels deep because the
// backend schema language does not support recursion. Root nodes are
// hero/h2/conclusion, children h3, grandchildren h4.

const snippetTargetSchema = `{
  "type": "object",
  "properties": {
    "is_target": {"type": "boolean"},
    "format": {"type": "string", "enum": ["paragraph", "list", "table"]}
  },
  "required": ["is_target"]
}`

func nodeSchema(levels []string, children string) string {
	levelList := ""
	for i, l := range levels {
		if i > 0 {
			levelList += ", "
		}
		levelList += fmt.Sprintf("%q", l)
	}
	childrenProp := ""
	if children != "" {
		childrenProp = `,
    "children": {"type": "array", "items": ` + children + `}`
	}
	return `{
  "type": "object",
  "properties": {
    "level": {"type": "string", "enum": [` + levelList + `]},
    "heading": {"type": "string"},
    "reasoning": {"type": "string"},
    "target_word_count": {"type": "integer"},
    "guidelines": {"type": "array", "items": {"type": "string"}},
    "targeted_keywords": {"type": "array", "items": {"type": "string"}},
    "competitor_coverage": {"type": "array", "items": {"type": "string"}},
    "featured_snippet_target": ` + snippetTargetSchema + childrenProp + `
  },
  "required": ["level", "heading"]
}`
}

func treeSchema() string {
	h4 := nodeSchema([]string{"h4"}, "")
	h3 := nodeSchema([]string{"h3"}, h4)
	root := nodeSchema([]string{"hero", "h2", "conclusion"}, h3)
	return `{
  "type": "object",
  "properties": {
    "outline": {"type": "array", "items": ` + root + `},
    "total_target_word_count": {"type": "integer"}
  },
  "required": ["outline"]
}`
}

const resourceSchemaText = `{
  "type": "object",
  "properties": {
    "resources": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "heading": {"type": "string"},
          "additional_resources": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["heading", "additional_resources"]
      }
    }
  },
  "required": ["resources"]
}`

var (
	schemaOnce     sync.Once
	outlineSchema  map[string]any
	resourceSchema map[string]any
	schemaErr      error
)

func schemas() (map[string]any, map[string]any, error) {
	schemaOnce.Do(func() {
		if err := json.Unmarshal([]byte(treeSchema()), &outlineSchema); err != nil {
			schemaErr = fmt.Errorf("parse outline schema: %w", err)
			return
		}
		if err := json.Unmarshal([]byte(resourceSchemaText), &resourceSchema); err != nil {
			schemaErr = fmt.Errorf("parse resource schema: %w", err)
		}
	})
	return outlineSchema, resourceSchema, schemaErr
}
