package stages

import (
	"encoding/json"
	"fmt"
	"sync"

	"briefcraft/internal/brief"
)

// Stage response schemas, kept as JSON literals and parsed once. These
// shapes are the binding contract between the orchestrator and the
// generation client; change them together with the payload structs.

const reasoningItemSchema = `{
  "type": "object",
  "properties": {
    "value": {"type": "string"},
    "reasoning": {"type": "string"}
  },
  "required": ["value", "reasoning"]
}`

var goalSchema = `{
  "type": "object",
  "properties": {
    "search_intent": {
      "type": "object",
      "properties": {
        "primary_intent": ` + reasoningItemSchema + `,
        "intent_signals": {"type": "array", "items": {"type": "string"}},
        "snippet_opportunity": ` + reasoningItemSchema + `
      },
      "required": ["primary_intent"]
    },
    "page_goal": {
      "type": "object",
      "properties": {
        "goal": ` + reasoningItemSchema + `,
        "call_to_action": ` + reasoningItemSchema + `
      },
      "required": ["goal"]
    },
    "target_audience": {
      "type": "object",
      "properties": {
        "persona": ` + reasoningItemSchema + `,
        "pain_points": {"type": "array", "items": ` + reasoningItemSchema + `},
        "expertise_level": ` + reasoningItemSchema + `
      },
      "required": ["persona"]
    }
  },
  "required": ["search_intent", "page_goal", "target_audience"]
}`

var keywordsSchema = `{
  "type": "object",
  "properties": {
    "primary_keywords": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "keyword": {"type": "string"},
          "notes": {"type": "string"}
        },
        "required": ["keyword", "notes"]
      }
    },
    "secondary_keywords": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "keyword": {"type": "string"},
          "notes": {"type": "string"}
        },
        "required": ["keyword", "notes"]
      }
    }
  },
  "required": ["primary_keywords", "secondary_keywords"]
}`

var competitorsSchema = `{
  "type": "object",
  "properties": {
    "common_topics": {"type": "array", "items": ` + reasoningItemSchema + `},
    "strengths": {"type": "array", "items": ` + reasoningItemSchema + `},
    "weaknesses": {"type": "array", "items": ` + reasoningItemSchema + `},
    "differentiation_angle": ` + reasoningItemSchema + `
  },
  "required": ["common_topics", "differentiation_angle"]
}`

var gapsSchema = `{
  "type": "object",
  "properties": {
    "gaps": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "topic": {"type": "string"},
          "opportunity": {"type": "string"},
          "reasoning": {"type": "string"}
        },
        "required": ["topic", "opportunity"]
      }
    },
    "unanswered_questions": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["gaps"]
}`

var faqsSchema = `{
  "type": "object",
  "properties": {
    "faqs": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "question": {"type": "string"},
          "answer": {"type": "string"},
          "reasoning": {"type": "string"}
        },
        "required": ["question", "answer"]
      }
    }
  },
  "required": ["faqs"]
}`

var onPageSeoSchema = `{
  "type": "object",
  "properties": {
    "title_tag": ` + reasoningItemSchema + `,
    "meta_description": ` + reasoningItemSchema + `,
    "url_slug": ` + reasoningItemSchema + `,
    "h1": ` + reasoningItemSchema + `
  },
  "required": ["title_tag", "meta_description", "url_slug", "h1"]
}`

var (
	schemaOnce   sync.Once
	stageSchemas map[brief.Stage]map[string]any
	schemaErr    error
)

// SchemaFor returns the parsed response schema for a stage. The outline
// stage has no single schema here; it delegates to the enrichment
// pipeline's per-pass schemas.
func SchemaFor(stage brief.Stage) (map[string]any, error) {
	schemaOnce.Do(func() {
		raw := map[brief.Stage]string{
			brief.StageGoal:        goalSchema,
			brief.StageKeywords:    keywordsSchema,
			brief.StageCompetitors: competitorsSchema,
			brief.StageGaps:        gapsSchema,
			brief.StageFAQs:        faqsSchema,
			brief.StageOnPageSeo:   onPageSeoSchema,
		}
		stageSchemas = make(map[brief.Stage]map[string]any, len(raw))
		for s, text := range raw {
			var m map[string]any
			if err := json.Unmarshal([]byte(text), &m); err != nil {
				schemaErr = fmt.Errorf("parse %s schema: %w", s, err)
				return
			}
			stageSchemas[s] = m
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	m, ok := stageSchemas[stage]
	if !ok {
		return nil, fmt.Errorf("no schema for stage %s", stage)
	}
	return m, nil
}
