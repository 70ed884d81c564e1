// Package validation scores a generated article against its brief and
// proposes mechanical edits, then applies selected edits to the article
// text.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"briefcraft/internal/brief"
	"briefcraft/internal/generation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const validationSchemaText = `{
  "type": "object",
  "properties": {
    "scores": {
      "type": "object",
      "properties": {
        "alignment": {"type": "integer", "minimum": 1, "maximum": 100},
        "structure": {"type": "integer", "minimum": 1, "maximum": 100},
        "keywords": {"type": "integer", "minimum": 1, "maximum": 100},
        "paragraphs": {"type": "integer", "minimum": 1, "maximum": 100},
        "word_count": {"type": "integer", "minimum": 1, "maximum": 100}
      },
      "required": ["alignment", "structure", "keywords", "paragraphs", "word_count"]
    },
    "summary": {"type": "string"},
    "proposed_changes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "type": {"type": "string"},
          "severity": {"type": "string", "enum": ["critical", "warning", "suggestion"]},
          "location": {
            "type": "object",
            "properties": {
              "sectionHeading": {"type": "string"},
              "paragraphIndex": {"type": "integer"}
            }
          },
          "description": {"type": "string"},
          "currentText": {"type": "string"},
          "proposedText": {"type": "string"},
          "reasoning": {"type": "string"}
        },
        "required": ["type", "severity", "description"]
      }
    }
  },
  "required": ["scores", "proposed_changes"]
}`

var (
	schemaOnce       sync.Once
	validationSchema map[string]any
	schemaErr        error
)

func schema() (map[string]any, error) {
	schemaOnce.Do(func() {
		schemaErr = json.Unmarshal([]byte(validationSchemaText), &validationSchema)
	})
	return validationSchema, schemaErr
}

const initialSystemPrompt = `You are an exacting content editor. Score the article against its brief in
five categories (1-100 each): brief alignment, structure, keyword usage,
paragraph quality, and word-count fit. Propose concrete edits as changes;
when an edit is mechanical, include the exact currentText to replace and the
exact proposedText. Order changes most important first. Respond only with
JSON matching the requested schema.`

const followUpSystemPrompt = `You are an exacting content editor running a follow-up review. You are
given the prior validation result and new user instructions. Produce updated
scores and changes: retain every prior change that has not been addressed,
and add new changes for the new instructions. Respond only with JSON
matching the requested schema.`

// Request is one validation run. A non-nil Prior switches the engine to
// follow-up mode.
type Request struct {
	Brief   *brief.Brief
	Article string

	// LengthConstraints describes the word-target expectations, e.g.
	// "global target 1500 words, strict mode".
	LengthConstraints string

	// Instructions are optional free-text user instructions.
	Instructions string

	Prior *brief.ValidationResult
}

// Engine runs validation passes.
type Engine struct {
	client *generation.Client
	logger *zap.Logger
}

// NewEngine creates a validation engine on the shared client.
func NewEngine(client *generation.Client, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{client: client, logger: logger}
}

// Validate runs an initial or follow-up validation pass and returns
// ordered, critical-first proposed changes plus category scores.
func (e *Engine) Validate(ctx context.Context, req Request) (*brief.ValidationResult, error) {
	if req.Brief == nil {
		return nil, fmt.Errorf("nil brief")
	}
	if strings.TrimSpace(req.Article) == "" {
		return nil, fmt.Errorf("empty article")
	}
	sch, err := schema()
	if err != nil {
		return nil, err
	}

	systemPrompt := initialSystemPrompt
	op := "validation-initial"
	if req.Prior != nil {
		systemPrompt = followUpSystemPrompt
		op = "validation-follow-up"
	}

	var result brief.ValidationResult
	err = e.client.GenerateJSON(ctx, generation.GenRequest{
		Op:           op,
		Tier:         generation.TierMain,
		SystemPrompt: systemPrompt,
		UserPrompt:   e.buildPrompt(req),
		Schema:       sch,
		Effort:       generation.EffortHigh,
	}, &result)
	if err != nil {
		return nil, err
	}

	for i := range result.Changes {
		if result.Changes[i].ID == "" {
			result.Changes[i].ID = uuid.New().String()
		}
	}

	if req.Prior != nil {
		result.Changes = mergePriorChanges(req.Prior.Changes, result.Changes)
	}

	sort.SliceStable(result.Changes, func(i, j int) bool {
		return result.Changes[i].Severity.Rank() < result.Changes[j].Severity.Rank()
	})

	// The overall score is computed here, never trusted from the model.
	result.OverallScore = result.Scores.Overall()

	e.logger.Info("validation pass complete",
		zap.String("op", op),
		zap.Float64("overall", result.OverallScore),
		zap.Int("changes", len(result.Changes)))
	return &result, nil
}

func (e *Engine) buildPrompt(req Request) string {
	var sb strings.Builder

	if briefCtx, err := brief.CompactJSON(req.Brief); err == nil {
		sb.WriteString("## Brief\n```json\n" + briefCtx + "\n```\n\n")
	}
	if req.LengthConstraints != "" {
		sb.WriteString("## Length constraints\n" + req.LengthConstraints + "\n\n")
	}
	if req.Prior != nil {
		if prior, err := json.Marshal(req.Prior); err == nil {
			sb.WriteString("## Prior validation result\nRetain any change below that the article still does not address.\n")
			sb.WriteString("```json\n" + string(prior) + "\n```\n\n")
		}
	}
	if req.Instructions != "" {
		sb.WriteString("## User instructions\n" + req.Instructions + "\n\n")
	}
	sb.WriteString("## Article\n" + req.Article + "\n")
	return sb.String()
}

// mergePriorChanges keeps prior changes the follow-up pass dropped without
// addressing, identified by id. New changes win on id collision.
func mergePriorChanges(prior, updated []brief.ProposedChange) []brief.ProposedChange {
	seen := make(map[string]struct{}, len(updated))
	for _, c := range updated {
		seen[c.ID] = struct{}{}
	}
	out := updated
	for _, c := range prior {
		if _, ok := seen[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}
