// Package stages owns the seven-stage dependency graph: prerequisite
// checks, staleness propagation, per-stage prompt and schema selection, and
// merging stage results back into the brief.
package stages

import (
	"context"
	"fmt"
	"sync"

	"briefcraft/internal/brief"
	"briefcraft/internal/generation"
	"briefcraft/internal/outline"
	"briefcraft/internal/tokens"

	"go.uber.org/zap"
)

// StageError scopes a failure to one stage. The brief is left unchanged
// for that stage; other stages' data is untouched.
type StageError struct {
	Stage brief.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageContext carries everything a stage run needs beyond the brief
// itself.
type StageContext struct {
	Brief            *brief.Brief
	SuppliedKeywords []brief.SuppliedKeyword

	// TemplateOutline optionally seeds the outline skeleton pass.
	TemplateOutline []*brief.OutlineItem

	Feedback       string
	IsRegeneration bool
}

// Result is a partial brief update produced by one stage run. Only the
// fields belonging to the stage are set.
type Result struct {
	Stage          brief.Stage
	IsRegeneration bool

	SearchIntent       *brief.SearchIntent
	PageGoal           *brief.PageGoal
	TargetAudience     *brief.TargetAudience
	KeywordStrategy    *brief.KeywordStrategy
	CompetitorInsights *brief.CompetitorInsights
	ContentGapAnalysis *brief.ContentGapAnalysis
	ArticleStructure   *brief.ArticleStructure
	FAQs               []brief.FAQ
	OnPageSeo          *brief.OnPageSeo
}

// Apply merges the result into the brief and updates staleness: the run
// stage's bit clears, and a regeneration marks every downstream stage
// stale. Nothing else changes.
func (r *Result) Apply(b *brief.Brief) {
	switch r.Stage {
	case brief.StageGoal:
		b.SearchIntent = r.SearchIntent
		b.PageGoal = r.PageGoal
		b.TargetAudience = r.TargetAudience
	case brief.StageKeywords:
		b.KeywordStrategy = r.KeywordStrategy
	case brief.StageCompetitors:
		b.CompetitorInsights = r.CompetitorInsights
	case brief.StageGaps:
		b.ContentGapAnalysis = r.ContentGapAnalysis
	case brief.StageOutline:
		b.ArticleStructure = r.ArticleStructure
	case brief.StageFAQs:
		b.FAQs = r.FAQs
	case brief.StageOnPageSeo:
		b.OnPageSeo = r.OnPageSeo
	}
	if r.IsRegeneration {
		b.Staleness.MarkDownstream(r.Stage)
	} else {
		b.Staleness.Clear(r.Stage)
	}
}

// stageEffort tunes thinking depth per stage. Analysis-heavy stages get
// more budget; list-shaped stages need less.
var stageEffort = map[brief.Stage]generation.Effort{
	brief.StageGoal:        generation.EffortHigh,
	brief.StageKeywords:    generation.EffortMedium,
	brief.StageCompetitors: generation.EffortHigh,
	brief.StageGaps:        generation.EffortHigh,
	brief.StageFAQs:        generation.EffortMedium,
	brief.StageOnPageSeo:   generation.EffortLow,
}

// Orchestrator runs stages against the generation client. Writes to the
// same brief id are serialized; distinct briefs run independently.
type Orchestrator struct {
	client  *generation.Client
	guard   *tokens.Guard
	outline *outline.Pipeline
	logger  *zap.Logger

	locks sync.Map // brief id -> *sync.Mutex
}

// New creates an orchestrator.
func New(client *generation.Client, guard *tokens.Guard, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:  client,
		guard:   guard,
		outline: outline.NewPipeline(client, logger),
		logger:  logger,
	}
}

func (o *Orchestrator) lockFor(briefID string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(briefID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// MissingPrerequisites returns the upstream stages that still lack data.
// Stage N may only run once all of stages 1..N-1 hold brief data.
func MissingPrerequisites(b *brief.Brief, stage brief.Stage) []brief.Stage {
	var missing []brief.Stage
	for s := brief.StageGoal; s < stage; s++ {
		if !b.HasStage(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// RunStage generates one stage and returns the partial brief update. The
// brief passed in is read-only context; callers apply the result.
func (o *Orchestrator) RunStage(ctx context.Context, stage brief.Stage, sc StageContext) (*Result, error) {
	if !stage.Valid() {
		return nil, &StageError{Stage: stage, Err: fmt.Errorf("unknown stage")}
	}
	if sc.Brief == nil {
		return nil, &StageError{Stage: stage, Err: fmt.Errorf("nil brief")}
	}

	mu := o.lockFor(sc.Brief.ID)
	mu.Lock()
	defer mu.Unlock()

	if missing := MissingPrerequisites(sc.Brief, stage); len(missing) > 0 {
		return nil, &StageError{Stage: stage, Err: fmt.Errorf("prerequisite stages missing data: %v", missing)}
	}

	o.logger.Info("running stage",
		zap.String("brief", sc.Brief.ID),
		zap.Stringer("stage", stage),
		zap.Bool("regeneration", sc.IsRegeneration))

	result := &Result{Stage: stage, IsRegeneration: sc.IsRegeneration}

	if stage == brief.StageOutline {
		structure, err := o.outline.Run(ctx, outline.Input{
			Brief:           sc.Brief,
			Template:        sc.TemplateOutline,
			Feedback:        sc.Feedback,
			IsRegeneration:  sc.IsRegeneration,
			CompetitorBlock: CompetitorContext(o.guard, sc.Brief.Competitors),
		})
		if err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		result.ArticleStructure = structure
		return result, nil
	}

	schema, err := SchemaFor(stage)
	if err != nil {
		return nil, &StageError{Stage: stage, Err: err}
	}

	req := generation.GenRequest{
		Op:           stage.String(),
		Tier:         generation.TierMain,
		SystemPrompt: stageSystemPrompts[stage],
		UserPrompt:   buildUserPrompt(stage, sc, CompetitorContext(o.guard, sc.Brief.Competitors)),
		Schema:       schema,
		Effort:       stageEffort[stage],
	}

	switch stage {
	case brief.StageGoal:
		var payload struct {
			SearchIntent   *brief.SearchIntent   `json:"search_intent"`
			PageGoal       *brief.PageGoal       `json:"page_goal"`
			TargetAudience *brief.TargetAudience `json:"target_audience"`
		}
		if err := o.client.GenerateJSON(ctx, req, &payload); err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		result.SearchIntent = payload.SearchIntent
		result.PageGoal = payload.PageGoal
		result.TargetAudience = payload.TargetAudience

	case brief.StageKeywords:
		var strategy brief.KeywordStrategy
		if err := o.client.GenerateJSON(ctx, req, &strategy); err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		supplied := make([]string, len(sc.SuppliedKeywords))
		for i, kw := range sc.SuppliedKeywords {
			supplied[i] = kw.Keyword
		}
		if err := brief.VerifyKeywordIdentity(&strategy, supplied); err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		result.KeywordStrategy = &strategy

	case brief.StageCompetitors:
		var insights brief.CompetitorInsights
		if err := o.client.GenerateJSON(ctx, req, &insights); err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		result.CompetitorInsights = &insights

	case brief.StageGaps:
		var gaps brief.ContentGapAnalysis
		if err := o.client.GenerateJSON(ctx, req, &gaps); err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		result.ContentGapAnalysis = &gaps

	case brief.StageFAQs:
		var payload struct {
			FAQs []brief.FAQ `json:"faqs"`
		}
		if err := o.client.GenerateJSON(ctx, req, &payload); err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		result.FAQs = payload.FAQs

	case brief.StageOnPageSeo:
		var seo brief.OnPageSeo
		if err := o.client.GenerateJSON(ctx, req, &seo); err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		result.OnPageSeo = &seo
	}

	return result, nil
}
