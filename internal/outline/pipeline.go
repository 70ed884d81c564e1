// Package outline builds the nested article outline through three
// sequential schema-constrained passes: skeleton, enrichment, and
// resource analysis. One generation call cannot reliably carry all three
// concerns at once, so each pass consumes the prior pass's full output.
package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"briefcraft/internal/brief"
	"briefcraft/internal/generation"

	"go.uber.org/zap"
)

// Input is the outline stage context.
type Input struct {
	Brief *brief.Brief

	// Template optionally seeds the skeleton with an externally supplied
	// heading tree. The skeleton pass adapts the hierarchy rather than
	// discarding it.
	Template []*brief.OutlineItem

	Feedback        string
	IsRegeneration  bool
	CompetitorBlock string
}

// Pipeline runs the three outline passes.
type Pipeline struct {
	client *generation.Client
	logger *zap.Logger
}

// NewPipeline creates an outline pipeline on the shared client.
func NewPipeline(client *generation.Client, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{client: client, logger: logger}
}

// treePayload is the wire shape of passes 1 and 2.
type treePayload struct {
	Outline              []*brief.OutlineItem `json:"outline"`
	TotalTargetWordCount int                  `json:"total_target_word_count"`
}

// Run executes the pipeline and returns the normalized article structure.
func (p *Pipeline) Run(ctx context.Context, in Input) (*brief.ArticleStructure, error) {
	treeSchema, resSchema, err := schemas()
	if err != nil {
		return nil, err
	}

	skeleton, err := p.runSkeleton(ctx, in, treeSchema)
	if err != nil {
		return nil, fmt.Errorf("skeleton pass: %w", err)
	}

	enriched, err := p.runEnrichment(ctx, in, skeleton, treeSchema)
	if err != nil {
		return nil, fmt.Errorf("enrichment pass: %w", err)
	}

	// The resource pass is non-critical: on failure the enriched tree is
	// returned unmodified.
	if err := p.runResourceAnalysis(ctx, enriched, resSchema); err != nil {
		p.logger.Warn("resource-analysis pass failed, keeping enriched outline", zap.Error(err))
	}

	enriched.Outline = brief.Normalize(enriched.Outline)
	return &brief.ArticleStructure{
		Items:                enriched.Outline,
		TotalTargetWordCount: enriched.TotalTargetWordCount,
	}, nil
}

const skeletonSystemPrompt = `You are a senior content architect. Design the heading structure for one
article: a hero/introduction, H2 sections (with H3 and, sparingly, H4
children), and a conclusion. Populate heading, level, reasoning, and
target_word_count for every node. Leave guidelines, targeted_keywords, and
competitor_coverage empty; a later pass fills them. Mark exactly one node
across the whole tree as the featured snippet target (is_target true) based
on the search intent classification. Respond only with JSON matching the
requested schema.`

func (p *Pipeline) runSkeleton(ctx context.Context, in Input, schema map[string]any) (*treePayload, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Target keyword: %s\n\n", in.Brief.Keyword)

	if briefCtx, err := brief.CompactJSON(map[string]any{
		"search_intent":        in.Brief.SearchIntent,
		"page_goal":            in.Brief.PageGoal,
		"target_audience":      in.Brief.TargetAudience,
		"keyword_strategy":     in.Brief.KeywordStrategy,
		"competitor_insights":  in.Brief.CompetitorInsights,
		"content_gap_analysis": in.Brief.ContentGapAnalysis,
	}); err == nil {
		sb.WriteString("## Brief so far\n```json\n" + briefCtx + "\n```\n\n")
	}

	if len(in.Template) > 0 {
		if tpl, err := json.Marshal(in.Template); err == nil {
			sb.WriteString("## Template heading tree\n")
			sb.WriteString("Adapt this provided hierarchy to the brief. Keep its overall shape; adjust, rename, or extend headings where the brief demands it. Do not discard it.\n")
			sb.WriteString("```json\n" + string(tpl) + "\n```\n\n")
		}
	}

	if in.IsRegeneration && in.Brief.ArticleStructure != nil {
		if cur, err := json.Marshal(in.Brief.ArticleStructure.Items); err == nil {
			sb.WriteString("## Existing outline\nModify the existing structure, do not recreate it from scratch.\n")
			sb.WriteString("```json\n" + string(cur) + "\n```\n\n")
		}
	}
	if in.Feedback != "" {
		sb.WriteString("## User feedback\n" + in.Feedback + "\n")
	}

	var payload treePayload
	err := p.client.GenerateJSON(ctx, generation.GenRequest{
		Op:           "outline-skeleton",
		Tier:         generation.TierMain,
		SystemPrompt: skeletonSystemPrompt,
		UserPrompt:   sb.String(),
		Schema:       schema,
		Effort:       generation.EffortHigh,
	}, &payload)
	if err != nil {
		return nil, err
	}

	// The skeleton carries structure only; enrichment fields start empty
	// regardless of what the model emitted.
	brief.Walk(payload.Outline, func(it *brief.OutlineItem) bool {
		it.Guidelines = nil
		it.TargetedKeywords = nil
		it.CompetitorCoverage = nil
		it.AdditionalResources = nil
		return true
	})

	payload.Outline = brief.Normalize(payload.Outline)
	if err := brief.ValidateDepth(payload.Outline); err != nil {
		return nil, err
	}
	brief.ClampSnippetTargets(payload.Outline)
	return &payload, nil
}

const enrichmentSystemPrompt = `You are a senior SEO content strategist. You are given a fixed article
outline. For every node, including nested children, populate guidelines
(what the section must cover), targeted_keywords (drawn from the keyword
strategy), and competitor_coverage (which competitors cover this and how
well). Do not alter headings, levels, ordering, or nesting. Respond only
with JSON matching the requested schema.`

func (p *Pipeline) runEnrichment(ctx context.Context, in Input, skeleton *treePayload, schema map[string]any) (*treePayload, error) {
	skeletonJSON, err := json.Marshal(skeleton)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Target keyword: %s\n\n", in.Brief.Keyword)
	if briefCtx, err := brief.CompactJSON(map[string]any{
		"search_intent":        in.Brief.SearchIntent,
		"page_goal":            in.Brief.PageGoal,
		"target_audience":      in.Brief.TargetAudience,
		"keyword_strategy":     in.Brief.KeywordStrategy,
		"competitor_insights":  in.Brief.CompetitorInsights,
		"content_gap_analysis": in.Brief.ContentGapAnalysis,
	}); err == nil {
		sb.WriteString("## Brief so far\n```json\n" + briefCtx + "\n```\n\n")
	}
	if in.CompetitorBlock != "" {
		sb.WriteString(in.CompetitorBlock)
		sb.WriteString("\n")
	}
	sb.WriteString("## Outline to enrich\n```json\n" + string(skeletonJSON) + "\n```\n")

	var payload treePayload
	err = p.client.GenerateJSON(ctx, generation.GenRequest{
		Op:           "outline-enrichment",
		Tier:         generation.TierMain,
		SystemPrompt: enrichmentSystemPrompt,
		UserPrompt:   sb.String(),
		Schema:       schema,
		Effort:       generation.EffortHigh,
	}, &payload)
	if err != nil {
		return nil, err
	}

	payload.Outline = brief.Normalize(payload.Outline)
	if err := brief.ValidateDepth(payload.Outline); err != nil {
		return nil, err
	}

	// Enrichment must not change the structure. Copy the enrichment
	// fields onto the skeleton tree node by node so the skeleton's
	// headings and ids survive verbatim.
	skelNodes := brief.FlattenSections(skeleton.Outline)
	enrichedNodes := brief.FlattenSections(payload.Outline)
	if len(enrichedNodes) != len(skelNodes) {
		return nil, fmt.Errorf("enrichment altered outline structure: %d nodes became %d", len(skelNodes), len(enrichedNodes))
	}
	for i, node := range skelNodes {
		node.Guidelines = enrichedNodes[i].Guidelines
		node.TargetedKeywords = enrichedNodes[i].TargetedKeywords
		node.CompetitorCoverage = enrichedNodes[i].CompetitorCoverage
	}

	if payload.TotalTargetWordCount == 0 {
		payload.TotalTargetWordCount = skeleton.TotalTargetWordCount
	}
	return &treePayload{
		Outline:              skeleton.Outline,
		TotalTargetWordCount: payload.TotalTargetWordCount,
	}, nil
}

const resourceSystemPrompt = `You review article outlines for non-text asset needs. For each section
whose guidelines imply an infographic, diagram, comparison table, video,
calculator, or similar asset, list it under additional_resources. Only
include sections that genuinely need an asset. Respond only with JSON
matching the requested schema.`

type resourcePayload struct {
	Resources []struct {
		Heading             string   `json:"heading"`
		AdditionalResources []string `json:"additional_resources"`
	} `json:"resources"`
}

func (p *Pipeline) runResourceAnalysis(ctx context.Context, tree *treePayload, schema map[string]any) error {
	treeJSON, err := json.Marshal(tree.Outline)
	if err != nil {
		return err
	}

	var payload resourcePayload
	err = p.client.WithRetryPolicy(generation.ResourcePassPolicy()).GenerateJSON(ctx, generation.GenRequest{
		Op:           "outline-resources",
		Tier:         generation.TierFast,
		SystemPrompt: resourceSystemPrompt,
		UserPrompt:   "## Enriched outline\n```json\n" + string(treeJSON) + "\n```\n",
		Schema:       schema,
		Effort:       generation.EffortMinimal,
	}, &payload)
	if err != nil {
		return err
	}

	byHeading := make(map[string][]string, len(payload.Resources))
	for _, r := range payload.Resources {
		byHeading[r.Heading] = r.AdditionalResources
	}
	brief.Walk(tree.Outline, func(it *brief.OutlineItem) bool {
		if res, ok := byHeading[it.Heading]; ok && len(res) > 0 {
			it.AdditionalResources = res
		}
		return true
	})
	return nil
}
