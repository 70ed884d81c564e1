package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"briefcraft/internal/brief"
	"briefcraft/internal/tokens"
)

// Competitor payload budgets. The hard limit keeps the largest prompts
// inside the model context window after the rest of the prompt is added.
const (
	competitorWarnTokens = 100_000
	competitorMaxTokens  = 150_000
)

var stageSystemPrompts = map[brief.Stage]string{
	brief.StageGoal: `You are a senior SEO content strategist. Classify the search intent for the
target keyword, define the page goal, and describe the target audience.
Ground every recommendation in the competitor data provided. Respond only
with JSON matching the requested schema.`,

	brief.StageKeywords: `You are an SEO keyword strategist. Categorize the supplied keyword list into
primary and secondary keywords for one article. You must categorize ALL
supplied keywords, exactly as written. Do not invent, merge, rename, or drop
any keyword. Respond only with JSON matching the requested schema.`,

	brief.StageCompetitors: `You are an SEO competitive analyst. Analyze the competitor pages ranking for
the target keyword: shared topics, strengths, weaknesses, and the strongest
differentiation angle for a new article. Respond only with JSON matching the
requested schema.`,

	brief.StageGaps: `You are an SEO content analyst. Identify content gaps: topics and questions
the ranking competitors cover poorly or not at all, that the target audience
cares about. Respond only with JSON matching the requested schema.`,

	brief.StageFAQs: `You are an SEO content writer. Write the FAQ section for the planned
article: concise, directly answerable questions real searchers ask around
the target keyword. Respond only with JSON matching the requested schema.`,

	brief.StageOnPageSeo: `You are an on-page SEO specialist. Produce the title tag, meta description,
URL slug, and H1 for the planned article. Respect SERP display limits.
Respond only with JSON matching the requested schema.`,
}

// CompetitorContext renders the competitor records as a JSON block bounded
// by the token budget, with starred pages listed first and called out as
// ground truth.
func CompetitorContext(guard *tokens.Guard, pages []brief.CompetitorPage) string {
	if len(pages) == 0 {
		return ""
	}

	ordered := make([]brief.CompetitorPage, 0, len(pages))
	ordered = append(ordered, brief.StarredCompetitors(pages)...)
	for _, p := range pages {
		if !p.IsStarred {
			ordered = append(ordered, p)
		}
	}

	raw, err := json.Marshal(ordered)
	if err != nil {
		return ""
	}
	payload := string(raw)
	guard.CheckBudget("competitor-data", payload, competitorWarnTokens, competitorMaxTokens)
	payload = guard.Truncate(payload, competitorMaxTokens)

	var b strings.Builder
	b.WriteString("## Competitor data\n")
	if starred := brief.StarredCompetitors(pages); len(starred) > 0 {
		b.WriteString("Pages marked is_starred are user-verified ground truth. Weight them substantially above the rest.\n")
	}
	b.WriteString("```json\n")
	b.WriteString(payload)
	b.WriteString("\n```\n")
	return b.String()
}

// priorStageContext renders the completed upstream sections, with
// reasoning stripped, for inclusion in a downstream prompt.
func priorStageContext(b *brief.Brief, upTo brief.Stage) string {
	ctx := map[string]any{}
	if upTo > brief.StageGoal && b.SearchIntent != nil {
		ctx["search_intent"] = b.SearchIntent
		ctx["page_goal"] = b.PageGoal
		ctx["target_audience"] = b.TargetAudience
	}
	if upTo > brief.StageKeywords && b.KeywordStrategy != nil {
		ctx["keyword_strategy"] = b.KeywordStrategy
	}
	if upTo > brief.StageCompetitors && b.CompetitorInsights != nil {
		ctx["competitor_insights"] = b.CompetitorInsights
	}
	if upTo > brief.StageGaps && b.ContentGapAnalysis != nil {
		ctx["content_gap_analysis"] = b.ContentGapAnalysis
	}
	if upTo > brief.StageOutline && b.ArticleStructure != nil {
		ctx["article_structure"] = b.ArticleStructure
	}
	if upTo > brief.StageFAQs && len(b.FAQs) > 0 {
		ctx["faqs"] = b.FAQs
	}
	if len(ctx) == 0 {
		return ""
	}
	compact, err := brief.CompactJSON(ctx)
	if err != nil {
		return ""
	}
	return "## Brief so far\n```json\n" + compact + "\n```\n"
}

// existingOutput renders the stage's current output for regeneration
// prompts.
func existingOutput(b *brief.Brief, stage brief.Stage) string {
	var cur any
	switch stage {
	case brief.StageGoal:
		cur = map[string]any{
			"search_intent":   b.SearchIntent,
			"page_goal":       b.PageGoal,
			"target_audience": b.TargetAudience,
		}
	case brief.StageKeywords:
		cur = b.KeywordStrategy
	case brief.StageCompetitors:
		cur = b.CompetitorInsights
	case brief.StageGaps:
		cur = b.ContentGapAnalysis
	case brief.StageOutline:
		cur = b.ArticleStructure
	case brief.StageFAQs:
		cur = b.FAQs
	case brief.StageOnPageSeo:
		cur = b.OnPageSeo
	}
	raw, err := json.Marshal(cur)
	if err != nil || string(raw) == "null" {
		return ""
	}
	return "## Existing output\nModify the existing structure below to address the feedback. " +
		"Keep everything that still holds; do not recreate it from scratch.\n```json\n" + string(raw) + "\n```\n"
}

// buildUserPrompt assembles the stage user prompt from the brief, the
// competitor block, supplied keywords (stage 2), feedback, and the
// existing output when regenerating.
func buildUserPrompt(stage brief.Stage, sc StageContext, competitorBlock string) string {
	b := sc.Brief
	var sb strings.Builder

	fmt.Fprintf(&sb, "Target keyword: %s\n", b.Keyword)
	if b.Country != "" {
		fmt.Fprintf(&sb, "Country: %s\n", b.Country)
	}
	if b.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", b.Language)
	}
	sb.WriteString("\n")

	if prior := priorStageContext(b, stage); prior != "" {
		sb.WriteString(prior)
		sb.WriteString("\n")
	}

	if stage == brief.StageKeywords {
		sb.WriteString("## Supplied keywords (authoritative)\n")
		sb.WriteString("Every keyword below must appear exactly once in your answer, spelled exactly as given:\n")
		sb.WriteString(brief.FormatSuppliedKeywords(sc.SuppliedKeywords))
		sb.WriteString("\n")
	}

	if competitorBlock != "" {
		sb.WriteString(competitorBlock)
		sb.WriteString("\n")
	}

	if sc.IsRegeneration {
		if existing := existingOutput(b, stage); existing != "" {
			sb.WriteString(existing)
			sb.WriteString("\n")
		}
	}
	if sc.Feedback != "" {
		sb.WriteString("## User feedback\n")
		sb.WriteString(sc.Feedback)
		sb.WriteString("\n")
	}

	return sb.String()
}
