// Package brief defines the content-brief data model: the nine brief
// sections, the recursive outline tree, keyword strategy, competitor
// records, and validation changes. All generation stages read from and
// write into a Brief.
package brief

import "time"

// ReasoningItem pairs a substantive value with the model's reasoning for
// recommending it. Reasoning is always droppable without losing the value.
type ReasoningItem[T any] struct {
	Value     T      `json:"value"`
	Reasoning string `json:"reasoning,omitempty"`
}

// SearchIntent is the stage-1 intent classification.
type SearchIntent struct {
	PrimaryIntent      ReasoningItem[string] `json:"primary_intent"`
	IntentSignals      []string              `json:"intent_signals,omitempty"`
	SnippetOpportunity ReasoningItem[string] `json:"snippet_opportunity,omitempty"`
}

// PageGoal describes what the page should accomplish for the reader.
type PageGoal struct {
	Goal         ReasoningItem[string] `json:"goal"`
	CallToAction ReasoningItem[string] `json:"call_to_action,omitempty"`
}

// TargetAudience describes who the article is written for.
type TargetAudience struct {
	Persona        ReasoningItem[string]   `json:"persona"`
	PainPoints     []ReasoningItem[string] `json:"pain_points,omitempty"`
	ExpertiseLevel ReasoningItem[string]   `json:"expertise_level,omitempty"`
}

// CompetitorInsights summarizes what the ranking competition does.
type CompetitorInsights struct {
	CommonTopics         []ReasoningItem[string] `json:"common_topics,omitempty"`
	Strengths            []ReasoningItem[string] `json:"strengths,omitempty"`
	Weaknesses           []ReasoningItem[string] `json:"weaknesses,omitempty"`
	DifferentiationAngle ReasoningItem[string]   `json:"differentiation_angle"`
}

// ContentGap is a topic competitors cover poorly or not at all.
type ContentGap struct {
	Topic       string `json:"topic"`
	Opportunity string `json:"opportunity"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// ContentGapAnalysis is the stage-4 gap report.
type ContentGapAnalysis struct {
	Gaps                []ContentGap `json:"gaps"`
	UnansweredQuestions []string     `json:"unanswered_questions,omitempty"`
}

// FAQ is a single question/answer pair for the FAQ section.
type FAQ struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning,omitempty"`
}

// OnPageSeo holds the on-page metadata recommendations.
type OnPageSeo struct {
	TitleTag        ReasoningItem[string] `json:"title_tag"`
	MetaDescription ReasoningItem[string] `json:"meta_description"`
	URLSlug         ReasoningItem[string] `json:"url_slug"`
	H1              ReasoningItem[string] `json:"h1"`
}

// EEATSignals carries experience/expertise/authority/trust hints the
// section writer weaves into body text.
type EEATSignals struct {
	Experience        []string `json:"experience,omitempty"`
	Expertise         []string `json:"expertise,omitempty"`
	Authoritativeness []string `json:"authoritativeness,omitempty"`
	Trust             []string `json:"trust,omitempty"`
}

// ArticleStructure is the stage-5 outline result.
type ArticleStructure struct {
	Items               []*OutlineItem `json:"outline"`
	TotalTargetWordCount int           `json:"total_target_word_count,omitempty"`
}

// Brief is a partial record: sections are nil until their stage has run.
type Brief struct {
	ID       string `json:"id"`
	Keyword  string `json:"keyword"`
	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`

	SearchIntent       *SearchIntent       `json:"search_intent,omitempty"`
	PageGoal           *PageGoal           `json:"page_goal,omitempty"`
	TargetAudience     *TargetAudience     `json:"target_audience,omitempty"`
	KeywordStrategy    *KeywordStrategy    `json:"keyword_strategy,omitempty"`
	CompetitorInsights *CompetitorInsights `json:"competitor_insights,omitempty"`
	ContentGapAnalysis *ContentGapAnalysis `json:"content_gap_analysis,omitempty"`
	ArticleStructure   *ArticleStructure   `json:"article_structure,omitempty"`
	FAQs               []FAQ               `json:"faqs,omitempty"`
	OnPageSeo          *OnPageSeo          `json:"on_page_seo,omitempty"`

	Validation  *ValidationResult `json:"validation,omitempty"`
	EEATSignals *EEATSignals      `json:"eeat_signals,omitempty"`

	// Competitors is the immutable competitor context fetched before
	// stage generation starts.
	Competitors []CompetitorPage `json:"competitors,omitempty"`

	Staleness StalenessSet `json:"staleness"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// HasStage reports whether the brief holds data for a stage.
func (b *Brief) HasStage(s Stage) bool {
	switch s {
	case StageGoal:
		return b.SearchIntent != nil && b.PageGoal != nil
	case StageKeywords:
		return b.KeywordStrategy != nil
	case StageCompetitors:
		return b.CompetitorInsights != nil
	case StageGaps:
		return b.ContentGapAnalysis != nil
	case StageOutline:
		return b.ArticleStructure != nil
	case StageFAQs:
		return len(b.FAQs) > 0
	case StageOnPageSeo:
		return b.OnPageSeo != nil
	}
	return false
}
