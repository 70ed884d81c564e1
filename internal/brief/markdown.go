package brief

import (
	"fmt"
	"strings"
)

// Markdown renders the brief as a human-readable document. Sections whose
// stage has not run are omitted.
func (b *Brief) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Content Brief: %s\n\n", b.Keyword)
	if b.Country != "" || b.Language != "" {
		fmt.Fprintf(&sb, "Market: %s / %s\n\n", orDash(b.Country), orDash(b.Language))
	}

	if b.SearchIntent != nil {
		sb.WriteString("## Search Intent\n\n")
		writeItem(&sb, "Primary intent", b.SearchIntent.PrimaryIntent)
		writeList(&sb, "Intent signals", b.SearchIntent.IntentSignals)
		if b.SearchIntent.SnippetOpportunity.Value != "" {
			writeItem(&sb, "Snippet opportunity", b.SearchIntent.SnippetOpportunity)
		}
		sb.WriteString("\n")
	}

	if b.PageGoal != nil {
		sb.WriteString("## Page Goal\n\n")
		writeItem(&sb, "Goal", b.PageGoal.Goal)
		if b.PageGoal.CallToAction.Value != "" {
			writeItem(&sb, "Call to action", b.PageGoal.CallToAction)
		}
		sb.WriteString("\n")
	}

	if b.TargetAudience != nil {
		sb.WriteString("## Target Audience\n\n")
		writeItem(&sb, "Persona", b.TargetAudience.Persona)
		if b.TargetAudience.ExpertiseLevel.Value != "" {
			writeItem(&sb, "Expertise level", b.TargetAudience.ExpertiseLevel)
		}
		for _, p := range b.TargetAudience.PainPoints {
			fmt.Fprintf(&sb, "- %s\n", p.Value)
		}
		sb.WriteString("\n")
	}

	if b.KeywordStrategy != nil {
		sb.WriteString("## Keyword Strategy\n\n")
		if len(b.KeywordStrategy.Primary) > 0 {
			sb.WriteString("**Primary:**\n\n")
			for _, k := range b.KeywordStrategy.Primary {
				if k.Notes != "" {
					fmt.Fprintf(&sb, "- %s: %s\n", k.Keyword, k.Notes)
				} else {
					fmt.Fprintf(&sb, "- %s\n", k.Keyword)
				}
			}
			sb.WriteString("\n")
		}
		if len(b.KeywordStrategy.Secondary) > 0 {
			sb.WriteString("**Secondary:**\n\n")
			for _, k := range b.KeywordStrategy.Secondary {
				if k.Notes != "" {
					fmt.Fprintf(&sb, "- %s: %s\n", k.Keyword, k.Notes)
				} else {
					fmt.Fprintf(&sb, "- %s\n", k.Keyword)
				}
			}
			sb.WriteString("\n")
		}
	}

	if b.CompetitorInsights != nil {
		sb.WriteString("## Competitor Insights\n\n")
		writeItemList(&sb, "Common topics", b.CompetitorInsights.CommonTopics)
		writeItemList(&sb, "Strengths", b.CompetitorInsights.Strengths)
		writeItemList(&sb, "Weaknesses", b.CompetitorInsights.Weaknesses)
		writeItem(&sb, "Differentiation angle", b.CompetitorInsights.DifferentiationAngle)
		sb.WriteString("\n")
	}

	if b.ContentGapAnalysis != nil {
		sb.WriteString("## Content Gaps\n\n")
		for _, g := range b.ContentGapAnalysis.Gaps {
			fmt.Fprintf(&sb, "- **%s**: %s\n", g.Topic, g.Opportunity)
		}
		if len(b.ContentGapAnalysis.UnansweredQuestions) > 0 {
			sb.WriteString("\n**Unanswered questions:**\n\n")
			for _, q := range b.ContentGapAnalysis.UnansweredQuestions {
				fmt.Fprintf(&sb, "- %s\n", q)
			}
		}
		sb.WriteString("\n")
	}

	if b.ArticleStructure != nil {
		sb.WriteString("## Article Outline\n\n")
		if b.ArticleStructure.TotalTargetWordCount > 0 {
			fmt.Fprintf(&sb, "Target length: %d words\n\n", b.ArticleStructure.TotalTargetWordCount)
		}
		for _, item := range b.ArticleStructure.Items {
			writeOutlineItem(&sb, item, 0)
		}
		sb.WriteString("\n")
	}

	if len(b.FAQs) > 0 {
		sb.WriteString("## FAQs\n\n")
		for _, f := range b.FAQs {
			fmt.Fprintf(&sb, "**%s**\n\n%s\n\n", f.Question, f.Answer)
		}
	}

	if b.OnPageSeo != nil {
		sb.WriteString("## On-Page SEO\n\n")
		writeItem(&sb, "Title tag", b.OnPageSeo.TitleTag)
		writeItem(&sb, "Meta description", b.OnPageSeo.MetaDescription)
		writeItem(&sb, "URL slug", b.OnPageSeo.URLSlug)
		writeItem(&sb, "H1", b.OnPageSeo.H1)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeOutlineItem(sb *strings.Builder, item *OutlineItem, depth int) {
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s- [%s] %s", indent, item.Level, item.Heading)
	if item.TargetWordCount > 0 {
		line += fmt.Sprintf(" (%d words)", item.TargetWordCount)
	}
	if item.FeaturedSnippet != nil && item.FeaturedSnippet.IsTarget {
		line += " [snippet target]"
	}
	sb.WriteString(line + "\n")
	for _, child := range item.Children {
		writeOutlineItem(sb, child, depth+1)
	}
}

func writeItem(sb *strings.Builder, label string, item ReasoningItem[string]) {
	fmt.Fprintf(sb, "**%s:** %s\n\n", label, item.Value)
}

func writeItemList(sb *strings.Builder, label string, items []ReasoningItem[string]) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s:**\n\n", label)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it.Value)
	}
	sb.WriteString("\n")
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s:**\n\n", label)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
	sb.WriteString("\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
