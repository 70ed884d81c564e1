package outline

import (
	"context"
	"sync"
	"testing"
	"time"

	"briefcraft/internal/brief"
	"briefcraft/internal/generation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequencedBackend returns one queued reply per call, in order.
type sequencedBackend struct {
	mu      sync.Mutex
	calls   int
	replies []string
	reqs    []generation.Request
}

func (b *sequencedBackend) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.calls
	if idx >= len(b.replies) {
		idx = len(b.replies) - 1
	}
	b.calls++
	b.reqs = append(b.reqs, req)
	return &generation.Response{Text: b.replies[idx]}, nil
}

func (b *sequencedBackend) GenerateStream(ctx context.Context, req generation.Request) (<-chan string, <-chan error) {
	content := make(chan string, 1)
	errs := make(chan error, 1)
	resp, _ := b.Generate(ctx, req)
	content <- resp.Text
	close(content)
	close(errs)
	return content, errs
}

func newTestPipeline(replies ...string) (*Pipeline, *sequencedBackend) {
	backend := &sequencedBackend{replies: replies}
	client := generation.NewClient(backend, generation.DefaultSettings(),
		generation.WithPolicy(generation.Policy{MaxAttempts: 1, Delay: time.Millisecond}))
	return NewPipeline(client, nil), backend
}

func outlineInput() Input {
	return Input{
		Brief: &brief.Brief{
			ID:      "b1",
			Keyword: "seo tools",
			SearchIntent: &brief.SearchIntent{
				PrimaryIntent: brief.ReasoningItem[string]{Value: "commercial"},
			},
		},
	}
}

const skeletonReply = `{
	"outline": [
		{"level": "hero", "heading": "Intro", "target_word_count": 150,
		 "featured_snippet_target": {"is_target": true, "format": "paragraph"}},
		{"level": "h2", "heading": "Top Tools", "target_word_count": 600,
		 "children": [
			{"level": "h3", "heading": "Free Tools", "target_word_count": 300}
		 ]},
		{"level": "conclusion", "heading": "Verdict", "target_word_count": 150}
	],
	"total_target_word_count": 1200
}`

const enrichedReply = `{
	"outline": [
		{"level": "hero", "heading": "Intro",
		 "guidelines": ["hook the reader"], "targeted_keywords": ["seo tools"],
		 "competitor_coverage": ["all cover this"]},
		{"level": "h2", "heading": "RENAMED BY MODEL",
		 "guidelines": ["compare top picks"], "targeted_keywords": ["best seo tools"],
		 "competitor_coverage": ["covered weakly"],
		 "children": [
			{"level": "h3", "heading": "Free Tools",
			 "guidelines": ["list free tiers"], "targeted_keywords": ["free seo tools"],
			 "competitor_coverage": ["rarely covered"]}
		 ]},
		{"level": "conclusion", "heading": "Verdict",
		 "guidelines": ["summarize"], "targeted_keywords": [],
		 "competitor_coverage": []}
	],
	"total_target_word_count": 1200
}`

const resourceReply = `{"resources": [
	{"heading": "Top Tools", "additional_resources": ["comparison table"]}
]}`

func TestPipelineRunThreePasses(t *testing.T) {
	p, backend := newTestPipeline(skeletonReply, enrichedReply, resourceReply)

	structure, err := p.Run(context.Background(), outlineInput())
	require.NoError(t, err)
	assert.Equal(t, 3, backend.calls)
	assert.Equal(t, 1200, structure.TotalTargetWordCount)
	require.Len(t, structure.Items, 3)

	// Skeleton headings survive even when the enrichment pass renames one.
	assert.Equal(t, "Top Tools", structure.Items[1].Heading)
	// Enrichment fields land on the matching skeleton node.
	assert.Equal(t, []string{"compare top picks"}, structure.Items[1].Guidelines)
	assert.Equal(t, []string{"list free tiers"}, structure.Items[1].Children[0].Guidelines)
	// Resource pass attaches by heading.
	assert.Equal(t, []string{"comparison table"}, structure.Items[1].AdditionalResources)
	assert.Empty(t, structure.Items[0].AdditionalResources)

	// Every node is normalized: id assigned, children non-nil.
	brief.Walk(structure.Items, func(it *brief.OutlineItem) bool {
		assert.NotEmpty(t, it.ID)
		assert.NotNil(t, it.Children)
		return true
	})

	target := brief.SnippetTarget(structure.Items)
	require.NotNil(t, target)
	assert.Equal(t, "Intro", target.Heading)
}

func TestPipelineEnrichmentMustPreserveStructure(t *testing.T) {
	shrunk := `{"outline": [{"level": "hero", "heading": "Intro"}], "total_target_word_count": 1200}`
	p, _ := newTestPipeline(skeletonReply, shrunk)

	_, err := p.Run(context.Background(), outlineInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrichment altered outline structure")
}

func TestPipelineSkeletonDepthViolation(t *testing.T) {
	tooDeep := `{"outline": [
		{"level": "h2", "heading": "A", "children": [
			{"level": "h3", "heading": "B", "children": [
				{"level": "h4", "heading": "C", "children": [
					{"level": "h5", "heading": "D"}
				]}
			]}
		]}
	], "total_target_word_count": 500}`
	p, _ := newTestPipeline(tooDeep)

	_, err := p.Run(context.Background(), outlineInput())
	require.ErrorIs(t, err, brief.ErrDepthExceeded)
}

func TestPipelineClampsExtraSnippetTargets(t *testing.T) {
	multiTarget := `{
		"outline": [
			{"level": "hero", "heading": "Intro",
			 "featured_snippet_target": {"is_target": true, "format": "paragraph"}},
			{"level": "h2", "heading": "Second",
			 "featured_snippet_target": {"is_target": true, "format": "list"}}
		],
		"total_target_word_count": 800
	}`
	enriched := `{
		"outline": [
			{"level": "hero", "heading": "Intro", "guidelines": ["g"], "targeted_keywords": [], "competitor_coverage": []},
			{"level": "h2", "heading": "Second", "guidelines": ["g"], "targeted_keywords": [], "competitor_coverage": []}
		],
		"total_target_word_count": 800
	}`
	p, _ := newTestPipeline(multiTarget, enriched, `{"resources": []}`)

	structure, err := p.Run(context.Background(), outlineInput())
	require.NoError(t, err)

	count := 0
	brief.Walk(structure.Items, func(it *brief.OutlineItem) bool {
		if it.FeaturedSnippet != nil && it.FeaturedSnippet.IsTarget {
			count++
		}
		return true
	})
	assert.Equal(t, 1, count, "at most one snippet target may survive")
	assert.Equal(t, "Intro", brief.SnippetTarget(structure.Items).Heading)
}

func TestPipelineResourcePassFailureIsNonFatal(t *testing.T) {
	// The third call returns no JSON, exhausting the resource-pass retry
	// budget; the enriched outline must still come back.
	p, _ := newTestPipeline(skeletonReply, enrichedReply, "total garbage")

	structure, err := p.Run(context.Background(), outlineInput())
	require.NoError(t, err)
	require.Len(t, structure.Items, 3)
	assert.Empty(t, structure.Items[1].AdditionalResources)
}

func TestPipelineTemplateAndFeedbackInPrompt(t *testing.T) {
	p, backend := newTestPipeline(skeletonReply, enrichedReply, resourceReply)

	in := outlineInput()
	in.Template = []*brief.OutlineItem{{Level: "h2", Heading: "Template Section"}}
	in.Feedback = "add a pricing section"

	_, err := p.Run(context.Background(), in)
	require.NoError(t, err)

	require.NotEmpty(t, backend.reqs)
	skeletonPrompt := backend.reqs[0].UserPrompt
	assert.Contains(t, skeletonPrompt, "Template Section")
	assert.Contains(t, skeletonPrompt, "Do not discard it")
	assert.Contains(t, skeletonPrompt, "add a pricing section")

	// Resource pass runs on the fast tier at minimal effort.
	resourceReq := backend.reqs[len(backend.reqs)-1]
	assert.Equal(t, "gemini-2.5-flash", resourceReq.Model)
	assert.Equal(t, 1024, resourceReq.ThinkingBudget)
}
