package brief

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MaxOutlineDepth bounds outline nesting: a root H2/Hero/Conclusion node is
// depth 1, H3 children depth 2, H4 grandchildren depth 3.
const MaxOutlineDepth = 3

// ErrDepthExceeded reports an outline nested deeper than MaxOutlineDepth.
// Depth violations are hard validation failures that require regeneration,
// not silent repair.
var ErrDepthExceeded = errors.New("outline nesting depth exceeds limit")

// FeaturedSnippet marks a node as the featured-snippet target and carries
// the answer format the writer should use.
type FeaturedSnippet struct {
	IsTarget bool   `json:"is_target"`
	Format   string `json:"format,omitempty"` // paragraph, list, table
}

// OutlineItem is one node in the recursive article outline. Nodes carry a
// stable identifier so callers mutate the tree by id, never by positional
// path.
type OutlineItem struct {
	ID                  string           `json:"id,omitempty"`
	Level               string           `json:"level"` // h2, h3, h4, hero, conclusion
	Heading             string           `json:"heading"`
	Guidelines          []string         `json:"guidelines"`
	Reasoning           string           `json:"reasoning,omitempty"`
	TargetedKeywords    []string         `json:"targeted_keywords"`
	CompetitorCoverage  []string         `json:"competitor_coverage"`
	AdditionalResources []string         `json:"additional_resources,omitempty"`
	FeaturedSnippet     *FeaturedSnippet `json:"featured_snippet_target,omitempty"`
	TargetWordCount     int              `json:"target_word_count,omitempty"`
	Children            []*OutlineItem   `json:"children"`
}

// Normalize recursively defaults every node's Children to an empty slice
// and assigns ids to nodes missing one. Running it twice yields the same
// tree as running it once.
func Normalize(items []*OutlineItem) []*OutlineItem {
	if items == nil {
		items = []*OutlineItem{}
	}
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.Children = Normalize(it.Children)
	}
	return items
}

// ValidateDepth returns ErrDepthExceeded if any node sits deeper than
// MaxOutlineDepth.
func ValidateDepth(items []*OutlineItem) error {
	return validateDepth(items, 1)
}

func validateDepth(items []*OutlineItem, depth int) error {
	for _, it := range items {
		if depth > MaxOutlineDepth {
			return fmt.Errorf("%w: %q at depth %d", ErrDepthExceeded, it.Heading, depth)
		}
		if err := validateDepth(it.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits every node in document order. Returning false from fn stops
// the walk.
func Walk(items []*OutlineItem, fn func(*OutlineItem) bool) bool {
	for _, it := range items {
		if !fn(it) {
			return false
		}
		if !Walk(it.Children, fn) {
			return false
		}
	}
	return true
}

// FindNode returns the node with the given id, or nil.
func FindNode(items []*OutlineItem, id string) *OutlineItem {
	var found *OutlineItem
	Walk(items, func(it *OutlineItem) bool {
		if it.ID == id {
			found = it
			return false
		}
		return true
	})
	return found
}

// UpdateNode applies fn to the node with the given id. It reports whether
// the node was found.
func UpdateNode(items []*OutlineItem, id string, fn func(*OutlineItem)) bool {
	node := FindNode(items, id)
	if node == nil {
		return false
	}
	fn(node)
	return true
}

// RemoveNode deletes the node with the given id (and its subtree) from the
// tree and returns the resulting forest plus whether anything was removed.
func RemoveNode(items []*OutlineItem, id string) ([]*OutlineItem, bool) {
	out := items[:0]
	removed := false
	for _, it := range items {
		if it.ID == id {
			removed = true
			continue
		}
		var r bool
		it.Children, r = RemoveNode(it.Children, id)
		removed = removed || r
		out = append(out, it)
	}
	return out, removed
}

// ClampSnippetTargets enforces at most one featured-snippet target: the
// first node flagged in document order keeps the flag, every later flag is
// cleared. The generation schema cannot hard-enforce uniqueness, so this
// runs after every outline generation.
func ClampSnippetTargets(items []*OutlineItem) {
	seen := false
	Walk(items, func(it *OutlineItem) bool {
		if it.FeaturedSnippet == nil || !it.FeaturedSnippet.IsTarget {
			return true
		}
		if seen {
			it.FeaturedSnippet = nil
		}
		seen = true
		return true
	})
}

// SnippetTarget returns the unique featured-snippet node, or nil.
func SnippetTarget(items []*OutlineItem) *OutlineItem {
	var target *OutlineItem
	Walk(items, func(it *OutlineItem) bool {
		if it.FeaturedSnippet != nil && it.FeaturedSnippet.IsTarget {
			target = it
			return false
		}
		return true
	})
	return target
}

// FlattenSections returns the nodes a section writer visits, in document
// order. Every node gets its own section body, including nested ones.
func FlattenSections(items []*OutlineItem) []*OutlineItem {
	var out []*OutlineItem
	Walk(items, func(it *OutlineItem) bool {
		out = append(out, it)
		return true
	})
	return out
}

// CountNodes returns the total number of nodes in the forest.
func CountNodes(items []*OutlineItem) int {
	n := 0
	Walk(items, func(*OutlineItem) bool {
		n++
		return true
	})
	return n
}
