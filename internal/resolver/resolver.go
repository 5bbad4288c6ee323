// Package resolver maps a PDF on disk back to its library item when no
// item key was supplied. Candidate ranking is core logic; the numbered
// terminal prompt that picks among candidates is a cmd-layer adapter.
package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"papertag/internal/models"
	"papertag/internal/store"
)

const (
	// DefaultLimit caps how many ranked candidates are offered.
	DefaultLimit = 5
	// DefaultCutoff is the minimum similarity for a candidate to be
	// offered at all.
	DefaultCutoff = 0.4
)

// Candidate is a library item ranked by title similarity.
type Candidate struct {
	Key   string
	Title string
	Score float64
}

// Resolver finds library items matching a title, best first.
type Resolver interface {
	Resolve(ctx context.Context, title string) ([]Candidate, error)
}

// TitleResolver ranks all library items by normalized Levenshtein
// similarity against the query title.
type TitleResolver struct {
	api    store.LibraryAPI
	limit  int
	cutoff float64
}

// NewTitleResolver builds a resolver over the given library.
func NewTitleResolver(api store.LibraryAPI) *TitleResolver {
	return &TitleResolver{api: api, limit: DefaultLimit, cutoff: DefaultCutoff}
}

func (r *TitleResolver) Resolve(ctx context.Context, title string) ([]Candidate, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	items, err := r.api.Items(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, item := range items {
		if item.Type == "attachment" || item.Title == "" {
			continue
		}
		score := similarity(title, item.Title)
		if score < r.cutoff {
			continue
		}
		candidates = append(candidates, Candidate{Key: item.Key, Title: item.Title, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > r.limit {
		candidates = candidates[:r.limit]
	}
	return candidates, nil
}

// FindByFilename locates the item whose PDF attachment carries the
// given filename. Exact filename match, first hit wins.
func FindByFilename(ctx context.Context, api store.LibraryAPI, filename string) (*models.Item, error) {
	items, err := api.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Type == "attachment" {
			continue
		}
		children, err := api.Children(ctx, item.Key)
		if err != nil {
			continue
		}
		for _, c := range children {
			if c.ContentType == "application/pdf" && c.Filename == filename {
				found := item
				return &found, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

// similarity is 1 - normalized edit distance over lowercased titles.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
