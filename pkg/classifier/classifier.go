// Package classifier assigns vocabulary tags to a document with a
// single LLM call per document.
package classifier

import (
	"context"
	"strings"

	"papertag/internal/vocab"
)

// DefaultMaxTags caps how many tags one document may receive.
const DefaultMaxTags = 5

// Request carries the document to classify. Body is the extracted PDF
// text; Title and Abstract give the model context even when the body is
// thin or truncated.
type Request struct {
	Title    string
	Abstract string
	Body     string
}

// Classifier suggests vocabulary tags for a document, ordered by
// relevance. Implementations issue exactly one inference call per
// Classify invocation and return only tags present in the vocabulary.
type Classifier interface {
	Classify(ctx context.Context, req Request) ([]string, error)
}

// parseTags splits the model's comma-separated response, trims each
// entry, and intersects with the vocabulary. The post-filter is
// mandatory: the model is not guaranteed to respect the vocabulary
// constraint.
func parseTags(response string, v *vocab.Vocabulary, maxTags int) []string {
	parts := strings.Split(response, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	tags = v.Filter(tags)
	if maxTags > 0 && len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}
