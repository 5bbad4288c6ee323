package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"papertag/internal/store"
)

// Outcome reports what a tag write did.
type Outcome struct {
	Applied bool
	Added   []string
	Message string
}

// TagWriter appends classifier tags to library items. It re-fetches the
// item immediately before writing so the update carries a fresh version
// token and never overwrites tags added concurrently elsewhere.
type TagWriter struct {
	api store.LibraryAPI
}

// NewTagWriter builds a writer over the given library.
func NewTagWriter(api store.LibraryAPI) *TagWriter {
	return &TagWriter{api: api}
}

// ApplyTags adds the given tags to the item, skipping any it already
// carries. When the set difference is empty no update call is issued,
// which makes a repeated apply a no-op. Tags are only ever added here,
// never removed.
func (w *TagWriter) ApplyTags(ctx context.Context, itemKey string, tags []string) (Outcome, error) {
	item, err := w.api.Item(ctx, itemKey)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch item %s before write: %w", itemKey, err)
	}

	var added []string
	for _, t := range tags {
		if !item.HasTag(t) {
			added = append(added, t)
		}
	}
	if len(added) == 0 {
		return Outcome{Applied: false, Message: "no new tags to add"}, nil
	}

	merged := append(append([]string{}, item.Tags...), added...)
	if err := w.api.UpdateItemTags(ctx, itemKey, item.Version, item.Type, merged); err != nil {
		return Outcome{}, fmt.Errorf("update tags on %s: %w", itemKey, err)
	}

	return Outcome{
		Applied: true,
		Added:   added,
		Message: "added tags: " + strings.Join(added, ", "),
	}, nil
}

// ClearAllTags wipes the tag list of every tagged item in the library,
// leaving item type and version handling to the API client. Returns the
// number of items cleared. A failed clear on one item is logged and the
// sweep continues.
func (w *TagWriter) ClearAllTags(ctx context.Context) (int, error) {
	items, err := w.api.Items(ctx)
	if err != nil {
		return 0, fmt.Errorf("enumerate items: %w", err)
	}

	cleared := 0
	for _, item := range items {
		if len(item.Tags) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return cleared, err
		}
		if err := w.api.UpdateItemTags(ctx, item.Key, item.Version, item.Type, nil); err != nil {
			log.WithError(err).WithField("item", item.Key).Error("failed to clear tags")
			continue
		}
		log.WithField("item", item.Key).Info("tags removed")
		cleared++
	}
	return cleared, nil
}
