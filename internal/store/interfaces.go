package store

import (
	"context"

	"papertag/internal/models"
)

// ItemSource enumerates library items that have at least one PDF
// attachment. Implementations must tolerate items with zero, one, or
// many attachments, report per-item problems without aborting the
// enumeration, and return items in source order.
type ItemSource interface {
	ListItemsWithPDF(ctx context.Context) ([]models.Item, error)
}

// LibraryAPI is the slice of the Zotero Web API the pipeline needs.
// internal/zotero.Client implements it; tests substitute mocks.
type LibraryAPI interface {
	// Items pages through every top-level item in the library.
	Items(ctx context.Context) ([]models.Item, error)
	// Children lists the attachment children of an item.
	Children(ctx context.Context, itemKey string) ([]models.Attachment, error)
	// Item fetches a single item, including its current version token.
	Item(ctx context.Context, key string) (*models.Item, error)
	// UpdateItemTags replaces the item's tag list. The version token must
	// match the server's current version or the call fails with
	// ErrConflict.
	UpdateItemTags(ctx context.Context, key string, version int, itemType string, tags []string) error
}
