package remote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertag/internal/models"
)

type mockAPI struct {
	items       []models.Item
	children    map[string][]models.Attachment
	childrenErr map[string]error
}

func (m *mockAPI) Items(ctx context.Context) ([]models.Item, error) {
	return m.items, nil
}

func (m *mockAPI) Children(ctx context.Context, itemKey string) ([]models.Attachment, error) {
	if err := m.childrenErr[itemKey]; err != nil {
		return nil, err
	}
	return m.children[itemKey], nil
}

func (m *mockAPI) Item(ctx context.Context, key string) (*models.Item, error) {
	return nil, errors.New("not used")
}

func (m *mockAPI) UpdateItemTags(ctx context.Context, key string, version int, itemType string, tags []string) error {
	return errors.New("not used")
}

func TestListItemsWithPDF(t *testing.T) {
	api := &mockAPI{
		items: []models.Item{
			{Key: "PAPER", Type: "journalArticle", Title: "A Paper"},
			{Key: "NOPDF", Type: "journalArticle", Title: "Notes Only"},
			{Key: "ATT", Type: "attachment"},
		},
		children: map[string][]models.Attachment{
			"PAPER": {
				{Key: "SNAP", ContentType: "text/html", Filename: "page.html"},
				{Key: "PDF1", ContentType: "application/pdf", Filename: "paper.pdf"},
				{Key: "PDF2", ContentType: "application/pdf", Filename: "other.pdf"},
			},
			"NOPDF": {
				{Key: "NOTE1", ContentType: "text/html", Filename: "page.html"},
			},
		},
	}

	src := New(api, "/data/storage")
	items, err := src.ListItemsWithPDF(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "PAPER", items[0].Key)
	require.Len(t, items[0].Attachments, 1)

	att := items[0].Attachments[0]
	assert.Equal(t, "PDF1", att.Key, "first PDF child wins")
	assert.Equal(t, filepath.Join("/data/storage", "PDF1", "paper.pdf"), att.Path)
}

func TestListItemsWithPDFSkipsFailingItem(t *testing.T) {
	api := &mockAPI{
		items: []models.Item{
			{Key: "BAD", Type: "journalArticle"},
			{Key: "GOOD", Type: "journalArticle"},
		},
		children: map[string][]models.Attachment{
			"GOOD": {{Key: "PDF1", ContentType: "application/pdf", Filename: "ok.pdf"}},
		},
		childrenErr: map[string]error{
			"BAD": errors.New("api hiccup"),
		},
	}

	src := New(api, "/storage")
	items, err := src.ListItemsWithPDF(context.Background())
	require.NoError(t, err, "one broken item must not abort the enumeration")

	require.Len(t, items, 1)
	assert.Equal(t, "GOOD", items[0].Key)
}
