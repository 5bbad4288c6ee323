// Package remote enumerates library items through the Zotero Web API.
// Item metadata and tag state come from the API; the PDF bytes are
// still read from the local storage directory, located by attachment
// key and filename.
package remote

import (
	"context"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"papertag/internal/models"
	"papertag/internal/store"
)

// Source pages through the remote library and keeps only items with a
// PDF attachment child.
type Source struct {
	api        store.LibraryAPI
	storageDir string
}

// New builds a remote item source reading files under storageDir.
func New(api store.LibraryAPI, storageDir string) *Source {
	return &Source{api: api, storageDir: storageDir}
}

// ListItemsWithPDF lists all top-level items and resolves the first PDF
// attachment of each. A failed children lookup skips that item and the
// enumeration carries on.
func (s *Source) ListItemsWithPDF(ctx context.Context) ([]models.Item, error) {
	items, err := s.api.Items(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Item
	for _, item := range items {
		if item.Type == "attachment" {
			continue
		}
		children, err := s.api.Children(ctx, item.Key)
		if err != nil {
			log.WithError(err).WithField("item", item.Key).
				Warn("skipping item: could not list attachments")
			continue
		}
		att, found := s.firstPDF(children)
		if !found {
			continue
		}
		item.Attachments = []models.Attachment{att}
		out = append(out, item)
	}
	return out, nil
}

// firstPDF picks the first child with a PDF content type and resolves
// its on-disk location from the storage key and filename.
func (s *Source) firstPDF(children []models.Attachment) (models.Attachment, bool) {
	for _, c := range children {
		if c.ContentType != "application/pdf" {
			continue
		}
		if c.Key == "" || c.Filename == "" {
			continue
		}
		c.Path = filepath.Join(s.storageDir, c.Key, c.Filename)
		return c, true
	}
	return models.Attachment{}, false
}
