// Package snapshot enumerates library items from a local zotero.sqlite
// database and the storage directory next to it. The database is opened
// read-only: Zotero owns that file, this tool only takes a snapshot.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"papertag/internal/models"
)

const storagePrefix = "storage:"

// Source reads items, attachments, and tags from a Zotero database
// snapshot and resolves attachment files under storageDir/<key>/.
type Source struct {
	db         *sql.DB
	storageDir string
}

// New opens the database at dbPath read-only.
func New(dbPath, storageDir string) (*Source, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("zotero database not found at %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open zotero database: %w", err)
	}
	return &Source{db: db, storageDir: storageDir}, nil
}

// Close releases the database handle.
func (s *Source) Close() error { return s.db.Close() }

// Ping verifies the database is readable.
func (s *Source) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// ListItemsWithPDF returns every non-deleted top-level item that has a
// resolvable PDF attachment, with the attachment path already resolved.
// Items whose attachments cannot be read are logged and skipped; the
// enumeration itself never aborts on a per-item problem.
func (s *Source) ListItemsWithPDF(ctx context.Context) ([]models.Item, error) {
	items, err := s.queryItems(ctx)
	if err != nil {
		return nil, err
	}
	attachments, err := s.queryAttachments(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.queryTags(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Item
	for _, it := range items {
		item := it.item
		item.Tags = tags[it.id]
		pdf, found := s.resolvePDF(attachments[it.id])
		if !found {
			continue
		}
		item.Attachments = []models.Attachment{pdf}
		out = append(out, item)
	}
	return out, nil
}

type rawItem struct {
	id   int64
	item models.Item
}

type rawAttachment struct {
	key         string
	path        string
	contentType string
}

// queryItems loads all non-deleted, non-attachment items with title and
// abstract pulled out of the itemData EAV tables.
func (s *Source) queryItems(ctx context.Context) ([]rawItem, error) {
	const q = `
	SELECT i.itemID, i.key, it.typeName,
	       COALESCE((SELECT idv.value FROM itemData id
	         JOIN itemDataValues idv ON id.valueID = idv.valueID
	         JOIN fields f ON id.fieldID = f.fieldID
	         WHERE id.itemID = i.itemID AND f.fieldName = 'title'
	         LIMIT 1), 'Untitled') AS title,
	       COALESCE((SELECT idv.value FROM itemData id
	         JOIN itemDataValues idv ON id.valueID = idv.valueID
	         JOIN fields f ON id.fieldID = f.fieldID
	         WHERE id.itemID = i.itemID AND f.fieldName = 'abstractNote'
	         LIMIT 1), '') AS abstract
	FROM items i
	JOIN itemTypes it ON i.itemTypeID = it.itemTypeID
	WHERE it.typeName != 'attachment'
	  AND i.itemID NOT IN (SELECT itemID FROM deletedItems)
	ORDER BY i.itemID`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []rawItem
	for rows.Next() {
		var r rawItem
		if err := rows.Scan(&r.id, &r.item.Key, &r.item.Type, &r.item.Title, &r.item.Abstract); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// queryAttachments loads attachments keyed by parent item ID.
func (s *Source) queryAttachments(ctx context.Context) (map[int64][]rawAttachment, error) {
	const q = `
	SELECT ia.parentItemID, ai.key,
	       COALESCE(ia.path, ''), COALESCE(ia.contentType, '')
	FROM itemAttachments ia
	JOIN items ai ON ia.itemID = ai.itemID
	WHERE ia.parentItemID IS NOT NULL
	  AND ai.itemID NOT IN (SELECT itemID FROM deletedItems)
	ORDER BY ia.itemID`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	atts := make(map[int64][]rawAttachment)
	for rows.Next() {
		var parentID int64
		var a rawAttachment
		if err := rows.Scan(&parentID, &a.key, &a.path, &a.contentType); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts[parentID] = append(atts[parentID], a)
	}
	return atts, rows.Err()
}

// queryTags loads tag names keyed by item ID.
func (s *Source) queryTags(ctx context.Context) (map[int64][]string, error) {
	const q = `
	SELECT ti.itemID, t.name
	FROM tags t
	JOIN itemTags ti ON t.tagID = ti.tagID
	ORDER BY ti.itemID, t.name`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[int64][]string)
	for rows.Next() {
		var itemID int64
		var name string
		if err := rows.Scan(&itemID, &name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags[itemID] = append(tags[itemID], name)
	}
	return tags, rows.Err()
}

// resolvePDF finds the first attachment that resolves to an existing
// PDF file on disk. Attachment paths come in two shapes: a
// "storage:filename" prefix pointing into the per-key subdirectory, or
// no usable path at all, in which case the key directory is scanned for
// a PDF.
func (s *Source) resolvePDF(atts []rawAttachment) (models.Attachment, bool) {
	for _, a := range atts {
		path := s.resolvePath(a)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			log.WithFields(log.Fields{"attachment": a.key, "path": path}).
				Debug("attachment file missing on disk")
			// Keep the attachment anyway; the pipeline reports it as
			// not found when it tries to read it.
		}
		return models.Attachment{
			Key:         a.key,
			Path:        path,
			Filename:    filepath.Base(path),
			ContentType: a.contentType,
		}, true
	}
	return models.Attachment{}, false
}

func (s *Source) resolvePath(a rawAttachment) string {
	if strings.HasPrefix(a.path, storagePrefix) {
		filename := strings.TrimPrefix(a.path, storagePrefix)
		if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
			return ""
		}
		return filepath.Join(s.storageDir, a.key, filename)
	}

	// No storage path recorded; scan the key directory for a PDF.
	dir := filepath.Join(s.storageDir, a.key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}
