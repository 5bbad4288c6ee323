package snapshot

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureSchema = `
CREATE TABLE items (itemID INTEGER PRIMARY KEY, key TEXT, itemTypeID INTEGER);
CREATE TABLE itemTypes (itemTypeID INTEGER PRIMARY KEY, typeName TEXT);
CREATE TABLE fields (fieldID INTEGER PRIMARY KEY, fieldName TEXT);
CREATE TABLE itemData (itemID INTEGER, fieldID INTEGER, valueID INTEGER);
CREATE TABLE itemDataValues (valueID INTEGER PRIMARY KEY, value TEXT);
CREATE TABLE itemAttachments (itemID INTEGER, parentItemID INTEGER, path TEXT, contentType TEXT);
CREATE TABLE deletedItems (itemID INTEGER PRIMARY KEY);
CREATE TABLE tags (tagID INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE itemTags (itemID INTEGER, tagID INTEGER);

INSERT INTO itemTypes VALUES (1, 'journalArticle'), (2, 'attachment');
INSERT INTO fields VALUES (1, 'title'), (2, 'abstractNote');
`

type fixture struct {
	dbPath     string
	storageDir string
	db         *sql.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dbPath:     filepath.Join(dir, "zotero.sqlite"),
		storageDir: filepath.Join(dir, "storage"),
	}
	require.NoError(t, os.MkdirAll(f.storageDir, 0o755))

	db, err := sql.Open("sqlite3", f.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(fixtureSchema)
	require.NoError(t, err)
	f.db = db
	return f
}

func (f *fixture) exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(t, err)
}

// addArticle inserts a top-level item with title and abstract.
func (f *fixture) addArticle(t *testing.T, itemID int64, key, title, abstract string) {
	f.exec(t, "INSERT INTO items VALUES (?, ?, 1)", itemID, key)
	valueID := itemID * 100
	f.exec(t, "INSERT INTO itemDataValues VALUES (?, ?)", valueID, title)
	f.exec(t, "INSERT INTO itemData VALUES (?, 1, ?)", itemID, valueID)
	if abstract != "" {
		f.exec(t, "INSERT INTO itemDataValues VALUES (?, ?)", valueID+1, abstract)
		f.exec(t, "INSERT INTO itemData VALUES (?, 2, ?)", itemID, valueID+1)
	}
}

// addPDF inserts an attachment row and, when filename is non-empty,
// creates the backing file under storage/<attKey>/.
func (f *fixture) addPDF(t *testing.T, attID, parentID int64, attKey, path, filename string) {
	f.exec(t, "INSERT INTO items VALUES (?, ?, 2)", attID, attKey)
	f.exec(t, "INSERT INTO itemAttachments VALUES (?, ?, ?, 'application/pdf')", attID, parentID, path)
	if filename != "" {
		dir := filepath.Join(f.storageDir, attKey)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte("%PDF-1.4"), 0o644))
	}
}

func (f *fixture) addTag(t *testing.T, itemID, tagID int64, name string) {
	f.exec(t, "INSERT OR IGNORE INTO tags VALUES (?, ?)", tagID, name)
	f.exec(t, "INSERT INTO itemTags VALUES (?, ?)", itemID, tagID)
}

func (f *fixture) open(t *testing.T) *Source {
	t.Helper()
	src, err := New(f.dbPath, f.storageDir)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestListItemsWithPDF(t *testing.T) {
	f := newFixture(t)
	f.addArticle(t, 1, "ITEM1", "Deep Learning Survey", "A survey.")
	f.addPDF(t, 10, 1, "ATT1", "storage:survey.pdf", "survey.pdf")
	f.addTag(t, 1, 1, "machine learning")

	// Item without any attachment must be filtered out.
	f.addArticle(t, 2, "ITEM2", "No PDF Here", "")

	src := f.open(t)
	items, err := src.ListItemsWithPDF(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "ITEM1", it.Key)
	assert.Equal(t, "journalArticle", it.Type)
	assert.Equal(t, "Deep Learning Survey", it.Title)
	assert.Equal(t, "A survey.", it.Abstract)
	assert.Equal(t, []string{"machine learning"}, it.Tags)

	require.Len(t, it.Attachments, 1)
	att := it.Attachments[0]
	assert.Equal(t, "ATT1", att.Key)
	assert.Equal(t, filepath.Join(f.storageDir, "ATT1", "survey.pdf"), att.Path)
	assert.FileExists(t, att.Path)
}

func TestListItemsWithPDFExcludesDeleted(t *testing.T) {
	f := newFixture(t)
	f.addArticle(t, 1, "ITEM1", "Kept", "")
	f.addPDF(t, 10, 1, "ATT1", "storage:kept.pdf", "kept.pdf")
	f.addArticle(t, 2, "ITEM2", "Trashed", "")
	f.addPDF(t, 20, 2, "ATT2", "storage:trashed.pdf", "trashed.pdf")
	f.exec(t, "INSERT INTO deletedItems VALUES (2)")

	src := f.open(t)
	items, err := src.ListItemsWithPDF(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "ITEM1", items[0].Key)
}

func TestListItemsWithPDFFirstMatchWins(t *testing.T) {
	f := newFixture(t)
	f.addArticle(t, 1, "ITEM1", "Two PDFs", "")
	f.addPDF(t, 10, 1, "ATT1", "storage:first.pdf", "first.pdf")
	f.addPDF(t, 11, 1, "ATT2", "storage:second.pdf", "second.pdf")

	src := f.open(t)
	items, err := src.ListItemsWithPDF(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	require.Len(t, items[0].Attachments, 1)
	assert.Equal(t, "ATT1", items[0].Attachments[0].Key)
}

func TestListItemsWithPDFScansKeyDirectory(t *testing.T) {
	// Older attachments carry no storage: path; the key directory is
	// scanned for a PDF instead.
	f := newFixture(t)
	f.addArticle(t, 1, "ITEM1", "Legacy Path", "")
	f.addPDF(t, 10, 1, "ATT1", "", "legacy.pdf")

	src := f.open(t)
	items, err := src.ListItemsWithPDF(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, filepath.Join(f.storageDir, "ATT1", "legacy.pdf"), items[0].Attachments[0].Path)
}

func TestListItemsWithPDFSkipsNonPDFStoragePath(t *testing.T) {
	f := newFixture(t)
	f.addArticle(t, 1, "ITEM1", "HTML Snapshot Only", "")
	f.addPDF(t, 10, 1, "ATT1", "storage:page.html", "")

	src := f.open(t)
	items, err := src.ListItemsWithPDF(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNewMissingDatabase(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.sqlite"), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
