// Package zotero is a minimal client for the Zotero Web API v3,
// covering only what the tagging pipeline needs: paginated item
// listing, attachment children, single-item fetch, and tag updates
// under optimistic concurrency.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"papertag/internal/models"
	"papertag/internal/store"
)

const (
	defaultBaseURL = "https://api.zotero.org"
	apiVersion     = "3"
	pageLimit      = 100
)

// Client talks to one Zotero library, user or group.
type Client struct {
	baseURL     string
	libraryID   string
	libraryType string
	apiKey      string
	http        *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a client for the given library. libraryType is
// "user" or "group".
func NewClient(libraryID, libraryType, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		libraryID:   libraryID,
		libraryType: libraryType,
		apiKey:      apiKey,
		http:        &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Wire types ---

type wireTag struct {
	Tag string `json:"tag"`
}

type wireData struct {
	Key          string    `json:"key,omitempty"`
	Version      int       `json:"version,omitempty"`
	ItemType     string    `json:"itemType,omitempty"`
	Title        string    `json:"title,omitempty"`
	AbstractNote string    `json:"abstractNote,omitempty"`
	ContentType  string    `json:"contentType,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	ParentItem   string    `json:"parentItem,omitempty"`
	Path         string    `json:"path,omitempty"`
	Tags         []wireTag `json:"tags,omitempty"`
}

type wireItem struct {
	Key     string   `json:"key"`
	Version int      `json:"version"`
	Data    wireData `json:"data"`
}

func (w wireItem) toModel() models.Item {
	tags := make([]string, 0, len(w.Data.Tags))
	for _, t := range w.Data.Tags {
		tags = append(tags, t.Tag)
	}
	return models.Item{
		Key:      w.Key,
		Version:  w.Version,
		Type:     w.Data.ItemType,
		Title:    w.Data.Title,
		Abstract: w.Data.AbstractNote,
		Tags:     tags,
	}
}

func (w wireItem) toAttachment() models.Attachment {
	return models.Attachment{
		Key:         w.Key,
		ParentKey:   w.Data.ParentItem,
		Path:        w.Data.Path,
		Filename:    w.Data.Filename,
		ContentType: w.Data.ContentType,
	}
}

// --- API operations ---

// Items pages through every item in the library in API order.
func (c *Client) Items(ctx context.Context) ([]models.Item, error) {
	var all []models.Item
	for start := 0; ; start += pageLimit {
		var page []wireItem
		q := url.Values{
			"start": {strconv.Itoa(start)},
			"limit": {strconv.Itoa(pageLimit)},
		}
		if err := c.get(ctx, c.itemsPath(), q, &page); err != nil {
			return nil, fmt.Errorf("list items (start=%d): %w", start, err)
		}
		for _, w := range page {
			all = append(all, w.toModel())
		}
		if len(page) < pageLimit {
			return all, nil
		}
	}
}

// Children lists the attachment children of an item.
func (c *Client) Children(ctx context.Context, itemKey string) ([]models.Attachment, error) {
	var page []wireItem
	q := url.Values{"limit": {strconv.Itoa(pageLimit)}}
	if err := c.get(ctx, c.itemsPath()+"/"+itemKey+"/children", q, &page); err != nil {
		return nil, fmt.Errorf("list children of %s: %w", itemKey, err)
	}
	atts := make([]models.Attachment, 0, len(page))
	for _, w := range page {
		if w.Data.ItemType != "attachment" {
			continue
		}
		a := w.toAttachment()
		if a.ParentKey == "" {
			a.ParentKey = itemKey
		}
		atts = append(atts, a)
	}
	return atts, nil
}

// Item fetches a single item with its current version token.
func (c *Client) Item(ctx context.Context, key string) (*models.Item, error) {
	var w wireItem
	if err := c.get(ctx, c.itemsPath()+"/"+key, nil, &w); err != nil {
		return nil, fmt.Errorf("get item %s: %w", key, err)
	}
	item := w.toModel()
	return &item, nil
}

// UpdateItemTags replaces the item's tag list via a partial update. The
// version goes in If-Unmodified-Since-Version so a concurrent edit
// surfaces as store.ErrConflict instead of being silently overwritten.
// The item type is sent along unchanged, which also makes the bulk
// clear preserve it.
func (c *Client) UpdateItemTags(ctx context.Context, key string, version int, itemType string, tags []string) error {
	wireTags := make([]wireTag, 0, len(tags))
	for _, t := range tags {
		wireTags = append(wireTags, wireTag{Tag: t})
	}
	body, err := json.Marshal(struct {
		ItemType string    `json:"itemType,omitempty"`
		Tags     []wireTag `json:"tags"`
	}{ItemType: itemType, Tags: wireTags})
	if err != nil {
		return fmt.Errorf("marshal tag update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, c.itemsPath()+"/"+key, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Unmodified-Since-Version", strconv.Itoa(version))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update item %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("update item %s: %w", key, store.ErrNotFound)
	case http.StatusPreconditionFailed:
		return fmt.Errorf("update item %s (version %d): %w", key, version, store.ErrConflict)
	default:
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update item %s: api error (status %d): %s", key, resp.StatusCode, raw)
	}
}

// --- HTTP plumbing ---

func (c *Client) itemsPath() string {
	return fmt.Sprintf("/%ss/%s/items", c.libraryType, c.libraryID)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Zotero-API-Key", c.apiKey)
	req.Header.Set("Zotero-API-Version", apiVersion)
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path}).Debug("zotero api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return store.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
