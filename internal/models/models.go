package models

// Item is a read-only snapshot of a bibliographic record in the Zotero
// library, taken at enumeration time. All mutation happens through the
// Zotero Web API, never on this struct.
type Item struct {
	Key         string
	Version     int
	Type        string
	Title       string
	Abstract    string
	Tags        []string
	Attachments []Attachment
}

// Attachment describes a file attached to an item. Path is the resolved
// absolute location on disk when the source was able to resolve one,
// empty otherwise.
type Attachment struct {
	Key         string
	ParentKey   string
	Path        string
	Filename    string
	ContentType string
}

// HasTag reports whether the item already carries the given tag.
// Matching is exact, same as vocabulary membership.
func (i *Item) HasTag(name string) bool {
	for _, t := range i.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// FirstPDF returns the item's first PDF attachment, or nil if it has
// none. Only one attachment per item is ever processed.
func (i *Item) FirstPDF() *Attachment {
	for idx := range i.Attachments {
		a := &i.Attachments[idx]
		if a.ContentType == "application/pdf" || a.Path != "" {
			return a
		}
	}
	return nil
}
