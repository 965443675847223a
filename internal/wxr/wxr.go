package wxr

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"
)

// MalformedExportError indicates the input is not a usable WXR document.
// It is fatal for the whole run.
type MalformedExportError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed WordPress export %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed WordPress export %s: %s", e.Path, e.Reason)
}

func (e *MalformedExportError) Unwrap() error {
	return e.Err
}

// Document is a parsed WordPress eXtended RSS (WXR) export.
type Document struct {
	Channel Channel `xml:"channel"`
}

// Channel holds the export's item list plus site-level metadata.
type Channel struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
	Items []Item `xml:"item"`
}

// Item is one exported post, page or attachment.
type Item struct {
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	PubDate       string     `xml:"pubDate"`
	Content       string     `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Excerpt       string     `xml:"http://wordpress.org/export/1.2/excerpt/ encoded"`
	PostID        int        `xml:"http://wordpress.org/export/1.2/ post_id"`
	PostDate      string     `xml:"http://wordpress.org/export/1.2/ post_date"`
	ModifiedDate  string     `xml:"http://wordpress.org/export/1.2/ post_modified"`
	PostName      string     `xml:"http://wordpress.org/export/1.2/ post_name"`
	PostType      string     `xml:"http://wordpress.org/export/1.2/ post_type"`
	PostParent    int        `xml:"http://wordpress.org/export/1.2/ post_parent"`
	Status        string     `xml:"http://wordpress.org/export/1.2/ status"`
	AttachmentURL string     `xml:"http://wordpress.org/export/1.2/ attachment_url"`
	Categories    []Category `xml:"category"`
	Meta          []PostMeta `xml:"http://wordpress.org/export/1.2/ postmeta"`
}

// Category is one taxonomy term on an item. Domain distinguishes real
// categories from tags and other taxonomies.
type Category struct {
	Domain   string `xml:"domain,attr"`
	NiceName string `xml:"nicename,attr"`
	Name     string `xml:",cdata"`
}

type PostMeta struct {
	Key   string `xml:"meta_key"`
	Value string `xml:"meta_value"`
}

// Attachment is an uploaded media record resolved from an attachment item.
type Attachment struct {
	URL   string
	Title string
}

// ParseFile reads and parses a WXR export from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MalformedExportError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		if me, ok := err.(*MalformedExportError); ok {
			me.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse decodes a WXR document from r.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedExportError{Reason: "invalid XML", Err: err}
	}
	if len(doc.Channel.Items) == 0 {
		return nil, &MalformedExportError{Reason: "no channel items found"}
	}
	return &doc, nil
}

// PrimaryCategory returns the first term whose taxonomy domain is
// "category", skipping tags and other taxonomies.
func (it *Item) PrimaryCategory() (Category, bool) {
	for _, c := range it.Categories {
		if c.Domain == "category" {
			return c, true
		}
	}
	return Category{}, false
}

// MetaValue returns the first postmeta value stored under key, or "" if the
// item carries no such meta.
func (it *Item) MetaValue(key string) string {
	for _, m := range it.Meta {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

// IsPublishedPost reports whether the item is a published blog post, as
// opposed to an attachment, page, draft or revision.
func (it *Item) IsPublishedPost() bool {
	return it.PostType == "post" && it.Status == "publish"
}

// PublishedPosts returns the document's published posts in document order.
func (d *Document) PublishedPosts() []Item {
	var posts []Item
	for _, it := range d.Channel.Items {
		if it.IsPublishedPost() {
			posts = append(posts, it)
		}
	}
	return posts
}

// AttachmentMap groups the export's attachment items by parent post ID,
// preserving document order. Unattached media (parent 0) is excluded. The map
// is built once per run and only read afterwards.
func (d *Document) AttachmentMap() map[int][]Attachment {
	m := make(map[int][]Attachment)
	for _, it := range d.Channel.Items {
		if it.PostType != "attachment" || it.PostParent == 0 || it.AttachmentURL == "" {
			continue
		}
		title := it.Title
		if title == "" {
			title = "Attachment"
		}
		m[it.PostParent] = append(m[it.PostParent], Attachment{
			URL:   it.AttachmentURL,
			Title: title,
		})
	}
	return m
}

const wpDateLayout = "2006-01-02 15:04:05"

// ParseDate parses a WordPress date string. Post dates use a space-separated
// layout, pubDate uses RFC1123Z. Returns ok=false when nothing matches.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(wpDateLayout, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC1123Z, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// PostDates resolves an item's (created, modified, published) timestamps with
// the same fallback chain the exporter itself uses: post_date, then pubDate,
// and post_modified falling back to post_date.
func (it *Item) PostDates(now time.Time) (created, modified, published time.Time) {
	created, ok := ParseDate(it.PostDate)
	if !ok {
		created, ok = ParseDate(it.PubDate)
	}
	if !ok {
		created = now
	}
	modified, ok = ParseDate(it.ModifiedDate)
	if !ok {
		modified = created
	}
	return created, modified, created
}
