package models

import "time"

// ContentKind selects the target collection an imported post lands in.
type ContentKind string

const (
	KindArticle       ContentKind = "article"
	KindKnowledgebase ContentKind = "knowledgebase"
)

// CollectionPath returns the CMS REST path for the kind's collection.
func (k ContentKind) CollectionPath() string {
	if k == KindArticle {
		return "/api/articles"
	}
	return "/api/knowledgebases"
}

// Collection returns the kind's collection name as stored in the CMS
// database.
func (k ContentKind) Collection() string {
	if k == KindArticle {
		return "articles"
	}
	return "knowledgebases"
}

// SitePath returns the public site prefix entries of this kind are served
// under, used for redirect targets.
func (k ContentKind) SitePath() string {
	if k == KindArticle {
		return "/blog"
	}
	return "/knowledgebase"
}

// ClassifiedPost is a WordPress post after category classification, carrying
// everything entry creation needs.
type ClassifiedPost struct {
	Kind         ContentKind
	Title        string
	Slug         string
	Content      string
	Excerpt      string
	OriginalLink string
	PostID       int
	Created      time.Time
	Modified     time.Time
	Published    time.Time
}

// UploadedAsset is the CMS media library's record of an uploaded binary.
type UploadedAsset struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Entry is a content entry as returned by the CMS collection API.
type Entry struct {
	ID         int    `json:"id"`
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
}

// RedirectEntry is one old-path to new-path mapping emitted for SEO
// continuity. Type is always permanent.
type RedirectEntry struct {
	From string
	To   string
}

// ImportStats summarizes one import run.
type ImportStats struct {
	Processed int
	Skipped   int
	Failed    int
	Redirects int
}

// StoredEntry is a content row read straight from the CMS database by the
// timestamp backfill, which matches rows by slug and title only.
type StoredEntry struct {
	Title string
	Slug  string
}

// PostTimestamps carries the original WordPress chronology written back by
// the backfill pass.
type PostTimestamps struct {
	Created   time.Time
	Modified  time.Time
	Published time.Time
}
