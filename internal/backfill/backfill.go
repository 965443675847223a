// Package backfill restores original WordPress timestamps on entries that
// were created by the importer. Entry creation always stamps "now"; this pass
// re-reads the export and rewrites created/updated/published at the storage
// layer, matched by slug.
package backfill

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/a1exr0/inplaysoft-strapi/internal/entrystore"
	"github.com/a1exr0/inplaysoft-strapi/internal/importer"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
	"github.com/a1exr0/inplaysoft-strapi/internal/wxr"
)

// Stats summarizes one backfill pass.
type Stats struct {
	Articles      int
	Knowledgebase int
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a slug or title for matching, the same way the importer
// and the CMS derive slugs: lowercase, non-alphanumeric runs collapsed to a
// dash, dashes trimmed.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

type sourcePost struct {
	kind       models.ContentKind
	slug       string
	title      string
	timestamps models.PostTimestamps
}

// Run re-parses the export and overwrites timestamps of every stored entry
// with a matching source post. Matching is best-effort: source posts without
// a stored entry are skipped, stored entries without a source match are left
// untouched.
func Run(ctx context.Context, store entrystore.Store, wxrPath string) (Stats, error) {
	var stats Stats

	doc, err := wxr.ParseFile(wxrPath)
	if err != nil {
		return stats, err
	}

	if err := store.Ping(ctx); err != nil {
		return stats, err
	}

	posts := collectSourcePosts(doc)
	log.Printf("parsed %d published posts from export", len(posts))

	for _, kind := range []models.ContentKind{models.KindArticle, models.KindKnowledgebase} {
		updated, err := backfillCollection(ctx, store, kind, posts)
		if err != nil {
			return stats, err
		}
		if kind == models.KindArticle {
			stats.Articles = updated
		} else {
			stats.Knowledgebase = updated
		}
	}

	log.Printf("backfill finished: articles=%d knowledgebase=%d", stats.Articles, stats.Knowledgebase)
	return stats, nil
}

func collectSourcePosts(doc *wxr.Document) []sourcePost {
	now := time.Now().UTC()
	var posts []sourcePost
	for _, item := range doc.PublishedPosts() {
		nice := ""
		if cat, ok := item.PrimaryCategory(); ok {
			nice = cat.NiceName
		}
		created, modified, published := item.PostDates(now)
		posts = append(posts, sourcePost{
			kind:  importer.Classify(nice),
			slug:  item.PostName,
			title: item.Title,
			timestamps: models.PostTimestamps{
				Created:   created,
				Modified:  modified,
				Published: published,
			},
		})
	}
	return posts
}

func backfillCollection(ctx context.Context, store entrystore.Store, kind models.ContentKind, posts []sourcePost) (int, error) {
	entries, err := store.Entries(ctx, kind.Collection())
	if err != nil {
		return 0, err
	}
	log.Printf("found %d stored entries in %s", len(entries), kind.Collection())

	updated := 0
	for _, entry := range entries {
		src, ok := matchSource(posts, kind, entry.Slug)
		if !ok {
			continue
		}
		if err := store.UpdateTimestamps(ctx, kind.Collection(), entry.Slug, src.timestamps); err != nil {
			log.Printf("failed to update %s %q: %v", kind, entry.Slug, err)
			continue
		}
		updated++
		log.Printf("updated %s %q: %s -> %s", kind, entry.Title,
			src.timestamps.Created.Format("2006-01-02"), src.timestamps.Modified.Format("2006-01-02"))
	}
	return updated, nil
}

// matchSource finds the source post for a stored slug, matching the
// slugified post name first and falling back to the slugified title.
func matchSource(posts []sourcePost, kind models.ContentKind, storedSlug string) (sourcePost, bool) {
	for _, p := range posts {
		if p.kind == kind && Slugify(p.slug) == storedSlug {
			return p, true
		}
	}
	for _, p := range posts {
		if p.kind == kind && Slugify(p.title) == storedSlug {
			return p, true
		}
	}
	return sourcePost{}, false
}
