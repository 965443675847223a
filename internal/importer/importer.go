// Package importer drives the WordPress-to-CMS migration: parse the export,
// classify each published post, create missing entries exactly once, re-host
// cover images and emit SEO redirects.
package importer

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/a1exr0/inplaysoft-strapi/internal/assets"
	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/elementor"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
	"github.com/a1exr0/inplaysoft-strapi/internal/sanitize"
	"github.com/a1exr0/inplaysoft-strapi/internal/wxr"
)

const (
	defaultAuthorName     = "InplaySoft"
	defaultAuthorPosition = "Content Team"
	defaultAuthorTeam     = "Marketing"
)

// ContentAPI is the slice of the CMS client the importer consumes.
type ContentAPI interface {
	FindBySlug(ctx context.Context, kind models.ContentKind, slug string) ([]models.Entry, error)
	CreateEntry(ctx context.Context, kind models.ContentKind, payload interface{}) (*models.Entry, error)
	DeleteEntry(ctx context.Context, kind models.ContentKind, entry models.Entry) error
	EnsureAuthor(ctx context.Context, name, position, team string) (int, error)
	EnsureCategory(ctx context.Context, collectionPath, name, slug string) (int, error)
}

// AssetPipeline re-hosts one remote image and returns its stored reference.
type AssetPipeline interface {
	DownloadAndUpload(ctx context.Context, imageURL string) (*models.UploadedAsset, error)
}

// Importer holds one migration run's working state. Caches are scoped to the
// instance so repeated runs and tests do not leak state into each other.
type Importer struct {
	client   ContentAPI
	pipeline AssetPipeline
	cfg      config.ImportConfig

	redirects    Ledger
	handledSlugs map[string]bool
	categoryIDs  map[string]int
	authorID     int
	stats        models.ImportStats
	now          func() time.Time
}

// New creates an importer for one run.
func New(client ContentAPI, pipeline AssetPipeline, cfg config.ImportConfig) *Importer {
	return &Importer{
		client:       client,
		pipeline:     pipeline,
		cfg:          cfg,
		handledSlugs: make(map[string]bool),
		categoryIDs:  make(map[string]int),
		now:          time.Now,
	}
}

// Run executes the full pipeline against one WXR file. Setup failures are
// returned; per-post failures are logged, counted and contained.
func (im *Importer) Run(ctx context.Context, wxrPath string) (models.ImportStats, error) {
	doc, err := wxr.ParseFile(wxrPath)
	if err != nil {
		return im.stats, err
	}

	authorID, err := im.client.EnsureAuthor(ctx, defaultAuthorName, defaultAuthorPosition, defaultAuthorTeam)
	if err != nil {
		return im.stats, fmt.Errorf("failed to ensure default author: %w", err)
	}
	im.authorID = authorID

	attachments := doc.AttachmentMap()
	log.Printf("found %d posts with attachments", len(attachments))

	posts := doc.PublishedPosts()
	log.Printf("found %d published posts to import", len(posts))

	for i := range posts {
		im.processItem(ctx, &posts[i], attachments)
	}

	im.stats.Redirects = im.redirects.Len()
	if err := im.redirects.Flush(im.cfg.RedirectsFile); err != nil {
		return im.stats, err
	}

	log.Printf("import finished: processed=%d skipped=%d failed=%d redirects=%d",
		im.stats.Processed, im.stats.Skipped, im.stats.Failed, im.stats.Redirects)
	return im.stats, nil
}

func (im *Importer) processItem(ctx context.Context, item *wxr.Item, attachments map[int][]wxr.Attachment) {
	if item.Title == "" {
		log.Printf("skipping item with no title (post id %d)", item.PostID)
		im.stats.Skipped++
		return
	}

	slug := item.PostName
	if slug == "" {
		slug = "post-" + uuid.NewString()
		log.Printf("post %q has no slug, generated %s", item.Title, slug)
	}

	nice := ""
	if cat, ok := item.PrimaryCategory(); ok {
		nice = cat.NiceName
	}
	kind := Classify(nice)
	target := kind.SitePath() + "/" + slug

	// Fast path: the same slug already handled in this run. Treat as
	// existing, the redirect still gets a line.
	if im.handledSlugs[slug] {
		log.Printf("skipping duplicate slug in export: %s", slug)
		im.recordRedirect(item.Link, target)
		im.stats.Skipped++
		return
	}

	// Remote existence check. A query failure is logged and the creation
	// attempt proceeds, the collection's own slug constraint is the
	// backstop.
	existing, err := im.client.FindBySlug(ctx, kind, slug)
	if err != nil {
		log.Printf("existence check failed for %s %q: %v", kind, slug, err)
	} else if len(existing) > 0 {
		log.Printf("skipping existing %s: %s (id %d)", kind, slug, existing[0].ID)
		im.handledSlugs[slug] = true
		im.recordRedirect(item.Link, target)
		im.stats.Skipped++
		return
	}

	// Mark before any asset work so a re-entrant occurrence of this slug
	// cannot double-create, even if creation below fails.
	im.handledSlugs[slug] = true

	log.Printf("processing %q (%s, slug %s)", item.Title, kind, slug)

	cover := im.resolveCover(ctx, item, attachments)

	created, modified, published := item.PostDates(im.now())
	post := models.ClassifiedPost{
		Kind:         kind,
		Title:        item.Title,
		Slug:         slug,
		Content:      sanitize.Clean(item.Content),
		Excerpt:      item.Excerpt,
		OriginalLink: item.Link,
		PostID:       item.PostID,
		Created:      created,
		Modified:     modified,
		Published:    published,
	}

	entry, err := im.createEntry(ctx, &post, cover)
	if err != nil {
		// The collection may have rejected a duplicate slug; if the entry
		// is there now, this run did its job.
		if recheck, rerr := im.client.FindBySlug(ctx, kind, slug); rerr == nil && len(recheck) > 0 {
			log.Printf("%s %q already existed at creation time", kind, slug)
			im.recordRedirect(item.Link, target)
			im.stats.Skipped++
			return
		}
		log.Printf("failed to create %s %q (slug %s): %v", kind, item.Title, slug, err)
		im.stats.Failed++
		return
	}

	im.sweepDuplicates(ctx, kind, slug, entry)
	im.recordRedirect(item.Link, target)
	im.stats.Processed++
	log.Printf("created %s: %q (id %d)", kind, item.Title, entry.ID)
}

// resolveCover picks at most one representative image, in strict priority:
// WordPress attachment, first main image in the body, page-builder
// background image. No cover is a recorded fact, not an error.
func (im *Importer) resolveCover(ctx context.Context, item *wxr.Item, attachments map[int][]wxr.Attachment) *models.UploadedAsset {
	if list := attachments[item.PostID]; len(list) > 0 {
		log.Printf("using attachment %q as cover candidate", list[0].Title)
		if asset := im.uploadCover(ctx, list[0].URL); asset != nil {
			return asset
		}
	}

	for _, u := range assets.ResolveMainImages(assets.ExtractImageURLs(item.Content)) {
		if asset := im.uploadCover(ctx, u); asset != nil {
			return asset
		}
	}

	if raw := item.MetaValue("_elementor_data"); raw != "" {
		if u, ok := elementor.CoverImageURL(raw); ok {
			log.Printf("found page-builder background image: %s", u)
			if asset := im.uploadCover(ctx, u); asset != nil {
				return asset
			}
		}
	}
	return nil
}

func (im *Importer) uploadCover(ctx context.Context, imageURL string) *models.UploadedAsset {
	asset, err := im.pipeline.DownloadAndUpload(ctx, imageURL)
	if err != nil {
		log.Printf("cover image skipped: %v", err)
		return nil
	}
	return asset
}

func (im *Importer) createEntry(ctx context.Context, post *models.ClassifiedPost, cover *models.UploadedAsset) (*models.Entry, error) {
	categoryID, err := im.ensureCategory(ctx, post.Kind)
	if err != nil {
		return nil, err
	}

	description := post.Excerpt
	if description == "" {
		description = post.Title
	}

	payload := map[string]interface{}{
		"title":       post.Title,
		"description": truncate(description, 80),
		"slug":        post.Slug,
		"author":      im.authorID,
		"blocks": []map[string]interface{}{
			{
				"__component": "shared.rich-text",
				"body":        post.Content,
			},
		},
		"publishedAt":         post.Published.Format(time.RFC3339),
		"custom_created_at":   post.Created.Format("2006-01-02"),
		"custom_published_at": post.Published.Format(time.RFC3339),
		"seo": map[string]string{
			"metaTitle":       post.Title,
			"metaDescription": truncate(description, 160),
		},
	}
	if cover != nil && cover.ID != 0 {
		payload["cover"] = cover.ID
	}
	if post.Kind == models.KindArticle {
		payload["category"] = categoryID
	} else {
		payload["knowledgebase_category"] = categoryID
	}

	return im.client.CreateEntry(ctx, post.Kind, payload)
}

func (im *Importer) ensureCategory(ctx context.Context, kind models.ContentKind) (int, error) {
	var path, name, slug string
	if kind == models.KindArticle {
		path, name, slug = "/api/categories", "News", "news"
	} else {
		path, name, slug = "/api/knowledgebase-categories", "Insights", "insights"
	}
	if id, ok := im.categoryIDs[path]; ok {
		return id, nil
	}
	id, err := im.client.EnsureCategory(ctx, path, name, slug)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure category %s: %w", slug, err)
	}
	im.categoryIDs[path] = id
	return id, nil
}

// sweepDuplicates removes every entry sharing the slug except the one just
// created. The remote system has been seen to admit two entries for one
// create call; the sweep corrects that after the fact. Sweep failures never
// undo the successful creation.
func (im *Importer) sweepDuplicates(ctx context.Context, kind models.ContentKind, slug string, keep *models.Entry) {
	entries, err := im.client.FindBySlug(ctx, kind, slug)
	if err != nil {
		log.Printf("duplicate sweep query failed for %s %q: %v", kind, slug, err)
		return
	}
	if len(entries) <= 1 {
		return
	}

	log.Printf("found %d entries for slug %q, removing duplicates (keeping id %d)", len(entries), slug, keep.ID)
	for _, e := range entries {
		if e.ID == keep.ID {
			continue
		}
		if err := im.client.DeleteEntry(ctx, kind, e); err != nil {
			log.Printf("failed to remove duplicate %s id %d: %v", kind, e.ID, err)
		}
	}

	if remaining, err := im.client.FindBySlug(ctx, kind, slug); err == nil && len(remaining) != 1 {
		log.Printf("duplicate cleanup incomplete: %d entries remain for slug %q", len(remaining), slug)
	}
}

func (im *Importer) recordRedirect(permalink, target string) {
	im.redirects.Record(PathFromPermalink(permalink), target)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
