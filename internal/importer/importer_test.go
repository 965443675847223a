package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// fakeCMS is an in-memory stand-in for the CMS collections, shared across
// runs to exercise the idempotent-upsert protocol.
type fakeCMS struct {
	entries map[models.ContentKind][]models.Entry
	nextID  int

	// doubleInsert makes every create admit two entries, reproducing the
	// observed API-level double-insert.
	doubleInsert bool
	// rejectCreates makes creates fail after still inserting the entry,
	// reproducing a duplicate-slug rejection race.
	rejectCreates bool

	creates int
	deletes int
}

func newFakeCMS() *fakeCMS {
	return &fakeCMS{entries: make(map[models.ContentKind][]models.Entry), nextID: 100}
}

func (f *fakeCMS) FindBySlug(ctx context.Context, kind models.ContentKind, slug string) ([]models.Entry, error) {
	var out []models.Entry
	for _, e := range f.entries[kind] {
		if e.Slug == slug {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCMS) CreateEntry(ctx context.Context, kind models.ContentKind, payload interface{}) (*models.Entry, error) {
	data := payload.(map[string]interface{})
	slug := data["slug"].(string)
	title := data["title"].(string)

	f.creates++
	f.nextID++
	entry := models.Entry{ID: f.nextID, DocumentID: fmt.Sprintf("doc%d", f.nextID), Title: title, Slug: slug}
	f.entries[kind] = append(f.entries[kind], entry)

	if f.doubleInsert {
		f.nextID++
		f.entries[kind] = append(f.entries[kind], models.Entry{
			ID: f.nextID, DocumentID: fmt.Sprintf("doc%d", f.nextID), Title: title, Slug: slug,
		})
	}
	if f.rejectCreates {
		return nil, fmt.Errorf("slug must be unique")
	}
	return &entry, nil
}

func (f *fakeCMS) DeleteEntry(ctx context.Context, kind models.ContentKind, entry models.Entry) error {
	f.deletes++
	kept := f.entries[kind][:0]
	for _, e := range f.entries[kind] {
		if e.ID != entry.ID {
			kept = append(kept, e)
		}
	}
	f.entries[kind] = kept
	return nil
}

func (f *fakeCMS) EnsureAuthor(ctx context.Context, name, position, team string) (int, error) {
	return 1, nil
}

func (f *fakeCMS) EnsureCategory(ctx context.Context, collectionPath, name, slug string) (int, error) {
	return 2, nil
}

// fakePipeline records upload requests and returns a fixed asset.
type fakePipeline struct {
	uploaded []string
	fail     bool
}

func (f *fakePipeline) DownloadAndUpload(ctx context.Context, imageURL string) (*models.UploadedAsset, error) {
	if f.fail {
		return nil, fmt.Errorf("unreachable: %s", imageURL)
	}
	f.uploaded = append(f.uploaded, imageURL)
	return &models.UploadedAsset{ID: 9, Name: "cover.jpg", URL: "/uploads/cover.jpg"}, nil
}

const itemTemplate = `	<item>
		<title>%s</title>
		<link>https://old.example.com/2024/07/05/%s/</link>
		<content:encoded><![CDATA[%s]]></content:encoded>
		<wp:post_id>%d</wp:post_id>
		<wp:post_date>2024-07-05 10:00:00</wp:post_date>
		<wp:post_modified>2024-07-06 11:30:00</wp:post_modified>
		<wp:post_name>%s</wp:post_name>
		<wp:post_type>post</wp:post_type>
		<wp:post_parent>0</wp:post_parent>
		<wp:status>publish</wp:status>
		<category domain="category" nicename="%s"><![CDATA[x]]></category>
	</item>
`

func writeWXR(t *testing.T, items string) string {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>Old Blog</title>
` + items + `</channel>
</rss>`
	path := filepath.Join(t.TempDir(), "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func scenarioWXR(t *testing.T) string {
	items := fmt.Sprintf(itemTemplate, "First News", "first-news", "<p>one</p>", 10, "first-news", "news")
	items += fmt.Sprintf(itemTemplate, "Second News", "second-news", "<p>two</p>", 11, "second-news", "news")
	items += fmt.Sprintf(itemTemplate, "An Insight", "an-insight", "<p>three</p>", 12, "an-insight", "insights")
	items += `	<item>
		<title>Cover</title>
		<wp:post_id>13</wp:post_id>
		<wp:post_type>attachment</wp:post_type>
		<wp:post_parent>10</wp:post_parent>
		<wp:status>inherit</wp:status>
		<wp:attachment_url>https://old.example.com/uploads/cover.jpg</wp:attachment_url>
	</item>
`
	return writeWXR(t, items)
}

func importCfg(t *testing.T) config.ImportConfig {
	return config.ImportConfig{RedirectsFile: filepath.Join(t.TempDir(), "_redirects")}
}

func TestRun_EndToEnd(t *testing.T) {
	cms := newFakeCMS()
	pipeline := &fakePipeline{}
	cfg := importCfg(t)

	stats, err := New(cms, pipeline, cfg).Run(context.Background(), scenarioWXR(t))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, stats.Redirects)

	assert.Len(t, cms.entries[models.KindArticle], 2)
	assert.Len(t, cms.entries[models.KindKnowledgebase], 1)

	// Only the first post has an image, resolved through its attachment.
	assert.Equal(t, []string{"https://old.example.com/uploads/cover.jpg"}, pipeline.uploaded)

	data, err := os.ReadFile(cfg.RedirectsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "/2024/07/05/first-news/ /blog/first-news 301", lines[0])
	assert.Equal(t, "/2024/07/05/an-insight/ /knowledgebase/an-insight 301", lines[2])
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	cms := newFakeCMS()
	path := scenarioWXR(t)

	_, err := New(cms, &fakePipeline{}, importCfg(t)).Run(context.Background(), path)
	require.NoError(t, err)

	firstRunEntries := len(cms.entries[models.KindArticle]) + len(cms.entries[models.KindKnowledgebase])
	require.Equal(t, 3, firstRunEntries)

	// Fresh importer, same store: everything must be detected as existing.
	pipeline := &fakePipeline{}
	stats, err := New(cms, pipeline, importCfg(t)).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 3, stats.Redirects)
	assert.Empty(t, pipeline.uploaded, "existing posts must not trigger asset work")

	assert.Len(t, cms.entries[models.KindArticle], 2)
	assert.Len(t, cms.entries[models.KindKnowledgebase], 1)
}

func TestRun_DuplicateSlugInExport(t *testing.T) {
	items := fmt.Sprintf(itemTemplate, "Post A", "same-slug", "<p>a</p>", 10, "same-slug", "news")
	items += fmt.Sprintf(itemTemplate, "Post B", "same-slug", "<p>b</p>", 11, "same-slug", "news")
	path := writeWXR(t, items)

	cms := newFakeCMS()
	stats, err := New(cms, &fakePipeline{}, importCfg(t)).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, cms.entries[models.KindArticle], 1)
	// Both occurrences still produce a redirect line.
	assert.Equal(t, 2, stats.Redirects)
}

func TestRun_PostCreateSweepRemovesDuplicates(t *testing.T) {
	items := fmt.Sprintf(itemTemplate, "Doubled", "doubled", "<p>x</p>", 10, "doubled", "news")
	path := writeWXR(t, items)

	cms := newFakeCMS()
	cms.doubleInsert = true

	stats, err := New(cms, &fakePipeline{}, importCfg(t)).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, cms.deletes)
	require.Len(t, cms.entries[models.KindArticle], 1, "sweep must leave exactly one entry per slug")
}

func TestRun_DuplicateSlugRejectionTreatedAsExisting(t *testing.T) {
	items := fmt.Sprintf(itemTemplate, "Raced", "raced", "<p>x</p>", 10, "raced", "news")
	path := writeWXR(t, items)

	cms := newFakeCMS()
	cms.rejectCreates = true

	stats, err := New(cms, &fakePipeline{}, importCfg(t)).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, stats.Redirects)
}

func TestRun_CoverFailureDoesNotAbortPost(t *testing.T) {
	items := fmt.Sprintf(itemTemplate, "With Image", "with-image",
		`<img src="https://old.example.com/pic-300x200.jpg">`, 10, "with-image", "news")
	path := writeWXR(t, items)

	cms := newFakeCMS()
	stats, err := New(cms, &fakePipeline{fail: true}, importCfg(t)).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	require.Len(t, cms.entries[models.KindArticle], 1)
}

func TestRun_MalformedExportIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(path, []byte("<rss><channel>"), 0644))

	_, err := New(newFakeCMS(), &fakePipeline{}, importCfg(t)).Run(context.Background(), path)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, models.KindArticle, Classify("news"))
	assert.Equal(t, models.KindKnowledgebase, Classify("insights"))
	assert.Equal(t, models.KindKnowledgebase, Classify("legacy-stuff"))
	assert.Equal(t, models.KindKnowledgebase, Classify(""))
	assert.Equal(t, models.KindKnowledgebase, Classify("News"), "match is exact, not case-folded")
}

func TestPathFromPermalink(t *testing.T) {
	assert.Equal(t, "/2024/07/05/my-post/", PathFromPermalink("https://example.com/2024/07/05/my-post/"))
	assert.Equal(t, "/", PathFromPermalink("not a url"))
	assert.Equal(t, "/", PathFromPermalink(""))
	assert.Equal(t, "/", PathFromPermalink("https://example.com"))
}

func TestTruncate_KeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	assert.Equal(t, "abcd", truncate("abcdef", 4))

	// A multi-byte rune straddling the limit is dropped whole.
	s := strings.Repeat("x", 79) + "é-tail"
	got := truncate(s, 80)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("x", 79), got)
}
