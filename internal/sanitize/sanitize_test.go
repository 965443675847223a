package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_DropsResizedVariantAttrs(t *testing.T) {
	in := `<p>text</p><img src="https://example.com/a.jpg" width="300" height="200" srcset="a-300x200.jpg 300w" sizes="(max-width: 300px) 100vw">`
	got := Clean(in)

	assert.NotContains(t, got, "width=")
	assert.NotContains(t, got, "height=")
	assert.NotContains(t, got, "srcset")
	assert.NotContains(t, got, "sizes")
	assert.Contains(t, got, `src="https://example.com/a.jpg"`)
	assert.Contains(t, got, "max-width: 100%")
	assert.Contains(t, got, "height: auto")
}

func TestClean_MergesExistingStyle(t *testing.T) {
	in := `<img src="a.jpg" style="border: 1px solid red; max-width: 50%">`
	got := Clean(in)

	assert.Contains(t, got, "border: 1px solid red")
	assert.Contains(t, got, "max-width: 100%")
	assert.NotContains(t, got, "50%")
}

func TestClean_RemovesCommentsAndShortcodes(t *testing.T) {
	in := `<p>before</p><!-- wp:paragraph -->[elementor-template id="9"]<p>after</p>[/elementor-template]`
	got := Clean(in)

	assert.Equal(t, "<p>before</p><p>after</p>", got)
}

func TestClean_StripsBuilderMarkers(t *testing.T) {
	in := `<div class="elementor-widget intro" data-elementor-type="wp-post"><p>kept</p></div>`
	got := Clean(in)

	assert.Equal(t, `<div class="intro"><p>kept</p></div>`, got)
}

func TestClean_DropsEmptyClass(t *testing.T) {
	got := Clean(`<div class="elementor-section"><p>x</p></div>`)
	assert.Equal(t, "<div><p>x</p></div>", got)
}

func TestClean_LeavesPlainMarkupAlone(t *testing.T) {
	in := `<h2>Title</h2><p>Some <strong>bold</strong> text &amp; more.</p>`
	assert.Equal(t, in, Clean(in))
}

func TestClean_PreservesEntitiesInUntouchedAttrs(t *testing.T) {
	in := `<p><a href="https://example.com/?a=1&amp;b=2">link</a></p>`
	assert.Equal(t, in, Clean(in))
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		`<img src="a.jpg" width="300" style="border: 0">`,
		`<p>text</p><img src="b.png" srcset="b-150x150.png">`,
		`<div class="elementor-row keep"><img src="c.gif"/></div>`,
		`plain text, no tags`,
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input: %s", in)
	}
}

func TestClean_Empty(t *testing.T) {
	assert.Equal(t, "", Clean(""))
}
