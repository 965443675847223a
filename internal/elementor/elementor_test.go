package elementor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoverImageURL(t *testing.T) {
	raw := `[
		{"id":"a1","elType":"section","settings":{},
		 "elements":[
			{"id":"b2","elType":"column",
			 "elements":[
				{"id":"c3","elType":"widget",
				 "settings":{"background_image":{"url":"https://example.com/bg.jpg","id":42}}}
			 ]}
		 ]}
	]`

	url, ok := CoverImageURL(raw)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/bg.jpg", url)
}

func TestCoverImageURL_TopLevel(t *testing.T) {
	url, ok := CoverImageURL(`{"background_image":{"url":"https://example.com/top.png"}}`)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/top.png", url)
}

func TestCoverImageURL_NoImage(t *testing.T) {
	_, ok := CoverImageURL(`[{"settings":{"color":"red"}}]`)
	assert.False(t, ok)
}

func TestCoverImageURL_EmptyURL(t *testing.T) {
	_, ok := CoverImageURL(`[{"background_image":{"url":""}}]`)
	assert.False(t, ok)
}

func TestCoverImageURL_BadJSON(t *testing.T) {
	_, ok := CoverImageURL(`{"unterminated`)
	assert.False(t, ok)

	_, ok = CoverImageURL("")
	assert.False(t, ok)
}
