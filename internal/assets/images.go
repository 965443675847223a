// Package assets downloads remote images and places them in the asset store,
// deduplicating WordPress's auto-generated size variants along the way.
package assets

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// WordPress derives resized copies of an upload with a -<width>x<height>
// filename suffix.
var sizeSuffix = regexp.MustCompile(`-\d+x\d+(\.[^./]+)$`)

// BaseImageURL strips the resize suffix from a URL, yielding the identity of
// the original upload. Two URLs with the same base are the same logical image.
func BaseImageURL(url string) string {
	return sizeSuffix.ReplaceAllString(url, "$1")
}

// ResolveMainImages keeps one representative per base identity, preferring
// the first-encountered URL. WordPress places the full-size reference first
// in content, so first-wins usually keeps the original.
func ResolveMainImages(urls []string) []string {
	var main []string
	seen := make(map[string]bool)
	for _, url := range urls {
		base := BaseImageURL(url)
		if seen[base] {
			continue
		}
		seen[base] = true
		main = append(main, url)
	}
	return main
}

// ExtractImageURLs returns the src of every img tag in the HTML, in document
// order.
func ExtractImageURLs(content string) []string {
	if !strings.Contains(content, "<img") {
		return nil
	}
	var urls []string
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return urls
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "img" || !hasAttr {
			continue
		}
		for {
			key, val, more := z.TagAttr()
			if string(key) == "src" && len(val) > 0 {
				urls = append(urls, string(val))
				break
			}
			if !more {
				break
			}
		}
	}
}

// DownloadError indicates a remote image could not be fetched. Non-fatal for
// the post, the caller skips the image and continues.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to download %s: status %d", e.URL, e.StatusCode)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
