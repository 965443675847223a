// Package sanitize normalizes WordPress post bodies for the CMS rich-text
// renderer. The transform is pure and idempotent: Clean(Clean(x)) == Clean(x).
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	// Page-builder shortcode tokens left behind by the editor.
	builderShortcode = regexp.MustCompile(`\[/?(?:elementor|vc_)[^\]\[]*\]`)
)

// Attributes pointing at WordPress-hosted resized variants that no longer
// exist after migration.
var droppedImgAttrs = map[string]bool{
	"width":  true,
	"height": true,
	"srcset": true,
	"sizes":  true,
}

// Clean strips page-builder leftovers from post HTML and rewrites img tags
// for responsive display. Content other than rewritten tags passes through
// byte-for-byte.
func Clean(content string) string {
	if content == "" {
		return ""
	}

	content = htmlComment.ReplaceAllString(content, "")
	content = builderShortcode.ReplaceAllString(content, "")

	var out strings.Builder
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(z.Raw())
			continue
		}
		// Token() unescapes entities in place inside the tokenizer's
		// buffer, so the raw bytes must be copied out first.
		raw := append([]byte(nil), z.Raw()...)
		tok := z.Token()
		if !needsRewrite(tok) {
			out.Write(raw)
			continue
		}
		out.WriteString(renderTag(tok))
	}
	return strings.TrimSpace(out.String())
}

// needsRewrite reports whether a tag carries attributes Clean removes or
// normalizes. Anything else is emitted untouched.
func needsRewrite(tok html.Token) bool {
	if tok.Data == "img" {
		return true
	}
	for _, a := range tok.Attr {
		if strings.HasPrefix(a.Key, "data-elementor") {
			return true
		}
		if a.Key == "class" && hasBuilderClass(a.Val) {
			return true
		}
	}
	return false
}

func hasBuilderClass(classes string) bool {
	for _, c := range strings.Fields(classes) {
		if strings.HasPrefix(c, "elementor") {
			return true
		}
	}
	return false
}

func renderTag(tok html.Token) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tok.Data)

	isImg := tok.Data == "img"
	styleWritten := false
	for _, a := range tok.Attr {
		if strings.HasPrefix(a.Key, "data-elementor") {
			continue
		}
		if isImg && droppedImgAttrs[a.Key] {
			continue
		}
		val := a.Val
		switch a.Key {
		case "class":
			val = stripBuilderClasses(val)
			if val == "" {
				continue
			}
		case "style":
			if isImg {
				val = mergeResponsiveStyle(val)
				styleWritten = true
			}
		}
		writeAttr(&b, a.Key, val)
	}
	if isImg && !styleWritten {
		writeAttr(&b, "style", mergeResponsiveStyle(""))
	}

	if tok.Type == html.SelfClosingTagToken {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

func stripBuilderClasses(classes string) string {
	var kept []string
	for _, c := range strings.Fields(classes) {
		if !strings.HasPrefix(c, "elementor") {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}

func writeAttr(b *strings.Builder, key, val string) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(val))
	b.WriteByte('"')
}

// mergeResponsiveStyle forces max-width:100% and height:auto into an inline
// style while keeping every other declaration in place.
func mergeResponsiveStyle(style string) string {
	var decls []string
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		prop := strings.TrimSpace(strings.SplitN(d, ":", 2)[0])
		if strings.EqualFold(prop, "max-width") || strings.EqualFold(prop, "height") {
			continue
		}
		decls = append(decls, d)
	}
	decls = append(decls, "max-width: 100%", "height: auto")
	return strings.Join(decls, "; ")
}
