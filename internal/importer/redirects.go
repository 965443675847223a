package importer

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// Ledger accumulates old-path to new-path redirects for one import run and
// writes them out once at the end.
type Ledger struct {
	entries []models.RedirectEntry
}

// Record appends one redirect.
func (l *Ledger) Record(from, to string) {
	l.entries = append(l.entries, models.RedirectEntry{From: from, To: to})
}

// Len returns the number of recorded redirects.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Flush writes all redirects to path, one `<from> <to> 301` line each,
// overwriting any previous file.
func (l *Ledger) Flush(path string) error {
	var b strings.Builder
	for _, e := range l.entries {
		fmt.Fprintf(&b, "%s %s 301\n", e.From, e.To)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write redirects file %s: %w", path, err)
	}
	return nil
}

// PathFromPermalink extracts the path component of an original WordPress
// permalink. Anything that is not an absolute URL yields "/" rather than an
// error.
func PathFromPermalink(permalink string) string {
	if permalink == "" {
		return "/"
	}
	u, err := url.Parse(permalink)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "/"
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
