package assets

import (
	"fmt"
	"html/template"
	"path"
	"strings"
)

// Collector accumulates the asset paths reported by every component rendered
// during one top-level render call. Paths are kept in first-report order and
// duplicates are dropped silently, so a component type used many times on a
// page contributes each asset once.
//
// A Collector belongs to exactly one render call. It is not safe for
// concurrent use: nested component renders execute synchronously on the
// render's goroutine, and concurrent top-level renders must each own their
// own instance.
type Collector struct {
	// baseURL is the static mount prefix used to resolve declared paths
	// into URLs, e.g. "/static/components/"
	baseURL string

	css []string
	js  []string

	cssSeen map[string]struct{}
	jsSeen  map[string]struct{}
}

// NewCollector creates an empty collector whose markup helper resolves
// declared paths against baseURL.
func NewCollector(baseURL string) *Collector {
	return &Collector{
		baseURL: baseURL,
		cssSeen: make(map[string]struct{}),
		jsSeen:  make(map[string]struct{}),
	}
}

// Report records a component's declaration. Each path not seen before is
// appended in declaration order; paths already collected are ignored, which
// makes Report idempotent per path.
func (c *Collector) Report(d Declaration) {
	for _, p := range d.CSS {
		if key, ok := normalize(p); ok {
			if _, dup := c.cssSeen[key]; !dup {
				c.cssSeen[key] = struct{}{}
				c.css = append(c.css, key)
			}
		}
	}
	for _, p := range d.JS {
		if key, ok := normalize(p); ok {
			if _, dup := c.jsSeen[key]; !dup {
				c.jsSeen[key] = struct{}{}
				c.js = append(c.js, key)
			}
		}
	}
}

// CSSPaths returns a snapshot of the collected stylesheet paths in
// first-report order. Collection only grows during a render, so reading
// mid-render is valid and reflects partial progress.
func (c *Collector) CSSPaths() []string {
	out := make([]string, len(c.css))
	copy(out, c.css)
	return out
}

// JSPaths returns a snapshot of the collected script paths in first-report
// order.
func (c *Collector) JSPaths() []string {
	out := make([]string, len(c.js))
	copy(out, c.js)
	return out
}

// URL resolves a collected path against the configured static mount prefix.
func (c *Collector) URL(p string) string {
	prefix := c.baseURL
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + p
}

// RenderMarkup serializes the collected assets as HTML: one stylesheet
// <link> per CSS path in collected order, followed by one deferred <script>
// per JS path in collected order.
//
// The output reflects only what has been reported when the call is made.
// Components rendered after the call site will not appear, so pages should
// invoke the helper after all asset-declaring content, canonically from a
// layout rendered around already-rendered children.
func (c *Collector) RenderMarkup() template.HTML {
	var b strings.Builder
	for _, p := range c.css {
		fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", template.HTMLEscapeString(c.URL(p)))
	}
	for _, p := range c.js {
		fmt.Fprintf(&b, "<script src=\"%s\" defer></script>\n", template.HTMLEscapeString(c.URL(p)))
	}
	return template.HTML(b.String())
}

// normalize cleans a declared path into its canonical relative form used as
// the de-duplication key. Declarations that clean to nothing, escape the
// component root, or are absolute are dropped.
func normalize(p string) (string, bool) {
	clean := path.Clean(strings.TrimSpace(p))
	if clean == "" || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	return clean, true
}
