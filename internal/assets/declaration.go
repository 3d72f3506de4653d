// Package assets implements per-component asset declarations and the
// render-scoped collector that gathers them across a component tree.
//
// A component declares the stylesheets and scripts it needs in its metadata
// header. At render time every component instance reports its declaration
// into the collector owned by the current top-level render, which keeps the
// two lists ordered and de-duplicated. Page templates read the collected
// lists (or the serialized <link>/<script> block) to emit exactly one
// reference per distinct asset.
package assets

// Declaration holds the asset paths declared by a single component. It is
// built once when the component is compiled and never mutated afterwards.
// Paths are stored verbatim as authored, relative to a component root;
// existence is not checked until the browser requests them.
type Declaration struct {
	// CSS lists stylesheet paths in declaration order
	CSS []string
	// JS lists script paths in declaration order
	JS []string
}

// IsEmpty reports whether the declaration lists no assets at all.
func (d Declaration) IsEmpty() bool {
	return len(d.CSS) == 0 && len(d.JS) == 0
}
