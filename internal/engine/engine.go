// Package engine compiles .weft components and orchestrates rendering.
//
// Compilation splits a component source into its asset declaration and an
// html/template body. Rendering binds one asset collector to each top-level
// Render call and threads it implicitly through every nested component
// render via per-render template functions, so components never pass the
// collector around themselves and concurrent renders stay isolated.
package engine

import (
	"fmt"
	"hash/crc32"
	"html/template"
	"sync"

	"github.com/weftlabs/weft/internal/assets"
	"github.com/weftlabs/weft/internal/logging"
	"github.com/weftlabs/weft/internal/registry"
	"github.com/weftlabs/weft/internal/types"
)

// DefaultMountPrefix is the URL prefix component assets are served under
// when no prefix is configured.
const DefaultMountPrefix = "/static/components/"

// maxRenderDepth bounds component nesting to catch definition cycles.
const maxRenderDepth = 64

// Options configures an Engine.
type Options struct {
	// MountPrefix is the static mount point asset URLs are resolved
	// against; defaults to DefaultMountPrefix
	MountPrefix string
	// Logger receives render and compile diagnostics
	Logger logging.Logger
}

// Engine holds compiled component templates and renders component trees.
type Engine struct {
	registry    *registry.ComponentRegistry
	mountPrefix string
	logger      logging.Logger

	mutex    sync.RWMutex
	compiled map[string]*compiledComponent
	bridged  map[string]bridgedComponent
}

// compiledComponent is a parsed template prototype. The prototype itself is
// never executed; each render executes a clone with the render's collector
// bound into its function map.
type compiledComponent struct {
	hash string
	tmpl *template.Template
}

// New creates an engine backed by the given component registry.
func New(reg *registry.ComponentRegistry, opts Options) *Engine {
	prefix := opts.MountPrefix
	if prefix == "" {
		prefix = DefaultMountPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(nil)
	}

	return &Engine{
		registry:    reg,
		mountPrefix: prefix,
		logger:      logger.WithComponent("engine"),
		compiled:    make(map[string]*compiledComponent),
		bridged:     make(map[string]bridgedComponent),
	}
}

// Registry returns the component registry the engine reads from.
func (e *Engine) Registry() *registry.ComponentRegistry {
	return e.registry
}

// MountPrefix returns the static mount prefix used for asset URLs.
func (e *Engine) MountPrefix() string {
	return e.mountPrefix
}

// Compile parses a component source, extracting its asset declaration and
// compiling the template body, and registers the result under name. The
// file argument is used for error reporting and change detection only.
//
// Malformed marker syntax or an invalid template body fail compilation of
// this component; previously registered components are unaffected.
func (e *Engine) Compile(name, file, source string) (*types.ComponentInfo, error) {
	decl, body, err := assets.ParseDeclaration(file, source)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(placeholderFuncs()).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("compiling component %s: %w", name, err)
	}

	info := &types.ComponentInfo{
		Name:     name,
		FilePath: file,
		Assets:   decl,
		Body:     body,
		Hash:     hashSource(source),
	}

	e.mutex.Lock()
	e.compiled[name] = &compiledComponent{hash: info.Hash, tmpl: tmpl}
	delete(e.bridged, name)
	e.mutex.Unlock()

	e.registry.Register(info)
	return info, nil
}

// prototype returns the compiled template for a registered component,
// compiling the stored body on demand when the cached entry is missing or
// stale (the registry may be populated by an external scanner).
func (e *Engine) prototype(info *types.ComponentInfo) (*template.Template, error) {
	e.mutex.RLock()
	cc, ok := e.compiled[info.Name]
	e.mutex.RUnlock()
	if ok && cc.hash == info.Hash {
		return cc.tmpl, nil
	}

	tmpl, err := template.New(info.Name).Funcs(placeholderFuncs()).Parse(info.Body)
	if err != nil {
		return nil, fmt.Errorf("compiling component %s: %w", info.Name, err)
	}

	e.mutex.Lock()
	e.compiled[info.Name] = &compiledComponent{hash: info.Hash, tmpl: tmpl}
	e.mutex.Unlock()
	return tmpl, nil
}

// placeholderFuncs declares the render-scoped function names so template
// bodies referencing them parse. Executing a prototype directly would hit
// these; renders always execute a clone with the real bindings.
func placeholderFuncs() template.FuncMap {
	return template.FuncMap{
		"component": func(name string, data ...interface{}) (template.HTML, error) {
			return "", fmt.Errorf("component %q rendered outside a render call", name)
		},
		"collected_css": func() []string { return nil },
		"collected_js":  func() []string { return nil },
		"asset_tags":    func() template.HTML { return "" },
	}
}

// hashSource returns a CRC32 checksum of a component source for cheap
// change detection.
func hashSource(source string) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(source)))
}
