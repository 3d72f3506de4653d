package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/weftlabs/weft/internal/assets"
	"github.com/weftlabs/weft/internal/types"
)

// bridgedComponent is an a-h/templ component registered under a weft name
// together with the assets it declares.
type bridgedComponent struct {
	component templ.Component
	decl      assets.Declaration
}

// RegisterTempl registers a templ component under name. When rendered,
// directly or as a child via the component template func, it reports decl
// into the active render's collector exactly like a .weft component, then
// delegates HTML generation to the templ component itself.
//
// Bridged components ignore render data; templ components carry their
// parameters in their closure.
func (e *Engine) RegisterTempl(name string, decl assets.Declaration, component templ.Component) {
	e.mutex.Lock()
	e.bridged[name] = bridgedComponent{component: component, decl: decl}
	delete(e.compiled, name)
	e.mutex.Unlock()

	e.registry.Register(&types.ComponentInfo{
		Name:   name,
		Root:   "templ",
		Assets: decl,
	})
}

// renderBridged reports the bridged declaration and renders the templ
// component into a string.
func (s *renderState) renderBridged(ctx context.Context, name string, bridge bridgedComponent) (string, error) {
	s.collector.Report(bridge.decl)

	var buf strings.Builder
	if err := bridge.component.Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("rendering templ component %s: %w", name, err)
	}
	return buf.String(), nil
}
