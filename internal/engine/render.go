package engine

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/weftlabs/weft/internal/assets"
)

// renderState is the per-render context threaded through every nested
// component render of one top-level call. It owns the render's collector;
// nothing in it is shared with any other render.
type renderState struct {
	engine    *Engine
	collector *assets.Collector
	depth     int
}

// Render executes the named component as a top-level render. A fresh
// collector is created for the call, every component in the resulting tree
// reports its asset declaration into it, and it is returned alongside the
// HTML so callers can read collected_css/collected_js after the fact.
func (e *Engine) Render(ctx context.Context, name string, data interface{}) (string, *assets.Collector, error) {
	collector := assets.NewCollector(e.mountPrefix)
	state := &renderState{engine: e, collector: collector}

	html, err := state.renderComponent(ctx, name, data)
	if err != nil {
		return "", nil, err
	}

	e.logger.Debug(ctx, "render complete",
		"component", name,
		"css_count", len(collector.CSSPaths()),
		"js_count", len(collector.JSPaths()))
	return html, collector, nil
}

// LayoutData is the data a layout template receives from RenderWithLayout.
type LayoutData struct {
	// Content is the already-rendered page HTML
	Content template.HTML
	// Data is the caller-provided render data, as passed to the page
	Data interface{}
}

// RenderWithLayout renders page first and then layout around it, sharing
// one collector across both. Because the page's whole tree has reported by
// the time the layout executes, an asset_tags call in the layout's <head>
// sees every asset the page declared. The layout receives a LayoutData
// value and emits the page via {{.Content}}.
func (e *Engine) RenderWithLayout(ctx context.Context, page, layout string, data interface{}) (string, *assets.Collector, error) {
	collector := assets.NewCollector(e.mountPrefix)
	state := &renderState{engine: e, collector: collector}

	content, err := state.renderComponent(ctx, page, data)
	if err != nil {
		return "", nil, err
	}

	html, err := state.renderComponent(ctx, layout, LayoutData{
		Content: template.HTML(content),
		Data:    data,
	})
	if err != nil {
		return "", nil, err
	}
	return html, collector, nil
}

// renderComponent renders one component instance: report its declaration,
// then execute its body, which may recurse into children via the component
// template func.
func (s *renderState) renderComponent(ctx context.Context, name string, data interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.depth >= maxRenderDepth {
		return "", fmt.Errorf("component nesting exceeds %d levels rendering %s (definition cycle?)", maxRenderDepth, name)
	}

	e := s.engine

	e.mutex.RLock()
	bridge, isBridged := e.bridged[name]
	e.mutex.RUnlock()
	if isBridged {
		return s.renderBridged(ctx, name, bridge)
	}

	info, ok := e.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("component %s not found", name)
	}

	prototype, err := e.prototype(info)
	if err != nil {
		return "", err
	}

	// The declaration step runs once per instance, before the body, so a
	// component's own assets are recorded ahead of its children's.
	s.collector.Report(info.Assets)

	clone, err := prototype.Clone()
	if err != nil {
		return "", fmt.Errorf("cloning template for %s: %w", name, err)
	}
	clone.Funcs(s.renderFuncs(ctx))

	var buf strings.Builder
	if err := clone.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering component %s: %w", name, err)
	}
	return buf.String(), nil
}

// renderFuncs binds this render's collector into the template function map.
// This is what makes the collector reachable from any nesting depth without
// explicit parameter passing.
func (s *renderState) renderFuncs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"component": func(name string, data ...interface{}) (template.HTML, error) {
			var childData interface{}
			switch len(data) {
			case 0:
			case 1:
				childData = data[0]
			default:
				return "", fmt.Errorf("component %q: want at most one data argument, got %d", name, len(data))
			}

			child := &renderState{
				engine:    s.engine,
				collector: s.collector,
				depth:     s.depth + 1,
			}
			html, err := child.renderComponent(ctx, name, childData)
			if err != nil {
				return "", err
			}
			return template.HTML(html), nil
		},
		"collected_css": s.collector.CSSPaths,
		"collected_js":  s.collector.JSPaths,
		"asset_tags":    s.collector.RenderMarkup,
	}
}
