package server

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/weftlabs/weft/internal/types"
)

type componentSummary struct {
	Name    string   `json:"name"`
	Root    string   `json:"root,omitempty"`
	File    string   `json:"file,omitempty"`
	CSS     []string `json:"css,omitempty"`
	JS      []string `json:"js,omitempty"`
	LastMod string   `json:"last_mod,omitempty"`
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     "ok",
		"components": s.engine.Registry().Count(),
	})
}

func (s *PreviewServer) handleComponentList(w http.ResponseWriter, r *http.Request) {
	components := s.sortedComponents()
	summaries := make([]componentSummary, 0, len(components))
	for _, info := range components {
		summary := componentSummary{
			Name: info.Name,
			Root: info.Root,
			File: info.FilePath,
			CSS:  info.Assets.CSS,
			JS:   info.Assets.JS,
		}
		if !info.LastMod.IsZero() {
			summary.LastMod = info.LastMod.Format(time.RFC3339)
		}
		summaries = append(summaries, summary)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	components := s.sortedComponents()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html>\n<head>\n<title>weft components</title>\n</head>\n<body>\n")
	fmt.Fprintf(w, "<h1>Components (%d)</h1>\n<ul>\n", len(components))
	for _, info := range components {
		name := html.EscapeString(info.Name)
		fmt.Fprintf(w, "<li><a href=\"/preview/%s\">%s</a></li>\n", name, name)
	}
	fmt.Fprint(w, "</ul>\n")
	fmt.Fprint(w, reloadScript)
	fmt.Fprint(w, "</body>\n</html>\n")
}

// handlePreview renders one component inside a minimal page shell. The
// shell's head carries the assets the render collected, so the preview
// loads exactly the CSS and JS the component tree declared.
func (s *PreviewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		http.Error(w, "component name required", http.StatusBadRequest)
		return
	}

	markup, collector, err := s.engine.Render(r.Context(), name, nil)
	if err != nil {
		s.logger.Warn(r.Context(), err, "preview render failed", "component", name)
		http.Error(w, fmt.Sprintf("render %s: %v", name, err), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(w, "<title>%s</title>\n", html.EscapeString(name))
	fmt.Fprint(w, collector.RenderMarkup())
	fmt.Fprint(w, "</head>\n<body>\n")
	fmt.Fprint(w, markup)
	fmt.Fprint(w, reloadScript)
	fmt.Fprint(w, "</body>\n</html>\n")
}

func (s *PreviewServer) sortedComponents() []*types.ComponentInfo {
	all := s.engine.Registry().GetAll()
	components := make([]*types.ComponentInfo, 0, len(all))
	for _, info := range all {
		components = append(components, info)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})
	return components
}

const reloadScript = `<script>
(function() {
	function connect() {
		var proto = location.protocol === "https:" ? "wss:" : "ws:";
		var ws = new WebSocket(proto + "//" + location.host + "/ws");
		ws.onmessage = function(msg) {
			var data = JSON.parse(msg.data);
			if (data.type === "reload") {
				location.reload();
			}
		};
		ws.onclose = function() {
			setTimeout(connect, 1000);
		};
	}
	connect();
})();
</script>
`
