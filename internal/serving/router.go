// Package serving provides the HTTP middleware that serves declared
// component assets from the registered component roots.
//
// The middleware intercepts requests under a static mount prefix whose
// extension is in the allowed set, resolves them against the component
// roots in registration order (first existing file wins), and delegates the
// actual byte transfer, content-type, and conditional-request handling to
// http.ServeContent. Everything else passes through to the downstream
// handler untouched.
package serving

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/weftlabs/weft/internal/logging"
	"github.com/weftlabs/weft/internal/registry"
)

// DefaultAllowedExtensions is the extension set served when none is
// configured.
var DefaultAllowedExtensions = []string{".css", ".js"}

// Options configures an AssetServer.
type Options struct {
	// Prefix is the static mount point requests are matched against;
	// defaults to "/static/components/"
	Prefix string
	// AllowedExt lists the servable file extensions (with leading dot);
	// defaults to DefaultAllowedExtensions
	AllowedExt []string
	// Autorefresh re-checks the roots on every request instead of serving
	// from a snapshot computed at installation time. Development mode:
	// newly added files become visible immediately, at the cost of disk
	// checks per request.
	Autorefresh bool
	// Logger receives serving diagnostics
	Logger logging.Logger
}

// AssetServer is the asset-serving middleware. In snapshot mode the file
// set is fixed when the middleware is constructed, so it must be installed
// only after all component roots are registered; in autorefresh mode roots
// may keep growing.
type AssetServer struct {
	roots       *registry.Roots
	next        http.Handler
	prefix      string
	allowed     map[string]struct{}
	autorefresh bool
	logger      logging.Logger

	// snapshot maps relative asset paths to filesystem locations; nil in
	// autorefresh mode
	snapshot map[string]string
}

// NewAssetServer installs the asset middleware in front of next.
func NewAssetServer(roots *registry.Roots, next http.Handler, opts Options) *AssetServer {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "/static/components/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	exts := opts.AllowedExt
	if len(exts) == 0 {
		exts = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(nil)
	}

	s := &AssetServer{
		roots:       roots,
		next:        next,
		prefix:      prefix,
		allowed:     allowed,
		autorefresh: opts.Autorefresh,
		logger:      logger.WithComponent("serving"),
	}
	if !opts.Autorefresh {
		s.snapshot = buildSnapshot(roots, allowed)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *AssetServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.match(r.URL.Path)
	if !ok {
		s.next.ServeHTTP(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok = sanitizeRelPath(rel)
	if !ok {
		http.NotFound(w, r)
		return
	}

	file, ok := s.resolve(rel)
	if !ok {
		s.logger.Debug(r.Context(), "asset not resolved", "path", rel)
		http.NotFound(w, r)
		return
	}

	s.serveFile(w, r, rel, file)
}

// match decides whether a request path belongs to this middleware: it must
// carry the mount prefix and an allowed extension. Anything else is the
// downstream application's business.
func (s *AssetServer) match(urlPath string) (string, bool) {
	if !strings.HasPrefix(urlPath, s.prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(urlPath, s.prefix)
	if rel == "" {
		return "", false
	}
	ext := strings.ToLower(path.Ext(rel))
	if _, ok := s.allowed[ext]; !ok {
		return "", false
	}
	return rel, true
}

// resolve maps a sanitized relative path to a filesystem location, against
// the snapshot in production mode or the live roots in autorefresh mode.
func (s *AssetServer) resolve(rel string) (string, bool) {
	if s.snapshot != nil {
		file, ok := s.snapshot[rel]
		return file, ok
	}
	return s.roots.Resolve(rel)
}

// serveFile hands the resolved file to http.ServeContent, which owns
// content-type, range, and conditional-request behavior.
func (s *AssetServer) serveFile(w http.ResponseWriter, r *http.Request, rel, file string) {
	f, err := os.Open(file)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	if s.autorefresh {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
	}

	s.logger.Debug(r.Context(), "serving asset", "path", rel, "file", file)
	http.ServeContent(w, r, rel, info.ModTime(), f)
}

// sanitizeRelPath rejects traversal and absolute-path tricks so asset
// serving cannot escape the registered roots.
func sanitizeRelPath(rel string) (string, bool) {
	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}
	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}
	// After prefix stripping, a leading "/" indicates an absolute-path
	// attempt (e.g. "/static/components//etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}
	// Reject dot-segments before cleaning so traversal attempts are not
	// "cleaned away" into different requests.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	return clean, true
}

// buildSnapshot walks the roots once and records, for every servable file,
// the first root that provides it. Registration order gives earlier roots
// precedence over later ones for shadowed paths.
func buildSnapshot(roots *registry.Roots, allowed map[string]struct{}) map[string]string {
	snapshot := make(map[string]string)
	for _, root := range roots.All() {
		_ = filepath.Walk(root.Path, func(p string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(p))
			if _, ok := allowed[ext]; !ok {
				return nil
			}
			rel, err := filepath.Rel(root.Path, p)
			if err != nil {
				return nil
			}
			key := filepath.ToSlash(rel)
			if _, exists := snapshot[key]; !exists {
				snapshot[key] = p
			}
			return nil
		})
	}
	return snapshot
}
