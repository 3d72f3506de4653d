package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/watcher"
)

func watcherEvent(path string, deleted bool) watcher.ChangeEvent {
	eventType := watcher.EventTypeModified
	if deleted {
		eventType = watcher.EventTypeDeleted
	}
	return watcher.ChangeEvent{Type: eventType, Path: path}
}

func newTestServer(t *testing.T) (*PreviewServer, string) {
	t.Helper()

	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("card.weft", "{% css card.css %}\n<div class=\"card\">{{component \"button\"}}</div>")
	write("button.weft", "{% css button.css %}\n{% js button.js %}\n<button>go</button>")
	write("card.css", ".card { border: 1px solid; }")
	write("button.css", "button { color: red; }")
	write("button.js", "console.log('button');")

	cfg := &config.Config{}
	cfg.Components.Roots = []string{dir}
	cfg.Development.HotReload = false

	s, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.scanner.ScanAll(context.Background()))
	return s, dir
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["components"])
}

func TestServer_ComponentList(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/components", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []componentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "button", summaries[0].Name)
	assert.Equal(t, "card", summaries[1].Name)
	assert.Equal(t, []string{"card.css"}, summaries[1].CSS)
	assert.Equal(t, []string{"button.js"}, summaries[0].JS)
}

func TestServer_Index(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<a href="/preview/card">card</a>`)
	assert.Contains(t, body, `<a href="/preview/button">button</a>`)
	assert.Contains(t, body, "/ws")
}

func TestServer_PreviewCollectsNestedAssets(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/card", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `<div class="card">`)
	assert.Contains(t, body, "<button>go</button>")

	// The page head links the whole tree's assets, parent first.
	assert.Contains(t, body, `href="/static/components/card.css"`)
	assert.Contains(t, body, `href="/static/components/button.css"`)
	assert.Contains(t, body, `src="/static/components/button.js"`)
	assert.Less(t,
		strings.Index(body, "card.css"),
		strings.Index(body, "button.css"))
}

func TestServer_PreviewUnknownComponent(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ServesAssetsThroughMiddleware(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/components/card.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "border: 1px solid")
	// The dev server runs the middleware in autorefresh mode.
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestServer_AssetEditVisibleWithoutRestart(t *testing.T) {
	s, dir := newTestServer(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "card.css"), []byte(".card { border: none; }"), 0o644))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/components/card.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "border: none")
}

func TestServer_RegistryEventsTriggerReload(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := s.engine.Registry().Watch()
	go s.pumpRegistryEvents(ctx, events)

	_, err := s.engine.Compile("fresh", "fresh.weft", "<p>hi</p>")
	require.NoError(t, err)

	select {
	case msg := <-s.broadcast:
		assert.Contains(t, string(msg), `"reload"`)
	case <-time.After(time.Second):
		t.Fatal("no reload broadcast after component registration")
	}
}

func TestServer_AssetChangeTriggersReload(t *testing.T) {
	s, dir := newTestServer(t)

	require.NoError(t, s.handleFileChanges([]watcher.ChangeEvent{
		{Type: watcher.EventTypeModified, Path: filepath.Join(dir, "card.css")},
	}))

	select {
	case msg := <-s.broadcast:
		assert.Contains(t, string(msg), `"reload"`)
	default:
		t.Fatal("no reload broadcast after asset change")
	}
}

func TestServer_ReloadScriptReconnects(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ws.onclose")
	assert.Contains(t, body, "setTimeout(connect")
}

func TestServer_RescanOnChangeEvent(t *testing.T) {
	s, dir := newTestServer(t)

	path := filepath.Join(dir, "card.weft")
	require.NoError(t, os.WriteFile(path, []byte("{% css redesigned.css %}\n<div>new card</div>"), 0o644))

	s.rescan(context.Background(), watcherEvent(path, false))

	info, ok := s.engine.Registry().Get("card")
	require.True(t, ok)
	assert.Equal(t, []string{"redesigned.css"}, info.Assets.CSS)
}

func TestServer_DeleteEventRemovesComponent(t *testing.T) {
	s, dir := newTestServer(t)

	path := filepath.Join(dir, "card.weft")
	s.rescan(context.Background(), watcherEvent(path, true))

	_, ok := s.engine.Registry().Get("card")
	assert.False(t, ok)
}
