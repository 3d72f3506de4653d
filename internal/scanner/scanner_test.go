package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/registry"
)

func writeComponent(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func newTestScanner(t *testing.T) (*ComponentScanner, *engine.Engine, *registry.Roots) {
	t.Helper()
	reg := registry.NewComponentRegistry()
	eng := engine.New(reg, engine.Options{})
	roots := registry.NewRoots()
	return New(eng, roots, nil), eng, roots
}

func TestScanner_ScanAll(t *testing.T) {
	s, eng, roots := newTestScanner(t)

	dir := t.TempDir()
	writeComponent(t, dir, "card.weft", "{% css card.css %}\n<div>card</div>")
	writeComponent(t, dir, "ui/button.weft", "{% js button.js %}\n<button>go</button>")
	writeComponent(t, dir, "README.md", "not a component")
	roots.AddFolder(dir)

	require.NoError(t, s.ScanAll(context.Background()))

	assert.Equal(t, 2, eng.Registry().Count())

	card, ok := eng.Registry().Get("card")
	require.True(t, ok)
	assert.Equal(t, []string{"card.css"}, card.Assets.CSS)
	assert.NotEmpty(t, card.Hash)
	assert.False(t, card.LastMod.IsZero())

	button, ok := eng.Registry().Get("ui/button")
	require.True(t, ok)
	assert.Equal(t, []string{"button.js"}, button.Assets.JS)
}

func TestScanner_CompileFailureIsCollectedNotFatal(t *testing.T) {
	s, eng, roots := newTestScanner(t)

	dir := t.TempDir()
	writeComponent(t, dir, "good.weft", "<p>ok</p>")
	writeComponent(t, dir, "broken.weft", "{% css broken.css\n<p></p>")
	roots.AddFolder(dir)

	require.NoError(t, s.ScanAll(context.Background()))

	_, ok := eng.Registry().Get("good")
	assert.True(t, ok)
	_, ok = eng.Registry().Get("broken")
	assert.False(t, ok)

	require.True(t, s.Errors().HasErrors())
	templateErrors := s.Errors().TemplateErrors()
	require.Len(t, templateErrors, 1)
	assert.Contains(t, templateErrors[0].Message, "unterminated css marker")
}

func TestScanner_FirstRootKeepsShadowedName(t *testing.T) {
	s, eng, roots := newTestScanner(t)

	first := t.TempDir()
	second := t.TempDir()
	writeComponent(t, first, "card.weft", "<div>first</div>")
	writeComponent(t, second, "card.weft", "<div>second</div>")
	roots.AddFolder(first)
	roots.AddFolder(second)

	require.NoError(t, s.ScanAll(context.Background()))

	card, ok := eng.Registry().Get("card")
	require.True(t, ok)
	assert.Contains(t, card.Body, "first")
}

func TestScanner_ScanFileKeepsEarlierRootPrecedence(t *testing.T) {
	s, eng, roots := newTestScanner(t)

	first := t.TempDir()
	second := t.TempDir()
	writeComponent(t, first, "card.weft", "<div>first</div>")
	shadowed := writeComponent(t, second, "card.weft", "<div>second</div>")
	roots.AddFolder(first)
	roots.AddFolder(second)

	require.NoError(t, s.ScanAll(context.Background()))

	// An incremental rescan of the shadowed copy, as the dev server does
	// after a change event, must not displace the first root's component.
	secondRoot := roots.All()[1]
	require.NoError(t, s.ScanFile(context.Background(), secondRoot, shadowed))

	card, ok := eng.Registry().Get("card")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "card.weft"), card.FilePath)
	assert.Contains(t, card.Body, "first")
}

func TestScanner_ScanFileIncremental(t *testing.T) {
	s, eng, roots := newTestScanner(t)

	dir := t.TempDir()
	path := writeComponent(t, dir, "card.weft", "{% css old.css %}\n<div>old</div>")
	roots.AddFolder(dir)
	root := roots.All()[0]

	require.NoError(t, s.ScanFile(context.Background(), root, path))
	card, _ := eng.Registry().Get("card")
	assert.Equal(t, []string{"old.css"}, card.Assets.CSS)

	writeComponent(t, dir, "card.weft", "{% css new.css %}\n<div>new</div>")
	require.NoError(t, s.ScanFile(context.Background(), root, path))

	card, _ = eng.Registry().Get("card")
	assert.Equal(t, []string{"new.css"}, card.Assets.CSS)
}

func TestScanner_ScanFileRejectsForeignPath(t *testing.T) {
	s, _, roots := newTestScanner(t)
	dir := t.TempDir()
	roots.AddFolder(dir)
	root := roots.All()[0]

	err := s.ScanFile(context.Background(), root, filepath.Join(t.TempDir(), "other.weft"))
	assert.Error(t, err)

	err = s.ScanFile(context.Background(), root, filepath.Join(dir, "notes.txt"))
	assert.Error(t, err)
}

func TestComponentName(t *testing.T) {
	root := registry.Root{Name: "components", Path: "/srv/app/components"}

	name, ok := componentName(root, "/srv/app/components/card.weft")
	assert.True(t, ok)
	assert.Equal(t, "card", name)

	name, ok = componentName(root, "/srv/app/components/ui/forms/input.weft")
	assert.True(t, ok)
	assert.Equal(t, "ui/forms/input", name)

	_, ok = componentName(root, "/srv/app/components/card.css")
	assert.False(t, ok)

	_, ok = componentName(root, "/srv/app/other/card.weft")
	assert.False(t, ok)
}
