// Package scanner discovers .weft component sources under the registered
// component roots and compiles them into the component registry.
//
// Component names derive from the file's root-relative path without the
// extension ("card.weft" becomes lookup name "card", "ui/button.weft"
// becomes "ui/button"). A component that fails to compile is recorded in
// the scanner's error collector and skipped; the rest of the scan proceeds.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/errors"
	"github.com/weftlabs/weft/internal/logging"
	"github.com/weftlabs/weft/internal/registry"
)

// SourceExt is the component source file extension.
const SourceExt = ".weft"

// ComponentScanner walks component roots and compiles what it finds.
type ComponentScanner struct {
	engine *engine.Engine
	roots  *registry.Roots
	logger logging.Logger
	errors *errors.ErrorCollector

	// seen tracks component names claimed during the current full scan so
	// earlier roots keep precedence over later ones for shadowed names
	seenMutex sync.Mutex
	seen      map[string]string
}

// New creates a scanner that compiles into eng and reads roots.
func New(eng *engine.Engine, roots *registry.Roots, logger logging.Logger) *ComponentScanner {
	if logger == nil {
		logger = logging.NewLogger(nil)
	}
	return &ComponentScanner{
		engine: eng,
		roots:  roots,
		logger: logger.WithComponent("scanner"),
		errors: errors.NewErrorCollector(),
	}
}

// Errors returns the collector holding compile failures from past scans.
func (s *ComponentScanner) Errors() *errors.ErrorCollector {
	return s.errors
}

// ScanAll scans every registered root in registration order. Compile
// failures are collected, not returned; the error return covers filesystem
// problems only.
func (s *ComponentScanner) ScanAll(ctx context.Context) error {
	s.seenMutex.Lock()
	s.seen = make(map[string]string)
	s.seenMutex.Unlock()

	for _, root := range s.roots.All() {
		if err := s.ScanRoot(ctx, root); err != nil {
			return fmt.Errorf("scanning root %s: %w", root.Path, err)
		}
	}
	return nil
}

// ScanRoot scans a single component root, compiling files concurrently.
func (s *ComponentScanner) ScanRoot(ctx context.Context, root registry.Root) error {
	var paths []string
	err := filepath.Walk(root.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" || info.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == SourceExt {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	jobs := make(chan string)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				s.scanFile(ctx, root, path)
			}
		}()
	}
	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	return nil
}

// ScanFile compiles a single source file, used by the dev server for
// incremental rescans after a change event.
func (s *ComponentScanner) ScanFile(ctx context.Context, root registry.Root, path string) error {
	name, ok := componentName(root, path)
	if !ok {
		return fmt.Errorf("file %s is not a %s source under root %s", path, SourceExt, root.Path)
	}

	// A same-named component in an earlier root keeps precedence; a change
	// to a shadowed copy must not replace the registered component.
	if kept, shadowed := s.shadowedBy(root, name); shadowed {
		s.logger.Debug(ctx, "skipping shadowed component", "name", name, "file", path, "kept", kept)
		return nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading component source: %w", err)
	}

	info, err := s.engine.Compile(name, path, string(source))
	if err != nil {
		s.errors.AddError(err)
		return err
	}
	info.Root = root.Name
	if stat, statErr := os.Stat(path); statErr == nil {
		info.LastMod = stat.ModTime()
	}

	s.logger.Debug(ctx, "compiled component",
		"name", name,
		"file", path,
		"css", len(info.Assets.CSS),
		"js", len(info.Assets.JS))
	return nil
}

// scanFile is the full-scan worker body: it honors first-root precedence
// and downgrades compile failures to collected errors.
func (s *ComponentScanner) scanFile(ctx context.Context, root registry.Root, path string) {
	name, ok := componentName(root, path)
	if !ok {
		return
	}

	s.seenMutex.Lock()
	if prev, shadowed := s.seen[name]; shadowed && prev != path {
		s.seenMutex.Unlock()
		s.logger.Debug(ctx, "skipping shadowed component", "name", name, "file", path, "kept", prev)
		return
	}
	s.seen[name] = path
	s.seenMutex.Unlock()

	if err := s.ScanFile(ctx, root, path); err != nil {
		s.logger.Warn(ctx, err, "component failed to compile", "file", path)
	}
}

// shadowedBy reports whether a root registered earlier than root also
// provides the named component, returning the providing file.
func (s *ComponentScanner) shadowedBy(root registry.Root, name string) (string, bool) {
	for _, candidate := range s.roots.All() {
		if candidate == root {
			return "", false
		}
		candidatePath := filepath.Join(candidate.Path, filepath.FromSlash(name)+SourceExt)
		if info, err := os.Stat(candidatePath); err == nil && info.Mode().IsRegular() {
			return candidatePath, true
		}
	}
	return "", false
}

// componentName derives a component's lookup name from its root-relative
// path, e.g. "<root>/ui/button.weft" -> "ui/button".
func componentName(root registry.Root, path string) (string, bool) {
	if filepath.Ext(path) != SourceExt {
		return "", false
	}
	rel, err := filepath.Rel(root.Path, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, SourceExt)), true
}
