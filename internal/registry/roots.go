package registry

import (
	"os"
	"path/filepath"
	"sync"
)

// Root is a named component-root folder. Component source files and the
// asset files they declare both live under a root.
type Root struct {
	// Name identifies the root (defaults to the folder's base name)
	Name string
	// Path is the filesystem location of the root
	Path string
}

// Roots is the ordered registry of component-root folders. Roots are
// appended during application setup and read-only thereafter; registration
// order is significant because asset resolution takes the first root that
// contains a requested file.
type Roots struct {
	mutex sync.RWMutex
	roots []Root
}

// NewRoots creates an empty root registry.
func NewRoots() *Roots {
	return &Roots{}
}

// AddFolder registers a component-root folder. Re-adding the same folder is
// allowed; the earlier entry keeps resolution precedence.
func (r *Roots) AddFolder(path string) {
	r.Add(filepath.Base(filepath.Clean(path)), path)
}

// Add registers a named component-root folder.
func (r *Roots) Add(name, path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.roots = append(r.roots, Root{Name: name, Path: path})
}

// All returns the registered roots in registration order.
func (r *Roots) All() []Root {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]Root, len(r.roots))
	copy(out, r.roots)
	return out
}

// Len returns the number of registered roots.
func (r *Roots) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.roots)
}

// Resolve maps a relative asset path to the filesystem location of the
// first registered root that contains it as a regular file. The relative
// path must already be sanitized; Resolve joins and stats, nothing more.
func (r *Roots) Resolve(rel string) (string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, root := range r.roots {
		candidate := filepath.Join(root.Path, filepath.FromSlash(rel))
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return candidate, true
	}
	return "", false
}
