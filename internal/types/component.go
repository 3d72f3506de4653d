// Package types provides common type definitions shared by the scanner,
// registry, and engine. Keeping them here avoids circular dependencies
// between those packages.
package types

import (
	"time"

	"github.com/weftlabs/weft/internal/assets"
)

// ComponentInfo contains the compile-time metadata of a discovered .weft
// component: where it came from, what assets it declares, and the template
// body left after the metadata header is stripped.
type ComponentInfo struct {
	// Name is the component identifier (e.g. "Card", "ui/Button")
	Name string
	// Root is the name of the component root the file was found under
	Root string
	// FilePath is the path to the .weft source file
	FilePath string
	// Assets holds the CSS/JS paths declared in the metadata header
	Assets assets.Declaration
	// Body is the template source with the metadata header stripped
	Body string
	// Hash is a CRC32 checksum of the source for change detection
	Hash string
	// LastMod tracks the last modification time for change detection
	LastMod time.Time
}

// EventType represents the type of component change event.
type EventType string

const (
	EventTypeAdded   EventType = "added"
	EventTypeUpdated EventType = "updated"
	EventTypeRemoved EventType = "removed"
)

// ComponentEvent represents a change in the component registry, consumed by
// watchers such as the development server's live reload.
type ComponentEvent struct {
	// Type indicates the kind of change (added, updated, removed)
	Type EventType
	// Component contains the component information (may be nil for removed events)
	Component *ComponentInfo
	// Timestamp records when the event occurred
	Timestamp time.Time
}
