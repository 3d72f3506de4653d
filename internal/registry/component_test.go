package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weftlabs/weft/internal/assets"
	"github.com/weftlabs/weft/internal/types"
)

func TestNewComponentRegistry(t *testing.T) {
	registry := NewComponentRegistry()

	assert.NotNil(t, registry)
	assert.Equal(t, 0, registry.Count())
}

func TestComponentRegistry_Register(t *testing.T) {
	registry := NewComponentRegistry()

	component := &types.ComponentInfo{
		Name:     "Card",
		Root:     "components",
		FilePath: "components/card.weft",
		Assets:   assets.Declaration{CSS: []string{"card.css"}},
	}

	registry.Register(component)

	retrieved, exists := registry.Get("Card")
	assert.True(t, exists)
	assert.Equal(t, component, retrieved)
	assert.Equal(t, 1, registry.Count())

	all := registry.GetAll()
	assert.Len(t, all, 1)
	assert.Equal(t, component, all["Card"])
}

func TestComponentRegistry_Update(t *testing.T) {
	registry := NewComponentRegistry()

	registry.Register(&types.ComponentInfo{
		Name:     "Card",
		FilePath: "components/card.weft",
		Assets:   assets.Declaration{CSS: []string{"card.css"}},
	})
	updated := &types.ComponentInfo{
		Name:     "Card",
		FilePath: "components/card.weft",
		Assets:   assets.Declaration{CSS: []string{"card.css"}, JS: []string{"card.js"}},
	}
	registry.Register(updated)

	retrieved, exists := registry.Get("Card")
	assert.True(t, exists)
	assert.Equal(t, updated, retrieved)
	assert.Equal(t, 1, registry.Count())
}

func TestComponentRegistry_Remove(t *testing.T) {
	registry := NewComponentRegistry()
	registry.Register(&types.ComponentInfo{Name: "Card", FilePath: "components/card.weft"})

	registry.Remove("Card")

	_, exists := registry.Get("Card")
	assert.False(t, exists)
	assert.Equal(t, 0, registry.Count())

	// Removing a missing component is a no-op.
	registry.Remove("Card")
	assert.Equal(t, 0, registry.Count())
}

func TestComponentRegistry_RemoveByPath(t *testing.T) {
	registry := NewComponentRegistry()
	registry.Register(&types.ComponentInfo{Name: "Card", FilePath: "components/card.weft"})
	registry.Register(&types.ComponentInfo{Name: "Button", FilePath: "components/button.weft"})

	registry.RemoveByPath("components/card.weft")

	_, exists := registry.Get("Card")
	assert.False(t, exists)
	_, exists = registry.Get("Button")
	assert.True(t, exists)
}

func TestComponentRegistry_Watch(t *testing.T) {
	registry := NewComponentRegistry()
	events := registry.Watch()

	registry.Register(&types.ComponentInfo{Name: "Card"})
	registry.Register(&types.ComponentInfo{Name: "Card"})
	registry.Remove("Card")

	assert.Equal(t, types.EventTypeAdded, nextEvent(t, events).Type)
	assert.Equal(t, types.EventTypeUpdated, nextEvent(t, events).Type)
	assert.Equal(t, types.EventTypeRemoved, nextEvent(t, events).Type)

	registry.UnWatch(events)
	registry.Register(&types.ComponentInfo{Name: "Button"})
	_, open := <-events
	assert.False(t, open)
}

func nextEvent(t *testing.T, ch <-chan types.ComponentEvent) types.ComponentEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for component event")
		return types.ComponentEvent{}
	}
}
