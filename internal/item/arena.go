package item

import "time"

// Arena owns every Item of a viewing session. It performs no locking.
type Arena struct {
	items map[ID]*Item
	order []ID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{items: make(map[ID]*Item)}
}

// Add creates an item for filename and returns its ID.
func (a *Arena) Add(filename string, mtime time.Time) ID {
	id := NewID()
	a.items[id] = &Item{ID: id, Filename: filename, Mtime: mtime}
	a.order = append(a.order, id)
	return id
}

// Get resolves id, or returns nil if it is unknown or removed.
func (a *Arena) Get(id ID) *Item {
	return a.items[id]
}

// Remove drops id from the arena. It reports whether the item existed.
func (a *Arena) Remove(id ID) bool {
	if _, ok := a.items[id]; !ok {
		return false
	}
	delete(a.items, id)
	for i, v := range a.order {
		if v == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of live items.
func (a *Arena) Len() int {
	return len(a.items)
}

// IDs returns live IDs in insertion order.
func (a *Arena) IDs() []ID {
	out := make([]ID, len(a.order))
	copy(out, a.order)
	return out
}
