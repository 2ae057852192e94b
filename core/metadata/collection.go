package metadata

import (
	"sort"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/definition"
)

// Collection is the ordered set of items owned by one media object. At
// most one item per kind is expected; callers enforce that.
type Collection struct {
	MediaObjectID int
	// PersistDefault is the gallery write-back default applied to items
	// whose definition does not set one.
	PersistDefault bool
	items          []*Item
}

// NewCollection returns an empty collection for the media object.
func NewCollection(mediaObjectID int) *Collection {
	return &Collection{MediaObjectID: mediaObjectID}
}

// Len returns the number of items, deleted ones included.
func (c *Collection) Len() int { return len(c.items) }

// Items returns the items in display order.
func (c *Collection) Items() []*Item {
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// Contains reports whether an item of kind k exists.
func (c *Collection) Contains(k core.Kind) bool {
	_, ok := c.Get(k)
	return ok
}

// Get returns the item of kind k.
func (c *Collection) Get(k core.Kind) (*Item, bool) {
	for _, it := range c.items {
		if it.kind == k {
			return it, true
		}
	}
	return nil, false
}

// Add appends it and takes ownership of it.
func (c *Collection) Add(it *Item) {
	it.MediaObjectID = c.MediaObjectID
	c.items = append(c.items, it)
}

// Set stores a user edit for kind k, creating the item when needed. The
// returned item is dirty when the value changed.
func (c *Collection) Set(k core.Kind, v core.MetaValue, def definition.Definition) (*Item, bool) {
	if it, ok := c.Get(k); ok {
		it.PersistToFile = it.Definition.Persists(c.PersistDefault)
		changed := it.SetMetaValue(v)
		if it.deleted {
			it.deleted = false
			it.dirty = true
			changed = true
		}
		return it, changed
	}
	it := NewItem(c.MediaObjectID, k, v, def)
	it.PersistToFile = def.Persists(c.PersistDefault)
	it.dirty = true
	c.Add(it)
	return it, true
}

// ApplyDisplayOptions orders the items by definition sequence and sets
// each item's visibility for a container or a leaf object and its
// write-back flag.
func (c *Collection) ApplyDisplayOptions(reg *definition.Registry, isContainer bool) {
	for _, it := range c.items {
		it.Definition = reg.Lookup(it.kind)
		it.PersistToFile = it.Definition.Persists(c.PersistDefault)
		if isContainer {
			it.visible = it.Definition.VisibleForContainer
		} else {
			it.visible = it.Definition.VisibleForLeaf
		}
	}
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].Definition.Sequence < c.items[j].Definition.Sequence
	})
}

// ItemsToSave returns the dirty items.
func (c *Collection) ItemsToSave() []*Item {
	var out []*Item
	for _, it := range c.items {
		if it.dirty {
			out = append(out, it)
		}
	}
	return out
}

// VisibleItems returns the visible items that are not deleted.
func (c *Collection) VisibleItems() []*Item {
	var out []*Item
	for _, it := range c.items {
		if it.visible && !it.deleted {
			out = append(out, it)
		}
	}
	return out
}

// HasChanges reports whether any item is dirty.
func (c *Collection) HasChanges() bool {
	for _, it := range c.items {
		if it.dirty {
			return true
		}
	}
	return false
}

// Sweep drops deleted items and clears the dirty flag of the rest. It runs
// after the changes have been saved.
func (c *Collection) Sweep() {
	kept := c.items[:0]
	for _, it := range c.items {
		if it.deleted {
			continue
		}
		it.dirty = false
		kept = append(kept, it)
	}
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = nil
	}
	c.items = kept
}

// Copy returns a deep copy; changes to the copy do not affect c.
func (c *Collection) Copy() *Collection {
	out := &Collection{MediaObjectID: c.MediaObjectID, PersistDefault: c.PersistDefault, items: make([]*Item, len(c.items))}
	for i, it := range c.items {
		out.items[i] = it.Copy()
	}
	return out
}
