// Package metadata holds the extracted metadata items of one media object.
package metadata

import (
	"encoding/json"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/definition"
)

// Item is one metadata value of a media object. Setters mark the item
// dirty and report whether anything changed.
type Item struct {
	ID            int
	MediaObjectID int
	// PersistToFile marks the item for write-back into the original file.
	PersistToFile bool
	Definition    definition.Definition

	kind        core.Kind
	description string
	rawValue    string
	value       string

	dirty   bool
	visible bool
	deleted bool
}

// NewItem returns a clean item as produced by extraction. It is marked
// for write-back only when def says so explicitly; a collection applies the
// gallery default.
func NewItem(mediaObjectID int, kind core.Kind, v core.MetaValue, def definition.Definition) *Item {
	return &Item{
		MediaObjectID: mediaObjectID,
		PersistToFile: def.Persists(false),
		Definition:    def,
		kind:          kind,
		description:   def.DisplayName,
		rawValue:      v.Raw,
		value:         v.Formatted,
	}
}

func (it *Item) Kind() core.Kind     { return it.kind }
func (it *Item) Description() string { return it.description }
func (it *Item) RawValue() string    { return it.rawValue }
func (it *Item) Value() string       { return it.value }
func (it *Item) IsDirty() bool       { return it.dirty }
func (it *Item) IsVisible() bool     { return it.visible }
func (it *Item) IsDeleted() bool     { return it.deleted }
func (it *Item) Editable() bool      { return it.Definition.Editable() }
func (it *Item) MetaValue() core.MetaValue {
	return core.MetaValue{Raw: it.rawValue, Formatted: it.value}
}

func (it *Item) setString(dst *string, v string) bool {
	if *dst == v {
		return false
	}
	*dst = v
	it.dirty = true
	return true
}

// SetValue changes the display value.
func (it *Item) SetValue(v string) bool { return it.setString(&it.value, v) }

// SetRawValue changes the raw value.
func (it *Item) SetRawValue(v string) bool { return it.setString(&it.rawValue, v) }

// SetDescription changes the label.
func (it *Item) SetDescription(v string) bool { return it.setString(&it.description, v) }

// SetMetaValue replaces both forms of the value.
func (it *Item) SetMetaValue(v core.MetaValue) bool {
	a := it.SetValue(v.Formatted)
	b := it.SetRawValue(v.Raw)
	return a || b
}

// SetKind changes the kind of the item.
func (it *Item) SetKind(k core.Kind) bool {
	if it.kind == k {
		return false
	}
	it.kind = k
	it.dirty = true
	return true
}

// MarkDeleted flags the item for removal at the next save sweep.
func (it *Item) MarkDeleted() bool {
	if it.deleted {
		return false
	}
	it.deleted = true
	it.dirty = true
	return true
}

// MarkClean clears the dirty flag after the item has been saved.
func (it *Item) MarkClean() { it.dirty = false }

// Copy returns an independent copy of the item.
func (it *Item) Copy() *Item {
	c := *it
	if it.Definition.PersistToFile != nil {
		p := *it.Definition.PersistToFile
		c.Definition.PersistToFile = &p
	}
	return &c
}

// MarshalJSON renders the item for the CLI printer.
func (it *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind        core.Kind `json:"kind"`
		Description string    `json:"description"`
		Value       string    `json:"value"`
		Raw         string    `json:"raw,omitempty"`
	}{it.kind, it.description, it.value, it.rawValue})
}

// Row returns the item as printed by the CLI.
func (it *Item) Row() core.Row {
	return core.Row{
		Kind:     it.kind,
		Name:     it.description,
		Value:    it.value,
		Raw:      it.rawValue,
		Category: core.Category(it.kind),
		Editable: it.Editable(),
		Visible:  it.visible,
	}
}
