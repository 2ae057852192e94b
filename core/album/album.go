// Package album resolves metadata for containers: directory-backed groups
// of media objects.
package album

import (
	"path/filepath"
	"strings"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// Resolver answers Title, Caption and DateAdded for a container.
type Resolver struct {
	base *leaf.Resolver
	obj  core.MediaObject
}

var _ core.Resolver = (*Resolver)(nil)

// New returns the container resolver for obj.
func New(obj core.MediaObject, env leaf.Env) *Resolver {
	return &Resolver{base: leaf.New(obj, env), obj: obj}
}

// Get implements core.Resolver.
func (r *Resolver) Get(kind core.Kind) (core.MetaValue, bool, error) {
	switch kind {
	case core.KindTitle:
		return r.title()
	case core.KindCaption:
		s := strings.TrimSpace(r.obj.Summary)
		if s == "" {
			return core.MetaValue{}, false, nil
		}
		r.base.Hit(core.MediaContainer, metrics.TierStored)
		return core.TextValue(s), true, nil
	case core.KindDateAdded:
		return r.base.Get(kind)
	}
	return core.MetaValue{}, false, nil
}

// title is the directory name. The root keeps its stored title, and a
// container that has not been saved has no directory yet.
func (r *Resolver) title() (core.MetaValue, bool, error) {
	if r.obj.IsRoot {
		if s := strings.TrimSpace(r.obj.Title); s != "" {
			r.base.Hit(core.MediaContainer, metrics.TierStored)
			return core.TextValue(s), true, nil
		}
	}
	if r.obj.IsNew || r.obj.Path == "" {
		return core.MetaValue{}, false, nil
	}
	name := filepath.Base(filepath.Clean(r.obj.Path))
	if name == "." || name == string(filepath.Separator) {
		return core.MetaValue{}, false, nil
	}
	r.base.Hit(core.MediaContainer, metrics.TierFile)
	return core.TextValue(name), true, nil
}
