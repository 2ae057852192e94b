// Package resolve selects the resolver for a media object and extracts its
// full metadata collection.
package resolve

import (
	"errors"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/album"
	"github.com/rdogmartin/gallerymeta/core/audio"
	"github.com/rdogmartin/gallerymeta/core/definition"
	"github.com/rdogmartin/gallerymeta/core/external"
	"github.com/rdogmartin/gallerymeta/core/image"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/core/metadata"
	"github.com/rdogmartin/gallerymeta/core/video"
)

// New returns the resolver for obj's media kind. Generic objects get the
// leaf resolver.
func New(obj core.MediaObject, env leaf.Env) core.Resolver {
	switch obj.Kind {
	case core.MediaContainer:
		return album.New(obj, env)
	case core.MediaImage:
		return image.New(obj, env)
	case core.MediaVideo:
		return video.New(obj, env)
	case core.MediaAudio:
		return audio.New(obj, env)
	case core.MediaExternal:
		return external.New(obj, env)
	}
	return leaf.New(obj, env)
}

// Extract resolves every kind for obj and returns the collection in display
// order. A defect for one kind is joined into the returned error; the other
// kinds are still extracted.
func Extract(obj core.MediaObject, env leaf.Env, reg *definition.Registry) (*metadata.Collection, error) {
	if reg == nil {
		reg = definition.Default()
	}
	r := New(obj, env)
	col := metadata.NewCollection(obj.ID)
	col.PersistDefault = env.Settings.PersistToFile
	var errs []error
	for _, k := range core.AllKinds() {
		v, ok, err := r.Get(k)
		if err != nil {
			env.Logger().WithError(err).WithField("kind", k.String()).Warn("metadata extraction failed")
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		col.Add(metadata.NewItem(obj.ID, k, v, reg.Lookup(k)))
	}
	col.ApplyDisplayOptions(reg, obj.Kind == core.MediaContainer)
	return col, errors.Join(errs...)
}
