// Package video resolves metadata for video files from the external
// encoder's diagnostic output, falling back to the MP4 movie header for the
// duration.
package video

import (
	"context"
	"strconv"
	"sync"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/encoder"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
	"github.com/rdogmartin/gallerymeta/internal/logger"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// Resolver answers video kinds for one media object.
type Resolver struct {
	base *leaf.Resolver
	obj  core.MediaObject
	env  leaf.Env
	log  *logger.Logger

	info     func() encoder.Info
	duration func() (float64, bool)
}

var _ core.Resolver = (*Resolver)(nil)

// New returns the video resolver for obj. The encoder runs at most once.
func New(obj core.MediaObject, env leaf.Env) *Resolver {
	r := &Resolver{
		base: leaf.New(obj, env),
		obj:  obj,
		env:  env,
		log:  env.Logger().WithFields(map[string]any{"component": "video", "path": obj.Path}),
	}
	r.info = sync.OnceValue(func() encoder.Info {
		in, err := encoder.Probe(context.Background(), env.Encoder, obj.Path, env.Settings.GalleryID)
		if err != nil {
			r.log.WithError(err).Warn("encoder probe failed")
		}
		return in
	})
	r.duration = sync.OnceValues(func() (float64, bool) {
		if env.FS == nil {
			return 0, false
		}
		f, err := env.FS.Open(obj.Path)
		if err != nil {
			return 0, false
		}
		defer f.Close()
		return MovieDuration(f)
	})
	return r
}

// Get implements core.Resolver.
func (r *Resolver) Get(kind core.Kind) (core.MetaValue, bool, error) {
	switch kind {
	case core.KindDuration, core.KindBitRate, core.KindAudioFormat, core.KindVideoFormat:
		if v, ok := r.info().Value(kind, r.base.Fmt); ok {
			r.base.Hit(core.MediaVideo, metrics.TierEncoder)
			return v, true, nil
		}
		if kind == core.KindDuration {
			if sec, ok := r.duration(); ok {
				r.base.Hit(core.MediaVideo, metrics.TierFile)
				return core.NewMetaValue(encoder.FormatSeconds(sec), core.Number(sec)), true, nil
			}
		}
		return core.MetaValue{}, false, nil

	case core.KindWidth, core.KindHeight, core.KindDimensions:
		w, h, tier := r.size()
		if w <= 0 || h <= 0 {
			return core.MetaValue{}, false, nil
		}
		r.base.Hit(core.MediaVideo, tier)
		switch kind {
		case core.KindWidth:
			return pixels(w), true, nil
		case core.KindHeight:
			return pixels(h), true, nil
		}
		return core.MetaValue{Formatted: strconv.Itoa(w) + " x " + strconv.Itoa(h)}, true, nil

	case core.KindOrientation:
		in := r.info()
		if !in.HasRotation {
			return core.MetaValue{}, false, nil
		}
		code := rawtag.OrientationForRotation(in.Rotation)
		s, _ := rawtag.Describe(rawtag.TagOrientation, code)
		r.base.Hit(core.MediaVideo, metrics.TierEncoder)
		return core.NewMetaValue(s, strconv.FormatInt(code, 10)), true, nil
	}
	return r.base.Get(kind)
}

// size prefers the encoder's stream size over the dimensions cached on the
// object.
func (r *Resolver) size() (w, h int, tier string) {
	if in := r.info(); in.Width > 0 && in.Height > 0 {
		return in.Width, in.Height, metrics.TierEncoder
	}
	return r.obj.Width, r.obj.Height, metrics.TierCache
}

func pixels(n int) core.MetaValue {
	s := strconv.Itoa(n)
	return core.NewMetaValue(s+" px", s)
}
