// Package audio resolves metadata for audio files. Descriptive kinds come
// from the embedded tags (ID3, MP4, FLAC and Ogg comments); technical kinds
// come from the external encoder's diagnostic output.
package audio

import (
	"context"
	"strings"
	"sync"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/encoder"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/internal/logger"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// Resolver answers audio kinds for one media object.
type Resolver struct {
	base *leaf.Resolver
	obj  core.MediaObject
	env  leaf.Env
	log  *logger.Logger

	tags      func() tag.Metadata
	copyright func() string
	info      func() encoder.Info
}

var _ core.Resolver = (*Resolver)(nil)

// New returns the audio resolver for obj. Tags are read and the encoder is
// run at most once each.
func New(obj core.MediaObject, env leaf.Env) *Resolver {
	r := &Resolver{
		base: leaf.New(obj, env),
		obj:  obj,
		env:  env,
		log:  env.Logger().WithFields(map[string]any{"component": "audio", "path": obj.Path}),
	}
	r.tags = sync.OnceValue(r.readTags)
	r.copyright = sync.OnceValue(r.readCopyright)
	r.info = sync.OnceValue(func() encoder.Info {
		in, err := encoder.Probe(context.Background(), env.Encoder, obj.Path, env.Settings.GalleryID)
		if err != nil {
			r.log.WithError(err).Warn("encoder probe failed")
		}
		return in
	})
	return r
}

func (r *Resolver) readTags() tag.Metadata {
	if r.env.FS == nil {
		return nil
	}
	f, err := r.env.FS.Open(r.obj.Path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var m tag.Metadata
	err = core.Guard(func() error {
		var err error
		m, err = tag.ReadFrom(f)
		return err
	})
	if err != nil {
		r.log.WithError(err).Debug("no readable tags")
		return nil
	}
	return m
}

// readCopyright reads the ID3v2 TCOP frame, which the generic tag reader
// does not expose. Other containers keep it in their raw tag map.
func (r *Resolver) readCopyright() string {
	if m := r.tags(); m != nil && m.Format() != tag.ID3v2_2 && m.Format() != tag.ID3v2_3 && m.Format() != tag.ID3v2_4 {
		for _, k := range []string{"copyright", "COPYRIGHT", "cprt", "\xa9cpy"} {
			if s, ok := m.Raw()[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}
	if r.env.FS == nil {
		return ""
	}
	f, err := r.env.FS.Open(r.obj.Path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var s string
	err = core.Guard(func() error {
		t, err := id3v2.ParseReader(f, id3v2.Options{Parse: true, ParseFrames: []string{"Copyright message"}})
		if err != nil {
			return err
		}
		s = strings.TrimSpace(t.GetTextFrame(t.CommonID("Copyright message")).Text)
		return nil
	})
	if err != nil {
		r.log.WithError(err).Debug("no readable ID3v2 tag")
	}
	return s
}

// Get implements core.Resolver.
func (r *Resolver) Get(kind core.Kind) (core.MetaValue, bool, error) {
	switch kind {
	case core.KindTitle, core.KindAuthor, core.KindComment:
		m := r.tags()
		if m == nil {
			return core.MetaValue{}, false, nil
		}
		var s string
		switch kind {
		case core.KindTitle:
			s = m.Title()
		case core.KindAuthor:
			s = m.Artist()
			if strings.TrimSpace(s) == "" {
				s = m.AlbumArtist()
			}
		case core.KindComment:
			s = m.Comment()
		}
		return r.text(s, metrics.TierAccessor)

	case core.KindCopyright:
		return r.text(r.copyright(), metrics.TierAccessor)

	case core.KindDuration, core.KindBitRate, core.KindAudioFormat:
		v, ok := r.info().Value(kind, r.base.Fmt)
		if ok {
			r.base.Hit(core.MediaAudio, metrics.TierEncoder)
		}
		return v, ok, nil
	}
	return r.base.Get(kind)
}

func (r *Resolver) text(s, tier string) (core.MetaValue, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.MetaValue{}, false, nil
	}
	r.base.Hit(core.MediaAudio, tier)
	return core.TextValue(s), true, nil
}
