// Package leaf resolves the kinds every file-backed media object shares:
// the date it was added, its file name, size and file timestamps. The
// image, video and audio resolvers fall through to it.
package leaf

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/internal/logger"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// Env carries the collaborators shared by all resolvers.
type Env struct {
	FS       core.Filesystem
	Settings core.GallerySettings
	// Encoder is only used for audio and video. May be nil.
	Encoder core.EncoderOutputProvider
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

// Logger returns Env.Log, or a no-op logger.
func (e Env) Logger() *logger.Logger {
	if e.Log == nil {
		return logger.Nop()
	}
	return e.Log
}

// Resolver answers the common leaf kinds. It is safe for concurrent use.
type Resolver struct {
	Obj core.MediaObject
	Fmt *core.Formatter

	env  Env
	stat func() (core.FileStat, error)
}

var _ core.Resolver = (*Resolver)(nil)

// New returns the base resolver for obj. The file is stat'ed at most once.
func New(obj core.MediaObject, env Env) *Resolver {
	r := &Resolver{Obj: obj, Fmt: core.NewFormatter(env.Settings), env: env}
	r.stat = sync.OnceValues(func() (core.FileStat, error) {
		if env.FS == nil || obj.Path == "" {
			return core.FileStat{}, fs.ErrNotExist
		}
		return env.FS.Stat(obj.Path)
	})
	return r
}

// Hit records a resolved value for the metrics of media kind mk.
func (r *Resolver) Hit(mk core.MediaKind, tier string) {
	r.env.Metrics.Hit(mk.String(), tier)
}

// Get implements core.Resolver.
func (r *Resolver) Get(kind core.Kind) (core.MetaValue, bool, error) {
	switch kind {
	case core.KindDateAdded:
		if r.Obj.DateAdded.IsZero() {
			return core.MetaValue{}, false, nil
		}
		r.Hit(r.Obj.Kind, metrics.TierStored)
		return r.Fmt.DateTime(r.Obj.DateAdded.Local()), true, nil

	case core.KindFileName:
		name := filepath.Base(r.Obj.Path)
		if r.Obj.Path == "" || name == "." || name == string(filepath.Separator) {
			return core.MetaValue{}, false, nil
		}
		r.Hit(r.Obj.Kind, metrics.TierFile)
		return core.TextValue(name), true, nil

	case core.KindFileNameWithoutExt:
		if r.Obj.Path == "" {
			return core.MetaValue{}, false, nil
		}
		name := filepath.Base(r.Obj.Path)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if name == "" {
			return core.MetaValue{}, false, nil
		}
		r.Hit(r.Obj.Kind, metrics.TierFile)
		return core.TextValue(name), true, nil

	case core.KindFileSizeKb:
		st, ok, err := r.fileStat(kind)
		if !ok {
			return core.MetaValue{}, false, err
		}
		kb := KiloBytes(st.Size)
		r.Hit(r.Obj.Kind, metrics.TierFile)
		return core.NewMetaValue(r.Fmt.Int(kb)+" KB", core.Number(float64(kb))), true, nil

	case core.KindDateFileCreated, core.KindDateFileCreatedUtc,
		core.KindDateFileLastModified, core.KindDateFileLastModifiedUtc:
		st, ok, err := r.fileStat(kind)
		if !ok {
			return core.MetaValue{}, false, err
		}
		t := st.ModifiedAt
		if kind == core.KindDateFileCreated || kind == core.KindDateFileCreatedUtc {
			t = st.CreatedAt
		}
		if t.IsZero() {
			return core.MetaValue{}, false, nil
		}
		if kind == core.KindDateFileCreatedUtc || kind == core.KindDateFileLastModifiedUtc {
			t = t.UTC()
		} else {
			t = t.Local()
		}
		r.Hit(r.Obj.Kind, metrics.TierFile)
		return r.Fmt.DateTime(t), true, nil
	}
	return core.MetaValue{}, false, nil
}

// fileStat returns the cached stat. A missing file is a miss.
func (r *Resolver) fileStat(kind core.Kind) (core.FileStat, bool, error) {
	st, err := r.stat()
	switch {
	case err == nil:
		return st, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return st, false, nil
	}
	return st, false, core.Annotate(r.Obj.Path, kind, err)
}

// KiloBytes converts a byte count to whole kilobytes. Any non-empty file
// reports at least 1.
func KiloBytes(size int64) int64 {
	if size <= 0 {
		return 0
	}
	return max(1, size/1024)
}
