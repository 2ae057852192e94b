// Package core defines the shared types, collaborator interfaces, and format
// registry for the gallery metadata engine.
package core

import (
	"context"
	"io"
	"time"
)

// MetaValue is one resolved metadata value.
type MetaValue struct {
	// Raw is the machine-comparable form (ISO-8601 date, decimal number).
	// Empty when the value is synthesized or has no raw form.
	Raw string
	// Formatted is the display string.
	Formatted string
}

// NewMetaValue builds a MetaValue from its display and raw forms.
func NewMetaValue(formatted, raw string) MetaValue {
	return MetaValue{Raw: raw, Formatted: formatted}
}

// TextValue is a MetaValue whose raw and display forms are the same string.
func TextValue(s string) MetaValue { return MetaValue{Raw: s, Formatted: s} }

// HasRaw reports whether a raw form is present.
func (v MetaValue) HasRaw() bool { return v.Raw != "" }

// MediaKind enumerates the resolver variants.
type MediaKind int

const (
	MediaGeneric MediaKind = iota
	MediaContainer
	MediaImage
	MediaVideo
	MediaAudio
	MediaExternal
)

func (m MediaKind) String() string {
	switch m {
	case MediaContainer:
		return "container"
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	case MediaExternal:
		return "external"
	default:
		return "generic"
	}
}

// MediaObject is the read-only view of a gallery object handed to resolvers.
type MediaObject struct {
	ID        int
	GalleryID int
	Kind      MediaKind

	// Path is the absolute path of the original file, or the directory for
	// containers. Empty for external objects.
	Path string

	// Title and Summary are the values stored for the object (containers
	// only use them directly).
	Title   string
	Summary string

	// IsRoot marks the gallery's root container.
	IsRoot bool
	// IsNew is true until the object has been persisted.
	IsNew bool

	DateAdded time.Time

	// ExternalHTML is the embed markup of an externally hosted object.
	ExternalHTML string

	// Width and Height are the dimensions already known to the caller.
	Width  int
	Height int
}

// GallerySettings carries the per-gallery display configuration.
type GallerySettings struct {
	GalleryID int
	// DateTimeFormat is a Go time layout used for display strings.
	DateTimeFormat string
	// Locale is a BCP 47 tag used for number formatting.
	Locale string
	// PersistToFile is the write-back default for kinds whose definition
	// does not set one.
	PersistToFile bool
}

// EncoderOutputProvider returns the combined diagnostic text of an external
// encoder run against a file. Implementations own process lifetime and
// timeouts.
type EncoderOutputProvider interface {
	Output(ctx context.Context, path string, galleryID int) (string, error)
}

// ErrorReporter records errors that are recovered rather than returned.
// Implementations must not panic.
type ErrorReporter interface {
	Report(err error, galleryID int)
}

// FileStat is the subset of file attributes the resolvers use.
type FileStat struct {
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// ReadSeekCloser is an open media file.
type ReadSeekCloser interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

// Filesystem is the file access used by resolvers and the persistence writer.
type Filesystem interface {
	Open(path string) (ReadSeekCloser, error)
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileStat, error)
	// OpenReadWrite opens an existing file for in-place updates.
	OpenReadWrite(path string) (ReadWriteSeekCloser, error)
	// CreateTemp creates a new empty file next to path.
	CreateTemp(path string) (TempFile, error)
	// Replace atomically moves src over dst.
	Replace(src, dst string) error
	Remove(path string) error
}

// ReadWriteSeekCloser is a file opened for in-place updates.
type ReadWriteSeekCloser interface {
	ReadSeekCloser
	io.WriterAt
	Sync() error
}

// TempFile is a scratch file created by Filesystem.CreateTemp.
type TempFile interface {
	io.Writer
	io.Closer
	Name() string
}

// Resolver answers one metadata kind for one media object. A kind that does
// not apply or has no value is a miss: ok is false and err is nil. err is
// reserved for genuine defects and is always an *ExtractionError.
type Resolver interface {
	Get(kind Kind) (v MetaValue, ok bool, err error)
}
