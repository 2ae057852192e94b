// Package persist writes edited metadata values back into image files.
//
// A write tries three strategies in order and stops at the first that
// succeeds:
//
//  1. in place: the rebuilt metadata segments are written over the old ones
//     when each fits in the space the old one occupied;
//  2. clone: the file is rebuilt with every metadata segment padded by
//     Padding bytes, written to a temp file and swapped in;
//  3. re-encode: when the existing EXIF block cannot be read, the pixels are
//     re-encoded into an intermediate temp file first, then the clone
//     strategy runs against it.
//
// Save and Delete log and report failures instead of returning them; the
// stored metadata stays authoritative.
package persist

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/backend"
	"github.com/rdogmartin/gallerymeta/core/definition"
	"github.com/rdogmartin/gallerymeta/core/jpg"
	"github.com/rdogmartin/gallerymeta/core/metadata"
	"github.com/rdogmartin/gallerymeta/internal/logger"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// Padding is the reserve added to each metadata segment by the clone
// strategy so later edits can be written in place.
const Padding = 2048

// Strategy names, used as metric labels.
const (
	TierInPlace  = "in_place"
	TierClone    = "clone"
	TierReencode = "reencode"
)

var (
	// ErrUnsupportedFormat is returned for files other than JPEG.
	ErrUnsupportedFormat = errors.New("format does not support metadata write-back")
	// ErrInsufficientPadding ends the in-place strategy.
	ErrInsufficientPadding = errors.New("not enough space for in-place rewrite")
	// ErrCloneFailed ends the clone strategy when the existing EXIF block
	// cannot be read for editing. Only this failure falls through to the
	// re-encode strategy.
	ErrCloneFailed = errors.New("metadata block cannot be cloned")
	// ErrNotPersistable is returned for kinds that have no place in a file.
	ErrNotPersistable = errors.New("kind cannot be written to a file")
)

// writeMu serializes every metadata write in the process.
var writeMu sync.Mutex

// Options configures a Writer.
type Options struct {
	FS core.Filesystem
	// AllowFileWrites is the full-trust switch. When false, Save and Delete
	// do nothing.
	AllowFileWrites bool
	Settings        core.GallerySettings
	Reporter        core.ErrorReporter
	Log             *logger.Logger
	Metrics         *metrics.Metrics
}

// Writer persists metadata items into the original files of media objects.
type Writer struct {
	fs       core.Filesystem
	allow    bool
	settings core.GallerySettings
	reporter core.ErrorReporter
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New returns a Writer.
func New(opt Options) *Writer {
	log := opt.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Writer{
		fs:       opt.FS,
		allow:    opt.AllowFileWrites,
		settings: opt.Settings,
		reporter: opt.Reporter,
		log:      log.WithField("component", "persist"),
		metrics:  opt.Metrics,
	}
}

// Save writes item's value into obj's file. It does nothing unless the
// item is marked for persistence.
func (w *Writer) Save(obj core.MediaObject, item *metadata.Item) {
	w.run(obj, item, false)
}

// Delete clears item's kind in obj's file. It does nothing unless the item
// is marked for persistence.
func (w *Writer) Delete(obj core.MediaObject, item *metadata.Item) {
	w.run(obj, item, true)
}

func (w *Writer) run(obj core.MediaObject, item *metadata.Item, del bool) {
	if item == nil || !item.PersistToFile || !w.allow || w.fs == nil {
		return
	}
	value := item.RawValue()
	if value == "" {
		value = item.Value()
	}
	if err := w.Write(obj, item.Kind(), value, del); err != nil {
		w.log.WithError(err).WithFields(map[string]any{
			"path":            obj.Path,
			"media_object_id": obj.ID,
			"kind":            item.Kind().String(),
		}).Error("metadata write failed")
		if w.reporter != nil {
			w.reporter.Report(err, obj.GalleryID)
		}
	}
}

// Write stores value for kind in obj's file, or clears it when del is set,
// and returns the last strategy's error when every strategy failed. Most
// callers want Save or Delete.
func (w *Writer) Write(obj core.MediaObject, kind core.Kind, value string, del bool) error {
	if !definition.IsPersistable(kind) {
		return fmt.Errorf("%w: %s", ErrNotPersistable, kind)
	}
	changes, err := changesFor(kind, value, del, w.layouts())
	if err != nil {
		return err
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	defer w.metrics.ObservePersist(time.Now())

	data, err := w.fs.ReadFile(obj.Path)
	if err != nil {
		return err
	}
	if f, _ := core.DetectFormat(bytes.NewReader(data), obj.Path); !core.SupportsWriteBack(f) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	doc, err := parseDocument(obj.Path, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if doc.upToDate(changes) {
		w.log.WithFields(map[string]any{"path": obj.Path, "kind": kind.String()}).Debug("file already up to date")
		return nil
	}

	tiers := []struct {
		name string
		fn   func(string, []byte, *document, []change) error
	}{
		{TierInPlace, w.inPlace},
		{TierClone, w.clone},
		{TierReencode, w.reencode},
	}
	for _, t := range tiers {
		if t.name == TierReencode && !errors.Is(err, ErrCloneFailed) {
			break
		}
		err = t.fn(obj.Path, data, doc, changes)
		w.metrics.Attempt(t.name, err)
		if err == nil {
			w.log.WithFields(map[string]any{"path": obj.Path, "kind": kind.String(), "tier": t.name}).Debug("metadata written")
			return nil
		}
		w.log.WithError(err).WithField("tier", t.name).Debug("write strategy failed")
	}
	return err
}

func (w *Writer) layouts() []string {
	if w.settings.DateTimeFormat != "" {
		return []string{w.settings.DateTimeFormat}
	}
	return []string{core.DefaultDateTimeFormat}
}

// ─── Strategies ──────────────────────────────────────────────────────────────

// inPlace overwrites existing metadata segments when the rebuilt payloads
// fit. Unused space is zero filled; XMP keeps its size by adjusting the
// packet's whitespace.
func (w *Writer) inPlace(path string, _ []byte, doc *document, changes []change) error {
	p, err := doc.apply(changes, doc.exifBlock())
	if err != nil {
		return err
	}
	type patch struct {
		off  int64
		data []byte
	}
	var patches []patch
	for _, s := range []struct {
		at      int
		payload []byte
		xmp     bool
	}{
		{doc.exifAt, p.exif, false},
		{doc.iptcAt, p.iptc, false},
		{doc.xmpAt, p.xmp, true},
	} {
		if s.payload == nil {
			continue
		}
		if s.at < 0 {
			return fmt.Errorf("%w: segment missing", ErrInsufficientPadding)
		}
		old := doc.segs[s.at]
		buf := make([]byte, len(old.Data))
		if s.xmp {
			fit, ok := fitXMP(s.payload, len(old.Data))
			if !ok {
				return fmt.Errorf("%w: XMP packet needs %d bytes, have %d", ErrInsufficientPadding, len(s.payload), len(old.Data))
			}
			copy(buf, fit)
		} else {
			if len(s.payload) > len(old.Data) {
				return fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientPadding, len(s.payload), len(old.Data))
			}
			copy(buf, s.payload)
		}
		patches = append(patches, patch{old.Offset, buf})
	}

	f, err := w.fs.OpenReadWrite(path)
	if err != nil {
		return err
	}
	for _, pt := range patches {
		if _, err := f.WriteAt(pt.data, pt.off); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// clone rebuilds the file with padded metadata segments and swaps it in.
func (w *Writer) clone(path string, _ []byte, doc *document, changes []change) error {
	p, err := doc.apply(changes, doc.exifBlock())
	if err != nil {
		return err
	}
	out, err := rebuild(doc, p)
	if err != nil {
		return err
	}
	return w.replace(path, out)
}

// reencode decodes the pixels, writes them to an intermediate JPEG and
// runs the clone strategy against it. The original APP13 and XMP segments
// are carried over; the EXIF block is rebuilt from the changes alone.
func (w *Writer) reencode(path string, data []byte, doc *document, changes []change) error {
	var img image.Image
	err := core.Guard(func() error {
		var err error
		img, err = imaging.Decode(bytes.NewReader(data))
		return err
	})
	if err != nil {
		return fmt.Errorf("decode pixels: %w", err)
	}

	tmp, err := w.fs.CreateTemp(path)
	if err != nil {
		return err
	}
	defer w.fs.Remove(tmp.Name())
	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		tmp.Close()
		return fmt.Errorf("re-encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	inter, err := w.fs.ReadFile(tmp.Name())
	if err != nil {
		return err
	}

	next, err := parseDocument(path, inter)
	if err != nil {
		return err
	}
	for _, s := range []int{doc.iptcAt, doc.xmpAt} {
		if s >= 0 {
			next.segs = jpg.InsertAfterHeader(next.segs, doc.segs[s])
		}
	}
	next.photoshop, next.packet = doc.photoshop, doc.packet
	next.img = doc.img
	next.exifAt, next.iptcAt, next.xmpAt = -1, -1, -1
	for i, s := range next.segs {
		switch {
		case s.HasPrefix(jpg.MarkerAPP1, jpg.ExifPrefix):
			next.exifAt = i
		case s.HasPrefix(jpg.MarkerAPP13, jpg.PhotoshopPrefix):
			next.iptcAt = i
		case s.HasPrefix(jpg.MarkerAPP1, jpg.XMPPrefix):
			next.xmpAt = i
		}
	}

	p, err := next.apply(changes, nil)
	if err != nil {
		return err
	}
	out, err := rebuild(next, p)
	if err != nil {
		return err
	}
	return w.replace(path, out)
}

// rebuild returns doc's file with the changed payloads swapped in and every
// metadata segment padded. Missing APP13 and XMP segments are created empty
// so that later edits to them can be written in place.
func rebuild(doc *document, p payloads) ([]byte, error) {
	segs := slices.Clone(doc.segs)
	current := func(at int) []byte {
		if at < 0 {
			return nil
		}
		return segs[at].Data
	}

	exif := cmpOr(p.exif, current(doc.exifAt))
	iptc := cmpOr(p.iptc, current(doc.iptcAt), slices.Clone(jpg.PhotoshopPrefix))
	xmp := cmpOr(p.xmp, current(doc.xmpAt), append(slices.Clone(jpg.XMPPrefix), backend.EmptyPacket(0)...))

	put := func(marker byte, prefix, payload []byte) {
		seg := jpg.Segment{Marker: marker, Offset: -1, Data: payload}
		if at := jpg.Find(segs, marker, prefix); at >= 0 {
			segs[at] = seg
			return
		}
		segs = jpg.InsertAfterHeader(segs, seg)
	}
	put(jpg.MarkerAPP1, jpg.XMPPrefix, paddedXMP(xmp))
	put(jpg.MarkerAPP13, jpg.PhotoshopPrefix, padded(iptc))
	if exif != nil {
		put(jpg.MarkerAPP1, jpg.ExifPrefix, padded(exif))
	}
	return jpg.Encode(segs)
}

func cmpOr(vals ...[]byte) []byte {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// padded appends up to Padding zero bytes, as far as the segment allows.
func padded(payload []byte) []byte {
	n := min(Padding, jpg.MaxPayload-len(payload))
	if n <= 0 {
		return payload
	}
	out := make([]byte, len(payload), len(payload)+n)
	copy(out, payload)
	return append(out, make([]byte, n)...)
}

// paddedXMP adds up to Padding bytes of whitespace inside the packet.
func paddedXMP(payload []byte) []byte {
	n := min(Padding, jpg.MaxPayload-len(payload))
	if n <= 0 || !bytes.HasPrefix(payload, jpg.XMPPrefix) {
		return payload
	}
	return append(slices.Clone(jpg.XMPPrefix), backend.Pad(payload[len(jpg.XMPPrefix):], n)...)
}

// fitXMP resizes payload to exactly size bytes by growing or shrinking the
// whitespace before the packet trailer. It reports false when the packet
// has too little whitespace to give up.
func fitXMP(payload []byte, size int) ([]byte, bool) {
	if d := size - len(payload); d >= 0 {
		return append(slices.Clone(jpg.XMPPrefix), backend.Pad(payload[len(jpg.XMPPrefix):], d)...), true
	}
	end := bytes.LastIndex(payload, []byte("<?xpacket end"))
	if end < 0 {
		return nil, false
	}
	excess := len(payload) - size
	start := end
	for start > 0 && end-start < excess && isSpace(payload[start-1]) {
		start--
	}
	if end-start < excess {
		return nil, false
	}
	out := make([]byte, 0, size)
	out = append(out, payload[:end-excess]...)
	return append(out, payload[end:]...), true
}

func isSpace(b byte) bool { return b == ' ' || b == '\n' || b == '\r' || b == '\t' }

// replace writes data to a temp file next to path and moves it over path.
func (w *Writer) replace(path string, data []byte) error {
	tmp, err := w.fs.CreateTemp(path)
	if err != nil {
		return err
	}
	name := tmp.Name()
	done := false
	defer func() {
		if !done {
			w.fs.Remove(name)
		}
	}()
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := w.fs.Replace(name, path); err != nil {
		return err
	}
	done = true
	return nil
}
