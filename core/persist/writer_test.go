package persist

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/backend"
	"github.com/rdogmartin/gallerymeta/core/definition"
	"github.com/rdogmartin/gallerymeta/core/jpg"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/core/metadata"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
	"github.com/rdogmartin/gallerymeta/core/resolve"
	"github.com/rdogmartin/gallerymeta/internal/errreport"
	"github.com/rdogmartin/gallerymeta/internal/fixture"
	"github.com/rdogmartin/gallerymeta/internal/fsys"
)

// countingFS records how often a file was swapped for a rebuilt copy.
type countingFS struct {
	fsys.OS
	replaces int
}

func (c *countingFS) Replace(src, dst string) error {
	c.replaces++
	return c.OS.Replace(src, dst)
}

func newWriter(fs core.Filesystem, rep core.ErrorReporter) *Writer {
	return New(Options{FS: fs, AllowFileWrites: true, Reporter: rep, Settings: core.GallerySettings{GalleryID: 3}})
}

func item(kind core.Kind, value string) *metadata.Item {
	it := metadata.NewItem(7, kind, core.TextValue(value), definition.Default().Lookup(kind))
	it.PersistToFile = true
	return it
}

func reread(t *testing.T, path string) *backend.Image {
	t.Helper()
	img, err := backend.Open(fsys.OS{}, path)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func tagText(img *backend.Image, tag rawtag.TagName) string {
	rec, _ := img.Tags().Lookup(tag)
	s, _ := rec.Text()
	return s
}

func photoshop(t *testing.T, set func(*backend.IPTC)) []byte {
	t.Helper()
	rec := backend.NewIPTC()
	set(rec)
	return backend.EncodePhotoshop(nil, rec.Encode())
}

func TestSaveThenWriteInPlace(t *testing.T) {
	p := fixture.WriteFile(t, t.TempDir(), "harbour.jpg", fixture.JPEG(t, fixture.Options{}))
	fs := &countingFS{}
	rep := &errreport.Memory{}
	w := newWriter(fs, rep)
	obj := core.MediaObject{ID: 7, GalleryID: 3, Kind: core.MediaImage, Path: p}

	w.Save(obj, item(core.KindTitle, "Harbour at dusk"))
	if fs.replaces != 1 {
		t.Fatalf("first save replaced the file %d times, want 1", fs.replaces)
	}
	w.Save(obj, item(core.KindCaption, "Fishing boats coming in"))
	if fs.replaces != 1 {
		t.Errorf("second save should fit in the padding, replaced %d times", fs.replaces)
	}
	if len(rep.Entries()) != 0 {
		t.Fatalf("unexpected reports: %+v", rep.Entries())
	}

	img := reread(t, p)
	if got := tagText(img, rawtag.TagXPTitle); got != "Harbour at dusk" {
		t.Errorf("XPTitle = %q", got)
	}
	if got := img.IPTC().Get(backend.DatasetObjectName); !slices.Equal(got, []string{"Harbour at dusk"}) {
		t.Errorf("ObjectName = %q", got)
	}
	if got := tagText(img, rawtag.TagImageDescription); got != "Fishing boats coming in" {
		t.Errorf("ImageDescription = %q", got)
	}
	if got := img.IPTC().Get(backend.DatasetCaption); !slices.Equal(got, []string{"Fishing boats coming in"}) {
		t.Errorf("Caption = %q", got)
	}
	if _, ok := img.Config(); !ok {
		t.Error("rewritten file no longer decodes")
	}
}

func TestDeleteClearsAndSkipsWhenUpToDate(t *testing.T) {
	p := fixture.WriteFile(t, t.TempDir(), "a.jpg", fixture.JPEG(t, fixture.Options{
		Exif: map[rawtag.TagName]any{rawtag.TagArtist: "Ana Lima"},
	}))
	fs := &countingFS{}
	w := newWriter(fs, &errreport.Memory{})
	obj := core.MediaObject{ID: 7, Kind: core.MediaImage, Path: p}

	w.Delete(obj, item(core.KindAuthor, "Ana Lima"))
	if got := tagText(reread(t, p), rawtag.TagArtist); got != "" {
		t.Fatalf("Artist = %q after delete", got)
	}

	before, _ := os.ReadFile(p)
	n := fs.replaces
	w.Delete(obj, item(core.KindAuthor, ""))
	after, _ := os.ReadFile(p)
	if fs.replaces != n || !bytes.Equal(before, after) {
		t.Error("deleting an absent value rewrote the file")
	}
}

func TestWriterNoOps(t *testing.T) {
	data := fixture.JPEG(t, fixture.Options{})
	tests := []struct {
		name  string
		allow bool
		item  *metadata.Item
	}{
		{"writes disabled", false, item(core.KindTitle, "x")},
		{"item not persisted", true, func() *metadata.Item {
			it := item(core.KindTitle, "x")
			it.PersistToFile = false
			return it
		}()},
		{"nil item", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture.WriteFile(t, t.TempDir(), "a.jpg", data)
			rep := &errreport.Memory{}
			w := New(Options{FS: fsys.OS{}, AllowFileWrites: tt.allow, Reporter: rep})
			w.Save(core.MediaObject{Path: p}, tt.item)
			got, _ := os.ReadFile(p)
			if !bytes.Equal(got, data) {
				t.Error("file changed")
			}
			if len(rep.Entries()) != 0 {
				t.Errorf("reports = %+v", rep.Entries())
			}
		})
	}
}

func TestUnsupportedFormatIsReported(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	p := fixture.WriteFile(t, t.TempDir(), "a.png", buf.Bytes())
	rep := &errreport.Memory{}
	w := newWriter(fsys.OS{}, rep)

	w.Save(core.MediaObject{ID: 7, GalleryID: 3, Path: p}, item(core.KindTitle, "x"))

	entries := rep.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	if !errors.Is(entries[0].Err, ErrUnsupportedFormat) || entries[0].GalleryID != 3 {
		t.Errorf("entry = %+v", entries[0])
	}
	if got, _ := os.ReadFile(p); !bytes.Equal(got, buf.Bytes()) {
		t.Error("file changed")
	}
}

func TestWriteRejectsKindsWithoutFileField(t *testing.T) {
	w := newWriter(fsys.OS{}, nil)
	err := w.Write(core.MediaObject{Path: "/nowhere.jpg"}, core.KindFileSizeKb, "12", false)
	if !errors.Is(err, ErrNotPersistable) {
		t.Errorf("err = %v", err)
	}
}

func TestDateTakenSeedsIptcDate(t *testing.T) {
	tests := []struct {
		name     string
		opt      fixture.Options
		wantDate string
	}{
		{"empty file", fixture.Options{}, "20210605"},
		{"existing date kept", fixture.Options{Photoshop: photoshop(t, func(r *backend.IPTC) {
			r.Set(backend.DatasetDateCreated, "20200101")
		})}, "20200101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture.WriteFile(t, t.TempDir(), "a.jpg", fixture.JPEG(t, tt.opt))
			rep := &errreport.Memory{}
			newWriter(fsys.OS{}, rep).Save(core.MediaObject{Path: p}, item(core.KindDatePictureTaken, "2021-06-05T14:30:00"))
			if len(rep.Entries()) != 0 {
				t.Fatalf("reports = %+v", rep.Entries())
			}
			img := reread(t, p)
			if got := tagText(img, rawtag.TagDateTimeOriginal); got != "2021:06:05 14:30:00" {
				t.Errorf("DateTimeOriginal = %q", got)
			}
			if got := img.IPTC().Get(backend.DatasetDateCreated); !slices.Equal(got, []string{tt.wantDate}) {
				t.Errorf("DateCreated = %q, want %s", got, tt.wantDate)
			}
		})
	}
}

func TestRatingUpdatesXMP(t *testing.T) {
	p := fixture.WriteFile(t, t.TempDir(), "a.jpg", fixture.JPEG(t, fixture.Options{
		XMP: fixture.XMPPacket(`<xmp:Rating>2</xmp:Rating>`),
	}))
	rep := &errreport.Memory{}
	newWriter(fsys.OS{}, rep).Save(core.MediaObject{Path: p}, item(core.KindRating, "5"))
	if len(rep.Entries()) != 0 {
		t.Fatalf("reports = %+v", rep.Entries())
	}
	img := reread(t, p)
	if v, ok := img.XMP().First("xmp:Rating"); !ok || v != "5" {
		t.Errorf("xmp:Rating = %q, %v", v, ok)
	}
	if n, ok := img.Rating(); !ok || n != 5 {
		t.Errorf("Rating = %d, %v", n, ok)
	}
}

func TestCorruptExifFallsBackToReencode(t *testing.T) {
	segs, err := jpg.Parse(fixture.JPEG(t, fixture.Options{Photoshop: photoshop(t, func(r *backend.IPTC) {
		r.Set(backend.DatasetCity, "Porto")
	})}))
	if err != nil {
		t.Fatal(err)
	}
	junk := append(append([]byte{}, jpg.ExifPrefix...), []byte("XX\x00\x2a\x00\x00\x00\x08garbage")...)
	segs = jpg.InsertAfterHeader(segs, jpg.Segment{Marker: jpg.MarkerAPP1, Offset: -1, Data: junk})
	data, err := jpg.Encode(segs)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	p := fixture.WriteFile(t, dir, "a.jpg", data)
	rep := &errreport.Memory{}

	newWriter(fsys.OS{}, rep).Save(core.MediaObject{Path: p}, item(core.KindTitle, "Ribeira"))

	if len(rep.Entries()) != 0 {
		t.Fatalf("reports = %+v", rep.Entries())
	}
	img := reread(t, p)
	if got := tagText(img, rawtag.TagXPTitle); got != "Ribeira" {
		t.Errorf("XPTitle = %q", got)
	}
	if got := img.IPTC().Get(backend.DatasetCity); !slices.Equal(got, []string{"Porto"}) {
		t.Errorf("City = %q, want it carried over", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

// failingFS refuses to swap files.
type failingFS struct {
	fsys.OS
	replaces int
}

func (f *failingFS) Replace(string, string) error {
	f.replaces++
	return errors.New("read-only volume")
}

func TestCloneFailureKeepsExif(t *testing.T) {
	data := fixture.JPEG(t, fixture.Options{Exif: map[rawtag.TagName]any{rawtag.TagEquipModel: "X100V"}})
	p := fixture.WriteFile(t, t.TempDir(), "a.jpg", data)
	fs := &failingFS{}
	w := newWriter(fs, &errreport.Memory{})

	err := w.Write(core.MediaObject{Path: p}, core.KindTitle, "Harbour at dusk", false)
	if err == nil || errors.Is(err, ErrCloneFailed) {
		t.Fatalf("Write = %v", err)
	}
	if fs.replaces != 1 {
		t.Errorf("re-encode ran after a swap failure: %d swaps", fs.replaces)
	}
	if after, _ := os.ReadFile(p); !bytes.Equal(after, data) {
		t.Error("file changed")
	}
}

func TestFitXMP(t *testing.T) {
	packet := append([]byte{}, jpg.XMPPrefix...)
	packet = append(packet, backend.EmptyPacket(10)...)
	tests := []struct {
		name string
		size int
		ok   bool
	}{
		{"grow", len(packet) + 20, true},
		{"same", len(packet), true},
		{"shrink into padding", len(packet) - 8, true},
		{"shrink past padding", len(packet) - 40, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fitXMP(packet, tt.size)
			if ok != tt.ok {
				t.Fatalf("ok = %v", ok)
			}
			if !ok {
				return
			}
			if len(got) != tt.size {
				t.Errorf("len = %d, want %d", len(got), tt.size)
			}
			if backend.ParseXMP(got[len(jpg.XMPPrefix):]) == nil {
				t.Error("packet no longer parses")
			}
		})
	}
}

func extract(t *testing.T, obj core.MediaObject, settings core.GallerySettings) *metadata.Collection {
	t.Helper()
	col, err := resolve.Extract(obj, leaf.Env{FS: fsys.OS{}, Settings: settings}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return col
}

func TestSaveExtractedItem(t *testing.T) {
	tests := []struct {
		name    string
		persist bool
		want    string
	}{
		{"gallery writes back", true, "Harbour at dusk"},
		{"gallery keeps files untouched", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture.WriteFile(t, t.TempDir(), "a.jpg", fixture.JPEG(t, fixture.Options{}))
			obj := core.MediaObject{ID: 7, Kind: core.MediaImage, Path: p}
			settings := core.GallerySettings{PersistToFile: tt.persist}

			col := extract(t, obj, settings)
			it, changed := col.Set(core.KindTitle, core.TextValue("Harbour at dusk"), definition.Default().Lookup(core.KindTitle))
			if !changed || it.PersistToFile != tt.persist {
				t.Fatalf("Set: changed=%v persist=%v", changed, it.PersistToFile)
			}
			rep := &errreport.Memory{}
			New(Options{FS: fsys.OS{}, AllowFileWrites: true, Settings: settings, Reporter: rep}).Save(obj, it)
			if len(rep.Entries()) != 0 {
				t.Fatalf("unexpected reports: %+v", rep.Entries())
			}

			got := ""
			if title, ok := extract(t, obj, settings).Get(core.KindTitle); ok {
				got = title.Value()
			}
			if got != tt.want {
				t.Errorf("Title after save = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConcurrentSaves(t *testing.T) {
	p := fixture.WriteFile(t, t.TempDir(), "a.jpg", fixture.JPEG(t, fixture.Options{}))
	obj := core.MediaObject{ID: 7, Kind: core.MediaImage, Path: p}
	rep := &errreport.Memory{}
	w := newWriter(fsys.OS{}, rep)

	want := map[core.Kind]string{
		core.KindTitle:     "Harbour at dusk",
		core.KindCaption:   "Fishing boats coming in",
		core.KindAuthor:    "Ana Lima",
		core.KindCopyright: "CC BY 4.0",
		core.KindSubject:   "Boats",
	}
	var wg sync.WaitGroup
	for kind, value := range want {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Save(obj, item(kind, value))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Delete(obj, item(core.KindCameraModel, ""))
	}()
	wg.Wait()
	if len(rep.Entries()) != 0 {
		t.Fatalf("unexpected reports: %+v", rep.Entries())
	}

	col := extract(t, obj, core.GallerySettings{})
	for kind, value := range want {
		it, ok := col.Get(kind)
		if !ok || it.Value() != value {
			t.Errorf("%s = %v, want %q", kind, it, value)
		}
	}
	if _, ok := reread(t, p).Config(); !ok {
		t.Error("file no longer decodes")
	}
}
