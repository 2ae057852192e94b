package image

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/backend"
	"github.com/rdogmartin/gallerymeta/core/gps"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
	"github.com/rdogmartin/gallerymeta/internal/fixture"
	"github.com/rdogmartin/gallerymeta/internal/fsys"
)

func photoshop(set func(*backend.IPTC)) []byte {
	rec := backend.NewIPTC()
	set(rec)
	return backend.EncodePhotoshop(nil, rec.Encode())
}

func newImage(t *testing.T, opt fixture.Options) *Resolver {
	t.Helper()
	p := fixture.WriteFile(t, t.TempDir(), "photo.jpg", fixture.JPEG(t, opt))
	obj := core.MediaObject{ID: 3, Kind: core.MediaImage, Path: p, Width: 640, Height: 480}
	return New(obj, leaf.Env{FS: fsys.OS{}, Settings: core.GallerySettings{Locale: "en-US"}})
}

func camera(t *testing.T) *Resolver {
	return newImage(t, fixture.Options{
		Width: 40, Height: 30,
		Exif: map[rawtag.TagName]any{
			rawtag.TagEquipModel:       "X100V",
			rawtag.TagXPTitle:          "Harbour at dusk",
			rawtag.TagImageDescription: "Boats in the harbour",
			rawtag.TagISOSpeed:         400,
			rawtag.TagFNumber:          rawtag.NewFraction(4, 1),
			rawtag.TagExposureTime:     rawtag.NewFraction(1, 125),
			rawtag.TagFocalLength:      rawtag.NewFraction(50, 1),
			rawtag.TagFlash:            16,
			rawtag.TagOrientation:      6,
			rawtag.TagXResolution:      rawtag.NewFraction(72, 1),
			rawtag.TagResolutionUnit:   2,
			rawtag.TagDateTimeOriginal: "2021:06:05 14:30:00",
		},
		Photoshop: photoshop(func(r *backend.IPTC) {
			r.Set(backend.DatasetKeywords, "boats", "harbour", "boats")
			r.Set(backend.DatasetCity, "Lisboa")
			r.Set(backend.DatasetDateCreated, "20210605")
			r.Set(backend.DatasetTimeCreated, "143000")
		}),
		XMP: fixture.XMPPacket(`<xmp:Rating>4</xmp:Rating>` +
			`<MP:RegionInfo rdf:parseType="Resource"><MPRI:Regions><rdf:Bag>` +
			`<rdf:li><rdf:Description MPReg:PersonDisplayName="Grace"/></rdf:li>` +
			`</rdf:Bag></MPRI:Regions></MP:RegionInfo>`),
	})
}

func TestImageKinds(t *testing.T) {
	r := camera(t)
	tests := []struct {
		kind      core.Kind
		formatted string
		raw       string
	}{
		{core.KindIsoSpeed, "ISO-400", "400"},
		{core.KindFNumber, "f/4", "4"},
		{core.KindExposureTime, "1/125 sec", "0.008"},
		{core.KindFocalLength, "50 mm", "50"},
		{core.KindFlashMode, "Off, did not fire", "16"},
		{core.KindOrientation, "Rotate 90", "6"},
		{core.KindHorizontalResolution, "72 dpi", "72"},
		{core.KindTitle, "Harbour at dusk", "Harbour at dusk"},
		{core.KindCaption, "Boats in the harbour", "Boats in the harbour"},
		{core.KindCameraModel, "X100V", "X100V"},
		{core.KindKeywords, "boats, harbour", "boats, harbour"},
		{core.KindIptcKeywords, "boats, harbour", "boats, harbour"},
		{core.KindIptcCity, "Lisboa", "Lisboa"},
		{core.KindIptcDateCreated, "05 Jun 2021 14:30:00", "2021-06-05T14:30:00"},
		{core.KindDatePictureTaken, "05 Jun 2021 14:30:00", "2021-06-05T14:30:00"},
		{core.KindRating, "4", "4"},
		{core.KindPeople, "Grace", "Grace"},
		{core.KindWidth, "40 px", "40"},
		{core.KindHeight, "30 px", "30"},
		{core.KindDimensions, "40 x 30", ""},
		{core.KindFileName, "photo.jpg", "photo.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			v, ok, err := r.Get(tt.kind)
			if err != nil || !ok {
				t.Fatalf("Get = %+v, %v, %v", v, ok, err)
			}
			if v.Formatted != tt.formatted || v.Raw != tt.raw {
				t.Errorf("Get = %+v, want %q / %q", v, tt.formatted, tt.raw)
			}
		})
	}
}

func TestImageMisses(t *testing.T) {
	r := camera(t)
	for _, k := range []core.Kind{
		core.KindAuthor, core.KindSubjectDistance, core.KindIptcHeadline,
		core.KindGpsLatitude, core.KindGpsLocation, core.KindDuration, core.KindHtmlSource,
	} {
		t.Run(k.String(), func(t *testing.T) {
			if v, ok, err := r.Get(k); ok || err != nil {
				t.Errorf("Get = %+v, %v, %v", v, ok, err)
			}
		})
	}
}

func TestPlainJPEGFallsBackToCachedDimensions(t *testing.T) {
	obj := core.MediaObject{Kind: core.MediaImage, Path: filepath.Join(t.TempDir(), "gone.jpg"), Width: 640, Height: 480}
	r := New(obj, leaf.Env{FS: fsys.OS{}})
	if _, ok, err := r.Get(core.KindWidth); ok || err != nil {
		t.Errorf("missing file: ok=%v err=%v", ok, err)
	}

	r = newImage(t, fixture.Options{})
	v, ok, err := r.Get(core.KindWidth)
	if err != nil || !ok || v.Formatted != "32 px" {
		t.Errorf("Width = %+v, %v, %v", v, ok, err)
	}
	if _, ok, _ := r.Get(core.KindTitle); ok {
		t.Error("plain JPEG has no title")
	}
}

func TestJoinList(t *testing.T) {
	long := strings.Repeat("x", 150)
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"dedup", []string{"a", "b", "a"}, "a, b"},
		{"blanks", []string{" ", "a", ""}, "a"},
		{"truncate", []string{long, "b"}, strings.Repeat("x", MaxListItemLen) + ", b"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinList(tt.in); got != tt.want {
				t.Errorf("JoinList = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatLocation(t *testing.T) {
	alt := 8848.86
	loc := &gps.Location{
		Version:   "2.2.0.0",
		Altitude:  &alt,
		Latitude:  &gps.Distance{Hemisphere: "N", Degrees: 27, Minutes: 59, Seconds: 17},
		Longitude: &gps.Distance{Hemisphere: "E", Degrees: 86, Minutes: 55, Seconds: 31},
	}
	f := core.NewFormatter(core.GallerySettings{Locale: "en-US"})
	tests := []struct {
		kind      core.Kind
		formatted string
		raw       string
		ok        bool
	}{
		{core.KindGpsVersion, "2.2.0.0", "2.2.0.0", true},
		{core.KindGpsLatitude, `27°59'17.00" N`, "27.988056", true},
		{core.KindGpsLongitude, `86°55'31.00" E`, "86.925278", true},
		{core.KindGpsLocation, `27°59'17.00" N 86°55'31.00" E`, "", true},
		{core.KindGpsAltitude, "8,848.9 m", "8848.9", true},
		{core.KindGpsDestLatitude, "", "", false},
		{core.KindGpsDestLocation, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			v, ok := formatLocation(loc, tt.kind, f)
			if ok != tt.ok || v.Formatted != tt.formatted || v.Raw != tt.raw {
				t.Errorf("formatLocation = %+v, %v", v, ok)
			}
		})
	}
}

func TestValueFormats(t *testing.T) {
	tests := []struct {
		name string
		got  core.MetaValue
		want string
	}{
		{"apex aperture", formatAPEXAperture(4), "f/4"},
		{"long exposure", formatExposureTime(2.5), "2.5 sec"},
		{"positive bias", formatExposureBias(0.7), "+0.7 step"},
		{"negative bias", formatExposureBias(-1), "-1 step"},
		{"distance", formatDistance(3.456), "3.46 m"},
		{"unknown enum", enumFormatter(rawtag.TagMeteringMode)(42), "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Formatted != tt.want {
				t.Errorf("formatted = %q, want %q", tt.got.Formatted, tt.want)
			}
		})
	}
}

func TestParseExifDate(t *testing.T) {
	got, ok := parseExifDate("2021:06:05 14:30:00\x00")
	want := time.Date(2021, 6, 5, 14, 30, 0, 0, time.Local)
	if !ok || !got.Equal(want) {
		t.Errorf("parseExifDate = %v, %v", got, ok)
	}
	if _, ok := parseExifDate("    :  :     :  :  "); ok {
		t.Error("blank date should not parse")
	}
}

func TestTierErrors(t *testing.T) {
	r := camera(t)
	img, err := r.img()
	if err != nil {
		t.Fatal(err)
	}
	fail := func(err error) step {
		return step{"test", func(*backend.Image) (core.MetaValue, bool, error) { return core.MetaValue{}, false, err }}
	}

	t.Run("defect is annotated", func(t *testing.T) {
		_, ok, err := r.try(img, core.KindTitle, fail(errors.New("bad table")))
		var ee *core.ExtractionError
		if ok || !errors.As(err, &ee) || ee.Kind != core.KindTitle || ee.Path != r.obj.Path {
			t.Errorf("try = %v, %v", ok, err)
		}
	})
	t.Run("decoder fault is a miss", func(t *testing.T) {
		_, ok, err := r.try(img, core.KindTitle, fail(core.ErrInteropFault))
		if ok || err != nil {
			t.Errorf("try = %v, %v", ok, err)
		}
	})
	t.Run("panic is not swallowed", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("panic in a tier was recovered")
			}
		}()
		var m map[string]int
		r.try(img, core.KindTitle, step{"test", func(*backend.Image) (core.MetaValue, bool, error) {
			m["k"] = 1
			return core.MetaValue{}, false, nil
		}})
	})
}

func TestNumberValue(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		format func(float64) core.MetaValue
		want   string
		ok     bool
	}{
		{"fractional f-number", rawtag.NewFraction(28, 10), formatFNumber, "f/2.8", true},
		{"short exposure", rawtag.NewFraction(1, 125), formatExposureTime, "1/125 sec", true},
		{"integer", int64(200), formatISO, "ISO-200", true},
		{"zero denominator", rawtag.NewFraction(1, 0), formatFNumber, "", false},
		{"zero exposure", int64(0), formatExposureTime, "", false},
		{"array", []int64{1, 2}, formatISO, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := numberValue(tt.format)(tt.in)
			if ok != tt.ok || v.Formatted != tt.want {
				t.Errorf("numberValue(%v) = %q, %v", tt.in, v.Formatted, ok)
			}
		})
	}
	if _, ok := intValue(plainInt)(rawtag.NewFraction(5, 2)); ok {
		t.Error("intValue accepted a fraction")
	}
}

func TestConcurrentGet(t *testing.T) {
	r := camera(t)
	want := map[core.Kind]string{
		core.KindIsoSpeed:   "ISO-400",
		core.KindTitle:      "Harbour at dusk",
		core.KindIptcCity:   "Lisboa",
		core.KindRating:     "4",
		core.KindDimensions: "40 x 30",
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for kind, formatted := range want {
				v, ok, err := r.Get(kind)
				if err != nil || !ok || v.Formatted != formatted {
					t.Errorf("Get(%s) = %q, %v, %v", kind, v.Formatted, ok, err)
				}
			}
			if _, _, err := r.Get(core.KindGpsLatitude); err != nil {
				t.Errorf("Get(GpsLatitude): %v", err)
			}
		}()
	}
	wg.Wait()
}
