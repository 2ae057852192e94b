// Package backend is the structured metadata backend for still images. It
// decodes a file once and answers dedicated accessors (title, author,
// camera...) and string-keyed property queries across EXIF, XMP and IPTC.
package backend

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/jpg"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Query path prefixes.
const (
	PrefixExif = "/exif/"
	PrefixGPS  = "/gps/"
	PrefixXMP  = "/xmp/"
	PrefixIPTC = "/iptc/"

	// PathPeople queries the names of tagged person regions.
	PathPeople = "/xmp/people"
)

var rawPathPattern = regexp.MustCompile(`^/ifd(?:/exif|/gps)?/\{ushort=(\d+)\}$`)

// RawPath returns the tag-id query path of a raw tag.
func RawPath(tag rawtag.TagName) string {
	return "/ifd/{ushort=" + strconv.Itoa(int(tag.ID())) + "}"
}

// Image is the decoded metadata of one image file. It is read-only after
// Open and safe for concurrent use.
type Image struct {
	Path   string
	Format core.FormatID

	data  []byte
	exif  *exif.Exif
	tags  rawtag.Table
	iptc  *IPTC
	xmp   *XMP
	block []byte

	config func() (image.Config, error)
}

// Open reads and decodes path. Missing or undecodable metadata blocks are
// not errors; only failing to read the file is.
func Open(fs core.Filesystem, path string) (*Image, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(path, data), nil
}

// Decode builds an Image from file bytes already in memory.
func Decode(path string, data []byte) *Image { return decode(path, data) }

func decode(path string, data []byte) *Image {
	img := &Image{Path: path, data: data}
	img.Format, _ = core.DetectFormat(bytes.NewReader(data), path)
	img.config = sync.OnceValues(func() (image.Config, error) {
		var cfg image.Config
		err := core.Guard(func() error {
			var err error
			cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
			return err
		})
		return cfg, err
	})

	if block, err := rawtag.ExtractBlock(bytes.NewReader(data), int64(len(data)), img.Format); err == nil {
		img.block = block
		if raw, order, err := rawtag.ReadTags(block); err == nil {
			img.tags = rawtag.Decode(raw, order)
		}
		_ = core.Guard(func() error {
			x, err := exif.Decode(bytes.NewReader(block))
			if x != nil && (err == nil || !exif.IsCriticalError(err)) {
				img.exif = x
			}
			return nil
		})
	}

	if img.Format == core.FmtJPEG {
		if segs, err := jpg.Parse(data); err == nil {
			if i := jpg.Find(segs, jpg.MarkerAPP13, jpg.PhotoshopPrefix); i >= 0 {
				img.iptc = ParsePhotoshop(segs[i].Data[len(jpg.PhotoshopPrefix):])
			}
			if i := jpg.Find(segs, jpg.MarkerAPP1, jpg.XMPPrefix); i >= 0 {
				img.xmp = ParseXMP(segs[i].Data[len(jpg.XMPPrefix):])
			}
		}
	} else if packet := FindPacket(data); packet != nil {
		img.xmp = ParseXMP(packet)
	}
	return img
}

// Tags returns the decoded raw tag table. It is nil when the file has no
// EXIF block.
func (img *Image) Tags() rawtag.Table { return img.tags }

// IPTC returns the IPTC record, or nil.
func (img *Image) IPTC() *IPTC { return img.iptc }

// XMP returns the XMP properties, or nil.
func (img *Image) XMP() *XMP { return img.xmp }

// ExifBlock returns the raw EXIF block starting at the TIFF header.
func (img *Image) ExifBlock() []byte { return img.block }

// Config returns the pixel dimensions decoded from the image header.
func (img *Image) Config() (image.Config, bool) {
	cfg, err := img.config()
	return cfg, err == nil && cfg.Width > 0 && cfg.Height > 0
}

// ─── Dedicated accessors ─────────────────────────────────────────────────────

func (img *Image) exifString(name exif.FieldName) (string, bool) {
	if img.exif == nil {
		return "", false
	}
	var (
		s  string
		ok bool
	)
	_ = core.Guard(func() error {
		s, ok = readExifString(img.exif, name)
		return nil
	})
	return s, ok
}

func readExifString(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	switch tag.Format() {
	case tiff.StringVal:
		s, _ := tag.StringVal()
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		return s, s != ""
	case tiff.IntVal:
		// Windows XP* tags are UTF-16 bytes typed as BYTE.
		if tag.Type == tiff.DTByte && tag.Count > 1 {
			r := rawtag.Decode([]rawtag.RawTag{{ID: tag.Id, Type: rawtag.TypeByte, Value: tag.Val}}, nil)
			if tn, ok := rawtag.LookupID(tag.Id); ok {
				return r[tn].StringValue()
			}
		}
	}
	return "", false
}

func (img *Image) xmpFirst(names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := img.xmp.First(n); ok {
			return v, true
		}
	}
	return "", false
}

func firstOf(fns ...func() (string, bool)) (string, bool) {
	for _, fn := range fns {
		if v, ok := fn(); ok {
			return v, true
		}
	}
	return "", false
}

func (img *Image) exifFn(name exif.FieldName) func() (string, bool) {
	return func() (string, bool) { return img.exifString(name) }
}

func (img *Image) xmpFn(names ...string) func() (string, bool) {
	return func() (string, bool) { return img.xmpFirst(names...) }
}

// Title returns the Windows title, falling back to XMP dc:title.
func (img *Image) Title() (string, bool) {
	return firstOf(img.exifFn(exif.XPTitle), img.xmpFn("dc:title"))
}

// Author returns the artist, falling back to XMP dc:creator.
func (img *Image) Author() (string, bool) {
	return firstOf(img.exifFn(exif.Artist), img.exifFn(exif.XPAuthor), img.xmpFn("dc:creator"))
}

// CameraModel returns the camera model.
func (img *Image) CameraModel() (string, bool) {
	return firstOf(img.exifFn(exif.Model), img.xmpFn("tiff:Model"))
}

// CameraManufacturer returns the camera make.
func (img *Image) CameraManufacturer() (string, bool) {
	return firstOf(img.exifFn(exif.Make), img.xmpFn("tiff:Make"))
}

// Comment returns the Windows comment, falling back to XMP exif:UserComment.
func (img *Image) Comment() (string, bool) {
	return firstOf(img.exifFn(exif.XPComment), img.xmpFn("exif:UserComment"))
}

// Copyright returns the copyright notice, falling back to XMP dc:rights.
func (img *Image) Copyright() (string, bool) {
	return firstOf(img.exifFn(exif.Copyright), img.xmpFn("dc:rights"))
}

// Subject returns the Windows subject, falling back to XMP dc:description.
func (img *Image) Subject() (string, bool) {
	return firstOf(img.exifFn(exif.XPSubject), img.xmpFn("dc:description"))
}

// Keywords returns the Windows keywords, falling back to XMP dc:subject.
func (img *Image) Keywords() ([]string, bool) {
	if s, ok := img.exifString(exif.XPKeywords); ok {
		var out []string
		for _, k := range strings.Split(s, ";") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		if len(out) > 0 {
			return out, true
		}
	}
	v := img.xmp.Values("dc:subject")
	return v, len(v) > 0
}

// Rating returns the star rating from XMP xmp:Rating.
func (img *Image) Rating() (int, bool) {
	s, ok := img.xmpFirst("xmp:Rating", "MicrosoftPhoto:Rating")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		n = int(f)
	}
	return n, true
}

var xmpDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DateTaken returns the capture time: EXIF original time, then the XMP
// capture dates.
func (img *Image) DateTaken() (time.Time, bool) {
	if img.exif != nil {
		var t time.Time
		err := core.Guard(func() error {
			var err error
			t, err = img.exif.DateTime()
			return err
		})
		if err == nil && !t.IsZero() {
			return t, true
		}
	}
	for _, n := range []string{"exif:DateTimeOriginal", "photoshop:DateCreated", "xmp:CreateDate"} {
		s, ok := img.xmp.First(n)
		if !ok {
			continue
		}
		for _, layout := range xmpDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ─── Queries ─────────────────────────────────────────────────────────────────

// Query answers a property path:
//
//	/exif/<FieldName>      EXIF field by name
//	/gps/<FieldName>       GPS field by name
//	/ifd/{ushort=N}        raw tag by id (also /ifd/exif/..., /ifd/gps/...)
//	/xmp/<prefix:Name>     XMP property
//	/xmp/people            tagged people
//	/iptc/<Name>           IPTC dataset
//
// Values are string, []string, int64, []int64, float64, rawtag.Fraction,
// []rawtag.Fraction or []byte. A path the file cannot answer is a miss.
// The error result carries decoder faults, which callers treat as misses.
func (img *Image) Query(path string) (any, bool, error) {
	switch {
	case strings.HasPrefix(path, PrefixExif):
		return img.queryExif(exif.FieldName(strings.TrimPrefix(path, PrefixExif)))
	case strings.HasPrefix(path, PrefixGPS):
		return img.queryExif(exif.FieldName(strings.TrimPrefix(path, PrefixGPS)))
	case path == PathPeople:
		p := img.xmp.People()
		return p, len(p) > 0, nil
	case strings.HasPrefix(path, PrefixXMP):
		v := img.xmp.Values(strings.TrimPrefix(path, PrefixXMP))
		switch len(v) {
		case 0:
			return nil, false, nil
		case 1:
			return v[0], true, nil
		}
		return v, true, nil
	case strings.HasPrefix(path, PrefixIPTC):
		d, ok := LookupDataset(strings.TrimPrefix(path, PrefixIPTC))
		if !ok {
			return nil, false, nil
		}
		v := img.iptc.Get(d)
		switch len(v) {
		case 0:
			return nil, false, nil
		case 1:
			return v[0], true, nil
		}
		return v, true, nil
	}
	if m := rawPathPattern.FindStringSubmatch(path); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil || id > 0xFFFF {
			return nil, false, nil
		}
		name, ok := rawtag.LookupID(uint16(id))
		if !ok {
			return nil, false, nil
		}
		r, ok := img.tags.Lookup(name)
		if !ok {
			return nil, false, nil
		}
		return r.Value, true, nil
	}
	return nil, false, nil
}

func (img *Image) queryExif(name exif.FieldName) (any, bool, error) {
	if img.exif == nil {
		return nil, false, nil
	}
	var (
		v  any
		ok bool
	)
	err := core.Guard(func() error {
		tag, err := img.exif.Get(name)
		if err != nil {
			return nil
		}
		v, ok = tagValue(tag)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, ok, nil
}

// tagValue converts a goexif tag to the query value types.
func tagValue(tag *tiff.Tag) (any, bool) {
	n := int(tag.Count)
	switch tag.Format() {
	case tiff.StringVal:
		s, _ := tag.StringVal()
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		return s, s != ""
	case tiff.IntVal:
		if n == 1 {
			v, err := tag.Int64(0)
			return v, err == nil
		}
		if tag.Type == tiff.DTByte {
			return append([]byte(nil), tag.Val...), true
		}
		out := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Int64(i)
			if err != nil {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	case tiff.RatVal:
		out := make([]rawtag.Fraction, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil, false
			}
			out = append(out, rawtag.NewFraction(num, den))
		}
		if len(out) == 1 {
			return out[0], true
		}
		return out, len(out) > 0
	case tiff.FloatVal:
		v, err := tag.Float(0)
		return v, err == nil
	case tiff.UndefVal:
		return append([]byte(nil), tag.Val...), len(tag.Val) > 0
	}
	return nil, false
}
