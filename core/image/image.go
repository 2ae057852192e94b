// Package image resolves metadata for still images. Each kind has an
// ordered chain of tiers: the backend's dedicated accessors, the raw tag
// table, named backend queries, IPTC queries, the decoded image header and
// finally values cached on the media object. The first tier with a value
// wins; kinds that are not image specific fall through to the leaf
// resolver.
package image

import (
	"errors"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/backend"
	"github.com/rdogmartin/gallerymeta/core/gps"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
	"github.com/rdogmartin/gallerymeta/internal/logger"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// MaxListItemLen caps each element of a joined list value. The stored
// representation has a fixed column width.
const MaxListItemLen = 100

// Resolver answers image kinds for one media object. It decodes the file at
// most once and is safe for concurrent use.
type Resolver struct {
	base *leaf.Resolver
	obj  core.MediaObject
	log  *logger.Logger

	img func() (*backend.Image, error)
	loc func() (*gps.Location, error)
}

var _ core.Resolver = (*Resolver)(nil)

// New returns the image resolver for obj.
func New(obj core.MediaObject, env leaf.Env) *Resolver {
	r := &Resolver{
		base: leaf.New(obj, env),
		obj:  obj,
		log:  env.Logger().WithFields(map[string]any{"component": "image", "path": obj.Path}),
	}
	r.img = sync.OnceValues(func() (*backend.Image, error) {
		if env.FS == nil {
			return nil, fs.ErrNotExist
		}
		return backend.Open(env.FS, obj.Path)
	})
	r.loc = sync.OnceValues(func() (*gps.Location, error) {
		img, err := r.img()
		if err != nil {
			return nil, err
		}
		return gps.Parse(img)
	})
	return r
}

// step is one tier of a fallback chain.
type step struct {
	tier string
	fn   func(img *backend.Image) (core.MetaValue, bool, error)
}

// Get implements core.Resolver.
func (r *Resolver) Get(kind core.Kind) (core.MetaValue, bool, error) {
	var steps []step
	switch {
	case kind.IsIptc():
		steps = r.iptcChain(kind)
	case kind.IsGps():
		return r.gpsValue(kind)
	default:
		var found bool
		steps, found = r.chain(kind)
		if !found {
			return r.base.Get(kind)
		}
	}
	img, err := r.img()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.MetaValue{}, false, nil
		}
		return core.MetaValue{}, false, core.Annotate(r.obj.Path, kind, err)
	}
	for _, s := range steps {
		v, ok, err := r.try(img, kind, s)
		if err != nil || ok {
			return v, ok, err
		}
	}
	return core.MetaValue{}, false, nil
}

// try runs one tier. Format limitations and decoder faults end the tier;
// other failures are defects.
func (r *Resolver) try(img *backend.Image, kind core.Kind, s step) (core.MetaValue, bool, error) {
	v, ok, err := s.fn(img)
	switch {
	case err == nil:
	case core.IsMiss(err):
		r.log.WithError(err).WithField("kind", kind.String()).Debugf("%s tier missed", s.tier)
		return core.MetaValue{}, false, nil
	default:
		return core.MetaValue{}, false, core.Annotate(r.obj.Path, kind, err)
	}
	if ok {
		r.base.Hit(core.MediaImage, s.tier)
	}
	return v, ok, nil
}

// ─── Chains ──────────────────────────────────────────────────────────────────

func (r *Resolver) chain(kind core.Kind) ([]step, bool) {
	switch kind {
	case core.KindTitle:
		return []step{accessor((*backend.Image).Title), tagText(rawtag.TagXPTitle)}, true
	case core.KindCaption:
		return []step{iptcQuery("Caption"), tagText(rawtag.TagImageDescription)}, true
	case core.KindAuthor:
		return []step{accessor((*backend.Image).Author), tagText(rawtag.TagArtist), tagText(rawtag.TagXPAuthor)}, true
	case core.KindCameraModel:
		return []step{accessor((*backend.Image).CameraModel), tagText(rawtag.TagEquipModel)}, true
	case core.KindEquipmentManufacturer:
		return []step{accessor((*backend.Image).CameraManufacturer), tagText(rawtag.TagEquipMake)}, true
	case core.KindComment:
		return []step{accessor((*backend.Image).Comment), tagText(rawtag.TagXPComment), tagText(rawtag.TagUserComment)}, true
	case core.KindCopyright:
		return []step{accessor((*backend.Image).Copyright), tagText(rawtag.TagCopyright)}, true
	case core.KindSubject:
		return []step{accessor((*backend.Image).Subject), tagText(rawtag.TagXPSubject)}, true
	case core.KindKeywords, core.KindTags:
		return []step{keywordsAccessor(), keywordsTag(), iptcQuery("Keywords")}, true
	case core.KindRating:
		return []step{ratingAccessor(), tagInt(rawtag.TagRating, plainInt)}, true
	case core.KindDatePictureTaken:
		return []step{r.dateAccessor(), r.dateTag(rawtag.TagDateTimeOriginal), r.dateTag(rawtag.TagDateTime)}, true
	case core.KindPeople:
		return []step{query(backend.PathPeople, listValue)}, true

	case core.KindIsoSpeed:
		return r.numberChain(kind, rawtag.TagISOSpeed, formatISO), true
	case core.KindFNumber:
		return r.numberChain(kind, rawtag.TagFNumber, formatFNumber), true
	case core.KindLensAperture:
		return r.numberChain(kind, rawtag.TagAperture, formatAPEXAperture), true
	case core.KindExposureTime:
		return r.numberChain(kind, rawtag.TagExposureTime, formatExposureTime), true
	case core.KindExposureCompensation:
		return r.numberChain(kind, rawtag.TagExposureBias, formatExposureBias), true
	case core.KindFocalLength:
		return r.numberChain(kind, rawtag.TagFocalLength, formatFocalLength), true
	case core.KindSubjectDistance:
		return r.numberChain(kind, rawtag.TagSubjectDistance, formatDistance), true
	case core.KindHorizontalResolution:
		return []step{resolution(rawtag.TagXResolution)}, true
	case core.KindVerticalResolution:
		return []step{resolution(rawtag.TagYResolution)}, true

	case core.KindExposureProgram, core.KindFlashMode, core.KindLightSource,
		core.KindMeteringMode, core.KindOrientation, core.KindColorRepresentation:
		tag := enumTags[kind]
		return []step{tagInt(tag, enumFormatter(tag)), query(backend.PrefixExif+queryNames()[kind], intValue(enumFormatter(tag)))}, true

	case core.KindWidth:
		return r.dimensionChain(rawtag.TagPixelXDimension, rawtag.TagImageWidth, true), true
	case core.KindHeight:
		return r.dimensionChain(rawtag.TagPixelYDimension, rawtag.TagImageHeight, false), true
	case core.KindDimensions:
		return []step{{metrics.TierFile, r.dimensions}}, true
	}
	return nil, false
}

var enumTags = map[core.Kind]rawtag.TagName{
	core.KindExposureProgram:     rawtag.TagExposureProgram,
	core.KindFlashMode:           rawtag.TagFlash,
	core.KindLightSource:         rawtag.TagLightSource,
	core.KindMeteringMode:        rawtag.TagMeteringMode,
	core.KindOrientation:         rawtag.TagOrientation,
	core.KindColorRepresentation: rawtag.TagColorSpace,
}

// queryNames maps kinds to the backend's named EXIF fields. Built once,
// read-only afterwards.
var queryNames = sync.OnceValue(func() map[core.Kind]string {
	return map[core.Kind]string{
		core.KindExposureProgram:      "ExposureProgram",
		core.KindFlashMode:            "Flash",
		core.KindLightSource:          "LightSource",
		core.KindMeteringMode:         "MeteringMode",
		core.KindOrientation:          "Orientation",
		core.KindColorRepresentation:  "ColorSpace",
		core.KindIsoSpeed:             "ISOSpeedRatings",
		core.KindFNumber:              "FNumber",
		core.KindLensAperture:         "ApertureValue",
		core.KindExposureTime:         "ExposureTime",
		core.KindExposureCompensation: "ExposureBiasValue",
		core.KindFocalLength:          "FocalLength",
		core.KindSubjectDistance:      "SubjectDistance",
	}
})

// iptcNames maps IPTC kinds to the backend's dataset names. Built once,
// read-only afterwards.
var iptcNames = sync.OnceValue(func() map[core.Kind]string {
	return map[core.Kind]string{
		core.KindIptcByline:                        "Byline",
		core.KindIptcBylineTitle:                   "BylineTitle",
		core.KindIptcCaption:                       "Caption",
		core.KindIptcCity:                          "City",
		core.KindIptcCopyrightNotice:               "CopyrightNotice",
		core.KindIptcCountryPrimaryLocationName:    "CountryPrimaryLocationName",
		core.KindIptcCredit:                        "Credit",
		core.KindIptcDateCreated:                   "DateCreated",
		core.KindIptcHeadline:                      "Headline",
		core.KindIptcKeywords:                      "Keywords",
		core.KindIptcObjectName:                    "ObjectName",
		core.KindIptcOriginalTransmissionReference: "OriginalTransmissionReference",
		core.KindIptcProvinceState:                 "ProvinceState",
		core.KindIptcRecordVersion:                 "RecordVersion",
		core.KindIptcSource:                        "Source",
		core.KindIptcSpecialInstructions:           "SpecialInstructions",
		core.KindIptcSublocation:                   "Sublocation",
		core.KindIptcWriterEditor:                  "WriterEditor",
	}
})

// IptcName returns the dataset name of an IPTC kind.
func IptcName(kind core.Kind) (string, bool) {
	n, ok := iptcNames()[kind]
	return n, ok
}

func (r *Resolver) iptcChain(kind core.Kind) []step {
	name, ok := IptcName(kind)
	if !ok {
		return nil
	}
	if kind == core.KindIptcDateCreated {
		return []step{{metrics.TierIptc, r.iptcDate}}
	}
	return []step{iptcQuery(name)}
}

// numberChain reads a numeric tag from the raw table, then the named query.
func (r *Resolver) numberChain(kind core.Kind, tag rawtag.TagName, format func(float64) core.MetaValue) []step {
	return []step{
		{metrics.TierRawTag, func(img *backend.Image) (core.MetaValue, bool, error) {
			rec, ok := img.Tags().Lookup(tag)
			if !ok {
				return core.MetaValue{}, false, nil
			}
			if f, ok := rec.Fraction(); ok {
				if f.Denominator == 0 {
					return core.MetaValue{}, false, nil
				}
				v := format(f.Float())
				return v, v.Formatted != "", nil
			}
			if n, ok := rec.Int(); ok {
				v := format(float64(n))
				return v, v.Formatted != "", nil
			}
			return core.MetaValue{}, false, nil
		}},
		query(backend.PrefixExif+queryNames()[kind], numberValue(format)),
	}
}

func (r *Resolver) dimensionChain(pixelTag, imageTag rawtag.TagName, width bool) []step {
	pick := func(w, h int) int {
		if width {
			return w
		}
		return h
	}
	return []step{
		tagInt(pixelTag, formatPixels),
		tagInt(imageTag, formatPixels),
		{metrics.TierFile, func(img *backend.Image) (core.MetaValue, bool, error) {
			cfg, ok := img.Config()
			if !ok {
				return core.MetaValue{}, false, nil
			}
			return formatPixels(int64(pick(cfg.Width, cfg.Height))), true, nil
		}},
		{metrics.TierCache, func(*backend.Image) (core.MetaValue, bool, error) {
			n := pick(r.obj.Width, r.obj.Height)
			return formatPixels(int64(n)), n > 0, nil
		}},
	}
}

func (r *Resolver) dimensions(img *backend.Image) (core.MetaValue, bool, error) {
	w := r.firstInt(img, r.dimensionChain(rawtag.TagPixelXDimension, rawtag.TagImageWidth, true))
	h := r.firstInt(img, r.dimensionChain(rawtag.TagPixelYDimension, rawtag.TagImageHeight, false))
	if w <= 0 || h <= 0 {
		return core.MetaValue{}, false, nil
	}
	return core.MetaValue{Formatted: strconv.Itoa(w) + " x " + strconv.Itoa(h)}, true, nil
}

func (r *Resolver) firstInt(img *backend.Image, steps []step) int {
	for _, s := range steps {
		v, ok, err := s.fn(img)
		if err == nil && ok {
			n, _ := strconv.Atoi(v.Raw)
			return n
		}
	}
	return 0
}

// ─── Tier builders ───────────────────────────────────────────────────────────

func accessor(fn func(*backend.Image) (string, bool)) step {
	return step{metrics.TierAccessor, func(img *backend.Image) (core.MetaValue, bool, error) {
		s, ok := fn(img)
		s = strings.TrimSpace(s)
		return core.TextValue(s), ok && s != "", nil
	}}
}

func tagText(tag rawtag.TagName) step {
	return step{metrics.TierRawTag, func(img *backend.Image) (core.MetaValue, bool, error) {
		rec, ok := img.Tags().Lookup(tag)
		if !ok {
			return core.MetaValue{}, false, nil
		}
		s, ok := rec.Text()
		s = strings.TrimSpace(s)
		return core.TextValue(s), ok && s != "", nil
	}}
}

func tagInt(tag rawtag.TagName, format func(int64) core.MetaValue) step {
	return step{metrics.TierRawTag, func(img *backend.Image) (core.MetaValue, bool, error) {
		rec, ok := img.Tags().Lookup(tag)
		if !ok {
			return core.MetaValue{}, false, nil
		}
		n, ok := rec.Int()
		if !ok {
			return core.MetaValue{}, false, nil
		}
		return format(n), true, nil
	}}
}

func query(path string, convert func(any) (core.MetaValue, bool)) step {
	return step{metrics.TierQuery, func(img *backend.Image) (core.MetaValue, bool, error) {
		v, ok, err := img.Query(path)
		if err != nil || !ok {
			return core.MetaValue{}, false, err
		}
		mv, ok := convert(v)
		return mv, ok, nil
	}}
}

func iptcQuery(name string) step {
	s := query(backend.PrefixIPTC+name, listValue)
	s.tier = metrics.TierIptc
	return s
}

func keywordsAccessor() step {
	return step{metrics.TierAccessor, func(img *backend.Image) (core.MetaValue, bool, error) {
		kw, ok := img.Keywords()
		if !ok {
			return core.MetaValue{}, false, nil
		}
		return listValue(kw)
	}}
}

func keywordsTag() step {
	return step{metrics.TierRawTag, func(img *backend.Image) (core.MetaValue, bool, error) {
		rec, ok := img.Tags().Lookup(rawtag.TagXPKeywords)
		if !ok {
			return core.MetaValue{}, false, nil
		}
		s, ok := rec.StringValue()
		if !ok {
			return core.MetaValue{}, false, nil
		}
		v, ok := listValue(strings.Split(s, ";"))
		return v, ok, nil
	}}
}

func ratingAccessor() step {
	return step{metrics.TierAccessor, func(img *backend.Image) (core.MetaValue, bool, error) {
		n, ok := img.Rating()
		if !ok {
			return core.MetaValue{}, false, nil
		}
		return plainInt(int64(n)), true, nil
	}}
}

func (r *Resolver) dateAccessor() step {
	return step{metrics.TierAccessor, func(img *backend.Image) (core.MetaValue, bool, error) {
		t, ok := img.DateTaken()
		if !ok || t.Year() < 1 {
			return core.MetaValue{}, false, nil
		}
		return r.base.Fmt.DateTime(t), true, nil
	}}
}

func (r *Resolver) dateTag(tag rawtag.TagName) step {
	return step{metrics.TierRawTag, func(img *backend.Image) (core.MetaValue, bool, error) {
		rec, ok := img.Tags().Lookup(tag)
		if !ok {
			return core.MetaValue{}, false, nil
		}
		s, ok := rec.StringValue()
		if !ok {
			return core.MetaValue{}, false, nil
		}
		t, ok := parseExifDate(s)
		if !ok {
			return core.MetaValue{}, false, nil
		}
		return r.base.Fmt.DateTime(t), true, nil
	}}
}

func resolution(tag rawtag.TagName) step {
	return step{metrics.TierRawTag, func(img *backend.Image) (core.MetaValue, bool, error) {
		rec, ok := img.Tags().Lookup(tag)
		if !ok {
			return core.MetaValue{}, false, nil
		}
		f, ok := rec.Fraction()
		if !ok || f.IsZero() {
			return core.MetaValue{}, false, nil
		}
		unit := "dpi"
		if u, ok := img.Tags().Lookup(rawtag.TagResolutionUnit); ok {
			if code, ok := u.Int(); ok && code == 3 {
				unit, _ = rawtag.Describe(rawtag.TagResolutionUnit, code)
			}
		}
		v := round(f.Float(), 2)
		return core.NewMetaValue(decimal(v)+" "+unit, core.Number(v)), true, nil
	}}
}

// ─── IPTC dates ──────────────────────────────────────────────────────────────

func (r *Resolver) iptcDate(img *backend.Image) (core.MetaValue, bool, error) {
	d, ok, err := img.Query(backend.PrefixIPTC + "DateCreated")
	if err != nil || !ok {
		return core.MetaValue{}, false, err
	}
	ds, _ := d.(string)
	date, err := time.ParseInLocation("20060102", strings.TrimSpace(ds), time.Local)
	if err != nil {
		v, ok := listValue(d)
		return v, ok, nil
	}
	if tv, ok, _ := img.Query(backend.PrefixIPTC + "TimeCreated"); ok {
		if ts, _ := tv.(string); ts != "" {
			if t, err := parseIptcTime(ts); err == nil {
				date = time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
			}
		}
	}
	return r.base.Fmt.DateTime(date), true, nil
}

func parseIptcTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"150405-0700", "150405+0700", "150405"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Parse("150405", s[:min(len(s), 6)])
}

// ─── GPS ─────────────────────────────────────────────────────────────────────

func (r *Resolver) gpsValue(kind core.Kind) (core.MetaValue, bool, error) {
	loc, err := r.loc()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist), core.IsMiss(err):
		return core.MetaValue{}, false, nil
	default:
		return core.MetaValue{}, false, core.Annotate(r.obj.Path, kind, err)
	}
	v, ok := formatLocation(loc, kind, r.base.Fmt)
	if ok {
		r.base.Hit(core.MediaImage, metrics.TierQuery)
	}
	return v, ok, nil
}

func formatLocation(loc *gps.Location, kind core.Kind, f *core.Formatter) (core.MetaValue, bool) {
	coord := func(d *gps.Distance) (core.MetaValue, bool) {
		if d == nil {
			return core.MetaValue{}, false
		}
		return core.NewMetaValue(d.DMS(), core.Number(round(d.Decimal(), 6))), true
	}
	pair := func(a, b *gps.Distance) (core.MetaValue, bool) {
		if a == nil || b == nil {
			return core.MetaValue{}, false
		}
		return core.MetaValue{Formatted: a.DMS() + " " + b.DMS()}, true
	}
	switch kind {
	case core.KindGpsVersion:
		return core.TextValue(loc.Version), loc.Version != ""
	case core.KindGpsLatitude:
		return coord(loc.Latitude)
	case core.KindGpsLongitude:
		return coord(loc.Longitude)
	case core.KindGpsDestLatitude:
		return coord(loc.DestLatitude)
	case core.KindGpsDestLongitude:
		return coord(loc.DestLongitude)
	case core.KindGpsLocation:
		return pair(loc.Latitude, loc.Longitude)
	case core.KindGpsDestLocation:
		return pair(loc.DestLatitude, loc.DestLongitude)
	case core.KindGpsAltitude:
		if loc.Altitude == nil {
			return core.MetaValue{}, false
		}
		a := round(*loc.Altitude, 1)
		return core.NewMetaValue(f.Float(a, 1)+" m", core.Number(a)), true
	}
	return core.MetaValue{}, false
}

// ─── Value conversion ────────────────────────────────────────────────────────

// listValue converts a query result to a display value. Arrays are joined
// with ", " after dropping blanks and duplicates and capping each element
// at MaxListItemLen characters.
func listValue(v any) (core.MetaValue, bool) {
	var items []string
	switch x := v.(type) {
	case string:
		items = []string{x}
	case []string:
		items = x
	default:
		return core.MetaValue{}, false
	}
	s := JoinList(items)
	return core.TextValue(s), s != ""
}

// JoinList deduplicates items in order, caps each at MaxListItemLen
// characters and joins them with ", ".
func JoinList(items []string) string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = truncate(strings.TrimSpace(it), MaxListItemLen)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return strings.Join(out, ", ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// numberValue converts a scalar numeric query result. Arrays are not used.
func numberValue(format func(float64) core.MetaValue) func(any) (core.MetaValue, bool) {
	return func(v any) (core.MetaValue, bool) {
		var f float64
		switch x := v.(type) {
		case int64:
			f = float64(x)
		case float64:
			f = x
		case rawtag.Fraction:
			if x.Denominator == 0 {
				return core.MetaValue{}, false
			}
			f = x.Float()
		default:
			return core.MetaValue{}, false
		}
		mv := format(f)
		return mv, mv.Formatted != ""
	}
}

// intValue converts an integral query result, such as an enum code.
func intValue(format func(int64) core.MetaValue) func(any) (core.MetaValue, bool) {
	return func(v any) (core.MetaValue, bool) {
		switch x := v.(type) {
		case int64:
			return format(x), true
		case rawtag.Fraction:
			if x.Denominator == 0 || x.Float() != math.Trunc(x.Float()) {
				return core.MetaValue{}, false
			}
			return format(int64(x.Float())), true
		}
		return core.MetaValue{}, false
	}
}

func parseExifDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	for _, layout := range []string{"2006:01:02 15:04:05", "2006-01-02 15:04:05", "2006:01:02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
