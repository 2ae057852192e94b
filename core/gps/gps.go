// Package gps turns EXIF GPS tags into signed decimal coordinates and
// degree/minute/second display strings.
package gps

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rdogmartin/gallerymeta/core/rawtag"
)

// Source answers GPS queries. It is satisfied by the image backend.
type Source interface {
	Query(path string) (any, bool, error)
}

// Query paths. The structured form names the field, the raw form addresses
// the GPS IFD by tag id.
const (
	structuredPrefix = "/gps/"
	rawPrefix        = "/ifd/gps/{ushort=%d}"
)

type field struct {
	name string
	tag  rawtag.TagName
}

var (
	fieldVersion    = field{"GPSVersionID", rawtag.TagGpsVersion}
	fieldLatRef     = field{"GPSLatitudeRef", rawtag.TagGpsLatitudeRef}
	fieldLat        = field{"GPSLatitude", rawtag.TagGpsLatitude}
	fieldLongRef    = field{"GPSLongitudeRef", rawtag.TagGpsLongitudeRef}
	fieldLong       = field{"GPSLongitude", rawtag.TagGpsLongitude}
	fieldAltRef     = field{"GPSAltitudeRef", rawtag.TagGpsAltitudeRef}
	fieldAlt        = field{"GPSAltitude", rawtag.TagGpsAltitude}
	fieldDestLatRef = field{"GPSDestLatitudeRef", rawtag.TagGpsDestLatRef}
	fieldDestLat    = field{"GPSDestLatitude", rawtag.TagGpsDestLat}
	fieldDestLonRef = field{"GPSDestLongitudeRef", rawtag.TagGpsDestLongRef}
	fieldDestLon    = field{"GPSDestLongitude", rawtag.TagGpsDestLong}
)

// StructuredPath returns the named query path of a GPS field.
func StructuredPath(name string) string { return structuredPrefix + name }

// RawPath returns the tag-id query path of a GPS tag.
func RawPath(tag rawtag.TagName) string { return fmt.Sprintf(rawPrefix, tag.ID()) }

// Location is the GPS block of one image. Absent parts are nil.
type Location struct {
	Version       string
	Altitude      *float64
	Latitude      *Distance
	Longitude     *Distance
	DestLatitude  *Distance
	DestLongitude *Distance
}

// Distance is one coordinate in degrees, minutes and seconds.
type Distance struct {
	Hemisphere string
	Degrees    float64
	Minutes    float64
	Seconds    float64
}

// Decimal returns the signed decimal angle; S and W are negative.
func (d Distance) Decimal() float64 {
	v := d.Degrees + d.Minutes/60 + d.Seconds/3600
	switch strings.ToUpper(d.Hemisphere) {
	case "S", "W":
		return -v
	}
	return v
}

// DMS returns the display form, e.g. 40°26'46.30" N.
func (d Distance) DMS() string {
	return fmt.Sprintf("%s°%s'%.2f\" %s",
		strconv.FormatFloat(d.Degrees, 'f', -1, 64),
		strconv.FormatFloat(d.Minutes, 'f', -1, 64),
		d.Seconds, d.Hemisphere)
}

var dmsPattern = regexp.MustCompile(`^\s*([\d.]+)°([\d.]+)'([\d.]+)"\s*([NSEWnsew])\s*$`)

// ParseDMS parses the output of Distance.DMS.
func ParseDMS(s string) (Distance, error) {
	m := dmsPattern.FindStringSubmatch(s)
	if m == nil {
		return Distance{}, fmt.Errorf("invalid DMS coordinate %q", s)
	}
	deg, _ := strconv.ParseFloat(m[1], 64)
	min, _ := strconv.ParseFloat(m[2], 64)
	sec, _ := strconv.ParseFloat(m[3], 64)
	return Distance{Hemisphere: strings.ToUpper(m[4]), Degrees: deg, Minutes: min, Seconds: sec}, nil
}

// FromDecimal converts a signed decimal angle to a Distance. latitude
// selects N/S instead of E/W.
func FromDecimal(v float64, latitude bool) Distance {
	h := "N"
	if latitude && v < 0 {
		h = "S"
	} else if !latitude {
		h = "E"
		if v < 0 {
			h = "W"
		}
	}
	v = math.Abs(v)
	deg := math.Floor(v)
	minF := (v - deg) * 60
	min := math.Floor(minF)
	sec := (minF - min) * 60
	return Distance{Hemisphere: h, Degrees: deg, Minutes: min, Seconds: sec}
}

// Parse reads the GPS block from src. Each coordinate needs both a
// hemisphere and a complete degree/minute/second triple; otherwise it stays
// nil. Errors are genuine failures of src, not missing data.
func Parse(src Source) (*Location, error) {
	loc := &Location{}
	var err error

	if loc.Version, err = version(src); err != nil {
		return nil, err
	}
	if loc.Latitude, err = distance(src, fieldLatRef, fieldLat); err != nil {
		return nil, err
	}
	if loc.Longitude, err = distance(src, fieldLongRef, fieldLong); err != nil {
		return nil, err
	}
	if loc.DestLatitude, err = distance(src, fieldDestLatRef, fieldDestLat); err != nil {
		return nil, err
	}
	if loc.DestLongitude, err = distance(src, fieldDestLonRef, fieldDestLon); err != nil {
		return nil, err
	}
	if loc.Altitude, err = altitude(src); err != nil {
		return nil, err
	}
	return loc, nil
}

// query tries the structured path first and the raw path second.
func query(src Source, f field) (any, bool, error) {
	v, ok, err := src.Query(StructuredPath(f.name))
	if err != nil || ok {
		return v, ok, err
	}
	return src.Query(RawPath(f.tag))
}

func distance(src Source, refField, valField field) (*Distance, error) {
	refV, ok, err := query(src, refField)
	if err != nil || !ok {
		return nil, err
	}
	ref := strings.TrimSpace(asString(refV))
	if ref == "" {
		return nil, nil
	}
	valV, ok, err := query(src, valField)
	if err != nil || !ok {
		return nil, err
	}
	parts := asFractions(valV)
	if len(parts) != 3 {
		return nil, nil
	}
	return &Distance{
		Hemisphere: strings.ToUpper(ref),
		Degrees:    parts[0].Float(),
		Minutes:    parts[1].Float(),
		Seconds:    parts[2].Float(),
	}, nil
}

func altitude(src Source) (*float64, error) {
	v, ok, err := query(src, fieldAlt)
	if err != nil || !ok {
		return nil, err
	}
	parts := asFractions(v)
	if len(parts) != 1 {
		return nil, nil
	}
	alt := parts[0].Float()

	refV, ok, err := query(src, fieldAltRef)
	if err != nil {
		return nil, err
	}
	if ok && belowSeaLevel(refV) {
		alt = -alt
	}
	return &alt, nil
}

func version(src Source) (string, error) {
	v, ok, err := query(src, fieldVersion)
	if err != nil || !ok {
		return "", err
	}
	var parts []string
	switch t := v.(type) {
	case []byte:
		for _, b := range t {
			parts = append(parts, strconv.Itoa(int(b)))
		}
	case []int64:
		for _, n := range t {
			parts = append(parts, strconv.FormatInt(n, 10))
		}
	case string:
		return t, nil
	}
	return strings.Join(parts, "."), nil
}

func belowSeaLevel(v any) bool {
	switch t := v.(type) {
	case int64:
		return t == 1
	case []byte:
		return len(t) > 0 && t[0] == 1
	case []int64:
		return len(t) > 0 && t[0] == 1
	case string:
		return strings.TrimSpace(t) == "1"
	}
	return false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return strings.TrimRight(string(t), "\x00")
	}
	return ""
}

func asFractions(v any) []rawtag.Fraction {
	switch t := v.(type) {
	case rawtag.Fraction:
		return []rawtag.Fraction{t}
	case []rawtag.Fraction:
		return t
	}
	return nil
}
