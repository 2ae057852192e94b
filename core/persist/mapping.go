package persist

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/backend"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
)

// change is one field assignment in a file. Exactly one of tag, dataset or
// xmp is set.
type change struct {
	tag     rawtag.TagName
	dataset *backend.Dataset
	xmp     string

	text string
	// list holds repeatable IPTC values.
	list []string
	// num is used for integer tags when numeric is set.
	num     int
	numeric bool
	// seed marks IPTC writes that only apply when the dataset is empty.
	seed bool
}

func exifText(tag rawtag.TagName, s string) change { return change{tag: tag, text: s} }

func exifNum(tag rawtag.TagName, n int) change { return change{tag: tag, num: n, numeric: true} }

func iptcText(d backend.Dataset, s string) change { return change{dataset: &d, text: s} }

func iptcList(d backend.Dataset, vals []string) change { return change{dataset: &d, list: vals} }

// iptcDatasets maps IPTC-only kinds to their datasets.
var iptcDatasets = map[core.Kind]backend.Dataset{
	core.KindIptcByline:                        backend.DatasetByline,
	core.KindIptcBylineTitle:                   backend.DatasetBylineTitle,
	core.KindIptcCaption:                       backend.DatasetCaption,
	core.KindIptcCity:                          backend.DatasetCity,
	core.KindIptcCopyrightNotice:               backend.DatasetCopyrightNotice,
	core.KindIptcCountryPrimaryLocationName:    backend.DatasetCountryPrimaryLocationName,
	core.KindIptcCredit:                        backend.DatasetCredit,
	core.KindIptcHeadline:                      backend.DatasetHeadline,
	core.KindIptcObjectName:                    backend.DatasetObjectName,
	core.KindIptcOriginalTransmissionReference: backend.DatasetOriginalTransmissionReference,
	core.KindIptcProvinceState:                 backend.DatasetProvinceState,
	core.KindIptcSource:                        backend.DatasetSource,
	core.KindIptcSpecialInstructions:           backend.DatasetSpecialInstructions,
	core.KindIptcSublocation:                   backend.DatasetSublocation,
	core.KindIptcWriterEditor:                  backend.DatasetWriterEditor,
}

// changesFor returns the field assignments that store value for kind. An
// empty value with del set clears every field the kind maps to.
func changesFor(kind core.Kind, value string, del bool, layouts []string) ([]change, error) {
	value = strings.TrimSpace(value)
	if del {
		value = ""
	}
	switch kind {
	case core.KindTitle:
		return []change{exifText(rawtag.TagXPTitle, value), iptcText(backend.DatasetObjectName, value)}, nil
	case core.KindCaption:
		return []change{exifText(rawtag.TagImageDescription, value), iptcText(backend.DatasetCaption, value)}, nil
	case core.KindAuthor:
		return []change{exifText(rawtag.TagArtist, value), iptcText(backend.DatasetByline, value)}, nil
	case core.KindCopyright:
		return []change{exifText(rawtag.TagCopyright, value), iptcText(backend.DatasetCopyrightNotice, value)}, nil
	case core.KindCameraModel:
		return []change{exifText(rawtag.TagEquipModel, value)}, nil
	case core.KindEquipmentManufacturer:
		return []change{exifText(rawtag.TagEquipMake, value)}, nil
	case core.KindSubject:
		return []change{exifText(rawtag.TagXPSubject, value)}, nil
	case core.KindTags:
		tags := splitList(value)
		return []change{exifText(rawtag.TagXPKeywords, strings.Join(tags, ";")), iptcList(backend.DatasetKeywords, tags)}, nil

	case core.KindRating:
		n := 0
		if value != "" {
			var err error
			if n, err = strconv.Atoi(value); err != nil || n < 0 || n > 5 {
				return nil, fmt.Errorf("rating %q: want 0 to 5", value)
			}
		}
		return []change{exifNum(rawtag.TagRating, n), {xmp: "xmp:Rating", text: strconv.Itoa(n)}}, nil

	case core.KindOrientation:
		n := 1
		if value != "" {
			var ok bool
			if n, ok = parseOrientation(value); !ok {
				return nil, fmt.Errorf("orientation %q: want a code from 1 to 8", value)
			}
		}
		return []change{exifNum(rawtag.TagOrientation, n)}, nil

	case core.KindDatePictureTaken:
		if value == "" {
			return []change{exifText(rawtag.TagDateTimeOriginal, "")}, nil
		}
		t, err := parseDate(value, layouts)
		if err != nil {
			return nil, err
		}
		date, clock := iptcDate(t)
		created, timeCreated := iptcText(backend.DatasetDateCreated, date), iptcText(backend.DatasetTimeCreated, clock)
		created.seed, timeCreated.seed = true, true
		return []change{exifText(rawtag.TagDateTimeOriginal, t.Format(exifDateLayout)), created, timeCreated}, nil

	case core.KindIptcDateCreated:
		if value == "" {
			return []change{iptcText(backend.DatasetDateCreated, ""), iptcText(backend.DatasetTimeCreated, "")}, nil
		}
		t, err := parseDate(value, layouts)
		if err != nil {
			return nil, err
		}
		date, clock := iptcDate(t)
		return []change{iptcText(backend.DatasetDateCreated, date), iptcText(backend.DatasetTimeCreated, clock)}, nil

	case core.KindIptcKeywords:
		return []change{iptcList(backend.DatasetKeywords, splitList(value))}, nil
	}
	if d, ok := iptcDatasets[kind]; ok {
		return []change{iptcText(d, value)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotPersistable, kind)
}

const exifDateLayout = "2006:01:02 15:04:05"

func iptcDate(t time.Time) (date, clock string) {
	return t.Format("20060102"), t.Format("150405")
}

// parseDate accepts the raw ISO form, the gallery display layouts and the
// EXIF form.
func parseDate(s string, layouts []string) (time.Time, error) {
	all := append([]string{core.RawDateTimeLayout, time.RFC3339, "2006-01-02 15:04:05", exifDateLayout, "2006-01-02"}, layouts...)
	for _, l := range all {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseOrientation(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 1 && n <= 8
	}
	for code := int64(1); code <= 8; code++ {
		if d, _ := rawtag.Describe(rawtag.TagOrientation, code); strings.EqualFold(d, s) {
			return int(code), true
		}
	}
	return 0, false
}

// splitList splits a comma separated value, dropping blanks and repeats.
func splitList(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
