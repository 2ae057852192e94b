package rawtag

import (
	"fmt"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/rdogmartin/gallerymeta/core"
)

const (
	ifdRoot = "IFD"
	ifdExif = "IFD/Exif"
	ifdGPS  = "IFD/GPSInfo"
)

func ifdPathOf(t TagName) string {
	switch t {
	case TagExposureTime, TagFNumber, TagExposureProgram, TagISOSpeed,
		TagDateTimeOriginal, TagDateTimeDigitized, TagShutterSpeed, TagAperture,
		TagExposureBias, TagMaxAperture, TagSubjectDistance, TagMeteringMode,
		TagLightSource, TagFlash, TagFocalLength, TagUserComment, TagColorSpace,
		TagPixelXDimension, TagPixelYDimension, TagLensModel:
		return ifdExif
	case TagGpsVersion, TagGpsLatitudeRef, TagGpsLatitude, TagGpsLongitudeRef,
		TagGpsLongitude, TagGpsAltitudeRef, TagGpsAltitude, TagGpsDestLatRef,
		TagGpsDestLat, TagGpsDestLongRef, TagGpsDestLong:
		return ifdGPS
	}
	return ifdRoot
}

func isUTF16Tag(t TagName) bool {
	switch t {
	case TagXPTitle, TagXPComment, TagXPAuthor, TagXPKeywords, TagXPSubject:
		return true
	}
	return false
}

// Editor clones an EXIF block into a mutable IFD chain and encodes it back.
type Editor struct {
	root *exif.IfdBuilder
}

// NewEditor parses block into an editable chain. An empty block starts an
// empty IFD0. A block that cannot be parsed is core.ErrFormatLimitation.
func NewEditor(block []byte) (*Editor, error) {
	var root *exif.IfdBuilder
	err := core.Guard(func() error {
		im, err := exifcommon.NewIfdMappingWithStandard()
		if err != nil {
			return err
		}
		ti := exif.NewTagIndex()
		if len(block) == 0 {
			root = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
			return nil
		}
		_, index, err := exif.Collect(im, ti, block)
		if err != nil {
			return err
		}
		root = exif.NewIfdBuilderFromExistingChain(index.RootIfd)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: clone exif: %v", core.ErrFormatLimitation, err)
	}
	return &Editor{root: root}, nil
}

func isSignedTag(t TagName) bool {
	return t == TagExposureBias || t == TagShutterSpeed
}

// Set stores v in tag t. Strings go to ASCII tags, or UTF-16 for the
// Windows XP* tags; integers go to SHORT tags and fractions to RATIONAL.
func (e *Editor) Set(t TagName, v any) error {
	id, ok := tagIDs[t]
	if !ok {
		return fmt.Errorf("unknown tag %s", t)
	}
	var value any
	switch x := v.(type) {
	case string:
		if isUTF16Tag(t) {
			value = EncodeUTF16(x)
		} else {
			value = x
		}
	case int:
		value = []uint16{uint16(x)}
	case uint16:
		value = []uint16{x}
	case Fraction:
		if isSignedTag(t) {
			value = []exifcommon.SignedRational{{Numerator: int32(x.Numerator), Denominator: int32(x.Denominator)}}
		} else {
			value = []exifcommon.Rational{{Numerator: uint32(x.Numerator), Denominator: uint32(x.Denominator)}}
		}
	default:
		return fmt.Errorf("tag %s: unsupported value type %T", t, v)
	}
	return core.Guard(func() error {
		ib, err := exif.GetOrCreateIbFromRootIb(e.root, ifdPathOf(t))
		if err != nil {
			return err
		}
		return ib.SetStandard(id, value)
	})
}

// Encode returns the chain as an EXIF block starting at the TIFF header.
func (e *Editor) Encode() ([]byte, error) {
	var out []byte
	err := core.Guard(func() error {
		var err error
		out, err = exif.NewIfdByteEncoder().EncodeToExif(e.root)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("encode exif: %w", err)
	}
	return out, nil
}
