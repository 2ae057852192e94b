package rawtag

// TagName is a tag the application knows how to use. Tags outside this set
// are skipped during decoding.
type TagName string

// IFD0
const (
	TagImageWidth       TagName = "ImageWidth"
	TagImageHeight      TagName = "ImageHeight"
	TagImageDescription TagName = "ImageDescription"
	TagEquipMake        TagName = "EquipMake"
	TagEquipModel       TagName = "EquipModel"
	TagOrientation      TagName = "Orientation"
	TagXResolution      TagName = "XResolution"
	TagYResolution      TagName = "YResolution"
	TagResolutionUnit   TagName = "ResolutionUnit"
	TagSoftware         TagName = "SoftwareUsed"
	TagDateTime         TagName = "DateTime"
	TagArtist           TagName = "Artist"
	TagRating           TagName = "Rating"
	TagCopyright        TagName = "Copyright"
	TagXPTitle          TagName = "XPTitle"
	TagXPComment        TagName = "XPComment"
	TagXPAuthor         TagName = "XPAuthor"
	TagXPKeywords       TagName = "XPKeywords"
	TagXPSubject        TagName = "XPSubject"
)

// Exif sub-IFD
const (
	TagExposureTime      TagName = "ExifExposureTime"
	TagFNumber           TagName = "ExifFNumber"
	TagExposureProgram   TagName = "ExifExposureProg"
	TagISOSpeed          TagName = "ExifISOSpeed"
	TagDateTimeOriginal  TagName = "ExifDTOrig"
	TagDateTimeDigitized TagName = "ExifDTDigitized"
	TagShutterSpeed      TagName = "ExifShutterSpeed"
	TagAperture          TagName = "ExifAperture"
	TagExposureBias      TagName = "ExifExposureBias"
	TagMaxAperture       TagName = "ExifMaxAperture"
	TagSubjectDistance   TagName = "ExifSubjectDist"
	TagMeteringMode      TagName = "ExifMeteringMode"
	TagLightSource       TagName = "ExifLightSource"
	TagFlash             TagName = "ExifFlash"
	TagFocalLength       TagName = "ExifFocalLength"
	TagUserComment       TagName = "ExifUserComment"
	TagColorSpace        TagName = "ExifColorSpace"
	TagPixelXDimension   TagName = "ExifPixXDim"
	TagPixelYDimension   TagName = "ExifPixYDim"
	TagLensModel         TagName = "ExifLensModel"
)

// GPS sub-IFD
const (
	TagGpsVersion      TagName = "GpsVer"
	TagGpsLatitudeRef  TagName = "GpsLatitudeRef"
	TagGpsLatitude     TagName = "GpsLatitude"
	TagGpsLongitudeRef TagName = "GpsLongitudeRef"
	TagGpsLongitude    TagName = "GpsLongitude"
	TagGpsAltitudeRef  TagName = "GpsAltitudeRef"
	TagGpsAltitude     TagName = "GpsAltitude"
	TagGpsDestLatRef   TagName = "GpsDestLatRef"
	TagGpsDestLat      TagName = "GpsDestLat"
	TagGpsDestLongRef  TagName = "GpsDestLongRef"
	TagGpsDestLong     TagName = "GpsDestLong"
)

var tagIDs = map[TagName]uint16{
	TagImageWidth:       0x0100,
	TagImageHeight:      0x0101,
	TagImageDescription: 0x010E,
	TagEquipMake:        0x010F,
	TagEquipModel:       0x0110,
	TagOrientation:      0x0112,
	TagXResolution:      0x011A,
	TagYResolution:      0x011B,
	TagResolutionUnit:   0x0128,
	TagSoftware:         0x0131,
	TagDateTime:         0x0132,
	TagArtist:           0x013B,
	TagRating:           0x4746,
	TagCopyright:        0x8298,
	TagXPTitle:          0x9C9B,
	TagXPComment:        0x9C9C,
	TagXPAuthor:         0x9C9D,
	TagXPKeywords:       0x9C9E,
	TagXPSubject:        0x9C9F,

	TagExposureTime:      0x829A,
	TagFNumber:           0x829D,
	TagExposureProgram:   0x8822,
	TagISOSpeed:          0x8827,
	TagDateTimeOriginal:  0x9003,
	TagDateTimeDigitized: 0x9004,
	TagShutterSpeed:      0x9201,
	TagAperture:          0x9202,
	TagExposureBias:      0x9204,
	TagMaxAperture:       0x9205,
	TagSubjectDistance:   0x9206,
	TagMeteringMode:      0x9207,
	TagLightSource:       0x9208,
	TagFlash:             0x9209,
	TagFocalLength:       0x920A,
	TagUserComment:       0x9286,
	TagColorSpace:        0xA001,
	TagPixelXDimension:   0xA002,
	TagPixelYDimension:   0xA003,
	TagLensModel:         0xA434,

	TagGpsVersion:      0x0000,
	TagGpsLatitudeRef:  0x0001,
	TagGpsLatitude:     0x0002,
	TagGpsLongitudeRef: 0x0003,
	TagGpsLongitude:    0x0004,
	TagGpsAltitudeRef:  0x0005,
	TagGpsAltitude:     0x0006,
	TagGpsDestLatRef:   0x0013,
	TagGpsDestLat:      0x0014,
	TagGpsDestLongRef:  0x0015,
	TagGpsDestLong:     0x0016,
}

var tagsByID = func() map[uint16]TagName {
	m := make(map[uint16]TagName, len(tagIDs))
	for n, id := range tagIDs {
		m[id] = n
	}
	return m
}()

// ID returns the numeric tag id.
func (t TagName) ID() uint16 { return tagIDs[t] }

// LookupID returns the known tag name for id.
func LookupID(id uint16) (TagName, bool) {
	n, ok := tagsByID[id]
	return n, ok
}
