package core

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies one metadata concept (title, capture date, ISO speed...).
// Values are persisted by higher layers, so existing numbers never change;
// new kinds are appended.
type Kind int

const (
	KindNotSpecified Kind = 0

	KindAuthor                Kind = 1
	KindCameraModel           Kind = 2
	KindColorRepresentation   Kind = 3
	KindComment               Kind = 4
	KindCopyright             Kind = 5
	KindDatePictureTaken      Kind = 6
	KindDimensions            Kind = 7
	KindEquipmentManufacturer Kind = 8
	KindExposureCompensation  Kind = 9
	KindExposureProgram       Kind = 10
	KindExposureTime          Kind = 11
	KindFlashMode             Kind = 12
	KindFNumber               Kind = 13
	KindFocalLength           Kind = 14
	KindHeight                Kind = 15
	KindHorizontalResolution  Kind = 16
	KindIsoSpeed              Kind = 17
	KindKeywords              Kind = 18
	KindLensAperture          Kind = 19
	KindLightSource           Kind = 20
	KindMeteringMode          Kind = 21
	KindRating                Kind = 22
	KindSubject               Kind = 23
	KindSubjectDistance       Kind = 24
	KindTitle                 Kind = 25
	KindVerticalResolution    Kind = 26
	KindWidth                 Kind = 27

	KindDuration    Kind = 28
	KindBitRate     Kind = 29
	KindAudioFormat Kind = 30
	KindVideoFormat Kind = 31
	KindOrientation Kind = 32

	KindGpsVersion         Kind = 33
	KindGpsLocation        Kind = 34
	KindGpsLatitude        Kind = 35
	KindGpsLongitude       Kind = 36
	KindGpsAltitude        Kind = 37
	KindGpsDestLocation    Kind = 38
	KindGpsDestLatitude    Kind = 39
	KindGpsDestLongitude   Kind = 40
	KindCaption            Kind = 41
	KindFileName           Kind = 42
	KindFileNameWithoutExt Kind = 43
	KindFileSizeKb         Kind = 44
	KindDateAdded          Kind = 45
	KindHtmlSource         Kind = 46
	KindTags               Kind = 47
	KindPeople             Kind = 48

	KindIptcByline                        Kind = 1001
	KindIptcBylineTitle                   Kind = 1002
	KindIptcCaption                       Kind = 1003
	KindIptcCity                          Kind = 1004
	KindIptcCopyrightNotice               Kind = 1005
	KindIptcCountryPrimaryLocationName    Kind = 1006
	KindIptcCredit                        Kind = 1007
	KindIptcDateCreated                   Kind = 1008
	KindIptcHeadline                      Kind = 1009
	KindIptcKeywords                      Kind = 1010
	KindIptcObjectName                    Kind = 1011
	KindIptcOriginalTransmissionReference Kind = 1012
	KindIptcProvinceState                 Kind = 1013
	KindIptcRecordVersion                 Kind = 1014
	KindIptcSource                        Kind = 1015
	KindIptcSpecialInstructions           Kind = 1016
	KindIptcSublocation                   Kind = 1017
	KindIptcWriterEditor                  Kind = 1018

	KindDateFileCreated         Kind = 2001
	KindDateFileCreatedUtc      Kind = 2002
	KindDateFileLastModified    Kind = 2003
	KindDateFileLastModifiedUtc Kind = 2004
)

var kindNames = map[Kind]string{
	KindNotSpecified:          "NotSpecified",
	KindAuthor:                "Author",
	KindCameraModel:           "CameraModel",
	KindColorRepresentation:   "ColorRepresentation",
	KindComment:               "Comment",
	KindCopyright:             "Copyright",
	KindDatePictureTaken:      "DatePictureTaken",
	KindDimensions:            "Dimensions",
	KindEquipmentManufacturer: "EquipmentManufacturer",
	KindExposureCompensation:  "ExposureCompensation",
	KindExposureProgram:       "ExposureProgram",
	KindExposureTime:          "ExposureTime",
	KindFlashMode:             "FlashMode",
	KindFNumber:               "FNumber",
	KindFocalLength:           "FocalLength",
	KindHeight:                "Height",
	KindHorizontalResolution:  "HorizontalResolution",
	KindIsoSpeed:              "IsoSpeed",
	KindKeywords:              "Keywords",
	KindLensAperture:          "LensAperture",
	KindLightSource:           "LightSource",
	KindMeteringMode:          "MeteringMode",
	KindRating:                "Rating",
	KindSubject:               "Subject",
	KindSubjectDistance:       "SubjectDistance",
	KindTitle:                 "Title",
	KindVerticalResolution:    "VerticalResolution",
	KindWidth:                 "Width",
	KindDuration:              "Duration",
	KindBitRate:               "BitRate",
	KindAudioFormat:           "AudioFormat",
	KindVideoFormat:           "VideoFormat",
	KindOrientation:           "Orientation",
	KindGpsVersion:            "GpsVersion",
	KindGpsLocation:           "GpsLocation",
	KindGpsLatitude:           "GpsLatitude",
	KindGpsLongitude:          "GpsLongitude",
	KindGpsAltitude:           "GpsAltitude",
	KindGpsDestLocation:       "GpsDestLocation",
	KindGpsDestLatitude:       "GpsDestLatitude",
	KindGpsDestLongitude:      "GpsDestLongitude",
	KindCaption:               "Caption",
	KindFileName:              "FileName",
	KindFileNameWithoutExt:    "FileNameWithoutExtension",
	KindFileSizeKb:            "FileSizeKb",
	KindDateAdded:             "DateAdded",
	KindHtmlSource:            "HtmlSource",
	KindTags:                  "Tags",
	KindPeople:                "People",

	KindIptcByline:                        "IptcByline",
	KindIptcBylineTitle:                   "IptcBylineTitle",
	KindIptcCaption:                       "IptcCaption",
	KindIptcCity:                          "IptcCity",
	KindIptcCopyrightNotice:               "IptcCopyrightNotice",
	KindIptcCountryPrimaryLocationName:    "IptcCountryPrimaryLocationName",
	KindIptcCredit:                        "IptcCredit",
	KindIptcDateCreated:                   "IptcDateCreated",
	KindIptcHeadline:                      "IptcHeadline",
	KindIptcKeywords:                      "IptcKeywords",
	KindIptcObjectName:                    "IptcObjectName",
	KindIptcOriginalTransmissionReference: "IptcOriginalTransmissionReference",
	KindIptcProvinceState:                 "IptcProvinceState",
	KindIptcRecordVersion:                 "IptcRecordVersion",
	KindIptcSource:                        "IptcSource",
	KindIptcSpecialInstructions:           "IptcSpecialInstructions",
	KindIptcSublocation:                   "IptcSublocation",
	KindIptcWriterEditor:                  "IptcWriterEditor",

	KindDateFileCreated:         "DateFileCreated",
	KindDateFileCreatedUtc:      "DateFileCreatedUtc",
	KindDateFileLastModified:    "DateFileLastModified",
	KindDateFileLastModifiedUtc: "DateFileLastModifiedUtc",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[strings.ToLower(n)] = k
	}
	return m
}()

var allKinds = func() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		if k != KindNotSpecified {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}()

// String returns the stable name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is a member of the enumeration.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok && k != KindNotSpecified
}

// IsIptc reports whether k belongs to the IPTC press catalogue.
func (k Kind) IsIptc() bool { return k >= KindIptcByline && k <= KindIptcWriterEditor }

// IsGps reports whether k is resolved from GPS tags.
func (k Kind) IsGps() bool { return k >= KindGpsVersion && k <= KindGpsDestLongitude }

// ParseKind looks a kind up by name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return KindNotSpecified, fmt.Errorf("unknown metadata kind %q", name)
}

// AllKinds returns every kind except KindNotSpecified in ascending order.
// The returned slice is a copy.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
