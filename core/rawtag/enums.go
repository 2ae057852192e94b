package rawtag

import "strconv"

var exposurePrograms = map[int64]string{
	0: "Not defined",
	1: "Manual",
	2: "Normal program",
	3: "Aperture priority",
	4: "Shutter priority",
	5: "Creative program",
	6: "Action program",
	7: "Portrait mode",
	8: "Landscape mode",
}

var meteringModes = map[int64]string{
	0:   "Unknown",
	1:   "Average",
	2:   "Center weighted average",
	3:   "Spot",
	4:   "Multi-spot",
	5:   "Pattern",
	6:   "Partial",
	255: "Other",
}

var lightSources = map[int64]string{
	0:   "Unknown",
	1:   "Daylight",
	2:   "Fluorescent",
	3:   "Tungsten",
	4:   "Flash",
	9:   "Fine weather",
	10:  "Cloudy weather",
	11:  "Shade",
	12:  "Daylight fluorescent",
	13:  "Day white fluorescent",
	14:  "Cool white fluorescent",
	15:  "White fluorescent",
	17:  "Standard light A",
	18:  "Standard light B",
	19:  "Standard light C",
	20:  "D55",
	21:  "D65",
	22:  "D75",
	23:  "D50",
	24:  "ISO studio tungsten",
	255: "Other",
}

var flashModes = map[int64]string{
	0x00: "No flash",
	0x01: "Flash fired",
	0x05: "Flash fired, return light not detected",
	0x07: "Flash fired, return light detected",
	0x08: "On, did not fire",
	0x09: "On, fired",
	0x0D: "On, return light not detected",
	0x0F: "On, return light detected",
	0x10: "Off, did not fire",
	0x14: "Off, did not fire, return light not detected",
	0x18: "Auto, did not fire",
	0x19: "Auto, fired",
	0x1D: "Auto, fired, return light not detected",
	0x1F: "Auto, fired, return light detected",
	0x20: "No flash function",
	0x30: "Off, no flash function",
	0x41: "Fired, red-eye reduction",
	0x45: "Fired, red-eye reduction, return light not detected",
	0x47: "Fired, red-eye reduction, return light detected",
	0x49: "On, red-eye reduction",
	0x4D: "On, red-eye reduction, return light not detected",
	0x4F: "On, red-eye reduction, return light detected",
	0x50: "Off, red-eye reduction",
	0x58: "Auto, did not fire, red-eye reduction",
	0x59: "Auto, fired, red-eye reduction",
	0x5D: "Auto, fired, red-eye reduction, return light not detected",
	0x5F: "Auto, fired, red-eye reduction, return light detected",
}

var colorSpaces = map[int64]string{
	1:      "sRGB",
	2:      "Adobe RGB",
	0xFFFF: "Uncalibrated",
}

var orientations = map[int64]string{
	1: "Normal",
	2: "Flip horizontal",
	3: "Rotate 180",
	4: "Flip vertical",
	5: "Transpose",
	6: "Rotate 90",
	7: "Transverse",
	8: "Rotate 270",
}

var resolutionUnits = map[int64]string{
	2: "dpi",
	3: "dpcm",
}

var enumTables = map[TagName]map[int64]string{
	TagExposureProgram: exposurePrograms,
	TagMeteringMode:    meteringModes,
	TagLightSource:     lightSources,
	TagFlash:           flashModes,
	TagColorSpace:      colorSpaces,
	TagOrientation:     orientations,
	TagResolutionUnit:  resolutionUnits,
}

// Describe returns the display text of a coded tag value. Codes without an
// entry render as their decimal value; ok is false for tags that are not
// enumerations.
func Describe(tag TagName, code int64) (string, bool) {
	table, ok := enumTables[tag]
	if !ok {
		return "", false
	}
	if s, ok := table[code]; ok {
		return s, true
	}
	return strconv.FormatInt(code, 10), true
}

// OrientationForRotation maps a clockwise rotation in degrees to the EXIF
// orientation code that displays it upright.
func OrientationForRotation(deg int) int64 {
	switch ((deg % 360) + 360) % 360 {
	case 90:
		return 6
	case 180:
		return 3
	case 270:
		return 8
	}
	return 1
}
