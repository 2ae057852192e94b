package image

import (
	"math"
	"strconv"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
)

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// decimal renders v without trailing zeros.
func decimal(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func plainInt(n int64) core.MetaValue {
	s := strconv.FormatInt(n, 10)
	return core.TextValue(s)
}

func formatPixels(n int64) core.MetaValue {
	return core.NewMetaValue(strconv.FormatInt(n, 10)+" px", strconv.FormatInt(n, 10))
}

func formatISO(v float64) core.MetaValue {
	n := int64(math.Round(v))
	return core.NewMetaValue("ISO-"+strconv.FormatInt(n, 10), strconv.FormatInt(n, 10))
}

func formatFNumber(v float64) core.MetaValue {
	v = round(v, 1)
	return core.NewMetaValue("f/"+decimal(v), core.Number(v))
}

// formatAPEXAperture converts an APEX aperture value to an f-number.
func formatAPEXAperture(av float64) core.MetaValue {
	return formatFNumber(math.Pow(math.Sqrt2, av))
}

func formatExposureTime(v float64) core.MetaValue {
	if v <= 0 {
		return core.MetaValue{}
	}
	raw := core.Number(round(v, 6))
	if v < 1 {
		return core.NewMetaValue("1/"+strconv.FormatInt(int64(math.Round(1/v)), 10)+" sec", raw)
	}
	return core.NewMetaValue(decimal(round(v, 1))+" sec", raw)
}

func formatExposureBias(v float64) core.MetaValue {
	v = round(v, 2)
	s := decimal(v)
	if v > 0 {
		s = "+" + s
	}
	return core.NewMetaValue(s+" step", core.Number(v))
}

func formatFocalLength(v float64) core.MetaValue {
	v = round(v, 1)
	return core.NewMetaValue(decimal(v)+" mm", core.Number(v))
}

func formatDistance(v float64) core.MetaValue {
	v = round(v, 2)
	return core.NewMetaValue(decimal(v)+" m", core.Number(v))
}

// enumFormatter renders a coded value through its display table. The raw
// value is the numeric code.
func enumFormatter(tag rawtag.TagName) func(int64) core.MetaValue {
	return func(code int64) core.MetaValue {
		s, ok := rawtag.Describe(tag, code)
		if !ok {
			s = strconv.FormatInt(code, 10)
		}
		return core.NewMetaValue(s, strconv.FormatInt(code, 10))
	}
}
