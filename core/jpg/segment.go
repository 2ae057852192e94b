// Package jpg reads and writes the marker segments of a JPEG file.
package jpg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Markers used by the metadata layer.
const (
	MarkerSOI   byte = 0xD8
	MarkerEOI   byte = 0xD9
	MarkerSOS   byte = 0xDA
	MarkerAPP0  byte = 0xE0
	MarkerAPP1  byte = 0xE1
	MarkerAPP13 byte = 0xED

	// markerScan tags the entropy-coded remainder after SOS.
	markerScan byte = 0x00
)

// Payload prefixes identifying the metadata segments.
var (
	ExifPrefix      = []byte("Exif\x00\x00")
	XMPPrefix       = []byte("http://ns.adobe.com/xap/1.0/\x00")
	PhotoshopPrefix = []byte("Photoshop 3.0\x00")
)

// MaxPayload is the largest payload a marker segment can carry.
const MaxPayload = 0xFFFF - 2

// ErrNotJPEG is returned for data without a JPEG SOI marker.
var ErrNotJPEG = errors.New("not a JPEG")

// Segment is one marker segment. Offset is the position of Data within the
// parsed file; it is -1 for segments built in memory.
type Segment struct {
	Marker byte
	Offset int64
	Data   []byte
}

// HasPrefix reports whether s is an APPn segment of marker whose payload
// starts with prefix.
func (s Segment) HasPrefix(marker byte, prefix []byte) bool {
	return s.Marker == marker && bytes.HasPrefix(s.Data, prefix)
}

// Parse splits a JPEG file into segments. The scan data after SOS is kept
// as a single trailing segment.
func Parse(data []byte) ([]Segment, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != MarkerSOI {
		return nil, ErrNotJPEG
	}
	segs := []Segment{{Marker: MarkerSOI, Offset: 0}}

	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			segs = append(segs, Segment{Marker: markerScan, Offset: int64(i), Data: data[i:]})
			break
		}
		i++
		// Fill bytes.
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			break
		}
		marker := data[i]
		i++

		if marker == MarkerSOI || marker == MarkerEOI || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
			segs = append(segs, Segment{Marker: marker, Offset: int64(i)})
			if marker == MarkerEOI {
				if i < len(data) {
					segs = append(segs, Segment{Marker: markerScan, Offset: int64(i), Data: data[i:]})
				}
				break
			}
			continue
		}

		if i+2 > len(data) {
			return nil, fmt.Errorf("truncated segment 0x%02X at %d", marker, i)
		}
		n := int(binary.BigEndian.Uint16(data[i:i+2])) - 2
		i += 2
		if n < 0 || i+n > len(data) {
			return nil, fmt.Errorf("segment 0x%02X at %d overruns file", marker, i)
		}
		segs = append(segs, Segment{Marker: marker, Offset: int64(i), Data: data[i : i+n : i+n]})
		i += n
		if marker == MarkerSOS {
			if i < len(data) {
				segs = append(segs, Segment{Marker: markerScan, Offset: int64(i), Data: data[i:]})
			}
			break
		}
	}
	return segs, nil
}

// Write serializes segs as a JPEG file.
func Write(w io.Writer, segs []Segment) error {
	var buf bytes.Buffer
	for _, seg := range segs {
		switch {
		case seg.Marker == markerScan:
			buf.Write(seg.Data)
		case len(seg.Data) == 0 && seg.Marker != MarkerSOS && !isAPP(seg.Marker):
			buf.Write([]byte{0xFF, seg.Marker})
		default:
			if len(seg.Data) > MaxPayload {
				return fmt.Errorf("segment 0x%02X payload of %d bytes exceeds %d", seg.Marker, len(seg.Data), MaxPayload)
			}
			buf.Write([]byte{0xFF, seg.Marker})
			var l [2]byte
			binary.BigEndian.PutUint16(l[:], uint16(len(seg.Data)+2))
			buf.Write(l[:])
			buf.Write(seg.Data)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Encode is Write into a byte slice.
func Encode(segs []Segment) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, segs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAPP(m byte) bool { return m >= 0xE0 && m <= 0xEF }

// Find returns the index of the first segment of marker whose payload
// starts with prefix, or -1.
func Find(segs []Segment, marker byte, prefix []byte) int {
	for i, s := range segs {
		if s.HasPrefix(marker, prefix) {
			return i
		}
	}
	return -1
}

// InsertAfterHeader inserts seg after SOI and any leading APP0 (JFIF) or
// EXIF segments, keeping EXIF first among the metadata segments.
func InsertAfterHeader(segs []Segment, seg Segment) []Segment {
	at := 1
	for at < len(segs) && (segs[at].Marker == MarkerAPP0 || segs[at].HasPrefix(MarkerAPP1, ExifPrefix)) {
		at++
	}
	out := make([]Segment, 0, len(segs)+1)
	out = append(out, segs[:at]...)
	out = append(out, seg)
	return append(out, segs[at:]...)
}
