package video

import (
	"encoding/binary"
	"io"
)

// MovieDuration walks the ISO base media boxes of r and returns the
// duration in seconds recorded in moov/mvhd.
func MovieDuration(r io.ReadSeeker) (float64, bool) {
	return walkBoxes(r, 0, -1, 0)
}

func walkBoxes(r io.ReadSeeker, start, limit int64, depth int) (float64, bool) {
	if depth > 8 {
		return 0, false
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return 0, false
	}
	pos := start
	for limit < 0 || pos < limit {
		hdr := make([]byte, 8)
		if _, err := io.ReadFull(r, hdr); err != nil {
			return 0, false
		}
		size := int64(binary.BigEndian.Uint32(hdr[0:4]))
		boxType := string(hdr[4:8])
		headerLen := int64(8)
		if size == 1 {
			ext := make([]byte, 8)
			if _, err := io.ReadFull(r, ext); err != nil {
				return 0, false
			}
			size = int64(binary.BigEndian.Uint64(ext))
			headerLen = 16
		}
		if size < headerLen {
			return 0, false
		}
		body := pos + headerLen
		bodyLen := size - headerLen

		switch boxType {
		case "moov":
			if sec, ok := walkBoxes(r, body, body+bodyLen, depth+1); ok {
				return sec, true
			}
		case "mvhd":
			return readMvhd(r, body, bodyLen)
		}

		pos += size
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return 0, false
		}
	}
	return 0, false
}

// readMvhd reads timescale and duration from a version 0 or 1 movie header.
func readMvhd(r io.ReadSeeker, body, n int64) (float64, bool) {
	if n < 20 {
		return 0, false
	}
	buf := make([]byte, min(n, 32))
	if _, err := r.Seek(body, io.SeekStart); err != nil {
		return 0, false
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, false
	}
	var scale, dur uint64
	switch {
	case buf[0] == 0 && len(buf) >= 20:
		scale = uint64(binary.BigEndian.Uint32(buf[12:16]))
		dur = uint64(binary.BigEndian.Uint32(buf[16:20]))
	case buf[0] == 1 && len(buf) >= 32:
		scale = uint64(binary.BigEndian.Uint32(buf[20:24]))
		dur = binary.BigEndian.Uint64(buf[24:32])
	default:
		return 0, false
	}
	if scale == 0 || dur == 0 {
		return 0, false
	}
	return float64(dur) / float64(scale), true
}
