package core

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"strings"
)

// FormatID enumerates every recognised container format.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtGIF  FormatID = "gif"
	FmtWebP FormatID = "webp"
	FmtTIFF FormatID = "tiff"
	FmtBMP  FormatID = "bmp"
	FmtHEIC FormatID = "heic"

	FmtMP3  FormatID = "mp3"
	FmtFLAC FormatID = "flac"
	FmtOGG  FormatID = "ogg"
	FmtM4A  FormatID = "m4a"
	FmtWAV  FormatID = "wav"
	FmtAIFF FormatID = "aiff"
	FmtWMA  FormatID = "wma"

	FmtMP4  FormatID = "mp4"
	FmtMOV  FormatID = "mov"
	FmtMKV  FormatID = "mkv"
	FmtWebM FormatID = "webm"
	FmtAVI  FormatID = "avi"
	FmtWMV  FormatID = "wmv"
	FmtFLV  FormatID = "flv"

	FmtUnknown FormatID = "unknown"
)

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".jpe":  FmtJPEG,
	".png":  FmtPNG,
	".gif":  FmtGIF,
	".webp": FmtWebP,
	".tiff": FmtTIFF,
	".tif":  FmtTIFF,
	".bmp":  FmtBMP,
	".heic": FmtHEIC,
	".heif": FmtHEIC,
	".avif": FmtHEIC,

	".mp3":  FmtMP3,
	".flac": FmtFLAC,
	".ogg":  FmtOGG,
	".oga":  FmtOGG,
	".m4a":  FmtM4A,
	".aac":  FmtM4A,
	".wav":  FmtWAV,
	".aif":  FmtAIFF,
	".aiff": FmtAIFF,
	".wma":  FmtWMA,

	".mp4":  FmtMP4,
	".m4v":  FmtMP4,
	".mov":  FmtMOV,
	".qt":   FmtMOV,
	".mkv":  FmtMKV,
	".webm": FmtWebM,
	".avi":  FmtAVI,
	".wmv":  FmtWMV,
	".flv":  FmtFLV,
}

// FormatFromExt returns the format registered for the path's extension.
func FormatFromExt(path string) FormatID {
	if id, ok := extMap[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return FmtUnknown
}

// DetectFormat identifies r's format from its magic bytes, falling back to
// the extension of path. r is left positioned at the start.
func DetectFormat(r io.ReadSeeker, path string) (FormatID, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FmtUnknown, err
	}
	buf := make([]byte, 16)
	n, err := io.ReadFull(r, buf)
	if err != nil && n == 0 && err != io.EOF {
		return FmtUnknown, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FmtUnknown, err
	}
	if id := detectMagic(buf[:n]); id != FmtUnknown {
		// Extension refines shared containers (WebM vs MKV, M4A vs MP4).
		if ext := FormatFromExt(path); ext != FmtUnknown && containerFamily(ext) == containerFamily(id) {
			return ext, nil
		}
		return id, nil
	}
	return FormatFromExt(path), nil
}

func detectMagic(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	case b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return FmtPNG
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return FmtGIF
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) ||
		bytes.HasPrefix(b, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return FmtTIFF
	case b[0] == 0x42 && b[1] == 0x4D:
		return FmtBMP
	case bytes.HasPrefix(b, []byte("ID3")):
		return FmtMP3
	case b[0] == 0xFF && (b[1]&0xE0 == 0xE0):
		return FmtMP3
	case bytes.HasPrefix(b, []byte("fLaC")):
		return FmtFLAC
	case bytes.HasPrefix(b, []byte("OggS")):
		return FmtOGG
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return FmtWAV
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("AVI ")):
		return FmtAVI
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("FORM")) &&
		(bytes.Equal(b[8:12], []byte("AIFF")) || bytes.Equal(b[8:12], []byte("AIFC"))):
		return FmtAIFF
	case len(b) >= 8 && bytes.Equal(b[4:8], []byte("ftyp")):
		return detectISOBMFF(b)
	case binary.BigEndian.Uint32(b[0:4]) == 0x1A45DFA3:
		return FmtMKV
	case bytes.HasPrefix(b, []byte("FLV")):
		return FmtFLV
	case bytes.HasPrefix(b, []byte{0x30, 0x26, 0xB2, 0x75}):
		// ASF header GUID; WMA and WMV share it.
		return FmtWMV
	}
	return FmtUnknown
}

func detectISOBMFF(b []byte) FormatID {
	if len(b) < 12 {
		return FmtMP4
	}
	switch string(b[8:12]) {
	case "M4A ", "M4B ":
		return FmtM4A
	case "qt  ":
		return FmtMOV
	case "heic", "heix", "mif1", "msf1", "avif":
		return FmtHEIC
	default:
		return FmtMP4
	}
}

func containerFamily(id FormatID) FormatID {
	switch id {
	case FmtMP4, FmtMOV, FmtM4A, FmtHEIC:
		return FmtMP4
	case FmtMKV, FmtWebM:
		return FmtMKV
	case FmtWMV, FmtWMA:
		return FmtWMV
	}
	return id
}

// MediaKindFor returns the resolver variant for a file format.
func MediaKindFor(id FormatID) MediaKind {
	switch id {
	case FmtJPEG, FmtPNG, FmtGIF, FmtWebP, FmtTIFF, FmtBMP, FmtHEIC:
		return MediaImage
	case FmtMP3, FmtFLAC, FmtOGG, FmtM4A, FmtWAV, FmtAIFF, FmtWMA:
		return MediaAudio
	case FmtMP4, FmtMOV, FmtMKV, FmtWebM, FmtAVI, FmtWMV, FmtFLV:
		return MediaVideo
	default:
		return MediaGeneric
	}
}

// SupportsWriteBack reports whether metadata can be persisted into files of
// this format.
func SupportsWriteBack(id FormatID) bool {
	return id == FmtJPEG
}
