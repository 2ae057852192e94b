package rawtag

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dsoprea/go-exif/v3"
	heicexif "github.com/dsoprea/go-heic-exif-extractor"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure"
	pngstructure "github.com/dsoprea/go-png-image-structure"
	tiffstructure "github.com/dsoprea/go-tiff-image-structure"
	riimage "github.com/dsoprea/go-utility/image"

	"github.com/rdogmartin/gallerymeta/core"
)

type exifParser interface {
	Parse(rs io.ReadSeeker, size int) (ec riimage.MediaContext, err error)
}

func parserFor(format core.FormatID) exifParser {
	switch format {
	case core.FmtJPEG:
		return jpegstructure.NewJpegMediaParser()
	case core.FmtPNG:
		return pngstructure.NewPngMediaParser()
	case core.FmtTIFF:
		return tiffstructure.NewTiffMediaParser()
	case core.FmtHEIC:
		return heicexif.NewHeicExifMediaParser()
	default:
		return nil
	}
}

// ExtractBlock returns the raw EXIF block (starting at the TIFF header) of a
// media file. The container-aware parser runs first; when it has nothing a
// brute-force scan of the stream follows. A file without EXIF yields a
// core.ErrFormatLimitation.
func ExtractBlock(rs io.ReadSeeker, size int64, format core.FormatID) ([]byte, error) {
	var block []byte
	if p := parserFor(format); p != nil {
		err := core.Guard(func() error {
			mc, err := p.Parse(rs, int(size))
			if err != nil {
				return err
			}
			_, block, err = mc.Exif()
			return err
		})
		if err != nil {
			block = nil
		}
	}
	if len(block) == 0 {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		err := core.Guard(func() error {
			var err error
			block, err = exif.SearchAndExtractExifWithReader(rs)
			return err
		})
		if err != nil {
			if errors.Is(err, exif.ErrNoExif) || errors.Is(err, core.ErrInteropFault) {
				return nil, fmt.Errorf("%w: no exif block", core.ErrFormatLimitation)
			}
			return nil, fmt.Errorf("%w: %v", core.ErrFormatLimitation, err)
		}
	}
	if len(block) == 0 {
		return nil, fmt.Errorf("%w: no exif block", core.ErrFormatLimitation)
	}
	return block, nil
}

// ReadTags flattens an EXIF block into raw tag records from IFD0, the Exif
// sub-IFD and the GPS sub-IFD, and reports the block's byte order.
func ReadTags(block []byte) ([]RawTag, binary.ByteOrder, error) {
	var (
		order   binary.ByteOrder
		entries []exif.ExifTag
	)
	err := core.Guard(func() error {
		eh, err := exif.ParseExifHeader(block)
		if err != nil {
			return err
		}
		order = eh.ByteOrder
		entries, _, err = exif.GetFlatExifData(block, nil)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrFormatLimitation, err)
	}

	tags := make([]RawTag, 0, len(entries))
	for _, e := range entries {
		// Interoperability tags reuse the GPS id range.
		if strings.Contains(e.IfdPath, "Iop") {
			continue
		}
		if e.ChildIfdPath != "" {
			continue
		}
		tags = append(tags, RawTag{
			ID:    e.TagId,
			Type:  PrimitiveType(e.TagTypeId),
			Value: e.ValueBytes,
		})
	}
	return tags, order, nil
}

// Load extracts and decodes the known tags of a media file.
func Load(rs io.ReadSeeker, size int64, format core.FormatID) (Table, error) {
	block, err := ExtractBlock(rs, size, format)
	if err != nil {
		return nil, err
	}
	tags, order, err := ReadTags(block)
	if err != nil {
		return nil, err
	}
	return Decode(tags, order), nil
}
