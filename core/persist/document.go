package persist

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/rdogmartin/gallerymeta/core/backend"
	"github.com/rdogmartin/gallerymeta/core/jpg"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
)

// document is a JPEG file split into segments with its three metadata
// blocks decoded.
type document struct {
	segs []jpg.Segment
	img  *backend.Image

	exifAt, iptcAt, xmpAt int

	// photoshop is the APP13 payload after its prefix, kept so other image
	// resources survive a rewrite.
	photoshop []byte
	packet    []byte
}

// payloads are the rebuilt segment payloads, prefixes included. A nil
// payload means the segment did not change.
type payloads struct {
	exif, iptc, xmp []byte
}

func parseDocument(path string, data []byte) (*document, error) {
	segs, err := jpg.Parse(data)
	if err != nil {
		return nil, err
	}
	d := &document{
		segs:   segs,
		img:    backend.Decode(path, data),
		exifAt: jpg.Find(segs, jpg.MarkerAPP1, jpg.ExifPrefix),
		iptcAt: jpg.Find(segs, jpg.MarkerAPP13, jpg.PhotoshopPrefix),
		xmpAt:  jpg.Find(segs, jpg.MarkerAPP1, jpg.XMPPrefix),
	}
	if d.iptcAt >= 0 {
		d.photoshop = segs[d.iptcAt].Data[len(jpg.PhotoshopPrefix):]
	}
	if d.xmpAt >= 0 {
		d.packet = segs[d.xmpAt].Data[len(jpg.XMPPrefix):]
	}
	return d, nil
}

// upToDate reports whether the file already holds every value of changes.
func (d *document) upToDate(changes []change) bool {
	for _, c := range changes {
		switch {
		case c.tag != "":
			rec, ok := d.img.Tags().Lookup(c.tag)
			if c.numeric {
				n, _ := rec.Int()
				if !ok && c.num == 0 {
					continue
				}
				if !ok || int(n) != c.num {
					return false
				}
				continue
			}
			s, _ := rec.Text()
			if strings.TrimSpace(s) != c.text {
				return false
			}
		case c.dataset != nil:
			cur := d.img.IPTC().Get(*c.dataset)
			if c.seed {
				continue
			}
			if !slices.Equal(trimAll(cur), c.values()) {
				return false
			}
		case c.xmp != "":
			if v, ok := d.img.XMP().First(c.xmp); ok && v != c.text {
				return false
			}
		}
	}
	return true
}

// values is what an IPTC change stores. Clearing keeps an empty dataset.
func (c change) values() []string {
	if c.list != nil {
		return c.list
	}
	if c.text == "" {
		return nil
	}
	return []string{c.text}
}

func trimAll(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// apply builds the payloads holding changes. exifBlock is the EXIF block to
// clone; nil starts an empty one.
func (d *document) apply(changes []change, exifBlock []byte) (payloads, error) {
	var p payloads

	var exifChanges, iptcChanges, xmpChanges []change
	for _, c := range changes {
		switch {
		case c.tag != "":
			exifChanges = append(exifChanges, c)
		case c.dataset != nil:
			iptcChanges = append(iptcChanges, c)
		case c.xmp != "":
			xmpChanges = append(xmpChanges, c)
		}
	}

	if len(exifChanges) > 0 {
		ed, err := rawtag.NewEditor(exifBlock)
		if err != nil {
			return p, fmt.Errorf("%w: %v", ErrCloneFailed, err)
		}
		for _, c := range exifChanges {
			var v any = c.text
			if c.numeric {
				v = c.num
			}
			if err := ed.Set(c.tag, v); err != nil {
				return p, err
			}
		}
		block, err := ed.Encode()
		if err != nil {
			return p, fmt.Errorf("encode exif: %w", err)
		}
		p.exif = append(slices.Clone(jpg.ExifPrefix), block...)
	}

	if len(iptcChanges) > 0 {
		rec := backend.ParsePhotoshop(d.photoshop)
		if rec == nil {
			rec = backend.NewIPTC()
		}
		for _, c := range iptcChanges {
			if c.seed && len(trimAll(rec.Get(*c.dataset))) > 0 {
				continue
			}
			vals := c.values()
			if len(vals) == 0 {
				vals = []string{""}
			}
			rec.Set(*c.dataset, vals...)
		}
		p.iptc = append(slices.Clone(jpg.PhotoshopPrefix), backend.EncodePhotoshop(d.photoshop, rec.Encode())...)
	}

	if len(xmpChanges) > 0 && d.packet != nil {
		packet := d.packet
		changed := false
		for _, c := range xmpChanges {
			var ok bool
			if packet, ok = backend.SetSimple(packet, c.xmp, c.text); ok {
				changed = true
			}
		}
		if changed {
			p.xmp = append(slices.Clone(jpg.XMPPrefix), bytes.TrimRight(packet, " \x00")...)
		}
	}
	return p, nil
}

// exifBlock returns the current EXIF block, or nil.
func (d *document) exifBlock() []byte {
	if d.exifAt < 0 {
		return nil
	}
	return d.segs[d.exifAt].Data[len(jpg.ExifPrefix):]
}
