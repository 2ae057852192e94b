// Package fixture builds small media files for tests.
package fixture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rdogmartin/gallerymeta/core/jpg"
	"github.com/rdogmartin/gallerymeta/core/rawtag"
)

// Options describes the metadata segments of a generated JPEG.
type Options struct {
	Width, Height int
	// Exif tags are written with rawtag.Editor. Nil means no APP1 EXIF.
	Exif map[rawtag.TagName]any
	// Photoshop is an APP13 payload without the "Photoshop 3.0" prefix.
	Photoshop []byte
	// XMP is a packet for an APP1 XMP segment.
	XMP []byte
}

// JPEG encodes a gradient image with the requested metadata segments.
func JPEG(t testing.TB, opt Options) []byte {
	t.Helper()
	if opt.Width == 0 {
		opt.Width = 32
	}
	if opt.Height == 0 {
		opt.Height = 24
	}
	img := image.NewRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	for y := 0; y < opt.Height; y++ {
		for x := 0; x < opt.Width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatal(err)
	}
	segs, err := jpg.Parse(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	if opt.XMP != nil {
		segs = jpg.InsertAfterHeader(segs, jpg.Segment{Marker: jpg.MarkerAPP1, Offset: -1, Data: append(append([]byte{}, jpg.XMPPrefix...), opt.XMP...)})
	}
	if opt.Photoshop != nil {
		segs = jpg.InsertAfterHeader(segs, jpg.Segment{Marker: jpg.MarkerAPP13, Offset: -1, Data: append(append([]byte{}, jpg.PhotoshopPrefix...), opt.Photoshop...)})
	}
	if opt.Exif != nil {
		block := ExifBlock(t, opt.Exif)
		segs = jpg.InsertAfterHeader(segs, jpg.Segment{Marker: jpg.MarkerAPP1, Offset: -1, Data: append(append([]byte{}, jpg.ExifPrefix...), block...)})
	}
	out, err := jpg.Encode(segs)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// ExifBlock encodes tags into an EXIF block starting at the TIFF header.
func ExifBlock(t testing.TB, tags map[rawtag.TagName]any) []byte {
	t.Helper()
	ed, err := rawtag.NewEditor(nil)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(tags))
	for n := range tags {
		names = append(names, string(n))
	}
	sort.Strings(names)
	for _, n := range names {
		if err := ed.Set(rawtag.TagName(n), tags[rawtag.TagName(n)]); err != nil {
			t.Fatalf("set %s: %v", n, err)
		}
	}
	block, err := ed.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return block
}

// WriteFile stores data under dir and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// XMPPacket wraps rdf:Description content in an XMP packet.
func XMPPacket(body string) []byte {
	return []byte(`<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>` +
		`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:xmp="http://ns.adobe.com/xap/1.0/"` +
		` xmlns:MP="http://ns.microsoft.com/photo/1.2/" xmlns:MPRI="http://ns.microsoft.com/photo/1.2/t/RegionInfo#"` +
		` xmlns:MPReg="http://ns.microsoft.com/photo/1.2/t/Region#">` +
		body +
		`</rdf:Description></rdf:RDF></x:xmpmeta><?xpacket end="w"?>`)
}
