package jpg

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for x := 0; x < 16; x++ {
		img.Set(x, 3, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseWriteRoundTrip(t *testing.T) {
	data := encodeJPEG(t)
	segs, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if segs[0].Marker != MarkerSOI {
		t.Fatalf("first segment = 0x%02X", segs[0].Marker)
	}
	out, err := Encode(segs)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("round trip changed the file: %d bytes -> %d bytes", len(data), len(out))
	}
}

func TestParseOffsetsAddressPayload(t *testing.T) {
	data := encodeJPEG(t)
	segs, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range segs {
		if len(s.Data) == 0 {
			continue
		}
		if got := data[s.Offset : s.Offset+int64(len(s.Data))]; !bytes.Equal(got, s.Data) {
			t.Errorf("segment 0x%02X offset %d does not address its payload", s.Marker, s.Offset)
		}
	}
}

func TestInsertAndFind(t *testing.T) {
	segs, err := Parse(encodeJPEG(t))
	if err != nil {
		t.Fatal(err)
	}
	if Find(segs, MarkerAPP1, ExifPrefix) != -1 {
		t.Fatal("fresh encode should have no EXIF")
	}
	exifSeg := Segment{Marker: MarkerAPP1, Offset: -1, Data: append(append([]byte{}, ExifPrefix...), "II*\x00"...)}
	segs = InsertAfterHeader(segs, exifSeg)
	iptc := Segment{Marker: MarkerAPP13, Offset: -1, Data: append([]byte{}, PhotoshopPrefix...)}
	segs = InsertAfterHeader(segs, iptc)

	ei := Find(segs, MarkerAPP1, ExifPrefix)
	pi := Find(segs, MarkerAPP13, PhotoshopPrefix)
	if ei < 0 || pi < 0 || ei > pi {
		t.Fatalf("exif at %d, photoshop at %d", ei, pi)
	}

	data, err := Encode(segs)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if i := Find(back, MarkerAPP1, ExifPrefix); i < 0 || string(back[i].Data[len(ExifPrefix):]) != "II*\x00" {
		t.Errorf("exif segment not round-tripped: %d", i)
	}
	if Find(back, MarkerAPP1, XMPPrefix) >= 0 {
		t.Error("found a segment that does not exist")
	}
}

func TestWriteRejectsOversizedPayload(t *testing.T) {
	segs := []Segment{{Marker: MarkerSOI}, {Marker: MarkerAPP1, Data: make([]byte, MaxPayload+1)}}
	if _, err := Encode(segs); err == nil {
		t.Error("oversized payload accepted")
	}
}

func TestParseRejectsNonJPEG(t *testing.T) {
	if _, err := Parse([]byte("\x89PNG\r\n")); err != ErrNotJPEG {
		t.Errorf("err = %v, want ErrNotJPEG", err)
	}
}
