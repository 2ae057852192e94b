package backend

import (
	"bytes"
	"reflect"
	"testing"
)

func TestIPTCRoundTrip(t *testing.T) {
	rec := NewIPTC()
	rec.Set(DatasetCaption, "Un café à Lisboa")
	rec.Set(DatasetKeywords, "a", "b")
	rec.Set(DatasetByline, "Ada")

	got := ParseIPTC(rec.Encode())
	if v := got.Get(DatasetCaption); len(v) != 1 || v[0] != "Un café à Lisboa" {
		t.Errorf("caption = %q", v)
	}
	if v := got.Get(DatasetKeywords); !reflect.DeepEqual(v, []string{"a", "b"}) {
		t.Errorf("keywords = %q", v)
	}
	if v := got.Get(DatasetRecordVersion); len(v) != 1 || v[0] != "4" {
		t.Errorf("record version = %q", v)
	}
}

func TestIPTCLatin1(t *testing.T) {
	// 2:90 City = "Zürich" in ISO-8859-1 without a charset marker.
	stream := []byte{0x1C, 2, 90, 0, 6, 'Z', 0xFC, 'r', 'i', 'c', 'h'}
	if v := ParseIPTC(stream).Get(DatasetCity); len(v) != 1 || v[0] != "Zürich" {
		t.Errorf("city = %q", v)
	}
}

func TestIPTCSetEmptyRemoves(t *testing.T) {
	rec := NewIPTC()
	rec.Set(DatasetCity, "Oslo")
	rec.Set(DatasetCity)
	if rec.Len() != 0 || rec.Get(DatasetCity) != nil {
		t.Error("dataset not removed")
	}
}

func TestEncodePhotoshopKeepsOtherResources(t *testing.T) {
	var orig bytes.Buffer
	writeResource(&orig, resource{id: 0x03ED, data: []byte{1, 2, 3, 4, 5}})
	old := NewIPTC()
	old.Set(DatasetCity, "Oslo")
	writeResource(&orig, resource{id: resourceIPTC, data: old.Encode()})

	rec := NewIPTC()
	rec.Set(DatasetCity, "Bergen")
	payload := EncodePhotoshop(orig.Bytes(), rec.Encode())

	res := parseResources(payload)
	if len(res) != 2 {
		t.Fatalf("resources = %d, want 2", len(res))
	}
	if res[0].id != 0x03ED || !bytes.Equal(res[0].data, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("foreign resource changed: %+v", res[0])
	}
	if v := ParsePhotoshop(payload).Get(DatasetCity); len(v) != 1 || v[0] != "Bergen" {
		t.Errorf("city = %q", v)
	}
}

func TestParsePhotoshopSkipsPadding(t *testing.T) {
	rec := NewIPTC()
	rec.Set(DatasetHeadline, "News")
	payload := append(EncodePhotoshop(nil, rec.Encode()), make([]byte, 64)...)
	if v := ParsePhotoshop(payload).Get(DatasetHeadline); len(v) != 1 || v[0] != "News" {
		t.Errorf("headline = %q", v)
	}
}

func TestXMPParse(t *testing.T) {
	packet := []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
<rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:Rating="3">
 <dc:title><rdf:Alt><rdf:li xml:lang="x-default">Pier</rdf:li></rdf:Alt></dc:title>
 <dc:subject><rdf:Bag><rdf:li>sea</rdf:li><rdf:li>pier</rdf:li></rdf:Bag></dc:subject>
</rdf:Description></rdf:RDF></x:xmpmeta>`)
	x := ParseXMP(packet)
	if v, ok := x.First("dc:title"); !ok || v != "Pier" {
		t.Errorf("title = %q", v)
	}
	if v := x.Values("dc:subject"); !reflect.DeepEqual(v, []string{"sea", "pier"}) {
		t.Errorf("subject = %q", v)
	}
	if v, _ := x.First("xmp:Rating"); v != "3" {
		t.Errorf("rating = %q", v)
	}
}

func TestEmptyPacketParses(t *testing.T) {
	p := EmptyPacket(128)
	if FindPacket(p) == nil {
		t.Fatal("packet not found")
	}
	if x := ParseXMP(p); len(x.props) != 0 {
		t.Errorf("empty packet has properties: %v", x.props)
	}
}

func TestSetSimple(t *testing.T) {
	tests := []struct {
		name   string
		packet string
		want   string
		ok     bool
	}{
		{"attribute", `<rdf:Description xmp:Rating="4"/>`, `<rdf:Description xmp:Rating="2"/>`, true},
		{"element", `<xmp:Rating>4</xmp:Rating>`, `<xmp:Rating>2</xmp:Rating>`, true},
		{"absent", `<dc:title/>`, `<dc:title/>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SetSimple([]byte(tt.packet), "xmp:Rating", "2")
			if ok != tt.ok || string(got) != tt.want {
				t.Errorf("SetSimple = %q, %v", got, ok)
			}
		})
	}
}

func TestPadKeepsPacketParseable(t *testing.T) {
	p := Pad([]byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"></x:xmpmeta><?xpacket end="w"?>`), 64)
	if !bytes.HasSuffix(p, []byte(`<?xpacket end="w"?>`)) || len(p) != 64+67 {
		t.Errorf("Pad = %q (%d)", p, len(p))
	}
	if FindPacket(p) == nil {
		t.Error("padded packet not found")
	}
}
