package backend

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"
)

// Namespace URIs mapped to the prefixes used in property names.
var xmpPrefixes = map[string]string{
	"http://purl.org/dc/elements/1.1/":                     "dc",
	"http://ns.adobe.com/xap/1.0/":                         "xmp",
	"http://ns.adobe.com/photoshop/1.0/":                   "photoshop",
	"http://ns.adobe.com/exif/1.0/":                        "exif",
	"http://ns.adobe.com/tiff/1.0/":                        "tiff",
	"http://ns.adobe.com/xap/1.0/rights/":                  "xmpRights",
	"http://ns.microsoft.com/photo/1.0/":                   "MicrosoftPhoto",
	"http://ns.microsoft.com/photo/1.2/":                   "MP",
	"http://ns.microsoft.com/photo/1.2/t/RegionInfo#":      "MPRI",
	"http://ns.microsoft.com/photo/1.2/t/Region#":          "MPReg",
	"http://www.metadataworkinggroup.com/schemas/regions/": "mwg-rs",
	"http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/":          "Iptc4xmpCore",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#":          "rdf",
	"adobe:ns:meta/":                                       "x",
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// XMP is the flattened property set of an XMP packet. Array items and
// language alternatives become multiple values of the property.
type XMP struct {
	props map[string][]string
}

func xmpName(n xml.Name) string {
	if p, ok := xmpPrefixes[n.Space]; ok {
		return p + ":" + n.Local
	}
	if n.Space == "" || n.Space == "xmlns" {
		return n.Local
	}
	return "ns:" + n.Local
}

func isContainer(name string) bool {
	return strings.HasPrefix(name, "rdf:") || strings.HasPrefix(name, "x:")
}

// ParseXMP decodes an XMP packet. Malformed XML ends the walk; properties
// read so far are kept.
func ParseXMP(data []byte) *XMP {
	x := &XMP{props: map[string][]string{}}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var stack []string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := xmpName(t.Name)
			stack = append(stack, name)
			if name != "rdf:Description" && !strings.HasPrefix(name, "rdf:li") {
				continue
			}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" || attr.Name.Space == xmlNamespace {
					continue
				}
				an := xmpName(attr.Name)
				if isContainer(an) || strings.TrimSpace(attr.Value) == "" {
					continue
				}
				x.add(an, attr.Value)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			val := strings.TrimSpace(string(t))
			if val == "" {
				continue
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if !isContainer(stack[i]) {
					x.add(stack[i], val)
					break
				}
			}
		}
	}
	return x
}

func (x *XMP) add(name, v string) {
	x.props[name] = append(x.props[name], strings.TrimSpace(v))
}

// Values returns every value of a property such as "dc:subject".
func (x *XMP) Values(name string) []string {
	if x == nil {
		return nil
	}
	return x.props[name]
}

// First returns the first value of a property.
func (x *XMP) First(name string) (string, bool) {
	v := x.Values(name)
	if len(v) == 0 || v[0] == "" {
		return "", false
	}
	return v[0], true
}

// People returns the names of the tagged person regions, in order and
// without repeats.
func (x *XMP) People() []string {
	var out []string
	seen := map[string]bool{}
	for _, prop := range []string{"MPReg:PersonDisplayName", "mwg-rs:Name"} {
		for _, v := range x.Values(prop) {
			if v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

var (
	packetStart = []byte("<x:xmpmeta")
	packetEnd   = []byte("</x:xmpmeta>")
)

// FindPacket locates an embedded XMP packet in arbitrary file bytes.
func FindPacket(data []byte) []byte {
	i := bytes.Index(data, packetStart)
	if i < 0 {
		return nil
	}
	j := bytes.Index(data[i:], packetEnd)
	if j < 0 {
		return nil
	}
	return data[i : i+j+len(packetEnd)]
}

// EmptyPacket returns an XMP packet with no properties followed by pad
// bytes of whitespace inside the packet wrapper.
func EmptyPacket(pad int) []byte {
	var buf bytes.Buffer
	buf.WriteString("<?xpacket begin=\"\xEF\xBB\xBF\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	buf.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"></rdf:RDF></x:xmpmeta>`)
	buf.WriteByte('\n')
	buf.Write(bytes.Repeat([]byte(" "), pad))
	buf.WriteString(`<?xpacket end="w"?>`)
	return buf.Bytes()
}

// SetSimple replaces the value of a simple property such as "xmp:Rating",
// written either as an attribute or as an element. It reports false and
// leaves packet alone when the property is not present.
func SetSimple(packet []byte, name, value string) ([]byte, bool) {
	q := regexp.QuoteMeta(name)
	esc := []byte(escapeXML(value))
	attr := regexp.MustCompile(`(\b` + q + `\s*=\s*")[^"]*(")`)
	if loc := attr.FindSubmatchIndex(packet); loc != nil {
		return splice(packet, loc[3], loc[4], esc), true
	}
	elem := regexp.MustCompile(`(<` + q + `>)[^<]*(</` + q + `>)`)
	if loc := elem.FindSubmatchIndex(packet); loc != nil {
		return splice(packet, loc[3], loc[4], esc), true
	}
	return packet, false
}

func splice(b []byte, from, to int, repl []byte) []byte {
	out := make([]byte, 0, len(b)-(to-from)+len(repl))
	out = append(out, b[:from]...)
	out = append(out, repl...)
	return append(out, b[to:]...)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Pad appends n bytes of whitespace before the packet trailer so that the
// packet can later be rewritten in place.
func Pad(packet []byte, n int) []byte {
	if n <= 0 {
		return packet
	}
	pad := bytes.Repeat([]byte(" "), n)
	if i := bytes.LastIndex(packet, []byte("<?xpacket end")); i >= 0 {
		return splice(packet, i, i, pad)
	}
	return append(append([]byte(nil), packet...), pad...)
}
