package backend

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Dataset addresses one IPTC IIM field as record:number.
type Dataset struct {
	Record byte
	Number byte
}

func (d Dataset) String() string { return fmt.Sprintf("%d:%d", d.Record, d.Number) }

// IPTC application record datasets.
var (
	DatasetRecordVersion                 = Dataset{2, 0}
	DatasetObjectName                    = Dataset{2, 5}
	DatasetKeywords                      = Dataset{2, 25}
	DatasetSpecialInstructions           = Dataset{2, 40}
	DatasetDateCreated                   = Dataset{2, 55}
	DatasetTimeCreated                   = Dataset{2, 60}
	DatasetByline                        = Dataset{2, 80}
	DatasetBylineTitle                   = Dataset{2, 85}
	DatasetCity                          = Dataset{2, 90}
	DatasetSublocation                   = Dataset{2, 92}
	DatasetProvinceState                 = Dataset{2, 95}
	DatasetCountryPrimaryLocationName    = Dataset{2, 101}
	DatasetOriginalTransmissionReference = Dataset{2, 103}
	DatasetHeadline                      = Dataset{2, 105}
	DatasetCredit                        = Dataset{2, 110}
	DatasetSource                        = Dataset{2, 115}
	DatasetCopyrightNotice               = Dataset{2, 116}
	DatasetCaption                       = Dataset{2, 120}
	DatasetWriterEditor                  = Dataset{2, 122}

	datasetCodedCharset = Dataset{1, 90}
)

var iptcNames = map[string]Dataset{
	"RecordVersion":                 DatasetRecordVersion,
	"ObjectName":                    DatasetObjectName,
	"Keywords":                      DatasetKeywords,
	"SpecialInstructions":           DatasetSpecialInstructions,
	"DateCreated":                   DatasetDateCreated,
	"TimeCreated":                   DatasetTimeCreated,
	"Byline":                        DatasetByline,
	"BylineTitle":                   DatasetBylineTitle,
	"City":                          DatasetCity,
	"Sublocation":                   DatasetSublocation,
	"ProvinceState":                 DatasetProvinceState,
	"CountryPrimaryLocationName":    DatasetCountryPrimaryLocationName,
	"OriginalTransmissionReference": DatasetOriginalTransmissionReference,
	"Headline":                      DatasetHeadline,
	"Credit":                        DatasetCredit,
	"Source":                        DatasetSource,
	"CopyrightNotice":               DatasetCopyrightNotice,
	"Caption":                       DatasetCaption,
	"WriterEditor":                  DatasetWriterEditor,
}

// LookupDataset returns the dataset of an IPTC field name.
func LookupDataset(name string) (Dataset, bool) {
	d, ok := iptcNames[name]
	return d, ok
}

// repeatable datasets keep every occurrence; others keep the first.
var repeatable = map[Dataset]bool{
	DatasetKeywords: true,
	DatasetByline:   true,
}

// utf8Marker is the ISO 2022 escape for UTF-8 stored in 1:90.
var utf8Marker = []byte{0x1B, 0x25, 0x47}

const (
	iimTagMarker   = 0x1C
	resourceIPTC   = 0x0404
	resourceHeader = "8BIM"
)

// IPTC is the decoded application record of an IIM stream.
type IPTC struct {
	values map[Dataset][]string
	order  []Dataset
}

// NewIPTC returns an empty record.
func NewIPTC() *IPTC { return &IPTC{values: map[Dataset][]string{}} }

// ParseIPTC decodes an IIM stream. Values are UTF-8 when the stream says so
// or when the bytes are valid UTF-8; otherwise Latin-1.
func ParseIPTC(data []byte) *IPTC {
	p := NewIPTC()
	utf := false
	i := 0
	for i+5 <= len(data) {
		if data[i] != iimTagMarker {
			i++
			continue
		}
		d := Dataset{data[i+1], data[i+2]}
		n := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
		i += 5
		// Extended lengths are only used for binary object data.
		if n&0x8000 != 0 || i+n > len(data) {
			break
		}
		val := data[i : i+n]
		i += n

		switch {
		case d == datasetCodedCharset:
			utf = bytes.Equal(val, utf8Marker)
		case d.Record != 2:
		case d == DatasetRecordVersion:
			if len(val) == 2 {
				p.add(d, strconv.Itoa(int(binary.BigEndian.Uint16(val))))
			}
		default:
			p.add(d, decodeIPTCString(val, utf))
		}
	}
	return p
}

func decodeIPTCString(b []byte, utf bool) string {
	b = bytes.TrimRight(b, "\x00")
	if utf || utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func (p *IPTC) add(d Dataset, v string) {
	if _, seen := p.values[d]; !seen {
		p.order = append(p.order, d)
	} else if !repeatable[d] {
		return
	}
	p.values[d] = append(p.values[d], v)
}

// Get returns the values of d.
func (p *IPTC) Get(d Dataset) []string {
	if p == nil {
		return nil
	}
	return p.values[d]
}

// Set replaces the values of d. No values removes the dataset.
func (p *IPTC) Set(d Dataset, vals ...string) {
	if len(vals) == 0 {
		if _, ok := p.values[d]; ok {
			delete(p.values, d)
			for i, o := range p.order {
				if o == d {
					p.order = append(p.order[:i], p.order[i+1:]...)
					break
				}
			}
		}
		return
	}
	if _, seen := p.values[d]; !seen {
		p.order = append(p.order, d)
	}
	p.values[d] = append([]string(nil), vals...)
}

// Len returns the number of datasets present.
func (p *IPTC) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Encode writes the record as an IIM stream: the UTF-8 charset marker, the
// record version, then the datasets in their original order.
func (p *IPTC) Encode() []byte {
	var buf bytes.Buffer
	writeDataset(&buf, datasetCodedCharset, utf8Marker)
	var ver [2]byte
	binary.BigEndian.PutUint16(ver[:], 4)
	writeDataset(&buf, DatasetRecordVersion, ver[:])
	for _, d := range p.order {
		if d == DatasetRecordVersion {
			continue
		}
		for _, v := range p.values[d] {
			b := []byte(v)
			if len(b) > 0x7FFF {
				b = b[:0x7FFF]
			}
			writeDataset(&buf, d, b)
		}
	}
	return buf.Bytes()
}

func writeDataset(buf *bytes.Buffer, d Dataset, val []byte) {
	buf.WriteByte(iimTagMarker)
	buf.WriteByte(d.Record)
	buf.WriteByte(d.Number)
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(val)))
	buf.Write(n[:])
	buf.Write(val)
}

// ─── Photoshop image resources ───────────────────────────────────────────────

type resource struct {
	id   uint16
	name []byte
	data []byte
}

func parseResources(data []byte) []resource {
	var out []resource
	i := 0
	for i+12 <= len(data) {
		if !bytes.Equal(data[i:i+4], []byte(resourceHeader)) {
			i++
			continue
		}
		id := binary.BigEndian.Uint16(data[i+4 : i+6])
		nameLen := int(data[i+6])
		name := data[i+7 : min(i+7+nameLen, len(data))]
		if nameLen%2 == 0 {
			nameLen++
		}
		i += 7 + nameLen
		if i+4 > len(data) {
			break
		}
		size := int(binary.BigEndian.Uint32(data[i : i+4]))
		i += 4
		if i+size > len(data) {
			break
		}
		out = append(out, resource{id: id, name: name, data: data[i : i+size]})
		i += size
		if size%2 != 0 {
			i++
		}
	}
	return out
}

// ParsePhotoshop decodes the IPTC record held in a Photoshop APP13 payload
// (without the "Photoshop 3.0" prefix). It returns nil when there is none.
func ParsePhotoshop(payload []byte) *IPTC {
	for _, r := range parseResources(payload) {
		if r.id == resourceIPTC {
			return ParseIPTC(r.data)
		}
	}
	return nil
}

// EncodePhotoshop rebuilds an APP13 payload (without prefix) with iim as
// its IPTC resource, keeping every other resource of orig.
func EncodePhotoshop(orig, iim []byte) []byte {
	var buf bytes.Buffer
	replaced := false
	for _, r := range parseResources(orig) {
		if r.id == resourceIPTC {
			if replaced {
				continue
			}
			r.data = iim
			replaced = true
		}
		writeResource(&buf, r)
	}
	if !replaced {
		writeResource(&buf, resource{id: resourceIPTC, data: iim})
	}
	return buf.Bytes()
}

func writeResource(buf *bytes.Buffer, r resource) {
	buf.WriteString(resourceHeader)
	var b [4]byte
	binary.BigEndian.PutUint16(b[:2], r.id)
	buf.Write(b[:2])
	buf.WriteByte(byte(len(r.name)))
	buf.Write(r.name)
	if len(r.name)%2 == 0 {
		buf.WriteByte(0)
	}
	binary.BigEndian.PutUint32(b[:], uint32(len(r.data)))
	buf.Write(b[:])
	buf.Write(r.data)
	if len(r.data)%2 != 0 {
		buf.WriteByte(0)
	}
}
