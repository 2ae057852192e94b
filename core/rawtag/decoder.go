// Package rawtag decodes EXIF tag records into typed values.
package rawtag

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// PrimitiveType is the EXIF field type code of a tag.
type PrimitiveType uint16

const (
	TypeByte             PrimitiveType = 1
	TypeASCII            PrimitiveType = 2
	TypeUnsignedShort    PrimitiveType = 3
	TypeUnsignedInt      PrimitiveType = 4
	TypeUnsignedFraction PrimitiveType = 5
	TypeUndefined        PrimitiveType = 7
	TypeInt              PrimitiveType = 9
	TypeFraction         PrimitiveType = 10
)

// ValueType tells which Go type a Record's Value holds.
type ValueType int

const (
	ValueUndefined ValueType = iota
	ValueString
	ValueInt64
	ValueInt64Array
	ValueFraction
	ValueFractionArray
	ValueByteArray
)

func (v ValueType) String() string {
	switch v {
	case ValueString:
		return "String"
	case ValueInt64:
		return "Int64"
	case ValueInt64Array:
		return "Int64Array"
	case ValueFraction:
		return "Fraction"
	case ValueFractionArray:
		return "FractionArray"
	case ValueByteArray:
		return "ByteArray"
	default:
		return "Undefined"
	}
}

// RawTag is one undecoded tag: id, field type and the value bytes.
type RawTag struct {
	ID    uint16
	Type  PrimitiveType
	Value []byte
}

// Record is a decoded tag. Value holds string, int64, []int64, Fraction,
// []Fraction or []byte according to ValueType.
type Record struct {
	Tag       TagName
	Type      PrimitiveType
	ValueType ValueType
	Value     any
}

// Table maps known tag names to their decoded records.
type Table map[TagName]Record

// Decode converts raw tags into a Table. Unknown tag ids are skipped and only
// the first occurrence of a repeated id is kept. order is the byte order of
// the EXIF block the values came from; nil means little-endian.
func Decode(tags []RawTag, order binary.ByteOrder) Table {
	if order == nil {
		order = binary.LittleEndian
	}
	out := make(Table, len(tags))
	for _, t := range tags {
		name, ok := LookupID(t.ID)
		if !ok {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		vt, v := decodeValue(t.Type, t.Value, order)
		out[name] = Record{Tag: name, Type: t.Type, ValueType: vt, Value: v}
	}
	return out
}

func decodeValue(pt PrimitiveType, b []byte, order binary.ByteOrder) (ValueType, any) {
	switch pt {
	case TypeASCII:
		return ValueString, cleanString(string(b))
	case TypeByte:
		if len(b) == 1 {
			return ValueString, strconv.Itoa(int(b[0]))
		}
		return ValueString, decodeUTF16(b)
	case TypeUnsignedShort:
		return decodeInts(b, 2, func(p []byte) int64 { return int64(order.Uint16(p)) })
	case TypeUnsignedInt:
		return decodeInts(b, 4, func(p []byte) int64 { return int64(order.Uint32(p)) })
	case TypeInt:
		return decodeInts(b, 4, func(p []byte) int64 { return int64(int32(order.Uint32(p))) })
	case TypeUnsignedFraction:
		return decodeFractions(b, func(p []byte) int64 { return int64(order.Uint32(p)) })
	case TypeFraction:
		return decodeFractions(b, func(p []byte) int64 { return int64(int32(order.Uint32(p))) })
	default:
		if len(b) == 0 {
			return ValueByteArray, []byte{0}
		}
		return ValueByteArray, append([]byte(nil), b...)
	}
}

func decodeInts(b []byte, size int, read func([]byte) int64) (ValueType, any) {
	if len(b) == 0 || len(b)%size != 0 {
		return ValueInt64, int64(0)
	}
	vals := make([]int64, 0, len(b)/size)
	for i := 0; i < len(b); i += size {
		vals = append(vals, read(b[i:i+size]))
	}
	if len(vals) == 1 {
		return ValueInt64, vals[0]
	}
	return ValueInt64Array, vals
}

func decodeFractions(b []byte, read func([]byte) int64) (ValueType, any) {
	if len(b) == 0 || len(b)%8 != 0 {
		return ValueFraction, NewFraction(0, 0)
	}
	vals := make([]Fraction, 0, len(b)/8)
	for i := 0; i < len(b); i += 8 {
		vals = append(vals, NewFraction(read(b[i:i+4]), read(b[i+4:i+8])))
	}
	if len(vals) == 1 {
		return ValueFraction, vals[0]
	}
	return ValueFractionArray, vals
}

var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16 decodes the UCS-2 payload Windows writes into the XP* tags.
func decodeUTF16(b []byte) string {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	s, err := utf16Decoder.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return cleanString(string(s))
}

// EncodeUTF16 is the inverse of the BYTE tag string decoding, NUL terminated.
func EncodeUTF16(s string) []byte {
	b, err := utf16Decoder.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte{0, 0}
	}
	return append(b, 0, 0)
}

func cleanString(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}

// ─── Record accessors ─────────────────────────────────────────────────────────

// StringValue returns the value when it decoded to a non-empty string.
func (r Record) StringValue() (string, bool) {
	s, ok := r.Value.(string)
	return s, ok && s != ""
}

// Int returns a scalar integer value. Arrays do not qualify.
func (r Record) Int() (int64, bool) {
	if r.ValueType != ValueInt64 {
		return 0, false
	}
	v, ok := r.Value.(int64)
	return v, ok
}

// Fraction returns a scalar rational value. Arrays do not qualify.
func (r Record) Fraction() (Fraction, bool) {
	if r.ValueType != ValueFraction {
		return Fraction{}, false
	}
	v, ok := r.Value.(Fraction)
	return v, ok
}

// Fractions returns the rational values of a scalar or array record.
func (r Record) Fractions() []Fraction {
	switch v := r.Value.(type) {
	case Fraction:
		return []Fraction{v}
	case []Fraction:
		return v
	}
	return nil
}

// Bytes returns the raw bytes of an undefined-type record.
func (r Record) Bytes() ([]byte, bool) {
	b, ok := r.Value.([]byte)
	return b, ok
}

// Text returns a scalar record as a display string: strings verbatim,
// integers in decimal, and user-comment blobs without their charset header.
func (r Record) Text() (string, bool) {
	switch r.ValueType {
	case ValueString:
		return r.StringValue()
	case ValueInt64:
		v, _ := r.Value.(int64)
		return strconv.FormatInt(v, 10), true
	case ValueFraction:
		f, _ := r.Value.(Fraction)
		return f.String(), true
	case ValueByteArray:
		b, _ := r.Value.([]byte)
		return userComment(b)
	}
	return "", false
}

// userComment strips the 8-byte character code prefix of EXIF UserComment.
func userComment(b []byte) (string, bool) {
	if len(b) <= 8 {
		return "", false
	}
	code, payload := b[:8], b[8:]
	var s string
	switch {
	case bytes.HasPrefix(code, []byte("UNICODE")):
		s = decodeUTF16(payload)
	default:
		s = cleanString(string(payload))
	}
	return s, s != ""
}

// Lookup returns the record for name.
func (t Table) Lookup(name TagName) (Record, bool) {
	r, ok := t[name]
	return r, ok
}
