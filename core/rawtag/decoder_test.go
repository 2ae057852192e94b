package rawtag

import (
	"encoding/binary"
	"testing"
)

func le16(vals ...uint16) []byte {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return b
}

func rat(pairs ...int32) []byte {
	b := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	}
	return b
}

func TestDecodeScalarsAndArrays(t *testing.T) {
	tags := []RawTag{
		{ID: TagISOSpeed.ID(), Type: TypeUnsignedShort, Value: le16(400)},
		{ID: TagFNumber.ID(), Type: TypeUnsignedFraction, Value: rat(4, 1)},
		{ID: TagGpsLatitude.ID(), Type: TypeUnsignedFraction, Value: rat(40, 1, 26, 1, 4630, 100)},
		{ID: TagExposureProgram.ID(), Type: TypeUnsignedShort, Value: le16(2, 3)},
		{ID: TagExposureBias.ID(), Type: TypeFraction, Value: rat(-2, 3)},
		{ID: TagPixelXDimension.ID(), Type: TypeUnsignedInt, Value: rat(4000)},
		{ID: TagSubjectDistance.ID(), Type: TypeInt, Value: rat(-7)},
	}

	table := Decode(tags, binary.LittleEndian)

	tests := []struct {
		name TagName
		want ValueType
	}{
		{TagISOSpeed, ValueInt64},
		{TagFNumber, ValueFraction},
		{TagGpsLatitude, ValueFractionArray},
		{TagExposureProgram, ValueInt64Array},
		{TagExposureBias, ValueFraction},
		{TagPixelXDimension, ValueInt64},
		{TagSubjectDistance, ValueInt64},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			r, ok := table.Lookup(tt.name)
			if !ok {
				t.Fatalf("tag %s missing", tt.name)
			}
			if r.ValueType != tt.want {
				t.Errorf("value type = %s, want %s", r.ValueType, tt.want)
			}
		})
	}

	if v, ok := table[TagISOSpeed].Int(); !ok || v != 400 {
		t.Errorf("ISO = %d, %v", v, ok)
	}
	if f, ok := table[TagFNumber].Fraction(); !ok || f.Float() != 4 {
		t.Errorf("FNumber = %v, %v", f, ok)
	}
	if _, ok := table[TagExposureProgram].Int(); ok {
		t.Error("multi-element array must not read as a scalar")
	}
	if f, _ := table[TagExposureBias].Fraction(); f.Numerator != -2 || f.Denominator != 3 {
		t.Errorf("signed fraction = %v", f)
	}
	if v, _ := table[TagSubjectDistance].Int(); v != -7 {
		t.Errorf("signed int = %d", v)
	}
	if got := len(table[TagGpsLatitude].Fractions()); got != 3 {
		t.Errorf("gps fractions = %d, want 3", got)
	}
}

func TestDecodeStrings(t *testing.T) {
	tags := []RawTag{
		{ID: TagEquipModel.ID(), Type: TypeASCII, Value: []byte("Caméra X100\x00")},
		{ID: TagGpsAltitudeRef.ID(), Type: TypeByte, Value: []byte{1}},
		{ID: TagXPTitle.ID(), Type: TypeByte, Value: EncodeUTF16("Sunset")},
	}
	table := Decode(tags, nil)

	if s, _ := table[TagEquipModel].StringValue(); s != "Caméra X100" {
		t.Errorf("ascii = %q", s)
	}
	if s, _ := table[TagGpsAltitudeRef].StringValue(); s != "1" {
		t.Errorf("single byte = %q, want \"1\"", s)
	}
	if s, _ := table[TagXPTitle].StringValue(); s != "Sunset" {
		t.Errorf("utf16 = %q", s)
	}
}

func TestDecodeSkipsUnknownAndDuplicates(t *testing.T) {
	tags := []RawTag{
		{ID: 0xBEEF, Type: TypeASCII, Value: []byte("ignored")},
		{ID: TagArtist.ID(), Type: TypeASCII, Value: []byte("first")},
		{ID: TagArtist.ID(), Type: TypeASCII, Value: []byte("second")},
	}
	table := Decode(tags, binary.LittleEndian)
	if len(table) != 1 {
		t.Fatalf("table has %d entries, want 1", len(table))
	}
	if s, _ := table[TagArtist].StringValue(); s != "first" {
		t.Errorf("artist = %q, want first occurrence", s)
	}
}

func TestDecodeMalformedDegradesToZero(t *testing.T) {
	tags := []RawTag{
		{ID: TagISOSpeed.ID(), Type: TypeUnsignedShort, Value: []byte{1, 2, 3}},
		{ID: TagFNumber.ID(), Type: TypeUnsignedFraction, Value: []byte{1, 2, 3, 4, 5}},
		{ID: TagUserComment.ID(), Type: TypeUndefined, Value: nil},
		{ID: TagArtist.ID(), Type: TypeASCII, Value: []byte("ok")},
	}
	table := Decode(tags, binary.LittleEndian)

	if v, ok := table[TagISOSpeed].Int(); !ok || v != 0 {
		t.Errorf("malformed short = %d, %v", v, ok)
	}
	if f, ok := table[TagFNumber].Fraction(); !ok || f.Float() != 0 {
		t.Errorf("malformed fraction = %v, %v", f, ok)
	}
	if b, ok := table[TagUserComment].Bytes(); !ok || len(b) != 1 || b[0] != 0 {
		t.Errorf("empty undefined = %v", b)
	}
	if s, _ := table[TagArtist].StringValue(); s != "ok" {
		t.Error("sibling tag lost after malformed tags")
	}
}

func TestDecodeBigEndian(t *testing.T) {
	b := []byte{0x01, 0x90}
	table := Decode([]RawTag{{ID: TagISOSpeed.ID(), Type: TypeUnsignedShort, Value: b}}, binary.BigEndian)
	if v, _ := table[TagISOSpeed].Int(); v != 400 {
		t.Errorf("big-endian short = %d, want 400", v)
	}
}

func TestUserCommentText(t *testing.T) {
	payload := append([]byte("ASCII\x00\x00\x00"), []byte("hello")...)
	table := Decode([]RawTag{{ID: TagUserComment.ID(), Type: TypeUndefined, Value: payload}}, nil)
	if s, ok := table[TagUserComment].Text(); !ok || s != "hello" {
		t.Errorf("user comment = %q, %v", s, ok)
	}
}
