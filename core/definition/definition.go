// Package definition holds the per-kind display and persistence settings
// shared by every metadata item of a gallery.
package definition

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rdogmartin/gallerymeta/core"
)

// EditMode controls how a user may edit an item.
type EditMode int

const (
	EditNotSet EditMode = iota
	EditNotEditable
	EditPlainText
	EditPlainTextMultiLine
	EditHTML
)

var editModeNames = []string{"NotSet", "NotEditable", "PlainText", "PlainTextMultiLine", "HtmlEditor"}

func (m EditMode) String() string {
	if int(m) >= 0 && int(m) < len(editModeNames) {
		return editModeNames[m]
	}
	return fmt.Sprintf("EditMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m EditMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *EditMode) UnmarshalText(b []byte) error {
	for i, n := range editModeNames {
		if strings.EqualFold(n, string(b)) {
			*m = EditMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown edit mode %q", b)
}

// DataType is the value type of a kind.
type DataType int

const (
	TypeString DataType = iota
	TypeDateTime
)

func (t DataType) String() string {
	if t == TypeDateTime {
		return "DateTime"
	}
	return "String"
}

// MarshalText implements encoding.TextMarshaler.
func (t DataType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "string", "":
		*t = TypeString
	case "datetime":
		*t = TypeDateTime
	default:
		return fmt.Errorf("unknown data type %q", b)
	}
	return nil
}

// Definition describes how one kind is displayed, edited and persisted.
type Definition struct {
	Kind                core.Kind `yaml:"kind"`
	DisplayName         string    `yaml:"displayName"`
	VisibleForContainer bool      `yaml:"visibleForAlbum"`
	VisibleForLeaf      bool      `yaml:"visibleForItem"`
	EditMode            EditMode  `yaml:"editMode"`
	// PersistToFile is nil when the gallery-wide default applies.
	PersistToFile *bool    `yaml:"persistToFile"`
	Sequence      int      `yaml:"sequence"`
	DataType      DataType `yaml:"dataType"`
}

// Editable reports whether users may change the value.
func (d Definition) Editable() bool {
	return d.EditMode != EditNotSet && d.EditMode != EditNotEditable
}

// Persists resolves PersistToFile against the gallery default.
func (d Definition) Persists(galleryDefault bool) bool {
	if d.PersistToFile != nil {
		return *d.PersistToFile
	}
	return galleryDefault && IsPersistable(d.Kind)
}

// persistable is the closed set of kinds the writer can put into a file.
var persistable = map[core.Kind]bool{
	core.KindOrientation:           true,
	core.KindTitle:                 true,
	core.KindCaption:               true,
	core.KindAuthor:                true,
	core.KindCopyright:             true,
	core.KindCameraModel:           true,
	core.KindEquipmentManufacturer: true,
	core.KindSubject:               true,
	core.KindRating:                true,
	core.KindTags:                  true,
	core.KindDatePictureTaken:      true,

	core.KindIptcByline:                        true,
	core.KindIptcBylineTitle:                   true,
	core.KindIptcCaption:                       true,
	core.KindIptcCity:                          true,
	core.KindIptcCopyrightNotice:               true,
	core.KindIptcCountryPrimaryLocationName:    true,
	core.KindIptcCredit:                        true,
	core.KindIptcDateCreated:                   true,
	core.KindIptcHeadline:                      true,
	core.KindIptcKeywords:                      true,
	core.KindIptcObjectName:                    true,
	core.KindIptcOriginalTransmissionReference: true,
	core.KindIptcProvinceState:                 true,
	core.KindIptcSource:                        true,
	core.KindIptcSpecialInstructions:           true,
	core.KindIptcSublocation:                   true,
	core.KindIptcWriterEditor:                  true,
}

// IsPersistable reports whether k can be written back into a media file.
func IsPersistable(k core.Kind) bool { return persistable[k] }

func dataTypeOf(k core.Kind) DataType {
	switch k {
	case core.KindDatePictureTaken, core.KindDateAdded, core.KindIptcDateCreated,
		core.KindDateFileCreated, core.KindDateFileCreatedUtc,
		core.KindDateFileLastModified, core.KindDateFileLastModifiedUtc:
		return TypeDateTime
	}
	return TypeString
}

// Registry is the validated, read-only set of definitions of a gallery.
// Lookup never fails: every kind has exactly one entry.
type Registry struct {
	byKind  map[core.Kind]Definition
	ordered []Definition
}

// New validates defs and returns a registry. A kind listed twice or a
// kind outside the enumeration is an error. Kinds that are missing get an
// invisible, non-editable, non-persisted entry sorted after the rest.
func New(defs []Definition) (*Registry, error) {
	r := &Registry{byKind: make(map[core.Kind]Definition, len(defs))}
	maxSeq := 0
	for _, d := range defs {
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("metadata definition: invalid kind %d", int(d.Kind))
		}
		if _, dup := r.byKind[d.Kind]; dup {
			return nil, fmt.Errorf("metadata definition: kind %s defined twice", d.Kind)
		}
		if !IsPersistable(d.Kind) {
			f := false
			d.PersistToFile = &f
		}
		if d.DisplayName == "" {
			d.DisplayName = d.Kind.String()
		}
		if d.Sequence > maxSeq {
			maxSeq = d.Sequence
		}
		r.byKind[d.Kind] = d
	}
	for _, k := range core.AllKinds() {
		if _, ok := r.byKind[k]; ok {
			continue
		}
		maxSeq++
		f := false
		r.byKind[k] = Definition{
			Kind:          k,
			DisplayName:   k.String(),
			EditMode:      EditNotEditable,
			PersistToFile: &f,
			Sequence:      maxSeq,
			DataType:      dataTypeOf(k),
		}
	}
	r.ordered = make([]Definition, 0, len(r.byKind))
	for _, d := range r.byKind {
		r.ordered = append(r.ordered, d)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		if r.ordered[i].Sequence != r.ordered[j].Sequence {
			return r.ordered[i].Sequence < r.ordered[j].Sequence
		}
		return r.ordered[i].Kind < r.ordered[j].Kind
	})
	return r, nil
}

// Lookup returns the definition of k. Unknown kinds get a synthesized
// invisible entry.
func (r *Registry) Lookup(k core.Kind) Definition {
	if d, ok := r.byKind[k]; ok {
		return d
	}
	f := false
	return Definition{Kind: k, DisplayName: k.String(), EditMode: EditNotEditable, PersistToFile: &f, Sequence: len(r.ordered) + 1}
}

// All returns the definitions sorted by display sequence.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

type document struct {
	Definitions []Definition `yaml:"definitions"`
}

func parse(rd io.Reader) ([]Definition, error) {
	var doc document
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse metadata definitions: %w", err)
	}
	return doc.Definitions, nil
}

// Load reads a YAML definition list and merges it over the built-in
// defaults: entries in rd replace the default entry of the same kind.
func Load(rd io.Reader) (*Registry, error) {
	overrides, err := parse(rd)
	if err != nil {
		return nil, err
	}
	base, err := parse(bytes.NewReader(defaultsYAML))
	if err != nil {
		return nil, err
	}
	idx := make(map[core.Kind]int, len(base))
	for i, d := range base {
		idx[d.Kind] = i
	}
	seen := make(map[core.Kind]bool, len(overrides))
	for _, d := range overrides {
		if seen[d.Kind] {
			return nil, fmt.Errorf("metadata definition: kind %s defined twice", d.Kind)
		}
		seen[d.Kind] = true
		if i, ok := idx[d.Kind]; ok {
			base[i] = d
			continue
		}
		base = append(base, d)
	}
	return New(base)
}

// LoadFile is Load on the file at path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata definitions: %w", err)
	}
	defer f.Close()
	return Load(f)
}

//go:embed defaults.yaml
var defaultsYAML []byte

var defaultRegistry = sync.OnceValue(func() *Registry {
	defs, err := parse(bytes.NewReader(defaultsYAML))
	if err != nil {
		panic(err)
	}
	r, err := New(defs)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the built-in registry.
func Default() *Registry { return defaultRegistry() }
