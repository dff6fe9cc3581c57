package tiff

import (
	"fmt"
	"slices"
	"sort"
)

// Count is the cardinality of a field: a fixed element count or one of
// the variable forms below.
type Count int

const (
	CountVariable  Count = -1 // any number of elements
	CountPerSample Count = -2 // one element per sample
	CountVariable2 Count = -3 // any number, count stored explicitly
)

func (c Count) String() string {
	switch c {
	case CountVariable:
		return "variable"
	case CountPerSample:
		return "per-sample"
	case CountVariable2:
		return "variable2"
	}
	return fmt.Sprint(int(c))
}

// FieldBit is the index of a field in a directory's defined-field set.
// Well-known fields have their own bit; everything else shares
// FieldCustom.
type FieldBit uint8

const (
	FieldIgnore FieldBit = iota
	FieldImageDimensions
	FieldTileDimensions
	FieldResolution
	FieldPosition
	FieldSubfileType
	FieldBitsPerSample
	FieldCompression
	FieldPhotometric
	FieldThreshholding
	FieldFillOrder
	FieldOrientation
	FieldSamplesPerPixel
	FieldRowsPerStrip
	FieldMinSampleValue
	FieldMaxSampleValue
	FieldPlanarConfig
	FieldResolutionUnit
	FieldPageNumber
	FieldStripByteCounts
	FieldStripOffsets
	FieldColorMap
	FieldExtraSamples
	FieldSampleFormat
	FieldSMinSampleValue
	FieldSMaxSampleValue
	FieldImageDepth
	FieldTileDepth
	FieldYCbCrSubsampling
	FieldYCbCrPositioning
	FieldTransferFunction
	FieldSubIFD
	FieldPredictor
	FieldPseudo // codec pseudo-tags
	FieldCustom
	numFieldBits
)

// FieldInfo describes one tag: its on-disk type, cardinality and the
// rules for changing it.
type FieldInfo struct {
	Tag        Tag
	ReadCount  Count
	WriteCount Count
	Type       DataType
	Bit        FieldBit
	// OkToChange permits setting the field after the directory has been
	// written once.
	OkToChange bool
	// PassCount is set for fields whose element count varies and is
	// carried with the value.
	PassCount bool
	Name      string
}

// fixedCount returns the element count for a fixed cardinality, or -1.
func (fi *FieldInfo) fixedCount() int {
	if fi.WriteCount > 0 {
		return int(fi.WriteCount)
	}
	return -1
}

// FieldRegistry is the catalogue of known fields for one handle: the
// built-in table merged with application-defined fields.
type FieldRegistry struct {
	fields []*FieldInfo // sorted by tag, stable across duplicate tags
	byName map[string]*FieldInfo
}

// NewFieldRegistry returns a registry holding the built-in fields.
func NewFieldRegistry() *FieldRegistry {
	r := &FieldRegistry{byName: make(map[string]*FieldInfo)}
	r.add(builtinFields)
	return r
}

func (r *FieldRegistry) add(infos []FieldInfo) {
	for i := range infos {
		fi := infos[i]
		r.fields = append(r.fields, &fi)
		if _, ok := r.byName[fi.Name]; !ok {
			r.byName[fi.Name] = &fi
		}
	}
	sort.SliceStable(r.fields, func(i, j int) bool { return r.fields[i].Tag < r.fields[j].Tag })
}

// Find returns the field for tag with type typ. An exact type match wins,
// then an entry registered for any type. TypeAny returns the first entry
// for the tag. It returns nil when the tag is unknown.
func (r *FieldRegistry) Find(tag Tag, typ DataType) *FieldInfo {
	i := sort.Search(len(r.fields), func(i int) bool { return r.fields[i].Tag >= tag })
	var wild *FieldInfo
	for ; i < len(r.fields) && r.fields[i].Tag == tag; i++ {
		fi := r.fields[i]
		if typ == TypeAny || fi.Type == typ {
			return fi
		}
		if fi.Type == TypeAny && wild == nil {
			wild = fi
		}
	}
	return wild
}

// FindByName returns the first field registered under name.
func (r *FieldRegistry) FindByName(name string) *FieldInfo {
	return r.byName[name]
}

// Merge adds fields whose tag is not yet known. It returns the number of
// fields added.
func (r *FieldRegistry) Merge(infos []FieldInfo) int {
	var add []FieldInfo
	for _, fi := range infos {
		if r.Find(fi.Tag, TypeAny) != nil || slices.ContainsFunc(add, func(a FieldInfo) bool { return a.Tag == fi.Tag }) {
			continue
		}
		if fi.Bit == FieldIgnore {
			fi.Bit = FieldCustom
		}
		if fi.Name == "" {
			fi.Name = fmt.Sprintf("Tag %d", uint32(fi.Tag))
		}
		add = append(add, fi)
	}
	r.add(add)
	return len(add)
}

// CreateAnonymous registers and returns a generic field for an unknown
// tag so its value can still be carried through a rewrite.
func (r *FieldRegistry) CreateAnonymous(tag Tag, typ DataType) *FieldInfo {
	if fi := r.Find(tag, typ); fi != nil {
		return fi
	}
	fi := FieldInfo{
		Tag:        tag,
		ReadCount:  CountVariable2,
		WriteCount: CountVariable2,
		Type:       typ,
		Bit:        FieldCustom,
		OkToChange: true,
		PassCount:  true,
		Name:       fmt.Sprintf("Tag %d", uint32(tag)),
	}
	r.add([]FieldInfo{fi})
	return r.Find(tag, typ)
}

// Fields returns every registered field in tag order.
func (r *FieldRegistry) Fields() []FieldInfo {
	out := make([]FieldInfo, len(r.fields))
	for i, fi := range r.fields {
		out[i] = *fi
	}
	return out
}
