package tiff

import "fmt"

// Fields returns the handle's field registry.
func (f *File) Fields() *FieldRegistry { return f.fields }

// MergeFieldInfo registers application-defined fields on this handle.
// Fields whose tag is already known are left alone.
func (f *File) MergeFieldInfo(infos []FieldInfo) error {
	for _, fi := range infos {
		if fi.Tag.IsPseudo() {
			return &Error{Op: "MergeFieldInfo", Tag: fi.Tag, Err: fmt.Errorf("%w: pseudo-tags belong to codecs", ErrBadValue)}
		}
		if !fi.Type.Valid() {
			return &Error{Op: "MergeFieldInfo", Tag: fi.Tag, Err: fmt.Errorf("%w: type %s", ErrBadValue, fi.Type)}
		}
	}
	f.fields.Merge(infos)
	return nil
}

// FieldInfo returns the description of tag, including pseudo-tags of the
// bound codec, or nil.
func (f *File) FieldInfo(tag Tag) *FieldInfo {
	if _, fi := f.codecField(tag); fi != nil {
		return fi
	}
	return f.fields.Find(tag, TypeAny)
}

// SetField sets a field in the current directory. The value must belong
// to the family of the field's type: unsigned values for BYTE, SHORT and
// LONG fields, signed for the signed types, Float or Double for FLOAT,
// DOUBLE and the rational types, and String for ASCII.
//
// Unknown tags get an anonymous field whose type follows the value. On
// failure the directory is unchanged.
func (f *File) SetField(tag Tag, v Value) error {
	if err := f.setField(tag, v, TypeAny, false); err != nil {
		return f.fail("SetField", &Error{Op: "SetField", Tag: tag, Err: err})
	}
	return nil
}

func (f *File) setField(tag Tag, v Value, typ DataType, reading bool) error {
	if fc, fi := f.codecField(tag); fc != nil {
		cv, err := coerce(fi.Type, v)
		if err != nil {
			return err
		}
		if err := checkCount(fi, cv, f.dir.samplesPerPixel); err != nil {
			return err
		}
		return fc.SetField(tag, cv)
	}
	fi := f.fields.Find(tag, typ)
	if fi == nil && typ != TypeAny {
		fi = f.fields.Find(tag, TypeAny)
	}
	if fi == nil {
		if tag.IsPseudo() {
			return fmt.Errorf("%w: no bound codec handles it", ErrUnknownTag)
		}
		t := typ
		if t == TypeAny {
			t = typeFor(v)
		}
		if t == TypeAny {
			return fmt.Errorf("%w: invalid value", ErrTypeMismatch)
		}
		fi = f.fields.CreateAnonymous(tag, t)
	}
	if f.beenWriting && !fi.OkToChange {
		return ErrReadOnlyField
	}
	cv, err := coerce(fi.Type, v)
	if err != nil {
		return err
	}
	switch tag {
	case TagCompression:
		scheme, err := cv.Uint16()
		if err != nil {
			return err
		}
		if err := f.bindCodec(scheme, reading); err != nil {
			return err
		}
	case TagTileWidth, TagTileLength:
		if x, err := cv.Uint32(); err == nil && x%16 != 0 {
			f.warnf("SetField", "nonstandard %s %d, should be a multiple of 16", fi.Name, x)
		}
	}
	if err := f.dir.set(fi, cv); err != nil {
		return err
	}
	f.coderReady = false
	if !reading {
		f.dirty = true
	}
	if fi.Bit == FieldBitsPerSample || fi.Bit == FieldFillOrder {
		f.scan.invalidate()
	}
	return nil
}

// GetField returns a field of the current directory. An undefined field
// that has a default returns the default and stays undefined; IsFieldSet
// tells the two apart. Other undefined fields fail with ErrFieldNotSet.
func (f *File) GetField(tag Tag) (Value, error) {
	if fc, _ := f.codecField(tag); fc != nil {
		if v, ok := fc.GetField(tag); ok {
			return v, nil
		}
	} else {
		fi := f.fields.Find(tag, TypeAny)
		if fi == nil {
			return Value{}, &Error{Op: "GetField", Tag: tag, Err: ErrUnknownTag}
		}
		if v, ok := f.dir.get(fi); ok {
			return v, nil
		}
	}
	if d, ok := f.dir.defaultValue(tag); ok {
		return d, nil
	}
	return Value{}, &Error{Op: "GetField", Tag: tag, Err: ErrFieldNotSet}
}

// IsFieldSet reports whether tag is defined in the current directory.
func (f *File) IsFieldSet(tag Tag) bool {
	fi := f.fields.Find(tag, TypeAny)
	return fi != nil && f.dir.isTagSet(fi)
}

// UnsetField removes a field from the current directory.
func (f *File) UnsetField(tag Tag) error {
	fi := f.fields.Find(tag, TypeAny)
	if fi == nil {
		return &Error{Op: "UnsetField", Tag: tag, Err: ErrUnknownTag}
	}
	if f.beenWriting && !fi.OkToChange {
		return &Error{Op: "UnsetField", Tag: tag, Err: ErrReadOnlyField}
	}
	f.dir.unset(fi)
	f.dirty = true
	return nil
}

// Tags returns the defined tags of the current directory in ascending
// order.
func (f *File) Tags() []Tag {
	return f.dir.definedTags(f.fields)
}

// fieldUint returns an unsigned field or its default, for internal use on
// fields whose storage is known to be unsigned.
func (f *File) fieldUint(tag Tag, def uint64) uint64 {
	v, err := f.GetField(tag)
	if err != nil {
		return def
	}
	x, err := v.Uint()
	if err != nil {
		return def
	}
	return x
}
