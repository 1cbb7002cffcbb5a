// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"github.com/apache/arrow-go/v18/arrow"

	"go.starlark.net/starlark"
)

// Field exposes an arrow.Field to Starlark.
type Field struct {
	field arrow.Field
}

var (
	_ starlark.Value    = (*Field)(nil)
	_ starlark.HasAttrs = (*Field)(nil)
)

// Unwrap returns the underlying Arrow field.
func (f *Field) Unwrap() arrow.Field { return f.field }

func (f *Field) String() string        { return f.field.String() }
func (f *Field) Type() string          { return "arrow.field" }
func (f *Field) Freeze()               {}
func (f *Field) Truth() starlark.Bool  { return starlark.True }
func (f *Field) Hash() (uint32, error) { return starlark.String(f.field.String()).Hash() }

func (f *Field) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(f.field.Name), nil
	case "type":
		return &DataType{dt: f.field.Type}, nil
	case "nullable":
		return starlark.Bool(f.field.Nullable), nil
	case "equal":
		return starlark.NewBuiltin("equal", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var other *Field
			if err := starlark.UnpackPositionalArgs("equal", args, kwargs, 1, &other); err != nil {
				return nil, err
			}
			return starlark.Bool(f.field.Equal(other.field)), nil
		}), nil
	}
	return nil, nil
}

func (f *Field) AttrNames() []string {
	return []string{"equal", "name", "nullable", "type"}
}

// Schema exposes an *arrow.Schema to Starlark. Schemas are immutable and
// not reference counted.
type Schema struct {
	schema *arrow.Schema
}

var (
	_ starlark.Value    = (*Schema)(nil)
	_ starlark.HasAttrs = (*Schema)(nil)
)

// Unwrap returns the underlying Arrow schema.
func (sc *Schema) Unwrap() *arrow.Schema { return sc.schema }

func (sc *Schema) String() string        { return sc.schema.String() }
func (sc *Schema) Type() string          { return "arrow.schema" }
func (sc *Schema) Freeze()               {}
func (sc *Schema) Truth() starlark.Bool  { return starlark.True }
func (sc *Schema) Hash() (uint32, error) { return starlark.String(sc.schema.String()).Hash() }

func (sc *Schema) Attr(name string) (starlark.Value, error) {
	switch name {
	case "num_fields":
		return starlark.MakeInt(sc.schema.NumFields()), nil
	case "names":
		names := make([]starlark.Value, sc.schema.NumFields())
		for i := range sc.schema.NumFields() {
			names[i] = starlark.String(sc.schema.Field(i).Name)
		}
		return starlark.NewList(names), nil
	case "fields":
		fields := make([]starlark.Value, sc.schema.NumFields())
		for i := range sc.schema.NumFields() {
			fields[i] = &Field{field: sc.schema.Field(i)}
		}
		return starlark.NewList(fields), nil
	case "metadata":
		md := sc.schema.Metadata()
		d := starlark.NewDict(md.Len())
		for i := range md.Len() {
			if err := d.SetKey(starlark.String(md.Keys()[i]), starlark.String(md.Values()[i])); err != nil {
				return nil, err
			}
		}
		return d, nil
	case "field":
		return starlark.NewBuiltin("field", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var i int
			if err := starlark.UnpackPositionalArgs("field", args, kwargs, 1, &i); err != nil {
				return nil, err
			}
			if i < 0 || i >= sc.schema.NumFields() {
				return nil, indexErrorf("field index %d out of range [0, %d)", i, sc.schema.NumFields())
			}
			return &Field{field: sc.schema.Field(i)}, nil
		}), nil
	case "field_by_name":
		return starlark.NewBuiltin("field_by_name", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var fieldName string
			if err := starlark.UnpackPositionalArgs("field_by_name", args, kwargs, 1, &fieldName); err != nil {
				return nil, err
			}
			indices := sc.schema.FieldIndices(fieldName)
			if len(indices) == 0 {
				return starlark.None, nil
			}
			return &Field{field: sc.schema.Field(indices[0])}, nil
		}), nil
	case "equal":
		return starlark.NewBuiltin("equal", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var other *Schema
			if err := starlark.UnpackPositionalArgs("equal", args, kwargs, 1, &other); err != nil {
				return nil, err
			}
			return starlark.Bool(sc.schema.Equal(other.schema)), nil
		}), nil
	}
	return nil, nil
}

func (sc *Schema) AttrNames() []string {
	return []string{"equal", "field", "field_by_name", "fields", "metadata", "names", "num_fields"}
}
