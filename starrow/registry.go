// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/float16"

	"go.starlark.net/starlark"
)

// typeHandler holds the conversion callpoints for one Arrow type tag:
// appending a Starlark value to an array builder, and reading an array
// element back as a Starlark value. Nulls and bounds are handled by the
// callers (appendValue, valueAt); handlers see only valid, non-null slots.
type typeHandler struct {
	append func(b array.Builder, dt arrow.DataType, v starlark.Value) error
	value  func(arr arrow.Array, i int) (starlark.Value, error)
}

// typeHandlers is the static dispatch table mapping Arrow type tags to
// variant handlers. The set of supported tags is fixed at compile time;
// conversions for tags outside this table fail with a TypeError.
//
// Populated in init: the LIST and STRUCT handlers recurse through
// appendValue and valueAt, which consult the table again, so a var
// initializer would form an initialization cycle.
var typeHandlers map[arrow.Type]typeHandler

func init() {
	typeHandlers = map[arrow.Type]typeHandler{
		arrow.NULL: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				return typeErrorf("null type accepts only None, got %s", v.Type())
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.None, nil
			},
		},
		arrow.BOOL: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				bv, ok := v.(starlark.Bool)
				if !ok {
					return typeErrorf("expected bool, got %s", v.Type())
				}
				b.(*array.BooleanBuilder).Append(bool(bv))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.Bool(arr.(*array.Boolean).Value(i)), nil
			},
		},
		arrow.INT8: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asInt64(v, math.MinInt8, math.MaxInt8)
				if err != nil {
					return err
				}
				b.(*array.Int8Builder).Append(int8(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeInt64(int64(arr.(*array.Int8).Value(i))), nil
			},
		},
		arrow.INT16: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asInt64(v, math.MinInt16, math.MaxInt16)
				if err != nil {
					return err
				}
				b.(*array.Int16Builder).Append(int16(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeInt64(int64(arr.(*array.Int16).Value(i))), nil
			},
		},
		arrow.INT32: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asInt64(v, math.MinInt32, math.MaxInt32)
				if err != nil {
					return err
				}
				b.(*array.Int32Builder).Append(int32(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeInt64(int64(arr.(*array.Int32).Value(i))), nil
			},
		},
		arrow.INT64: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asInt64(v, math.MinInt64, math.MaxInt64)
				if err != nil {
					return err
				}
				b.(*array.Int64Builder).Append(n)
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeInt64(arr.(*array.Int64).Value(i)), nil
			},
		},
		arrow.UINT8: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asUint64(v, math.MaxUint8)
				if err != nil {
					return err
				}
				b.(*array.Uint8Builder).Append(uint8(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeUint64(uint64(arr.(*array.Uint8).Value(i))), nil
			},
		},
		arrow.UINT16: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asUint64(v, math.MaxUint16)
				if err != nil {
					return err
				}
				b.(*array.Uint16Builder).Append(uint16(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeUint64(uint64(arr.(*array.Uint16).Value(i))), nil
			},
		},
		arrow.UINT32: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asUint64(v, math.MaxUint32)
				if err != nil {
					return err
				}
				b.(*array.Uint32Builder).Append(uint32(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeUint64(uint64(arr.(*array.Uint32).Value(i))), nil
			},
		},
		arrow.UINT64: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asUint64(v, math.MaxUint64)
				if err != nil {
					return err
				}
				b.(*array.Uint64Builder).Append(n)
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeUint64(arr.(*array.Uint64).Value(i)), nil
			},
		},
		arrow.FLOAT16: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				f, ok := starlark.AsFloat(v)
				if !ok {
					return typeErrorf("expected float, got %s", v.Type())
				}
				b.(*array.Float16Builder).Append(float16.New(float32(f)))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.Float(arr.(*array.Float16).Value(i).Float32()), nil
			},
		},
		arrow.FLOAT32: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				f, ok := starlark.AsFloat(v)
				if !ok {
					return typeErrorf("expected float, got %s", v.Type())
				}
				b.(*array.Float32Builder).Append(float32(f))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.Float(arr.(*array.Float32).Value(i)), nil
			},
		},
		arrow.FLOAT64: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				f, ok := starlark.AsFloat(v)
				if !ok {
					return typeErrorf("expected float, got %s", v.Type())
				}
				b.(*array.Float64Builder).Append(f)
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.Float(arr.(*array.Float64).Value(i)), nil
			},
		},
		arrow.STRING: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				s, ok := v.(starlark.String)
				if !ok {
					return typeErrorf("expected string, got %s", v.Type())
				}
				b.(*array.StringBuilder).Append(string(s))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.String(arr.(*array.String).Value(i)), nil
			},
		},
		arrow.BINARY: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				switch bv := v.(type) {
				case starlark.Bytes:
					b.(*array.BinaryBuilder).Append([]byte(bv))
				case starlark.String:
					b.(*array.BinaryBuilder).Append([]byte(bv))
				default:
					return typeErrorf("expected bytes or string, got %s", v.Type())
				}
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.Bytes(arr.(*array.Binary).Value(i)), nil
			},
		},
		arrow.DATE32: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asInt64(v, math.MinInt32, math.MaxInt32)
				if err != nil {
					return err
				}
				b.(*array.Date32Builder).Append(arrow.Date32(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeInt64(int64(arr.(*array.Date32).Value(i))), nil
			},
		},
		arrow.DATE64: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asInt64(v, math.MinInt64, math.MaxInt64)
				if err != nil {
					return err
				}
				b.(*array.Date64Builder).Append(arrow.Date64(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeInt64(int64(arr.(*array.Date64).Value(i))), nil
			},
		},
		arrow.TIMESTAMP: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				n, err := asInt64(v, math.MinInt64, math.MaxInt64)
				if err != nil {
					return err
				}
				b.(*array.TimestampBuilder).Append(arrow.Timestamp(n))
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				return starlark.MakeInt64(int64(arr.(*array.Timestamp).Value(i))), nil
			},
		},
		arrow.LIST: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				iter, ok := v.(starlark.Iterable)
				if !ok {
					return typeErrorf("expected iterable for list element, got %s", v.Type())
				}
				lb := b.(*array.ListBuilder)
				lb.Append(true)
				elem := dt.(*arrow.ListType).Elem()
				vb := lb.ValueBuilder()
				it := iter.Iterate()
				defer it.Done()
				var x starlark.Value
				for it.Next(&x) {
					if err := appendValue(vb, elem, x); err != nil {
						return err
					}
				}
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				la := arr.(*array.List)
				start, end := la.ValueOffsets(i)
				values := la.ListValues()
				elems := make([]starlark.Value, 0, end-start)
				for j := start; j < end; j++ {
					ev, err := valueAt(values, int(j))
					if err != nil {
						return nil, err
					}
					elems = append(elems, ev)
				}
				return starlark.NewList(elems), nil
			},
		},
		arrow.STRUCT: {
			append: func(b array.Builder, dt arrow.DataType, v starlark.Value) error {
				mapping, ok := v.(starlark.IterableMapping)
				if !ok {
					return typeErrorf("expected dict for struct element, got %s", v.Type())
				}
				st := dt.(*arrow.StructType)
				sb := b.(*array.StructBuilder)
				sb.Append(true)
				for fi := range st.NumFields() {
					f := st.Field(fi)
					fb := sb.FieldBuilder(fi)
					fv, found, err := mapping.Get(starlark.String(f.Name))
					if err != nil {
						return err
					}
					if !found || fv == starlark.None {
						fb.AppendNull()
						continue
					}
					if err := appendValue(fb, f.Type, fv); err != nil {
						return typeErrorf("struct field %q: %v", f.Name, err)
					}
				}
				return nil
			},
			value: func(arr arrow.Array, i int) (starlark.Value, error) {
				sa := arr.(*array.Struct)
				st := sa.DataType().(*arrow.StructType)
				d := starlark.NewDict(sa.NumField())
				for fi := 0; fi < sa.NumField(); fi++ {
					fv, err := valueAt(sa.Field(fi), i)
					if err != nil {
						return nil, err
					}
					if err := d.SetKey(starlark.String(st.Field(fi).Name), fv); err != nil {
						return nil, err
					}
				}
				return d, nil
			},
		},
	}
}

// handlerFor looks up the variant handler for a data type.
func handlerFor(dt arrow.DataType) (typeHandler, error) {
	h, ok := typeHandlers[dt.ID()]
	if !ok {
		return typeHandler{}, typeErrorf("unsupported Arrow type %s", dt)
	}
	return h, nil
}

// SupportedTypes returns the Arrow type tags the binding can convert.
func SupportedTypes() []arrow.Type {
	tags := make([]arrow.Type, 0, len(typeHandlers))
	for tag := range typeHandlers {
		tags = append(tags, tag)
	}
	return tags
}
