// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"go.starlark.net/starlark"
)

// asInt64 converts a Starlark value to an int64 within [min, max].
func asInt64(v starlark.Value, min, max int64) (int64, error) {
	i, ok := v.(starlark.Int)
	if !ok {
		return 0, typeErrorf("expected int, got %s", v.Type())
	}
	n, ok := i.Int64()
	if !ok || n < min || n > max {
		return 0, valueErrorf("integer %v out of range [%d, %d]", i, min, max)
	}
	return n, nil
}

// asUint64 converts a Starlark value to a uint64 within [0, max].
func asUint64(v starlark.Value, max uint64) (uint64, error) {
	i, ok := v.(starlark.Int)
	if !ok {
		return 0, typeErrorf("expected int, got %s", v.Type())
	}
	n, ok := i.Uint64()
	if !ok || n > max {
		return 0, valueErrorf("integer %v out of range [0, %d]", i, max)
	}
	return n, nil
}

// appendValue appends one Starlark value to an array builder. None always
// appends null; everything else dispatches through the handler registry.
func appendValue(b array.Builder, dt arrow.DataType, v starlark.Value) error {
	if v == starlark.None {
		b.AppendNull()
		return nil
	}
	h, err := handlerFor(dt)
	if err != nil {
		return err
	}
	return h.append(b, dt, v)
}

// valueAt reads element i of an array as a Starlark value. Null slots read
// as None. The index must already be validated by the caller.
func valueAt(arr arrow.Array, i int) (starlark.Value, error) {
	if arr.IsNull(i) {
		return starlark.None, nil
	}
	h, err := handlerFor(arr.DataType())
	if err != nil {
		return nil, err
	}
	return h.value(arr, i)
}

// buildArray builds a typed array from a Starlark iterable.
func buildArray(mem memory.Allocator, dt arrow.DataType, values starlark.Iterable) (arrow.Array, error) {
	if _, err := handlerFor(dt); err != nil {
		return nil, err
	}
	b := array.NewBuilder(mem, dt)
	defer b.Release()

	it := values.Iterate()
	defer it.Done()
	var v starlark.Value
	idx := 0
	for it.Next(&v) {
		if err := appendValue(b, dt, v); err != nil {
			return nil, valueErrorf("element %d: %v", idx, err)
		}
		idx++
	}
	return b.NewArray(), nil
}

// inferDataType picks an Arrow type from the first non-None value of an
// iterable. Nested values (lists, dicts) require an explicit type.
func inferDataType(values starlark.Iterable) (arrow.DataType, error) {
	it := values.Iterate()
	defer it.Done()
	var v starlark.Value
	for it.Next(&v) {
		if v == starlark.None {
			continue
		}
		switch v.(type) {
		case starlark.Bool:
			return arrow.FixedWidthTypes.Boolean, nil
		case starlark.Int:
			return arrow.PrimitiveTypes.Int64, nil
		case starlark.Float:
			return arrow.PrimitiveTypes.Float64, nil
		case starlark.String:
			return arrow.BinaryTypes.String, nil
		case starlark.Bytes:
			return arrow.BinaryTypes.Binary, nil
		default:
			return nil, typeErrorf("cannot infer Arrow type from %s; pass type= explicitly", v.Type())
		}
	}
	return nil, valueErrorf("cannot infer Arrow type from all-None values; pass type= explicitly")
}
