// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"go.starlark.net/starlark"
)

// Array exposes an arrow.Array to Starlark. The wrapper holds exactly one
// retained reference, taken when the wrapper is constructed and released
// exactly once by Release (normally via Session.Close). The reference is
// never swapped after construction.
type Array struct {
	s        *Session
	arr      arrow.Array
	released bool
}

var (
	_ starlark.Value     = (*Array)(nil)
	_ starlark.HasAttrs  = (*Array)(nil)
	_ starlark.Indexable = (*Array)(nil)
	_ starlark.Sequence  = (*Array)(nil)
)

// Unwrap returns the underlying Arrow array without transferring ownership.
func (a *Array) Unwrap() arrow.Array { return a.arr }

// Release drops the wrapper's reference. Idempotent.
func (a *Array) Release() {
	if a.released {
		return
	}
	a.released = true
	a.arr.Release()
}

func (a *Array) native() (arrow.Array, error) {
	if a.released {
		return nil, valueErrorf("arrow.array already released")
	}
	return a.arr, nil
}

func (a *Array) String() string {
	if a.released {
		return "arrow.array(released)"
	}
	return a.arr.String()
}

func (a *Array) Type() string          { return "arrow.array" }
func (a *Array) Freeze()               {}
func (a *Array) Truth() starlark.Bool  { return starlark.Bool(a.Len() > 0) }
func (a *Array) Hash() (uint32, error) { return 0, typeErrorf("unhashable type: arrow.array") }

// Len implements starlark.Sequence.
func (a *Array) Len() int {
	if a.released {
		return 0
	}
	return a.arr.Len()
}

// Index implements starlark.Indexable. The interpreter validates the index
// against Len before calling; element types outside the registry read as
// None here and report a proper error through the value method.
func (a *Array) Index(i int) starlark.Value {
	v, err := valueAt(a.arr, i)
	if err != nil {
		return starlark.None
	}
	return v
}

// Iterate implements starlark.Iterable.
func (a *Array) Iterate() starlark.Iterator { return &arrayIterator{a: a} }

type arrayIterator struct {
	a *Array
	i int
}

func (it *arrayIterator) Next(p *starlark.Value) bool {
	if it.i >= it.a.Len() {
		return false
	}
	*p = it.a.Index(it.i)
	it.i++
	return true
}

func (it *arrayIterator) Done() {}

func (a *Array) Attr(name string) (starlark.Value, error) {
	switch name {
	case "length":
		arr, err := a.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(arr.Len()), nil
	case "null_count":
		arr, err := a.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(arr.NullN()), nil
	case "data_type":
		arr, err := a.native()
		if err != nil {
			return nil, err
		}
		return &DataType{dt: arr.DataType()}, nil
	case "value":
		return starlark.NewBuiltin("value", a.valueMethod), nil
	case "is_null":
		return starlark.NewBuiltin("is_null", a.isNullMethod), nil
	case "is_valid":
		return starlark.NewBuiltin("is_valid", a.isValidMethod), nil
	case "slice":
		return starlark.NewBuiltin("slice", a.sliceMethod), nil
	case "to_list":
		return starlark.NewBuiltin("to_list", a.toListMethod), nil
	}
	return nil, nil
}

func (a *Array) AttrNames() []string {
	return []string{"data_type", "is_null", "is_valid", "length", "null_count", "slice", "to_list", "value"}
}

func (a *Array) checkIndex(arr arrow.Array, i int) error {
	if i < 0 || i >= arr.Len() {
		return indexErrorf("array index %d out of range [0, %d)", i, arr.Len())
	}
	return nil
}

func (a *Array) valueMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	arr, err := a.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("value", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if err := a.checkIndex(arr, i); err != nil {
		return nil, err
	}
	return valueAt(arr, i)
}

func (a *Array) isNullMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	arr, err := a.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("is_null", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if err := a.checkIndex(arr, i); err != nil {
		return nil, err
	}
	return starlark.Bool(arr.IsNull(i)), nil
}

func (a *Array) isValidMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	arr, err := a.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("is_valid", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if err := a.checkIndex(arr, i); err != nil {
		return nil, err
	}
	return starlark.Bool(arr.IsValid(i)), nil
}

func (a *Array) sliceMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	arr, err := a.native()
	if err != nil {
		return nil, err
	}
	var offset, length int
	if err := starlark.UnpackArgs("slice", args, kwargs, "offset", &offset, "length", &length); err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 || offset+length > arr.Len() {
		return nil, indexErrorf("slice [%d, %d) out of range [0, %d)", offset, offset+length, arr.Len())
	}
	sl := array.NewSlice(arr, int64(offset), int64(offset+length))
	defer sl.Release()
	return a.s.WrapArray(sl), nil
}

func (a *Array) toListMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	arr, err := a.native()
	if err != nil {
		return nil, err
	}
	if err := starlark.UnpackPositionalArgs("to_list", args, kwargs, 0); err != nil {
		return nil, err
	}
	elems := make([]starlark.Value, 0, arr.Len())
	for i := range arr.Len() {
		v, err := valueAt(arr, i)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return starlark.NewList(elems), nil
}
