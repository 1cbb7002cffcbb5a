// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"errors"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestAsInt64(t *testing.T) {
	n, err := asInt64(starlark.MakeInt(42), math.MinInt8, math.MaxInt8)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = asInt64(starlark.MakeInt(200), math.MinInt8, math.MaxInt8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = asInt64(starlark.String("x"), math.MinInt8, math.MaxInt8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBinding))
}

func TestAsUint64(t *testing.T) {
	n, err := asUint64(starlark.MakeInt(7), math.MaxUint8)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)

	_, err = asUint64(starlark.MakeInt(-1), math.MaxUint8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestInferDataType(t *testing.T) {
	infer := func(vals ...starlark.Value) (arrow.DataType, error) {
		return inferDataType(starlark.NewList(vals))
	}

	dt, err := infer(starlark.True)
	require.NoError(t, err)
	assert.Equal(t, arrow.BOOL, dt.ID())

	dt, err = infer(starlark.None, starlark.MakeInt(1))
	require.NoError(t, err)
	assert.Equal(t, arrow.INT64, dt.ID())

	dt, err = infer(starlark.Float(1.5))
	require.NoError(t, err)
	assert.Equal(t, arrow.FLOAT64, dt.ID())

	dt, err = infer(starlark.String("s"))
	require.NoError(t, err)
	assert.Equal(t, arrow.STRING, dt.ID())

	dt, err = infer(starlark.Bytes("b"))
	require.NoError(t, err)
	assert.Equal(t, arrow.BINARY, dt.ID())

	_, err = infer(starlark.None)
	require.Error(t, err)

	_, err = infer(starlark.NewList(nil))
	require.Error(t, err)
}

func TestHandlerForUnsupported(t *testing.T) {
	_, err := handlerFor(arrow.FixedWidthTypes.Time32s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported Arrow type")
}

func TestBuildArrayNulls(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())

	vals := starlark.NewList([]starlark.Value{
		starlark.MakeInt(1), starlark.None, starlark.MakeInt(3),
	})
	arr, err := buildArray(mem, arrow.PrimitiveTypes.Int64, vals)
	require.NoError(t, err)

	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, int64(3), arr.(*array.Int64).Value(2))

	arr.Release()
	mem.AssertSize(t, 0)
}

func TestBuildArrayElementError(t *testing.T) {
	mem := memory.NewGoAllocator()

	vals := starlark.NewList([]starlark.Value{
		starlark.MakeInt(1), starlark.String("bad"),
	})
	_, err := buildArray(mem, arrow.PrimitiveTypes.Int64, vals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element 1")
}

func TestSupportedTypes(t *testing.T) {
	tags := SupportedTypes()
	assert.Contains(t, tags, arrow.INT64)
	assert.Contains(t, tags, arrow.STRING)
	assert.Contains(t, tags, arrow.LIST)
	assert.Contains(t, tags, arrow.STRUCT)
	assert.NotContains(t, tags, arrow.DECIMAL128)
}
