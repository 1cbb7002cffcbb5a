// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Query-farm/starrow/starrow"
)

func evalOK(t *testing.T, sess *starrow.Session, expr string) string {
	t.Helper()
	v, err := sess.Eval(expr, nil)
	require.NoError(t, err, expr)
	return v.String()
}

func TestArrayBasics(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	script := `
a = arrow.array([1, 2, None, 4], arrow.int64())
length = a.length
nulls = a.null_count
first = a.value(0)
third_null = a.is_null(2)
third_valid = a.is_valid(2)
as_list = a.to_list()
`
	globals, err := sess.Run("array.star", script, nil)
	require.NoError(t, err)

	assert.Equal(t, "4", globals["length"].String())
	assert.Equal(t, "1", globals["nulls"].String())
	assert.Equal(t, "1", globals["first"].String())
	assert.Equal(t, "True", globals["third_null"].String())
	assert.Equal(t, "False", globals["third_valid"].String())
	assert.Equal(t, "[1, 2, None, 4]", globals["as_list"].String())
}

func TestArrayIndexAndIteration(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	assert.Equal(t, "20",
		evalOK(t, sess, `arrow.array([10, 20, 30], arrow.int64())[1]`))
	assert.Equal(t, "60",
		evalOK(t, sess, `sum([x for x in arrow.array([10, 20, 30], arrow.int64())])`))
	assert.Equal(t, "3",
		evalOK(t, sess, `len(arrow.array([10, 20, 30], arrow.int64()))`))
}

func TestArrayBoundsChecked(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	_, err := sess.Eval(`arrow.array([1, 2], arrow.int64()).value(5)`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IndexError")
	assert.True(t, errors.Is(err, starrow.ErrBinding))

	_, err = sess.Eval(`arrow.array([1, 2], arrow.int64()).value(-1)`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IndexError")
}

func TestArrayValueRangeChecked(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	_, err := sess.Eval(`arrow.array([300], arrow.int8())`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = sess.Eval(`arrow.array([-1], arrow.uint32())`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = sess.Eval(`arrow.array(["text"], arrow.int64())`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypeError")
}

func TestArraySlice(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	script := `
a = arrow.array([1, 2, 3, 4, 5], arrow.int64())
s = a.slice(1, 3)
vals = s.to_list()
`
	globals, err := sess.Run("slice.star", script, nil)
	require.NoError(t, err)
	assert.Equal(t, "[2, 3, 4]", globals["vals"].String())

	_, err = sess.Eval(`arrow.array([1, 2], arrow.int64()).slice(1, 5)`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IndexError")
}

func TestArrayTypeInference(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	cases := []struct {
		expr string
		want string
	}{
		{`arrow.array([True, False]).data_type.name`, `"bool"`},
		{`arrow.array([1, 2]).data_type.name`, `"int64"`},
		{`arrow.array([1.5]).data_type.name`, `"float64"`},
		{`arrow.array(["a", "b"]).data_type.name`, `"utf8"`},
		{`arrow.array([None, 7]).data_type.name`, `"int64"`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, evalOK(t, sess, tc.expr), tc.expr)
	}

	_, err := sess.Eval(`arrow.array([None, None])`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass type=")

	_, err = sess.Eval(`arrow.array([[1, 2]])`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass type=")
}

func TestListArray(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	script := `
a = arrow.array([[1, 2], None, [3]], arrow.list_of(arrow.int64()))
vals = a.to_list()
nulls = a.null_count
`
	globals, err := sess.Run("list.star", script, nil)
	require.NoError(t, err)
	assert.Equal(t, "[[1, 2], None, [3]]", globals["vals"].String())
	assert.Equal(t, "1", globals["nulls"].String())
}

func TestStructArray(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	script := `
ty = arrow.struct_of([arrow.field("x", arrow.int64()), arrow.field("y", arrow.string())])
a = arrow.array([{"x": 1, "y": "one"}, {"x": 2, "y": "two"}], ty)
first = a.value(0)
x0 = first["x"]
y1 = a.value(1)["y"]
`
	globals, err := sess.Run("struct.star", script, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", globals["x0"].String())
	assert.Equal(t, `"two"`, globals["y1"].String())
}

func TestBinaryAndFloatArrays(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	assert.Equal(t, `b"\x01\x02"`,
		evalOK(t, sess, `arrow.array([b"\x01\x02"], arrow.binary()).value(0)`))
	assert.Equal(t, "1.5",
		evalOK(t, sess, `arrow.array([1.5], arrow.float32()).value(0)`))
	assert.Equal(t, "2.0",
		evalOK(t, sess, `arrow.array([2.0], arrow.float16()).value(0)`))
}

func TestChunkedArray(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	script := `
c = arrow.chunked_array([
    arrow.array([1, 2], arrow.int64()),
    arrow.array([3], arrow.int64()),
])
length = c.length
n_chunks = c.num_chunks
second = c.value(1)
third = c.value(2)
`
	globals, err := sess.Run("chunked.star", script, nil)
	require.NoError(t, err)
	assert.Equal(t, "3", globals["length"].String())
	assert.Equal(t, "2", globals["n_chunks"].String())
	assert.Equal(t, "2", globals["second"].String())
	assert.Equal(t, "3", globals["third"].String())

	_, err = sess.Eval(`arrow.chunked_array([arrow.array([1], arrow.int64()), arrow.array(["x"], arrow.string())])`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypeError")
}
