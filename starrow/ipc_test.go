// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/Query-farm/starrow/starrow"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func buildTestTable(t *testing.T, sess *starrow.Session) *starrow.Table {
	t.Helper()
	globals, err := sess.Run("build.star", `
sch = arrow.schema([
    arrow.field("id", arrow.int64()),
    arrow.field("label", arrow.string()),
])
tbl = arrow.table("samples", sch, [
    arrow.column(sch.field(0), arrow.array([1, 2, None, 4], arrow.int64())),
    arrow.column(sch.field(1), arrow.array(["a", "b", "c", "d"], arrow.string())),
])
`, nil)
	require.NoError(t, err)
	return globals["tbl"].(*starrow.Table)
}

func TestIPCRoundTrip(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	tbl := buildTestTable(t, sess)

	var buf bytes.Buffer
	require.NoError(t, starrow.WriteTable(&buf, tbl.Unwrap()))
	assert.False(t, bytes.HasPrefix(buf.Bytes(), zstdMagic))

	back, err := starrow.ReadTable(&buf)
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, int64(2), back.NumCols())
	assert.Equal(t, int64(4), back.NumRows())
	assert.True(t, back.Schema().Equal(tbl.Unwrap().Schema()))
	assert.Equal(t, int(1), back.Column(0).NullN())
}

func TestIPCRoundTripZstd(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	tbl := buildTestTable(t, sess)

	var buf bytes.Buffer
	require.NoError(t, starrow.WriteTable(&buf, tbl.Unwrap(),
		starrow.WithCompression(starrow.CompressionZstd)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), zstdMagic))

	back, err := starrow.ReadTable(&buf)
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, int64(4), back.NumRows())
	assert.True(t, back.Schema().Equal(tbl.Unwrap().Schema()))
}

func TestIPCChunkSize(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	tbl := buildTestTable(t, sess)

	var buf bytes.Buffer
	require.NoError(t, starrow.WriteTable(&buf, tbl.Unwrap(), starrow.WithChunkSize(2)))

	back, err := starrow.ReadTable(&buf)
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, int64(4), back.NumRows())
	assert.Equal(t, 2, len(back.Column(0).Data().Chunks()))
}

func TestIPCFromStarlark(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	script := `
sch = arrow.schema([arrow.field("x", arrow.float64())])
tbl = arrow.table("xs", sch, [
    arrow.column(sch.field(0), arrow.array([1.5, None, 3.0], arrow.float64())),
])
plain = arrow.table_to_ipc(tbl)
packed = arrow.table_to_ipc(tbl, compression="zstd")
back = arrow.table_from_ipc(packed, name="xs")
rows = back.num_rows
name = back.name
vals = back.column(0).data.chunk(0).to_list()
`
	globals, err := sess.Run("ipc.star", script, nil)
	require.NoError(t, err)

	assert.Equal(t, "3", globals["rows"].String())
	assert.Equal(t, `"xs"`, globals["name"].String())
	assert.Equal(t, "[1.5, None, 3.0]", globals["vals"].String())

	plain := []byte(globals["plain"].(starlark.Bytes))
	packed := []byte(globals["packed"].(starlark.Bytes))
	assert.False(t, bytes.HasPrefix(plain, zstdMagic))
	assert.True(t, bytes.HasPrefix(packed, zstdMagic))

	_, err = sess.Eval(`arrow.table_to_ipc(
		arrow.table("t",
			arrow.schema([arrow.field("x", arrow.int64())]),
			[arrow.column(arrow.field("x", arrow.int64()), arrow.array([1], arrow.int64()))]),
		compression="lz77")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown compression")
}

func TestIPCBadPayload(t *testing.T) {
	_, err := starrow.ReadTable(bytes.NewReader([]byte("not an arrow stream")))
	require.Error(t, err)
}
