// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/Query-farm/starrow/starrow"
)

func benchTable(b *testing.B, sess *starrow.Session, rows int) *starrow.Table {
	b.Helper()
	vals := make([]string, rows)
	for i := range rows {
		vals[i] = fmt.Sprintf("%d", i)
	}
	script := fmt.Sprintf(`
sch = arrow.schema([arrow.field("n", arrow.int64())])
tbl = arrow.table("bench", sch, [
    arrow.column(sch.field(0), arrow.array([%s], arrow.int64())),
])
`, strings.Join(vals, ", "))
	globals, err := sess.Run("bench.star", script, nil)
	if err != nil {
		b.Fatal(err)
	}
	return globals["tbl"].(*starrow.Table)
}

func BenchmarkArrayBuild(b *testing.B) {
	sess := starrow.NewSession()
	defer sess.Close()

	for b.Loop() {
		v, err := sess.Eval(`arrow.array(range(1000), arrow.int64())`, nil)
		if err != nil {
			b.Fatal(err)
		}
		v.(*starrow.Array).Release()
	}
}

func BenchmarkArrayScan(b *testing.B) {
	sess := starrow.NewSession()
	defer sess.Close()

	for b.Loop() {
		if _, err := sess.Eval(`sum([x for x in arrow.array(range(1000), arrow.int64())])`, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIPCWrite(b *testing.B) {
	sess := starrow.NewSession()
	defer sess.Close()
	tbl := benchTable(b, sess, 1000)

	for b.Loop() {
		var buf bytes.Buffer
		if err := starrow.WriteTable(&buf, tbl.Unwrap()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIPCWriteZstd(b *testing.B) {
	sess := starrow.NewSession()
	defer sess.Close()
	tbl := benchTable(b, sess, 1000)

	for b.Loop() {
		var buf bytes.Buffer
		if err := starrow.WriteTable(&buf, tbl.Unwrap(), starrow.WithCompression(starrow.CompressionZstd)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIPCRoundTrip(b *testing.B) {
	sess := starrow.NewSession()
	defer sess.Close()
	tbl := benchTable(b, sess, 1000)

	var buf bytes.Buffer
	if err := starrow.WriteTable(&buf, tbl.Unwrap()); err != nil {
		b.Fatal(err)
	}
	payload := buf.Bytes()

	for b.Loop() {
		back, err := starrow.ReadTable(bytes.NewReader(payload))
		if err != nil {
			b.Fatal(err)
		}
		back.Release()
	}
}
