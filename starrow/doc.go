// Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package starrow exposes Apache Arrow's type system and container
// abstractions (data types, arrays, chunked arrays, columns, schemas,
// tables, and record batches) to Starlark, so scripts can construct and
// introspect columnar data without writing Go code. The columnar heavy
// lifting (memory layout, buffer management, vectorized operations) is
// entirely delegated to the wrapped Arrow library; this package is a thin
// forwarding layer translating between Arrow values and Starlark's boxed
// value representation.
//
// # Wrappers
//
// Each Starlark value of type "arrow.*" holds exactly one retained
// reference to the corresponding Arrow object, taken at construction and
// released exactly once. Wrappers never swap their underlying object.
// Accessors are read-only: they unwrap the stored reference, invoke one
// Arrow read operation, and re-wrap object results ([Session] tracks every
// wrapper created so ownership stays with the session).
//
// # Sessions
//
// A [Session] owns the allocator and the lifetime of every wrapper its
// module creates:
//
//	sess := starrow.NewSession()
//	defer sess.Close()
//	globals, err := sess.Run("script.star", nil, nil)
//
// Inside the script, the module is predeclared as "arrow":
//
//	sch = arrow.schema([arrow.field("x", arrow.int64())])
//	col = arrow.column(sch.field(0), arrow.array([1, 2, 3], arrow.int64()))
//	tbl = arrow.table("points", sch, [col])
//
// # Checked boundary
//
// The binding validates indexes, argument types, and schema/column
// agreement before forwarding to Arrow, because arrow-go reports misuse by
// panicking, which would abort an embedding interpreter. Failures surface
// as [*BindingError] values ("TypeError", "IndexError", "ValueError")
// through the normal Starlark error channel.
//
// # Conversion registry
//
// Scalar and nested conversions dispatch through a static registry keyed
// by Arrow type tag ([SupportedTypes]); integer widths 8-64 signed and
// unsigned, float16/32/64, boolean, string, binary, dates, timestamps,
// lists, and structs are covered. Out-of-range integers are rejected at
// the boundary rather than truncated.
//
// # IPC
//
// [WriteTable] and [ReadTable] move tables through Arrow IPC streams, with
// optional zstd framing (auto-detected on read). The module exposes the
// same as arrow.table_to_ipc / arrow.table_from_ipc.
package starrow
