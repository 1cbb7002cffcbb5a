// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"go.starlark.net/starlarkstruct"
)

// releaser is implemented by wrappers holding a reference-counted Arrow
// object.
type releaser interface {
	Release()
}

// Session owns the allocator and the lifetime of every wrapper its module
// builtins create. Wrapping an Arrow object takes one additional reference;
// Close releases every outstanding reference the session still tracks.
//
// A Session and the values it creates are confined to a single goroutine,
// matching Starlark thread semantics. The underlying Arrow objects follow
// whatever thread-safety the Arrow library itself guarantees.
type Session struct {
	mem     memory.Allocator
	hook    CallHook
	tracked []releaser
	module  *starlarkstruct.Module
	closed  bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithAllocator sets the Arrow allocator used for arrays the session builds.
func WithAllocator(mem memory.Allocator) SessionOption {
	return func(s *Session) { s.mem = mem }
}

// WithCallHook installs an observability hook called around every module
// builtin invocation.
func WithCallHook(hook CallHook) SessionOption {
	return func(s *Session) { s.hook = hook }
}

// NewSession creates a session with the default Go allocator.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{mem: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allocator returns the session's Arrow allocator.
func (s *Session) Allocator() memory.Allocator { return s.mem }

// Close releases every wrapper the session created, newest first. Safe to
// call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.tracked) - 1; i >= 0; i-- {
		s.tracked[i].Release()
	}
	s.tracked = nil
}

func (s *Session) track(r releaser) {
	s.tracked = append(s.tracked, r)
}

// WrapDataType wraps an Arrow data type. Data types are not reference
// counted, so no ownership changes hands.
func (s *Session) WrapDataType(dt arrow.DataType) *DataType {
	return &DataType{dt: dt}
}

// WrapField wraps an Arrow schema field.
func (s *Session) WrapField(f arrow.Field) *Field {
	return &Field{field: f}
}

// WrapSchema wraps an Arrow schema.
func (s *Session) WrapSchema(sc *arrow.Schema) *Schema {
	return &Schema{schema: sc}
}

// WrapArray wraps an Arrow array, retaining one reference for the wrapper.
func (s *Session) WrapArray(arr arrow.Array) *Array {
	arr.Retain()
	a := &Array{s: s, arr: arr}
	s.track(a)
	return a
}

// WrapChunked wraps a chunked array, retaining one reference.
func (s *Session) WrapChunked(c *arrow.Chunked) *ChunkedArray {
	c.Retain()
	w := &ChunkedArray{s: s, chunked: c}
	s.track(w)
	return w
}

// WrapColumn wraps a column, retaining one reference.
func (s *Session) WrapColumn(c *arrow.Column) *Column {
	c.Retain()
	w := &Column{s: s, col: c}
	s.track(w)
	return w
}

// WrapTable wraps a table under the given name, retaining one reference.
// The name is fixed at construction and cannot be changed afterwards.
func (s *Session) WrapTable(name string, t arrow.Table) *Table {
	t.Retain()
	w := &Table{s: s, name: name, tbl: t}
	s.track(w)
	return w
}

// WrapRecordBatch wraps a record batch, retaining one reference.
func (s *Session) WrapRecordBatch(b arrow.Record) *RecordBatch {
	b.Retain()
	w := &RecordBatch{s: s, batch: b}
	s.track(w)
	return w
}
