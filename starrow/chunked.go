// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"go.starlark.net/starlark"
)

// ChunkedArray exposes an *arrow.Chunked to Starlark. One retained
// reference, released exactly once.
type ChunkedArray struct {
	s        *Session
	chunked  *arrow.Chunked
	released bool
}

var (
	_ starlark.Value    = (*ChunkedArray)(nil)
	_ starlark.HasAttrs = (*ChunkedArray)(nil)
)

// Unwrap returns the underlying chunked array without transferring
// ownership.
func (c *ChunkedArray) Unwrap() *arrow.Chunked { return c.chunked }

// Release drops the wrapper's reference. Idempotent.
func (c *ChunkedArray) Release() {
	if c.released {
		return
	}
	c.released = true
	c.chunked.Release()
}

func (c *ChunkedArray) native() (*arrow.Chunked, error) {
	if c.released {
		return nil, valueErrorf("arrow.chunked_array already released")
	}
	return c.chunked, nil
}

func (c *ChunkedArray) String() string {
	if c.released {
		return "arrow.chunked_array(released)"
	}
	return fmt.Sprintf("arrow.chunked_array<%s, chunks=%d, len=%d>",
		c.chunked.DataType(), len(c.chunked.Chunks()), c.chunked.Len())
}

func (c *ChunkedArray) Type() string         { return "arrow.chunked_array" }
func (c *ChunkedArray) Freeze()              {}
func (c *ChunkedArray) Truth() starlark.Bool { return starlark.Bool(!c.released && c.chunked.Len() > 0) }
func (c *ChunkedArray) Hash() (uint32, error) {
	return 0, typeErrorf("unhashable type: arrow.chunked_array")
}

func (c *ChunkedArray) Attr(name string) (starlark.Value, error) {
	switch name {
	case "length":
		ch, err := c.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(ch.Len()), nil
	case "null_count":
		ch, err := c.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(ch.NullN()), nil
	case "num_chunks":
		ch, err := c.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(len(ch.Chunks())), nil
	case "data_type":
		ch, err := c.native()
		if err != nil {
			return nil, err
		}
		return &DataType{dt: ch.DataType()}, nil
	case "chunks":
		ch, err := c.native()
		if err != nil {
			return nil, err
		}
		chunks := make([]starlark.Value, len(ch.Chunks()))
		for i, arr := range ch.Chunks() {
			chunks[i] = c.s.WrapArray(arr)
		}
		return starlark.NewList(chunks), nil
	case "chunk":
		return starlark.NewBuiltin("chunk", c.chunkMethod), nil
	case "value":
		return starlark.NewBuiltin("value", c.valueMethod), nil
	}
	return nil, nil
}

func (c *ChunkedArray) AttrNames() []string {
	return []string{"chunk", "chunks", "data_type", "length", "null_count", "num_chunks", "value"}
}

func (c *ChunkedArray) chunkMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ch, err := c.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("chunk", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(ch.Chunks()) {
		return nil, indexErrorf("chunk index %d out of range [0, %d)", i, len(ch.Chunks()))
	}
	return c.s.WrapArray(ch.Chunks()[i]), nil
}

// valueMethod reads element i addressed across all chunks.
func (c *ChunkedArray) valueMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ch, err := c.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("value", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if i < 0 || i >= ch.Len() {
		return nil, indexErrorf("chunked array index %d out of range [0, %d)", i, ch.Len())
	}
	for _, arr := range ch.Chunks() {
		if i < arr.Len() {
			return valueAt(arr, i)
		}
		i -= arr.Len()
	}
	return nil, indexErrorf("chunked array index out of range")
}

// Column exposes an *arrow.Column to Starlark: a schema field paired with
// its chunked data. One retained reference, released exactly once.
type Column struct {
	s        *Session
	col      *arrow.Column
	released bool
}

var (
	_ starlark.Value    = (*Column)(nil)
	_ starlark.HasAttrs = (*Column)(nil)
)

// Unwrap returns the underlying column without transferring ownership.
func (c *Column) Unwrap() *arrow.Column { return c.col }

// Release drops the wrapper's reference. Idempotent.
func (c *Column) Release() {
	if c.released {
		return
	}
	c.released = true
	c.col.Release()
}

func (c *Column) native() (*arrow.Column, error) {
	if c.released {
		return nil, valueErrorf("arrow.column already released")
	}
	return c.col, nil
}

func (c *Column) String() string {
	if c.released {
		return "arrow.column(released)"
	}
	return fmt.Sprintf("arrow.column<%s: %s, len=%d>", c.col.Name(), c.col.DataType(), c.col.Len())
}

func (c *Column) Type() string          { return "arrow.column" }
func (c *Column) Freeze()               {}
func (c *Column) Truth() starlark.Bool  { return starlark.Bool(!c.released && c.col.Len() > 0) }
func (c *Column) Hash() (uint32, error) { return 0, typeErrorf("unhashable type: arrow.column") }

func (c *Column) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		col, err := c.native()
		if err != nil {
			return nil, err
		}
		return starlark.String(col.Name()), nil
	case "data_type":
		col, err := c.native()
		if err != nil {
			return nil, err
		}
		return &DataType{dt: col.DataType()}, nil
	case "field":
		col, err := c.native()
		if err != nil {
			return nil, err
		}
		return &Field{field: col.Field()}, nil
	case "length":
		col, err := c.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(col.Len()), nil
	case "null_count":
		col, err := c.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(col.NullN()), nil
	case "data":
		col, err := c.native()
		if err != nil {
			return nil, err
		}
		return c.s.WrapChunked(col.Data()), nil
	}
	return nil, nil
}

func (c *Column) AttrNames() []string {
	return []string{"data", "data_type", "field", "length", "name", "null_count"}
}
