// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"go.starlark.net/starlark"
)

// Table exposes an arrow.Table to Starlark under a construct-only name.
// The wrapper holds one retained reference to the table, set at
// construction and released exactly once.
type Table struct {
	s        *Session
	name     string
	tbl      arrow.Table
	released bool
}

var (
	_ starlark.Value    = (*Table)(nil)
	_ starlark.HasAttrs = (*Table)(nil)
)

// Unwrap returns the underlying Arrow table without transferring ownership.
func (t *Table) Unwrap() arrow.Table { return t.tbl }

// Name returns the construct-only table name.
func (t *Table) Name() string { return t.name }

// Release drops the wrapper's reference. Idempotent.
func (t *Table) Release() {
	if t.released {
		return
	}
	t.released = true
	t.tbl.Release()
}

func (t *Table) native() (arrow.Table, error) {
	if t.released {
		return nil, valueErrorf("arrow.table already released")
	}
	return t.tbl, nil
}

func (t *Table) String() string {
	if t.released {
		return "arrow.table(released)"
	}
	return fmt.Sprintf("arrow.table<%s, cols=%d, rows=%d>", t.name, t.tbl.NumCols(), t.tbl.NumRows())
}

func (t *Table) Type() string          { return "arrow.table" }
func (t *Table) Freeze()               {}
func (t *Table) Truth() starlark.Bool  { return starlark.Bool(!t.released && t.tbl.NumRows() > 0) }
func (t *Table) Hash() (uint32, error) { return 0, typeErrorf("unhashable type: arrow.table") }

func (t *Table) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		if _, err := t.native(); err != nil {
			return nil, err
		}
		return starlark.String(t.name), nil
	case "schema":
		tbl, err := t.native()
		if err != nil {
			return nil, err
		}
		return &Schema{schema: tbl.Schema()}, nil
	case "num_columns":
		tbl, err := t.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt64(tbl.NumCols()), nil
	case "num_rows":
		tbl, err := t.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt64(tbl.NumRows()), nil
	case "column":
		return starlark.NewBuiltin("column", t.columnMethod), nil
	}
	return nil, nil
}

func (t *Table) AttrNames() []string {
	return []string{"column", "name", "num_columns", "num_rows", "schema"}
}

func (t *Table) columnMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	tbl, err := t.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("column", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if i < 0 || int64(i) >= tbl.NumCols() {
		return nil, indexErrorf("column index %d out of range [0, %d)", i, tbl.NumCols())
	}
	return t.s.WrapColumn(tbl.Column(i)), nil
}
