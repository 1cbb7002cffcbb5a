// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"go.starlark.net/starlark"
)

// RecordBatch exposes an arrow.Record to Starlark. One retained
// reference, released exactly once.
type RecordBatch struct {
	s        *Session
	batch    arrow.Record
	released bool
}

var (
	_ starlark.Value    = (*RecordBatch)(nil)
	_ starlark.HasAttrs = (*RecordBatch)(nil)
)

// Unwrap returns the underlying record batch without transferring
// ownership.
func (r *RecordBatch) Unwrap() arrow.Record { return r.batch }

// Release drops the wrapper's reference. Idempotent.
func (r *RecordBatch) Release() {
	if r.released {
		return
	}
	r.released = true
	r.batch.Release()
}

func (r *RecordBatch) native() (arrow.Record, error) {
	if r.released {
		return nil, valueErrorf("arrow.record_batch already released")
	}
	return r.batch, nil
}

func (r *RecordBatch) String() string {
	if r.released {
		return "arrow.record_batch(released)"
	}
	return fmt.Sprintf("arrow.record_batch<cols=%d, rows=%d>", r.batch.NumCols(), r.batch.NumRows())
}

func (r *RecordBatch) Type() string         { return "arrow.record_batch" }
func (r *RecordBatch) Freeze()              {}
func (r *RecordBatch) Truth() starlark.Bool { return starlark.Bool(!r.released && r.batch.NumRows() > 0) }
func (r *RecordBatch) Hash() (uint32, error) {
	return 0, typeErrorf("unhashable type: arrow.record_batch")
}

func (r *RecordBatch) Attr(name string) (starlark.Value, error) {
	switch name {
	case "num_rows":
		batch, err := r.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt64(batch.NumRows()), nil
	case "num_columns":
		batch, err := r.native()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt64(batch.NumCols()), nil
	case "schema":
		batch, err := r.native()
		if err != nil {
			return nil, err
		}
		return &Schema{schema: batch.Schema()}, nil
	case "column":
		return starlark.NewBuiltin("column", r.columnMethod), nil
	case "column_name":
		return starlark.NewBuiltin("column_name", r.columnNameMethod), nil
	case "slice":
		return starlark.NewBuiltin("slice", r.sliceMethod), nil
	}
	return nil, nil
}

func (r *RecordBatch) AttrNames() []string {
	return []string{"column", "column_name", "num_columns", "num_rows", "schema", "slice"}
}

func (r *RecordBatch) checkColumn(batch arrow.Record, i int) error {
	if i < 0 || int64(i) >= batch.NumCols() {
		return indexErrorf("column index %d out of range [0, %d)", i, batch.NumCols())
	}
	return nil
}

func (r *RecordBatch) columnMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	batch, err := r.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("column", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if err := r.checkColumn(batch, i); err != nil {
		return nil, err
	}
	return r.s.WrapArray(batch.Column(i)), nil
}

func (r *RecordBatch) columnNameMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	batch, err := r.native()
	if err != nil {
		return nil, err
	}
	var i int
	if err := starlark.UnpackPositionalArgs("column_name", args, kwargs, 1, &i); err != nil {
		return nil, err
	}
	if err := r.checkColumn(batch, i); err != nil {
		return nil, err
	}
	return starlark.String(batch.ColumnName(i)), nil
}

func (r *RecordBatch) sliceMethod(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	batch, err := r.native()
	if err != nil {
		return nil, err
	}
	var offset, length int
	if err := starlark.UnpackArgs("slice", args, kwargs, "offset", &offset, "length", &length); err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 || int64(offset+length) > batch.NumRows() {
		return nil, indexErrorf("slice [%d, %d) out of range [0, %d)", offset, offset+length, batch.NumRows())
	}
	sl := batch.NewSlice(int64(offset), int64(offset+length))
	defer sl.Release()
	return r.s.WrapRecordBatch(sl), nil
}
