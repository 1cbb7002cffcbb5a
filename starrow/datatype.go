// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"github.com/apache/arrow-go/v18/arrow"

	"go.starlark.net/starlark"
)

// DataType exposes an arrow.DataType to Starlark. The underlying data type
// is set once at construction; data types are immutable and not reference
// counted, so there is nothing to release.
type DataType struct {
	dt arrow.DataType
}

var (
	_ starlark.Value    = (*DataType)(nil)
	_ starlark.HasAttrs = (*DataType)(nil)
)

// Unwrap returns the underlying Arrow data type.
func (d *DataType) Unwrap() arrow.DataType { return d.dt }

func (d *DataType) String() string        { return d.dt.String() }
func (d *DataType) Type() string          { return "arrow.data_type" }
func (d *DataType) Freeze()               {}
func (d *DataType) Truth() starlark.Bool  { return starlark.True }
func (d *DataType) Hash() (uint32, error) { return starlark.String(d.dt.Fingerprint()).Hash() }

func (d *DataType) Attr(name string) (starlark.Value, error) {
	switch name {
	case "id":
		return starlark.MakeInt(int(d.dt.ID())), nil
	case "name":
		return starlark.String(d.dt.Name()), nil
	case "bit_width":
		if fw, ok := d.dt.(arrow.FixedWidthDataType); ok {
			return starlark.MakeInt(fw.BitWidth()), nil
		}
		return starlark.None, nil
	case "equal":
		return starlark.NewBuiltin("equal", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var other *DataType
			if err := starlark.UnpackPositionalArgs("equal", args, kwargs, 1, &other); err != nil {
				return nil, err
			}
			return starlark.Bool(arrow.TypeEqual(d.dt, other.dt)), nil
		}), nil
	}
	return nil, nil
}

func (d *DataType) AttrNames() []string {
	return []string{"bit_width", "equal", "id", "name"}
}
