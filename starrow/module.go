// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// ModuleName is the name the arrow module is registered under.
const ModuleName = "arrow"

// Module returns the Starlark module exposing the Arrow binding. The module
// is built once per session; all values it creates are tracked by the
// session and released on Session.Close.
func (s *Session) Module() *starlarkstruct.Module {
	if s.module != nil {
		return s.module
	}

	members := starlark.StringDict{}

	// Primitive data type constructors. Each entry registers one wrapper
	// type constructor; the Arrow type tag is the runtime identifier.
	primitives := []struct {
		name string
		dt   arrow.DataType
	}{
		{"null", arrow.Null},
		{"bool", arrow.FixedWidthTypes.Boolean},
		{"int8", arrow.PrimitiveTypes.Int8},
		{"int16", arrow.PrimitiveTypes.Int16},
		{"int32", arrow.PrimitiveTypes.Int32},
		{"int64", arrow.PrimitiveTypes.Int64},
		{"uint8", arrow.PrimitiveTypes.Uint8},
		{"uint16", arrow.PrimitiveTypes.Uint16},
		{"uint32", arrow.PrimitiveTypes.Uint32},
		{"uint64", arrow.PrimitiveTypes.Uint64},
		{"float16", arrow.FixedWidthTypes.Float16},
		{"float32", arrow.PrimitiveTypes.Float32},
		{"float64", arrow.PrimitiveTypes.Float64},
		{"string", arrow.BinaryTypes.String},
		{"binary", arrow.BinaryTypes.Binary},
		{"date32", arrow.PrimitiveTypes.Date32},
		{"date64", arrow.PrimitiveTypes.Date64},
	}
	for _, p := range primitives {
		dt := p.dt
		members[p.name] = s.builtin(p.name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(p.name, args, kwargs, 0); err != nil {
				return nil, err
			}
			return s.WrapDataType(dt), nil
		})
	}

	members["timestamp"] = s.builtin("timestamp", s.timestampBuiltin)
	members["list_of"] = s.builtin("list_of", s.listOfBuiltin)
	members["struct_of"] = s.builtin("struct_of", s.structOfBuiltin)
	members["field"] = s.builtin("field", s.fieldBuiltin)
	members["schema"] = s.builtin("schema", s.schemaBuiltin)
	members["array"] = s.builtin("array", s.arrayBuiltin)
	members["chunked_array"] = s.builtin("chunked_array", s.chunkedArrayBuiltin)
	members["column"] = s.builtin("column", s.columnBuiltin)
	members["table"] = s.builtin("table", s.tableBuiltin)
	members["table_from_batches"] = s.builtin("table_from_batches", s.tableFromBatchesBuiltin)
	members["record_batch"] = s.builtin("record_batch", s.recordBatchBuiltin)
	members["table_to_ipc"] = s.builtin("table_to_ipc", s.tableToIPCBuiltin)
	members["table_from_ipc"] = s.builtin("table_from_ipc", s.tableFromIPCBuiltin)

	s.module = &starlarkstruct.Module{Name: ModuleName, Members: members}
	return s.module
}

// builtin wraps a builtin implementation with the session's liveness check
// and observability hook.
func (s *Session) builtin(name string, impl func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(th *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if s.closed {
			return nil, valueErrorf("session is closed")
		}
		if s.hook == nil {
			return impl(th, b, args, kwargs)
		}
		info := CallInfo{Module: ModuleName, Builtin: name}
		token := s.hook.OnCallStart(info)
		v, err := impl(th, b, args, kwargs)
		s.hook.OnCallEnd(token, info, err)
		return v, err
	})
}

func (s *Session) timestampBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	unit := "us"
	tz := ""
	if err := starlark.UnpackArgs("timestamp", args, kwargs, "unit?", &unit, "tz?", &tz); err != nil {
		return nil, err
	}
	var u arrow.TimeUnit
	switch unit {
	case "s":
		u = arrow.Second
	case "ms":
		u = arrow.Millisecond
	case "us":
		u = arrow.Microsecond
	case "ns":
		u = arrow.Nanosecond
	default:
		return nil, valueErrorf("unknown timestamp unit %q", unit)
	}
	return s.WrapDataType(&arrow.TimestampType{Unit: u, TimeZone: tz}), nil
}

func (s *Session) listOfBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var elem *DataType
	if err := starlark.UnpackPositionalArgs("list_of", args, kwargs, 1, &elem); err != nil {
		return nil, err
	}
	return s.WrapDataType(arrow.ListOf(elem.dt)), nil
}

func (s *Session) structOfBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fields starlark.Value
	if err := starlark.UnpackPositionalArgs("struct_of", args, kwargs, 1, &fields); err != nil {
		return nil, err
	}
	fs, err := fieldsFrom(fields)
	if err != nil {
		return nil, err
	}
	return s.WrapDataType(arrow.StructOf(fs...)), nil
}

func (s *Session) fieldBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var dt *DataType
	nullable := true
	if err := starlark.UnpackArgs("field", args, kwargs, "name", &name, "type", &dt, "nullable?", &nullable); err != nil {
		return nil, err
	}
	return s.WrapField(arrow.Field{Name: name, Type: dt.dt, Nullable: nullable}), nil
}

func (s *Session) schemaBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fields starlark.Value
	var metadata *starlark.Dict
	if err := starlark.UnpackArgs("schema", args, kwargs, "fields", &fields, "metadata??", &metadata); err != nil {
		return nil, err
	}
	fs, err := fieldsFrom(fields)
	if err != nil {
		return nil, err
	}
	var md *arrow.Metadata
	if metadata != nil {
		m := make(map[string]string, metadata.Len())
		for _, item := range metadata.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, typeErrorf("metadata key must be string, got %s", item[0].Type())
			}
			v, ok := item[1].(starlark.String)
			if !ok {
				return nil, typeErrorf("metadata value must be string, got %s", item[1].Type())
			}
			m[string(k)] = string(v)
		}
		built := arrow.MetadataFrom(m)
		md = &built
	}
	return s.WrapSchema(arrow.NewSchema(fs, md)), nil
}

func (s *Session) arrayBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var values starlark.Value
	var dt *DataType
	if err := starlark.UnpackArgs("array", args, kwargs, "values", &values, "type??", &dt); err != nil {
		return nil, err
	}
	iter, ok := values.(starlark.Iterable)
	if !ok {
		return nil, typeErrorf("values must be iterable, got %s", values.Type())
	}
	var elemType arrow.DataType
	if dt != nil {
		elemType = dt.dt
	} else {
		inferred, err := inferDataType(iter)
		if err != nil {
			return nil, err
		}
		elemType = inferred
	}
	arr, err := buildArray(s.mem, elemType, iter)
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	return s.WrapArray(arr), nil
}

func (s *Session) chunkedArrayBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var chunks starlark.Value
	if err := starlark.UnpackPositionalArgs("chunked_array", args, kwargs, 1, &chunks); err != nil {
		return nil, err
	}
	arrs, err := arraysFrom(chunks)
	if err != nil {
		return nil, err
	}
	if len(arrs) == 0 {
		return nil, valueErrorf("chunked_array requires at least one chunk")
	}
	dt := arrs[0].DataType()
	for i, arr := range arrs {
		if !arrow.TypeEqual(arr.DataType(), dt) {
			return nil, typeErrorf("chunk %d has type %s, want %s", i, arr.DataType(), dt)
		}
	}
	chunked := arrow.NewChunked(dt, arrs)
	defer chunked.Release()
	return s.WrapChunked(chunked), nil
}

func (s *Session) columnBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var field *Field
	var data starlark.Value
	if err := starlark.UnpackArgs("column", args, kwargs, "field", &field, "data", &data); err != nil {
		return nil, err
	}
	var chunked *arrow.Chunked
	switch d := data.(type) {
	case *ChunkedArray:
		ch, err := d.native()
		if err != nil {
			return nil, err
		}
		ch.Retain()
		chunked = ch
	case *Array:
		arr, err := d.native()
		if err != nil {
			return nil, err
		}
		chunked = arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
	default:
		return nil, typeErrorf("column data must be arrow.array or arrow.chunked_array, got %s", data.Type())
	}
	defer chunked.Release()

	if !arrow.TypeEqual(field.field.Type, chunked.DataType()) {
		return nil, typeErrorf("field %q has type %s but data has type %s",
			field.field.Name, field.field.Type, chunked.DataType())
	}
	col := arrow.NewColumn(field.field, chunked)
	defer col.Release()
	return s.WrapColumn(col), nil
}

func (s *Session) tableBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var schema *Schema
	var columns starlark.Value
	if err := starlark.UnpackArgs("table", args, kwargs, "name", &name, "schema", &schema, "columns", &columns); err != nil {
		return nil, err
	}
	cols, err := columnsFrom(columns)
	if err != nil {
		return nil, err
	}
	sc := schema.schema
	if len(cols) != sc.NumFields() {
		return nil, valueErrorf("schema has %d fields but %d columns given", sc.NumFields(), len(cols))
	}
	for i, col := range cols {
		f := sc.Field(i)
		if col.Name() != f.Name {
			return nil, valueErrorf("column %d is named %q but schema field is %q", i, col.Name(), f.Name)
		}
		if !arrow.TypeEqual(col.DataType(), f.Type) {
			return nil, typeErrorf("column %q has type %s but schema field has type %s", col.Name(), col.DataType(), f.Type)
		}
	}
	rows := int64(0)
	if len(cols) > 0 {
		rows = int64(cols[0].Len())
		for i, col := range cols {
			if int64(col.Len()) != rows {
				return nil, valueErrorf("column %d has %d rows, want %d", i, col.Len(), rows)
			}
		}
	}
	tbl := array.NewTable(sc, cols, rows)
	defer tbl.Release()
	return s.WrapTable(name, tbl), nil
}

func (s *Session) tableFromBatchesBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var schema *Schema
	var batches starlark.Value
	if err := starlark.UnpackArgs("table_from_batches", args, kwargs, "name", &name, "schema", &schema, "batches", &batches); err != nil {
		return nil, err
	}
	recs, err := batchesFrom(batches)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		if !rec.Schema().Equal(schema.schema) {
			return nil, typeErrorf("batch %d schema does not match table schema", i)
		}
	}
	tbl := array.NewTableFromRecords(schema.schema, recs)
	defer tbl.Release()
	return s.WrapTable(name, tbl), nil
}

func (s *Session) recordBatchBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var schema *Schema
	var arrays starlark.Value
	if err := starlark.UnpackArgs("record_batch", args, kwargs, "schema", &schema, "arrays", &arrays); err != nil {
		return nil, err
	}
	arrs, err := arraysFrom(arrays)
	if err != nil {
		return nil, err
	}
	sc := schema.schema
	if len(arrs) != sc.NumFields() {
		return nil, valueErrorf("schema has %d fields but %d arrays given", sc.NumFields(), len(arrs))
	}
	rows := int64(0)
	for i, arr := range arrs {
		f := sc.Field(i)
		if !arrow.TypeEqual(arr.DataType(), f.Type) {
			return nil, typeErrorf("array %d has type %s but schema field %q has type %s", i, arr.DataType(), f.Name, f.Type)
		}
		if i == 0 {
			rows = int64(arr.Len())
		} else if int64(arr.Len()) != rows {
			return nil, valueErrorf("array %d has %d rows, want %d", i, arr.Len(), rows)
		}
	}
	batch := array.NewRecord(sc, arrs, rows)
	defer batch.Release()
	return s.WrapRecordBatch(batch), nil
}

func (s *Session) tableToIPCBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var table *Table
	compression := ""
	if err := starlark.UnpackArgs("table_to_ipc", args, kwargs, "table", &table, "compression?", &compression); err != nil {
		return nil, err
	}
	tbl, err := table.native()
	if err != nil {
		return nil, err
	}
	codec, err := codecFromString(compression)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteTable(&buf, tbl, WithIPCAllocator(s.mem), WithCompression(codec)); err != nil {
		return nil, err
	}
	return starlark.Bytes(buf.String()), nil
}

func (s *Session) tableFromIPCBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var data starlark.Bytes
	name := ""
	if err := starlark.UnpackArgs("table_from_ipc", args, kwargs, "data", &data, "name?", &name); err != nil {
		return nil, err
	}
	tbl, err := ReadTable(bytes.NewReader([]byte(data)), WithIPCAllocator(s.mem))
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return s.WrapTable(name, tbl), nil
}

// fieldsFrom collects arrow.Fields from an iterable of arrow.field values.
func fieldsFrom(v starlark.Value) ([]arrow.Field, error) {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, typeErrorf("expected iterable of arrow.field, got %s", v.Type())
	}
	var fields []arrow.Field
	it := iter.Iterate()
	defer it.Done()
	var x starlark.Value
	for it.Next(&x) {
		f, ok := x.(*Field)
		if !ok {
			return nil, typeErrorf("expected arrow.field, got %s", x.Type())
		}
		fields = append(fields, f.field)
	}
	return fields, nil
}

// arraysFrom collects native arrays from an iterable of arrow.array values.
func arraysFrom(v starlark.Value) ([]arrow.Array, error) {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, typeErrorf("expected iterable of arrow.array, got %s", v.Type())
	}
	var arrs []arrow.Array
	it := iter.Iterate()
	defer it.Done()
	var x starlark.Value
	for it.Next(&x) {
		a, ok := x.(*Array)
		if !ok {
			return nil, typeErrorf("expected arrow.array, got %s", x.Type())
		}
		arr, err := a.native()
		if err != nil {
			return nil, err
		}
		arrs = append(arrs, arr)
	}
	return arrs, nil
}

// columnsFrom collects native columns from an iterable of arrow.column
// values.
func columnsFrom(v starlark.Value) ([]arrow.Column, error) {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, typeErrorf("expected iterable of arrow.column, got %s", v.Type())
	}
	var cols []arrow.Column
	it := iter.Iterate()
	defer it.Done()
	var x starlark.Value
	for it.Next(&x) {
		c, ok := x.(*Column)
		if !ok {
			return nil, typeErrorf("expected arrow.column, got %s", x.Type())
		}
		col, err := c.native()
		if err != nil {
			return nil, err
		}
		cols = append(cols, *col)
	}
	return cols, nil
}

// batchesFrom collects native record batches from an iterable of
// arrow.record_batch values.
func batchesFrom(v starlark.Value) ([]arrow.Record, error) {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, typeErrorf("expected iterable of arrow.record_batch, got %s", v.Type())
	}
	var recs []arrow.Record
	it := iter.Iterate()
	defer it.Done()
	var x starlark.Value
	for it.Next(&x) {
		r, ok := x.(*RecordBatch)
		if !ok {
			return nil, typeErrorf("expected arrow.record_batch, got %s", x.Type())
		}
		batch, err := r.native()
		if err != nil {
			return nil, err
		}
		recs = append(recs, batch)
	}
	return recs, nil
}
