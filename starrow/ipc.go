// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/klauspost/compress/zstd"
)

// Compression selects the outer stream compression for IPC payloads.
type Compression int

const (
	// CompressionNone writes a plain Arrow IPC stream.
	CompressionNone Compression = iota
	// CompressionZstd wraps the IPC stream in a zstd frame.
	CompressionZstd
)

// zstdMagic is the little-endian zstd frame magic used to auto-detect
// compressed payloads on read.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func codecFromString(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, valueErrorf("unknown compression %q (want \"zstd\" or \"none\")", s)
	}
}

// ipcConfig holds options shared by WriteTable and ReadTable.
type ipcConfig struct {
	mem         memory.Allocator
	compression Compression
	chunkSize   int64
}

// IPCOption configures WriteTable and ReadTable.
type IPCOption func(*ipcConfig)

// WithIPCAllocator sets the allocator used for IPC buffers.
func WithIPCAllocator(mem memory.Allocator) IPCOption {
	return func(c *ipcConfig) { c.mem = mem }
}

// WithCompression sets the outer stream compression for WriteTable.
// ReadTable detects compression from the payload and ignores this option.
func WithCompression(compression Compression) IPCOption {
	return func(c *ipcConfig) { c.compression = compression }
}

// WithChunkSize limits the number of rows per record batch written by
// WriteTable. Zero or negative writes the whole table as one batch.
func WithChunkSize(rows int64) IPCOption {
	return func(c *ipcConfig) { c.chunkSize = rows }
}

func newIPCConfig(opts []IPCOption) *ipcConfig {
	c := &ipcConfig{mem: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WriteTable writes a table as an Arrow IPC stream, optionally wrapped in a
// zstd frame.
func WriteTable(w io.Writer, tbl arrow.Table, opts ...IPCOption) error {
	cfg := newIPCConfig(opts)

	out := w
	var enc *zstd.Encoder
	if cfg.compression == CompressionZstd {
		var err error
		enc, err = zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		out = enc
	}

	writer := ipc.NewWriter(out, ipc.WithSchema(tbl.Schema()), ipc.WithAllocator(cfg.mem))

	tr := array.NewTableReader(tbl, cfg.chunkSize)
	defer tr.Release()
	for tr.Next() {
		if err := writer.Write(tr.Record()); err != nil {
			writer.Close()
			return fmt.Errorf("writing record batch: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing IPC writer: %w", err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("closing zstd writer: %w", err)
		}
	}
	return nil
}

// ReadTable reads an Arrow IPC stream into a table. Zstd-compressed payloads
// are detected by their frame magic and decompressed transparently. The
// caller owns the returned table and must Release it.
func ReadTable(r io.Reader, opts ...IPCOption) (arrow.Table, error) {
	cfg := newIPCConfig(opts)

	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err == nil && bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		return readTableStream(dec, cfg)
	}
	return readTableStream(br, cfg)
}

func readTableStream(r io.Reader, cfg *ipcConfig) (arrow.Table, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(cfg.mem))
	if err != nil {
		return nil, fmt.Errorf("reading IPC stream: %w", err)
	}
	defer reader.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for reader.Next() {
		batch := reader.Record()
		batch.Retain() // keep batch alive after the reader advances
		recs = append(recs, batch)
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading record batches: %w", err)
	}
	return array.NewTableFromRecords(reader.Schema(), recs), nil
}
