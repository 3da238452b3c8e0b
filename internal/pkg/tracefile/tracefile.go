//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package tracefile reads and writes the per-rank binary logs of MPI calls
// produced by the tracing layer.
package tracefile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/gvallee/mpi2otf2/internal/pkg/format"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
)

// maxRecordSize bounds the payload of a single record
const maxRecordSize = 64 << 20

// Header is written once at the beginning of a log
type Header struct {
	Version   uint64
	Rank      int
	Size      int
	Datatypes []mpi.DatatypeInfo
}

// Envelope is the data recorded for every call, independently of its
// arguments. Times are in ticks of the tracing layer's clock.
type Envelope struct {
	Thread   uint64
	Start    int64
	Stop     int64
	CPUTime  int64
	Counters []int64
}

// Record is one traced call
type Record struct {
	Envelope
	Call Call
}

// Op returns the operation of the record
func (r *Record) Op() mpi.Op {
	return r.Call.Op()
}

// Trace is the fully loaded content of one log
type Trace struct {
	Path    string
	Header  Header
	Records []Record

	// Skipped is the number of records with an unknown tag
	Skipped int
}

// Reader decodes the records of a log one at a time
type Reader struct {
	r      *bufio.Reader
	header Header

	// Skipped is the number of records with an unknown tag that were ignored
	Skipped int
}

// NewReader checks the magic and reads the header of a log
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{r: bufio.NewReader(r)}

	magic := make([]byte, len(format.TraceFileMagic))
	_, err := io.ReadFull(reader.r, magic)
	if err != nil {
		return nil, fmt.Errorf("unable to read magic: %w", err)
	}
	if string(magic) != format.TraceFileMagic {
		return nil, fmt.Errorf("not a trace file (magic is %q)", magic)
	}

	data, err := reader.readChunk()
	if err != nil {
		return nil, fmt.Errorf("unable to read header: %w", err)
	}
	d := &decoder{data: data}
	err = d.decodeValue(reflect.ValueOf(&reader.header).Elem())
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	if reader.header.Version != format.TraceFileVersion {
		return nil, fmt.Errorf("unsupported trace file version %d (expected %d)", reader.header.Version, format.TraceFileVersion)
	}
	if len(reader.header.Datatypes) == 0 {
		reader.header.Datatypes = mpi.DefaultDatatypes()
	}

	return reader, nil
}

// Header returns the header of the log
func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) readChunk() ([]byte, error) {
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		return nil, err
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("record of %d bytes exceeds the maximum size", size)
	}
	data := make([]byte, size)
	_, err = io.ReadFull(r.r, data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Next returns the next record of the log, io.EOF once all records are read
func (r *Reader) Next() (Record, error) {
	for {
		tag, err := binary.ReadUvarint(r.r)
		if err == io.EOF {
			return Record{}, io.EOF
		}
		if err != nil {
			return Record{}, err
		}

		data, err := r.readChunk()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return Record{}, fmt.Errorf("truncated record: %w", err)
		}

		call := newCall(mpi.Op(tag))
		if call == nil {
			r.Skipped++
			continue
		}

		var rec Record
		err = decodePayload(data, &rec.Envelope, call)
		if err != nil {
			return Record{}, err
		}
		rec.Call = call
		return rec, nil
	}
}

// ReadFile loads all the records of a log in their original order
func ReadFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	t := new(Trace)
	t.Path = path
	t.Header = r.Header()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: record #%d: %w", path, len(t.Records), err)
		}
		t.Records = append(t.Records, rec)
	}
	t.Skipped = r.Skipped

	return t, nil
}

// Writer encodes a log
type Writer struct {
	w *bufio.Writer
}

// NewWriter writes the magic and the header of a log
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	writer := &Writer{w: bufio.NewWriter(w)}
	h.Version = format.TraceFileVersion

	_, err := writer.w.WriteString(format.TraceFileMagic)
	if err != nil {
		return nil, err
	}
	data, err := encodeValue(nil, reflect.ValueOf(h))
	if err != nil {
		return nil, err
	}
	err = writer.writeChunk(data)
	if err != nil {
		return nil, err
	}
	return writer, nil
}

func (w *Writer) writeChunk(data []byte) error {
	var l [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(l[:], uint64(len(data)))
	_, err := w.w.Write(l[:n])
	if err != nil {
		return err
	}
	_, err = w.w.Write(data)
	return err
}

// Write appends a record to the log
func (w *Writer) Write(env Envelope, call Call) error {
	data, err := encodePayload(env, call)
	if err != nil {
		return fmt.Errorf("unable to encode %s: %w", call.Op(), err)
	}
	var l [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(l[:], uint64(call.Op()))
	_, err = w.w.Write(l[:n])
	if err != nil {
		return err
	}
	return w.writeChunk(data)
}

// Flush writes any buffered data to the underlying writer
func (w *Writer) Flush() error {
	return w.w.Flush()
}
