//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package tracefile

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gvallee/mpi2otf2/internal/pkg/format"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
)

func TestWriteAndReadRecords(t *testing.T) {
	records := []Record{
		{Envelope{Start: 10, Stop: 20}, &Init{CommWorld: 91, CommSelf: 92}},
		{Envelope{Thread: 1, Start: 30, Stop: 35, CPUTime: 4, Counters: []int64{7, -3}}, &CommSplit{Comm: 91, Color: mpi.Undefined, Key: -1, NewComm: 0}},
		{Envelope{Start: 40, Stop: 50}, &Ssend{Send{Count: 10, Datatype: mpi.Int, Dest: 1, Tag: 7, Comm: 91}}},
		{Envelope{Start: 60, Stop: 70}, &Recv{Count: 3, Datatype: mpi.Double, Source: mpi.AnySource, Tag: mpi.AnyTag, Comm: 91, Status: &Status{Source: 1, Tag: 4}}},
		{Envelope{Start: 80, Stop: 90}, &Waitall{Requests: []int64{5, 6}, Statuses: []Status{{0, 1}, {2, 3}}}},
		{Envelope{Start: 95, Stop: 99}, &CommSetName{Comm: 91, Name: "solver"}},
		{Envelope{Start: 100, Stop: 110}, &Wait{Request: 5}},
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{Rank: 3, Size: 4})
	if err != nil {
		t.Fatalf("NewWriter() failed: %s", err)
	}
	for _, r := range records {
		err = w.Write(r.Envelope, r.Call)
		if err != nil {
			t.Fatalf("Write() failed: %s", err)
		}
	}
	err = w.Flush()
	if err != nil {
		t.Fatalf("Flush() failed: %s", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader() failed: %s", err)
	}
	h := r.Header()
	if h.Rank != 3 || h.Size != 4 || h.Version != format.TraceFileVersion {
		t.Fatalf("unexpected header %+v", h)
	}
	if !reflect.DeepEqual(h.Datatypes, mpi.DefaultDatatypes()) {
		t.Fatalf("header without datatypes did not get the default datatypes")
	}

	for i, expected := range records {
		rec, err := r.Next()
		if err != nil {
			t.Fatalf("Next() failed on record %d: %s", i, err)
		}
		if !reflect.DeepEqual(rec, expected) {
			t.Fatalf("record %d is %+v instead of %+v", i, rec, expected)
		}
	}
	_, err = r.Next()
	if err != io.EOF {
		t.Fatalf("Next() returned %v instead of EOF", err)
	}
}

func TestUnknownTagsAreSkipped(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{Rank: 0, Size: 1})
	if err != nil {
		t.Fatalf("NewWriter() failed: %s", err)
	}
	// A record with a tag from a newer tracing layer
	err = w.w.WriteByte(byte(mpi.NumOps) + 10)
	if err != nil {
		t.Fatalf("WriteByte() failed: %s", err)
	}
	err = w.writeChunk([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("writeChunk() failed: %s", err)
	}
	err = w.Write(Envelope{Start: 1, Stop: 2}, &Barrier{Comm: 4})
	if err != nil {
		t.Fatalf("Write() failed: %s", err)
	}
	w.Flush()

	dir := t.TempDir()
	path := filepath.Join(dir, format.TraceFileName("app", 0))
	err = os.WriteFile(path, buf.Bytes(), 0644)
	if err != nil {
		t.Fatalf("WriteFile() failed: %s", err)
	}

	trace, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %s", err)
	}
	if trace.Skipped != 1 {
		t.Fatalf("%d records skipped instead of 1", trace.Skipped)
	}
	if len(trace.Records) != 1 || trace.Records[0].Op() != mpi.OpBarrier {
		t.Fatalf("unexpected records: %+v", trace.Records)
	}
}

func TestInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "badMagic",
			data: []byte("NOTATRACE"),
		},
		{
			name: "truncatedHeader",
			data: append([]byte(format.TraceFileMagic), 10, 1),
		},
	}

	for _, tt := range tests {
		_, err := NewReader(bytes.NewReader(tt.data))
		if err == nil {
			t.Fatalf("%s: NewReader() succeeded", tt.name)
		}
	}

	// Truncated record
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, Header{Rank: 0, Size: 1})
	w.Write(Envelope{Start: 1, Stop: 2}, &Bcast{Count: 1, Datatype: mpi.Int, Root: 0, Comm: 4})
	w.Flush()
	data := buf.Bytes()[:buf.Len()-2]
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader() failed: %s", err)
	}
	_, err = r.Next()
	if err == nil || err == io.EOF {
		t.Fatalf("Next() on a truncated record returned %v", err)
	}
}

func TestRecordLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, Header{Rank: 0, Size: 1})
	w.Flush()
	headerLen := buf.Len()
	w.Write(Envelope{Start: 1, Stop: 2}, &Barrier{Comm: 4})
	w.Flush()

	rest := buf.Bytes()[headerLen:]
	tag, n := binary.Uvarint(rest)
	if mpi.Op(tag) != mpi.OpBarrier {
		t.Fatalf("tag is %d instead of %d", tag, mpi.OpBarrier)
	}
	size, m := binary.Uvarint(rest[n:])
	if int(size) != len(rest)-n-m {
		t.Fatalf("record length is %d instead of %d", size, len(rest)-n-m)
	}
}
