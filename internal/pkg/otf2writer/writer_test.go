//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package otf2writer

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gvallee/mpi2otf2/internal/pkg/comm"
	"github.com/gvallee/mpi2otf2/internal/pkg/location"
	"github.com/gvallee/mpi2otf2/internal/pkg/logger"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/otf2"
	"github.com/gvallee/mpi2otf2/internal/pkg/tracefile"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

const (
	archiveName = "traces"
	worldHandle = 100
	selfHandle  = 101
)

var testOptions = Options{
	Verbosity:       logger.Error,
	TimerResolution: 1000000000,
}

// calls builds the records of a rank, each call lasting one tick
type calls struct {
	t       int64
	records []tracefile.Record
}

func newCalls() *calls {
	c := new(calls)
	return c.add(&tracefile.Init{CommWorld: worldHandle, CommSelf: selfHandle})
}

func (c *calls) add(call tracefile.Call) *calls {
	c.records = append(c.records, tracefile.Record{
		Envelope: tracefile.Envelope{Start: c.t, Stop: c.t + 1},
		Call:     call,
	})
	c.t += 2
	return c
}

func (c *calls) done() []tracefile.Record {
	return c.add(&tracefile.Finalize{}).records
}

// convert runs the two passes of every rank and writes the archive. Global
// definitions are written when rank 0 is part of the ranks.
func convert(t *testing.T, dir string, size int, opts Options, ranks map[int][]tracefile.Record) ([]*Writer, error) {
	var writers []*Writer
	for rank := 0; rank < size; rank++ {
		records, ok := ranks[rank]
		if !ok {
			continue
		}
		w := NewWriter(rank, size, nil, opts)
		for i := range records {
			err := w.FirstPass(&records[i])
			if err != nil {
				return nil, err
			}
		}
		require.NoError(t, w.EndFirstPass())
		writers = append(writers, w)
	}

	err := Barrier(writers)
	if err != nil {
		return nil, err
	}

	archive, err := otf2.Open(dir, archiveName, nil)
	require.NoError(t, err)
	for _, w := range writers {
		require.NoError(t, w.Begin(archive))
		records := ranks[w.Rank]
		for i := range records {
			err := w.Handle(&records[i])
			if err != nil {
				return writers, err
			}
		}
		err = w.End(archive)
		if err != nil {
			return writers, err
		}
	}
	if writers[0].Rank == 0 {
		require.NoError(t, writers[0].WriteGlobalDefinitions(archive, writers))
		require.NoError(t, archive.Close())
	}
	return writers, nil
}

func eventsOf(t *testing.T, dir string, rank int, kind otf2.EventKind) []*otf2.Event {
	events, err := otf2.ReadLocationEvents(dir, archiveName, uint64(rank))
	require.NoError(t, err)
	var selected []*otf2.Event
	for _, e := range events {
		if e.Kind == kind {
			selected = append(selected, e)
		}
	}
	return selected
}

func collectiveEnd(t *testing.T, dir string, rank int, name string) *otf2.Event {
	for _, e := range eventsOf(t, dir, rank, otf2.MpiCollectiveEnd) {
		if e.Collective == name {
			return e
		}
	}
	t.Fatalf("no %s event on rank %d", name, rank)
	return nil
}

func TestDupBcastFree(t *testing.T) {
	dir := t.TempDir()
	ranks := make(map[int][]tracefile.Record)
	for rank := 0; rank < 2; rank++ {
		ranks[rank] = newCalls().
			add(&tracefile.CommDup{Comm: worldHandle, NewComm: 5}).
			add(&tracefile.Bcast{Count: 10, Datatype: mpi.Int32, Root: 0, Comm: 5}).
			add(&tracefile.CommFree{Comm: 5}).
			done()
	}

	writers, err := convert(t, dir, 2, testOptions, ranks)
	require.NoError(t, err)

	defs, err := otf2.ReadGlobalDefinitions(dir, archiveName)
	require.NoError(t, err)

	// WORLD, SELF and the duplicate
	require.Len(t, defs.Comms, 3)
	require.Equal(t, comm.CommWorldGlobalID, defs.Comms[0].ID)
	require.Equal(t, comm.CommSelfGlobalID, defs.Comms[1].ID)
	dup := defs.Comms[2]
	require.Equal(t, comm.CommWorldGlobalID, dup.Parent)
	require.Equal(t, otf2.NoParent, defs.Comms[0].Parent)

	// the duplicate shares the group of MPI_COMM_WORLD
	require.Equal(t, comm.GroupWorldGlobalID, dup.Group)
	require.Len(t, defs.Groups, 3)
	require.Equal(t, []uint64{0, 1}, defs.Groups[0].Members)
	require.Equal(t, []uint64{0, 1}, defs.Groups[1].Members)
	require.Equal(t, otf2.GroupTypeSelf, defs.Groups[2].Type)

	require.Len(t, defs.Locations, 2)
	require.Equal(t, writers[1].Stats().Events, defs.Locations[1].Events)
	require.Equal(t, uint64(1000000000), defs.Clock.TimerResolution)
	require.Equal(t, uint64(9), defs.Clock.TraceLength)

	names := make(map[string]bool)
	for _, r := range defs.Regions {
		name, ok := defs.Lookup(r.Name)
		require.True(t, ok)
		names[name] = true
	}
	require.Equal(t, map[string]bool{"MPI_Init": true, "MPI_Comm_dup": true, "MPI_Bcast": true, "MPI_Comm_free": true, "MPI_Finalize": true}, names)

	root := collectiveEnd(t, dir, 0, collBcast)
	require.Equal(t, int64(40), root.Sent)
	require.Equal(t, int64(40), root.Received)
	other := collectiveEnd(t, dir, 1, collBcast)
	require.Equal(t, int64(0), other.Sent)
	require.Equal(t, int64(0), other.Received)

	// events use local ids, mapped to the global id of the duplicate
	for rank := 0; rank < 2; rank++ {
		local, err := otf2.ReadLocalDefinitions(dir, archiveName, uint64(rank))
		require.NoError(t, err)
		e := collectiveEnd(t, dir, rank, collBcast)
		global, ok := local.Global(e.Comm)
		require.True(t, ok)
		require.Equal(t, dup.ID, global)
	}

	enters := eventsOf(t, dir, 0, otf2.Enter)
	leaves := eventsOf(t, dir, 0, otf2.Leave)
	require.Len(t, enters, 5)
	require.Len(t, leaves, 5)
}

func TestPointToPoint(t *testing.T) {
	dir := t.TempDir()
	ranks := map[int][]tracefile.Record{
		0: newCalls().
			add(&tracefile.Send{Count: 3, Datatype: mpi.Double, Dest: 1, Tag: 5, Comm: worldHandle}).
			add(&tracefile.Send{Count: 3, Datatype: mpi.Double, Dest: mpi.ProcNull, Tag: 5, Comm: worldHandle}).
			done(),
		1: newCalls().
			add(&tracefile.Recv{Count: 3, Datatype: mpi.Double, Source: 0, Tag: 5, Comm: worldHandle}).
			done(),
	}
	writers, err := convert(t, dir, 2, testOptions, ranks)
	require.NoError(t, err)

	sends := eventsOf(t, dir, 0, otf2.MpiSend)
	require.Len(t, sends, 1)
	recvs := eventsOf(t, dir, 1, otf2.MpiRecv)
	require.Len(t, recvs, 1)
	require.Equal(t, int64(24), sends[0].Bytes)
	require.Equal(t, sends[0].Bytes, recvs[0].Bytes)
	require.Equal(t, 1, sends[0].Peer)
	require.Equal(t, 0, recvs[0].Peer)
	require.Equal(t, sends[0].Tag, recvs[0].Tag)

	require.Equal(t, []int64{24}, writers[0].Stats().MsgSizes)
	sent, received := writers[1].Stats().Totals()
	require.Equal(t, int64(0), sent)
	require.Equal(t, int64(24), received)
	require.Equal(t, 2, writers[0].Stats().Op(mpi.OpSend).Calls)
}

func TestSplitTranslatesRanks(t *testing.T) {
	dir := t.TempDir()
	ranks := make(map[int][]tracefile.Record)
	for rank := 0; rank < 4; rank++ {
		color := rank % 2
		c := newCalls().
			add(&tracefile.CommSplit{Comm: worldHandle, Color: color, Key: rank, NewComm: 7}).
			add(&tracefile.CommGroup{Comm: 7, Group: 8, WorldRanks: []int{color, color + 2}}).
			add(&tracefile.CommRank{Comm: 7, Rank: rank / 2}).
			add(&tracefile.CommSize{Comm: 7, Size: 2})
		switch rank {
		case 3:
			c.add(&tracefile.Send{Count: 1, Datatype: mpi.Int, Dest: 0, Tag: 0, Comm: 7})
		case 1:
			c.add(&tracefile.Recv{Count: 1, Datatype: mpi.Int, Source: mpi.AnySource, Tag: mpi.AnyTag, Comm: 7, Status: &tracefile.Status{Source: 1, Tag: 0}})
		}
		ranks[rank] = c.add(&tracefile.Allreduce{Count: 2, Datatype: mpi.Int, Comm: 7}).done()
	}
	_, err := convert(t, dir, 4, testOptions, ranks)
	require.NoError(t, err)

	sends := eventsOf(t, dir, 3, otf2.MpiSend)
	require.Len(t, sends, 1)
	require.Equal(t, 1, sends[0].Peer)
	recvs := eventsOf(t, dir, 1, otf2.MpiRecv)
	require.Len(t, recvs, 1)
	require.Equal(t, 3, recvs[0].Peer)

	allreduce := collectiveEnd(t, dir, 2, collAllreduce)
	require.Equal(t, int64(16), allreduce.Sent)

	defs, err := otf2.ReadGlobalDefinitions(dir, archiveName)
	require.NoError(t, err)
	require.Len(t, defs.Comms, 4)
	members := make(map[int64][]uint64)
	for _, g := range defs.Groups {
		members[g.ID] = g.Members
	}
	require.Equal(t, []uint64{0, 2}, members[defs.Comms[2].Group])
	require.Equal(t, []uint64{1, 3}, members[defs.Comms[3].Group])

	// the split communicators are known under the same global id by their members
	for _, pair := range [][2]int{{0, 2}, {1, 3}} {
		var ids []int64
		for _, rank := range pair {
			local, err := otf2.ReadLocalDefinitions(dir, archiveName, uint64(rank))
			require.NoError(t, err)
			id, ok := local.Global(2)
			require.True(t, ok)
			ids = append(ids, id)
		}
		require.Equal(t, ids[0], ids[1])
	}
}

func TestWildcardIrecv(t *testing.T) {
	withStatus := newCalls().
		add(&tracefile.Irecv{Count: 2, Datatype: mpi.Int, Source: mpi.AnySource, Tag: mpi.AnyTag, Comm: worldHandle, Request: 7}).
		add(&tracefile.Wait{Request: 7, Status: &tracefile.Status{Source: 3, Tag: 7}}).
		done()

	dir := t.TempDir()
	_, err := convert(t, dir, 4, testOptions, map[int][]tracefile.Record{1: withStatus})
	require.NoError(t, err)
	irecvs := eventsOf(t, dir, 1, otf2.MpiIrecv)
	require.Len(t, irecvs, 1)
	require.Equal(t, 3, irecvs[0].Peer)
	require.Equal(t, 7, irecvs[0].Tag)
	require.Equal(t, int64(8), irecvs[0].Bytes)
	require.Len(t, eventsOf(t, dir, 1, otf2.MpiIrecvRequest), 1)

	withoutStatus := newCalls().
		add(&tracefile.Irecv{Count: 2, Datatype: mpi.Int, Source: mpi.AnySource, Tag: mpi.AnyTag, Comm: worldHandle, Request: 7}).
		add(&tracefile.Wait{Request: 7}).
		done()
	_, err = convert(t, t.TempDir(), 4, testOptions, map[int][]tracefile.Record{1: withoutStatus})
	require.ErrorIs(t, err, errors.ErrRequest)
}

func TestRequestCompletions(t *testing.T) {
	records := newCalls().
		add(&tracefile.Isend{Count: 1, Datatype: mpi.Double, Dest: 0, Tag: 1, Comm: worldHandle, Request: 1}).
		add(&tracefile.Irecv{Count: 1, Datatype: mpi.Double, Source: 0, Tag: 1, Comm: worldHandle, Request: 2}).
		add(&tracefile.Issend{Isend: tracefile.Isend{Count: 1, Datatype: mpi.Double, Dest: mpi.ProcNull, Tag: 1, Comm: worldHandle, Request: 3}}).
		add(&tracefile.Test{Request: 1, Flag: false}).
		add(&tracefile.Waitall{Requests: []int64{1, 2, 1, mpi.RequestNull}}).
		add(&tracefile.Waitany{Requests: []int64{4, 3}, Index: 1}).
		add(&tracefile.Isend{Count: 2, Datatype: mpi.Double, Dest: 0, Tag: 1, Comm: worldHandle, Request: 1}).
		add(&tracefile.Testsome{Requests: []int64{1}, Indices: []int{0}}).
		add(&tracefile.Isend{Count: 2, Datatype: mpi.Double, Dest: 0, Tag: 1, Comm: worldHandle, Request: 9}).
		done()

	dir := t.TempDir()
	writers, err := convert(t, dir, 2, testOptions, map[int][]tracefile.Record{1: records})
	require.NoError(t, err)

	require.Len(t, eventsOf(t, dir, 1, otf2.MpiIsend), 3)
	completes := eventsOf(t, dir, 1, otf2.MpiIsendComplete)
	require.Len(t, completes, 2)
	require.Equal(t, int64(1), completes[0].Request)
	irecvs := eventsOf(t, dir, 1, otf2.MpiIrecv)
	require.Len(t, irecvs, 1)
	require.Equal(t, 0, irecvs[0].Peer)
	require.Equal(t, 1, writers[0].Stats().Outstanding)

	unmatched := newCalls().add(&tracefile.Wait{Request: 12}).done()
	_, err = convert(t, t.TempDir(), 2, testOptions, map[int][]tracefile.Record{1: unmatched})
	require.ErrorIs(t, err, errors.ErrRequest)
}

func TestHandleReuse(t *testing.T) {
	ranks := map[int][]tracefile.Record{
		0: newCalls().
			add(&tracefile.CommDup{Comm: worldHandle, NewComm: 5}).
			add(&tracefile.Barrier{Comm: 5}).
			add(&tracefile.CommFree{Comm: 5}).
			add(&tracefile.CommDup{Comm: selfHandle, NewComm: 5}).
			add(&tracefile.Barrier{Comm: 5}).
			done(),
		1: newCalls().
			add(&tracefile.CommDup{Comm: worldHandle, NewComm: 5}).
			add(&tracefile.Barrier{Comm: 5}).
			add(&tracefile.CommFree{Comm: 5}).
			done(),
	}
	dir := t.TempDir()
	_, err := convert(t, dir, 2, testOptions, ranks)
	require.NoError(t, err)

	local, err := otf2.ReadLocalDefinitions(dir, archiveName, 0)
	require.NoError(t, err)
	barriers := make([]*otf2.Event, 0, 2)
	for _, e := range eventsOf(t, dir, 0, otf2.MpiCollectiveEnd) {
		if e.Collective == collBarrier {
			barriers = append(barriers, e)
		}
	}
	require.Len(t, barriers, 2)
	first, ok := local.Global(barriers[0].Comm)
	require.True(t, ok)
	second, ok := local.Global(barriers[1].Comm)
	require.True(t, ok)
	require.NotEqual(t, first, second)

	defs, err := otf2.ReadGlobalDefinitions(dir, archiveName)
	require.NoError(t, err)
	parents := make(map[int64]int64)
	for _, c := range defs.Comms {
		parents[c.ID] = c.Parent
	}
	require.Equal(t, comm.CommWorldGlobalID, parents[first])
	require.Equal(t, comm.CommSelfGlobalID, parents[second])
}

func TestGlobalCommIDs(t *testing.T) {
	opts := testOptions
	opts.GlobalCommIDs = true
	ranks := make(map[int][]tracefile.Record)
	for rank := 0; rank < 2; rank++ {
		ranks[rank] = newCalls().add(&tracefile.Barrier{Comm: worldHandle}).done()
	}
	dir := t.TempDir()
	_, err := convert(t, dir, 2, opts, ranks)
	require.NoError(t, err)

	e := collectiveEnd(t, dir, 1, collBarrier)
	require.Equal(t, int64(worldHandle), e.Comm)
	_, err = os.Stat(filepath.Join(otf2.LocationsDir(dir, archiveName), location.DefinitionFileName(1)))
	require.True(t, os.IsNotExist(err))

	defs, err := otf2.ReadGlobalDefinitions(dir, archiveName)
	require.NoError(t, err)
	require.Equal(t, int64(worldHandle), defs.Comms[0].ID)
}

func TestConversionErrors(t *testing.T) {
	tests := []struct {
		name        string
		records     []tracefile.Record
		opts        Options
		expectedErr error
	}{
		{
			name:        "derived from unknown type",
			records:     newCalls().add(&tracefile.TypeContiguous{Count: 2, OldType: 999, NewType: 50}).done(),
			expectedErr: errors.ErrUnknownType,
		},
		{
			name:        "group union",
			records:     newCalls().add(&tracefile.GroupUnion{Group1: 1, Group2: 2, NewGroup: 3}).done(),
			expectedErr: errors.ErrUnimplemented,
		},
		{
			name:        "free without communicator",
			records:     newCalls().add(&tracefile.CommFree{Comm: 12}).done(),
			expectedErr: errors.ErrResolution,
		},
		{
			name:        "wrong rank",
			records:     newCalls().add(&tracefile.CommRank{Comm: worldHandle, Rank: 0}).done(),
			expectedErr: errors.ErrResolution,
		},
		{
			name:        "wildcard recv without status",
			records:     newCalls().add(&tracefile.Recv{Count: 1, Datatype: mpi.Int, Source: mpi.AnySource, Tag: 0, Comm: worldHandle}).done(),
			expectedErr: errors.ErrRequest,
		},
		{
			name:        "unknown type with abort",
			records:     newCalls().add(&tracefile.Send{Count: 1, Datatype: 999, Dest: 0, Comm: worldHandle}).done(),
			opts:        Options{Verbosity: logger.Abort, TimerResolution: 10},
			expectedErr: errors.ErrFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if opts.TimerResolution == 0 {
				opts = testOptions
			}
			_, err := convert(t, t.TempDir(), 2, opts, map[int][]tracefile.Record{1: tt.records})
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestDerivedTypes(t *testing.T) {
	records := newCalls().
		add(&tracefile.TypeContiguous{Count: 4, OldType: mpi.Double, NewType: 50}).
		add(&tracefile.TypeCommit{Type: 50}).
		add(&tracefile.Send{Count: 2, Datatype: 50, Dest: 0, Comm: worldHandle}).
		add(&tracefile.TypeFree{Type: 50}).
		add(&tracefile.TypeVector{Count: 2, BlockLength: 3, Stride: 8, OldType: mpi.Int, NewType: 50}).
		add(&tracefile.Send{Count: 1, Datatype: 50, Dest: 0, Comm: worldHandle}).
		add(&tracefile.Send{Count: 1, Datatype: 998, Dest: 0, Comm: worldHandle}).
		done()

	dir := t.TempDir()
	writers, err := convert(t, dir, 2, testOptions, map[int][]tracefile.Record{1: records})
	require.NoError(t, err)
	require.Equal(t, []int64{64, 24, 4}, writers[0].Stats().MsgSizes)
	require.Equal(t, 1, writers[0].Stats().UnknownTypes)
}

func TestDupOfSplitBeforeCommGroup(t *testing.T) {
	dir := t.TempDir()
	ranks := make(map[int][]tracefile.Record)
	for rank := 0; rank < 2; rank++ {
		ranks[rank] = newCalls().
			add(&tracefile.CommSplit{Comm: worldHandle, Color: 0, Key: rank, NewComm: 7}).
			add(&tracefile.CommDup{Comm: 7, NewComm: 9}).
			add(&tracefile.CommGroup{Comm: 7, Group: 8, WorldRanks: []int{0, 1}}).
			add(&tracefile.Bcast{Count: 1, Datatype: mpi.Int32, Root: 0, Comm: 9}).
			done()
	}
	_, err := convert(t, dir, 2, testOptions, ranks)
	require.NoError(t, err)

	defs, err := otf2.ReadGlobalDefinitions(dir, archiveName)
	require.NoError(t, err)
	// WORLD, SELF, the split communicator and its duplicate
	require.Len(t, defs.Comms, 4)
	split, dup := defs.Comms[2], defs.Comms[3]
	require.Equal(t, split.ID, dup.Parent)
	require.Equal(t, split.Group, dup.Group)

	root := collectiveEnd(t, dir, 0, collBcast)
	require.Equal(t, 0, root.Root)
	require.Equal(t, int64(4), root.Sent)
	for rank := 0; rank < 2; rank++ {
		local, err := otf2.ReadLocalDefinitions(dir, archiveName, uint64(rank))
		require.NoError(t, err)
		global, ok := local.Global(collectiveEnd(t, dir, rank, collBcast).Comm)
		require.True(t, ok)
		require.Equal(t, dup.ID, global)
	}
}

func TestInfoLogging(t *testing.T) {
	records := newCalls().
		add(&tracefile.CommSplit{Comm: worldHandle, Color: 0, Key: 0, NewComm: 7}).
		add(&tracefile.CommGroup{Comm: 7, Group: 8, WorldRanks: []int{0}}).
		add(&tracefile.CommDup{Comm: 7, NewComm: 9}).
		add(&tracefile.CommFree{Comm: 9}).
		done()

	opts := testOptions
	opts.Verbosity = logger.Info
	w := NewWriter(0, 1, nil, opts)
	var buf bytes.Buffer
	w.log.SetOutput(log.New(&buf, "", 0))

	for i := range records {
		require.NoError(t, w.FirstPass(&records[i]))
	}
	require.NoError(t, w.EndFirstPass())
	require.NoError(t, Barrier([]*Writer{w}))
	dir := t.TempDir()
	archive, err := otf2.Open(dir, archiveName, nil)
	require.NoError(t, err)
	require.NoError(t, w.Begin(archive))
	for i := range records {
		require.NoError(t, w.Handle(&records[i]))
	}
	require.NoError(t, w.End(archive))

	out := buf.String()
	require.Contains(t, out, "[INFO] rank 0: communicator 7 created from 100 by MPI_Comm_split (color 0, key 0), group pending\n")
	require.Contains(t, out, "[INFO] rank 0: group 8 bound to communicator 7\n")
	require.Contains(t, out, "[INFO] rank 0: communicator 9 created from 7 by MPI_Comm_dup\n")
	require.Contains(t, out, "[INFO] rank 0: version of communicator 9 retired\n")
	require.Contains(t, out, "[INFO] rank 0: communicator 100 (local id 0) has global id 0\n")
	require.Contains(t, out, "[INFO] rank 0: communicator 101 (local id 1) has global id 1\n")
	require.Contains(t, out, "[INFO] rank 0: communicator 9: next events use its next version\n")

	// nothing below the error level is logged by default
	quiet := NewWriter(0, 1, nil, testOptions)
	buf.Reset()
	quiet.log.SetOutput(log.New(&buf, "", 0))
	require.NoError(t, quiet.FirstPass(&records[0]))
	require.NoError(t, quiet.FirstPass(&records[1]))
	require.Empty(t, buf.String())
}

func TestCompletionVariants(t *testing.T) {
	tests := []struct {
		name      string
		calls     []tracefile.Call
		irecvs    []*otf2.Event
		completes int
		recvs     []*otf2.Event
	}{
		{
			name: "waitsome statuses follow indices",
			calls: []tracefile.Call{
				&tracefile.Irecv{Count: 1, Datatype: mpi.Int, Source: 2, Tag: 4, Comm: worldHandle, Request: 1},
				&tracefile.Irecv{Count: 2, Datatype: mpi.Int, Source: mpi.AnySource, Tag: mpi.AnyTag, Comm: worldHandle, Request: 2},
				&tracefile.Waitsome{Requests: []int64{1, 2}, Indices: []int{1, 0}, Statuses: []tracefile.Status{{Source: 3, Tag: 6}, {Source: 2, Tag: 4}}},
			},
			irecvs: []*otf2.Event{
				{Peer: 3, Tag: 6, Bytes: 8, Request: 2},
				{Peer: 2, Tag: 4, Bytes: 4, Request: 1},
			},
		},
		{
			name: "testall without flag",
			calls: []tracefile.Call{
				&tracefile.Isend{Count: 1, Datatype: mpi.Int, Dest: 0, Tag: 1, Comm: worldHandle, Request: 1},
				&tracefile.Testall{Requests: []int64{1}, Flag: false},
				&tracefile.Testall{Requests: []int64{1}, Flag: true},
			},
			completes: 1,
		},
		{
			name: "testany without flag or index",
			calls: []tracefile.Call{
				&tracefile.Isend{Count: 1, Datatype: mpi.Int, Dest: 0, Tag: 1, Comm: worldHandle, Request: 1},
				&tracefile.Testany{Requests: []int64{1}, Index: 0, Flag: false},
				&tracefile.Testany{Requests: []int64{1}, Index: mpi.Undefined, Flag: true},
				&tracefile.Testany{Requests: []int64{1}, Index: 0, Flag: true},
			},
			completes: 1,
		},
		{
			name: "sendrecv",
			calls: []tracefile.Call{
				&tracefile.Sendrecv{SendCount: 2, SendType: mpi.Double, Dest: 0, SendTag: 1, RecvCount: 3, RecvType: mpi.Int, Source: mpi.AnySource, RecvTag: mpi.AnyTag, Comm: worldHandle, Status: &tracefile.Status{Source: 2, Tag: 9}},
			},
			recvs: []*otf2.Event{{Peer: 2, Tag: 9, Bytes: 12}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCalls()
			for _, call := range tt.calls {
				c.add(call)
			}
			dir := t.TempDir()
			writers, err := convert(t, dir, 4, testOptions, map[int][]tracefile.Record{1: c.done()})
			require.NoError(t, err)
			require.Equal(t, 0, writers[0].Stats().Outstanding)

			irecvs := eventsOf(t, dir, 1, otf2.MpiIrecv)
			require.Len(t, irecvs, len(tt.irecvs))
			for i, expected := range tt.irecvs {
				require.Equal(t, expected.Peer, irecvs[i].Peer)
				require.Equal(t, expected.Tag, irecvs[i].Tag)
				require.Equal(t, expected.Bytes, irecvs[i].Bytes)
				require.Equal(t, expected.Request, irecvs[i].Request)
			}
			require.Len(t, eventsOf(t, dir, 1, otf2.MpiIsendComplete), tt.completes)

			recvs := eventsOf(t, dir, 1, otf2.MpiRecv)
			require.Len(t, recvs, len(tt.recvs))
			for i, expected := range tt.recvs {
				require.Equal(t, expected.Peer, recvs[i].Peer)
				require.Equal(t, expected.Tag, recvs[i].Tag)
				require.Equal(t, expected.Bytes, recvs[i].Bytes)
				require.Less(t, eventsOf(t, dir, 1, otf2.MpiSend)[0].Time, recvs[i].Time)
			}
		})
	}
}
