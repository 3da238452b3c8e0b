//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package otf2writer

import (
	"github.com/gvallee/mpi2otf2/internal/pkg/comm"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/request"
	"github.com/gvallee/mpi2otf2/internal/pkg/tracefile"
	"github.com/gvallee/mpi2otf2/internal/pkg/volume"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// Collective operations as named in the events
const (
	collBarrier       = "BARRIER"
	collBcast         = "BCAST"
	collGather        = "GATHER"
	collGatherv       = "GATHERV"
	collScatter       = "SCATTER"
	collScatterv      = "SCATTERV"
	collReduce        = "REDUCE"
	collAllreduce     = "ALLREDUCE"
	collScan          = "SCAN"
	collAllgather     = "ALLGATHER"
	collAllgatherv    = "ALLGATHERV"
	collAlltoall      = "ALLTOALL"
	collAlltoallv     = "ALLTOALLV"
	collReduceScatter = "REDUCE_SCATTER"
	collCreateHandle  = "CREATE_HANDLE"
	collDestroyHandle = "DESTROY_HANDLE"

	// noRoot is the root of the collectives that do not have one
	noRoot = -1
)

func (w *Writer) dispatch(rec *tracefile.Record, start, stop uint64) error {
	m := w.model
	switch c := rec.Call.(type) {
	case *tracefile.CommRank:
		return w.checkRank(c.Comm, c.Rank)
	case *tracefile.CommSize:
		return w.checkSize(c.Comm, c.Size)

	// communicators and groups were created during the first pass, only
	// the frees are replayed to move to the next version of the handles
	case *tracefile.CommDup:
		return w.createHandle(c.Comm, start, stop)
	case *tracefile.CommSplit:
		return w.createHandle(c.Comm, start, stop)
	case *tracefile.CommCreate:
		return w.createHandle(c.Comm, start, stop)
	case *tracefile.CommFree:
		err := w.collective(c.Comm, start, stop, collDestroyHandle, noRoot, func(volume.Estimator) volume.Volume { return volume.Volume{} })
		if err != nil {
			return err
		}
		err = m.Free(c.Comm)
		if err != nil {
			return err
		}
		w.log.Infof("communicator %d: next events use its next version", c.Comm)
		return nil
	case *tracefile.GroupFree:
		return m.GroupFree(c.Group)
	case *tracefile.TypeFree:
		return w.types.Free(c.Type)

	case *tracefile.Send:
		return w.send(start, c)
	case *tracefile.Ssend:
		return w.send(start, &c.Send)
	case *tracefile.Bsend:
		return w.send(start, &c.Send)
	case *tracefile.Rsend:
		return w.send(start, &c.Send)
	case *tracefile.Recv:
		return w.recv(stop, c.Count, c.Datatype, c.Source, c.Tag, c.Comm, c.Status)
	case *tracefile.Sendrecv:
		err := w.send(start, &tracefile.Send{Count: c.SendCount, Datatype: c.SendType, Dest: c.Dest, Tag: c.SendTag, Comm: c.Comm})
		if err != nil {
			return err
		}
		return w.recv(stop, c.RecvCount, c.RecvType, c.Source, c.RecvTag, c.Comm, c.Status)
	case *tracefile.Isend:
		return w.isend(start, c)
	case *tracefile.Issend:
		return w.isend(start, &c.Isend)
	case *tracefile.Irecv:
		return w.irecv(start, c)

	case *tracefile.Wait:
		return w.complete(stop, c.Request, c.Status)
	case *tracefile.Waitany:
		return w.completeAny(stop, c.Requests, c.Index, true, c.Status)
	case *tracefile.Waitall:
		return w.completeAll(stop, c.Requests, c.Statuses)
	case *tracefile.Waitsome:
		return w.completeSome(stop, c.Requests, c.Indices, c.Statuses)
	case *tracefile.Test:
		if !c.Flag {
			return nil
		}
		return w.complete(stop, c.Request, c.Status)
	case *tracefile.Testany:
		return w.completeAny(stop, c.Requests, c.Index, c.Flag, c.Status)
	case *tracefile.Testall:
		if !c.Flag {
			return nil
		}
		return w.completeAll(stop, c.Requests, c.Statuses)
	case *tracefile.Testsome:
		return w.completeSome(stop, c.Requests, c.Indices, c.Statuses)

	case *tracefile.Barrier:
		return w.collective(c.Comm, start, stop, collBarrier, noRoot, func(e volume.Estimator) volume.Volume {
			return e.Barrier()
		})
	case *tracefile.Bcast:
		return w.collective(c.Comm, start, stop, collBcast, c.Root, func(e volume.Estimator) volume.Volume {
			return e.Bcast(c.Datatype, c.Count, c.Root)
		})
	case *tracefile.Gather:
		return w.collective(c.Comm, start, stop, collGather, c.Root, func(e volume.Estimator) volume.Volume {
			return e.Gather(c.SendType, c.SendCount, c.RecvType, c.RecvCount, c.Root)
		})
	case *tracefile.Gatherv:
		return w.collective(c.Comm, start, stop, collGatherv, c.Root, func(e volume.Estimator) volume.Volume {
			return e.Gatherv(c.SendType, c.SendCount, c.RecvType, c.RecvCounts, c.Root)
		})
	case *tracefile.Scatter:
		return w.collective(c.Comm, start, stop, collScatter, c.Root, func(e volume.Estimator) volume.Volume {
			return e.Scatter(c.SendType, c.SendCount, c.RecvType, c.RecvCount, c.Root)
		})
	case *tracefile.Scatterv:
		return w.collective(c.Comm, start, stop, collScatterv, c.Root, func(e volume.Estimator) volume.Volume {
			return e.Scatterv(c.SendType, c.SendCounts, c.RecvType, c.RecvCount, c.Root)
		})
	case *tracefile.Reduce:
		return w.collective(c.Comm, start, stop, collReduce, c.Root, func(e volume.Estimator) volume.Volume {
			return e.Reduce(c.Datatype, c.Count, c.Root)
		})
	case *tracefile.Allreduce:
		return w.collective(c.Comm, start, stop, collAllreduce, noRoot, func(e volume.Estimator) volume.Volume {
			return e.Allreduce(c.Datatype, c.Count)
		})
	case *tracefile.Scan:
		return w.collective(c.Comm, start, stop, collScan, noRoot, func(e volume.Estimator) volume.Volume {
			return e.Scan(c.Datatype, c.Count)
		})
	case *tracefile.Allgather:
		return w.collective(c.Comm, start, stop, collAllgather, noRoot, func(e volume.Estimator) volume.Volume {
			return e.Allgather(c.SendType, c.SendCount, c.RecvType, c.RecvCount)
		})
	case *tracefile.Allgatherv:
		return w.collective(c.Comm, start, stop, collAllgatherv, noRoot, func(e volume.Estimator) volume.Volume {
			return e.Allgatherv(c.SendType, c.SendCount, c.RecvType, c.RecvCounts)
		})
	case *tracefile.Alltoall:
		return w.collective(c.Comm, start, stop, collAlltoall, noRoot, func(e volume.Estimator) volume.Volume {
			return e.Alltoall(c.RecvType, c.RecvCount)
		})
	case *tracefile.Alltoallv:
		return w.collective(c.Comm, start, stop, collAlltoallv, noRoot, func(e volume.Estimator) volume.Volume {
			return e.Alltoallv(c.RecvType, c.RecvCounts)
		})
	case *tracefile.ReduceScatter:
		return w.collective(c.Comm, start, stop, collReduceScatter, noRoot, func(e volume.Estimator) volume.Volume {
			return e.ReduceScatter(c.Datatype, c.RecvCounts)
		})
	}

	// Init, Finalize, Comm_group, Comm_set_name, group and type
	// constructors and generic calls only have a region
	return nil
}

func (w *Writer) checkRank(id int64, rank int) error {
	c, err := w.model.Lookup(id)
	if err != nil {
		return err
	}
	if c.LocalRank != rank {
		return errors.Newf(errors.ErrResolution, "MPI_Comm_rank on communicator %d returned %d instead of %d", id, rank, c.LocalRank)
	}
	return nil
}

func (w *Writer) checkSize(id int64, size int) error {
	c, err := w.model.Lookup(id)
	if err != nil {
		return err
	}
	if s := w.model.Size(c); s != size {
		return errors.Newf(errors.ErrResolution, "MPI_Comm_size on communicator %d returned %d instead of %d", id, size, s)
	}
	return nil
}

func (w *Writer) createHandle(parent int64, start, stop uint64) error {
	return w.collective(parent, start, stop, collCreateHandle, noRoot, func(volume.Estimator) volume.Volume {
		return volume.Volume{}
	})
}

// worldRank translates a rank of a communicator to a MPI_COMM_WORLD rank
func (w *Writer) worldRank(c *comm.Comm, rank int) (int, error) {
	g := w.model.GroupOf(c)
	world := g.WorldRank(rank)
	if world < 0 {
		return 0, errors.Newf(errors.ErrResolution, "rank %d is not valid for communicator %d of size %d", rank, c.LocalID, g.Size())
	}
	return world, nil
}

func (w *Writer) send(t uint64, s *tracefile.Send) error {
	c, err := w.model.Lookup(s.Comm)
	if err != nil {
		return err
	}
	if s.Dest == mpi.ProcNull {
		return nil
	}
	receiver, err := w.worldRank(c, s.Dest)
	if err != nil {
		return err
	}
	bytes := w.types.CountBytes(s.Datatype, s.Count)
	w.stats.sent(w.op, bytes)
	return w.events.MpiSend(t, receiver, w.commID(c), s.Tag, bytes)
}

func (w *Writer) recv(t uint64, count int, datatype int64, source int, tag int, id int64, status *tracefile.Status) error {
	c, err := w.model.Lookup(id)
	if err != nil {
		return err
	}
	if status != nil {
		source = status.Source
		tag = status.Tag
	}
	if source == mpi.ProcNull {
		return nil
	}
	if source == mpi.AnySource || tag == mpi.AnyTag {
		return errors.Newf(errors.ErrRequest, "wildcard receive on communicator %d without a status giving the actual source and tag", id)
	}
	sender, err := w.worldRank(c, source)
	if err != nil {
		return err
	}
	bytes := w.types.CountBytes(datatype, count)
	w.stats.received(w.op, bytes)
	return w.events.MpiRecv(t, sender, w.commID(c), tag, bytes)
}

func (w *Writer) isend(t uint64, s *tracefile.Isend) error {
	c, err := w.model.Lookup(s.Comm)
	if err != nil {
		return err
	}
	bytes := w.types.CountBytes(s.Datatype, s.Count)
	err = w.requests.Issue(s.Request, request.Pending{Kind: request.Isend, Bytes: bytes, Peer: s.Dest, Tag: s.Tag, Comm: c.Ref})
	if err != nil {
		return err
	}
	if s.Dest == mpi.ProcNull {
		return nil
	}
	receiver, err := w.worldRank(c, s.Dest)
	if err != nil {
		return err
	}
	w.stats.sent(w.op, bytes)
	return w.events.MpiIsend(t, receiver, w.commID(c), s.Tag, bytes, s.Request)
}

func (w *Writer) irecv(t uint64, r *tracefile.Irecv) error {
	c, err := w.model.Lookup(r.Comm)
	if err != nil {
		return err
	}
	bytes := w.types.CountBytes(r.Datatype, r.Count)
	err = w.requests.Issue(r.Request, request.Pending{Kind: request.Irecv, Bytes: bytes, Peer: r.Source, Tag: r.Tag, Comm: c.Ref})
	if err != nil {
		return err
	}
	if r.Source == mpi.ProcNull || r.Request == mpi.RequestNull {
		return nil
	}
	return w.events.MpiIrecvRequest(t, r.Request)
}

// complete writes the completion of a request, if it is not the null request
func (w *Writer) complete(t uint64, req int64, status *tracefile.Status) error {
	var s *request.Status
	if status != nil {
		s = &request.Status{Source: status.Source, Tag: status.Tag}
	}
	completion, ok, err := w.requests.Complete(req, s)
	if err != nil || !ok {
		return err
	}
	if completion.Peer == mpi.ProcNull {
		return nil
	}

	if completion.Kind == request.Isend {
		return w.events.MpiIsendComplete(t, req)
	}

	c := w.model.Comm(completion.Comm)
	sender, err := w.worldRank(c, completion.Peer)
	if err != nil {
		return err
	}
	w.stats.received(w.op, completion.Bytes)
	return w.events.MpiIrecv(t, sender, w.commID(c), completion.Tag, completion.Bytes, req)
}

func (w *Writer) completeAny(t uint64, reqs []int64, index int, flag bool, status *tracefile.Status) error {
	if !flag || index == mpi.Undefined {
		return nil
	}
	if index < 0 || index >= len(reqs) {
		return errors.Newf(errors.ErrRequest, "completed index %d out of %d requests", index, len(reqs))
	}
	return w.complete(t, reqs[index], status)
}

func statusAt(statuses []tracefile.Status, i int) *tracefile.Status {
	if i < len(statuses) {
		return &statuses[i]
	}
	return nil
}

func (w *Writer) completeAll(t uint64, reqs []int64, statuses []tracefile.Status) error {
	seen := make(map[int64]bool, len(reqs))
	for i, req := range reqs {
		if seen[req] {
			continue
		}
		seen[req] = true
		err := w.complete(t, req, statusAt(statuses, i))
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) completeSome(t uint64, reqs []int64, indices []int, statuses []tracefile.Status) error {
	for i, index := range indices {
		if index < 0 || index >= len(reqs) {
			return errors.Newf(errors.ErrRequest, "completed index %d out of %d requests", index, len(reqs))
		}
		err := w.complete(t, reqs[index], statusAt(statuses, i))
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) collective(id int64, start, stop uint64, name string, root int, estimate func(volume.Estimator) volume.Volume) error {
	c, err := w.model.Lookup(id)
	if err != nil {
		return err
	}
	e := volume.Estimator{
		Counter: w.types,
		Size:    w.model.Size(c),
		Rank:    c.LocalRank,
	}
	v := estimate(e)

	err = w.events.MpiCollectiveBegin(start)
	if err != nil {
		return err
	}
	w.stats.collective(w.op, v)
	return w.events.MpiCollectiveEnd(stop, name, w.commID(c), root, v.Sent, v.Received)
}
