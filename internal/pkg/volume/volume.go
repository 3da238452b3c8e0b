//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package volume approximates the number of bytes a rank sends and receives
// during a collective operation. It does not model any actual algorithm: the
// figures only give the collective events of the trace a plausible size.
package volume

// ByteCounter returns the size in bytes of count elements of a datatype.
// Implementations fall back to a default size for unknown datatypes.
type ByteCounter interface {
	CountBytes(datatype int64, count int) int64
}

// Volume is the pair of byte counts attributed to the calling rank
type Volume struct {
	Sent     int64
	Received int64
}

// Estimator computes the volume of collectives on one communicator, from
// the point of view of the rank at position Rank of a communicator of Size
// ranks
type Estimator struct {
	Counter ByteCounter
	Size    int
	Rank    int
}

func sum(counts []int) int {
	s := 0
	for _, c := range counts {
		s += c
	}
	return s
}

func (e Estimator) isRoot(root int) bool {
	return e.Rank == root
}

// Barrier moves no data
func (e Estimator) Barrier() Volume {
	return Volume{}
}

// Bcast credits the data to the root only, as both sent and received
func (e Estimator) Bcast(datatype int64, count int, root int) Volume {
	if !e.isRoot(root) {
		return Volume{}
	}
	b := e.Counter.CountBytes(datatype, count)
	return Volume{Sent: b, Received: b}
}

func (e Estimator) Gather(sendtype int64, sendcount int, recvtype int64, recvcount int, root int) Volume {
	v := Volume{Sent: e.Counter.CountBytes(sendtype, sendcount)}
	if e.isRoot(root) {
		v.Received = e.Counter.CountBytes(recvtype, recvcount*e.Size)
	}
	return v
}

func (e Estimator) Gatherv(sendtype int64, sendcount int, recvtype int64, recvcounts []int, root int) Volume {
	v := Volume{Sent: e.Counter.CountBytes(sendtype, sendcount)}
	if e.isRoot(root) {
		v.Received = e.Counter.CountBytes(recvtype, sum(recvcounts))
	}
	return v
}

func (e Estimator) Scatter(sendtype int64, sendcount int, recvtype int64, recvcount int, root int) Volume {
	v := Volume{Received: e.Counter.CountBytes(recvtype, recvcount)}
	if e.isRoot(root) {
		v.Sent = e.Counter.CountBytes(sendtype, sendcount*e.Size)
	}
	return v
}

func (e Estimator) Scatterv(sendtype int64, sendcounts []int, recvtype int64, recvcount int, root int) Volume {
	v := Volume{Received: e.Counter.CountBytes(recvtype, recvcount)}
	if e.isRoot(root) {
		v.Sent = e.Counter.CountBytes(sendtype, sum(sendcounts))
	}
	return v
}

func (e Estimator) Reduce(datatype int64, count int, root int) Volume {
	b := e.Counter.CountBytes(datatype, count)
	v := Volume{Sent: b}
	if e.isRoot(root) {
		v.Received = b
	}
	return v
}

// Scan: rank r contributes to the Size-r last prefixes and receives the
// contributions of ranks 0..r
func (e Estimator) Scan(datatype int64, count int) Volume {
	b := e.Counter.CountBytes(datatype, count)
	return Volume{
		Sent:     int64(e.Size-e.Rank) * b,
		Received: int64(e.Rank+1) * b,
	}
}

func (e Estimator) Allgather(sendtype int64, sendcount int, recvtype int64, recvcount int) Volume {
	return Volume{
		Sent:     int64(e.Size) * e.Counter.CountBytes(sendtype, sendcount),
		Received: e.Counter.CountBytes(recvtype, recvcount*e.Size),
	}
}

func (e Estimator) Allgatherv(sendtype int64, sendcount int, recvtype int64, recvcounts []int) Volume {
	return Volume{
		Sent:     int64(e.Size) * e.Counter.CountBytes(sendtype, sendcount),
		Received: e.Counter.CountBytes(recvtype, sum(recvcounts)),
	}
}

// Alltoall uses the receive side for both directions
func (e Estimator) Alltoall(recvtype int64, recvcount int) Volume {
	b := int64(e.Size) * e.Counter.CountBytes(recvtype, recvcount)
	return Volume{Sent: b, Received: b}
}

// Alltoallv uses the total of the receive counts for both directions. Unlike
// Alltoall, the result is not multiplied by the size of the communicator:
// recvcounts holds one entry per peer, so its sum already is the volume
// exchanged with the whole communicator.
func (e Estimator) Alltoallv(recvtype int64, recvcounts []int) Volume {
	b := e.Counter.CountBytes(recvtype, sum(recvcounts))
	return Volume{Sent: b, Received: b}
}

func (e Estimator) Allreduce(datatype int64, count int) Volume {
	b := e.Counter.CountBytes(datatype, count) * int64(e.Size)
	return Volume{Sent: b, Received: b}
}

func (e Estimator) ReduceScatter(datatype int64, recvcounts []int) Volume {
	v := Volume{Sent: e.Counter.CountBytes(datatype, e.Size)}
	if e.Rank >= 0 && e.Rank < len(recvcounts) {
		v.Received = int64(e.Size) * e.Counter.CountBytes(datatype, recvcounts[e.Rank])
	}
	return v
}
