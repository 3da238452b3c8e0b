//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package otf2writer

import (
	"sort"

	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/volume"
)

// OpStats are the statistics of one operation on one rank
type OpStats struct {
	Op            mpi.Op
	Calls         int
	Ticks         uint64
	BytesSent     int64
	BytesReceived int64
}

// Stats are the statistics of the conversion of one rank
type Stats struct {
	Rank int

	ops map[mpi.Op]*OpStats

	// MsgSizes are the sizes of all the point-to-point messages sent
	MsgSizes []int64

	Events       uint64
	Outstanding  int
	UnknownTypes int
}

func newStats(rank int) *Stats {
	return &Stats{
		Rank: rank,
		ops:  make(map[mpi.Op]*OpStats),
	}
}

func (s *Stats) get(op mpi.Op) *OpStats {
	o, ok := s.ops[op]
	if !ok {
		o = &OpStats{Op: op}
		s.ops[op] = o
	}
	return o
}

func (s *Stats) call(op mpi.Op, ticks uint64) {
	o := s.get(op)
	o.Calls++
	o.Ticks += ticks
}

func (s *Stats) sent(op mpi.Op, bytes int64) {
	s.get(op).BytesSent += bytes
	s.MsgSizes = append(s.MsgSizes, bytes)
}

func (s *Stats) received(op mpi.Op, bytes int64) {
	s.get(op).BytesReceived += bytes
}

func (s *Stats) collective(op mpi.Op, v volume.Volume) {
	o := s.get(op)
	o.BytesSent += v.Sent
	o.BytesReceived += v.Received
}

// Ops returns the statistics of every operation the rank called, in
// operation order
func (s *Stats) Ops() []OpStats {
	ops := make([]OpStats, 0, len(s.ops))
	for _, o := range s.ops {
		ops = append(ops, *o)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Op < ops[j].Op })
	return ops
}

// Op returns the statistics of one operation
func (s *Stats) Op(op mpi.Op) OpStats {
	if o, ok := s.ops[op]; ok {
		return *o
	}
	return OpStats{Op: op}
}

// Totals returns the bytes sent and received by the rank
func (s *Stats) Totals() (int64, int64) {
	var sent, received int64
	for _, o := range s.ops {
		sent += o.BytesSent
		received += o.BytesReceived
	}
	return sent, received
}
