//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package request tracks the non-blocking requests of a rank between the
// call that issues them and the call that completes them.
package request

import (
	"sort"

	"github.com/gvallee/mpi2otf2/internal/pkg/comm"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// Kind is the type of a pending request
type Kind int

const (
	// Isend is a request issued by MPI_Isend and similar calls
	Isend Kind = iota

	// Irecv is a request issued by MPI_Irecv
	Irecv
)

func (k Kind) String() string {
	if k == Isend {
		return "ISEND"
	}
	return "IRECV"
}

// Pending is the state of a request between its issuance and its completion.
// Bytes, Peer, Tag and Comm are the parameters at issue time. Peer is the
// destination of a send or the source of a receive, as a rank in Comm; it
// may be mpi.ProcNull, or mpi.AnySource for a receive.
type Pending struct {
	Kind  Kind
	Bytes int64
	Peer  int
	Tag   int
	Comm  comm.CommRef
}

// Status is the status returned by a completion call, if the trace has one
type Status struct {
	Source int
	Tag    int
}

// Completion describes a completed request
type Completion struct {
	Request int64
	Pending
}

// Tracker maps the in-flight requests of a rank to their pending state
type Tracker struct {
	pending map[int64]Pending
}

// NewTracker returns a tracker without any pending request
func NewTracker() *Tracker {
	return &Tracker{
		pending: make(map[int64]Pending),
	}
}

// Issue records a new pending request. Issuing the null request is a no-op.
func (t *Tracker) Issue(req int64, p Pending) error {
	if req == mpi.RequestNull {
		return nil
	}
	if old, ok := t.pending[req]; ok {
		return errors.Newf(errors.ErrRequest, "request %d issued as %s while still pending as %s", req, p.Kind, old.Kind)
	}
	t.pending[req] = p
	return nil
}

// Complete consumes a pending request. For a receive, the source and tag
// come from the status when there is one, from the issue parameters
// otherwise, and must not be wildcards. ok is false for the null request.
func (t *Tracker) Complete(req int64, status *Status) (c Completion, ok bool, err error) {
	if req == mpi.RequestNull {
		return Completion{}, false, nil
	}
	p, found := t.pending[req]
	if !found {
		return Completion{}, false, errors.Newf(errors.ErrRequest, "completion of request %d that was never issued", req)
	}

	if p.Kind == Irecv {
		if status != nil {
			p.Peer = status.Source
			p.Tag = status.Tag
		}
		if p.Peer == mpi.AnySource || p.Tag == mpi.AnyTag {
			return Completion{}, false, errors.Newf(errors.ErrRequest, "request %d: wildcard receive completed without a status giving the actual source and tag", req)
		}
	}

	delete(t.pending, req)
	return Completion{Request: req, Pending: p}, true, nil
}

// Len returns the number of pending requests
func (t *Tracker) Len() int {
	return len(t.pending)
}

// Outstanding returns the requests that were never completed, sorted
func (t *Tracker) Outstanding() []int64 {
	reqs := make([]int64, 0, len(t.pending))
	for req := range t.pending {
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i] < reqs[j] })
	return reqs
}
