//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package mpi gathers the MPI vocabulary shared by the trace reader and the
// converter: traced operations, reserved handle values and predefined
// datatypes.
package mpi

const (
	// AnySource is the value of a wildcard source in a receive
	AnySource = -1

	// AnyTag is the value of a wildcard tag in a receive
	AnyTag = -1

	// ProcNull is the peer value of a send/receive that does not communicate
	ProcNull = -2

	// Undefined is used for the color of a split that does not create a
	// communicator and for the index of a Waitany/Testany without completion
	Undefined = -32766

	// RequestNull is the handle of the null request. It is never tracked.
	RequestNull int64 = 0

	// CommNull is the handle returned to ranks that do not get a new communicator
	CommNull int64 = 0

	// GroupNull is the handle of the null group
	GroupNull int64 = 0
)

// Role describes what kind of region a traced operation is
type Role int

const (
	RoleFunction Role = iota
	RolePointToPoint
	RoleCollective
	RoleBarrier
	RoleManagement
)

func (r Role) String() string {
	switch r {
	case RolePointToPoint:
		return "point2point"
	case RoleCollective:
		return "coll_one2all"
	case RoleBarrier:
		return "barrier"
	case RoleManagement:
		return "management"
	}
	return "function"
}
