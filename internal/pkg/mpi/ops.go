//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package mpi

// Op identifies a traced MPI call. The numerical values are the tags used in
// the trace files and must never be reordered.
type Op uint16

const (
	OpGeneric Op = iota
	OpInit
	OpFinalize
	OpCommRank
	OpCommSize
	OpCommDup
	OpCommSplit
	OpCommCreate
	OpCommGroup
	OpCommFree
	OpCommSetName
	OpGroupIncl
	OpGroupExcl
	OpGroupUnion
	OpGroupIntersection
	OpGroupDifference
	OpGroupRangeIncl
	OpGroupFree
	OpTypeContiguous
	OpTypeVector
	OpTypeCommit
	OpTypeFree
	OpSend
	OpSsend
	OpBsend
	OpRsend
	OpRecv
	OpSendrecv
	OpIsend
	OpIssend
	OpIrecv
	OpWait
	OpWaitany
	OpWaitall
	OpWaitsome
	OpTest
	OpTestany
	OpTestall
	OpTestsome
	OpBarrier
	OpBcast
	OpGather
	OpGatherv
	OpScatter
	OpScatterv
	OpReduce
	OpAllreduce
	OpScan
	OpAllgather
	OpAllgatherv
	OpAlltoall
	OpAlltoallv
	OpReduceScatter

	// NumOps is the number of known operations
	NumOps
)

type opInfo struct {
	name string
	role Role
}

var opTable = [NumOps]opInfo{
	OpGeneric:           {"MPI_Generic", RoleFunction},
	OpInit:              {"MPI_Init", RoleManagement},
	OpFinalize:          {"MPI_Finalize", RoleManagement},
	OpCommRank:          {"MPI_Comm_rank", RoleFunction},
	OpCommSize:          {"MPI_Comm_size", RoleFunction},
	OpCommDup:           {"MPI_Comm_dup", RoleCollective},
	OpCommSplit:         {"MPI_Comm_split", RoleCollective},
	OpCommCreate:        {"MPI_Comm_create", RoleCollective},
	OpCommGroup:         {"MPI_Comm_group", RoleFunction},
	OpCommFree:          {"MPI_Comm_free", RoleFunction},
	OpCommSetName:       {"MPI_Comm_set_name", RoleFunction},
	OpGroupIncl:         {"MPI_Group_incl", RoleFunction},
	OpGroupExcl:         {"MPI_Group_excl", RoleFunction},
	OpGroupUnion:        {"MPI_Group_union", RoleFunction},
	OpGroupIntersection: {"MPI_Group_intersection", RoleFunction},
	OpGroupDifference:   {"MPI_Group_difference", RoleFunction},
	OpGroupRangeIncl:    {"MPI_Group_range_incl", RoleFunction},
	OpGroupFree:         {"MPI_Group_free", RoleFunction},
	OpTypeContiguous:    {"MPI_Type_contiguous", RoleFunction},
	OpTypeVector:        {"MPI_Type_vector", RoleFunction},
	OpTypeCommit:        {"MPI_Type_commit", RoleFunction},
	OpTypeFree:          {"MPI_Type_free", RoleFunction},
	OpSend:              {"MPI_Send", RolePointToPoint},
	OpSsend:             {"MPI_Ssend", RolePointToPoint},
	OpBsend:             {"MPI_Bsend", RolePointToPoint},
	OpRsend:             {"MPI_Rsend", RolePointToPoint},
	OpRecv:              {"MPI_Recv", RolePointToPoint},
	OpSendrecv:          {"MPI_Sendrecv", RolePointToPoint},
	OpIsend:             {"MPI_Isend", RolePointToPoint},
	OpIssend:            {"MPI_Issend", RolePointToPoint},
	OpIrecv:             {"MPI_Irecv", RolePointToPoint},
	OpWait:              {"MPI_Wait", RolePointToPoint},
	OpWaitany:           {"MPI_Waitany", RolePointToPoint},
	OpWaitall:           {"MPI_Waitall", RolePointToPoint},
	OpWaitsome:          {"MPI_Waitsome", RolePointToPoint},
	OpTest:              {"MPI_Test", RolePointToPoint},
	OpTestany:           {"MPI_Testany", RolePointToPoint},
	OpTestall:           {"MPI_Testall", RolePointToPoint},
	OpTestsome:          {"MPI_Testsome", RolePointToPoint},
	OpBarrier:           {"MPI_Barrier", RoleBarrier},
	OpBcast:             {"MPI_Bcast", RoleCollective},
	OpGather:            {"MPI_Gather", RoleCollective},
	OpGatherv:           {"MPI_Gatherv", RoleCollective},
	OpScatter:           {"MPI_Scatter", RoleCollective},
	OpScatterv:          {"MPI_Scatterv", RoleCollective},
	OpReduce:            {"MPI_Reduce", RoleCollective},
	OpAllreduce:         {"MPI_Allreduce", RoleCollective},
	OpScan:              {"MPI_Scan", RoleCollective},
	OpAllgather:         {"MPI_Allgather", RoleCollective},
	OpAllgatherv:        {"MPI_Allgatherv", RoleCollective},
	OpAlltoall:          {"MPI_Alltoall", RoleCollective},
	OpAlltoallv:         {"MPI_Alltoallv", RoleCollective},
	OpReduceScatter:     {"MPI_Reduce_scatter", RoleCollective},
}

// Valid reports whether the op is a known operation
func (o Op) Valid() bool {
	return o < NumOps
}

// Name returns the MPI name of the operation, used as region name
func (o Op) Name() string {
	if !o.Valid() {
		return "MPI_Unknown"
	}
	return opTable[o].name
}

func (o Op) String() string {
	return o.Name()
}

// Role returns the region role of the operation
func (o Op) Role() Role {
	if !o.Valid() {
		return RoleFunction
	}
	return opTable[o].role
}

// AllOps returns every known operation in tag order
func AllOps() []Op {
	ops := make([]Op, 0, NumOps)
	for o := Op(0); o < NumOps; o++ {
		ops = append(ops, o)
	}
	return ops
}
