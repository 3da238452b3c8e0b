//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package tracefile

import "github.com/gvallee/mpi2otf2/internal/pkg/mpi"

// Call is the set of arguments of one traced MPI call. Every concrete type
// below is a Call; the set is closed and keyed by Op().
type Call interface {
	Op() mpi.Op
}

// Status is the part of an MPI_Status the tracing layer records. Source is
// relative to the communicator of the call.
type Status struct {
	Source int
	Tag    int
}

// Generic is a call without semantic for the converter, only its region is
// written to the trace
type Generic struct {
	Name string
}

type Init struct {
	CommWorld int64
	CommSelf  int64
}

type Finalize struct{}

type CommRank struct {
	Comm int64
	Rank int
}

type CommSize struct {
	Comm int64
	Size int
}

type CommDup struct {
	Comm    int64
	NewComm int64
}

type CommSplit struct {
	Comm    int64
	Color   int
	Key     int
	NewComm int64
}

type CommCreate struct {
	Comm    int64
	Group   int64
	NewComm int64
}

// CommGroup is MPI_Comm_group. WorldRanks is the membership of the group as
// translated to MPI_COMM_WORLD ranks by the tracing layer; it may be empty
// when the layer did not record it.
type CommGroup struct {
	Comm       int64
	Group      int64
	WorldRanks []int
}

type CommFree struct {
	Comm int64
}

type CommSetName struct {
	Comm int64
	Name string
}

type GroupIncl struct {
	Group    int64
	Ranks    []int
	NewGroup int64
}

type GroupExcl struct {
	Group    int64
	Ranks    []int
	NewGroup int64
}

type GroupUnion struct {
	Group1   int64
	Group2   int64
	NewGroup int64
}

type GroupIntersection struct {
	Group1   int64
	Group2   int64
	NewGroup int64
}

type GroupDifference struct {
	Group1   int64
	Group2   int64
	NewGroup int64
}

// RankRange is one (first, last, stride) triplet of MPI_Group_range_incl
type RankRange struct {
	First  int
	Last   int
	Stride int
}

type GroupRangeIncl struct {
	Group    int64
	Ranges   []RankRange
	NewGroup int64
}

type GroupFree struct {
	Group int64
}

type TypeContiguous struct {
	Count   int
	OldType int64
	NewType int64
}

type TypeVector struct {
	Count       int
	BlockLength int
	Stride      int
	OldType     int64
	NewType     int64
}

type TypeCommit struct {
	Type int64
}

type TypeFree struct {
	Type int64
}

type Send struct {
	Count    int
	Datatype int64
	Dest     int
	Tag      int
	Comm     int64
}

type Ssend struct{ Send }
type Bsend struct{ Send }
type Rsend struct{ Send }

type Recv struct {
	Count    int
	Datatype int64
	Source   int
	Tag      int
	Comm     int64
	Status   *Status
}

type Sendrecv struct {
	SendCount int
	SendType  int64
	Dest      int
	SendTag   int
	RecvCount int
	RecvType  int64
	Source    int
	RecvTag   int
	Comm      int64
	Status    *Status
}

type Isend struct {
	Count    int
	Datatype int64
	Dest     int
	Tag      int
	Comm     int64
	Request  int64
}

type Issend struct{ Isend }

type Irecv struct {
	Count    int
	Datatype int64
	Source   int
	Tag      int
	Comm     int64
	Request  int64
}

type Wait struct {
	Request int64
	Status  *Status
}

type Waitany struct {
	Requests []int64
	Index    int
	Status   *Status
}

// Waitall is MPI_Waitall. Statuses is empty when MPI_STATUSES_IGNORE was used.
type Waitall struct {
	Requests []int64
	Statuses []Status
}

// Waitsome is MPI_Waitsome. The outcount of the call is len(Indices).
type Waitsome struct {
	Requests []int64
	Indices  []int
	Statuses []Status
}

type Test struct {
	Request int64
	Flag    bool
	Status  *Status
}

type Testany struct {
	Requests []int64
	Index    int
	Flag     bool
	Status   *Status
}

type Testall struct {
	Requests []int64
	Flag     bool
	Statuses []Status
}

type Testsome struct {
	Requests []int64
	Indices  []int
	Statuses []Status
}

type Barrier struct {
	Comm int64
}

type Bcast struct {
	Count    int
	Datatype int64
	Root     int
	Comm     int64
}

type Gather struct {
	SendCount int
	SendType  int64
	RecvCount int
	RecvType  int64
	Root      int
	Comm      int64
}

type Gatherv struct {
	SendCount  int
	SendType   int64
	RecvCounts []int
	RecvType   int64
	Root       int
	Comm       int64
}

type Scatter struct {
	SendCount int
	SendType  int64
	RecvCount int
	RecvType  int64
	Root      int
	Comm      int64
}

type Scatterv struct {
	SendCounts []int
	SendType   int64
	RecvCount  int
	RecvType   int64
	Root       int
	Comm       int64
}

type Reduce struct {
	Count     int
	Datatype  int64
	Operation int
	Root      int
	Comm      int64
}

type Allreduce struct {
	Count     int
	Datatype  int64
	Operation int
	Comm      int64
}

type Scan struct {
	Count     int
	Datatype  int64
	Operation int
	Comm      int64
}

type Allgather struct {
	SendCount int
	SendType  int64
	RecvCount int
	RecvType  int64
	Comm      int64
}

type Allgatherv struct {
	SendCount  int
	SendType   int64
	RecvCounts []int
	RecvType   int64
	Comm       int64
}

type Alltoall struct {
	SendCount int
	SendType  int64
	RecvCount int
	RecvType  int64
	Comm      int64
}

type Alltoallv struct {
	SendCounts []int
	SendType   int64
	RecvCounts []int
	RecvType   int64
	Comm       int64
}

type ReduceScatter struct {
	RecvCounts []int
	Datatype   int64
	Operation  int
	Comm       int64
}

func (*Generic) Op() mpi.Op           { return mpi.OpGeneric }
func (*Init) Op() mpi.Op              { return mpi.OpInit }
func (*Finalize) Op() mpi.Op          { return mpi.OpFinalize }
func (*CommRank) Op() mpi.Op          { return mpi.OpCommRank }
func (*CommSize) Op() mpi.Op          { return mpi.OpCommSize }
func (*CommDup) Op() mpi.Op           { return mpi.OpCommDup }
func (*CommSplit) Op() mpi.Op         { return mpi.OpCommSplit }
func (*CommCreate) Op() mpi.Op        { return mpi.OpCommCreate }
func (*CommGroup) Op() mpi.Op         { return mpi.OpCommGroup }
func (*CommFree) Op() mpi.Op          { return mpi.OpCommFree }
func (*CommSetName) Op() mpi.Op       { return mpi.OpCommSetName }
func (*GroupIncl) Op() mpi.Op         { return mpi.OpGroupIncl }
func (*GroupExcl) Op() mpi.Op         { return mpi.OpGroupExcl }
func (*GroupUnion) Op() mpi.Op        { return mpi.OpGroupUnion }
func (*GroupIntersection) Op() mpi.Op { return mpi.OpGroupIntersection }
func (*GroupDifference) Op() mpi.Op   { return mpi.OpGroupDifference }
func (*GroupRangeIncl) Op() mpi.Op    { return mpi.OpGroupRangeIncl }
func (*GroupFree) Op() mpi.Op         { return mpi.OpGroupFree }
func (*TypeContiguous) Op() mpi.Op    { return mpi.OpTypeContiguous }
func (*TypeVector) Op() mpi.Op        { return mpi.OpTypeVector }
func (*TypeCommit) Op() mpi.Op        { return mpi.OpTypeCommit }
func (*TypeFree) Op() mpi.Op          { return mpi.OpTypeFree }
func (*Send) Op() mpi.Op              { return mpi.OpSend }
func (*Ssend) Op() mpi.Op             { return mpi.OpSsend }
func (*Bsend) Op() mpi.Op             { return mpi.OpBsend }
func (*Rsend) Op() mpi.Op             { return mpi.OpRsend }
func (*Recv) Op() mpi.Op              { return mpi.OpRecv }
func (*Sendrecv) Op() mpi.Op          { return mpi.OpSendrecv }
func (*Isend) Op() mpi.Op             { return mpi.OpIsend }
func (*Issend) Op() mpi.Op            { return mpi.OpIssend }
func (*Irecv) Op() mpi.Op             { return mpi.OpIrecv }
func (*Wait) Op() mpi.Op              { return mpi.OpWait }
func (*Waitany) Op() mpi.Op           { return mpi.OpWaitany }
func (*Waitall) Op() mpi.Op           { return mpi.OpWaitall }
func (*Waitsome) Op() mpi.Op          { return mpi.OpWaitsome }
func (*Test) Op() mpi.Op              { return mpi.OpTest }
func (*Testany) Op() mpi.Op           { return mpi.OpTestany }
func (*Testall) Op() mpi.Op           { return mpi.OpTestall }
func (*Testsome) Op() mpi.Op          { return mpi.OpTestsome }
func (*Barrier) Op() mpi.Op           { return mpi.OpBarrier }
func (*Bcast) Op() mpi.Op             { return mpi.OpBcast }
func (*Gather) Op() mpi.Op            { return mpi.OpGather }
func (*Gatherv) Op() mpi.Op           { return mpi.OpGatherv }
func (*Scatter) Op() mpi.Op           { return mpi.OpScatter }
func (*Scatterv) Op() mpi.Op          { return mpi.OpScatterv }
func (*Reduce) Op() mpi.Op            { return mpi.OpReduce }
func (*Allreduce) Op() mpi.Op         { return mpi.OpAllreduce }
func (*Scan) Op() mpi.Op              { return mpi.OpScan }
func (*Allgather) Op() mpi.Op         { return mpi.OpAllgather }
func (*Allgatherv) Op() mpi.Op        { return mpi.OpAllgatherv }
func (*Alltoall) Op() mpi.Op          { return mpi.OpAlltoall }
func (*Alltoallv) Op() mpi.Op         { return mpi.OpAlltoallv }
func (*ReduceScatter) Op() mpi.Op     { return mpi.OpReduceScatter }

// newCall returns an empty call for a tag, nil if the tag is unknown
func newCall(op mpi.Op) Call {
	switch op {
	case mpi.OpGeneric:
		return new(Generic)
	case mpi.OpInit:
		return new(Init)
	case mpi.OpFinalize:
		return new(Finalize)
	case mpi.OpCommRank:
		return new(CommRank)
	case mpi.OpCommSize:
		return new(CommSize)
	case mpi.OpCommDup:
		return new(CommDup)
	case mpi.OpCommSplit:
		return new(CommSplit)
	case mpi.OpCommCreate:
		return new(CommCreate)
	case mpi.OpCommGroup:
		return new(CommGroup)
	case mpi.OpCommFree:
		return new(CommFree)
	case mpi.OpCommSetName:
		return new(CommSetName)
	case mpi.OpGroupIncl:
		return new(GroupIncl)
	case mpi.OpGroupExcl:
		return new(GroupExcl)
	case mpi.OpGroupUnion:
		return new(GroupUnion)
	case mpi.OpGroupIntersection:
		return new(GroupIntersection)
	case mpi.OpGroupDifference:
		return new(GroupDifference)
	case mpi.OpGroupRangeIncl:
		return new(GroupRangeIncl)
	case mpi.OpGroupFree:
		return new(GroupFree)
	case mpi.OpTypeContiguous:
		return new(TypeContiguous)
	case mpi.OpTypeVector:
		return new(TypeVector)
	case mpi.OpTypeCommit:
		return new(TypeCommit)
	case mpi.OpTypeFree:
		return new(TypeFree)
	case mpi.OpSend:
		return new(Send)
	case mpi.OpSsend:
		return new(Ssend)
	case mpi.OpBsend:
		return new(Bsend)
	case mpi.OpRsend:
		return new(Rsend)
	case mpi.OpRecv:
		return new(Recv)
	case mpi.OpSendrecv:
		return new(Sendrecv)
	case mpi.OpIsend:
		return new(Isend)
	case mpi.OpIssend:
		return new(Issend)
	case mpi.OpIrecv:
		return new(Irecv)
	case mpi.OpWait:
		return new(Wait)
	case mpi.OpWaitany:
		return new(Waitany)
	case mpi.OpWaitall:
		return new(Waitall)
	case mpi.OpWaitsome:
		return new(Waitsome)
	case mpi.OpTest:
		return new(Test)
	case mpi.OpTestany:
		return new(Testany)
	case mpi.OpTestall:
		return new(Testall)
	case mpi.OpTestsome:
		return new(Testsome)
	case mpi.OpBarrier:
		return new(Barrier)
	case mpi.OpBcast:
		return new(Bcast)
	case mpi.OpGather:
		return new(Gather)
	case mpi.OpGatherv:
		return new(Gatherv)
	case mpi.OpScatter:
		return new(Scatter)
	case mpi.OpScatterv:
		return new(Scatterv)
	case mpi.OpReduce:
		return new(Reduce)
	case mpi.OpAllreduce:
		return new(Allreduce)
	case mpi.OpScan:
		return new(Scan)
	case mpi.OpAllgather:
		return new(Allgather)
	case mpi.OpAllgatherv:
		return new(Allgatherv)
	case mpi.OpAlltoall:
		return new(Alltoall)
	case mpi.OpAlltoallv:
		return new(Alltoallv)
	case mpi.OpReduceScatter:
		return new(ReduceScatter)
	}
	return nil
}
