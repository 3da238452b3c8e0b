//
// Copyright (c) 2021-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package comm

import (
	"sort"

	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// GroupRef is the index of a group in the arena of a Model
type GroupRef int

// NoGroup is the reference of a communicator whose group is not known yet
const NoGroup GroupRef = -1

// Group is the resolved membership of an MPI group, in MPI_COMM_WORLD ranks.
// The membership of a group never changes once set: a group operation
// always creates a new Group.
type Group struct {
	Ref GroupRef

	// LocalID is the handle of the group when it was created
	LocalID int64

	// GlobalID is assigned when the group is first written in the
	// definitions, except for the world and self groups which use reserved ids
	GlobalID int64

	IsCommWorld bool
	IsCommSelf  bool

	// Written is set once the definition of the group has been written
	Written bool

	ranks     []int
	worldRank int
	worldSize int
}

// Size returns the number of members of the group
func (g *Group) Size() int {
	switch {
	case g.IsCommWorld:
		return g.worldSize
	case g.IsCommSelf:
		return 1
	}
	return len(g.ranks)
}

// WorldRank returns the MPI_COMM_WORLD rank of a member of the group, -1 if
// the rank is not valid for the group
func (g *Group) WorldRank(groupRank int) int {
	if groupRank < 0 || groupRank >= g.Size() {
		return -1
	}
	switch {
	case g.IsCommWorld:
		return groupRank
	case g.IsCommSelf:
		return g.worldRank
	}
	return g.ranks[groupRank]
}

// GroupRank returns the rank in the group of a MPI_COMM_WORLD rank, -1 if
// it is not a member
func (g *Group) GroupRank(worldRank int) int {
	switch {
	case g.IsCommWorld:
		if worldRank >= 0 && worldRank < g.worldSize {
			return worldRank
		}
		return -1
	case g.IsCommSelf:
		if worldRank == g.worldRank {
			return 0
		}
		return -1
	}
	for i, r := range g.ranks {
		if r == worldRank {
			return i
		}
	}
	return -1
}

// Members returns the MPI_COMM_WORLD ranks of the group members, in group order
func (g *Group) Members() []int {
	switch {
	case g.IsCommWorld:
		members := make([]int, g.worldSize)
		for i := range members {
			members[i] = i
		}
		return members
	case g.IsCommSelf:
		return []int{g.worldRank}
	}
	return append([]int(nil), g.ranks...)
}

func (g *Group) sameMembers(worldRanks []int) bool {
	if len(worldRanks) != g.Size() {
		return false
	}
	for i, r := range worldRanks {
		if g.WorldRank(i) != r {
			return false
		}
	}
	return true
}

func (m *Model) newGroup(localID int64, ranks []int) *Group {
	g := &Group{
		Ref:       GroupRef(len(m.groups)),
		LocalID:   localID,
		GlobalID:  NoGlobalID,
		ranks:     ranks,
		worldRank: m.WorldRank,
		worldSize: m.WorldSize,
	}
	m.groups = append(m.groups, g)
	return g
}

// Group returns a group from its reference
func (m *Model) Group(ref GroupRef) *Group {
	if ref < 0 || int(ref) >= len(m.groups) {
		return nil
	}
	return m.groups[ref]
}

// Groups returns all the groups of the model, in creation order
func (m *Model) Groups() []*Group {
	return append([]*Group(nil), m.groups...)
}

// LookupGroup returns the current group of a handle
func (m *Model) LookupGroup(id int64) (*Group, error) {
	ref, err := m.groupIDs.Get(id)
	if err != nil {
		return nil, err
	}
	return m.groups[ref], nil
}

// GroupIncl is MPI_Group_incl: the new group is made of the members at the
// given ranks of the parent group, in the order of the ranks
func (m *Model) GroupIncl(group int64, ranks []int, newgroup int64) error {
	parent, err := m.LookupGroup(group)
	if err != nil {
		return err
	}

	members := make([]int, len(ranks))
	for i, r := range ranks {
		members[i] = parent.WorldRank(r)
		if members[i] < 0 {
			return errors.Newf(errors.ErrResolution, "MPI_Group_incl: rank %d is not valid for group %d of size %d", r, group, parent.Size())
		}
	}

	g := m.newGroup(newgroup, members)
	return m.groupIDs.MakeNew(newgroup, g.Ref)
}

// GroupExcl is MPI_Group_excl: the new group is the parent group without
// the members at the given ranks, the others keeping their relative order
func (m *Model) GroupExcl(group int64, ranks []int, newgroup int64) error {
	parent, err := m.LookupGroup(group)
	if err != nil {
		return err
	}

	excluded := append([]int(nil), ranks...)
	sort.Ints(excluded)
	for _, r := range excluded {
		if r < 0 || r >= parent.Size() {
			return errors.Newf(errors.ErrResolution, "MPI_Group_excl: rank %d is not valid for group %d of size %d", r, group, parent.Size())
		}
	}

	var members []int
	next := 0
	for i := 0; i < parent.Size(); i++ {
		if next < len(excluded) && excluded[next] == i {
			for next < len(excluded) && excluded[next] == i {
				next++
			}
			continue
		}
		members = append(members, parent.WorldRank(i))
	}

	g := m.newGroup(newgroup, members)
	return m.groupIDs.MakeNew(newgroup, g.Ref)
}

// GroupUnion is MPI_Group_union, which the converter does not support
func (m *Model) GroupUnion(group1, group2, newgroup int64) error {
	return errors.Newf(errors.ErrUnimplemented, "MPI_Group_union(%d, %d) -> %d", group1, group2, newgroup)
}

// GroupIntersection is MPI_Group_intersection, which the converter does not support
func (m *Model) GroupIntersection(group1, group2, newgroup int64) error {
	return errors.Newf(errors.ErrUnimplemented, "MPI_Group_intersection(%d, %d) -> %d", group1, group2, newgroup)
}

// GroupDifference is MPI_Group_difference, which the converter does not support
func (m *Model) GroupDifference(group1, group2, newgroup int64) error {
	return errors.Newf(errors.ErrUnimplemented, "MPI_Group_difference(%d, %d) -> %d", group1, group2, newgroup)
}

// GroupRangeIncl is MPI_Group_range_incl, which the converter does not support
func (m *Model) GroupRangeIncl(group int64, newgroup int64) error {
	return errors.Newf(errors.ErrUnimplemented, "MPI_Group_range_incl(%d) -> %d", group, newgroup)
}

// GroupFree is MPI_Group_free
func (m *Model) GroupFree(group int64) error {
	return m.groupIDs.Retire(group)
}
