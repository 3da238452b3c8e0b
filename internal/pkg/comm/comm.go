//
// Copyright (c) 2021-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package comm models the communicators and groups of one rank as they can
// be reconstructed from the rank's own trace.
package comm

import (
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/registry"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

const (
	// CommWorldGlobalID is the global id of MPI_COMM_WORLD on every rank
	CommWorldGlobalID int64 = 0

	// CommSelfGlobalID is the global id of MPI_COMM_SELF on every rank
	CommSelfGlobalID int64 = 1

	// GroupLocationsGlobalID is the id of the group of all the locations of the archive
	GroupLocationsGlobalID int64 = 0

	// GroupWorldGlobalID is the global id of the group of MPI_COMM_WORLD
	GroupWorldGlobalID int64 = 1

	// GroupSelfGlobalID is the global id of the group of MPI_COMM_SELF
	GroupSelfGlobalID int64 = 2

	// NoGlobalID is the global id of objects that did not get one yet
	NoGlobalID int64 = -1

	// CommWorldName is the default name of MPI_COMM_WORLD
	CommWorldName = "MPI_COMM_WORLD"

	// CommSelfName is the default name of MPI_COMM_SELF
	CommSelfName = "MPI_COMM_SELF"
)

// CommRef is the index of a communicator in the arena of a Model. It is
// stable for the whole conversion and used as the local id of the
// communicator in the trace.
type CommRef int

// NoComm is the parent of communicators that are not derived from another one
const NoComm CommRef = -1

// Comm represents the information about a single communicator
type Comm struct {
	Ref CommRef

	// LocalID is the handle of the communicator in the trace
	LocalID  int64
	GlobalID int64
	Name     string

	Group  GroupRef
	Parent CommRef

	// IsRoot is true when the rank is rank 0 of the communicator
	IsRoot bool

	// IsSplit is true for communicators created by MPI_Comm_split. Their
	// group is only known once MPI_Comm_group is called on them.
	IsSplit bool

	IsCommWorld bool
	IsCommSelf  bool

	LocalRank int
	WorldRank int

	// Color and Key are the arguments of MPI_Comm_split
	Color int
	Key   int

	lineage  lineage
	children int
}

// Model gathers all the communicators and groups seen in the trace of one
// rank. Communicators and groups are stored in arenas and referenced by
// index; registries map the handles of the trace to those indexes.
type Model struct {
	WorldRank int
	WorldSize int

	comms  []*Comm
	groups []*Group

	commIDs  *registry.Registry[CommRef]
	groupIDs *registry.Registry[GroupRef]

	world      CommRef
	self       CommRef
	worldGroup GroupRef
	selfGroup  GroupRef

	// roots lists the communicators for which this rank is rank 0
	roots []CommRef
}

// NewModel returns an empty model for a rank
func NewModel(worldRank, worldSize int) *Model {
	return &Model{
		WorldRank:  worldRank,
		WorldSize:  worldSize,
		commIDs:    registry.New[CommRef]("communicator"),
		groupIDs:   registry.New[GroupRef]("group"),
		world:      NoComm,
		self:       NoComm,
		worldGroup: NoGroup,
		selfGroup:  NoGroup,
	}
}

func (m *Model) newComm(localID int64) *Comm {
	c := &Comm{
		Ref:       CommRef(len(m.comms)),
		LocalID:   localID,
		GlobalID:  NoGlobalID,
		Group:     NoGroup,
		Parent:    NoComm,
		LocalRank: -1,
		WorldRank: m.WorldRank,
	}
	m.comms = append(m.comms, c)
	return c
}

func (m *Model) addRoot(c *Comm) {
	c.IsRoot = true
	m.roots = append(m.roots, c.Ref)
}

// RegisterCommWorld registers MPI_COMM_WORLD and its group
func (m *Model) RegisterCommWorld(id int64, size int, rank int) error {
	if m.world != NoComm {
		return errors.Newf(errors.ErrResolution, "MPI_COMM_WORLD registered twice (handles %d and %d)", m.comms[m.world].LocalID, id)
	}
	if rank < 0 || rank >= size {
		return errors.Newf(errors.ErrResolution, "rank %d is not valid for MPI_COMM_WORLD of size %d", rank, size)
	}
	m.WorldRank = rank
	m.WorldSize = size

	g := m.newGroup(mpi.GroupNull, nil)
	g.IsCommWorld = true
	g.GlobalID = GroupWorldGlobalID
	m.worldGroup = g.Ref

	c := m.newComm(id)
	c.IsCommWorld = true
	c.GlobalID = CommWorldGlobalID
	c.Name = CommWorldName
	c.Group = g.Ref
	c.LocalRank = rank
	c.lineage.kind = creationWorld
	m.world = c.Ref
	m.addRoot(c)

	return m.commIDs.MakeNew(id, c.Ref)
}

// RegisterCommSelf registers MPI_COMM_SELF and its group
func (m *Model) RegisterCommSelf(id int64) error {
	if m.self != NoComm {
		return errors.Newf(errors.ErrResolution, "MPI_COMM_SELF registered twice (handles %d and %d)", m.comms[m.self].LocalID, id)
	}

	g := m.newGroup(mpi.GroupNull, nil)
	g.IsCommSelf = true
	g.GlobalID = GroupSelfGlobalID
	m.selfGroup = g.Ref

	c := m.newComm(id)
	c.IsCommSelf = true
	c.GlobalID = CommSelfGlobalID
	c.Name = CommSelfName
	c.Group = g.Ref
	c.LocalRank = 0
	c.lineage.kind = creationSelf
	m.self = c.Ref
	m.addRoot(c)

	return m.commIDs.MakeNew(id, c.Ref)
}

func (m *Model) lookupRef(id int64) (*Comm, error) {
	ref, err := m.commIDs.Get(id)
	if err != nil {
		return nil, err
	}
	return m.comms[ref], nil
}

func (m *Model) derive(parent *Comm, newcomm int64, kind creation, discriminator int) *Comm {
	c := m.newComm(newcomm)
	c.Parent = parent.Ref
	c.lineage = lineage{
		parent:        parent.Ref,
		kind:          kind,
		ordinal:       parent.children,
		discriminator: discriminator,
	}
	return c
}

// Dup is MPI_Comm_dup: the new communicator shares the group of its parent
func (m *Model) Dup(comm int64, newcomm int64) error {
	parent, err := m.lookupRef(comm)
	if err != nil {
		return err
	}
	parent.children++

	c := m.derive(parent, newcomm, creationDup, 0)
	c.Group = parent.Group
	c.LocalRank = parent.LocalRank
	c.IsSplit = parent.IsSplit && parent.Group == NoGroup
	c.Color = parent.Color
	c.Key = parent.Key
	if parent.IsRoot {
		m.addRoot(c)
	}

	return m.commIDs.MakeNew(newcomm, c.Ref)
}

// Create is MPI_Comm_create. Ranks that are not part of the group get
// MPI_COMM_NULL but still take part in the creation.
func (m *Model) Create(comm int64, group int64, newcomm int64) error {
	parent, err := m.lookupRef(comm)
	if err != nil {
		return err
	}
	parent.children++
	if newcomm == mpi.CommNull {
		return nil
	}

	g, err := m.LookupGroup(group)
	if err != nil {
		return err
	}
	localRank := g.GroupRank(m.WorldRank)
	if localRank < 0 {
		return errors.Newf(errors.ErrResolution, "MPI_Comm_create returned communicator %d but world rank %d is not in group %d", newcomm, m.WorldRank, group)
	}

	leader := g.WorldRank(0)
	c := m.derive(parent, newcomm, creationCreate, leader)
	c.Group = g.Ref
	c.LocalRank = localRank
	if leader == m.WorldRank {
		m.addRoot(c)
	}

	return m.commIDs.MakeNew(newcomm, c.Ref)
}

// Split is MPI_Comm_split. The group of the new communicator cannot be
// known from the trace of a single rank; it is bound when MPI_Comm_group is
// called on the new communicator.
func (m *Model) Split(comm int64, color int, key int, newcomm int64) error {
	parent, err := m.lookupRef(comm)
	if err != nil {
		return err
	}
	parent.children++
	if newcomm == mpi.CommNull || color == mpi.Undefined {
		return nil
	}

	c := m.derive(parent, newcomm, creationSplit, color)
	c.IsSplit = true
	c.Color = color
	c.Key = key

	return m.commIDs.MakeNew(newcomm, c.Ref)
}

// CommGroup is MPI_Comm_group. It binds the group of a split communicator
// or checks the group of any other communicator. worldRanks is the
// membership recorded in the trace, if any.
func (m *Model) CommGroup(comm int64, group int64, worldRanks []int) error {
	c, err := m.lookupRef(comm)
	if err != nil {
		return err
	}

	if c.Group == NoGroup {
		if !c.IsSplit {
			return errors.Newf(errors.ErrResolution, "communicator %d has no group", comm)
		}
		if len(worldRanks) == 0 {
			return errors.Newf(errors.ErrResolution, "MPI_Comm_group on split communicator %d does not record the group membership", comm)
		}
		g := m.newGroup(group, append([]int(nil), worldRanks...))
		localRank := g.GroupRank(m.WorldRank)
		if localRank < 0 {
			return errors.Newf(errors.ErrResolution, "world rank %d is not a member of the group of split communicator %d", m.WorldRank, comm)
		}

		// duplicates made before the group was known share it, as does the
		// split communicator they come from
		top := c
		for top.lineage.kind == creationDup {
			parent := m.Comm(top.Parent)
			if parent == nil || parent.Group != NoGroup {
				break
			}
			top = parent
		}
		m.bindSplitGroup(top, g.Ref, localRank)
		return m.groupIDs.MakeNew(group, g.Ref)
	}

	g := m.groups[c.Group]
	if len(worldRanks) > 0 && !g.sameMembers(worldRanks) {
		return errors.Newf(errors.ErrResolution, "MPI_Comm_group on communicator %d returned members %v instead of %v", comm, worldRanks, g.Members())
	}
	return m.groupIDs.MakeNew(group, g.Ref)
}

// bindSplitGroup gives a group to a split communicator and to all the
// duplicates derived from it that do not have a group yet
func (m *Model) bindSplitGroup(c *Comm, g GroupRef, localRank int) {
	c.Group = g
	c.LocalRank = localRank
	if localRank == 0 {
		m.addRoot(c)
	}
	for _, child := range m.comms {
		if child.Parent == c.Ref && child.lineage.kind == creationDup && child.Group == NoGroup {
			m.bindSplitGroup(child, g, localRank)
		}
	}
}

// Free is MPI_Comm_free
func (m *Model) Free(comm int64) error {
	return m.commIDs.Retire(comm)
}

// SetName is MPI_Comm_set_name
func (m *Model) SetName(comm int64, name string) error {
	c, err := m.lookupRef(comm)
	if err != nil {
		return err
	}
	c.Name = name
	return nil
}

// Reverse switches the registries of the model to the second pass
func (m *Model) Reverse() error {
	err := m.commIDs.Reverse()
	if err != nil {
		return err
	}
	return m.groupIDs.Reverse()
}

// Lookup returns the current communicator of a handle, which must be fully
// resolved: its group is known and consistent with the rank
func (m *Model) Lookup(id int64) (*Comm, error) {
	c, err := m.lookupRef(id)
	if err != nil {
		return nil, err
	}
	if c.Group == NoGroup {
		if c.IsSplit {
			return nil, errors.Newf(errors.ErrResolution, "communicator %d comes from MPI_Comm_split (color %d) and its group was never recorded", id, c.Color)
		}
		return nil, errors.Newf(errors.ErrResolution, "communicator %d has no group", id)
	}
	err = m.CheckRank(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CheckRank checks that the rank of the model is the member of the
// communicator's group at the communicator's local rank
func (m *Model) CheckRank(c *Comm) error {
	g := m.Group(c.Group)
	if g == nil {
		return errors.Newf(errors.ErrResolution, "communicator %d has no group", c.LocalID)
	}
	if w := g.WorldRank(c.LocalRank); w != m.WorldRank {
		return errors.Newf(errors.ErrResolution, "communicator %d: local rank %d is world rank %d instead of %d", c.LocalID, c.LocalRank, w, m.WorldRank)
	}
	return nil
}

// GroupOf returns the group of a communicator
func (m *Model) GroupOf(c *Comm) *Group {
	return m.Group(c.Group)
}

// Size returns the size of a communicator
func (m *Model) Size(c *Comm) int {
	g := m.Group(c.Group)
	if g == nil {
		return 0
	}
	return g.Size()
}

// Comm returns a communicator from its reference
func (m *Model) Comm(ref CommRef) *Comm {
	if ref < 0 || int(ref) >= len(m.comms) {
		return nil
	}
	return m.comms[ref]
}

// Comms returns all the communicators of the model, in creation order
func (m *Model) Comms() []*Comm {
	return append([]*Comm(nil), m.comms...)
}

// Roots returns the communicators for which the rank is rank 0
func (m *Model) Roots() []*Comm {
	roots := make([]*Comm, 0, len(m.roots))
	for _, ref := range m.roots {
		roots = append(roots, m.comms[ref])
	}
	return roots
}

// World returns MPI_COMM_WORLD, nil if it was not registered
func (m *Model) World() *Comm {
	return m.Comm(m.world)
}

// Self returns MPI_COMM_SELF, nil if it was not registered
func (m *Model) Self() *Comm {
	return m.Comm(m.self)
}
