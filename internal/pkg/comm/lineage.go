//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package comm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gvallee/mpi2otf2/pkg/errors"
)

type creation int

const (
	creationWorld creation = iota
	creationSelf
	creationDup
	creationSplit
	creationCreate
)

func (c creation) String() string {
	switch c {
	case creationWorld:
		return "W"
	case creationSelf:
		return "S"
	case creationDup:
		return "d"
	case creationSplit:
		return "s"
	case creationCreate:
		return "c"
	}
	return "?"
}

// lineage identifies a communicator the same way on all its members: the
// n-th communicator created from a given parent with a given discriminator
// (color of a split, leader of a create) is the same communicator everywhere.
type lineage struct {
	parent        CommRef
	kind          creation
	ordinal       int
	discriminator int
}

type lineageEntry struct {
	key           string
	depth         int
	parentKey     string
	kind          creation
	ordinal       int
	discriminator int
}

// key returns the textual lineage of a communicator along with its depth
func (m *Model) key(c *Comm) (string, int) {
	switch c.lineage.kind {
	case creationWorld:
		return creationWorld.String(), 0
	case creationSelf:
		return fmt.Sprintf("%s@%d", creationSelf, m.WorldRank), 0
	}
	parentKey, depth := m.key(m.comms[c.lineage.parent])
	return fmt.Sprintf("%s/%s%d:%d", parentKey, c.lineage.kind, c.lineage.ordinal, c.lineage.discriminator), depth + 1
}

// Key returns the identifier of a communicator that all its members agree on
func (m *Model) Key(c *Comm) string {
	k, _ := m.key(c)
	return k
}

// AssignGlobalIDs gives the same global id to a communicator on all the
// ranks that are part of it. It must be called once all the models went
// through the first pass. MPI_COMM_WORLD and MPI_COMM_SELF keep their
// reserved ids; other communicators get dense ids starting right after.
func AssignGlobalIDs(models ...*Model) error {
	entries := make(map[string]*lineageEntry)
	for _, m := range models {
		if m == nil {
			continue
		}
		if m.World() == nil {
			return errors.Newf(errors.ErrResolution, "rank %d: MPI_COMM_WORLD was never registered", m.WorldRank)
		}
		for _, c := range m.comms {
			k, depth := m.key(c)
			if _, ok := entries[k]; ok {
				continue
			}
			e := &lineageEntry{key: k, depth: depth, kind: c.lineage.kind}
			if c.Parent != NoComm {
				e.parentKey = m.Key(m.comms[c.Parent])
				e.ordinal = c.lineage.ordinal
				e.discriminator = c.lineage.discriminator
			}
			entries[k] = e
		}
	}

	ids := make(map[string]int64, len(entries))
	maxDepth := 0
	for k, e := range entries {
		switch {
		case e.kind == creationWorld:
			ids[k] = CommWorldGlobalID
		case e.kind == creationSelf:
			ids[k] = CommSelfGlobalID
		}
		if e.depth > maxDepth {
			maxDepth = e.depth
		}
	}

	next := CommSelfGlobalID + 1
	for depth := 1; depth <= maxDepth; depth++ {
		var level []*lineageEntry
		for _, e := range entries {
			if e.depth == depth {
				level = append(level, e)
			}
		}
		sort.Slice(level, func(i, j int) bool {
			a, b := level[i], level[j]
			pa, pb := ids[a.parentKey], ids[b.parentKey]
			if pa != pb {
				return pa < pb
			}
			if a.ordinal != b.ordinal {
				return a.ordinal < b.ordinal
			}
			if a.kind != b.kind {
				return a.kind < b.kind
			}
			if a.discriminator != b.discriminator {
				return a.discriminator < b.discriminator
			}
			return strings.Compare(a.key, b.key) < 0
		})
		for _, e := range level {
			ids[e.key] = next
			next++
		}
	}

	for _, m := range models {
		if m == nil {
			continue
		}
		for _, c := range m.comms {
			c.GlobalID = ids[m.Key(c)]
		}
	}
	return nil
}

// UseTraceIDs marks the communicator handles of the trace as already being
// global ids
func UseTraceIDs(m *Model) {
	for _, c := range m.comms {
		c.GlobalID = c.LocalID
	}
}
