//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package otf2writer

import (
	"fmt"
	"sort"

	"github.com/gvallee/mpi2otf2/internal/pkg/comm"
	"github.com/gvallee/mpi2otf2/internal/pkg/config"
	"github.com/gvallee/mpi2otf2/internal/pkg/intern"
	"github.com/gvallee/mpi2otf2/internal/pkg/location"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/otf2"
)

const (
	paradigmName  = "MPI"
	paradigmClass = "process"
	groupNameAll  = "All locations"
)

// rootComm is a communicator along with the model of the rank it was found on
type rootComm struct {
	model *comm.Model
	comm  *comm.Comm
}

// groupEmitter writes every group at most once
type groupEmitter struct {
	strings *intern.StringTable
	groups  []otf2.Group
	emitted map[int64]bool
	next    int64
}

func (e *groupEmitter) emit(g *comm.Group) int64 {
	if g.Written {
		return g.GlobalID
	}
	if g.GlobalID == comm.NoGlobalID {
		g.GlobalID = e.next
		e.next++
	}
	g.Written = true
	if e.emitted[g.GlobalID] {
		return g.GlobalID
	}
	e.emitted[g.GlobalID] = true

	def := otf2.Group{ID: g.GlobalID, Type: otf2.GroupTypeComm}
	switch {
	case g.IsCommSelf:
		def.Type = otf2.GroupTypeSelf
		def.Name = e.strings.Intern(comm.CommSelfName)
	case g.IsCommWorld:
		def.Name = e.strings.Intern(comm.CommWorldName)
	}
	if !g.IsCommSelf {
		for _, r := range g.Members() {
			def.Members = append(def.Members, uint64(r))
		}
	}
	e.groups = append(e.groups, def)
	return g.GlobalID
}

// WriteGlobalDefinitions writes the definitions of the archive from the
// writers of all the ranks. It can only be called by rank 0, once every
// writer is done with its second pass.
func (w *Writer) WriteGlobalDefinitions(archive *otf2.Archive, all []*Writer) error {
	if w.Rank != 0 {
		return fmt.Errorf("rank %d cannot write the global definitions", w.Rank)
	}
	for _, other := range all {
		if other.state != stateDone {
			return fmt.Errorf("rank %d did not complete its second pass", other.Rank)
		}
	}
	if w.opts.TimerResolution <= config.DefaultTimerResolution {
		w.log.Errorf("the timer resolution was not set")
	}

	defs := new(otf2.GlobalDefinitions)
	strings := intern.NewStringTable()

	// clock
	defs.Clock.TimerResolution = w.opts.TimerResolution
	first, last, set := uint64(0), uint64(0), false
	for _, other := range all {
		if !other.timeSet {
			continue
		}
		if !set || other.firstTime < first {
			first = other.firstTime
		}
		if !set || other.lastTime > last {
			last = other.lastTime
		}
		set = true
	}
	defs.Clock.GlobalOffset = first
	defs.Clock.TraceLength = last - first

	// regions, in id order, only those entered on at least one rank. The
	// region tables of all the ranks are identical since the barrier.
	for _, other := range all {
		if other != w {
			w.regions.Merge(other.regions)
		}
	}
	roles := make(map[string]mpi.Role)
	for _, op := range mpi.AllOps() {
		roles[op.Name()] = op.Role()
	}
	for _, r := range w.regions.Regions() {
		if !r.Used {
			continue
		}
		defs.Regions = append(defs.Regions, otf2.Region{
			ID:       r.ID,
			Name:     strings.Intern(r.Name),
			Role:     roles[r.Name].String(),
			Paradigm: paradigmName,
		})
	}
	defs.Paradigms = []otf2.Paradigm{{Name: strings.Intern(paradigmName), Class: paradigmClass}}

	// system tree, location groups and locations
	defs.SystemTree = []otf2.SystemTreeNode{{
		ID:    0,
		Name:  strings.Intern(location.SystemTreeNodeName),
		Class: strings.Intern(location.SystemTreeNodeClass),
	}}
	events := make(map[int]uint64)
	for _, other := range all {
		events[other.Rank] = other.stats.Events
	}
	all0 := otf2.Group{ID: comm.GroupLocationsGlobalID, Name: strings.Intern(groupNameAll), Type: otf2.GroupTypeLocations}
	for _, l := range location.All(w.Size) {
		defs.LocationGroups = append(defs.LocationGroups, otf2.LocationGroup{
			ID:   l.GroupID,
			Name: strings.Intern(l.GroupName),
			Type: "process",
		})
		defs.Locations = append(defs.Locations, otf2.Location{
			ID:     l.ID,
			Name:   strings.Intern(l.Name),
			Type:   "cpu_thread",
			Events: events[l.CommWorldRank],
			Group:  l.GroupID,
		})
		all0.Members = append(all0.Members, l.ID)
	}

	// groups and communicators, one per global id
	ge := &groupEmitter{
		strings: strings,
		groups:  []otf2.Group{all0},
		emitted: map[int64]bool{comm.GroupLocationsGlobalID: true},
		next:    comm.GroupSelfGlobalID + 1,
	}
	roots := make(map[int64]rootComm)
	for _, other := range all {
		for _, c := range other.model.Roots() {
			if _, ok := roots[c.GlobalID]; !ok {
				roots[c.GlobalID] = rootComm{model: other.model, comm: c}
			}
		}
	}
	ids := make([]int64, 0, len(roots))
	for id := range roots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		rc := roots[id]
		g := rc.model.GroupOf(rc.comm)
		if g == nil {
			return fmt.Errorf("communicator %d has no group", id)
		}
		def := otf2.Comm{
			ID:     id,
			Name:   strings.Intern(rc.comm.Name),
			Group:  ge.emit(g),
			Parent: otf2.NoParent,
		}
		if parent := rc.model.Comm(rc.comm.Parent); parent != nil {
			def.Parent = parent.GlobalID
		}
		defs.Comms = append(defs.Comms, def)
	}
	defs.Groups = ge.groups

	for i, s := range strings.Strings() {
		defs.Strings = append(defs.Strings, otf2.String{ID: uint32(i), Value: s})
	}

	return archive.WriteGlobalDefinitions(defs)
}
