//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package otf2writer translates the calls of one rank into the events of its
// location in an archive.
//
// The calls are processed twice. The first pass (FirstPass) only resolves
// the identity of communicators, groups and datatypes. Once every rank is
// done with it, Barrier gives communicators their global identity. The
// second pass (Handle) writes the events, and rank 0 finally writes the
// global definitions of the archive.
package otf2writer

import (
	"fmt"
	"sort"

	"github.com/gvallee/mpi2otf2/internal/pkg/comm"
	"github.com/gvallee/mpi2otf2/internal/pkg/config"
	"github.com/gvallee/mpi2otf2/internal/pkg/intern"
	"github.com/gvallee/mpi2otf2/internal/pkg/location"
	"github.com/gvallee/mpi2otf2/internal/pkg/logger"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/otf2"
	"github.com/gvallee/mpi2otf2/internal/pkg/request"
	"github.com/gvallee/mpi2otf2/internal/pkg/tracefile"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// Options are the settings of a writer
type Options struct {
	Verbosity       logger.Verbosity
	TimerResolution uint64

	// GlobalCommIDs means that the communicator handles of the log already
	// are global ids
	GlobalCommIDs bool
}

// OptionsFromConfig extracts the options of the writers from a configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Verbosity:       cfg.Verbosity,
		TimerResolution: cfg.TimerResolution,
		GlobalCommIDs:   cfg.GlobalCommIDs,
	}
}

type state int

const (
	stateFirstPass state = iota
	stateResolved
	stateSecondPass
	stateDone
)

// Writer converts the calls of one rank
type Writer struct {
	Rank int
	Size int

	opts Options
	log  *logger.Logger

	model    *comm.Model
	types    *datatypes
	requests *request.Tracker
	regions  *intern.RegionTable
	location *location.RankLocation

	events *otf2.EventWriter
	stats  *Stats

	state state

	// index and operation of the record being processed
	index int
	op    mpi.Op

	// first error returned by a warning, with the abort verbosity
	warnErr error

	firstTime uint64
	lastTime  uint64
	timeSet   bool
}

func seedRegions() []string {
	ops := mpi.AllOps()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	return names
}

// NewWriter returns the writer of a rank of a job of size ranks
func NewWriter(rank int, size int, dts []mpi.DatatypeInfo, opts Options) *Writer {
	w := &Writer{
		Rank:     rank,
		Size:     size,
		opts:     opts,
		log:      logger.New(opts.Verbosity, rank),
		model:    comm.NewModel(rank, size),
		requests: request.NewTracker(),
		regions:  intern.NewRegionTable(seedRegions()...),
		location: location.New(rank),
		stats:    newStats(rank),
	}
	if len(dts) == 0 {
		dts = mpi.DefaultDatatypes()
	}
	w.types = newDatatypes(dts, w.warnf)
	return w
}

// NewWriterFromTrace returns the writer of the rank of a log
func NewWriterFromTrace(t *tracefile.Trace, opts Options) *Writer {
	return NewWriter(t.Header.Rank, t.Header.Size, t.Header.Datatypes, opts)
}

// Model returns the communicators and groups of the rank
func (w *Writer) Model() *comm.Model {
	return w.model
}

// Stats returns the statistics of the conversion of the rank
func (w *Writer) Stats() *Stats {
	return w.stats
}

func (w *Writer) warnf(format string, args ...interface{}) {
	err := w.log.Warnf(format, args...)
	if err != nil && w.warnErr == nil {
		w.warnErr = err
	}
}

func (w *Writer) callError(rec *tracefile.Record, err error) error {
	return fmt.Errorf("rank %d, call #%d (%s): %w", w.Rank, w.index, rec.Op(), err)
}

// FirstPass resolves the communicators, groups and datatypes created or
// freed by a call. No event is written.
func (w *Writer) FirstPass(rec *tracefile.Record) error {
	if w.state != stateFirstPass {
		return fmt.Errorf("rank %d: first pass already ended", w.Rank)
	}
	w.index++
	err := w.firstPass(rec)
	if err != nil {
		return w.callError(rec, err)
	}
	return nil
}

func (w *Writer) firstPass(rec *tracefile.Record) error {
	m := w.model
	switch c := rec.Call.(type) {
	case *tracefile.Generic:
		w.regions.Intern(c.Name)
	case *tracefile.Init:
		err := m.RegisterCommWorld(c.CommWorld, w.Size, w.Rank)
		if err != nil {
			return err
		}
		return m.RegisterCommSelf(c.CommSelf)
	case *tracefile.CommDup:
		err := m.Dup(c.Comm, c.NewComm)
		if err != nil {
			return err
		}
		w.log.Infof("communicator %d created from %d by %s", c.NewComm, c.Comm, rec.Op().Name())
	case *tracefile.CommSplit:
		err := m.Split(c.Comm, c.Color, c.Key, c.NewComm)
		if err != nil {
			return err
		}
		if c.NewComm == mpi.CommNull || c.Color == mpi.Undefined {
			w.log.Infof("%s of %d with color %d returned no communicator", rec.Op().Name(), c.Comm, c.Color)
			return nil
		}
		w.log.Infof("communicator %d created from %d by %s (color %d, key %d), group pending", c.NewComm, c.Comm, rec.Op().Name(), c.Color, c.Key)
	case *tracefile.CommCreate:
		err := m.Create(c.Comm, c.Group, c.NewComm)
		if err != nil {
			return err
		}
		if c.NewComm != mpi.CommNull {
			w.log.Infof("communicator %d created from %d by %s with group %d", c.NewComm, c.Comm, rec.Op().Name(), c.Group)
		}
	case *tracefile.CommGroup:
		err := m.CommGroup(c.Comm, c.Group, c.WorldRanks)
		if err != nil {
			return err
		}
		w.log.Infof("group %d bound to communicator %d", c.Group, c.Comm)
	case *tracefile.CommFree:
		err := m.Free(c.Comm)
		if err != nil {
			return err
		}
		w.log.Infof("version of communicator %d retired", c.Comm)
	case *tracefile.CommSetName:
		return m.SetName(c.Comm, c.Name)
	case *tracefile.GroupIncl:
		err := m.GroupIncl(c.Group, c.Ranks, c.NewGroup)
		if err != nil {
			return err
		}
		w.log.Infof("group %d created from %d by %s", c.NewGroup, c.Group, rec.Op().Name())
	case *tracefile.GroupExcl:
		err := m.GroupExcl(c.Group, c.Ranks, c.NewGroup)
		if err != nil {
			return err
		}
		w.log.Infof("group %d created from %d by %s", c.NewGroup, c.Group, rec.Op().Name())
	case *tracefile.GroupUnion:
		return m.GroupUnion(c.Group1, c.Group2, c.NewGroup)
	case *tracefile.GroupIntersection:
		return m.GroupIntersection(c.Group1, c.Group2, c.NewGroup)
	case *tracefile.GroupDifference:
		return m.GroupDifference(c.Group1, c.Group2, c.NewGroup)
	case *tracefile.GroupRangeIncl:
		return m.GroupRangeIncl(c.Group, c.NewGroup)
	case *tracefile.GroupFree:
		return m.GroupFree(c.Group)
	case *tracefile.TypeContiguous:
		return w.types.Contiguous(c.Count, c.OldType, c.NewType)
	case *tracefile.TypeVector:
		return w.types.Vector(c.Count, c.BlockLength, c.OldType, c.NewType)
	case *tracefile.TypeCommit:
		return w.types.Commit(c.Type)
	case *tracefile.TypeFree:
		return w.types.Free(c.Type)
	}
	return nil
}

// EndFirstPass switches the registries of the rank to the second pass
func (w *Writer) EndFirstPass() error {
	if w.state != stateFirstPass {
		return fmt.Errorf("rank %d: first pass already ended", w.Rank)
	}
	err := w.model.Reverse()
	if err == nil {
		err = w.types.Reverse()
	}
	if err != nil {
		return fmt.Errorf("rank %d: %w", w.Rank, err)
	}
	w.state = stateResolved
	w.index = 0
	return nil
}

// Barrier gives the communicators of all the ranks their global identity
// and the regions their global ids. Every writer must be done with its first
// pass.
func Barrier(writers []*Writer) error {
	var models []*comm.Model
	extra := make(map[string]bool)
	seed := seedRegions()
	seeded := make(map[string]bool, len(seed))
	for _, name := range seed {
		seeded[name] = true
	}

	for _, w := range writers {
		if w.state != stateResolved {
			return fmt.Errorf("rank %d did not end its first pass", w.Rank)
		}
		models = append(models, w.model)
		for _, r := range w.regions.Regions() {
			if !seeded[r.Name] {
				extra[r.Name] = true
			}
		}
	}

	if len(writers) > 0 && writers[0].opts.GlobalCommIDs {
		for _, m := range models {
			if m.World() == nil {
				return errors.Newf(errors.ErrResolution, "rank %d: MPI_COMM_WORLD was never registered", m.WorldRank)
			}
			comm.UseTraceIDs(m)
		}
	} else {
		err := comm.AssignGlobalIDs(models...)
		if err != nil {
			return err
		}
	}
	for _, w := range writers {
		for _, c := range w.model.Comms() {
			w.log.Infof("communicator %d (local id %d) has global id %d", c.LocalID, c.Ref, c.GlobalID)
		}
	}

	// regions that are not MPI operations get the same id on every rank
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, w := range writers {
		w.regions = intern.NewRegionTable(append(seedRegions(), names...)...)
	}
	return nil
}

// Begin starts the second pass: the event file of the rank is created
func (w *Writer) Begin(archive *otf2.Archive) error {
	if w.state != stateResolved {
		return fmt.Errorf("rank %d: second pass started before the end of the first pass", w.Rank)
	}
	if w.opts.TimerResolution <= config.DefaultTimerResolution {
		w.log.Errorf("timer resolution is %d tick per second, timestamps are meaningless", w.opts.TimerResolution)
	}
	events, err := archive.EventWriter(w.location.ID)
	if err != nil {
		return err
	}
	w.events = events
	w.state = stateSecondPass
	return nil
}

// commID returns the id of a communicator in the events of the rank
func (w *Writer) commID(c *comm.Comm) int64 {
	if w.opts.GlobalCommIDs {
		return c.GlobalID
	}
	return int64(c.Ref)
}

// End ends the second pass: requests never completed are reported, the
// event file is closed and the local definitions are written
func (w *Writer) End(archive *otf2.Archive) error {
	if w.state != stateSecondPass {
		return fmt.Errorf("rank %d: second pass ended before being started", w.Rank)
	}
	w.state = stateDone

	for _, req := range w.requests.Outstanding() {
		w.warnf("request %d was never completed", req)
	}
	w.stats.Outstanding = w.requests.Len()
	w.stats.UnknownTypes = w.types.unknown
	w.stats.Events = w.events.Count()

	err := w.events.Close()
	if err != nil {
		return err
	}
	if w.warnErr != nil {
		return w.warnErr
	}

	if w.opts.GlobalCommIDs {
		return nil
	}
	defs := &otf2.LocalDefinitions{Location: w.location.ID}
	for _, c := range w.model.Comms() {
		defs.CommMappings = append(defs.CommMappings, otf2.Mapping{Local: int64(c.Ref), Global: c.GlobalID})
	}
	return archive.WriteLocalDefinitions(defs)
}

func (w *Writer) timestamps(rec *tracefile.Record) (uint64, uint64, error) {
	if rec.Start < 0 || rec.Stop < rec.Start {
		return 0, 0, fmt.Errorf("invalid timestamps %d-%d", rec.Start, rec.Stop)
	}
	start, stop := uint64(rec.Start), uint64(rec.Stop)
	if !w.timeSet || start < w.firstTime {
		w.firstTime = start
	}
	if !w.timeSet || stop > w.lastTime {
		w.lastTime = stop
	}
	w.timeSet = true
	return start, stop, nil
}

// regionName returns the name of the region of a call
func regionName(rec *tracefile.Record) string {
	if g, ok := rec.Call.(*tracefile.Generic); ok {
		return g.Name
	}
	return rec.Op().Name()
}

// Handle writes the events of a call: entering its region, the events of
// its semantic, leaving its region
func (w *Writer) Handle(rec *tracefile.Record) error {
	if w.state != stateSecondPass {
		return fmt.Errorf("rank %d: call handled outside of the second pass", w.Rank)
	}
	w.index++
	w.op = rec.Op()

	start, stop, err := w.timestamps(rec)
	if err != nil {
		return w.callError(rec, err)
	}
	region := w.regions.Use(regionName(rec))

	err = w.events.Enter(start, region)
	if err != nil {
		return w.callError(rec, err)
	}
	err = w.dispatch(rec, start, stop)
	if err != nil {
		return w.callError(rec, err)
	}
	if w.warnErr != nil {
		return w.callError(rec, w.warnErr)
	}
	err = w.events.Leave(stop, region)
	if err != nil {
		return w.callError(rec, err)
	}

	w.stats.call(rec.Op(), stop-start)
	return nil
}
