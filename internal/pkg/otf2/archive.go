//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package otf2 writes and reads trace archives organized the OTF2 way: an
// anchor file, a global definition file and, for every location, an event
// file and a local definition file.
//
//	<dir>/<name>.otf2        anchor
//	<dir>/<name>.def         global definitions
//	<dir>/<name>/<loc>.evt   events of a location
//	<dir>/<name>/<loc>.def   local definitions of a location
package otf2

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gvallee/go_util/pkg/util"
	"gopkg.in/yaml.v3"

	"github.com/gvallee/mpi2otf2/internal/pkg/format"
	"github.com/gvallee/mpi2otf2/internal/pkg/hash"
	"github.com/gvallee/mpi2otf2/internal/pkg/location"
	"github.com/gvallee/mpi2otf2/internal/pkg/logger"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// Archive is an archive being written. Event writers of different locations
// can be used concurrently.
type Archive struct {
	Dir     string
	Name    string
	TraceID uuid.UUID

	log *logger.Logger

	mu                sync.Mutex
	writers           map[uint64]*EventWriter
	locations         map[uint64]bool
	localDefinitions  map[uint64]bool
	globalDefinitions bool
	closed            bool
}

// AnchorPath returns the path of the anchor file of an archive
func AnchorPath(dir, name string) string {
	return filepath.Join(dir, name+format.AnchorFileSuffix)
}

// GlobalDefinitionsPath returns the path of the global definition file of an archive
func GlobalDefinitionsPath(dir, name string) string {
	return filepath.Join(dir, name+format.DefinitionFileSuffix)
}

// LocationsDir returns the directory of the per-location files of an archive
func LocationsDir(dir, name string) string {
	return filepath.Join(dir, name)
}

// Open creates the directories of an archive if they do not exist yet and
// returns the archive ready for writing. l may be nil.
func Open(dir string, name string, l *logger.Logger) (*Archive, error) {
	if l == nil {
		l = logger.New(logger.Error, -1)
	}
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return nil, errors.Newf(errors.ErrArchiveIO, "invalid archive name %q", name)
	}

	a := &Archive{
		Dir:              dir,
		Name:             name,
		TraceID:          uuid.New(),
		log:              l,
		writers:          make(map[uint64]*EventWriter),
		locations:        make(map[uint64]bool),
		localDefinitions: make(map[uint64]bool),
	}

	locDir := LocationsDir(dir, name)
	if util.PathExists(locDir) {
		a.log.Infof("reusing archive directory %s", locDir)
	}
	err := os.MkdirAll(locDir, 0755)
	if err != nil {
		return nil, a.ioError(fmt.Errorf("unable to create %s: %w", locDir, err))
	}
	return a, nil
}

func (a *Archive) ioError(err error) error {
	a.log.Errorf("%s", err)
	return errors.New(errors.ErrArchiveIO, err)
}

func (a *Archive) check() error {
	if a.closed {
		return errors.Newf(errors.ErrArchiveIO, "archive %s is closed", a.Name)
	}
	return nil
}

// EventWriter creates the event file of a location
func (a *Archive) EventWriter(loc uint64) (*EventWriter, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.check()
	if err != nil {
		return nil, err
	}
	if _, ok := a.writers[loc]; ok || a.locations[loc] {
		return nil, errors.Newf(errors.ErrArchiveIO, "event writer of location %d requested twice", loc)
	}

	path := filepath.Join(LocationsDir(a.Dir, a.Name), location.EventFileName(loc))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, a.ioError(fmt.Errorf("unable to create %s: %w", path, err))
	}
	ew := &EventWriter{
		Location: loc,
		path:     path,
		f:        f,
		w:        bufio.NewWriter(f),
		archive:  a,
	}
	a.writers[loc] = ew
	a.locations[loc] = true
	return ew, nil
}

func (a *Archive) closeWriter(ew *EventWriter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.writers, ew.Location)
}

func (a *Archive) writeYAML(path string, v interface{}) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return a.ioError(fmt.Errorf("unable to create %s: %w", path, err))
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	err = enc.Encode(v)
	if err == nil {
		err = enc.Close()
	}
	if err != nil {
		f.Close()
		return a.ioError(fmt.Errorf("unable to write %s: %w", path, err))
	}

	err = f.Close()
	if err != nil {
		return a.ioError(fmt.Errorf("unable to close %s: %w", path, err))
	}
	return nil
}

// WriteLocalDefinitions writes the local definitions of a location
func (a *Archive) WriteLocalDefinitions(defs *LocalDefinitions) error {
	a.mu.Lock()
	err := a.check()
	if err == nil && a.localDefinitions[defs.Location] {
		err = errors.Newf(errors.ErrArchiveIO, "local definitions of location %d written twice", defs.Location)
	}
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.localDefinitions[defs.Location] = true
	a.mu.Unlock()

	path := filepath.Join(LocationsDir(a.Dir, a.Name), location.DefinitionFileName(defs.Location))
	return a.writeYAML(path, defs)
}

// WriteGlobalDefinitions writes the global definitions, which can only be
// done once
func (a *Archive) WriteGlobalDefinitions(defs *GlobalDefinitions) error {
	a.mu.Lock()
	err := a.check()
	if err == nil && a.globalDefinitions {
		err = errors.Newf(errors.ErrArchiveIO, "global definitions written twice")
	}
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.globalDefinitions = true
	a.mu.Unlock()

	return a.writeYAML(GlobalDefinitionsPath(a.Dir, a.Name), defs)
}

func (a *Archive) digest(path string) (FileDigest, error) {
	sum, err := hash.File(path)
	if err != nil {
		return FileDigest{}, err
	}
	rel, err := filepath.Rel(a.Dir, path)
	if err != nil {
		rel = path
	}
	return FileDigest{Path: rel, SHA256: sum}, nil
}

// Close closes the archive: event writers still open are closed and the
// anchor file is written. The archive can only be closed once. Every
// failure is logged and reported in the returned error.
func (a *Archive) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.Newf(errors.ErrArchiveIO, "archive %s closed twice", a.Name)
	}
	var open []*EventWriter
	for _, ew := range a.writers {
		open = append(open, ew)
	}
	a.mu.Unlock()

	var failures []string
	sort.Slice(open, func(i, j int) bool { return open[i].Location < open[j].Location })
	for _, ew := range open {
		a.log.Errorf("event writer of location %d was not closed", ew.Location)
		failures = append(failures, fmt.Sprintf("location %d not closed", ew.Location))
		err := ew.Close()
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	a.mu.Lock()
	a.closed = true
	anchor := &Anchor{
		Version:           format.ArchiveVersion,
		TraceID:           a.TraceID.String(),
		Name:              a.Name,
		GlobalDefinitions: a.globalDefinitions,
	}
	for loc := range a.locations {
		anchor.Locations = append(anchor.Locations, loc)
	}
	a.mu.Unlock()
	sort.Slice(anchor.Locations, func(i, j int) bool { return anchor.Locations[i] < anchor.Locations[j] })

	if !anchor.GlobalDefinitions {
		a.log.Errorf("archive %s has no global definitions", a.Name)
		failures = append(failures, "no global definitions")
	} else {
		d, err := a.digest(GlobalDefinitionsPath(a.Dir, a.Name))
		if err != nil {
			failures = append(failures, err.Error())
		} else {
			anchor.Files = append(anchor.Files, d)
		}
	}
	for _, loc := range anchor.Locations {
		d, err := a.digest(filepath.Join(LocationsDir(a.Dir, a.Name), location.EventFileName(loc)))
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		anchor.Files = append(anchor.Files, d)
	}

	err := a.writeYAML(AnchorPath(a.Dir, a.Name), anchor)
	if err != nil {
		failures = append(failures, err.Error())
	}

	if len(failures) > 0 {
		return errors.Newf(errors.ErrArchiveIO, "archive %s: %s", a.Name, strings.Join(failures, "; "))
	}
	return nil
}

func readYAML(path string, v interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(content, v)
	if err != nil {
		return fmt.Errorf("unable to parse %s: %w", path, err)
	}
	return nil
}

// ReadAnchor reads the anchor file of an archive
func ReadAnchor(dir, name string) (*Anchor, error) {
	anchor := new(Anchor)
	err := readYAML(AnchorPath(dir, name), anchor)
	if err != nil {
		return nil, err
	}
	if anchor.Version != format.ArchiveVersion {
		return nil, fmt.Errorf("archive version %d is not supported", anchor.Version)
	}
	return anchor, nil
}

// ReadGlobalDefinitions reads the global definitions of an archive
func ReadGlobalDefinitions(dir, name string) (*GlobalDefinitions, error) {
	defs := new(GlobalDefinitions)
	err := readYAML(GlobalDefinitionsPath(dir, name), defs)
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// ReadLocalDefinitions reads the local definitions of a location
func ReadLocalDefinitions(dir, name string, loc uint64) (*LocalDefinitions, error) {
	defs := new(LocalDefinitions)
	err := readYAML(filepath.Join(LocationsDir(dir, name), location.DefinitionFileName(loc)), defs)
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// ReadLocationEvents reads the events of a location of an archive
func ReadLocationEvents(dir, name string, loc uint64) ([]*Event, error) {
	return ReadEvents(filepath.Join(LocationsDir(dir, name), location.EventFileName(loc)))
}
