//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package otf2writer

import (
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/registry"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// defaultTypeSize is the size assumed for the elements of an unknown datatype
const defaultTypeSize = 4

// datatypes knows the size of the predefined datatypes of a log and of the
// datatypes derived from them during the run
type datatypes struct {
	predefined map[int64]int64
	derived    *registry.Registry[int64]

	// warn reports an unknown datatype
	warn func(format string, args ...interface{})

	unknown int
}

func newDatatypes(infos []mpi.DatatypeInfo, warn func(format string, args ...interface{})) *datatypes {
	d := &datatypes{
		predefined: make(map[int64]int64),
		derived:    registry.New[int64]("datatype"),
		warn:       warn,
	}
	for _, info := range infos {
		d.predefined[info.Handle] = info.Size
	}
	return d
}

func (d *datatypes) size(datatype int64) (int64, bool) {
	if s, ok := d.predefined[datatype]; ok {
		return s, true
	}
	s, err := d.derived.Get(datatype)
	if err != nil {
		return 0, false
	}
	return s, true
}

// CountBytes returns the size of count elements of a datatype, assuming 4
// bytes per element when the datatype is unknown
func (d *datatypes) CountBytes(datatype int64, count int) int64 {
	s, ok := d.size(datatype)
	if !ok {
		d.unknown++
		d.warn("unknown datatype %d, assuming %d bytes per element", datatype, defaultTypeSize)
		s = defaultTypeSize
	}
	return s * int64(count)
}

func (d *datatypes) derive(oldtype int64, elements int, newtype int64) error {
	s, ok := d.size(oldtype)
	if !ok {
		return errors.Newf(errors.ErrUnknownType, "datatype %d derived from unknown datatype %d", newtype, oldtype)
	}
	if _, ok := d.predefined[newtype]; ok {
		return errors.Newf(errors.ErrResolution, "derived datatype %d uses the handle of a predefined datatype", newtype)
	}
	return d.derived.MakeNew(newtype, s*int64(elements))
}

// Contiguous is MPI_Type_contiguous
func (d *datatypes) Contiguous(count int, oldtype int64, newtype int64) error {
	return d.derive(oldtype, count, newtype)
}

// Vector is MPI_Type_vector. Only the data is counted, not the gaps.
func (d *datatypes) Vector(count int, blockLength int, oldtype int64, newtype int64) error {
	return d.derive(oldtype, count*blockLength, newtype)
}

// Commit is MPI_Type_commit, the datatype must exist
func (d *datatypes) Commit(datatype int64) error {
	if _, ok := d.size(datatype); !ok {
		return errors.Newf(errors.ErrUnknownType, "commit of unknown datatype %d", datatype)
	}
	return nil
}

// Free is MPI_Type_free
func (d *datatypes) Free(datatype int64) error {
	if _, ok := d.predefined[datatype]; ok {
		return errors.Newf(errors.ErrResolution, "free of predefined datatype %d", datatype)
	}
	return d.derived.Retire(datatype)
}

func (d *datatypes) Reverse() error {
	return d.derived.Reverse()
}
