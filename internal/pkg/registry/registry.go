//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package registry keeps track of the successive objects an MPI handle
// designates. MPI recycles handles once an object is freed, so a handle only
// identifies an object together with the number of times it was reused.
//
// A Registry is used twice over the same sequence of calls. During the first
// pass, objects are recorded with MakeNew and Get returns the latest one.
// Reverse then switches the registry to replay mode: the second pass sees the
// versions again in creation order, Retire dropping the oldest one each time
// the handle is freed.
package registry

import (
	"fmt"

	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// Registry maps a local handle to its versions, oldest first while
// recording, oldest last once reversed
type Registry[T any] struct {
	name     string
	versions map[int64][]T
	live     map[int64]int
	reversed bool
}

// New returns an empty registry. The name is only used in error messages.
func New[T any](name string) *Registry[T] {
	return &Registry[T]{
		name:     name,
		versions: make(map[int64][]T),
		live:     make(map[int64]int),
	}
}

// MakeNew records a new version for a handle, which becomes its current version
func (r *Registry[T]) MakeNew(id int64, v T) error {
	if r.reversed {
		return errors.Newf(errors.ErrResolution, "%s %d: cannot create a version after the first pass", r.name, id)
	}
	r.versions[id] = append(r.versions[id], v)
	r.live[id]++
	return nil
}

// Get returns the current version of a handle
func (r *Registry[T]) Get(id int64) (T, error) {
	var zero T
	list := r.versions[id]
	if len(list) == 0 || r.live[id] == 0 {
		return zero, errors.Newf(errors.ErrResolution, "%s %d has no live version", r.name, id)
	}
	return list[len(list)-1], nil
}

// Retire ends the lifetime of the oldest live version of a handle. While
// recording, versions are kept for the second pass; once reversed, the
// version is dropped and the next one becomes current.
func (r *Registry[T]) Retire(id int64) error {
	if r.live[id] == 0 {
		return errors.Newf(errors.ErrResolution, "%s %d freed without a live version", r.name, id)
	}
	r.live[id]--
	if !r.reversed {
		return nil
	}

	list := r.versions[id]
	list = list[:len(list)-1]
	if len(list) == 0 {
		delete(r.versions, id)
	} else {
		r.versions[id] = list
	}
	return nil
}

// Reverse switches the registry from recording to replay. It must be called
// exactly once, between the two passes.
func (r *Registry[T]) Reverse() error {
	if r.reversed {
		return fmt.Errorf("%s registry reversed twice", r.name)
	}
	r.reversed = true
	for id, list := range r.versions {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
		// every version created during the first pass is live again
		r.live[id] = len(list)
	}
	return nil
}
