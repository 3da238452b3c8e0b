//
// Copyright (c) 2021-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package location names the locations of an archive. Every rank of
// MPI_COMM_WORLD is a location group holding a single location, its master
// thread, and both are identified by the rank.
package location

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gvallee/mpi2otf2/internal/pkg/format"
)

const (
	// SystemTreeNodeName is the name of the root of the system tree
	SystemTreeNodeName = "machine"

	// SystemTreeNodeClass is the class of the root of the system tree
	SystemTreeNodeClass = "node"

	groupNameFormat    = "MPI Rank %d"
	locationNameFormat = "Master thread"
)

// RankLocation hosts all the data related to the location of a rank
type RankLocation struct {
	ID            uint64
	GroupID       uint64
	CommWorldRank int
	Name          string
	GroupName     string
}

// New returns the location of a rank of MPI_COMM_WORLD
func New(rank int) *RankLocation {
	return &RankLocation{
		ID:            uint64(rank),
		GroupID:       uint64(rank),
		CommWorldRank: rank,
		Name:          locationNameFormat,
		GroupName:     fmt.Sprintf(groupNameFormat, rank),
	}
}

// All returns the locations of all the ranks of a job
func All(worldSize int) []*RankLocation {
	locations := make([]*RankLocation, worldSize)
	for rank := range locations {
		locations[rank] = New(rank)
	}
	return locations
}

// EventFileName is the name of the file storing the events of a location
func EventFileName(id uint64) string {
	return strconv.FormatUint(id, 10) + format.EventFileSuffix
}

// DefinitionFileName is the name of the file storing the local definitions
// of a location
func DefinitionFileName(id uint64) string {
	return strconv.FormatUint(id, 10) + format.DefinitionFileSuffix
}

// ParseFileName returns the id of the location of an event or local
// definition file, along with the suffix of the file
func ParseFileName(path string) (uint64, string, error) {
	name := filepath.Base(path)
	suffix := filepath.Ext(name)
	if suffix != format.EventFileSuffix && suffix != format.DefinitionFileSuffix {
		return 0, "", fmt.Errorf("%s is neither an event nor a definition file", path)
	}
	id, err := strconv.ParseUint(strings.TrimSuffix(name, suffix), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid location file name %s: %w", path, err)
	}
	return id, suffix, nil
}
