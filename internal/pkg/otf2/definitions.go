//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package otf2

// ClockProperties describes the timestamps of the events
type ClockProperties struct {
	TimerResolution uint64 `yaml:"timer_resolution"`
	GlobalOffset    uint64 `yaml:"global_offset"`
	TraceLength     uint64 `yaml:"trace_length"`
}

// String is an entry of the string table; all the names of the other
// definitions are references to it
type String struct {
	ID    uint32 `yaml:"id"`
	Value string `yaml:"value"`
}

// Paradigm identifies the parallel programming model of the regions
type Paradigm struct {
	Name  uint32 `yaml:"name"`
	Class string `yaml:"class"`
}

// Region is a code region, one per traced MPI operation
type Region struct {
	ID       uint32 `yaml:"id"`
	Name     uint32 `yaml:"name"`
	Role     string `yaml:"role"`
	Paradigm string `yaml:"paradigm"`
}

// SystemTreeNode is a node of the system tree
type SystemTreeNode struct {
	ID    uint32 `yaml:"id"`
	Name  uint32 `yaml:"name"`
	Class uint32 `yaml:"class"`
}

// LocationGroup is a process, i.e. a MPI rank
type LocationGroup struct {
	ID               uint64 `yaml:"id"`
	Name             uint32 `yaml:"name"`
	Type             string `yaml:"type"`
	SystemTreeParent uint32 `yaml:"system_tree_parent"`
}

// Location is a thread of a location group
type Location struct {
	ID     uint64 `yaml:"id"`
	Name   uint32 `yaml:"name"`
	Type   string `yaml:"type"`
	Events uint64 `yaml:"events"`
	Group  uint64 `yaml:"group"`
}

const (
	// GroupTypeLocations is the type of the group of all the locations
	GroupTypeLocations = "COMM_LOCATIONS"

	// GroupTypeComm is the type of the groups of communicators
	GroupTypeComm = "COMM_GROUP"

	// GroupTypeSelf is the type of the group of MPI_COMM_SELF
	GroupTypeSelf = "COMM_SELF"
)

// Group is a list of members: locations for the location group, ranks in
// the locations group for communicator groups
type Group struct {
	ID      int64    `yaml:"id"`
	Name    uint32   `yaml:"name"`
	Type    string   `yaml:"type"`
	Members []uint64 `yaml:"members,flow,omitempty"`
}

// NoParent is the parent of communicators that are not derived from another one
const NoParent int64 = -1

// Comm is a communicator
type Comm struct {
	ID     int64  `yaml:"id"`
	Name   uint32 `yaml:"name"`
	Group  int64  `yaml:"group"`
	Parent int64  `yaml:"parent"`
}

// GlobalDefinitions gathers all the definitions shared by the locations
type GlobalDefinitions struct {
	Clock          ClockProperties  `yaml:"clock"`
	Strings        []String         `yaml:"strings,omitempty"`
	Paradigms      []Paradigm       `yaml:"paradigms,omitempty"`
	Regions        []Region         `yaml:"regions,omitempty"`
	SystemTree     []SystemTreeNode `yaml:"system_tree,omitempty"`
	LocationGroups []LocationGroup  `yaml:"location_groups,omitempty"`
	Locations      []Location       `yaml:"locations,omitempty"`
	Groups         []Group          `yaml:"groups,omitempty"`
	Comms          []Comm           `yaml:"comms,omitempty"`
}

// Lookup returns a string from its id
func (d *GlobalDefinitions) Lookup(id uint32) (string, bool) {
	for _, s := range d.Strings {
		if s.ID == id {
			return s.Value, true
		}
	}
	return "", false
}

// Mapping maps a local id of a location to a global id
type Mapping struct {
	Local  int64 `yaml:"local"`
	Global int64 `yaml:"global"`
}

// LocalDefinitions gathers the definitions specific to a location
type LocalDefinitions struct {
	Location     uint64    `yaml:"location"`
	CommMappings []Mapping `yaml:"comm_mappings,omitempty"`
}

// Global returns the global id of a local communicator id
func (d *LocalDefinitions) Global(local int64) (int64, bool) {
	for _, m := range d.CommMappings {
		if m.Local == local {
			return m.Global, true
		}
	}
	return 0, false
}

// FileDigest is the checksum of a file of the archive
type FileDigest struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// Anchor describes an archive
type Anchor struct {
	Version           int          `yaml:"version"`
	TraceID           string       `yaml:"trace_id"`
	Name              string       `yaml:"name"`
	Locations         []uint64     `yaml:"locations,flow,omitempty"`
	GlobalDefinitions bool         `yaml:"global_definitions"`
	Files             []FileDigest `yaml:"files,omitempty"`
}
