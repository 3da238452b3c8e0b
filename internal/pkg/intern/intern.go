//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package intern deduplicates the strings and region names written in the
// definitions of a trace archive.
package intern

// StringTable maps strings to the smallest unused identifier. Identifier 0
// is always the empty string.
type StringTable struct {
	ids     map[string]uint32
	strings []string
}

// NewStringTable returns a table holding only the empty string
func NewStringTable() *StringTable {
	t := &StringTable{ids: make(map[string]uint32)}
	t.Intern("")
	return t
}

// Intern returns the identifier of a string, allocating it if needed
func (t *StringTable) Intern(s string) uint32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := uint32(len(t.strings))
	t.ids[s] = id
	t.strings = append(t.strings, s)
	return id
}

// Lookup returns the identifier of a string without allocating it
func (t *StringTable) Lookup(s string) (uint32, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// String returns the string associated to an identifier
func (t *StringTable) String(id uint32) (string, bool) {
	if int(id) >= len(t.strings) {
		return "", false
	}
	return t.strings[id], true
}

// Len returns the number of strings in the table
func (t *StringTable) Len() int {
	return len(t.strings)
}

// Strings returns all the strings in insertion order; the index of a string
// is its identifier
func (t *StringTable) Strings() []string {
	return append([]string(nil), t.strings...)
}

// Region is one entry of a RegionTable
type Region struct {
	ID   uint32
	Name string
	Used bool
}

// RegionTable maps region names to identifiers in insertion order and
// remembers which regions were actually entered
type RegionTable struct {
	ids     map[string]uint32
	regions []Region
}

// NewRegionTable returns a table with the given names already interned, in
// order, so that tables seeded identically assign identical identifiers
func NewRegionTable(seed ...string) *RegionTable {
	t := &RegionTable{ids: make(map[string]uint32)}
	for _, name := range seed {
		t.Intern(name)
	}
	return t
}

// Intern returns the identifier of a region, allocating it if needed
func (t *RegionTable) Intern(name string) uint32 {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := uint32(len(t.regions))
	t.ids[name] = id
	t.regions = append(t.regions, Region{ID: id, Name: name})
	return id
}

// Use interns a region and marks it as entered
func (t *RegionTable) Use(name string) uint32 {
	id := t.Intern(name)
	t.regions[id].Used = true
	return id
}

// Len returns the number of regions in the table
func (t *RegionTable) Len() int {
	return len(t.regions)
}

// Regions returns all the regions in insertion order
func (t *RegionTable) Regions() []Region {
	return append([]Region(nil), t.regions...)
}

// Merge marks as used every region used in another table. Both tables must
// have been seeded identically.
func (t *RegionTable) Merge(other *RegionTable) {
	for _, r := range other.regions {
		id := t.Intern(r.Name)
		if r.Used {
			t.regions[id].Used = true
		}
	}
}
