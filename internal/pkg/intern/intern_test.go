//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package intern

import (
	"reflect"
	"testing"
)

func TestStringTable(t *testing.T) {
	tests := []struct {
		input       []string
		expectedIDs []uint32
		expected    []string
	}{
		{
			input:       []string{"MPI_Send", "rank 0", "MPI_Send", "", "rank 1"},
			expectedIDs: []uint32{1, 2, 1, 0, 3},
			expected:    []string{"", "MPI_Send", "rank 0", "rank 1"},
		},
		{
			input:       nil,
			expectedIDs: nil,
			expected:    []string{""},
		},
	}

	for _, tt := range tests {
		table := NewStringTable()
		for i, s := range tt.input {
			id := table.Intern(s)
			if id != tt.expectedIDs[i] {
				t.Fatalf("%s got id %d instead of %d", s, id, tt.expectedIDs[i])
			}
		}
		if !reflect.DeepEqual(table.Strings(), tt.expected) {
			t.Fatalf("table is %v instead of %v", table.Strings(), tt.expected)
		}
		if s, ok := table.String(uint32(table.Len())); ok {
			t.Fatalf("out of range id returned %s", s)
		}
	}
}

func TestRegionTable(t *testing.T) {
	t1 := NewRegionTable("MPI_Init", "MPI_Send", "MPI_Recv")
	t2 := NewRegionTable("MPI_Init", "MPI_Send", "MPI_Recv")

	if t1.Use("MPI_Recv") != 2 || t2.Use("MPI_Send") != 1 {
		t.Fatalf("seeded tables assign different ids")
	}
	if id := t2.Use("user_region"); id != 3 {
		t.Fatalf("new region got id %d instead of 3", id)
	}

	t1.Merge(t2)
	var used []string
	for _, r := range t1.Regions() {
		if r.Used {
			used = append(used, r.Name)
		}
	}
	expected := []string{"MPI_Send", "MPI_Recv", "user_region"}
	if !reflect.DeepEqual(used, expected) {
		t.Fatalf("used regions are %v instead of %v", used, expected)
	}
}
