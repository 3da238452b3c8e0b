//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package location

import "testing"

func TestLocationFileNames(t *testing.T) {
	tests := []struct {
		input          string
		expectedID     uint64
		expectedSuffix string
		expectedErr    bool
	}{
		{input: EventFileName(12), expectedID: 12, expectedSuffix: ".evt"},
		{input: "/tmp/traces/" + DefinitionFileName(3), expectedID: 3, expectedSuffix: ".def"},
		{input: "3.txt", expectedErr: true},
		{input: "rank.evt", expectedErr: true},
	}

	for _, tt := range tests {
		id, suffix, err := ParseFileName(tt.input)
		if tt.expectedErr {
			if err == nil {
				t.Fatalf("ParseFileName(%s) succeeded", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseFileName(%s) failed: %s", tt.input, err)
		}
		if id != tt.expectedID || suffix != tt.expectedSuffix {
			t.Fatalf("ParseFileName(%s) returned %d/%s instead of %d/%s", tt.input, id, suffix, tt.expectedID, tt.expectedSuffix)
		}
	}
}

func TestAll(t *testing.T) {
	locations := All(3)
	if len(locations) != 3 {
		t.Fatalf("got %d locations instead of 3", len(locations))
	}
	for rank, l := range locations {
		if l.ID != uint64(rank) || l.CommWorldRank != rank {
			t.Fatalf("location %d has id %d and rank %d", rank, l.ID, l.CommWorldRank)
		}
	}
	if locations[2].GroupName != "MPI Rank 2" {
		t.Fatalf("unexpected group name %s", locations[2].GroupName)
	}
}
