//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package unit

import "testing"

func TestBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1500, "1.50 KB"},
		{2000000, "2.00 MB"},
		{5000000000000000, "5000.00 TB"},
	}
	for _, tt := range tests {
		if s := Bytes(tt.bytes); s != tt.expected {
			t.Fatalf("Bytes(%d) = %s instead of %s", tt.bytes, s, tt.expected)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		ticks      uint64
		resolution uint64
		expected   string
	}{
		{1500, 1000000000, "1.50 microseconds"},
		{3, 1, "3.00 seconds"},
		{3600, 1, "3600.00 seconds"},
		{42, 0, "42 ticks"},
	}
	for _, tt := range tests {
		if s := Duration(tt.ticks, tt.resolution); s != tt.expected {
			t.Fatalf("Duration(%d, %d) = %s instead of %s", tt.ticks, tt.resolution, s, tt.expected)
		}
	}
}

func TestFromString(t *testing.T) {
	unitType, scale := FromString("MB")
	if unitType != DATA || scale != 2 {
		t.Fatalf("MB is %d/%d", unitType, scale)
	}
	unitType, scale = FromString("milliseconds")
	if unitType != TIME || scale != 2 {
		t.Fatalf("milliseconds is %d/%d", unitType, scale)
	}
	unitType, _ = FromString("parsecs")
	if unitType != -1 {
		t.Fatalf("unknown unit was recognized")
	}
}
