//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package volume

import (
	"testing"
)

const (
	int32Type  int64 = 1
	doubleType int64 = 2
)

type sizes map[int64]int64

func (s sizes) CountBytes(datatype int64, count int) int64 {
	size, ok := s[datatype]
	if !ok {
		size = 4
	}
	return size * int64(count)
}

var counter = sizes{int32Type: 4, doubleType: 8}

func TestCollectiveVolumes(t *testing.T) {
	tests := []struct {
		name     string
		rank     int
		compute  func(e Estimator) Volume
		expected Volume
	}{
		{"barrier", 0, func(e Estimator) Volume { return e.Barrier() }, Volume{}},
		{"bcast root", 0, func(e Estimator) Volume { return e.Bcast(int32Type, 10, 0) }, Volume{40, 40}},
		{"bcast non root", 1, func(e Estimator) Volume { return e.Bcast(int32Type, 10, 0) }, Volume{0, 0}},
		{"gather root", 2, func(e Estimator) Volume { return e.Gather(doubleType, 2, doubleType, 2, 2) }, Volume{16, 64}},
		{"gather non root", 1, func(e Estimator) Volume { return e.Gather(doubleType, 2, doubleType, 2, 2) }, Volume{16, 0}},
		{"gatherv root", 0, func(e Estimator) Volume { return e.Gatherv(int32Type, 1, int32Type, []int{1, 2, 3, 4}, 0) }, Volume{4, 40}},
		{"scatter root", 0, func(e Estimator) Volume { return e.Scatter(int32Type, 3, int32Type, 3, 0) }, Volume{48, 12}},
		{"scatter non root", 3, func(e Estimator) Volume { return e.Scatter(int32Type, 3, int32Type, 3, 0) }, Volume{0, 12}},
		{"scatterv root", 1, func(e Estimator) Volume { return e.Scatterv(int32Type, []int{1, 1, 2, 2}, int32Type, 1, 1) }, Volume{24, 4}},
		{"reduce root", 0, func(e Estimator) Volume { return e.Reduce(doubleType, 4, 0) }, Volume{32, 32}},
		{"reduce non root", 2, func(e Estimator) Volume { return e.Reduce(doubleType, 4, 0) }, Volume{32, 0}},
		{"scan", 1, func(e Estimator) Volume { return e.Scan(int32Type, 2) }, Volume{24, 16}},
		{"allgather", 0, func(e Estimator) Volume { return e.Allgather(int32Type, 2, int32Type, 2) }, Volume{32, 32}},
		{"allgatherv", 0, func(e Estimator) Volume { return e.Allgatherv(int32Type, 1, int32Type, []int{1, 1, 1, 5}) }, Volume{16, 32}},
		{"alltoall", 3, func(e Estimator) Volume { return e.Alltoall(doubleType, 1) }, Volume{32, 32}},
		{"alltoallv", 3, func(e Estimator) Volume { return e.Alltoallv(doubleType, []int{1, 0, 2, 1}) }, Volume{32, 32}},
		{"allreduce", 2, func(e Estimator) Volume { return e.Allreduce(int32Type, 3) }, Volume{48, 48}},
		{"reduce_scatter", 1, func(e Estimator) Volume { return e.ReduceScatter(int32Type, []int{1, 2, 3, 4}) }, Volume{16, 32}},
		{"unknown type", 0, func(e Estimator) Volume { return e.Allreduce(99, 1) }, Volume{16, 16}},
	}

	for _, tt := range tests {
		e := Estimator{Counter: counter, Size: 4, Rank: tt.rank}
		v := tt.compute(e)
		if v != tt.expected {
			t.Fatalf("%s: got %+v instead of %+v", tt.name, v, tt.expected)
		}
	}
}
