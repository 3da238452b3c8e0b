//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package format

import (
	"fmt"
	"sort"
)

const (
	// TraceFileMagic is the first bytes of every per-rank log of MPI calls
	TraceFileMagic = "MPITRACE"

	// TraceFileVersion is the version of the per-rank logs the converter understands
	TraceFileVersion = 1

	// TraceFileSuffix is the suffix of the per-rank logs
	TraceFileSuffix = ".mpitrace"

	// ArchiveVersion is the version of the archives generated by the converter
	ArchiveVersion = 1

	// AnchorFileSuffix is the suffix of the archive's anchor file
	AnchorFileSuffix = ".otf2"

	// DefinitionFileSuffix is the suffix of both the global and local definition files
	DefinitionFileSuffix = ".def"

	// EventFileSuffix is the suffix of event files
	EventFileSuffix = ".evt"

	// DefaultArchiveName is the name of the archive when none is specified
	DefaultArchiveName = "traces"

	// SummaryFilePrefix is the prefix of the conversion summary files
	SummaryFilePrefix = "conversion-summary"

	// DefaultMsgSizeThreshold is the default threshold to differentiate message and large messages.
	DefaultMsgSizeThreshold = 200
)

// TraceFileName returns the conventional name of the log of a rank
func TraceFileName(prefix string, rank int) string {
	return fmt.Sprintf("%s.rank%d%s", prefix, rank, TraceFileSuffix)
}

type KV struct {
	Key string
	Val int64
}
type KVList []KV

func (x KVList) Len() int { return len(x) }
func (x KVList) Less(i, j int) bool {
	if x[i].Val == x[j].Val {
		return x[i].Key < x[j].Key
	}
	return x[i].Val > x[j].Val
}
func (x KVList) Swap(i, j int) { x[i], x[j] = x[j], x[i] }

// ConvertMapToOrderedArrayByValue returns the content of a map ordered by
// decreasing value, ties being ordered by key
func ConvertMapToOrderedArrayByValue(m map[string]int64) KVList {
	var sortedArray KVList
	for k, v := range m {
		sortedArray = append(sortedArray, KV{Key: k, Val: v})
	}
	sort.Sort(sortedArray)
	return sortedArray
}
