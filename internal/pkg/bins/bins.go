//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package bins

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gvallee/go_util/pkg/util"

	"github.com/gvallee/mpi2otf2/internal/pkg/otf2"
)

// Data is a bin: the number of messages with a size in [Min, Max). Max is -1
// for the last bin, which has no upper bound.
type Data struct {
	Min  int
	Max  int
	Size int
}

// Contains checks whether a message size belongs to the bin
func (b Data) Contains(size int64) bool {
	if size < int64(b.Min) {
		return false
	}
	return b.Max == -1 || size < int64(b.Max)
}

func (b Data) String() string {
	if b.Max == -1 {
		return fmt.Sprintf("%d+ bytes", b.Min)
	}
	return fmt.Sprintf("%d-%d bytes", b.Min, b.Max)
}

func getOutputFile(dir string, archiveName string, rank int, b Data) string {
	outputFile := fmt.Sprintf("bin.%s.rank%d_%d-%d.txt", archiveName, rank, b.Min, b.Max)
	if b.Max == -1 {
		outputFile = fmt.Sprintf("bin.%s.rank%d_%d+.txt", archiveName, rank, b.Min)
	}
	if dir != "" {
		outputFile = filepath.Join(dir, outputFile)
	}

	return outputFile
}

// FilesExist checks whether the bins of a rank were already saved
func FilesExist(outputDir string, archiveName string, rank int, listBins []int) bool {
	bins := Create(listBins)
	for _, b := range bins {
		if !util.PathExists(getOutputFile(outputDir, archiveName, rank, b)) {
			return false
		}
	}
	return true
}

// Create returns the empty bins delimited by a sorted list of thresholds
func Create(listBins []int) []Data {
	var bins []Data

	start := 0
	end := -1
	if len(listBins) > 0 {
		end = listBins[0]
	}
	for i := 0; i < len(listBins)+1; i++ {
		var b Data
		b.Min = start
		b.Max = end

		start = end
		if i+1 < len(listBins) {
			end = listBins[i+1]
		} else {
			end = -1 // Means no max
		}

		bins = append(bins, b)
	}

	return bins
}

// Add classifies message sizes into bins
func Add(bins []Data, sizes []int64) {
	for _, s := range sizes {
		for i := range bins {
			if bins[i].Contains(s) {
				bins[i].Size++
				break
			}
		}
	}
}

// GetFromMsgSizes classifies message sizes into the bins delimited by a list
// of thresholds
func GetFromMsgSizes(sizes []int64, listBins []int) []Data {
	bins := Create(listBins)
	Add(bins, sizes)
	return bins
}

// GetFromEvents classifies the messages sent by a location, blocking or
// not, into bins
func GetFromEvents(events []*otf2.Event, listBins []int) []Data {
	var sizes []int64
	for _, e := range events {
		if e.Kind == otf2.MpiSend || e.Kind == otf2.MpiIsend {
			sizes = append(sizes, e.Bytes)
		}
	}
	return GetFromMsgSizes(sizes, listBins)
}

// GetFromArchive classifies the messages of every location of an archive.
// The result is indexed by location id.
func GetFromArchive(dir string, archiveName string, listBins []int) (map[uint64][]Data, error) {
	defs, err := otf2.ReadGlobalDefinitions(dir, archiveName)
	if err != nil {
		return nil, err
	}

	bins := make(map[uint64][]Data)
	for _, l := range defs.Locations {
		events, err := otf2.ReadLocationEvents(dir, archiveName, l.ID)
		if err != nil {
			return nil, err
		}
		log.Printf("Creating bins out of %d events of location %d\n", len(events), l.ID)
		bins[l.ID] = GetFromEvents(events, listBins)
	}
	return bins, nil
}

// Save writes the data of all the bins into output file. The output files
// are created in a target output directory.
func Save(dir string, archiveName string, rank int, bins []Data) error {
	for _, b := range bins {
		outputFile := getOutputFile(dir, archiveName, rank, b)
		err := os.WriteFile(outputFile, []byte(fmt.Sprintf("%d\n", b.Size)), 0644)
		if err != nil {
			return fmt.Errorf("unable to write bin to file %s: %w", outputFile, err)
		}
	}
	return nil
}
