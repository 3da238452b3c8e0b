//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package notation handles the compressed notation of rank lists, e.g.
// "0-6,8-10,42".
package notation

import (
	"fmt"
	"strconv"
	"strings"
)

func addRange(str string, start int, end int) string {
	if str == "" {
		return fmt.Sprintf("%d-%d", start, end)
	}
	return fmt.Sprintf("%s,%d-%d", str, start, end)
}

func addSingleton(str string, n int) string {

	if str == "" {
		return fmt.Sprintf("%d", n)
	}

	return fmt.Sprintf("%s,%d", str, n)
}

// CompressIntArray returns the compressed notation of a list of ranks. The
// order of the list is kept: only increasing sequences become ranges.
func CompressIntArray(array []int) string {
	compressedRep := ""
	for i := 0; i < len(array); i++ {
		start := i
		for i+1 < len(array) && array[i]+1 == array[i+1] {
			i++
		}
		if i != start {
			// We found a range
			compressedRep = addRange(compressedRep, array[start], array[i])
		} else {
			// We found a singleton
			compressedRep = addSingleton(compressedRep, array[i])
		}
	}
	return compressedRep
}

func parseToken(t string) (int, int, error) {
	t = strings.TrimSpace(t)
	bounds := strings.Split(t, "-")
	switch len(bounds) {
	case 1:
		val, err := strconv.Atoi(bounds[0])
		return val, val, err
	case 2:
		start, err := strconv.Atoi(bounds[0])
		if err != nil {
			return 0, 0, err
		}
		end, err := strconv.Atoi(bounds[1])
		if err != nil {
			return 0, 0, err
		}
		if end < start {
			return 0, 0, fmt.Errorf("invalid range %s", t)
		}
		return start, end, nil
	}
	return 0, 0, fmt.Errorf("invalid token %s", t)
}

// ConvertCompressedRankListToIntSlice expands a compressed notation
func ConvertCompressedRankListToIntSlice(str string) ([]int, error) {
	var ranks []int
	if strings.TrimSpace(str) == "" {
		return ranks, nil
	}
	for _, t := range strings.Split(str, ",") {
		start, end, err := parseToken(t)
		if err != nil {
			return nil, err
		}
		for r := start; r <= end; r++ {
			ranks = append(ranks, r)
		}
	}
	return ranks, nil
}

// GetNumberOfRanksFromCompressedNotation returns the number of ranks in a
// compressed notation without expanding it
func GetNumberOfRanksFromCompressedNotation(str string) (int, error) {
	num := 0
	if strings.TrimSpace(str) == "" {
		return 0, nil
	}
	for _, t := range strings.Split(str, ",") {
		start, end, err := parseToken(t)
		if err != nil {
			return 0, err
		}
		num += end - start + 1
	}
	return num, nil
}
