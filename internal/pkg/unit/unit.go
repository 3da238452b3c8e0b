//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package unit

import "fmt"

const (
	// DATA represents the unit used for data volume (e.g., bytes)
	DATA = iota

	// TIME represents the unit used for time mesurements (e.g., seconds)
	TIME
)

func getDataUnits() map[int]string {
	return map[int]string{
		0: "B",
		1: "KB",
		2: "MB",
		3: "GB",
		4: "TB",
	}
}

func getTimeUnits() map[int]string {
	return map[int]string{
		3: "seconds",
		2: "milliseconds",
		1: "microseconds",
		0: "nanoseconds",
	}
}

func units(unitType int) map[int]string {
	switch unitType {
	case DATA:
		return getDataUnits()
	case TIME:
		return getTimeUnits()
	}
	return nil
}

// FromString translates a type identifier that is easy to manipate to a unit dataset
func FromString(unitID string) (int, int) {
	for _, unitType := range []int{DATA, TIME} {
		for lvl, val := range units(unitType) {
			if val == unitID {
				return unitType, lvl
			}
		}
	}
	return -1, -1
}

// ToString converts data about a dataset's unit to a string that is readable
func ToString(unitType int, unitScale int) string {
	return units(unitType)[unitScale]
}

// IsMax checks if a unit cannot be scaled up further
func IsMax(unitType int, unitScale int) bool {
	_, ok := units(unitType)[unitScale+1]
	return !ok
}

// Scale expresses a value in the largest unit keeping it above 1. value is
// in the smallest unit of the type (bytes or nanoseconds).
func Scale(unitType int, value float64) (float64, int) {
	scale := 0
	for value >= 1000 && !IsMax(unitType, scale) {
		value /= 1000
		scale++
	}
	return value, scale
}

// Bytes returns a human readable data volume
func Bytes(b int64) string {
	if b < 1000 {
		return fmt.Sprintf("%d %s", b, ToString(DATA, 0))
	}
	v, scale := Scale(DATA, float64(b))
	return fmt.Sprintf("%.2f %s", v, ToString(DATA, scale))
}

// Duration returns a human readable duration of a number of clock ticks,
// given the number of ticks per second
func Duration(ticks uint64, resolution uint64) string {
	if resolution == 0 {
		return fmt.Sprintf("%d ticks", ticks)
	}
	ns := float64(ticks) * 1e9 / float64(resolution)
	v, scale := Scale(TIME, ns)
	return fmt.Sprintf("%.2f %s", v, ToString(TIME, scale))
}
