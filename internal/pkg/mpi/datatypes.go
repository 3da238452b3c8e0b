//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package mpi

// Predefined datatype handles, as written by the tracing layer when the log
// header does not carry its own datatype table.
const (
	Char int64 = iota + 1
	Byte
	Short
	Int
	Long
	LongLong
	UnsignedChar
	Unsigned
	UnsignedLong
	Float
	Double
	LongDouble
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Packed
)

// DatatypeInfo associates a datatype handle with its size in bytes
type DatatypeInfo struct {
	Handle int64
	Size   int64
}

// DefaultDatatypes returns the sizes of the predefined datatypes
func DefaultDatatypes() []DatatypeInfo {
	return []DatatypeInfo{
		{Char, 1},
		{Byte, 1},
		{Short, 2},
		{Int, 4},
		{Long, 8},
		{LongLong, 8},
		{UnsignedChar, 1},
		{Unsigned, 4},
		{UnsignedLong, 8},
		{Float, 4},
		{Double, 8},
		{LongDouble, 16},
		{Int8, 1},
		{Int16, 2},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Uint16, 2},
		{Uint32, 4},
		{Uint64, 8},
		{Packed, 1},
	}
}
