//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package hash computes the digests recorded in the archive anchors
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// File returns the hex-encoded SHA-256 of a file
func File(path string) (string, error) {
	fileFd, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fileFd.Close()
	hasher := sha256.New()
	_, err = io.Copy(hasher, fileFd)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SameContent checks whether two files have the same digest
func SameContent(path1, path2 string) (bool, error) {
	h1, err := File(path1)
	if err != nil {
		return false, err
	}
	h2, err := File(path2)
	if err != nil {
		return false, err
	}
	return h1 == h2, nil
}
