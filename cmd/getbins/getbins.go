//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/gvallee/go_util/pkg/util"

	"github.com/gvallee/mpi2otf2/internal/pkg/bins"
	"github.com/gvallee/mpi2otf2/internal/pkg/config"
	"github.com/gvallee/mpi2otf2/internal/pkg/format"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	archiveDir := flag.String("archive-dir", "", "Directory of the archive")
	archiveName := flag.String("archive-name", format.DefaultArchiveName, "Name of the archive")
	binThresholds := flag.String("bins", "200", "Comma-separated list of thresholds to use for the creation of bins")
	dir := flag.String("dir", "", "Output directory")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s classifies the point-to-point messages sent by every rank of an archive into bins", cmdName)
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	logFile := util.OpenLogFile("mpi2otf2", cmdName)
	defer logFile.Close()
	if *verbose {
		nultiWriters := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(nultiWriters)
	} else {
		log.SetOutput(io.Discard)
	}

	if *archiveDir == "" {
		fmt.Println("[ERROR] archive directory undefined")
		os.Exit(1)
	}

	listBins, err := config.ParseThresholds(*binThresholds)
	if err != nil {
		fmt.Printf("[ERROR] %s\n", err)
		os.Exit(1)
	}
	log.Printf("Ready to create %d bins\n", len(listBins)+1)

	b, err := bins.GetFromArchive(*archiveDir, *archiveName, listBins)
	if err != nil {
		fmt.Printf("[ERROR] Unable to get bins: %s\n", err)
		os.Exit(1)
	}

	var locations []uint64
	for loc := range b {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })
	for _, loc := range locations {
		if bins.FilesExist(*dir, *archiveName, int(loc), listBins) {
			log.Printf("Bins of rank %d already exist, overwriting them\n", loc)
		}
		err = bins.Save(*dir, *archiveName, int(loc), b[loc])
		if err != nil {
			fmt.Printf("[ERROR] Unable to save data in %s: %s\n", *dir, err)
			os.Exit(1)
		}
	}
}
