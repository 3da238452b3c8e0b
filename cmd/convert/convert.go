//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gvallee/go_util/pkg/util"

	"github.com/gvallee/mpi2otf2/internal/pkg/config"
	"github.com/gvallee/mpi2otf2/internal/pkg/convert"
	"github.com/gvallee/mpi2otf2/internal/pkg/logger"
	"github.com/gvallee/mpi2otf2/internal/pkg/report"
	"github.com/gvallee/mpi2otf2/internal/pkg/timer"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	dir := flag.String("dir", "", "Directory with the logs of all the ranks of the job")
	files := flag.String("files", "", "Comma-separated list of the logs to convert")
	outputDir := flag.String("output-dir", "", "Where the archive will be created")
	configFile := flag.String("config", "", "YAML configuration file")
	verbosity := flag.String("verbosity", "", "Verbosity of the conversion: silent, error, warn, info or abort (abort turns warnings into errors)")
	timerResolution := flag.Uint64("timer-resolution", config.DefaultTimerResolution, "Number of clock ticks per second of the timestamps of the logs")
	globalCommIDs := flag.Bool("global-comm-ids", false, "The communicator handles of the logs are already global identifiers")
	jobs := flag.Int("jobs", 0, "Maximum number of ranks converted at the same time (0 for no limit)")
	archiveName := flag.String("archive-name", "", "Name of the archive")
	binThresholds := flag.String("bins", "", "Comma-separated list of thresholds to use for the message size bins of the summary")
	summary := flag.Bool("summary", true, "Generate the conversion summary")
	html := flag.Bool("html", false, "Also generate the conversion summary in HTML")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s converts the per-rank logs of MPI calls of a job into an OTF2 archive", cmdName)
		fmt.Printf("\nUsage: %s [-dir <directory> | -files <list logs>] -output-dir <directory>\n", cmdName)
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

	if (*dir == "") == (*files == "") {
		fmt.Printf("[ERROR] exactly one of the 'dir' and 'files' options must be set\n")
		os.Exit(1)
	}
	if *outputDir == "" {
		fmt.Printf("[ERROR] output directory undefined\n")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Printf("[ERROR] %s\n", err)
			os.Exit(1)
		}
	}

	// command line options win over the configuration file
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbosity":
			v, err := logger.ParseVerbosity(*verbosity)
			if err != nil {
				flagErr = err
			}
			cfg.Verbosity = v
		case "timer-resolution":
			cfg.TimerResolution = *timerResolution
		case "global-comm-ids":
			cfg.GlobalCommIDs = *globalCommIDs
		case "jobs":
			cfg.Jobs = *jobs
		case "archive-name":
			cfg.ArchiveName = *archiveName
		case "bins":
			thresholds, err := config.ParseThresholds(*binThresholds)
			if err != nil {
				flagErr = err
			}
			cfg.BinThresholds = thresholds
		}
	})
	if flagErr == nil {
		flagErr = cfg.Validate()
	}
	if flagErr != nil {
		fmt.Printf("[ERROR] invalid option: %s\n", flagErr)
		os.Exit(1)
	}

	var paths []string
	if *dir != "" {
		var err error
		paths, err = convert.FindTraces(*dir)
		if err != nil {
			fmt.Printf("[ERROR] unable to find logs: %s\n", err)
			os.Exit(1)
		}
	} else {
		paths = strings.Split(*files, ",")
	}
	log.Printf("Converting %d logs into %s\n", len(paths), *outputDir)

	var progressOutput io.Writer
	if *verbose {
		progressOutput = os.Stdout
	}
	c := &convert.Converter{
		Config:    cfg,
		OutputDir: *outputDir,
		Progress:  progressOutput,
	}
	t := timer.Start()
	result, err := c.Run(context.Background(), paths)
	if err != nil {
		fmt.Printf("[ERROR] conversion failed: %s\n", err)
		os.Exit(errors.ExitCode(err))
	}
	fmt.Printf("Archive %s created in %s (%s)\n", result.Name, result.Dir, t.Stop())

	if *summary {
		path, err := report.Save(*outputDir, result, cfg.BinThresholds, *html)
		if err != nil {
			fmt.Printf("[ERROR] unable to save the conversion summary: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Summary saved in %s\n", path)
	}
}
