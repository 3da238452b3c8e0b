//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package convert drives the conversion of the logs of all the ranks of a job
// into an archive.
package convert

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gvallee/go_util/pkg/util"
	"golang.org/x/sync/errgroup"

	"github.com/gvallee/mpi2otf2/internal/pkg/config"
	"github.com/gvallee/mpi2otf2/internal/pkg/format"
	"github.com/gvallee/mpi2otf2/internal/pkg/logger"
	"github.com/gvallee/mpi2otf2/internal/pkg/otf2"
	"github.com/gvallee/mpi2otf2/internal/pkg/otf2writer"
	"github.com/gvallee/mpi2otf2/internal/pkg/progress"
	"github.com/gvallee/mpi2otf2/internal/pkg/tracefile"
)

// Result is the outcome of a conversion
type Result struct {
	// Dir and Name locate the archive
	Dir  string
	Name string

	// Stats are the statistics of every rank, indexed by rank
	Stats []*otf2writer.Stats

	// Definitions are the global definitions written to the archive
	Definitions *otf2.GlobalDefinitions

	TimerResolution uint64
}

// Converter converts the logs of one job
type Converter struct {
	Config    *config.Config
	OutputDir string

	// Progress receives the progress bars of the different steps, none is
	// displayed when nil
	Progress io.Writer
}

// FindTraces returns the logs found in a directory, sorted by name
func FindTraces(dir string) ([]string, error) {
	if !util.PathExists(dir) {
		return nil, fmt.Errorf("%s does not exist", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var traces []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), format.TraceFileSuffix) {
			traces = append(traces, filepath.Join(dir, e.Name()))
		}
	}
	if len(traces) == 0 {
		return nil, fmt.Errorf("no %s file in %s", format.TraceFileSuffix, dir)
	}
	sort.Strings(traces)
	return traces, nil
}

func (c *Converter) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	if c.Config.Jobs > 0 {
		g.SetLimit(c.Config.Jobs)
	}
	return g, ctx
}

// Load reads the logs of all the ranks and orders them by rank. The logs
// must cover ranks 0 to size-1 of a single job.
func (c *Converter) Load(ctx context.Context, paths []string) ([]*tracefile.Trace, error) {
	traces := make([]*tracefile.Trace, len(paths))
	bar := progress.NewBarTo(c.Progress, len(paths), "Loading logs")
	defer progress.EndBar(bar)

	g, ctx := c.group(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := tracefile.ReadFile(path)
			if err != nil {
				return err
			}
			if t.Skipped > 0 {
				l := logger.New(c.Config.Verbosity, t.Header.Rank)
				err := l.Warnf("%d records of %s have an unknown operation and were ignored", t.Skipped, path)
				if err != nil {
					return err
				}
			}
			traces[i] = t
			bar.Increment(1)
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}

	sort.Slice(traces, func(i, j int) bool { return traces[i].Header.Rank < traces[j].Header.Rank })
	size := len(traces)
	for rank, t := range traces {
		if t.Header.Size != size {
			return nil, fmt.Errorf("%s: job of %d ranks but %d logs were given", t.Path, t.Header.Size, size)
		}
		if t.Header.Rank != rank {
			return nil, fmt.Errorf("%s: rank %d found instead of rank %d (duplicated or missing rank)", t.Path, t.Header.Rank, rank)
		}
	}
	return traces, nil
}

// forEachRank runs a step of the conversion for all the ranks in parallel
func (c *Converter) forEachRank(ctx context.Context, label string, writers []*otf2writer.Writer, traces []*tracefile.Trace, step func(ctx context.Context, w *otf2writer.Writer, t *tracefile.Trace) error) error {
	bar := progress.NewBarTo(c.Progress, len(writers), label)
	defer progress.EndBar(bar)

	g, ctx := c.group(ctx)
	for i := range writers {
		w, t := writers[i], traces[i]
		g.Go(func() error {
			err := step(ctx, w, t)
			if err != nil {
				return err
			}
			bar.Increment(1)
			return nil
		})
	}
	return g.Wait()
}

func firstPass(ctx context.Context, w *otf2writer.Writer, t *tracefile.Trace) error {
	for i := range t.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.FirstPass(&t.Records[i])
		if err != nil {
			return err
		}
	}
	return w.EndFirstPass()
}

func secondPass(archive *otf2.Archive) func(context.Context, *otf2writer.Writer, *tracefile.Trace) error {
	return func(ctx context.Context, w *otf2writer.Writer, t *tracefile.Trace) error {
		err := w.Begin(archive)
		if err != nil {
			return err
		}
		for i := range t.Records {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := w.Handle(&t.Records[i])
			if err != nil {
				return err
			}
		}
		return w.End(archive)
	}
}

// Run converts the logs into an archive of the output directory
func (c *Converter) Run(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no log to convert")
	}
	err := c.Config.Validate()
	if err != nil {
		return nil, err
	}

	traces, err := c.Load(ctx, paths)
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, traces)
}

// Convert converts logs already loaded and ordered by rank
func (c *Converter) Convert(ctx context.Context, traces []*tracefile.Trace) (*Result, error) {
	opts := otf2writer.OptionsFromConfig(c.Config)
	writers := make([]*otf2writer.Writer, len(traces))
	for i, t := range traces {
		writers[i] = otf2writer.NewWriterFromTrace(t, opts)
	}

	err := c.forEachRank(ctx, "Resolving communicators", writers, traces, firstPass)
	if err != nil {
		return nil, err
	}
	err = otf2writer.Barrier(writers)
	if err != nil {
		return nil, err
	}

	archive, err := otf2.Open(c.OutputDir, c.Config.ArchiveName, logger.New(c.Config.Verbosity, -1))
	if err != nil {
		return nil, err
	}
	err = c.forEachRank(ctx, "Writing events", writers, traces, secondPass(archive))
	if err == nil {
		err = writers[0].WriteGlobalDefinitions(archive, writers)
	}
	if err != nil {
		closeErr := archive.Close()
		if closeErr != nil {
			log.Printf("[ERROR] incomplete archive %s: %s", otf2.AnchorPath(archive.Dir, archive.Name), closeErr)
		}
		return nil, err
	}
	err = archive.Close()
	if err != nil {
		return nil, err
	}

	defs, err := otf2.ReadGlobalDefinitions(c.OutputDir, c.Config.ArchiveName)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Dir:             c.OutputDir,
		Name:            c.Config.ArchiveName,
		Definitions:     defs,
		TimerResolution: c.Config.TimerResolution,
	}
	for _, w := range writers {
		result.Stats = append(result.Stats, w.Stats())
	}
	return result, nil
}
