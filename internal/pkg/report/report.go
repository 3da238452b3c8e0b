//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package report generates the summary of a conversion, in Markdown and
// optionally in HTML.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gomarkdown/markdown"

	"github.com/gvallee/mpi2otf2/internal/pkg/bins"
	"github.com/gvallee/mpi2otf2/internal/pkg/convert"
	"github.com/gvallee/mpi2otf2/internal/pkg/format"
	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/internal/pkg/notation"
	"github.com/gvallee/mpi2otf2/internal/pkg/otf2"
	"github.com/gvallee/mpi2otf2/internal/pkg/unit"
)

// maxTopOps is the number of operations listed as the most time consuming
const maxTopOps = 5

type opSummary struct {
	op       mpi.Op
	calls    int
	ticks    uint64
	sent     int64
	received int64
	ranks    []int
}

func aggregate(result *convert.Result) []*opSummary {
	ops := make(map[mpi.Op]*opSummary)
	for _, s := range result.Stats {
		for _, o := range s.Ops() {
			summary, ok := ops[o.Op]
			if !ok {
				summary = &opSummary{op: o.Op}
				ops[o.Op] = summary
			}
			summary.calls += o.Calls
			summary.ticks += o.Ticks
			summary.sent += o.BytesSent
			summary.received += o.BytesReceived
			summary.ranks = append(summary.ranks, s.Rank)
		}
	}

	var list []*opSummary
	for _, summary := range ops {
		sort.Ints(summary.ranks)
		list = append(list, summary)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].op < list[j].op })
	return list
}

func writeOps(w io.Writer, result *convert.Result, ops []*opSummary) {
	fmt.Fprintf(w, "## Operations\n\n")
	fmt.Fprintf(w, "| Operation | Calls | Ranks | Time | Bytes sent | Bytes received |\n")
	fmt.Fprintf(w, "|---|---|---|---|---|---|\n")
	for _, o := range ops {
		fmt.Fprintf(w, "| %s | %d | %s | %s | %s | %s |\n",
			o.op.Name(), o.calls, notation.CompressIntArray(o.ranks),
			unit.Duration(o.ticks, result.TimerResolution), unit.Bytes(o.sent), unit.Bytes(o.received))
	}
	fmt.Fprintf(w, "\n")

	times := make(map[string]int64)
	for _, o := range ops {
		times[o.op.Name()] = int64(o.ticks)
	}
	top := format.ConvertMapToOrderedArrayByValue(times)
	if len(top) > maxTopOps {
		top = top[:maxTopOps]
	}
	fmt.Fprintf(w, "Most time consuming operations:\n\n")
	for i, kv := range top {
		fmt.Fprintf(w, "%d. %s: %s\n", i+1, kv.Key, unit.Duration(uint64(kv.Val), result.TimerResolution))
	}
	fmt.Fprintf(w, "\n")
}

func lookup(defs *otf2.GlobalDefinitions, id uint32) string {
	s, ok := defs.Lookup(id)
	if !ok || s == "" {
		return "-"
	}
	return s
}

func writeComms(w io.Writer, defs *otf2.GlobalDefinitions) {
	groups := make(map[int64]otf2.Group)
	for _, g := range defs.Groups {
		groups[g.ID] = g
	}

	fmt.Fprintf(w, "## Communicators\n\n")
	fmt.Fprintf(w, "| ID | Name | Parent | Size | Members |\n")
	fmt.Fprintf(w, "|---|---|---|---|---|\n")
	for _, c := range defs.Comms {
		parent := "-"
		if c.Parent != otf2.NoParent {
			parent = fmt.Sprintf("%d", c.Parent)
		}
		g := groups[c.Group]
		size := fmt.Sprintf("%d", len(g.Members))
		members := "self"
		if g.Type != otf2.GroupTypeSelf {
			ranks := make([]int, len(g.Members))
			for i, m := range g.Members {
				ranks[i] = int(m)
			}
			members = notation.CompressIntArray(ranks)
		} else {
			size = "1"
		}
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s |\n", c.ID, lookup(defs, c.Name), parent, size, members)
	}
	fmt.Fprintf(w, "\n")
}

func writeBins(w io.Writer, result *convert.Result, thresholds []int) {
	var sizes []int64
	for _, s := range result.Stats {
		sizes = append(sizes, s.MsgSizes...)
	}
	fmt.Fprintf(w, "## Point-to-point message sizes\n\n")
	fmt.Fprintf(w, "| Size | Messages |\n")
	fmt.Fprintf(w, "|---|---|\n")
	for _, b := range bins.GetFromMsgSizes(sizes, thresholds) {
		fmt.Fprintf(w, "| %s | %d |\n", b, b.Size)
	}
	fmt.Fprintf(w, "\n")
}

func writeWarnings(w io.Writer, result *convert.Result) {
	var outstanding, unknown []int
	for _, s := range result.Stats {
		if s.Outstanding > 0 {
			outstanding = append(outstanding, s.Rank)
		}
		if s.UnknownTypes > 0 {
			unknown = append(unknown, s.Rank)
		}
	}
	if len(outstanding) == 0 && len(unknown) == 0 {
		return
	}
	fmt.Fprintf(w, "## Warnings\n\n")
	if len(outstanding) > 0 {
		fmt.Fprintf(w, "- Requests never completed on rank(s) %s\n", notation.CompressIntArray(outstanding))
	}
	if len(unknown) > 0 {
		fmt.Fprintf(w, "- Unknown datatypes counted as 4 bytes on rank(s) %s\n", notation.CompressIntArray(unknown))
	}
	fmt.Fprintf(w, "\n")
}

// Write writes the Markdown summary of a conversion
func Write(w io.Writer, result *convert.Result, thresholds []int) error {
	var buf bytes.Buffer
	var events uint64
	for _, s := range result.Stats {
		events += s.Events
	}

	fmt.Fprintf(&buf, "# Conversion of %s\n\n", result.Name)
	fmt.Fprintf(&buf, "- Ranks: %d\n", len(result.Stats))
	fmt.Fprintf(&buf, "- Events: %d\n", events)
	fmt.Fprintf(&buf, "- Timer resolution: %d ticks per second\n", result.TimerResolution)
	if result.Definitions != nil {
		fmt.Fprintf(&buf, "- Trace length: %s\n", unit.Duration(result.Definitions.Clock.TraceLength, result.TimerResolution))
	}
	fmt.Fprintf(&buf, "\n")

	writeOps(&buf, result, aggregate(result))
	if result.Definitions != nil {
		writeComms(&buf, result.Definitions)
	}
	writeBins(&buf, result, thresholds)
	writeWarnings(&buf, result)

	_, err := w.Write(buf.Bytes())
	return err
}

// ToHTML renders a Markdown summary
func ToHTML(md []byte) []byte {
	return markdown.ToHTML(md, nil, nil)
}

// Save writes the summary of a conversion in a directory and returns the
// path of the Markdown file. The HTML rendering is saved next to it when
// requested.
func Save(dir string, result *convert.Result, thresholds []int, html bool) (string, error) {
	var buf bytes.Buffer
	err := Write(&buf, result, thresholds)
	if err != nil {
		return "", err
	}

	mdPath := filepath.Join(dir, fmt.Sprintf("%s.%s.md", format.SummaryFilePrefix, result.Name))
	err = os.WriteFile(mdPath, buf.Bytes(), 0644)
	if err != nil {
		return "", fmt.Errorf("unable to save summary: %w", err)
	}
	if html {
		htmlPath := filepath.Join(dir, fmt.Sprintf("%s.%s.html", format.SummaryFilePrefix, result.Name))
		err = os.WriteFile(htmlPath, ToHTML(buf.Bytes()), 0644)
		if err != nil {
			return "", fmt.Errorf("unable to save summary: %w", err)
		}
	}
	return mdPath, nil
}
