//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Bar displays the number of ranks done with a step of the conversion. It
// can be incremented from the goroutines of the different ranks.
type Bar struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	enabled bool
	current int
	max     int
}

func (b *Bar) display() {
	if !b.enabled {
		return
	}
	label := b.label
	if label == "" {
		label = "Progress"
	}
	fmt.Fprintf(b.out, "\r%s: %d/%d", label, b.current, b.max)
}

// NewBar returns a bar displayed on the standard output
func NewBar(max int, label string) *Bar {
	return NewBarTo(os.Stdout, max, label)
}

// NewBarTo returns a bar displayed on out; nothing is displayed when out is nil
func NewBarTo(out io.Writer, max int, label string) *Bar {
	b := new(Bar)
	b.out = out
	b.max = max
	b.current = 0
	b.enabled = out != nil
	b.label = label
	b.display()
	return b
}

func (b *Bar) Increment(val int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current += val
	b.display()
}

// Current returns the progress of the bar
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func EndBar(b *Bar) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.display()
	if b.enabled {
		fmt.Fprintf(b.out, "\n")
	}
	b.enabled = false
}
