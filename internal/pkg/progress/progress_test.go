//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestConcurrentIncrements(t *testing.T) {
	var out bytes.Buffer
	b := NewBarTo(&out, 8, "Pass 1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Increment(1)
		}()
	}
	wg.Wait()
	EndBar(b)

	if b.Current() != 8 {
		t.Fatalf("bar is at %d instead of 8", b.Current())
	}
	if !strings.HasSuffix(out.String(), "\rPass 1: 8/8\n") {
		t.Fatalf("unexpected output %q", out.String())
	}

	// ended bars display nothing more
	b.Increment(1)
	if strings.Contains(out.String(), "9/8") {
		t.Fatalf("ended bar still displayed")
	}
}

func TestDisabledBar(t *testing.T) {
	b := NewBarTo(nil, 2, "")
	b.Increment(2)
	EndBar(b)
	if b.Current() != 2 {
		t.Fatalf("bar is at %d instead of 2", b.Current())
	}
}
