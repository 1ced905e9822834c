package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestEffectiveWorkers(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)
	tests := []struct {
		name      string
		requested int
		n         int
		want      int
	}{
		{"explicit below archive count", 2, 10, 2},
		{"capped at archive count", 8, 3, 3},
		{"auto uses GOMAXPROCS", 0, procs + 5, procs},
		{"auto capped", 0, 1, 1},
		{"never below one", 4, 0, 1},
		{"negative treated as auto", -3, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveWorkers(tt.requested, tt.n); got != tt.want {
				t.Errorf("EffectiveWorkers(%d, %d) = %d, want %d", tt.requested, tt.n, got, tt.want)
			}
		})
	}
}

func TestProcessAll_RestoresDiscoveryOrder(t *testing.T) {
	paths := make([]string, 12)
	for i := range paths {
		paths[i] = fmt.Sprintf("archive-%02d.cbz", i)
	}
	// Earlier archives finish last.
	fn := func(_ context.Context, p string) ArchiveResult {
		var i int
		fmt.Sscanf(p, "archive-%02d.cbz", &i)
		time.Sleep(time.Duration(len(paths)-i) * time.Millisecond)
		return ArchiveResult{Path: p}
	}

	var order []string
	out, err := processAll(context.Background(), paths, 4, fn, func(done int, r ArchiveResult) {
		order = append(order, r.Path)
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range out {
		if r.Path != paths[i] {
			t.Fatalf("out[%d] = %s, want %s", i, r.Path, paths[i])
		}
	}
	if len(order) != len(paths) {
		t.Errorf("onDone called %d times, want %d", len(order), len(paths))
	}
}

func TestProcessAll_BoundedConcurrency(t *testing.T) {
	paths := make([]string, 20)
	for i := range paths {
		paths[i] = fmt.Sprint(i)
	}
	var running, peak atomic.Int32
	fn := func(_ context.Context, p string) ArchiveResult {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return ArchiveResult{Path: p}
	}
	if _, err := processAll(context.Background(), paths, 3, fn, nil); err != nil {
		t.Fatal(err)
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestProcessAll_Cancelled(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f"}
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	fn := func(ctx context.Context, p string) ArchiveResult {
		if calls.Add(1) == 2 {
			cancel()
		}
		return ArchiveResult{Path: p}
	}
	out, err := processAll(ctx, paths, 1, fn, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("processAll() error = %v, want context.Canceled", err)
	}
	if out != nil {
		t.Errorf("partial results returned: %v", out)
	}
	if n := calls.Load(); n >= int32(len(paths)) {
		t.Errorf("all %d archives processed after cancel", n)
	}
}
