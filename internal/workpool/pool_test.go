package workpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapPreservesOrder(t *testing.T) {
	t.Parallel()

	items := []int{5, 1, 4, 2, 3}
	got := Map(context.Background(), 3, items, func(_ context.Context, item int) int {
		time.Sleep(time.Duration(item) * time.Millisecond)
		return item * 10
	})

	want := []int{50, 10, 40, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Map()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		workers     int
		items       int
		wantCeiling int64
	}{
		{name: "explicit_limit", workers: 2, items: 12, wantCeiling: 2},
		{name: "default_limit", workers: 0, items: 25, wantCeiling: DefaultWorkers},
		{name: "fewer_items_than_workers", workers: 8, items: 3, wantCeiling: 3},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var inFlight, peak atomic.Int64
			items := make([]int, tc.items)
			Map(context.Background(), tc.workers, items, func(_ context.Context, _ int) struct{} {
				current := inFlight.Add(1)
				for {
					seen := peak.Load()
					if current <= seen || peak.CompareAndSwap(seen, current) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inFlight.Add(-1)
				return struct{}{}
			})

			if peak.Load() > tc.wantCeiling {
				t.Fatalf("peak concurrency = %d, want <= %d", peak.Load(), tc.wantCeiling)
			}
		})
	}
}

func TestMapEmptyInput(t *testing.T) {
	t.Parallel()

	got := Map(context.Background(), 4, []string{}, func(_ context.Context, item string) string {
		t.Fatalf("fn called for %q on empty input", item)
		return item
	})
	if len(got) != 0 {
		t.Fatalf("len(Map()) = %d, want 0", len(got))
	}
}
