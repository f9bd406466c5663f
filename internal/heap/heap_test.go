package heap

import (
	"math/rand"
	"testing"
	"unsafe"
)

func newTestRegion(t *testing.T, size int, policy Policy) *Region {
	t.Helper()

	r, err := New(Config{Size: size, Policy: policy})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(func() { _ = r.Close() })

	return r
}

func TestInitialState(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	if r.LeakCheck() {
		t.Error("fresh region should not report a leak")
	}

	blocks := r.FreeBlocks()
	if len(blocks) != 1 || blocks[0].Offset != 0 || blocks[0].Size != 4096 {
		t.Fatalf("expected single free block covering the region, got %+v", blocks)
	}

	if r.Fragmentation() != 0 {
		t.Errorf("fresh region fragmentation should be 0, got %v", r.Fragmentation())
	}
}

func TestAllocateBasic(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	ptr := r.Allocate(100)
	if ptr == nil {
		t.Fatal("allocate(100) failed")
	}

	data := (*[100]byte)(ptr)
	for i := range data {
		data[i] = byte(i)
	}

	for i := range data {
		if data[i] != byte(i) {
			t.Fatalf("data corruption at %d", i)
		}
	}
}

func TestAllocateZeroRoundsToMinimum(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	ptr := r.Allocate(0)
	if ptr == nil {
		t.Fatal("allocate(0) should still succeed")
	}

	busy := r.BusyBlocks()
	if len(busy) != 1 || busy[0].Size != minPayload {
		t.Fatalf("expected a single %d-byte busy block, got %+v", minPayload, busy)
	}
}

func TestAllocateExactAbsorb(t *testing.T) {
	r := newTestRegion(t, busyHeaderSize+100, FirstFit)

	ptr := r.Allocate(100)
	if ptr == nil {
		t.Fatal("allocate should fit exactly and absorb the only free block")
	}

	if got := r.FreeBlocks(); len(got) != 0 {
		t.Fatalf("expected no free blocks after absorb, got %+v", got)
	}

	if r.LeakCheck() != true {
		t.Error("fully-allocated region should report LeakCheck true (no single full free block)")
	}
}

func TestAllocateDeallocateRestoresShape(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	before := r.FreeBlocks()

	ptr := r.Allocate(100)
	if ptr == nil {
		t.Fatal("allocate failed")
	}

	if err := r.Deallocate(ptr); err != nil {
		t.Fatalf("deallocate: %v", err)
	}

	after := r.FreeBlocks()
	if len(before) != len(after) || before[0] != after[0] {
		t.Fatalf("free-list shape not restored: before=%+v after=%+v", before, after)
	}
}

func TestSeedScenarioSplitThenNoCoalesceThenTripleMerge(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	a := r.Allocate(100)
	b := r.Allocate(50)

	if a == nil || b == nil {
		t.Fatal("allocations failed")
	}

	if err := r.Deallocate(a); err != nil {
		t.Fatalf("deallocate a: %v", err)
	}

	// a's old block is not adjacent to the tail free block: b's busy block
	// separates them, so the free list now has two entries.
	if got := len(r.FreeBlocks()); got != 2 {
		t.Fatalf("expected 2 free blocks after freeing a, got %d", got)
	}

	if err := r.Deallocate(b); err != nil {
		t.Fatalf("deallocate b: %v", err)
	}

	// Freeing b triple-merges: a's free block, b's newly-freed block, and
	// the tail free block all become one block of size R.
	blocks := r.FreeBlocks()
	if len(blocks) != 1 || blocks[0].Size != 4096 {
		t.Fatalf("expected single free block of size 4096, got %+v", blocks)
	}

	if r.LeakCheck() {
		t.Error("region should be back to initial state")
	}
}

func TestCoalesceOnlyPredecessor(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	a := r.Allocate(64)
	b := r.Allocate(64)
	_ = r.Allocate(64) // keep c busy so b's successor stays busy

	if err := r.Deallocate(a); err != nil {
		t.Fatal(err)
	}

	freeBefore := len(r.FreeBlocks())

	if err := r.Deallocate(b); err != nil {
		t.Fatal(err)
	}

	freeAfter := len(r.FreeBlocks())
	if freeAfter != freeBefore {
		t.Fatalf("expected predecessor-only merge to keep free count at %d, got %d", freeBefore, freeAfter)
	}
}

func TestCoalesceOnlySuccessor(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	a := r.Allocate(64)
	b := r.Allocate(64)
	c := r.Allocate(64)
	_ = a

	if err := r.Deallocate(c); err != nil {
		t.Fatal(err)
	}

	freeBefore := len(r.FreeBlocks())

	if err := r.Deallocate(b); err != nil {
		t.Fatal(err)
	}

	freeAfter := len(r.FreeBlocks())
	if freeAfter != freeBefore {
		t.Fatalf("expected successor-only merge to keep free count at %d, got %d", freeBefore, freeAfter)
	}
}

func TestCoalesceNeither(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	a := r.Allocate(64)
	b := r.Allocate(64)
	c := r.Allocate(64)
	_, _ = a, c

	freeBefore := len(r.FreeBlocks())

	if err := r.Deallocate(b); err != nil {
		t.Fatal(err)
	}

	if got := len(r.FreeBlocks()); got != freeBefore+1 {
		t.Fatalf("expected an extra isolated free block, before=%d after=%d", freeBefore, got)
	}
}

func TestFreeHeadBlockBecomesNewHead(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	a := r.Allocate(64)
	_ = r.Allocate(64)

	if err := r.Deallocate(a); err != nil {
		t.Fatal(err)
	}

	blocks := r.FreeBlocks()
	if len(blocks) == 0 || blocks[0].Offset != 0 {
		t.Fatalf("freeing the lowest-address busy block should make it the new head: %+v", blocks)
	}
}

func TestReallocateShrinkReturnsSamePointer(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	ptr := r.Allocate(200)
	if ptr == nil {
		t.Fatal("allocate failed")
	}

	shrunk := r.Reallocate(ptr, 50)
	if shrunk != ptr {
		t.Fatalf("shrink should return the same pointer, got different pointer")
	}
}

func TestReallocateGrowCopiesData(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	ptr := r.Allocate(64)
	if ptr == nil {
		t.Fatal("allocate failed")
	}

	data := (*[64]byte)(ptr)
	for i := range data {
		data[i] = byte(i + 1)
	}

	grown := r.Reallocate(ptr, 256)
	if grown == nil {
		t.Fatal("grow reallocate failed")
	}

	newData := (*[64]byte)(grown)
	for i := range newData {
		if newData[i] != byte(i+1) {
			t.Fatalf("data not preserved across growth realloc at %d", i)
		}
	}
}

func TestReallocateNilActsAsAllocate(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	ptr := r.Reallocate(nil, 32)
	if ptr == nil {
		t.Fatal("reallocate(nil, n) should behave as allocate(n)")
	}
}

func TestDeallocateNilIsNoop(t *testing.T) {
	r := newTestRegion(t, 4096, FirstFit)

	if err := r.Deallocate(nil); err != nil {
		t.Fatalf("deallocate(nil) should be a no-op, got %v", err)
	}
}

func TestDeallocateInvalidAddressRejectedUnderValidation(t *testing.T) {
	r, err := New(Config{Size: 4096, Policy: FirstFit, Check: true})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ptr := r.Allocate(64)
	bogus := unsafe.Pointer(uintptr(ptr) + 4)

	if err := r.Deallocate(bogus); err == nil {
		t.Fatal("expected validation to reject a non-block-start address")
	}
}

func TestOutOfSpace(t *testing.T) {
	r := newTestRegion(t, freeHeaderSize+16, FirstFit)

	if ptr := r.Allocate(1024); ptr != nil {
		t.Fatal("expected allocation larger than the region to fail")
	}
}

func TestBestFitVsWorstFitDivergence(t *testing.T) {
	run := func(policy Policy) int {
		r := newTestRegion(t, 4096, policy)

		a := r.Allocate(10)
		_ = r.Allocate(100)
		c := r.Allocate(10)

		if err := r.Deallocate(a); err != nil {
			t.Fatal(err)
		}

		if err := r.Deallocate(c); err != nil {
			t.Fatal(err)
		}

		ptr := r.Allocate(8)
		if ptr == nil {
			t.Fatal("allocate(8) should succeed")
		}

		off, _ := r.ptrToOffset(ptr)

		return off - busyHeaderSize
	}

	bestOff := run(BestFit)
	worstOff := run(WorstFit)

	if bestOff == worstOff {
		t.Fatalf("expected best-fit and worst-fit to choose different holes, both chose offset %d", bestOff)
	}
}

func TestFillAndDrainReturnsToInitialState(t *testing.T) {
	r := newTestRegion(t, 1<<20, FirstFit)

	const n = 1000

	ptrs := make([]unsafe.Pointer, n)
	for i := 0; i < n; i++ {
		ptrs[i] = r.Allocate(12)
		if ptrs[i] == nil {
			t.Fatalf("allocate %d failed", i)
		}

		if frag := r.Fragmentation(); frag < 0 || frag > 1 {
			t.Fatalf("fragmentation out of range during fill: %v", frag)
		}
	}

	for i := n - 1; i >= 0; i-- {
		if err := r.Deallocate(ptrs[i]); err != nil {
			t.Fatalf("deallocate %d: %v", i, err)
		}
	}

	if r.LeakCheck() {
		t.Error("expected initial state after draining in reverse order")
	}

	if got := r.Fragmentation(); got != 0 {
		t.Errorf("expected 0 fragmentation after full drain, got %v", got)
	}
}

func TestRandomOpSequenceInvariants(t *testing.T) {
	r := newTestRegion(t, 1<<16, BestFit)
	rng := rand.New(rand.NewSource(1))

	var live []unsafe.Pointer

	for i := 0; i < 2000; i++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			size := 1 + rng.Intn(200)

			if ptr := r.Allocate(size); ptr != nil {
				live = append(live, ptr)
			}
		} else {
			idx := rng.Intn(len(live))
			ptr := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]

			if err := r.Deallocate(ptr); err != nil {
				t.Fatalf("deallocate during random sequence: %v", err)
			}
		}

		assertFreeListOrderedAndNonAdjacent(t, r)
		assertTiling(t, r)
	}

	for _, ptr := range live {
		if err := r.Deallocate(ptr); err != nil {
			t.Fatalf("final drain: %v", err)
		}
	}

	if r.LeakCheck() {
		t.Error("expected initial state after draining all random allocations")
	}
}

func assertFreeListOrderedAndNonAdjacent(t *testing.T, r *Region) {
	t.Helper()

	cur := r.first
	var lastEnd int64 = -1

	for cur != noLink {
		fh := readFreeHeader(r.buf, int(cur))
		if lastEnd >= 0 {
			if cur < lastEnd {
				t.Fatalf("free list not strictly address-ordered: %d < %d", cur, lastEnd)
			}

			if cur == lastEnd {
				t.Fatalf("adjacent free blocks were not coalesced at offset %d", cur)
			}
		}

		lastEnd = cur + int64(fh.size)
		cur = fh.next
	}
}

func assertTiling(t *testing.T, r *Region) {
	t.Helper()

	var total int

	cur := 0
	free := r.first

	for cur < r.size {
		if free != noLink && cur == int(free) {
			fh := readFreeHeader(r.buf, cur)
			total += int(fh.size)
			cur += int(fh.size)
			free = fh.next

			continue
		}

		bh := readBusyHeader(r.buf, cur)
		total += busyHeaderSize + int(bh.size)
		cur += busyHeaderSize + int(bh.size)
	}

	if total != r.size {
		t.Fatalf("busy+free blocks do not tile the region: got %d want %d", total, r.size)
	}
}
