// Command heapstress is the stress driver spec.md §1 calls an external
// collaborator: it randomly allocates and frees against a heap.Region to
// exercise the allocator, the way original_source/performance/stress_test.c
// does (see SPEC_FULL.md §4).
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
	"unsafe"

	"github.com/heaplab/heapcore/internal/cliutil"
	"github.com/heaplab/heapcore/internal/heap"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		size        = flag.Int("size", heap.DefaultSize, "region size in bytes")
		policyFlag  = flag.String("policy", "first-fit", "placement policy: first-fit, best-fit, worst-fit")
		iterations  = flag.Int("iterations", 100000, "number of allocate/free operations to perform")
		maxAlloc    = flag.Int("max-alloc", 10*1024, "maximum single allocation size in bytes")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
	)

	flag.Parse()

	if *showVersion {
		cliutil.PrintVersion("heapstress", false)
		os.Exit(0)
	}

	policy, err := policyFromFlag(*policyFlag)
	if err != nil {
		cliutil.ExitWithError("%v", err)
	}

	region, err := heap.New(heap.Config{Size: *size, Policy: policy})
	if err != nil {
		cliutil.ExitWithError("create region: %v", err)
	}
	defer region.Close()

	summary := run(region, *iterations, *maxAlloc, rand.New(rand.NewSource(*seed)))

	fmt.Printf("iterations=%d allocs=%d frees=%d failures=%d peak_live=%d final_fragmentation=%.4f leaking=%v\n",
		*iterations, summary.allocs, summary.frees, summary.failures, summary.peakLive,
		region.Fragmentation(), region.LeakCheck())
}

type runSummary struct {
	allocs, frees, failures, peakLive int
}

// run drives iterations random allocate/free operations against region,
// biasing toward allocation while few blocks are live and toward freeing
// once many are, so the live set oscillates instead of only growing.
func run(region *heap.Region, iterations, maxAlloc int, rng *rand.Rand) runSummary {
	var summary runSummary

	var live []unsafe.Pointer

	for i := 0; i < iterations; i++ {
		doAlloc := len(live) == 0 || (len(live) < 1100 && rng.Intn(3) != 0)

		if doAlloc {
			size := 1 + rng.Intn(maxAlloc)

			ptr := region.Allocate(size)
			if ptr == nil {
				summary.failures++

				continue
			}

			live = append(live, ptr)
			summary.allocs++

			if len(live) > summary.peakLive {
				summary.peakLive = len(live)
			}

			continue
		}

		idx := rng.Intn(len(live))
		ptr := live[idx]
		live[idx] = live[len(live)-1]
		live = live[:len(live)-1]

		if err := region.Deallocate(ptr); err != nil {
			summary.failures++

			continue
		}

		summary.frees++
	}

	for _, ptr := range live {
		if err := region.Deallocate(ptr); err == nil {
			summary.frees++
		}
	}

	return summary
}

func policyFromFlag(s string) (heap.Policy, error) {
	switch s {
	case "first-fit", "":
		return heap.FirstFit, nil
	case "best-fit":
		return heap.BestFit, nil
	case "worst-fit":
		return heap.WorstFit, nil
	default:
		return heap.FirstFit, fmt.Errorf("unknown policy %q", s)
	}
}
