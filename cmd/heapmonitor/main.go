// Command heapmonitor runs the HTTP/3 diagnostics endpoint from
// internal/netdiag against a freshly-stressed heap.Region, so its
// /stats output has something nontrivial to show. It is a standalone
// observer process, never on the allocator's hot path (spec.md §1).
package main

import (
	"flag"
	"log"
	"math/rand"
	"unsafe"

	"github.com/heaplab/heapcore/internal/cliutil"
	"github.com/heaplab/heapcore/internal/heap"
	"github.com/heaplab/heapcore/internal/netdiag"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		addr        = flag.String("addr", ":8443", "address to serve HTTP/3 diagnostics on")
		size        = flag.Int("size", heap.DefaultSize, "region size in bytes")
		seedAllocs  = flag.Int("seed-allocs", 200, "number of allocations to perform before serving")
	)

	flag.Parse()

	if *showVersion {
		cliutil.PrintVersion("heapmonitor", false)

		return
	}

	region, err := heap.New(heap.Config{Size: *size, Policy: heap.BestFit})
	if err != nil {
		log.Fatalf("create region: %v", err)
	}
	defer region.Close()

	seedLoad(region, *seedAllocs)

	srv := netdiag.New(*addr, nil, region)

	log.Printf("heapmonitor: serving /stats over HTTP/3 on %s", *addr)

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("heapmonitor: %v", err)
	}
}

// seedLoad gives the monitor something to show on first connect: a mix of
// live and freed blocks with nonzero fragmentation.
func seedLoad(region *heap.Region, n int) {
	rng := rand.New(rand.NewSource(1))

	var live []unsafe.Pointer

	for i := 0; i < n; i++ {
		ptr := region.Allocate(1 + rng.Intn(2048))
		if ptr == nil {
			continue
		}

		if rng.Intn(2) == 0 {
			live = append(live, ptr)
		} else {
			_ = region.Deallocate(ptr)
		}
	}

	// Leave the allocations that drew 0 above live so /stats shows a realistic
	// mix of busy and free blocks instead of a fully-drained region.
	_ = live
}
