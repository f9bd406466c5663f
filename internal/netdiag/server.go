// Package netdiag serves a heap.Region's diagnostic observers — the
// out-of-scope "diagnostic printers" spec.md §1 names as external
// collaborators — over HTTP/3, as a small read-only introspection
// endpoint. It never sits on the allocator's hot path: every handler
// only calls the observer operations (Fragmentation, LeakCheck,
// FreeBlocks, BusyBlocks), never Allocate/Deallocate/Reallocate.
package netdiag

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	http3 "github.com/quic-go/quic-go/http3"

	"github.com/heaplab/heapcore/internal/heap"
)

// Server wraps an http3.Server lifecycle, grounded on the teacher's
// internal/runtime/netstack.HTTP3Server wrapper.
type Server struct {
	region *heap.Region
	srv    *http3.Server
	addr   string
}

// snapshot is the JSON payload served at /stats.
type snapshot struct {
	HeapBase      string           `json:"heap_base"`
	Size          int              `json:"size"`
	Fragmentation float64          `json:"fragmentation"`
	Leaking       bool             `json:"leaking"`
	FreeBlocks    []heap.BlockInfo `json:"free_blocks"`
	BusyBlocks    []heap.BlockInfo `json:"busy_blocks"`
}

// New creates a diagnostics server bound to addr, serving region's state
// over HTTP/3. tlsCfg may be nil, in which case TLS 1.3 with the "h3" ALPN
// is assumed, matching the teacher's NewHTTP3Server default.
func New(addr string, tlsCfg *tls.Config, region *heap.Region) *Server {
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS13, NextProtos: []string{"h3"}}
	} else if tlsCfg.MinVersion < tls.VersionTLS13 {
		c := tlsCfg.Clone()
		c.MinVersion = tls.VersionTLS13

		if len(c.NextProtos) == 0 {
			c.NextProtos = []string{"h3"}
		}

		tlsCfg = c
	}

	s := &Server{region: region, addr: addr}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.handleStats)

	s.srv = &http3.Server{Addr: addr, TLSConfig: tlsCfg, Handler: mux}

	return s
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := snapshot{
		HeapBase:      formatAddr(s.region.HeapBase()),
		Size:          s.region.Size(),
		Fragmentation: s.region.Fragmentation(),
		Leaking:       s.region.LeakCheck(),
		FreeBlocks:    s.region.FreeBlocks(),
		BusyBlocks:    s.region.BusyBlocks(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func formatAddr(addr uintptr) string {
	return "0x" + strconv.FormatUint(uint64(addr), 16)
}

// ListenAndServe blocks, serving until an error or shutdown occurs.
func (s *Server) ListenAndServe() error { return s.srv.ListenAndServe() }

// Close shuts down the server immediately, aborting in-flight requests.
// timeout bounds how long it waits for that close to return before calling
// Close once more.
func (s *Server) Close(timeout time.Duration) error {
	done := make(chan error, 1)

	go func() { done <- s.srv.Close() }()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return s.srv.Close()
	}
}
