// Package trace implements the Packet Trace Ring Buffer (C6): a bounded
// per-reader capture of raw OSDP frames, with settings-driven filtering
// applied on retrieval, memory accounting, and OSDPCAP/text export.
package trace

import (
	"sync"

	"github.com/osdpgw/gateway/internal/bytesize"
	"github.com/osdpgw/gateway/pkg/model"
)

// ring is a fixed-capacity circular buffer of packet trace entries for one
// reader. Insertion is O(1) and overwrites the oldest entry once full.
type ring struct {
	mu       sync.RWMutex
	entries  []model.PacketTraceEntry
	capacity int
	next     int // index the next push writes to
	size     int // number of valid entries, capped at capacity
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = DefaultMaxPacketsPerReader
	}
	return &ring{entries: make([]model.PacketTraceEntry, capacity), capacity: capacity}
}

// push inserts an entry, overwriting the oldest if the ring is full.
func (r *ring) push(e model.PacketTraceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// snapshot returns the stored entries in insertion order (oldest first).
func (r *ring) snapshot() []model.PacketTraceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.PacketTraceEntry, 0, r.size)
	if r.size < r.capacity {
		out = append(out, r.entries[:r.size]...)
		return out
	}
	// Full ring: oldest entry is at r.next (the next slot to be overwritten).
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

func (r *ring) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// approxMemory estimates the ring's memory footprint in bytes by summing
// raw frame payload sizes plus a fixed per-entry overhead, used against
// Settings.MemoryLimitMB.
func (r *ring) approxMemory() bytesize.ByteSize {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total bytesize.ByteSize
	for i := 0; i < r.size; i++ {
		total += entrySize(r.entries[i])
	}
	return total
}

const entryOverheadBytes = 128 // fixed fields (timestamp, flags, ints) + slice/string headers, approximate

func entrySize(e model.PacketTraceEntry) bytesize.ByteSize {
	return bytesize.EstimateRecordSize(entryOverheadBytes, len(e.Raw), len(e.ReaderID), len(e.ReaderName), len(e.Error), len(e.SessionID))
}

// DefaultMaxPacketsPerReader is the ring capacity used when no setting
// overrides it.
const DefaultMaxPacketsPerReader = 500
