package trace

import (
	"time"

	"github.com/osdpgw/gateway/internal/bytesize"
	"github.com/osdpgw/gateway/pkg/model"
)

// Statistics summarizes the trace store's current state.
type Statistics struct {
	TotalPackets      int
	FilteredPackets   int // suppressed by the current filter settings, not a count of stored packets
	PerReaderCounts   map[string]int
	EstimatedMemory   bytesize.ByteSize
	TracingStartedAt  time.Time
	Duration          time.Duration
	ReplyPercentage   float64
}

// Statistics computes a snapshot of trace-store state. Filtering is
// evaluated against the unfiltered stored entries so FilteredPackets
// reflects exactly what retrieval would suppress.
func (s *Store) Statistics() Statistics {
	s.mu.RLock()
	rings := make(map[string]*ring, len(s.rings))
	for id, r := range s.rings {
		rings[id] = r
	}
	settings := s.settings
	startedAt := s.startedAt
	s.mu.RUnlock()

	stats := Statistics{
		PerReaderCounts:  make(map[string]int, len(rings)),
		TracingStartedAt: startedAt,
		Duration:         time.Since(startedAt),
	}

	var totalOutgoing, pairedReplies int
	for readerID, r := range rings {
		entries := r.snapshot()
		stats.PerReaderCounts[readerID] = len(entries)
		stats.TotalPackets += len(entries)
		stats.EstimatedMemory += r.approxMemory()

		filtered := applyFilter(entries, settings)
		stats.FilteredPackets += len(entries) - len(filtered)

		out, paired := countReplyPairs(entries)
		totalOutgoing += out
		pairedReplies += paired
	}

	if totalOutgoing > 0 {
		stats.ReplyPercentage = 100 * float64(pairedReplies) / float64(totalOutgoing)
	}

	return stats
}

// countReplyPairs counts outgoing entries and how many of them are
// immediately followed, in insertion order, by an incoming entry on the
// same reader, a simple adjacency heuristic for "paired reply" since the
// trace store does not track request/response correlation ids.
func countReplyPairs(entries []model.PacketTraceEntry) (outgoing, paired int) {
	for i, e := range entries {
		if e.Direction != model.TraceOutgoing {
			continue
		}
		outgoing++
		if i+1 < len(entries) && entries[i+1].Direction == model.TraceIncoming {
			paired++
		}
	}
	return outgoing, paired
}
