package trace

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osdpgw/gateway/internal/bytesize"
	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
)

// Store is the Packet Trace Store (C6): one ring per reader, a global
// filtered/unfiltered view across readers, and the settings that govern
// capture and retrieval. It is safe for concurrent capture and query.
type Store struct {
	mu        sync.RWMutex
	rings     map[string]*ring // by reader id
	readerNms map[string]string
	settings  Settings
	lastSeen  map[string]time.Time // last entry timestamp per reader, for IntervalSince
	startedAt time.Time
	nextID    atomic.Uint64

	bus notify.Bus
}

// New returns a Store using the given settings. bus may be nil; if set, it
// receives a statistics notification when the memory guard trips.
func New(settings Settings, bus notify.Bus) *Store {
	return &Store{
		rings:     make(map[string]*ring),
		readerNms: make(map[string]string),
		lastSeen:  make(map[string]time.Time),
		settings:  settings,
		startedAt: time.Now(),
		bus:       bus,
	}
}

// Settings returns the store's current capture/retrieval settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the store's settings. Changing MaxPacketsPerReader
// does not resize existing rings; it takes effect for readers seen for the
// first time afterward.
func (s *Store) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	if settings.Enabled {
		s.startedAt = time.Now()
	}
}

// Capture records one frame for readerID/readerName. When tracing is
// disabled no entry is stored, but the reader's name and last-seen
// timestamp are still updated, so IntervalSince is measured from the
// previous frame seen. Entry ids come from Store's own increasing counter.
func (s *Store) Capture(readerID, readerName string, e model.PacketTraceEntry) {
	s.mu.Lock()
	enabled := s.settings.Enabled
	capacity := s.settings.MaxPacketsPerReader
	r, ok := s.rings[readerID]
	if enabled && !ok {
		r = newRing(capacity)
		s.rings[readerID] = r
	}
	s.readerNms[readerID] = readerName
	prev, hasPrev := s.lastSeen[readerID]
	s.lastSeen[readerID] = e.Timestamp
	s.mu.Unlock()

	if !enabled {
		return
	}

	e.ID = s.nextID.Add(1)
	e.ReaderID = readerID
	e.ReaderName = readerName
	if hasPrev {
		e.IntervalSince = e.Timestamp.Sub(prev)
	}
	r.push(e)

	s.checkMemoryGuard(context.Background())
}

// checkMemoryGuard stops tracing globally when the configured memory limit
// is exceeded and AutoStopOnMemoryLimit is set.
func (s *Store) checkMemoryGuard(ctx context.Context) {
	s.mu.RLock()
	limitMB := s.settings.MemoryLimitMB
	autoStop := s.settings.AutoStopOnMemoryLimit
	enabled := s.settings.Enabled
	s.mu.RUnlock()

	if !enabled || limitMB <= 0 || !autoStop {
		return
	}

	used := s.estimatedMemoryLocked()
	limit := bytesize.ByteSize(limitMB) * bytesize.MiB
	if used <= limit {
		return
	}

	s.mu.Lock()
	s.settings.Enabled = false
	s.mu.Unlock()

	logger.Warn("packet trace memory limit exceeded, tracing stopped", "used", used.String(), "limit", limit.String())
	if s.bus != nil {
		s.bus.Broadcast(ctx, model.Notification{
			Kind:      model.NotifyStatistics,
			Timestamp: time.Now(),
			Payload:   s.Statistics(),
		})
	}
}

func (s *Store) estimatedMemoryLocked() bytesize.ByteSize {
	s.mu.RLock()
	rings := make([]*ring, 0, len(s.rings))
	for _, r := range s.rings {
		rings = append(rings, r)
	}
	s.mu.RUnlock()

	var total bytesize.ByteSize
	for _, r := range rings {
		total += r.approxMemory()
	}
	return total
}

// Retrieve returns readerID's stored entries, oldest first, with the
// current filter settings applied.
func (s *Store) Retrieve(readerID string) []model.PacketTraceEntry {
	s.mu.RLock()
	r, ok := s.rings[readerID]
	settings := s.settings
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return applyFilter(r.snapshot(), settings)
}

// RetrieveAll concatenates every reader's entries, applies the current
// filter settings, and orders the result by descending timestamp.
func (s *Store) RetrieveAll() []model.PacketTraceEntry {
	s.mu.RLock()
	rings := make([]*ring, 0, len(s.rings))
	for _, r := range s.rings {
		rings = append(rings, r)
	}
	settings := s.settings
	s.mu.RUnlock()

	var out []model.PacketTraceEntry
	for _, r := range rings {
		out = append(out, r.snapshot()...)
	}
	out = applyFilter(out, settings)

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	if settings.MaxPacketsTotal > 0 && len(out) > settings.MaxPacketsTotal {
		out = out[:settings.MaxPacketsTotal]
	}
	return out
}

// applyFilter drops entries matching the filterable command/reply kinds
// and entries older than the configured max age. Filtering happens on
// retrieval, never on ingest, so statistics reflect stored vs. suppressed
// counts accurately.
func applyFilter(entries []model.PacketTraceEntry, settings Settings) []model.PacketTraceEntry {
	maxAge := settings.maxAge()
	useAge := (settings.LimitMode == LimitTime || settings.LimitMode == LimitHybrid) && maxAge > 0
	cutoff := time.Now().Add(-maxAge)

	out := make([]model.PacketTraceEntry, 0, len(entries))
	for _, e := range entries {
		if settings.FilterPollCommands && e.CommandOrReply == model.CommandPoll {
			continue
		}
		if settings.FilterAckCommands && e.CommandOrReply == model.ReplyAck {
			continue
		}
		if useAge && e.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}
