package plugin

import (
	"context"
	"fmt"
	stdplugin "plugin"
	"sort"
	"sync"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// constructorSymbol is the exported factory every plugin artifact must
// provide. Go has no runtime class reflection, so discovery looks up a
// fixed symbol name instead of scanning entry types.
const constructorSymbol = "NewPlugin"

// MappingLister is the narrow slice of store.Repository the Host needs to
// resolve a reader's ordered plugin chain.
type MappingLister interface {
	ListMappingsForReader(ctx context.Context, readerID string) ([]*model.PluginMapping, error)
}

var _ MappingLister = (store.MappingStore)(nil)

type loadedArtifact struct {
	path   string
	handle *stdplugin.Plugin
}

// Host discovers, loads, and serves plugin singletons. It mirrors the
// registry pattern used elsewhere in the gateway: named resources behind an
// RWMutex, with lookups reporting presence through an explicit ok flag.
type Host struct {
	mu        sync.RWMutex
	dir       string
	artifacts map[string]*loadedArtifact // by plugin id
	instances map[string]Plugin          // by plugin id
	mappings  MappingLister
}

// New creates a Host that will scan dir for plugin artifacts and resolve
// per-reader chains via mappings.
func New(dir string, mappings MappingLister) *Host {
	return &Host{
		dir:       dir,
		artifacts: make(map[string]*loadedArtifact),
		instances: make(map[string]Plugin),
		mappings:  mappings,
	}
}

// Get returns a loaded plugin instance by id.
func (h *Host) Get(id string) (Plugin, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.instances[id]
	return p, ok
}

// Instances returns every currently loaded plugin, for bulk shutdown.
func (h *Host) Instances() []Plugin {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Plugin, 0, len(h.instances))
	for _, p := range h.instances {
		out = append(out, p)
	}
	return out
}

// Register adds an already-constructed plugin instance directly, bypassing
// artifact discovery. Used by tests and by built-in plugins compiled into
// the binary.
func (h *Host) Register(p Plugin) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.instances[p.ID()] = p
}

// Unload releases a plugin instance. Best-effort: Shutdown errors are
// logged, not propagated, since the plugin is being discarded regardless.
func (h *Host) Unload(ctx context.Context, id string) {
	h.mu.Lock()
	p, ok := h.instances[id]
	delete(h.instances, id)
	delete(h.artifacts, id)
	h.mu.Unlock()

	if !ok {
		return
	}
	if err := p.Shutdown(ctx); err != nil {
		logger.Warn("plugin shutdown error", logger.PluginName(p.Name()), logger.Err(err))
	}
}

// GetPluginsForReader returns the enabled mappings for readerID, in
// ascending execution order, resolved to loaded plugin objects. A mapping
// whose plugin id is not loaded is skipped and logged.
func (h *Host) GetPluginsForReader(ctx context.Context, readerID string) ([]Plugin, error) {
	mappings, err := h.mappings.ListMappingsForReader(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("plugin: list mappings for reader %s: %w", readerID, err)
	}

	sort.Slice(mappings, func(i, j int) bool { return mappings[i].ExecutionOrder < mappings[j].ExecutionOrder })

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Plugin, 0, len(mappings))
	for _, m := range mappings {
		if !m.Enabled {
			continue
		}
		p, ok := h.instances[m.PluginID]
		if !ok {
			logger.Warn("mapped plugin not loaded, skipping",
				logger.ReaderID(readerID), logger.PluginName(m.PluginID))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
