package configsvc

import (
	"context"
	"fmt"
	"sort"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// MappingService implements the Reader-Plugin Mapping Service:
// list, set, reorder, enable/disable mappings, copy between readers, and
// query readers by plugin.
type MappingService struct {
	store store.MappingStore
}

// NewMappingService constructs a MappingService.
func NewMappingService(s store.MappingStore) *MappingService {
	return &MappingService{store: s}
}

// ListForReader returns a reader's plugin chain ordered by ExecutionOrder,
// matching the order the Plugin Host resolves at pipeline time.
func (s *MappingService) ListForReader(ctx context.Context, readerID string) ([]*model.PluginMapping, error) {
	mappings, err := s.store.ListMappingsForReader(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("configsvc: list mappings: %w", err)
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].ExecutionOrder < mappings[j].ExecutionOrder })
	return mappings, nil
}

// ReadersForPlugin returns every mapping referencing pluginID, across all
// readers.
func (s *MappingService) ReadersForPlugin(ctx context.Context, pluginID string) ([]*model.PluginMapping, error) {
	mappings, err := s.store.ListReadersForPlugin(ctx, pluginID)
	if err != nil {
		return nil, fmt.Errorf("configsvc: list readers for plugin: %w", err)
	}
	return mappings, nil
}

// SetMapping creates or updates a single reader/plugin mapping. Execution
// orders are 1-based; zero or negative orders are rejected before anything
// is written.
func (s *MappingService) SetMapping(ctx context.Context, m model.PluginMapping) error {
	if m.ExecutionOrder < 1 {
		return fmt.Errorf("configsvc: set mapping: execution order must be a positive integer, got %d", m.ExecutionOrder)
	}
	if err := s.store.SetMapping(ctx, &m); err != nil {
		return fmt.Errorf("configsvc: set mapping: %w", err)
	}
	return nil
}

// Reorder rewrites the execution order of a reader's chain to match the
// order pluginIDs are given in, numbering from 1. Every mapped plugin must
// be named exactly once. The chain is first moved to orders above the
// current maximum so the final assignment never transiently collides with
// an order another plugin still holds (backends enforce order uniqueness
// per reader on every write).
func (s *MappingService) Reorder(ctx context.Context, readerID string, pluginIDs []string) error {
	existing, err := s.ListForReader(ctx, readerID)
	if err != nil {
		return err
	}
	byID := make(map[string]*model.PluginMapping, len(existing))
	maxOrder := 0
	for _, m := range existing {
		byID[m.PluginID] = m
		if m.ExecutionOrder > maxOrder {
			maxOrder = m.ExecutionOrder
		}
	}
	seen := make(map[string]bool, len(pluginIDs))
	for _, id := range pluginIDs {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("configsvc: reorder: plugin %q is not mapped to reader %q", id, readerID)
		}
		if seen[id] {
			return fmt.Errorf("configsvc: reorder: plugin %q named more than once", id)
		}
		seen[id] = true
	}
	if len(pluginIDs) != len(existing) {
		return fmt.Errorf("configsvc: reorder: %d plugin ids given but reader %q has %d mappings; every mapped plugin must be named exactly once", len(pluginIDs), readerID, len(existing))
	}

	for i, id := range pluginIDs {
		m := byID[id]
		m.ExecutionOrder = maxOrder + i + 1
		if err := s.store.SetMapping(ctx, m); err != nil {
			return fmt.Errorf("configsvc: reorder: stage mapping: %w", err)
		}
	}
	for i, id := range pluginIDs {
		m := byID[id]
		m.ExecutionOrder = i + 1
		if err := s.store.SetMapping(ctx, m); err != nil {
			return fmt.Errorf("configsvc: reorder: save mapping: %w", err)
		}
	}
	return nil
}

// SetEnabled toggles a mapping's Enabled flag without touching its order.
func (s *MappingService) SetEnabled(ctx context.Context, readerID, pluginID string, enabled bool) error {
	mappings, err := s.ListForReader(ctx, readerID)
	if err != nil {
		return err
	}
	for _, m := range mappings {
		if m.PluginID != pluginID {
			continue
		}
		m.Enabled = enabled
		if err := s.store.SetMapping(ctx, m); err != nil {
			return fmt.Errorf("configsvc: set enabled: %w", err)
		}
		return nil
	}
	return fmt.Errorf("configsvc: set enabled: plugin %q is not mapped to reader %q", pluginID, readerID)
}

// DeleteMapping removes a single reader/plugin mapping.
func (s *MappingService) DeleteMapping(ctx context.Context, readerID, pluginID string) error {
	if err := s.store.DeleteMapping(ctx, readerID, pluginID); err != nil {
		return fmt.Errorf("configsvc: delete mapping: %w", err)
	}
	return nil
}

// CopyMappings duplicates fromReaderID's entire chain onto toReaderID.
func (s *MappingService) CopyMappings(ctx context.Context, fromReaderID, toReaderID string) error {
	if err := s.store.CopyMappings(ctx, fromReaderID, toReaderID); err != nil {
		return fmt.Errorf("configsvc: copy mappings: %w", err)
	}
	return nil
}
