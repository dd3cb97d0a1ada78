package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	stdplugin "plugin"

	"github.com/fsnotify/fsnotify"

	"github.com/osdpgw/gateway/internal/logger"
)

// Factory is the shape of the exported constructor symbol a plugin artifact
// may provide. The logger-accepting form is preferred; Scan falls back to a
// no-argument constructor.
type Factory func(l *slog.Logger) Plugin

// Scan loads every *.so artifact in the host's directory, instantiating and
// initializing each one. Already-loaded plugin ids are skipped. Errors
// opening or initializing one artifact are logged and do not abort the scan.
func (h *Host) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("plugin: read dir %s: %w", h.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".so" {
			continue
		}
		path := filepath.Join(h.dir, entry.Name())
		if err := h.loadArtifact(ctx, path); err != nil {
			logger.Warn("failed to load plugin artifact", "path", path, logger.Err(err))
		}
	}
	return nil
}

func (h *Host) loadArtifact(ctx context.Context, path string) error {
	handle, err := stdplugin.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	p, err := construct(handle)
	if err != nil {
		return err
	}

	if err := p.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize plugin %s: %w", p.ID(), err)
	}

	h.mu.Lock()
	h.artifacts[p.ID()] = &loadedArtifact{path: path, handle: handle}
	h.instances[p.ID()] = p
	h.mu.Unlock()

	logger.Info("plugin loaded", logger.PluginName(p.Name()), "path", path)
	return nil
}

// construct looks up the constructor symbol, preferring the one-argument
// (logger) form and falling back to a no-argument constructor.
func construct(handle *stdplugin.Plugin) (Plugin, error) {
	sym, err := handle.Lookup(constructorSymbol)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", constructorSymbol, err)
	}

	switch ctor := sym.(type) {
	case func(*slog.Logger) Plugin:
		return ctor(logger.With()), nil
	case func() Plugin:
		return ctor(), nil
	default:
		return nil, fmt.Errorf("symbol %s has unexpected type %T", constructorSymbol, sym)
	}
}

// Reload evicts every cached artifact and instance, shuts each one down,
// then re-scans the directory.
func (h *Host) Reload(ctx context.Context) error {
	h.mu.Lock()
	ids := make([]string, 0, len(h.instances))
	for id := range h.instances {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.Unload(ctx, id)
	}
	return h.Scan(ctx)
}

// Watch starts an fsnotify watch on the plugin directory and triggers a
// Reload whenever a file is created, written, or removed. It runs until ctx
// is cancelled.
func (h *Host) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("plugin: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(h.dir); err != nil {
		return fmt.Errorf("plugin: watch %s: %w", h.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".so" {
				continue
			}
			logger.Info("plugin directory changed, reloading", "event", event.Op.String())
			if err := h.Reload(ctx); err != nil {
				logger.Warn("plugin reload failed", logger.Err(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("plugin watcher error", logger.Err(err))
		}
	}
}
