// Package plugin defines the contract third-party decision logic implements
// and the host that discovers, loads, and serves plugin instances to the
// Event Pipeline (C5).
package plugin

import (
	"context"

	"github.com/osdpgw/gateway/pkg/model"
)

// CardHandler is implemented by a plugin that decides on card reads. A
// returned error is treated as a denial carrying the error text, not a
// pipeline fault (a plugin error is recorded as a per-plugin failure and
// the chain proceeds).
type CardHandler interface {
	ProcessCardRead(ctx context.Context, event model.CardReadEvent) (approved bool, err error)
}

// PinHandler is implemented by a plugin that decides on PIN entries.
type PinHandler interface {
	ProcessPinRead(ctx context.Context, event model.PinReadEvent) (model.PinReadResult, error)
}

// Plugin is the full contract every loaded artifact must satisfy. A plugin
// may implement CardHandler, PinHandler, or both.
type Plugin interface {
	ID() string
	Name() string
	Version() string
	Description() string
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
