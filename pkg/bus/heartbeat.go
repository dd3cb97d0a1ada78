package bus

import (
	"context"
	"time"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/device"
	"github.com/osdpgw/gateway/pkg/model"
)

// RunHeartbeat drives the idle-state LED and periodic heartbeat flash for
// every online device. It blocks until ctx is
// cancelled, so callers run it in its own goroutine.
func (m *Manager) RunHeartbeat(ctx context.Context) {
	idle := model.IdleStateFeedback{
		PermanentColor: model.LEDBlue,
		HeartbeatColor: model.LEDGreen,
		HeartbeatEvery: 5 * time.Second,
	}
	if m.idleFeedback != nil {
		idle = m.idleFeedback()
	}

	interval := idle.HeartbeatEvery
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.flashHeartbeat(idle)
		}
	}
}

func (m *Manager) flashHeartbeat(idle model.IdleStateFeedback) {
	if m.idleFeedback != nil {
		idle = m.idleFeedback()
	}
	for _, sess := range m.Sessions() {
		if sess.State() != device.StateOnline {
			continue
		}
		if err := sess.SendHeartbeat(idle); err != nil {
			logger.Warn("heartbeat send failed", logger.ReaderID(sess.ReaderID()), logger.Err(err))
			continue
		}
		if err := sess.SendIdleState(idle); err != nil {
			logger.Warn("idle state restore failed", logger.ReaderID(sess.ReaderID()), logger.Err(err))
		}
	}
}
