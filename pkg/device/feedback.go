package device

import (
	"context"
	"errors"
	"time"

	"github.com/osdpgw/gateway/internal/telemetry"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/osdp"
)

// SendFeedback translates a domain ReaderFeedback into LED, buzzer, and
// text primitives and issues them to the codec. It returns success only if
// every underlying send succeeds.
func (s *Session) SendFeedback(ctx context.Context, fb model.ReaderFeedback) error {
	_, span := telemetry.StartSpan(ctx, "device.send_feedback")
	defer span.End()

	if fb.Type == model.FeedbackNone {
		return nil
	}

	var errs []error

	led := osdp.LEDCommand{
		Color:    translateColor(fb.LEDColor),
		Duration: int(fb.LEDDuration / time.Millisecond),
	}
	if err := s.codec.SendLED(s.bus, s.reader.Address, led); err != nil {
		errs = append(errs, err)
	}

	if fb.BeepCount > 0 {
		if err := s.codec.SendBuzzer(s.bus, s.reader.Address, fb.BeepCount); err != nil {
			errs = append(errs, err)
		}
	}

	if fb.Text != "" {
		if err := s.codec.SendText(s.bus, s.reader.Address, truncateText(fb.Text, 16)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SendIdleState drives the permanent LED color for an online, idle reader.
// The heartbeat flash is the caller's
// (Bus Manager's) responsibility to schedule every HeartbeatEvery.
func (s *Session) SendIdleState(idle model.IdleStateFeedback) error {
	return s.codec.SendLED(s.bus, s.reader.Address, osdp.LEDCommand{
		Color:    translateColor(idle.PermanentColor),
		Duration: 0,
	})
}

// SendHeartbeat flashes the idle heartbeat color briefly (250 ms); the Bus
// Manager sends the permanent idle color right after it in the same tick.
func (s *Session) SendHeartbeat(idle model.IdleStateFeedback) error {
	return s.codec.SendLED(s.bus, s.reader.Address, osdp.LEDCommand{
		Color:    translateColor(idle.HeartbeatColor),
		Duration: 250,
	})
}

// translateColor maps a domain LED color to the codec's color constant.
// An unrecognized domain color maps to Red.
func translateColor(c model.LEDColor) osdp.LEDColor {
	switch c {
	case model.LEDOff:
		return osdp.LEDOff
	case model.LEDGreen:
		return osdp.LEDGreen
	case model.LEDBlue:
		return osdp.LEDBlue
	case model.LEDAmber:
		return osdp.LEDAmber
	case model.LEDRed:
		return osdp.LEDRed
	default:
		return osdp.LEDRed
	}
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
