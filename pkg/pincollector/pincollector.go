// Package pincollector implements the PIN Collection State Machine (C4):
// per-reader keypad digit assembly with completion rules and timeouts.
package pincollector

import (
	"sync"
	"time"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/model"
)

const (
	// DefaultTerminator completes a collection with reason Submitted.
	DefaultTerminator byte = '#'
	// DefaultCancel completes a collection with reason Cancelled.
	DefaultCancel byte = '*'
	// DefaultMaxLength completes a collection with reason MaxLengthReached.
	DefaultMaxLength = 8
	// DefaultInterDigitTimeout is T_inter.
	DefaultInterDigitTimeout = 10 * time.Second
	// DefaultMaxTimeout is T_max.
	DefaultMaxTimeout = 30 * time.Second
)

// Config tunes the collector's completion rules.
type Config struct {
	Terminator        byte
	Cancel            byte
	MaxLength         int
	InterDigitTimeout time.Duration
	MaxTimeout        time.Duration
}

// DefaultConfig returns the recommended collection defaults.
func DefaultConfig() Config {
	return Config{
		Terminator:        DefaultTerminator,
		Cancel:            DefaultCancel,
		MaxLength:         DefaultMaxLength,
		InterDigitTimeout: DefaultInterDigitTimeout,
		MaxTimeout:        DefaultMaxTimeout,
	}
}

type collection struct {
	buffer     []byte
	startedAt  time.Time
	lastDigit  time.Time
	interTimer *time.Timer
	maxTimer   *time.Timer
}

// CompletionHandler is invoked once per finished collection.
type CompletionHandler func(model.PinReadEvent)

// Collector assembles PinDigitEvents into PinReadEvents per reader.
type Collector struct {
	cfg     Config
	onDone  CompletionHandler
	mu      sync.Mutex
	active  map[string]*collection
}

// New creates a Collector. onDone is invoked synchronously from whichever
// goroutine completes a collection (digit delivery or a timer firing).
func New(cfg Config, onDone CompletionHandler) *Collector {
	return &Collector{
		cfg:    cfg,
		onDone: onDone,
		active: make(map[string]*collection),
	}
}

// Digit feeds one keypad digit for a reader into its collection.
func (c *Collector) Digit(readerID string, d byte) {
	c.mu.Lock()

	now := time.Now()
	col, ok := c.active[readerID]

	switch {
	case d == c.cfg.Terminator:
		if !ok || len(col.buffer) == 0 {
			c.mu.Unlock()
			return
		}
		digits := string(col.buffer)
		c.finishLocked(readerID, col)
		c.mu.Unlock()
		c.complete(readerID, digits, model.PinSubmitted, now)
		return

	case d == c.cfg.Cancel:
		if !ok {
			c.mu.Unlock()
			return
		}
		c.finishLocked(readerID, col)
		c.mu.Unlock()
		c.complete(readerID, "", model.PinCancelled, now)
		return
	}

	if !ok {
		col = &collection{startedAt: now}
		c.active[readerID] = col
		col.maxTimer = time.AfterFunc(c.cfg.MaxTimeout, func() { c.onMaxTimeout(readerID) })
	}

	col.buffer = append(col.buffer, d)
	col.lastDigit = now
	c.resetInterTimerLocked(readerID, col)

	if len(col.buffer) >= c.cfg.MaxLength {
		digits := string(col.buffer)
		c.finishLocked(readerID, col)
		c.mu.Unlock()
		c.complete(readerID, digits, model.PinMaxLengthReached, now)
		return
	}

	c.mu.Unlock()
}

// Clear discards a reader's in-progress collection without emitting an
// event.
func (c *Collector) Clear(readerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.active[readerID]; ok {
		c.finishLocked(readerID, col)
	}
}

// Stop discards every in-progress collection without emitting events,
// used when the gateway shuts down.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for readerID, col := range c.active {
		c.finishLocked(readerID, col)
	}
}

// GetCurrent returns the in-progress buffer for a reader, if any.
func (c *Collector) GetCurrent(readerID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.active[readerID]
	if !ok {
		return "", false
	}
	return string(col.buffer), true
}

func (c *Collector) resetInterTimerLocked(readerID string, col *collection) {
	if col.interTimer != nil {
		col.interTimer.Stop()
	}
	col.interTimer = time.AfterFunc(c.cfg.InterDigitTimeout, func() { c.onInterTimeout(readerID) })
}

func (c *Collector) finishLocked(readerID string, col *collection) {
	if col.interTimer != nil {
		col.interTimer.Stop()
	}
	if col.maxTimer != nil {
		col.maxTimer.Stop()
	}
	delete(c.active, readerID)
}

func (c *Collector) onInterTimeout(readerID string) {
	c.mu.Lock()
	col, ok := c.active[readerID]
	if !ok || len(col.buffer) == 0 {
		if ok {
			c.finishLocked(readerID, col)
		}
		c.mu.Unlock()
		return
	}
	digits := string(col.buffer)
	c.finishLocked(readerID, col)
	c.mu.Unlock()
	c.complete(readerID, digits, model.PinTimedOut, time.Now())
}

func (c *Collector) onMaxTimeout(readerID string) {
	c.mu.Lock()
	col, ok := c.active[readerID]
	if !ok {
		c.mu.Unlock()
		return
	}
	digits := string(col.buffer)
	c.finishLocked(readerID, col)
	c.mu.Unlock()

	if len(digits) == 0 {
		return
	}
	c.complete(readerID, digits, model.PinTimedOut, time.Now())
}

func (c *Collector) complete(readerID, digits string, reason model.PinCompletionReason, at time.Time) {
	event := model.PinReadEvent{
		ReaderID:  readerID,
		Timestamp: at,
		Digits:    digits,
		Reason:    reason,
	}
	logger.Debug("pin collection complete",
		logger.ReaderID(readerID), "reason", string(reason))
	if c.onDone != nil {
		c.onDone(event)
	}
}
