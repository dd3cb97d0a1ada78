package pincollector

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/model"
)

func collect(t *testing.T, cfg Config) (*Collector, chan model.PinReadEvent) {
	t.Helper()
	events := make(chan model.PinReadEvent, 4)
	c := New(cfg, func(e model.PinReadEvent) { events <- e })
	return c, events
}

func TestSubmitOnTerminator(t *testing.T) {
	cfg := DefaultConfig()
	c, events := collect(t, cfg)

	for _, d := range []byte("1234") {
		c.Digit("r1", d)
	}
	c.Digit("r1", cfg.Terminator)

	select {
	case e := <-events:
		assert.Equal(t, "1234", e.Digits)
		assert.Equal(t, model.PinSubmitted, e.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected completion event")
	}
}

func TestCancel(t *testing.T) {
	cfg := DefaultConfig()
	c, events := collect(t, cfg)

	c.Digit("r1", '9')
	c.Digit("r1", '9')
	c.Digit("r1", cfg.Cancel)

	select {
	case e := <-events:
		assert.Equal(t, model.PinCancelled, e.Reason)
		assert.Equal(t, "", e.Digits)
	case <-time.After(time.Second):
		t.Fatal("expected cancellation event")
	}
}

func TestMaxLengthReached(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLength = 3
	c, events := collect(t, cfg)

	c.Digit("r1", '1')
	c.Digit("r1", '2')
	c.Digit("r1", '3')

	select {
	case e := <-events:
		assert.Equal(t, "123", e.Digits)
		assert.Equal(t, model.PinMaxLengthReached, e.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected max-length event")
	}
}

func TestInterDigitTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InterDigitTimeout = 30 * time.Millisecond
	cfg.MaxTimeout = time.Second
	c, events := collect(t, cfg)

	c.Digit("r1", '9')
	c.Digit("r1", '9')

	select {
	case e := <-events:
		assert.Equal(t, "99", e.Digits)
		assert.Equal(t, model.PinTimedOut, e.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("expected inter-digit timeout event")
	}
}

func TestGetCurrentAndClear(t *testing.T) {
	cfg := DefaultConfig()
	c, _ := collect(t, cfg)

	c.Digit("r1", '1')
	c.Digit("r1", '2')

	buf, ok := c.GetCurrent("r1")
	require.True(t, ok)
	assert.Equal(t, "12", buf)

	c.Clear("r1")
	_, ok = c.GetCurrent("r1")
	assert.False(t, ok)
}

func TestDoesNotRetainDigitsAfterCompletion(t *testing.T) {
	cfg := DefaultConfig()
	c, events := collect(t, cfg)

	c.Digit("r1", '1')
	c.Digit("r1", cfg.Terminator)
	<-events

	_, ok := c.GetCurrent("r1")
	assert.False(t, ok)
}

func TestConcurrentReadersDoNotInterfere(t *testing.T) {
	cfg := DefaultConfig()
	c, events := collect(t, cfg)

	var wg sync.WaitGroup
	for _, reader := range []string{"r1", "r2", "r3"} {
		reader := reader
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Digit(reader, '1')
			c.Digit(reader, '2')
			c.Digit(reader, cfg.Terminator)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case e := <-events:
			assert.Equal(t, "12", e.Digits)
			seen[e.ReaderID] = true
		case <-time.After(time.Second):
			t.Fatal("expected completion event")
		}
	}
	assert.Len(t, seen, 3)
}
