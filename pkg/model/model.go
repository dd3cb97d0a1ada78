// Package model defines the domain types shared across the gateway: readers,
// plugin mappings, the two event kinds (card and PIN), pipeline outcomes,
// feedback commands, and packet trace entries.
package model

import "time"

// SecurityMode is the OSDP secure-channel state of a reader.
type SecurityMode string

const (
	SecurityClearText SecurityMode = "clear_text"
	SecurityInstall   SecurityMode = "install"
	SecuritySecure    SecurityMode = "secure"
)

// Reader is the unit of configuration: one physical OSDP peripheral device.
type Reader struct {
	ID           string       `json:"id" gorm:"primaryKey;type:uuid"`
	Name         string       `json:"name" gorm:"uniqueIndex;not null"`
	Port         string       `json:"port" gorm:"index;not null"`
	Baud         int          `json:"baud" gorm:"not null"`
	Address      int          `json:"address" gorm:"not null"`
	SecurityMode SecurityMode `json:"securityMode" gorm:"not null;default:clear_text"`
	SecurityKey  []byte       `json:"-" gorm:"column:security_key"`
	Enabled      bool         `json:"enabled" gorm:"not null;default:true"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// DefaultReaderAddress is the OSDP address assigned when none is specified.
// Address 0 is the broadcast address, so 1 is used instead.
const DefaultReaderAddress = 1

// PluginMapping associates a plugin with a reader at a given execution order.
type PluginMapping struct {
	ReaderID       string `json:"readerId" gorm:"primaryKey;type:uuid"`
	PluginID       string `json:"pluginId" gorm:"primaryKey"`
	ExecutionOrder int    `json:"executionOrder" gorm:"not null"`
	Enabled        bool   `json:"enabled" gorm:"not null;default:true"`
}

// EventKind discriminates the two event types the pipeline carries.
type EventKind string

const (
	EventKindCard EventKind = "card_read"
	EventKindPin  EventKind = "pin_read"
)

// Event is the interface both event kinds satisfy so Pipeline[E, R] can be
// instantiated once per kind.
type Event interface {
	Kind() EventKind
	Reader() string
	OccurredAt() time.Time
}

// CardReadEvent is a decoded Wiegand card presentation.
type CardReadEvent struct {
	ReaderID   string            `json:"readerId"`
	Timestamp  time.Time         `json:"timestamp"`
	BitLength  int               `json:"bitLength"`
	CardNumber string            `json:"cardNumber"`
	RawBits    string            `json:"rawBits"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (e CardReadEvent) Kind() EventKind       { return EventKindCard }
func (e CardReadEvent) Reader() string        { return e.ReaderID }
func (e CardReadEvent) OccurredAt() time.Time { return e.Timestamp }

// PinDigitEvent is a single keypad digit delivered by the transport.
type PinDigitEvent struct {
	ReaderID  string    `json:"readerId"`
	Timestamp time.Time `json:"timestamp"`
	Digit     byte      `json:"digit"`
	Sequence  uint64    `json:"sequence"`
}

// PinCompletionReason explains why a PIN collection ended.
type PinCompletionReason string

const (
	PinSubmitted        PinCompletionReason = "submitted"
	PinTimedOut         PinCompletionReason = "timed_out"
	PinMaxLengthReached PinCompletionReason = "max_length_reached"
	PinCancelled        PinCompletionReason = "cancelled"
)

// PinReadEvent is a completed PIN collection.
type PinReadEvent struct {
	ReaderID  string              `json:"readerId"`
	Timestamp time.Time           `json:"timestamp"`
	Digits    string              `json:"digits"`
	Reason    PinCompletionReason `json:"reason"`
}

func (e PinReadEvent) Kind() EventKind       { return EventKindPin }
func (e PinReadEvent) Reader() string        { return e.ReaderID }
func (e PinReadEvent) OccurredAt() time.Time { return e.Timestamp }

// PinReadResult is what a plugin returns for a PinReadEvent.
type PinReadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PluginOutcome is one plugin's contribution to a pipeline result.
type PluginOutcome struct {
	PluginID   string `json:"pluginId"`
	PluginName string `json:"pluginName"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// PipelineOutcome is produced by the Event Pipeline for any event kind.
type PipelineOutcome struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	PluginResults []PluginOutcome `json:"pluginResults"`
	Feedback      ReaderFeedback  `json:"feedback"`
	PersistenceOK bool            `json:"persistenceOk"`
	FeedbackOK    bool            `json:"feedbackOk"`
}

// FeedbackType selects which canned feedback command applies.
type FeedbackType string

const (
	FeedbackNone    FeedbackType = "none"
	FeedbackSuccess FeedbackType = "success"
	FeedbackFailure FeedbackType = "failure"
	FeedbackCustom  FeedbackType = "custom"
)

// LEDColor is a domain-level color, translated by the device session into
// codec-specific color constants.
type LEDColor string

const (
	LEDOff   LEDColor = "off"
	LEDRed   LEDColor = "red"
	LEDGreen LEDColor = "green"
	LEDAmber LEDColor = "amber"
	LEDBlue  LEDColor = "blue"
)

// ReaderFeedback is a command sent to a reader after pipeline processing.
type ReaderFeedback struct {
	Type        FeedbackType  `json:"type"`
	LEDColor    LEDColor      `json:"ledColor"`
	LEDDuration time.Duration `json:"ledDuration"`
	BeepCount   int           `json:"beepCount"`
	Text        string        `json:"text,omitempty"`
}

// IdleStateFeedback describes the LED shown while a reader is online and
// idle, plus the heartbeat color flashed periodically.
type IdleStateFeedback struct {
	PermanentColor LEDColor      `json:"permanentColor"`
	HeartbeatColor LEDColor      `json:"heartbeatColor"`
	HeartbeatEvery time.Duration `json:"heartbeatEvery"`
}

// DefaultSuccessFeedback is used when the feedback store errors.
func DefaultSuccessFeedback() ReaderFeedback {
	return ReaderFeedback{
		Type:        FeedbackSuccess,
		LEDColor:    LEDGreen,
		LEDDuration: time.Second,
		BeepCount:   1,
		Text:        "ACCESS GRANTED",
	}
}

// DefaultFailureFeedback is used when the feedback store errors.
func DefaultFailureFeedback() ReaderFeedback {
	return ReaderFeedback{
		Type:        FeedbackFailure,
		LEDColor:    LEDRed,
		LEDDuration: 2 * time.Second,
		BeepCount:   3,
		Text:        "ACCESS DENIED",
	}
}

// FeedbackConfig is the singleton Success/Failure/Idle feedback record.
type FeedbackConfig struct {
	ID      uint              `json:"-" gorm:"primaryKey;autoIncrement"`
	Success ReaderFeedback    `json:"success" gorm:"embedded;embeddedPrefix:success_"`
	Failure ReaderFeedback    `json:"failure" gorm:"embedded;embeddedPrefix:failure_"`
	Idle    IdleStateFeedback `json:"idle" gorm:"embedded;embeddedPrefix:idle_"`
}

// TraceDirection is the direction of a captured OSDP frame.
type TraceDirection string

const (
	TraceOutgoing TraceDirection = "outgoing"
	TraceIncoming TraceDirection = "incoming"
)

// PacketTraceEntry is one captured OSDP frame.
type PacketTraceEntry struct {
	ID             uint64         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	IntervalSince  time.Duration  `json:"intervalSince"`
	Direction      TraceDirection `json:"direction"`
	ReaderID       string         `json:"readerId"`
	ReaderName     string         `json:"readerName"`
	Address        int            `json:"address"`
	Raw            []byte         `json:"raw"`
	CommandOrReply byte           `json:"commandOrReply"`
	Sequence       int            `json:"sequence"`
	Secure         bool           `json:"secure"`
	Valid          bool           `json:"valid"`
	Error          string         `json:"error,omitempty"`
	SessionID      string         `json:"sessionId,omitempty"`
}

// OSDP command/reply codes that the trace store can filter on.
const (
	CommandPoll byte = 0x60
	ReplyAck    byte = 0x40
)

// NotificationKind discriminates payload shapes broadcast on the notify bus.
type NotificationKind string

const (
	NotifyCardEvent    NotificationKind = "card_event"
	NotifyPinEvent     NotificationKind = "pin_event"
	NotifyReaderStatus NotificationKind = "reader_status"
	NotifyReaderConfig NotificationKind = "reader_config_change"
	NotifyStatistics   NotificationKind = "statistics"
)

// Notification is the fire-and-forget payload handed to notify.Bus.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   any              `json:"payload"`
}

// ReaderConfigChange is the payload for NotifyReaderConfig.
type ReaderConfigChange struct {
	ReaderID string `json:"readerId"`
	Action   string `json:"action"`
}

// ReaderStatus is the payload for NotifyReaderStatus.
type ReaderStatus struct {
	ReaderID string `json:"readerId"`
	Online   bool   `json:"online"`
	Message  string `json:"message,omitempty"`
}
