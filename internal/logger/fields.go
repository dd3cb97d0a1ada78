package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Bus / Reader Identification
	// ========================================================================
	KeyBusID      = "bus_id"      // RS-485 bus identifier (serial port name)
	KeyReaderID   = "reader_id"   // Reader UUID
	KeyReaderName = "reader_name" // Human-readable reader name
	KeyAddress    = "address"     // OSDP device address on the bus
	KeyBaud       = "baud"        // Serial baud rate

	// ========================================================================
	// Device Session
	// ========================================================================
	KeySecurityMode = "security_mode" // clear_text, install, secure
	KeyPollSeq      = "poll_seq"      // poll sequence number
	KeyOnline       = "online"        // device online indicator

	// ========================================================================
	// Events / Pipeline
	// ========================================================================
	KeyEventKind  = "event_kind"  // card_read, pin_digit, pin_read
	KeyCardBits   = "card_bits"   // raw card data bit length
	KeyPluginName = "plugin_name" // plugin artifact name
	KeyResult     = "result"      // plugin/pipeline outcome (grant, deny, error)
	KeyOrder      = "execution_order"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyOperation  = "operation"   // gateway operation name
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyAttempt    = "attempt"     // retry attempt number
	KeyMaxRetries = "max_retries" // maximum retry attempts

	// ========================================================================
	// Packet Trace / Storage
	// ========================================================================
	KeyTraceEntries = "trace_entries" // packet trace ring buffer size
	KeyStoreName    = "store_name"    // named repository backend
	KeyStoreType    = "store_type"    // sqlite, postgres, badger, memory
	KeyBucket       = "bucket"        // S3 bucket for trace export
	KeyKey          = "key"           // object key in cloud storage
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Bus / Reader
// ----------------------------------------------------------------------------

// BusID returns a slog.Attr for the RS-485 bus identifier
func BusID(id string) slog.Attr {
	return slog.String(KeyBusID, id)
}

// ReaderID returns a slog.Attr for the reader UUID
func ReaderID(id string) slog.Attr {
	return slog.String(KeyReaderID, id)
}

// ReaderName returns a slog.Attr for the reader's display name
func ReaderName(name string) slog.Attr {
	return slog.String(KeyReaderName, name)
}

// Address returns a slog.Attr for the OSDP device address
func Address(addr int) slog.Attr {
	return slog.Int(KeyAddress, addr)
}

// Baud returns a slog.Attr for the serial baud rate
func Baud(baud int) slog.Attr {
	return slog.Int(KeyBaud, baud)
}

// ----------------------------------------------------------------------------
// Device Session
// ----------------------------------------------------------------------------

// SecurityMode returns a slog.Attr for the device session's security mode
func SecurityMode(mode string) slog.Attr {
	return slog.String(KeySecurityMode, mode)
}

// PollSeq returns a slog.Attr for the poll sequence number
func PollSeq(seq uint32) slog.Attr {
	return slog.Any(KeyPollSeq, seq)
}

// Online returns a slog.Attr for the device online indicator
func Online(online bool) slog.Attr {
	return slog.Bool(KeyOnline, online)
}

// ----------------------------------------------------------------------------
// Events / Pipeline
// ----------------------------------------------------------------------------

// EventKind returns a slog.Attr for the event discriminator
func EventKind(kind string) slog.Attr {
	return slog.String(KeyEventKind, kind)
}

// CardBits returns a slog.Attr for the raw card data bit length
func CardBits(n int) slog.Attr {
	return slog.Int(KeyCardBits, n)
}

// PluginName returns a slog.Attr for the plugin artifact name
func PluginName(name string) slog.Attr {
	return slog.String(KeyPluginName, name)
}

// Result returns a slog.Attr for a pipeline/plugin outcome
func Result(result string) slog.Attr {
	return slog.String(KeyResult, result)
}

// ExecutionOrder returns a slog.Attr for a plugin mapping's execution order
func ExecutionOrder(n int) slog.Attr {
	return slog.Int(KeyOrder, n)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// Operation returns a slog.Attr for the gateway operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// ----------------------------------------------------------------------------
// Packet Trace / Storage
// ----------------------------------------------------------------------------

// TraceEntries returns a slog.Attr for the packet trace ring buffer size
func TraceEntries(n int) slog.Attr {
	return slog.Int(KeyTraceEntries, n)
}

// StoreName returns a slog.Attr for a named repository backend
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for the repository backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for the S3 bucket used for trace export
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object key in cloud storage
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}
