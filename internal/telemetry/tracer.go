package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for gateway operations, following OpenTelemetry
// semantic conventions where applicable.
const (
	// Ambient HTTP surface attributes (health/metrics endpoints)
	AttrClientIP   = "http.client_ip"
	AttrClientAddr = "http.client_addr"

	// Bus / device attributes
	AttrBusPort    = "osdp.bus.port"
	AttrBusBaud    = "osdp.bus.baud"
	AttrReaderID   = "osdp.reader.id"
	AttrReaderName = "osdp.reader.name"
	AttrAddress    = "osdp.device.address"
	AttrSecureMode = "osdp.security.mode"
	AttrOnline     = "osdp.device.online"

	// Event pipeline attributes
	AttrEventKind       = "osdp.event.kind"
	AttrPluginID        = "osdp.plugin.id"
	AttrPluginName      = "osdp.plugin.name"
	AttrPipelineSuccess = "osdp.pipeline.success"

	// Packet trace attributes
	AttrTraceDirection = "osdp.trace.direction"
	AttrTraceCommand   = "osdp.trace.command"
)

// ClientIP returns an attribute for the remote IP of an ambient HTTP request
// (health/metrics endpoints).
func ClientIP(ip string) attribute.KeyValue { return attribute.String(AttrClientIP, ip) }

// ClientAddr returns an attribute for the remote host:port of an ambient
// HTTP request.
func ClientAddr(addr string) attribute.KeyValue { return attribute.String(AttrClientAddr, addr) }

// BusPort returns an attribute for a bus's serial port name.
func BusPort(port string) attribute.KeyValue { return attribute.String(AttrBusPort, port) }

// BusBaud returns an attribute for a bus's baud rate.
func BusBaud(baud int) attribute.KeyValue { return attribute.Int(AttrBusBaud, baud) }

// ReaderID returns an attribute for a reader's id.
func ReaderID(id string) attribute.KeyValue { return attribute.String(AttrReaderID, id) }

// ReaderName returns an attribute for a reader's display name.
func ReaderName(name string) attribute.KeyValue { return attribute.String(AttrReaderName, name) }

// Address returns an attribute for an OSDP device address.
func Address(addr int) attribute.KeyValue { return attribute.Int(AttrAddress, addr) }

// SecureMode returns an attribute for a reader's security mode.
func SecureMode(mode string) attribute.KeyValue { return attribute.String(AttrSecureMode, mode) }

// Online returns an attribute for a device's online state.
func Online(online bool) attribute.KeyValue { return attribute.Bool(AttrOnline, online) }

// EventKind returns an attribute for the event kind a pipeline is processing.
func EventKind(kind string) attribute.KeyValue { return attribute.String(AttrEventKind, kind) }

// PluginID returns an attribute for a plugin's id.
func PluginID(id string) attribute.KeyValue { return attribute.String(AttrPluginID, id) }

// PluginName returns an attribute for a plugin's display name.
func PluginName(name string) attribute.KeyValue { return attribute.String(AttrPluginName, name) }

// PipelineSuccess returns an attribute for a pipeline's aggregate outcome.
func PipelineSuccess(success bool) attribute.KeyValue {
	return attribute.Bool(AttrPipelineSuccess, success)
}

// TraceDirection returns an attribute for a captured packet's direction.
func TraceDirection(direction string) attribute.KeyValue {
	return attribute.String(AttrTraceDirection, direction)
}

// StartBusSpan starts a span for a Bus Manager operation.
func StartBusSpan(ctx context.Context, operation, port string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{BusPort(port)}, attrs...)
	return StartSpan(ctx, "bus."+operation, trace.WithAttributes(allAttrs...))
}

// StartDeviceSpan starts a span for a Device Session operation.
func StartDeviceSpan(ctx context.Context, operation, readerID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ReaderID(readerID)}, attrs...)
	return StartSpan(ctx, "device."+operation, trace.WithAttributes(allAttrs...))
}

// StartPipelineSpan starts a span for an Event Pipeline operation.
func StartPipelineSpan(ctx context.Context, kind, readerID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{EventKind(kind), ReaderID(readerID)}, attrs...)
	return StartSpan(ctx, "pipeline."+kind+".process", trace.WithAttributes(allAttrs...))
}
