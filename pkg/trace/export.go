package trace

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/osdpgw/gateway/pkg/model"
)

// osdpcapMagic identifies the gateway's OSDPCAP export format. It is an
// opaque sequence of length-prefixed records; the exact byte layout is an
// implementation detail delegated to this package.
var osdpcapMagic = [4]byte{'O', 'C', 'A', 'P'}

const osdpcapVersion uint16 = 1

// ExportFormat selects an export's MIME type and extension.
type ExportFormat struct {
	MIMEType  string
	Extension string
}

var (
	FormatOSDPCAP = ExportFormat{MIMEType: "application/octet-stream", Extension: ".osdpcap"}
	FormatText    = ExportFormat{MIMEType: "text/plain", Extension: ".txt"}
)

// ExportOSDPCAP encodes entries as an opaque OSDPCAP binary blob, one
// record per packet.
func ExportOSDPCAP(entries []model.PacketTraceEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(osdpcapMagic[:])
	if err := binary.Write(&buf, binary.BigEndian, osdpcapVersion); err != nil {
		return nil, fmt.Errorf("trace: write osdpcap header: %w", err)
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(entries))); err != nil {
		return nil, fmt.Errorf("trace: write osdpcap count: %w", err)
	}
	for _, e := range entries {
		if err := writeOSDPCAPRecord(&buf, e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeOSDPCAP parses a blob produced by ExportOSDPCAP back into entries,
// used by the osdpgatewayd trace decode command for offline capture
// inspection.
func DecodeOSDPCAP(blob []byte) ([]model.PacketTraceEntry, error) {
	r := bytes.NewReader(blob)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("trace: read osdpcap magic: %w", err)
	}
	if magic != osdpcapMagic {
		return nil, fmt.Errorf("trace: not an osdpcap blob (magic %q)", magic)
	}

	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("trace: read osdpcap version: %w", err)
	}
	if version != osdpcapVersion {
		return nil, fmt.Errorf("trace: unsupported osdpcap version %d", version)
	}

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("trace: read osdpcap count: %w", err)
	}

	entries := make([]model.PacketTraceEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := readOSDPCAPRecord(r)
		if err != nil {
			return nil, fmt.Errorf("trace: read osdpcap record %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readOSDPCAPRecord(r io.Reader) (model.PacketTraceEntry, error) {
	var e model.PacketTraceEntry
	var intervalNanos int64
	var direction byte
	var address, commandOrReply, sequence int32
	var unixNano int64

	fields := []any{
		&e.ID, &unixNano, &intervalNanos, &direction, &address, &commandOrReply, &sequence, &e.Secure, &e.Valid,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return e, fmt.Errorf("read field: %w", err)
		}
	}
	e.Timestamp = time.Unix(0, unixNano).UTC()
	e.IntervalSince = time.Duration(intervalNanos)
	if direction == 1 {
		e.Direction = model.TraceIncoming
	} else {
		e.Direction = model.TraceOutgoing
	}
	e.Address = int(address)
	e.CommandOrReply = byte(commandOrReply)
	e.Sequence = int(sequence)

	strs := make([]string, 4)
	for i := range strs {
		b, err := readLengthPrefixed(r)
		if err != nil {
			return e, err
		}
		strs[i] = string(b)
	}
	e.ReaderID, e.ReaderName, e.Error, e.SessionID = strs[0], strs[1], strs[2], strs[3]

	raw, err := readLengthPrefixed(r)
	if err != nil {
		return e, err
	}
	e.Raw = raw

	return e, nil
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read bytes: %w", err)
	}
	return b, nil
}

func writeOSDPCAPRecord(w io.Writer, e model.PacketTraceEntry) error {
	fields := []any{
		e.ID,
		e.Timestamp.UnixNano(),
		int64(e.IntervalSince),
		directionByte(e.Direction),
		int32(e.Address),
		int32(e.CommandOrReply),
		int32(e.Sequence),
		e.Secure,
		e.Valid,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return fmt.Errorf("trace: write osdpcap field: %w", err)
		}
	}
	for _, s := range []string{e.ReaderID, e.ReaderName, e.Error, e.SessionID} {
		if err := writeLengthPrefixed(w, []byte(s)); err != nil {
			return err
		}
	}
	return writeLengthPrefixed(w, e.Raw)
}

func writeLengthPrefixed(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return fmt.Errorf("trace: write osdpcap length: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("trace: write osdpcap bytes: %w", err)
	}
	return nil
}

func directionByte(d model.TraceDirection) byte {
	if d == model.TraceIncoming {
		return 1
	}
	return 0
}

// ExportText renders entries as one formatted line per packet: type,
// direction, timestamp, and a short detail string.
func ExportText(entries []model.PacketTraceEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s %-8s reader=%s addr=%d cmd=0x%02x seq=%d secure=%t valid=%t %s\n",
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			directionLabel(e.Direction),
			readerLabel(e),
			e.Address,
			e.CommandOrReply,
			e.Sequence,
			e.Secure,
			e.Valid,
			detail(e),
		)
	}
	return buf.Bytes()
}

func directionLabel(d model.TraceDirection) string {
	if d == model.TraceIncoming {
		return "IN"
	}
	return "OUT"
}

func readerLabel(e model.PacketTraceEntry) string {
	if e.ReaderName != "" {
		return e.ReaderName
	}
	return e.ReaderID
}

func detail(e model.PacketTraceEntry) string {
	if e.Error != "" {
		return "error=" + e.Error
	}
	if e.CommandOrReply == model.CommandPoll {
		return "POLL"
	}
	if e.CommandOrReply == model.ReplyAck {
		return "ACK"
	}
	return fmt.Sprintf("bytes=%d", len(e.Raw))
}

// Uploader uploads an exported blob to external storage. The S3
// implementation lives in trace/s3export; this package only depends on the
// interface so the core never imports the AWS SDK directly.
type Uploader interface {
	Upload(ctx context.Context, key string, format ExportFormat, data []byte) (location string, err error)
}
