package configsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// ExportFormatVersion is stamped into every export document and checked on
// import.
const ExportFormatVersion = 1

// SystemInfo records the host and gateway build that produced an export.
type SystemInfo struct {
	Hostname string `json:"hostname"`
	Gateway  string `json:"gateway"`
}

// ExportedReader is a reader plus its full plugin chain. Secure-channel
// keys are never exported; a reader imported in Secure mode stays offline
// until a key is installed or re-entered.
type ExportedReader struct {
	model.Reader
	Mappings []model.PluginMapping `json:"mappings"`
}

// ExportDocument is the JSON configuration export/import shape.
type ExportDocument struct {
	Readers       []ExportedReader     `json:"readers"`
	Feedback      model.FeedbackConfig `json:"feedback"`
	ExportVersion int                  `json:"exportVersion"`
	ExportedAt    time.Time            `json:"exportedAt"`
	SystemInfo    SystemInfo           `json:"systemInfo"`
}

// ValidationError aggregates every rule an export document violates, so an
// operator sees all problems in one pass instead of one per attempt.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configsvc: invalid export document: %s", strings.Join(e.Problems, "; "))
}

type exportImportStore interface {
	store.ReaderStore
	store.MappingStore
	store.FeedbackStore
}

// ExportImportService serializes the full reader/mapping/feedback
// configuration to the export JSON document and back.
type ExportImportService struct {
	store   exportImportStore
	version string
}

// NewExportImportService constructs an ExportImportService. version is the
// gateway build string recorded in SystemInfo.
func NewExportImportService(s exportImportStore, version string) *ExportImportService {
	return &ExportImportService{store: s, version: version}
}

// Export snapshots every reader, its plugin chain, and the feedback
// configuration into an ExportDocument.
func (s *ExportImportService) Export(ctx context.Context) (*ExportDocument, error) {
	readers, err := s.store.LoadReaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("configsvc: export: load readers: %w", err)
	}
	doc := &ExportDocument{
		Readers:       make([]ExportedReader, 0, len(readers)),
		ExportVersion: ExportFormatVersion,
		ExportedAt:    time.Now().UTC(),
	}
	for _, r := range readers {
		mappings, err := s.store.ListMappingsForReader(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("configsvc: export: load mappings for %s: %w", r.ID, err)
		}
		sort.Slice(mappings, func(i, j int) bool { return mappings[i].ExecutionOrder < mappings[j].ExecutionOrder })
		er := ExportedReader{Reader: *r, Mappings: make([]model.PluginMapping, 0, len(mappings))}
		er.SecurityKey = nil
		for _, m := range mappings {
			er.Mappings = append(er.Mappings, *m)
		}
		doc.Readers = append(doc.Readers, er)
	}
	feedback, err := s.store.LoadFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("configsvc: export: load feedback: %w", err)
	}
	if feedback.Success == (model.ReaderFeedback{}) {
		feedback.Success = model.DefaultSuccessFeedback()
	}
	if feedback.Failure == (model.ReaderFeedback{}) {
		feedback.Failure = model.DefaultFailureFeedback()
	}
	doc.Feedback = feedback

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	doc.SystemInfo = SystemInfo{Hostname: hostname, Gateway: s.version}
	return doc, nil
}

// ParseExportDocument unmarshals and validates an export document.
func ParseExportDocument(data []byte) (*ExportDocument, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("configsvc: parse export document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document against the import rules: supported version,
// unique reader names, unique addresses and coherent baud per port among
// enabled readers, unique positive plugin execution orders per reader,
// non-negative beep counts, and positive LED durations.
func (d *ExportDocument) Validate() error {
	var problems []string

	if d.ExportVersion > ExportFormatVersion {
		problems = append(problems, fmt.Sprintf("unsupported export version %d (newest supported is %d)", d.ExportVersion, ExportFormatVersion))
	}

	names := make(map[string]bool, len(d.Readers))
	addresses := make(map[string]bool)
	bauds := make(map[string]int)
	for _, r := range d.Readers {
		if names[r.Name] {
			problems = append(problems, fmt.Sprintf("duplicate reader name %q", r.Name))
		}
		names[r.Name] = true

		if r.Enabled {
			key := fmt.Sprintf("%s#%d", r.Port, r.Address)
			if addresses[key] {
				problems = append(problems, fmt.Sprintf("duplicate address %d on port %s", r.Address, r.Port))
			}
			addresses[key] = true
			if baud, ok := bauds[r.Port]; ok && baud != r.Baud {
				problems = append(problems, fmt.Sprintf("baud mismatch on port %s: %d and %d", r.Port, baud, r.Baud))
			}
			bauds[r.Port] = r.Baud
		}

		orders := make(map[int]bool, len(r.Mappings))
		for _, m := range r.Mappings {
			if m.ExecutionOrder < 1 {
				problems = append(problems, fmt.Sprintf("reader %q: plugin %q has non-positive execution order %d", r.Name, m.PluginID, m.ExecutionOrder))
			}
			if orders[m.ExecutionOrder] {
				problems = append(problems, fmt.Sprintf("reader %q: duplicate execution order %d", r.Name, m.ExecutionOrder))
			}
			orders[m.ExecutionOrder] = true
		}
	}

	for _, fb := range []struct {
		name string
		f    model.ReaderFeedback
	}{{"success", d.Feedback.Success}, {"failure", d.Feedback.Failure}} {
		if fb.f.Type == model.FeedbackNone || fb.f == (model.ReaderFeedback{}) {
			continue
		}
		if fb.f.BeepCount < 0 {
			problems = append(problems, fmt.Sprintf("%s feedback: negative beep count %d", fb.name, fb.f.BeepCount))
		}
		if fb.f.LEDDuration <= 0 {
			problems = append(problems, fmt.Sprintf("%s feedback: non-positive LED duration %s", fb.name, fb.f.LEDDuration))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Import validates doc and writes its readers, mappings, and feedback
// configuration to the repository. Existing readers with the same id are
// overwritten; readers not present in the document are left untouched.
func (s *ExportImportService) Import(ctx context.Context, doc *ExportDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	now := time.Now()
	for _, er := range doc.Readers {
		r := er.Reader
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		if err := s.store.SaveReader(ctx, &r); err != nil {
			return fmt.Errorf("configsvc: import: save reader %q: %w", r.Name, err)
		}
		for _, m := range er.Mappings {
			m.ReaderID = r.ID
			if err := s.store.SetMapping(ctx, &m); err != nil {
				return fmt.Errorf("configsvc: import: save mapping %q for reader %q: %w", m.PluginID, r.Name, err)
			}
		}
	}
	if err := s.store.SaveFeedback(ctx, doc.Feedback); err != nil {
		return fmt.Errorf("configsvc: import: save feedback: %w", err)
	}
	return nil
}
