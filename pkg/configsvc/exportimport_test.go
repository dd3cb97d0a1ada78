package configsvc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store/memstore"
)

func seedConfiguration(t *testing.T, s *memstore.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.SaveReader(ctx, &model.Reader{
		ID: "11111111-1111-1111-1111-111111111111", Name: "front-door",
		Port: "/dev/ttyUSB0", Baud: 9600, Address: 1,
		SecurityMode: model.SecuritySecure, SecurityKey: []byte("0123456789abcdef"),
		Enabled: true,
	}))
	require.NoError(t, s.SaveReader(ctx, &model.Reader{
		ID: "22222222-2222-2222-2222-222222222222", Name: "back-door",
		Port: "/dev/ttyUSB0", Baud: 9600, Address: 2,
		SecurityMode: model.SecurityClearText, Enabled: true,
	}))
	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{
		ReaderID: "11111111-1111-1111-1111-111111111111", PluginID: "allowlist", ExecutionOrder: 1, Enabled: true,
	}))
	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{
		ReaderID: "11111111-1111-1111-1111-111111111111", PluginID: "audit", ExecutionOrder: 2, Enabled: true,
	}))
	require.NoError(t, s.SaveFeedback(ctx, model.FeedbackConfig{
		Success: model.DefaultSuccessFeedback(),
		Failure: model.DefaultFailureFeedback(),
		Idle:    model.IdleStateFeedback{PermanentColor: model.LEDBlue, HeartbeatColor: model.LEDGreen, HeartbeatEvery: 5 * time.Second},
	}))
}

func TestExportImportRoundTrip(t *testing.T) {
	src := memstore.New()
	seedConfiguration(t, src)
	ctx := context.Background()

	doc, err := NewExportImportService(src, "test").Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExportFormatVersion, doc.ExportVersion)
	assert.NotEmpty(t, doc.SystemInfo.Hostname)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	parsed, err := ParseExportDocument(data)
	require.NoError(t, err)

	dst := memstore.New()
	require.NoError(t, NewExportImportService(dst, "test").Import(ctx, parsed))

	readers, err := dst.LoadReaders(ctx)
	require.NoError(t, err)
	require.Len(t, readers, 2)

	byName := map[string]*model.Reader{}
	for _, r := range readers {
		byName[r.Name] = r
	}
	front := byName["front-door"]
	require.NotNil(t, front)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", front.ID)
	assert.Equal(t, model.SecuritySecure, front.SecurityMode)
	assert.Empty(t, front.SecurityKey, "secure-channel keys must not travel through exports")

	mappings, err := dst.ListMappingsForReader(ctx, front.ID)
	require.NoError(t, err)
	require.Len(t, mappings, 2)

	feedback, err := dst.LoadFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSuccessFeedback(), feedback.Success)
	assert.Equal(t, model.LEDBlue, feedback.Idle.PermanentColor)
}

func TestValidateRejectsDuplicateReaderNames(t *testing.T) {
	doc := &ExportDocument{
		ExportVersion: ExportFormatVersion,
		Readers: []ExportedReader{
			{Reader: model.Reader{Name: "door", Port: "/dev/ttyUSB0", Baud: 9600, Address: 1}},
			{Reader: model.Reader{Name: "door", Port: "/dev/ttyUSB1", Baud: 9600, Address: 1}},
		},
	}
	err := doc.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems[0], `duplicate reader name "door"`)
}

func TestValidateRejectsDuplicateAddressOnPort(t *testing.T) {
	doc := &ExportDocument{
		ExportVersion: ExportFormatVersion,
		Readers: []ExportedReader{
			{Reader: model.Reader{Name: "a", Port: "/dev/ttyUSB0", Baud: 9600, Address: 3, Enabled: true}},
			{Reader: model.Reader{Name: "b", Port: "/dev/ttyUSB0", Baud: 9600, Address: 3, Enabled: true}},
		},
	}
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate address 3")
}

func TestValidateRejectsBaudMismatchOnPort(t *testing.T) {
	doc := &ExportDocument{
		ExportVersion: ExportFormatVersion,
		Readers: []ExportedReader{
			{Reader: model.Reader{Name: "a", Port: "/dev/ttyUSB0", Baud: 9600, Address: 1, Enabled: true}},
			{Reader: model.Reader{Name: "b", Port: "/dev/ttyUSB0", Baud: 19200, Address: 2, Enabled: true}},
		},
	}
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baud mismatch on port /dev/ttyUSB0")
}

func TestValidateRejectsDuplicateExecutionOrders(t *testing.T) {
	doc := &ExportDocument{
		ExportVersion: ExportFormatVersion,
		Readers: []ExportedReader{{
			Reader: model.Reader{Name: "door", Port: "/dev/ttyUSB0", Baud: 9600, Address: 1},
			Mappings: []model.PluginMapping{
				{PluginID: "a", ExecutionOrder: 1},
				{PluginID: "b", ExecutionOrder: 1},
			},
		}},
	}
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate execution order 1")
}

func TestValidateRejectsBadFeedback(t *testing.T) {
	doc := &ExportDocument{
		ExportVersion: ExportFormatVersion,
		Feedback: model.FeedbackConfig{
			Success: model.ReaderFeedback{Type: model.FeedbackSuccess, LEDColor: model.LEDGreen, LEDDuration: 0, BeepCount: -1},
		},
	}
	err := doc.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
	assert.Contains(t, verr.Problems[0], "negative beep count")
	assert.Contains(t, verr.Problems[1], "non-positive LED duration")
}

func TestValidateRejectsNewerExportVersion(t *testing.T) {
	doc := &ExportDocument{ExportVersion: ExportFormatVersion + 1}
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export version")
}

func TestParseExportDocumentRejectsMalformedJSON(t *testing.T) {
	_, err := ParseExportDocument([]byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse export document")
}
