package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
	"github.com/noah-isme/yakhtimoon-console/pkg/export"
)

type exportScreenStub struct {
	Screen
	name    string
	title   string
	dataset export.Dataset
}

func (s exportScreenStub) Name() string            { return s.name }
func (s exportScreenStub) Title() string           { return s.title }
func (s exportScreenStub) Dataset() export.Dataset { return s.dataset }

type failingCSV struct{}

func (failingCSV) Render(export.Dataset) ([]byte, error) {
	return nil, errors.New("disk full")
}

func newExportScreen() exportScreenStub {
	return exportScreenStub{
		name:  "student_recitation",
		title: "Recitation",
		dataset: export.Dataset{
			Columns: []export.Column{{Key: "student_name", Label: "Student"}, {Key: "current_juz", Label: "Juz"}},
			Rows: []map[string]string{
				{"student_name": "Aisha", "current_juz": "3"},
				{"student_name": "Omar", "current_juz": "1"},
			},
		},
	}
}

func newExportServiceForTest(enabled bool) *ExportService {
	svc := NewExportService(ExportConfig{Enabled: enabled}, zap.NewNop(), nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceCSV(t *testing.T) {
	svc := newExportServiceForTest(true)

	result, err := svc.Export(newExportScreen(), "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "student_recitation_20260301_093000.csv", result.Filename)
	assert.Equal(t, "Student,Juz\nAisha,3\nOmar,1\n", string(result.Payload))
}

func TestExportServicePDF(t *testing.T) {
	svc := newExportServiceForTest(true)

	result, err := svc.Export(newExportScreen(), " PDF ")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportServiceDisabled(t *testing.T) {
	svc := newExportServiceForTest(false)

	_, err := svc.Export(newExportScreen(), ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := newExportServiceForTest(true)

	_, err := svc.Export(newExportScreen(), "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceRenderFailure(t *testing.T) {
	svc := NewExportService(ExportConfig{Enabled: true}, zap.NewNop(), failingCSV{}, nil)

	_, err := svc.Export(newExportScreen(), ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "course_files", sanitizeFilename("Course Files"))
	assert.Equal(t, "a-b", sanitizeFilename("a/b"))
}
