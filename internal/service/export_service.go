package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
	"github.com/noah-isme/yakhtimoon-console/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
}

// ExportResult is a rendered export ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the visible rows of a screen.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	cfg    ExportConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, cfg: cfg, logger: logger, now: time.Now}
}

// Export renders what the screen currently shows, honouring its filter and
// search term.
func (s *ExportService) Export(screen Screen, format string) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "exports are disabled")
	}
	dataset := screen.Dataset()

	var (
		payload     []byte
		contentType string
		err         error
	)
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", ExportFormatCSV:
		format = ExportFormatCSV
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, screen.Title())
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("export render failed", zap.String("screen", screen.Name()), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    s.buildFilename(screen.Name(), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildFilename(screen, format string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(screen), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(strings.ToLower(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
