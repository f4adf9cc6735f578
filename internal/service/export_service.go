package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
	"github.com/noah-isme/stellarfs-api/pkg/export"
	"github.com/noah-isme/stellarfs-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// DatasetSource turns a view of one record kind into an exportable table.
type DatasetSource interface {
	Dataset(ctx context.Context, params models.ViewParameters, currentUser string) (export.Dataset, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders computed views and persists the resulting files.
type ExportService struct {
	sources map[models.ResourceKind]DatasetSource
	storage fileStorage
	csv     renderer
	pdf     renderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers select the defaults.
func NewExportService(sources map[models.ResourceKind]DatasetSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter(0)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		sources: sources,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Supports reports whether kind can be exported.
func (s *ExportService) Supports(kind models.ResourceKind) bool {
	_, ok := s.sources[kind]
	return ok
}

// Generate computes the job's view, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	source, ok := s.sources[job.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported export kind %s", job.Kind)
	}
	dataset, err := source.Dataset(ctx, job.Params.View, job.Params.CurrentUser)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("export rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ResultTTL is how long rendered files are kept.
func (s *ExportService) ResultTTL() time.Duration {
	return s.cfg.ResultTTL
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	tab := job.Params.View.Tab
	if tab == "" {
		tab = models.TabAll
	}
	parts := []string{string(job.Kind), string(tab)}
	if job.Params.View.Search != "" {
		parts = append(parts, job.Params.View.Search)
	}
	parts = append(parts, s.now().Format("20060102 150405"))
	name := slug.Make(strings.Join(parts, " "))
	if len(name) > 100 {
		name = strings.TrimRight(name[:100], "-")
	}
	return name + "." + string(job.Params.Format)
}

// ViewDataset adapts a view service into a DatasetSource. Exports contain every
// record of the scoped view, ignoring pagination.
func ViewDataset[T any](views *ViewService[T], title string) DatasetSource {
	return viewDataset[T]{views: views, title: title}
}

type viewDataset[T any] struct {
	views *ViewService[T]
	title string
}

func (d viewDataset[T]) Dataset(ctx context.Context, params models.ViewParameters, currentUser string) (export.Dataset, error) {
	records, err := d.views.Collection(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	engine := d.views.Engine()
	params.Page = 0
	params.PageSize = max(len(records), 1)
	result, err := engine.Compute(records, params, currentUser)
	if err != nil {
		return export.Dataset{}, mapEngineError(err)
	}

	rows := make([]map[string]string, 0, len(result.Items))
	for _, r := range result.Items {
		rows = append(rows, engine.Row(r))
	}
	summary := []string{
		fmt.Sprintf("Records: %d", result.Stats.Count),
		fmt.Sprintf("Types: %d", result.Stats.UniqueTypes),
	}
	if engine.SizeField() != "" {
		summary = append(summary, "Total size: "+viewmodel.FormatFileSize(result.Stats.TotalSize))
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s (%s)", d.title, result.Params.Tab),
		Headers: engine.Columns(),
		Rows:    rows,
		Summary: summary,
	}, nil
}
