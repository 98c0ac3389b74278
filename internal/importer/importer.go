package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Fatal error codes returned to API callers
const (
	CodeFileRequired         = "FILE_REQUIRED"
	CodeUnsupportedFormat    = "UNSUPPORTED_FORMAT"
	CodeEmptyFile            = "EMPTY_FILE"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeCategoryLookupFailed = "CATEGORY_LOOKUP_FAILED"
)

// previewSampleRows is the number of raw rows echoed back in preview mode
const previewSampleRows = 2

// CatalogStore is the catalog persistence the import depends on
type CatalogStore interface {
	ProductWriter
	ListActiveCategories(ctx context.Context) ([]models.Category, error)
}

// UploadArchiver keeps a copy of accepted upload files
type UploadArchiver interface {
	ArchiveUpload(ctx context.Context, fileName string, data []byte) (string, error)
}

// Config holds import limits
type Config struct {
	MaxFileBytes int64
}

// Options are the per-request switches
type Options struct {
	Preview bool
	Verbose bool
}

// Result is what a completed run produces. Exactly one of Summary or
// Preview is set.
type Result struct {
	Stage   models.ImportStage
	Summary *models.ImportSummary
	Preview *models.ImportPreview
}

// ImportError is a fatal failure that moved the run to ImportStageFailed.
// Stage is the last stage reached before the failure.
type ImportError struct {
	Stage models.ImportStage
	Code  string
	Err   error
}

func (e *ImportError) Error() string {
	return e.Err.Error()
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Importer runs the import pipeline against a catalog store
type Importer struct {
	store    CatalogStore
	writer   *Writer
	archiver UploadArchiver
	logger   *logrus.Entry
	cfg      Config
}

// New creates an importer. publisher may be nil.
func New(store CatalogStore, publisher ProductEventPublisher, logger *logrus.Entry, cfg Config) *Importer {
	logger = logger.WithField("component", "importer")
	return &Importer{
		store:  store,
		writer: NewWriter(store, publisher, logger),
		logger: logger,
		cfg:    cfg,
	}
}

// WithArchiver stores every parsed, non-preview upload before it is written
func (im *Importer) WithArchiver(archiver UploadArchiver) *Importer {
	im.archiver = archiver
	return im
}

// Run imports one uploaded file. Per-product write failures are reported in
// the summary; only file problems and an unreachable category lookup return
// an error.
func (im *Importer) Run(ctx context.Context, data []byte, fileName string, opts Options) (*Result, error) {
	start := time.Now()
	log := im.logger.WithField("file", fileName)
	stage := models.ImportStageReceived
	log.WithField("bytes", len(data)).Debug("Import received")

	if fileName == "" || data == nil {
		return nil, im.fail(log, stage, CodeFileRequired, ErrNoFile)
	}
	if im.cfg.MaxFileBytes > 0 && int64(len(data)) > im.cfg.MaxFileBytes {
		return nil, im.fail(log, stage, CodeFileTooLarge, ErrFileTooLarge)
	}

	sheet, err := Parse(data, fileName)
	if err != nil {
		code := CodeUnsupportedFormat
		if errors.Is(err, ErrEmptyFile) {
			code = CodeEmptyFile
		}
		return nil, im.fail(log, stage, code, err)
	}
	stage = im.advance(log, models.ImportStageParsed, "rows", len(sheet.Rows))

	if opts.Preview {
		return &Result{Stage: stage, Preview: buildPreview(sheet)}, nil
	}

	archiveKey := im.archive(ctx, log, fileName, data)

	var warnings []models.ImportWarning
	rows := make([]NormalizedRow, 0, len(sheet.Rows))
	for _, raw := range sheet.Rows {
		row, w := Normalize(raw)
		rows = append(rows, row)
		warnings = append(warnings, w...)
	}
	stage = im.advance(log, models.ImportStageNormalized, "rows", len(rows))

	grouping, w := Group(rows)
	warnings = append(warnings, w...)
	stage = im.advance(log, models.ImportStageGrouped, "products", grouping.Len())

	categories, err := im.store.ListActiveCategories(ctx)
	if err != nil {
		return nil, im.fail(log, stage, CodeCategoryLookupFailed, fmt.Errorf("failed to load categories: %w", err))
	}
	warnings = append(warnings, Resolve(grouping, NewCategoryLookup(categories))...)
	stage = im.advance(log, models.ImportStageResolved, "categories", len(categories))

	results := im.writer.Write(ctx, grouping.Products())
	stage = im.advance(log, models.ImportStageWritten, "results", len(results))

	summary := &models.ImportSummary{
		Success:       true,
		TotalRows:     len(sheet.Rows),
		TotalProducts: grouping.Len(),
		ArchiveKey:    archiveKey,
	}
	for _, r := range results {
		if r.OK() {
			summary.Count++
			continue
		}
		summary.Errors = append(summary.Errors, models.ImportRowError{SKU: r.SKU, Error: r.Err.Error()})
	}
	if opts.Verbose {
		summary.Warnings = warnings
	}
	summary.ProcessingMs = time.Since(start).Milliseconds()
	stage = models.ImportStageSummarized

	log.WithFields(logrus.Fields{
		"total_rows":     summary.TotalRows,
		"total_products": summary.TotalProducts,
		"count":          summary.Count,
		"errors":         len(summary.Errors),
		"warnings":       len(warnings),
		"duration_ms":    summary.ProcessingMs,
	}).Info("Import completed")

	return &Result{Stage: stage, Summary: summary}, nil
}

// archive failures never block an import
func (im *Importer) archive(ctx context.Context, log *logrus.Entry, fileName string, data []byte) string {
	if im.archiver == nil {
		return ""
	}
	key, err := im.archiver.ArchiveUpload(ctx, fileName, data)
	if err != nil {
		log.WithError(err).Warn("Failed to archive import file")
		return ""
	}
	log.WithField("archive_key", key).Debug("Import file archived")
	return key
}

func (im *Importer) advance(log *logrus.Entry, stage models.ImportStage, key string, n int) models.ImportStage {
	log.WithFields(logrus.Fields{"stage": stage, key: n}).Debug("Import stage reached")
	return stage
}

func (im *Importer) fail(log *logrus.Entry, stage models.ImportStage, code string, err error) error {
	log.WithError(err).WithFields(logrus.Fields{
		"stage":      models.ImportStageFailed,
		"last_stage": stage,
		"code":       code,
	}).Warn("Import failed")
	return &ImportError{Stage: stage, Code: code, Err: err}
}

func buildPreview(sheet *Sheet) *models.ImportPreview {
	n := previewSampleRows
	if len(sheet.Rows) < n {
		n = len(sheet.Rows)
	}
	samples := make([]map[string]interface{}, 0, n)
	for _, row := range sheet.Rows[:n] {
		samples = append(samples, row.Values())
	}
	return &models.ImportPreview{
		Success:    true,
		Preview:    true,
		TotalRows:  len(sheet.Rows),
		Columns:    sheet.Columns,
		SampleRows: samples,
	}
}
