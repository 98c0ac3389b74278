package importer

import (
	"context"

	"catalog-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ProductWriter persists one product, inserting or updating by SKU
type ProductWriter interface {
	UpsertProduct(ctx context.Context, product *models.Product) error
}

// ProductEventPublisher is notified after each product is written.
// Implementations must not block the import on delivery.
type ProductEventPublisher interface {
	PublishProductImported(ctx context.Context, product *models.Product) error
}

// WriteResult is the outcome of writing one product
type WriteResult struct {
	SKU string
	Err error
}

// OK reports whether the product was written
func (r WriteResult) OK() bool {
	return r.Err == nil
}

// Writer upserts grouped products one at a time
type Writer struct {
	store     ProductWriter
	publisher ProductEventPublisher
	logger    *logrus.Entry
}

// NewWriter creates a writer. publisher may be nil.
func NewWriter(store ProductWriter, publisher ProductEventPublisher, logger *logrus.Entry) *Writer {
	return &Writer{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Write upserts each product in order. A failed product does not stop the
// batch; every product gets exactly one result.
func (w *Writer) Write(ctx context.Context, products []*models.Product) []WriteResult {
	results := make([]WriteResult, 0, len(products))
	for _, product := range products {
		err := w.store.UpsertProduct(ctx, product)
		results = append(results, WriteResult{SKU: product.SKU, Err: err})
		if err != nil {
			w.logger.WithError(err).WithField("sku", product.SKU).Warn("Failed to upsert product")
			continue
		}
		w.publish(ctx, product)
	}
	return results
}

func (w *Writer) publish(ctx context.Context, product *models.Product) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.PublishProductImported(ctx, product); err != nil {
		w.logger.WithError(err).WithField("sku", product.SKU).Warn("Failed to publish product imported event")
	}
}
