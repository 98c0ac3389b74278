package events

import (
	"context"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	serviceName    = "catalog-service"
	changeImported = "imported"
	importActorID  = "bulk-import"
	publishTimeout = 10 * time.Second
	statusActive   = "active"
	statusInactive = "inactive"
)

// Publisher wraps the go-shared events publisher for catalog product events
type Publisher struct {
	publisher *events.Publisher
	storeID   string
	logger    *logrus.Entry
}

// NewPublisher connects to NATS and makes sure the products stream exists
func NewPublisher(natsURL, storeID string, logger *logrus.Logger) (*Publisher, error) {
	config := events.DefaultPublisherConfig(natsURL)
	config.Name = serviceName

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		storeID:   storeID,
		logger:    logger.WithField("component", "catalog-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishProductImported publishes a product.updated event for a product
// written by the bulk importer
func (p *Publisher) PublishProductImported(ctx context.Context, product *models.Product) error {
	return p.publish(ctx, buildImportedEvent(product, p.storeID))
}

// buildImportedEvent maps a catalog product onto the shared product event
func buildImportedEvent(product *models.Product, storeID string) *events.ProductEvent {
	event := events.NewProductEvent(events.ProductUpdated, storeID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.ID.String()
	event.ProductName = product.NameEN
	event.SKU = product.SKU
	event.Price = product.WholesalePrice.InexactFloat64()
	event.ChangeType = changeImported
	event.ActorID = importActorID

	event.Status = statusInactive
	if product.IsActive {
		event.Status = statusActive
	}
	if product.CategoryID != nil {
		event.CategoryID = product.CategoryID.String()
	}
	return event
}

// publish sends the event in the background so imports never wait on NATS
func (p *Publisher) publish(ctx context.Context, event *events.ProductEvent) error {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		fields := logrus.Fields{
			"eventType": event.EventType,
			"productID": event.ProductID,
			"sku":       event.SKU,
			"storeID":   event.TenantID,
		}
		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(fields).WithError(err).Error("Failed to publish product event")
			return
		}
		p.logger.WithFields(fields).Debug("Product event published")
	}()

	return nil
}
