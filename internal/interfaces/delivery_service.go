package interfaces

import (
	"context"

	"github.com/ternarybob/marketdigest/internal/models"
)

// DeliveryService transmits a saved document to the configured destination.
// Missing configuration yields a skipped receipt and a nil error.
type DeliveryService interface {
	Deliver(ctx context.Context, doc *models.Document, caption string) (models.DeliveryReceipt, error)
}
