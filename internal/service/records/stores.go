package records

import (
	"context"

	"github.com/mamadbah2/sitestock/internal/domain/models"
)

// RecordStore is the remote, durable tier.
type RecordStore interface {
	CreateReceipt(ctx context.Context, record models.ReceiptRecord) error
	UpdateReceipt(ctx context.Context, id string, record models.ReceiptRecord) error
	ListReceipts(ctx context.Context, filter models.ListFilter) ([]models.ReceiptRecord, error)

	CreateConsumption(ctx context.Context, record models.ConsumptionRecord) error
	UpdateConsumption(ctx context.Context, id string, record models.ConsumptionRecord) error
	ListConsumptions(ctx context.Context, filter models.ListFilter) ([]models.ConsumptionRecord, error)

	ReplaceInventory(ctx context.Context, items []models.InventoryItem) error
	ListInventory(ctx context.Context) ([]models.InventoryItem, error)
}

// LocalStore is the session-local tier used when the remote tier fails.
type LocalStore interface {
	SaveReceipt(ctx context.Context, record models.ReceiptRecord)
	RemoveReceipt(ctx context.Context, id string)
	ListReceipts(ctx context.Context, filter models.ListFilter) ([]models.ReceiptRecord, error)

	SaveConsumption(ctx context.Context, record models.ConsumptionRecord)
	RemoveConsumption(ctx context.Context, id string)
	ListConsumptions(ctx context.Context, filter models.ListFilter) ([]models.ConsumptionRecord, error)
}

// Auditor records mutations.
type Auditor interface {
	Record(ctx context.Context, entry models.AuditLog) models.AuditLog
}
