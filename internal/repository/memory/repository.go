// Package memory is the session-local record tier. Nothing here survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/repository"
)

// Repository keeps records in process memory, in insertion order.
type Repository struct {
	mu           sync.RWMutex
	receipts     table[models.ReceiptRecord]
	consumptions table[models.ConsumptionRecord]
}

// NewRepository builds an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		receipts: table[models.ReceiptRecord]{
			id:      func(r models.ReceiptRecord) string { return r.ID },
			code:    func(r models.ReceiptRecord) string { return r.ItemCode },
			date:    func(r models.ReceiptRecord) string { return r.DeliveryDate },
			created: func(r models.ReceiptRecord) time.Time { return r.CreatedAt },
			dateKey: "delivery_date",
		},
		consumptions: table[models.ConsumptionRecord]{
			id:      func(r models.ConsumptionRecord) string { return r.ID },
			code:    func(r models.ConsumptionRecord) string { return r.ItemCode },
			date:    func(r models.ConsumptionRecord) string { return r.Date },
			created: func(r models.ConsumptionRecord) time.Time { return r.CreatedAt },
			dateKey: "date",
		},
	}
}

// CreateReceipt appends a receipt.
func (r *Repository) CreateReceipt(_ context.Context, record models.ReceiptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receipts.create(record)
}

// SaveReceipt inserts or replaces a receipt by id.
func (r *Repository) SaveReceipt(_ context.Context, record models.ReceiptRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts.save(record)
}

// UpdateReceipt replaces an existing receipt.
func (r *Repository) UpdateReceipt(_ context.Context, id string, record models.ReceiptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = id
	return r.receipts.update(record)
}

// ListReceipts returns receipts matching the filter.
func (r *Repository) ListReceipts(_ context.Context, filter models.ListFilter) ([]models.ReceiptRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.receipts.list(filter), nil
}

// CreateConsumption appends a consumption.
func (r *Repository) CreateConsumption(_ context.Context, record models.ConsumptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumptions.create(record)
}

// SaveConsumption inserts or replaces a consumption by id.
func (r *Repository) SaveConsumption(_ context.Context, record models.ConsumptionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumptions.save(record)
}

// UpdateConsumption replaces an existing consumption.
func (r *Repository) UpdateConsumption(_ context.Context, id string, record models.ConsumptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = id
	return r.consumptions.update(record)
}

// ListConsumptions returns consumptions matching the filter.
func (r *Repository) ListConsumptions(_ context.Context, filter models.ListFilter) ([]models.ConsumptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.consumptions.list(filter), nil
}

type table[T any] struct {
	rows    []T
	id      func(T) string
	code    func(T) string
	date    func(T) string
	created func(T) time.Time
	dateKey string
}

func (t *table[T]) indexOf(id string) int {
	for i, row := range t.rows {
		if t.id(row) == id {
			return i
		}
	}
	return -1
}

func (t *table[T]) create(row T) error {
	if t.indexOf(t.id(row)) >= 0 {
		return fmt.Errorf("create %s: %w", t.id(row), repository.ErrDuplicateID)
	}
	t.rows = append(t.rows, row)
	return nil
}

func (t *table[T]) save(row T) {
	if i := t.indexOf(t.id(row)); i >= 0 {
		t.rows[i] = row
		return
	}
	t.rows = append(t.rows, row)
}

func (t *table[T]) update(row T) error {
	i := t.indexOf(t.id(row))
	if i < 0 {
		return fmt.Errorf("update %s: %w", t.id(row), repository.ErrNotFound)
	}
	t.rows[i] = row
	return nil
}

func (t *table[T]) list(filter models.ListFilter) []T {
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if filter.ItemCode != "" && t.code(row) != filter.ItemCode {
			continue
		}
		if !filter.Range.Contains(t.date(row)) {
			continue
		}
		out = append(out, row)
	}

	less := func(i, j int) bool { return t.created(out[i]).Before(t.created(out[j])) }
	if filter.OrderBy == t.dateKey {
		less = func(i, j int) bool { return t.date(out[i]) < t.date(out[j]) }
	}
	if filter.Descending {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}

// RemoveReceipt drops a receipt, if present.
func (r *Repository) RemoveReceipt(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts.remove(id)
}

// RemoveConsumption drops a consumption, if present.
func (r *Repository) RemoveConsumption(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumptions.remove(id)
}

func (t *table[T]) remove(id string) {
	if i := t.indexOf(id); i >= 0 {
		t.rows = append(t.rows[:i], t.rows[i+1:]...)
	}
}
