package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/repository"
)

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestRepository_ReceiptLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.CreateReceipt(ctx, models.ReceiptRecord{ID: "SR001", ItemCode: "CEM001", DeliveryDate: "2024-01-15", CreatedAt: base}))
	require.NoError(t, repo.CreateReceipt(ctx, models.ReceiptRecord{ID: "SR002", ItemCode: "STL001", DeliveryDate: "2024-01-16", CreatedAt: base.Add(-time.Hour)}))

	err := repo.CreateReceipt(ctx, models.ReceiptRecord{ID: "SR001"})
	assert.ErrorIs(t, err, repository.ErrDuplicateID)

	err = repo.UpdateReceipt(ctx, "SR404", models.ReceiptRecord{})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.UpdateReceipt(ctx, "SR001", models.ReceiptRecord{ItemCode: "CEM001", SupplierName: "Steel World", DeliveryDate: "2024-01-15", CreatedAt: base}))

	all, err := repo.ListReceipts(ctx, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "SR002", all[0].ID, "ordered by created_at ascending")
	assert.Equal(t, "Steel World", all[1].SupplierName)

	filtered, err := repo.ListReceipts(ctx, models.ListFilter{Range: models.DateRange{From: "2024-01-16"}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "SR002", filtered[0].ID)
}

func TestRepository_SaveConsumptionUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	repo.SaveConsumption(ctx, models.ConsumptionRecord{ID: "abc", ItemCode: "CEM001", QuantityUsed: 5, Date: "2024-01-18", CreatedAt: base})
	repo.SaveConsumption(ctx, models.ConsumptionRecord{ID: "abc", ItemCode: "CEM001", QuantityUsed: 7, Date: "2024-01-18", CreatedAt: base})

	rows, err := repo.ListConsumptions(ctx, models.ListFilter{ItemCode: "CEM001", OrderBy: "date", Descending: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 7, rows[0].QuantityUsed, 1e-9)
}
