package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/repository/memory"
	"github.com/mamadbah2/sitestock/internal/service/audit"
	"github.com/mamadbah2/sitestock/internal/service/notify"
)

var errDown = errors.New("database unreachable")

// fakeRemote is an in-memory remote tier whose reads and writes can be failed.
type fakeRemote struct {
	*memory.Repository

	mu         sync.Mutex
	failWrites bool
	failReads  bool
	inventory  []models.InventoryItem
	listCalls  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{Repository: memory.NewRepository()}
}

func (f *fakeRemote) setFailWrites(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = v
}

func (f *fakeRemote) setFailReads(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = v
}

func (f *fakeRemote) writeErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errDown
	}
	return nil
}

func (f *fakeRemote) readErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failReads {
		return errDown
	}
	return nil
}

func (f *fakeRemote) CreateReceipt(ctx context.Context, r models.ReceiptRecord) error {
	if err := f.writeErr(); err != nil {
		return err
	}
	return f.Repository.CreateReceipt(ctx, r)
}

func (f *fakeRemote) UpdateReceipt(ctx context.Context, id string, r models.ReceiptRecord) error {
	if err := f.writeErr(); err != nil {
		return err
	}
	return f.Repository.UpdateReceipt(ctx, id, r)
}

func (f *fakeRemote) ListReceipts(ctx context.Context, filter models.ListFilter) ([]models.ReceiptRecord, error) {
	if err := f.readErr(); err != nil {
		return nil, err
	}
	return f.Repository.ListReceipts(ctx, filter)
}

func (f *fakeRemote) CreateConsumption(ctx context.Context, c models.ConsumptionRecord) error {
	if err := f.writeErr(); err != nil {
		return err
	}
	return f.Repository.CreateConsumption(ctx, c)
}

func (f *fakeRemote) UpdateConsumption(ctx context.Context, id string, c models.ConsumptionRecord) error {
	if err := f.writeErr(); err != nil {
		return err
	}
	return f.Repository.UpdateConsumption(ctx, id, c)
}

func (f *fakeRemote) ListConsumptions(ctx context.Context, filter models.ListFilter) ([]models.ConsumptionRecord, error) {
	if err := f.readErr(); err != nil {
		return nil, err
	}
	return f.Repository.ListConsumptions(ctx, filter)
}

func (f *fakeRemote) ReplaceInventory(_ context.Context, items []models.InventoryItem) error {
	if err := f.writeErr(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventory = append([]models.InventoryItem(nil), items...)
	return nil
}

func (f *fakeRemote) ListInventory(_ context.Context) ([]models.InventoryItem, error) {
	if err := f.readErr(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.InventoryItem(nil), f.inventory...), nil
}

func (f *fakeRemote) reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeRemote) tamper(fn func([]models.InventoryItem) []models.InventoryItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventory = fn(f.inventory)
}

type fixture struct {
	svc    *Service
	audit  *audit.Log
	latest *notify.Latest
}

func newFixture(remote RecordStore, opts Options) fixture {
	auditLog := audit.New(50)
	latest := notify.NewLatest()
	svc := NewService(remote, memory.NewRepository(), auditLog, latest, opts, nil)

	base := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	ticks := 0
	svc.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Minute)
	}
	ids := 0
	svc.newID = func() string {
		ids++
		return fmt.Sprintf("remote-%d", ids)
	}
	return fixture{svc: svc, audit: auditLog, latest: latest}
}

var actor = models.Actor{ID: "1", Name: "John Smith"}

func cementReceipt(qty float64) models.ReceiptDraft {
	return models.ReceiptDraft{
		ItemCode:          "CEM001",
		ItemName:          "Portland Cement",
		QuantityReceived:  qty,
		RatePerUnit:       12.5,
		UnitOfMeasurement: "Bags",
		SupplierName:      "ABC Suppliers",
		DeliveryDate:      "2024-01-15",
		ReceivedBy:        "John Smith",
	}
}

func cementUse(qty float64, date string) models.ConsumptionDraft {
	return models.ConsumptionDraft{
		ItemCode:     "CEM001",
		ItemName:     "typed by hand",
		QuantityUsed: qty,
		Purpose:      "Foundation Work",
		ActivityCode: "ACT001",
		UsedBy:       "Mike Johnson",
		Date:         date,
	}
}

func latestTitle(t *testing.T, latest *notify.Latest) string {
	t.Helper()
	notice, _, ok := latest.Get()
	require.True(t, ok)
	return notice.Title
}

func TestCreateReceipt_WithoutRemoteLandsLocally(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	res, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)

	assert.Equal(t, models.TierLocal, res.Tier)
	assert.Equal(t, "SR001", res.Record.ID)
	assert.Equal(t, 1250.0, res.Record.TotalValue)
	assert.Equal(t, "John Smith", res.Record.CreatedBy)
	assert.Equal(t, "Receipt recorded (local only)", res.Notice.Title)
	assert.Equal(t, models.SeverityInfo, res.Notice.Severity)
	assert.Equal(t, res.Notice.Title, latestTitle(t, f.latest))

	entries := f.audit.ForEntity(models.EntityReceipt, "SR001")
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditCreate, entries[0].Action)
	assert.Equal(t, "Created stock receipt for Portland Cement (100 Bags)", entries[0].Description)
}

func TestCreateReceipt_RemoteMaterializesInventory(t *testing.T) {
	remote := newFakeRemote()
	f := newFixture(remote, Options{})
	ctx := context.Background()

	res, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)

	assert.Equal(t, models.TierRemote, res.Tier)
	assert.Equal(t, "remote-1", res.Record.ID)
	assert.Equal(t, "Receipt saved to database successfully", res.Notice.Title)

	inventory, err := remote.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.Equal(t, "CEM001", inventory[0].ItemCode)
	assert.Equal(t, 100.0, inventory[0].CurrentStock)
}

func TestCreate_RemoteFailureFallsBackWithSequentialIDs(t *testing.T) {
	remote := newFakeRemote()
	remote.setFailWrites(true)
	f := newFixture(remote, Options{})
	ctx := context.Background()

	first, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)
	second, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(20))
	require.NoError(t, err)
	use, err := f.svc.CreateConsumption(ctx, actor, cementUse(30, "2024-01-16"))
	require.NoError(t, err)

	assert.Equal(t, "SR001", first.Record.ID)
	assert.Equal(t, "SR002", second.Record.ID)
	assert.Equal(t, "SC003", use.Record.ID)
	assert.Equal(t, models.TierLocal, use.Tier)
	assert.Equal(t, "Consumption recorded (local only)", use.Notice.Title)

	items := f.svc.Snapshot(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, 90.0, items[0].CurrentStock)
}

func TestCreateConsumption_CopiesRateAndNameFromStock(t *testing.T) {
	f := newFixture(newFakeRemote(), Options{})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)

	res, err := f.svc.CreateConsumption(ctx, actor, cementUse(30, "2024-01-16"))
	require.NoError(t, err)

	assert.Equal(t, models.TierRemote, res.Tier)
	assert.Equal(t, "Portland Cement", res.Record.ItemName)
	assert.Equal(t, 12.5, res.Record.RatePerUnit)
	assert.Equal(t, 375.0, res.Record.TotalValue)
	assert.Equal(t, "Consumption saved to database successfully", res.Notice.Title)
}

func TestCreateConsumption_InsufficientStock(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)

	_, err = f.svc.CreateConsumption(ctx, actor, cementUse(150, "2024-01-16"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 100.0, stockErr.Available)
	assert.Equal(t, 150.0, stockErr.Requested)
	assert.Equal(t, "Insufficient Stock", latestTitle(t, f.latest))

	assert.Empty(t, f.svc.ListConsumptions(ctx, models.ListFilter{}))
}

func TestCreateConsumption_UnknownItemHasNothingAvailable(t *testing.T) {
	f := newFixture(nil, Options{})

	draft := cementUse(1, "2024-01-16")
	draft.ItemCode = "STL404"
	_, err := f.svc.CreateConsumption(context.Background(), actor, draft)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "STL404", stockErr.ItemCode)
	assert.Zero(t, stockErr.Available)
}

func TestCreate_ValidationErrorStoresNothing(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	draft := cementReceipt(100)
	draft.ItemCode = "   "
	_, err := f.svc.CreateReceipt(ctx, actor, draft)

	var fieldErr *models.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "item_code", fieldErr.Field)
	assert.Empty(t, f.svc.ListReceipts(ctx, models.ListFilter{}))
	assert.Empty(t, f.audit.Entries())
}

func TestUpdateConsumption_EditsSkipStockCheckByDefault(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)
	use, err := f.svc.CreateConsumption(ctx, actor, cementUse(30, "2024-01-16"))
	require.NoError(t, err)

	_, err = f.svc.UpdateConsumption(ctx, actor, use.Record.ID, cementUse(500, "2024-01-16"))
	require.NoError(t, err)

	items := f.svc.Snapshot(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, -400.0, items[0].CurrentStock)
}

func TestUpdateConsumption_EditValidationCountsReplacedQuantity(t *testing.T) {
	f := newFixture(nil, Options{ValidateConsumptionEdits: true})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)
	use, err := f.svc.CreateConsumption(ctx, actor, cementUse(30, "2024-01-16"))
	require.NoError(t, err)

	_, err = f.svc.UpdateConsumption(ctx, actor, use.Record.ID, cementUse(101, "2024-01-16"))
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 100.0, stockErr.Available)

	res, err := f.svc.UpdateConsumption(ctx, actor, use.Record.ID, cementUse(100, "2024-01-16"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Record.QuantityUsed)
	require.NotNil(t, res.Record.UpdatedAt)
}

func TestUpdate_UnknownIDIsNotFound(t *testing.T) {
	f := newFixture(newFakeRemote(), Options{})
	ctx := context.Background()

	_, err := f.svc.UpdateReceipt(ctx, actor, "missing", cementReceipt(1))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.svc.UpdateConsumption(ctx, actor, "missing", cementUse(1, "2024-01-16"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateReceipt_LocalOverrideShadowsRemote(t *testing.T) {
	remote := newFakeRemote()
	f := newFixture(remote, Options{})
	ctx := context.Background()

	created, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)

	remote.setFailWrites(true)
	res, err := f.svc.UpdateReceipt(ctx, actor, created.Record.ID, cementReceipt(80))
	require.NoError(t, err)
	assert.Equal(t, models.TierLocal, res.Tier)
	assert.Equal(t, "Receipt updated (local only)", res.Notice.Title)

	listed := f.svc.ListReceipts(ctx, models.ListFilter{})
	require.Len(t, listed, 1)
	assert.Equal(t, models.TierLocal, listed[0].Tier)
	assert.Equal(t, 80.0, listed[0].Record.QuantityReceived)
	assert.Equal(t, 80.0, f.svc.Snapshot(ctx)[0].CurrentStock)

	remote.setFailWrites(false)
	res, err = f.svc.UpdateReceipt(ctx, actor, created.Record.ID, cementReceipt(90))
	require.NoError(t, err)
	assert.Equal(t, models.TierRemote, res.Tier)
	assert.Equal(t, "Receipt updated in database successfully", res.Notice.Title)

	listed = f.svc.ListReceipts(ctx, models.ListFilter{})
	require.Len(t, listed, 1)
	assert.Equal(t, models.TierRemote, listed[0].Tier)
	assert.Equal(t, 90.0, listed[0].Record.QuantityReceived)
}

func TestUpdateReceipt_AuditsFieldChanges(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	created, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)
	_, err = f.svc.UpdateReceipt(ctx, models.Actor{ID: "2", Name: "Sarah Wilson"}, created.Record.ID, cementReceipt(80))
	require.NoError(t, err)

	entries := f.audit.ForEntity(models.EntityReceipt, created.Record.ID)
	require.Len(t, entries, 2)
	update := entries[0]
	assert.Equal(t, models.AuditUpdate, update.Action)
	assert.Equal(t, "Sarah Wilson", update.UserName)
	assert.Equal(t, models.FieldChange{From: 100.0, To: 80.0}, update.Changes["quantity_received"])
	assert.Equal(t, models.FieldChange{From: 1250.0, To: 1000.0}, update.Changes["total_value"])
	assert.NotContains(t, update.Changes, "supplier_name")
}

func TestStreams_RemoteReadFailureKeepsCache(t *testing.T) {
	remote := newFakeRemote()
	f := newFixture(remote, Options{})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)

	remote.setFailReads(true)
	listed := f.svc.ListReceipts(ctx, models.ListFilter{})
	require.Len(t, listed, 1)
	assert.Equal(t, models.TierRemote, listed[0].Tier)
}

func TestListConsumptions_FilterAndOrder(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)
	for _, date := range []string{"2024-01-16", "2024-01-18", "2024-01-17"} {
		_, err := f.svc.CreateConsumption(ctx, actor, cementUse(5, date))
		require.NoError(t, err)
	}

	listed := f.svc.ListConsumptions(ctx, models.ListFilter{
		Range:      models.DateRange{From: "2024-01-17"},
		OrderBy:    "date",
		Descending: true,
	})
	require.Len(t, listed, 2)
	assert.Equal(t, "2024-01-18", listed[0].Record.Date)
	assert.Equal(t, "2024-01-17", listed[1].Record.Date)
}

func TestCheckConsistency(t *testing.T) {
	remote := newFakeRemote()
	f := newFixture(remote, Options{})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)
	_, err = f.svc.CreateConsumption(ctx, actor, cementUse(30, "2024-01-16"))
	require.NoError(t, err)

	report, err := f.svc.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Empty(t, report.Mismatches)

	remote.tamper(func(items []models.InventoryItem) []models.InventoryItem {
		items[0].CurrentStock = 1
		return append(items, models.InventoryItem{ItemCode: "GHOST"})
	})

	report, err = f.svc.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	require.Len(t, report.Mismatches, 2)
	assert.Equal(t, "mismatch", report.Mismatches[0].Reason)
	assert.Equal(t, 70.0, report.Mismatches[0].Computed.CurrentStock)
	assert.Equal(t, "unexpected", report.Mismatches[1].Reason)
	assert.Equal(t, "GHOST", report.Mismatches[1].ItemCode)

	require.NoError(t, f.svc.Rebuild(ctx))
	report, err = f.svc.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestCheckConsistency_WithoutRemote(t *testing.T) {
	f := newFixture(nil, Options{})

	_, err := f.svc.CheckConsistency(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.ErrorIs(t, f.svc.Rebuild(context.Background()), ErrRemoteUnavailable)
}

func TestState_SingleReadOfBothStreams(t *testing.T) {
	remote := newFakeRemote()
	f := newFixture(remote, Options{})
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, actor, cementReceipt(100))
	require.NoError(t, err)
	_, err = f.svc.CreateConsumption(ctx, actor, cementUse(30, "2024-01-16"))
	require.NoError(t, err)

	before := remote.reads()
	state := f.svc.State(ctx)
	assert.Equal(t, 2, remote.reads()-before, "one list per collection")

	require.Len(t, state.Receipts, 1)
	require.Len(t, state.Consumptions, 1)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 70.0, state.Items[0].CurrentStock)
}

func TestItemCodes_NormalizedOnEveryPath(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	draft := cementReceipt(100)
	draft.ItemCode = " cem001 "
	created, err := f.svc.CreateReceipt(ctx, actor, draft)
	require.NoError(t, err)
	assert.Equal(t, "CEM001", created.Record.ItemCode)

	use := cementUse(30, "2024-01-16")
	use.ItemCode = "Cem001"
	res, err := f.svc.CreateConsumption(ctx, actor, use)
	require.NoError(t, err)
	assert.Equal(t, "CEM001", res.Record.ItemCode)
	assert.Equal(t, 70.0, f.svc.Snapshot(ctx)[0].CurrentStock)
}

func TestCreate_RejectsOverflowingValue(t *testing.T) {
	f := newFixture(nil, Options{})
	ctx := context.Background()

	draft := cementReceipt(1e200)
	draft.RatePerUnit = 1e200
	_, err := f.svc.CreateReceipt(ctx, actor, draft)
	var fieldErr *models.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "total_value", fieldErr.Field)
	assert.Empty(t, f.svc.ListReceipts(ctx, models.ListFilter{}))

	huge := cementReceipt(1e300)
	huge.RatePerUnit = 1e-10
	_, err = f.svc.CreateReceipt(ctx, actor, huge)
	require.NoError(t, err)
	pricey := cementReceipt(1)
	pricey.RatePerUnit = 1e100
	_, err = f.svc.CreateReceipt(ctx, actor, pricey)
	require.NoError(t, err)

	_, err = f.svc.CreateConsumption(ctx, actor, cementUse(1e300, "2024-01-16"))
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "total_value", fieldErr.Field)
	assert.Empty(t, f.svc.ListConsumptions(ctx, models.ListFilter{}))
}

func TestNextLocalID_SkipsTakenIDs(t *testing.T) {
	used := map[string]struct{}{"SR003": {}, "SR004": {}}
	assert.Equal(t, "SR005", nextLocalID("SR", 2, used))
	assert.Equal(t, "SC001", nextLocalID("SC", 0, nil))
}
