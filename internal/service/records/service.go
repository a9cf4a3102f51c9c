// Package records validates and persists stock receipts and consumptions
// across the remote and session-local tiers.
package records

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/service/notify"
	"github.com/mamadbah2/sitestock/internal/service/stock"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultActorName    = "System User"
	localReceiptPrefix  = "SR"
	localConsumePrefix  = "SC"
)

// Options tunes the service behaviour.
type Options struct {
	Valuation                stock.ValuationMode
	ValidateConsumptionEdits bool
	StoreTimeout             time.Duration
}

// ReceiptResult is a persisted receipt plus the notice shown to the user.
type ReceiptResult struct {
	models.Stored[models.ReceiptRecord]
	Notice models.Notice `json:"notice"`
}

// ConsumptionResult is a persisted consumption plus the notice shown to the user.
type ConsumptionResult struct {
	models.Stored[models.ConsumptionRecord]
	Notice models.Notice `json:"notice"`
}

// Service is the single entry point for record mutations and inventory snapshots.
type Service struct {
	remote   RecordStore
	local    LocalStore
	audit    Auditor
	notifier notify.Notifier
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	// mu serializes write, refetch, aggregate and materialize.
	mu sync.Mutex

	cacheMu            sync.RWMutex
	remoteReceipts     []models.ReceiptRecord
	remoteConsumptions []models.ConsumptionRecord
}

// NewService wires the record service. remote may be nil, in which case every
// mutation lands in the local tier.
func NewService(remote RecordStore, local LocalStore, auditor Auditor, notifier notify.Notifier, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.Valuation == "" {
		opts.Valuation = stock.ValuationAccumulate
	}
	return &Service{
		remote:   remote,
		local:    local,
		audit:    auditor,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateReceipt validates and stores a new receipt.
func (s *Service) CreateReceipt(ctx context.Context, actor models.Actor, draft models.ReceiptDraft) (ReceiptResult, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return ReceiptResult{}, err
	}
	actor = normalizeActor(actor)

	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, consumptions := s.streams(ctx)
	record := draft.Apply(models.ReceiptRecord{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		CreatedBy: actor.Name,
	})

	tier := models.TierLocal
	if err := s.remoteWrite(ctx, func(callCtx context.Context) error {
		return s.remote.CreateReceipt(callCtx, record)
	}); err != nil {
		s.logger.Warn("receipt create fell back to local tier", zap.String("item_code", record.ItemCode), zap.Error(err))
		record.ID = nextLocalID(localReceiptPrefix, len(receipts)+len(consumptions), s.knownIDs(receipts, consumptions))
		s.local.SaveReceipt(ctx, record)
	} else {
		tier = models.TierRemote
		s.afterRemoteWrite(ctx)
	}

	s.record(ctx, models.AuditLog{
		Action:      models.AuditCreate,
		EntityType:  models.EntityReceipt,
		EntityID:    record.ID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Description: fmt.Sprintf("Created stock receipt for %s (%s %s)", record.ItemName, formatQty(record.QuantityReceived), record.UnitOfMeasurement),
	})

	notice := tierNotice("Receipt", "saved to", "recorded", tier)
	s.notifier.Notify(ctx, notice)
	return ReceiptResult{Stored: models.Stored[models.ReceiptRecord]{Record: record, Tier: tier}, Notice: notice}, nil
}

// UpdateReceipt replaces the user supplied fields of an existing receipt.
func (s *Service) UpdateReceipt(ctx context.Context, actor models.Actor, id string, draft models.ReceiptDraft) (ReceiptResult, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return ReceiptResult{}, err
	}
	actor = normalizeActor(actor)

	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, _ := s.streams(ctx)
	existing, ok := findStored(receipts, id, receiptID)
	if !ok {
		return ReceiptResult{}, fmt.Errorf("update receipt %s: %w", id, ErrNotFound)
	}

	now := s.now().UTC()
	updated := draft.Apply(existing.Record)
	updated.UpdatedAt = &now
	updated.UpdatedBy = actor.Name

	tier := models.TierLocal
	if s.isRemoteReceipt(id) {
		err := s.remoteWrite(ctx, func(callCtx context.Context) error {
			return s.remote.UpdateReceipt(callCtx, id, updated)
		})
		if err == nil {
			tier = models.TierRemote
			s.local.RemoveReceipt(ctx, id)
			s.afterRemoteWrite(ctx)
		} else {
			s.logger.Warn("receipt update fell back to local tier", zap.String("id", id), zap.Error(err))
		}
	}
	if tier == models.TierLocal {
		s.local.SaveReceipt(ctx, updated)
	}

	s.record(ctx, models.AuditLog{
		Action:      models.AuditUpdate,
		EntityType:  models.EntityReceipt,
		EntityID:    id,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Changes:     receiptChanges(existing.Record, updated),
		Description: fmt.Sprintf("Updated stock receipt for %s", updated.ItemName),
	})

	notice := tierNotice("Receipt", "updated in", "updated", tier)
	s.notifier.Notify(ctx, notice)
	return ReceiptResult{Stored: models.Stored[models.ReceiptRecord]{Record: updated, Tier: tier}, Notice: notice}, nil
}

// CreateConsumption validates a new consumption against current stock and stores it.
func (s *Service) CreateConsumption(ctx context.Context, actor models.Actor, draft models.ConsumptionDraft) (ConsumptionResult, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return ConsumptionResult{}, err
	}
	actor = normalizeActor(actor)

	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, consumptions := s.streams(ctx)
	items := s.aggregate(receipts, consumptions)
	item, known := stock.Find(items, draft.ItemCode)

	var available float64
	if known {
		available = item.CurrentStock
	}
	if draft.QuantityUsed > available {
		return ConsumptionResult{}, s.rejectInsufficient(ctx, draft.ItemCode, draft.QuantityUsed, available)
	}

	name, rate := consumptionPricing(draft, item, known, "")
	if err := draft.ValidateValue(rate); err != nil {
		return ConsumptionResult{}, err
	}
	record := draft.Apply(models.ConsumptionRecord{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		CreatedBy: actor.Name,
	}, name, rate)

	tier := models.TierLocal
	if err := s.remoteWrite(ctx, func(callCtx context.Context) error {
		return s.remote.CreateConsumption(callCtx, record)
	}); err != nil {
		s.logger.Warn("consumption create fell back to local tier", zap.String("item_code", record.ItemCode), zap.Error(err))
		record.ID = nextLocalID(localConsumePrefix, len(receipts)+len(consumptions), s.knownIDs(receipts, consumptions))
		s.local.SaveConsumption(ctx, record)
	} else {
		tier = models.TierRemote
		s.afterRemoteWrite(ctx)
	}

	s.record(ctx, models.AuditLog{
		Action:      models.AuditCreate,
		EntityType:  models.EntityConsumption,
		EntityID:    record.ID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Description: fmt.Sprintf("Recorded consumption of %s %s for %s", formatQty(record.QuantityUsed), record.ItemName, record.Purpose),
	})

	notice := tierNotice("Consumption", "saved to", "recorded", tier)
	s.notifier.Notify(ctx, notice)
	return ConsumptionResult{Stored: models.Stored[models.ConsumptionRecord]{Record: record, Tier: tier}, Notice: notice}, nil
}

// UpdateConsumption replaces the user supplied fields of an existing consumption.
// The stock check only runs when Options.ValidateConsumptionEdits is set.
func (s *Service) UpdateConsumption(ctx context.Context, actor models.Actor, id string, draft models.ConsumptionDraft) (ConsumptionResult, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return ConsumptionResult{}, err
	}
	actor = normalizeActor(actor)

	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, consumptions := s.streams(ctx)
	existing, ok := findStored(consumptions, id, consumptionID)
	if !ok {
		return ConsumptionResult{}, fmt.Errorf("update consumption %s: %w", id, ErrNotFound)
	}

	items := s.aggregate(receipts, consumptions)
	item, known := stock.Find(items, draft.ItemCode)

	if s.opts.ValidateConsumptionEdits {
		var available float64
		if known {
			available = item.CurrentStock
		}
		if existing.Record.ItemCode == draft.ItemCode {
			available += existing.Record.QuantityUsed
		}
		if draft.QuantityUsed > available {
			return ConsumptionResult{}, s.rejectInsufficient(ctx, draft.ItemCode, draft.QuantityUsed, available)
		}
	}

	name, rate := consumptionPricing(draft, item, known, existing.Record.ItemName)
	if err := draft.ValidateValue(rate); err != nil {
		return ConsumptionResult{}, err
	}

	now := s.now().UTC()
	updated := draft.Apply(existing.Record, name, rate)
	updated.UpdatedAt = &now
	updated.UpdatedBy = actor.Name

	tier := models.TierLocal
	if s.isRemoteConsumption(id) {
		err := s.remoteWrite(ctx, func(callCtx context.Context) error {
			return s.remote.UpdateConsumption(callCtx, id, updated)
		})
		if err == nil {
			tier = models.TierRemote
			s.local.RemoveConsumption(ctx, id)
			s.afterRemoteWrite(ctx)
		} else {
			s.logger.Warn("consumption update fell back to local tier", zap.String("id", id), zap.Error(err))
		}
	}
	if tier == models.TierLocal {
		s.local.SaveConsumption(ctx, updated)
	}

	s.record(ctx, models.AuditLog{
		Action:      models.AuditUpdate,
		EntityType:  models.EntityConsumption,
		EntityID:    id,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Changes:     consumptionChanges(existing.Record, updated),
		Description: fmt.Sprintf("Updated consumption of %s", updated.ItemName),
	})

	notice := tierNotice("Consumption", "updated in", "updated", tier)
	s.notifier.Notify(ctx, notice)
	return ConsumptionResult{Stored: models.Stored[models.ConsumptionRecord]{Record: updated, Tier: tier}, Notice: notice}, nil
}

// ListReceipts returns the merged receipt stream filtered and ordered per filter.
func (s *Service) ListReceipts(ctx context.Context, filter models.ListFilter) []models.Stored[models.ReceiptRecord] {
	receipts, _ := s.streams(ctx)
	return filterStored(receipts, filter, receiptKeys)
}

// ListConsumptions returns the merged consumption stream filtered and ordered per filter.
func (s *Service) ListConsumptions(ctx context.Context, filter models.ListFilter) []models.Stored[models.ConsumptionRecord] {
	_, consumptions := s.streams(ctx)
	return filterStored(consumptions, filter, consumptionKeys)
}

// Snapshot aggregates both tiers into the current inventory.
func (s *Service) Snapshot(ctx context.Context) []models.InventoryItem {
	receipts, consumptions := s.streams(ctx)
	return s.aggregate(receipts, consumptions)
}

// State reads both streams once and aggregates that same read.
func (s *Service) State(ctx context.Context) models.InventoryState {
	receipts, consumptions := s.streams(ctx)
	return models.InventoryState{
		Receipts:     receipts,
		Consumptions: consumptions,
		Items:        s.aggregate(receipts, consumptions),
	}
}

// Rebuild recomputes the remote materialized inventory from the remote records.
func (s *Service) Rebuild(ctx context.Context) error {
	if s.remote == nil {
		return ErrRemoteUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return err
	}
	return s.materialize(ctx)
}

// CheckConsistency compares the aggregation of the remote records with the
// materialized inventory held by the remote store.
func (s *Service) CheckConsistency(ctx context.Context) (models.ConsistencyReport, error) {
	if s.remote == nil {
		return models.ConsistencyReport{}, ErrRemoteUnavailable
	}
	if err := s.refresh(ctx); err != nil {
		return models.ConsistencyReport{}, err
	}

	s.cacheMu.RLock()
	computed := stock.AggregateWithOptions(s.remoteReceipts, s.remoteConsumptions, stock.Options{Valuation: s.opts.Valuation})
	s.cacheMu.RUnlock()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	stored, err := s.remote.ListInventory(callCtx)
	if err != nil {
		return models.ConsistencyReport{}, fmt.Errorf("load materialized inventory: %w", err)
	}

	report := models.ConsistencyReport{
		CheckedAt:  s.now().UTC(),
		Mismatches: compareInventory(computed, stored),
	}
	report.Consistent = len(report.Mismatches) == 0
	return report, nil
}

func (s *Service) aggregate(receipts []models.Stored[models.ReceiptRecord], consumptions []models.Stored[models.ConsumptionRecord]) []models.InventoryItem {
	return stock.AggregateWithOptions(unwrap(receipts), unwrap(consumptions), stock.Options{Valuation: s.opts.Valuation})
}

func (s *Service) rejectInsufficient(ctx context.Context, code string, requested, available float64) error {
	err := &InsufficientStockError{ItemCode: code, Requested: requested, Available: available}
	s.notifier.Notify(ctx, models.Notice{
		Title:       "Insufficient Stock",
		Description: fmt.Sprintf("Only %s units available for %s", formatQty(available), code),
		Severity:    models.SeverityError,
	})
	return err
}

func (s *Service) record(ctx context.Context, entry models.AuditLog) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, entry)
}

// remoteWrite runs fn against the remote tier with the store timeout.
func (s *Service) remoteWrite(ctx context.Context, fn func(context.Context) error) error {
	if s.remote == nil {
		return ErrRemoteUnavailable
	}
	callCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return fn(callCtx)
}

// afterRemoteWrite refetches the remote streams and rewrites the materialized
// inventory. Failures keep the previous cache.
func (s *Service) afterRemoteWrite(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.logger.Warn("refetch after write failed, keeping cached records", zap.Error(err))
		return
	}
	if err := s.materialize(ctx); err != nil {
		s.logger.Warn("materialize inventory failed", zap.Error(err))
	}
}

func (s *Service) materialize(ctx context.Context) error {
	s.cacheMu.RLock()
	items := stock.AggregateWithOptions(s.remoteReceipts, s.remoteConsumptions, stock.Options{Valuation: s.opts.Valuation})
	s.cacheMu.RUnlock()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	if err := s.remote.ReplaceInventory(callCtx, items); err != nil {
		return fmt.Errorf("replace inventory: %w", err)
	}
	return nil
}

// refresh reloads both remote streams in created_at order.
func (s *Service) refresh(ctx context.Context) error {
	if s.remote == nil {
		return ErrRemoteUnavailable
	}
	callCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	receipts, err := s.remote.ListReceipts(callCtx, models.ListFilter{})
	if err != nil {
		return fmt.Errorf("list remote receipts: %w", err)
	}
	consumptions, err := s.remote.ListConsumptions(callCtx, models.ListFilter{})
	if err != nil {
		return fmt.Errorf("list remote consumptions: %w", err)
	}

	s.cacheMu.Lock()
	s.remoteReceipts = receipts
	s.remoteConsumptions = consumptions
	s.cacheMu.Unlock()
	return nil
}

// streams merges the remote cache with local overrides, created_at ascending.
func (s *Service) streams(ctx context.Context) ([]models.Stored[models.ReceiptRecord], []models.Stored[models.ConsumptionRecord]) {
	if s.remote != nil {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn("remote refetch failed, using cached records", zap.Error(err))
		}
	}

	localReceipts, _ := s.local.ListReceipts(ctx, models.ListFilter{})
	localConsumptions, _ := s.local.ListConsumptions(ctx, models.ListFilter{})

	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return mergeTiers(s.remoteReceipts, localReceipts, receiptKeys),
		mergeTiers(s.remoteConsumptions, localConsumptions, consumptionKeys)
}

func (s *Service) isRemoteReceipt(id string) bool {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	_, ok := findRecord(s.remoteReceipts, id, receiptID)
	return ok
}

func (s *Service) isRemoteConsumption(id string) bool {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	_, ok := findRecord(s.remoteConsumptions, id, consumptionID)
	return ok
}

func (s *Service) knownIDs(receipts []models.Stored[models.ReceiptRecord], consumptions []models.Stored[models.ConsumptionRecord]) map[string]struct{} {
	ids := make(map[string]struct{}, len(receipts)+len(consumptions))
	for _, r := range receipts {
		ids[r.Record.ID] = struct{}{}
	}
	for _, c := range consumptions {
		ids[c.Record.ID] = struct{}{}
	}
	return ids
}

// nextLocalID numbers from the combined record count and skips ids in use.
func nextLocalID(prefix string, count int, used map[string]struct{}) string {
	for n := count + 1; ; n++ {
		id := fmt.Sprintf("%s%03d", prefix, n)
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

func consumptionPricing(draft models.ConsumptionDraft, item models.InventoryItem, known bool, fallbackName string) (string, float64) {
	if !known {
		name := draft.ItemName
		if name == "" {
			name = fallbackName
		}
		return name, 0
	}
	name := item.ItemName
	if name == "" {
		name = draft.ItemName
	}
	return name, item.LastRatePerUnit
}

func tierNotice(entity, remoteVerb, localVerb string, tier models.Tier) models.Notice {
	if tier == models.TierRemote {
		return models.Notice{
			Title:       fmt.Sprintf("%s %s database successfully", entity, remoteVerb),
			Description: fmt.Sprintf("The %s is stored in the database.", strings.ToLower(entity)),
			Severity:    models.SeveritySuccess,
		}
	}
	return models.Notice{
		Title:       fmt.Sprintf("%s %s (local only)", entity, localVerb),
		Description: fmt.Sprintf("The database is unavailable; the %s is kept in this session only.", strings.ToLower(entity)),
		Severity:    models.SeverityInfo,
	}
}

func normalizeActor(actor models.Actor) models.Actor {
	if actor.Name == "" {
		actor.Name = defaultActorName
	}
	return actor
}

type recordKeys[T any] struct {
	id      func(T) string
	code    func(T) string
	date    func(T) string
	created func(T) time.Time
	dateKey string
}

var receiptKeys = recordKeys[models.ReceiptRecord]{
	id:      receiptID,
	code:    func(r models.ReceiptRecord) string { return r.ItemCode },
	date:    func(r models.ReceiptRecord) string { return r.DeliveryDate },
	created: func(r models.ReceiptRecord) time.Time { return r.CreatedAt },
	dateKey: "delivery_date",
}

var consumptionKeys = recordKeys[models.ConsumptionRecord]{
	id:      consumptionID,
	code:    func(r models.ConsumptionRecord) string { return r.ItemCode },
	date:    func(r models.ConsumptionRecord) string { return r.Date },
	created: func(r models.ConsumptionRecord) time.Time { return r.CreatedAt },
	dateKey: "date",
}

func receiptID(r models.ReceiptRecord) string         { return r.ID }
func consumptionID(r models.ConsumptionRecord) string { return r.ID }

// mergeTiers lets local records shadow remote ones with the same id.
func mergeTiers[T any](remote, local []T, keys recordKeys[T]) []models.Stored[T] {
	overrides := make(map[string]T, len(local))
	for _, rec := range local {
		overrides[keys.id(rec)] = rec
	}

	out := make([]models.Stored[T], 0, len(remote)+len(local))
	seen := make(map[string]struct{}, len(remote))
	for _, rec := range remote {
		id := keys.id(rec)
		seen[id] = struct{}{}
		if override, ok := overrides[id]; ok {
			out = append(out, models.Stored[T]{Record: override, Tier: models.TierLocal})
			continue
		}
		out = append(out, models.Stored[T]{Record: rec, Tier: models.TierRemote})
	}
	for _, rec := range local {
		if _, ok := seen[keys.id(rec)]; ok {
			continue
		}
		out = append(out, models.Stored[T]{Record: rec, Tier: models.TierLocal})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return keys.created(out[i].Record).Before(keys.created(out[j].Record))
	})
	return out
}

func filterStored[T any](in []models.Stored[T], filter models.ListFilter, keys recordKeys[T]) []models.Stored[T] {
	out := make([]models.Stored[T], 0, len(in))
	for _, st := range in {
		if filter.ItemCode != "" && keys.code(st.Record) != filter.ItemCode {
			continue
		}
		if !filter.Range.Contains(keys.date(st.Record)) {
			continue
		}
		out = append(out, st)
	}

	less := func(i, j int) bool { return keys.created(out[i].Record).Before(keys.created(out[j].Record)) }
	if filter.OrderBy == keys.dateKey {
		less = func(i, j int) bool { return keys.date(out[i].Record) < keys.date(out[j].Record) }
	}
	if filter.Descending {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}

func findStored[T any](in []models.Stored[T], id string, idOf func(T) string) (models.Stored[T], bool) {
	for _, st := range in {
		if idOf(st.Record) == id {
			return st, true
		}
	}
	return models.Stored[T]{}, false
}

func findRecord[T any](in []T, id string, idOf func(T) string) (T, bool) {
	for _, rec := range in {
		if idOf(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

func unwrap[T any](in []models.Stored[T]) []T {
	out := make([]T, len(in))
	for i, st := range in {
		out[i] = st.Record
	}
	return out
}
