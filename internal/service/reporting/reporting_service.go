package reporting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/export"
	repo "github.com/mamadbah2/sitestock/internal/repository/sheets"
	"github.com/mamadbah2/sitestock/internal/service/stock"
)

const (
	valuationRange = "Valuation!A:G"
	historyRange   = "History!A:D"

	recentPerKind = 3
	recentTotal   = 5
	topItems      = 5
)

var (
	// ErrUnknownReport is returned for an export kind that does not exist.
	ErrUnknownReport = errors.New("unknown report kind")
	// ErrSheetsDisabled is returned when no spreadsheet is configured.
	ErrSheetsDisabled = errors.New("google sheets not configured")
)

// Kind names an exportable report.
type Kind string

const (
	KindReceipts     Kind = "receipts"
	KindConsumptions Kind = "consumptions"
	KindValuation    Kind = "valuation"
)

var (
	receiptHeaders = []string{
		"ID", "Item Name", "Item Code", "Quantity Received", "Rate Per Unit",
		"Unit Of Measurement", "Total Value", "Supplier Name", "Delivery Date",
		"Received By", "Created At", "Created By",
	}
	consumptionHeaders = []string{
		"ID", "Item Name", "Item Code", "Quantity Used", "Purpose", "Activity Code",
		"Used By", "Date", "Remarks", "Rate Per Unit", "Total Value", "Created At", "Created By",
	}
	valuationHeaders = []string{
		"Item Code", "Item Name", "Current Stock", "Unit Of Measurement",
		"Last Rate Per Unit", "Total Value", "Last Updated",
	}
)

// Source is the read side of the record service.
type Source interface {
	State(ctx context.Context) models.InventoryState
	Snapshot(ctx context.Context) []models.InventoryItem
	ListReceipts(ctx context.Context, filter models.ListFilter) []models.Stored[models.ReceiptRecord]
	ListConsumptions(ctx context.Context, filter models.ListFilter) []models.Stored[models.ConsumptionRecord]
}

// Service derives dashboards, reports and text summaries from the records.
type Service struct {
	source  Source
	sheets  repo.Repository
	logger  *zap.Logger
	printer *message.Printer
	now     func() time.Time
}

// NewService wires a new reporting service instance. sheets may be nil.
func NewService(source Source, sheets repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:  source,
		sheets:  sheets,
		logger:  logger,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// Dashboard is the overview of the site inventory.
type Dashboard struct {
	TotalItems       int                    `json:"total_items"`
	TotalValue       float64                `json:"total_value"`
	ReceiptCount     int                    `json:"receipt_count"`
	ConsumptionCount int                    `json:"consumption_count"`
	LowStockCount    int                    `json:"low_stock_count"`
	OutOfStockCount  int                    `json:"out_of_stock_count"`
	RecentActivity   []models.Activity      `json:"recent_activity"`
	TopItems         []models.InventoryItem `json:"top_items"`
}

// InventoryRow is an inventory item with its stock status.
type InventoryRow struct {
	models.InventoryItem
	Status stock.Status `json:"status"`
}

// InventoryView is the current inventory listing.
type InventoryView struct {
	Items           []InventoryRow `json:"items"`
	TotalItems      int            `json:"total_items"`
	TotalValue      float64        `json:"total_value"`
	LowStockCount   int            `json:"low_stock_count"`
	OutOfStockCount int            `json:"out_of_stock_count"`
}

// ReceiptReport lists receipts delivered within a date range.
type ReceiptReport struct {
	Range      models.DateRange       `json:"range"`
	Receipts   []models.ReceiptRecord `json:"receipts"`
	Count      int                    `json:"count"`
	TotalValue float64                `json:"total_value"`
}

// ConsumptionReport lists consumptions dated within a date range.
type ConsumptionReport struct {
	Range        models.DateRange           `json:"range"`
	Consumptions []models.ConsumptionRecord `json:"consumptions"`
	Count        int                        `json:"count"`
	TotalValue   float64                    `json:"total_value"`
}

// HistoryPoint is one daily row of the History sheet.
type HistoryPoint struct {
	Date          time.Time `json:"date"`
	TotalItems    int       `json:"total_items"`
	TotalValue    float64   `json:"total_value"`
	LowStockCount int       `json:"low_stock_count"`
}

// Dashboard computes the overview figures.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	state := s.source.State(ctx)
	receipts := records(state.Receipts)
	consumptions := records(state.Consumptions)
	items := state.Items

	return Dashboard{
		TotalItems:       len(items),
		TotalValue:       stock.TotalValue(items),
		ReceiptCount:     len(receipts),
		ConsumptionCount: len(consumptions),
		LowStockCount:    len(stock.LowStock(items)),
		OutOfStockCount:  len(stock.OutOfStock(items)),
		RecentActivity:   stock.RecentActivity(receipts, consumptions, recentPerKind, recentTotal),
		TopItems:         stock.TopByValue(items, topItems),
	}
}

// InventoryView lists every item with its status.
func (s *Service) InventoryView(ctx context.Context) InventoryView {
	items := s.source.Snapshot(ctx)
	rows := make([]InventoryRow, len(items))
	for i, item := range items {
		rows[i] = InventoryRow{InventoryItem: item, Status: stock.Classify(item.CurrentStock)}
	}
	return InventoryView{
		Items:           rows,
		TotalItems:      len(items),
		TotalValue:      stock.TotalValue(items),
		LowStockCount:   len(stock.LowStock(items)),
		OutOfStockCount: len(stock.OutOfStock(items)),
	}
}

// ReceiptReport filters receipts on delivery date, bounds inclusive.
func (s *Service) ReceiptReport(ctx context.Context, rng models.DateRange) ReceiptReport {
	receipts := records(s.source.ListReceipts(ctx, models.ListFilter{Range: rng}))
	report := ReceiptReport{Range: rng, Receipts: receipts, Count: len(receipts)}
	for _, r := range receipts {
		report.TotalValue += r.TotalValue
	}
	return report
}

// ConsumptionReport filters consumptions on usage date, bounds inclusive.
func (s *Service) ConsumptionReport(ctx context.Context, rng models.DateRange) ConsumptionReport {
	consumptions := records(s.source.ListConsumptions(ctx, models.ListFilter{Range: rng}))
	report := ConsumptionReport{Range: rng, Consumptions: consumptions, Count: len(consumptions)}
	for _, c := range consumptions {
		report.TotalValue += c.TotalValue
	}
	return report
}

// ExportCSV renders the requested report and returns its download name and body.
// The valuation report ignores the range.
func (s *Service) ExportCSV(ctx context.Context, kind Kind, rng models.DateRange) (string, string, error) {
	var (
		name    string
		headers []string
		rows    [][]any
	)

	switch kind {
	case KindReceipts:
		name, headers = "Stock_Receipt_Report", receiptHeaders
		for _, r := range s.ReceiptReport(ctx, rng).Receipts {
			rows = append(rows, []any{
				r.ID, r.ItemName, r.ItemCode, r.QuantityReceived, r.RatePerUnit,
				r.UnitOfMeasurement, r.TotalValue, r.SupplierName, r.DeliveryDate,
				r.ReceivedBy, r.CreatedAt, r.CreatedBy,
			})
		}
	case KindConsumptions:
		name, headers = "Stock_Consumption_Report", consumptionHeaders
		for _, c := range s.ConsumptionReport(ctx, rng).Consumptions {
			rows = append(rows, []any{
				c.ID, c.ItemName, c.ItemCode, c.QuantityUsed, c.Purpose, c.ActivityCode,
				c.UsedBy, c.Date, c.Remarks, c.RatePerUnit, c.TotalValue, c.CreatedAt, c.CreatedBy,
			})
		}
	case KindValuation:
		name, headers = "Stock_Valuation_Report", valuationHeaders
		for _, item := range s.source.Snapshot(ctx) {
			rows = append(rows, []any{
				item.ItemCode, item.ItemName, item.CurrentStock, item.UnitOfMeasurement,
				item.LastRatePerUnit, item.TotalValue, item.LastUpdated,
			})
		}
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownReport, kind)
	}

	body, err := export.Document(headers, rows)
	if err != nil {
		return "", "", fmt.Errorf("render %s report: %w", kind, err)
	}
	return export.Filename(name, s.now()), body, nil
}

// StockSummary describes one item for the chat channel.
func (s *Service) StockSummary(ctx context.Context, itemCode string) string {
	itemCode = models.NormalizeItemCode(itemCode)
	item, ok := stock.Find(s.source.Snapshot(ctx), itemCode)
	if !ok {
		return fmt.Sprintf("No stock recorded for %s.", itemCode)
	}
	return s.printer.Sprintf("%s (%s): %v %s in stock, value $%.2f at $%.2f per unit. Status: %s.",
		item.ItemName, item.ItemCode, number(item.CurrentStock), item.UnitOfMeasurement,
		item.TotalValue, item.LastRatePerUnit, statusLabel(stock.Classify(item.CurrentStock)))
}

// LowStockSummary lists every item under the low stock threshold.
func (s *Service) LowStockSummary(ctx context.Context) string {
	low := stock.LowStock(s.source.Snapshot(ctx))
	if len(low) == 0 {
		return "All items are above the low stock threshold."
	}

	var b strings.Builder
	b.WriteString(s.printer.Sprintf("Low stock (%d items):", len(low)))
	for _, item := range low {
		b.WriteString(s.printer.Sprintf("\n- %s (%s): %v %s", item.ItemName, item.ItemCode, number(item.CurrentStock), item.UnitOfMeasurement))
		if item.CurrentStock <= 0 {
			b.WriteString(" OUT OF STOCK")
		}
	}
	return b.String()
}

// PublishValuation rewrites the Valuation sheet with the current inventory.
func (s *Service) PublishValuation(ctx context.Context) error {
	if s.sheets == nil {
		return ErrSheetsDisabled
	}

	items := s.source.Snapshot(ctx)
	rows := make([][]interface{}, 0, len(items)+1)
	header := make([]interface{}, len(valuationHeaders))
	for i, h := range valuationHeaders {
		header[i] = h
	}
	rows = append(rows, header)
	for _, item := range items {
		rows = append(rows, valuationRow(item))
	}

	if err := s.sheets.ReplaceRange(ctx, valuationRange, rows); err != nil {
		return fmt.Errorf("publish valuation: %w", err)
	}
	s.logger.Info("valuation published", zap.Int("items", len(items)))
	return nil
}

// AppendHistory adds today's totals to the History sheet.
func (s *Service) AppendHistory(ctx context.Context) error {
	if s.sheets == nil {
		return ErrSheetsDisabled
	}

	items := s.source.Snapshot(ctx)
	row := []interface{}{
		s.now().Format(models.DateLayout),
		len(items),
		stock.TotalValue(items),
		len(stock.LowStock(items)),
	}
	if err := s.sheets.WriteRow(ctx, historyRange, row); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// History reads the History sheet rows dated within rng.
func (s *Service) History(ctx context.Context, rng models.DateRange) ([]HistoryPoint, error) {
	if s.sheets == nil {
		return nil, ErrSheetsDisabled
	}

	rows, err := s.sheets.ReadRange(ctx, historyRange)
	if err != nil {
		return nil, fmt.Errorf("load history range: %w", err)
	}

	points := []HistoryPoint{}
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}

		dateValue, err := parseDate(row[0])
		if err != nil {
			s.logger.Debug("skip history row with invalid date", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		if !rng.Contains(dateValue.Format(models.DateLayout)) {
			continue
		}

		point := HistoryPoint{Date: dateValue}
		if point.TotalItems, err = parseInt(row[1]); err != nil {
			s.logger.Debug("skip history row with invalid item count", zap.Any("value", row[1]), zap.Error(err))
			continue
		}
		if point.TotalValue, err = parseFloat(row[2]); err != nil {
			s.logger.Debug("skip history row with invalid value", zap.Any("value", row[2]), zap.Error(err))
			continue
		}
		if point.LowStockCount, err = parseInt(row[3]); err != nil {
			s.logger.Debug("skip history row with invalid low stock count", zap.Any("value", row[3]), zap.Error(err))
			continue
		}
		points = append(points, point)
	}
	return points, nil
}

// valuationRow is the sheet form of an item; dates go out as RFC 3339 text.
func valuationRow(item models.InventoryItem) []interface{} {
	return []interface{}{
		item.ItemCode, item.ItemName, item.CurrentStock, item.UnitOfMeasurement,
		item.LastRatePerUnit, item.TotalValue, item.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func statusLabel(status stock.Status) string {
	return strings.ReplaceAll(string(status), "_", " ")
}

// number keeps integral quantities free of a decimal part.
func number(v float64) any {
	if v == float64(int64(v)) {
		return int64(v)
	}
	return v
}

func records[T any](in []models.Stored[T]) []T {
	out := make([]T, len(in))
	for i, st := range in {
		out[i] = st.Record
	}
	return out
}

func parseDate(value interface{}) (time.Time, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(models.DateLayout, str)
}

func parseInt(value interface{}) (int, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.Atoi(str)
}

func parseFloat(value interface{}) (float64, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}
