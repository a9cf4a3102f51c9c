package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/service/reporting"
)

// ReportService is the reporting API the handlers depend on.
type ReportService interface {
	Dashboard(ctx context.Context) reporting.Dashboard
	InventoryView(ctx context.Context) reporting.InventoryView
	ReceiptReport(ctx context.Context, rng models.DateRange) reporting.ReceiptReport
	ConsumptionReport(ctx context.Context, rng models.DateRange) reporting.ConsumptionReport
	ExportCSV(ctx context.Context, kind reporting.Kind, rng models.DateRange) (string, string, error)
	History(ctx context.Context, rng models.DateRange) ([]reporting.HistoryPoint, error)
}

// NoticeSource exposes the most recent user notice.
type NoticeSource interface {
	Get() (models.Notice, time.Time, bool)
}

// ReportsHandler serves dashboards, inventory and report downloads.
type ReportsHandler struct {
	svc     ReportService
	notices NoticeSource
	logger  *zap.Logger
}

// NewReportsHandler constructs the HTTP handler adapter.
func NewReportsHandler(svc ReportService, notices NoticeSource, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportsHandler{svc: svc, notices: notices, logger: logger}
}

// Dashboard returns the overview figures.
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Dashboard(c.Request.Context()))
}

// Inventory returns the current inventory listing.
func (h *ReportsHandler) Inventory(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.InventoryView(c.Request.Context()))
}

// ReceiptReport returns receipts within ?from=&to=.
func (h *ReportsHandler) ReceiptReport(c *gin.Context) {
	rng, ok := bindRange(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.ReceiptReport(c.Request.Context(), rng))
}

// ConsumptionReport returns consumptions within ?from=&to=.
func (h *ReportsHandler) ConsumptionReport(c *gin.Context) {
	rng, ok := bindRange(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.ConsumptionReport(c.Request.Context(), rng))
}

// ExportCSV downloads the :kind report as CSV.
func (h *ReportsHandler) ExportCSV(c *gin.Context) {
	rng, ok := bindRange(c)
	if !ok {
		return
	}

	name, body, err := h.svc.ExportCSV(c.Request.Context(), reporting.Kind(c.Param("kind")), rng)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

// History returns the daily totals recorded in the spreadsheet.
func (h *ReportsHandler) History(c *gin.Context) {
	rng, ok := bindRange(c)
	if !ok {
		return
	}

	points, err := h.svc.History(c.Request.Context(), rng)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": points})
}

// LatestNotice returns the last notice shown to users.
func (h *ReportsHandler) LatestNotice(c *gin.Context) {
	notice, at, ok := h.notices.Get()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": notice, "at": at})
}

func bindRange(c *gin.Context) (models.DateRange, bool) {
	var rng models.DateRange
	if err := c.ShouldBindQuery(&rng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return rng, false
	}
	return rng, true
}
