package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/service/records"
)

// RecordService is the record API the handlers depend on.
type RecordService interface {
	CreateReceipt(ctx context.Context, actor models.Actor, draft models.ReceiptDraft) (records.ReceiptResult, error)
	UpdateReceipt(ctx context.Context, actor models.Actor, id string, draft models.ReceiptDraft) (records.ReceiptResult, error)
	ListReceipts(ctx context.Context, filter models.ListFilter) []models.Stored[models.ReceiptRecord]
	CreateConsumption(ctx context.Context, actor models.Actor, draft models.ConsumptionDraft) (records.ConsumptionResult, error)
	UpdateConsumption(ctx context.Context, actor models.Actor, id string, draft models.ConsumptionDraft) (records.ConsumptionResult, error)
	ListConsumptions(ctx context.Context, filter models.ListFilter) []models.Stored[models.ConsumptionRecord]
	CheckConsistency(ctx context.Context) (models.ConsistencyReport, error)
	Rebuild(ctx context.Context) error
}

// RecordsHandler serves stock receipts and consumptions.
type RecordsHandler struct {
	svc    RecordService
	logger *zap.Logger
}

// NewRecordsHandler constructs the HTTP handler adapter.
func NewRecordsHandler(svc RecordService, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{svc: svc, logger: logger}
}

// CreateReceipt records material arriving on site.
func (h *RecordsHandler) CreateReceipt(c *gin.Context) {
	var draft models.ReceiptDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.CreateReceipt(c.Request.Context(), actorFromRequest(c), draft)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// UpdateReceipt edits an existing receipt.
func (h *RecordsHandler) UpdateReceipt(c *gin.Context) {
	var draft models.ReceiptDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.UpdateReceipt(c.Request.Context(), actorFromRequest(c), c.Param("id"), draft)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListReceipts lists receipts, filterable by item_code, from and to.
func (h *RecordsHandler) ListReceipts(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": h.svc.ListReceipts(c.Request.Context(), filter)})
}

// CreateConsumption records material used on site.
func (h *RecordsHandler) CreateConsumption(c *gin.Context) {
	var draft models.ConsumptionDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.CreateConsumption(c.Request.Context(), actorFromRequest(c), draft)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// UpdateConsumption edits an existing consumption.
func (h *RecordsHandler) UpdateConsumption(c *gin.Context) {
	var draft models.ConsumptionDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.UpdateConsumption(c.Request.Context(), actorFromRequest(c), c.Param("id"), draft)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListConsumptions lists consumptions, filterable by item_code, from and to.
func (h *RecordsHandler) ListConsumptions(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"consumptions": h.svc.ListConsumptions(c.Request.Context(), filter)})
}

// Consistency compares computed stock with the stored materialized view.
func (h *RecordsHandler) Consistency(c *gin.Context) {
	report, err := h.svc.CheckConsistency(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Rebuild rewrites the stored materialized view.
func (h *RecordsHandler) Rebuild(c *gin.Context) {
	if err := h.svc.Rebuild(c.Request.Context()); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
