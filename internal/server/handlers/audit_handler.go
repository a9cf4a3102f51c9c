package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/export"
)

// AuditTrail is the audit API the handlers depend on.
type AuditTrail interface {
	Entries() []models.AuditLog
	ForEntity(entityType models.EntityType, entityID string) []models.AuditLog
	Export() (string, error)
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	trail  AuditTrail
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditHandler constructs the HTTP handler adapter.
func NewAuditHandler(trail AuditTrail, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{trail: trail, logger: logger, now: time.Now}
}

// List returns entries newest first, optionally for one ?entity_type=&entity_id=.
func (h *AuditHandler) List(c *gin.Context) {
	entityType := models.EntityType(c.Query("entity_type"))
	entityID := c.Query("entity_id")

	var entries []models.AuditLog
	switch {
	case entityType != "" && entityID != "":
		entries = h.trail.ForEntity(entityType, entityID)
	case entityType != "":
		for _, e := range h.trail.Entries() {
			if e.EntityType == entityType {
				entries = append(entries, e)
			}
		}
	default:
		entries = h.trail.Entries()
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

// Export downloads the audit trail as CSV.
func (h *AuditHandler) Export(c *gin.Context) {
	body, err := h.trail.Export()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename("Audit_Log", h.now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}
