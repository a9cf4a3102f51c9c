package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/server/handlers"
)

// Handlers groups the HTTP handlers. Webhook is nil when WhatsApp is disabled.
type Handlers struct {
	Records *handlers.RecordsHandler
	Reports *handlers.ReportsHandler
	Audit   *handlers.AuditHandler
	Webhook *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/dashboard", h.Reports.Dashboard)
	r.GET("/inventory", h.Reports.Inventory)
	r.GET("/inventory/consistency", h.Records.Consistency)
	r.POST("/inventory/rebuild", h.Records.Rebuild)

	r.GET("/receipts", h.Records.ListReceipts)
	r.POST("/receipts", h.Records.CreateReceipt)
	r.PUT("/receipts/:id", h.Records.UpdateReceipt)

	r.GET("/consumptions", h.Records.ListConsumptions)
	r.POST("/consumptions", h.Records.CreateConsumption)
	r.PUT("/consumptions/:id", h.Records.UpdateConsumption)

	r.GET("/reports/receipts", h.Reports.ReceiptReport)
	r.GET("/reports/consumptions", h.Reports.ConsumptionReport)
	r.GET("/reports/history", h.Reports.History)
	r.GET("/exports/:kind", h.Reports.ExportCSV)

	r.GET("/audit-logs", h.Audit.List)
	r.GET("/audit-logs/export", h.Audit.Export)
	r.GET("/notifications/latest", h.Reports.LatestNotice)

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized", zap.Bool("webhook", h.Webhook != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
