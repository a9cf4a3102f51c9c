package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/service/records"
	"github.com/mamadbah2/sitestock/internal/service/reporting"
)

// writeError maps service errors onto HTTP responses.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var fieldErr *models.FieldError
	var stockErr *records.InsufficientStockError

	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": fieldErr.Error(), "field": fieldErr.Field})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": stockErr.Error(), "available": stockErr.Available})
	case errors.Is(err, records.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, reporting.ErrUnknownReport):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrRemoteUnavailable), errors.Is(err, reporting.ErrSheetsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// actorFromRequest reads the acting user from the X-User-ID and X-User-Name headers.
func actorFromRequest(c *gin.Context) models.Actor {
	return models.Actor{
		ID:   c.GetHeader("X-User-ID"),
		Name: c.GetHeader("X-User-Name"),
	}
}

func listFilter(c *gin.Context) (models.ListFilter, error) {
	var rng models.DateRange
	if err := c.ShouldBindQuery(&rng); err != nil {
		return models.ListFilter{}, err
	}
	return models.ListFilter{
		ItemCode:   models.NormalizeItemCode(c.Query("item_code")),
		Range:      rng,
		OrderBy:    c.Query("order_by"),
		Descending: c.Query("order") == "desc",
	}, nil
}
