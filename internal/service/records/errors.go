package records

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mamadbah2/sitestock/internal/repository"
)

// ErrNotFound indicates an update targeted an unknown record.
var ErrNotFound = repository.ErrNotFound

// ErrInsufficientStock indicates a consumption asked for more than is on hand.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrRemoteUnavailable indicates no remote record store is configured.
var ErrRemoteUnavailable = errors.New("remote record store not configured")

// InsufficientStockError carries the figures shown to the user.
type InsufficientStockError struct {
	ItemCode  string
	Requested float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %s, only %s available",
		e.ItemCode, formatQty(e.Requested), formatQty(e.Available))
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
