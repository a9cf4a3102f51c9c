package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/service/records"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

const remarksViaChat = "Recorded via WhatsApp"

// HelpText lists the supported commands.
const HelpText = "Site stock commands:\n" +
	"/stock CODE - current stock of one item\n" +
	"/stock - items running low\n" +
	"/use CODE QTY purpose - record material used\n" +
	"/low - items running low"

// UseUsage explains the /use syntax.
const UseUsage = "Usage: /use CODE QTY purpose, e.g. /use CEM001 30 Foundation Work"

// Recorder stores consumptions reported from the chat channel.
type Recorder interface {
	CreateConsumption(ctx context.Context, actor models.Actor, draft models.ConsumptionDraft) (records.ConsumptionResult, error)
}

// Summaries renders stock text for replies.
type Summaries interface {
	StockSummary(ctx context.Context, itemCode string) string
	LowStockSummary(ctx context.Context) string
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender models.Actor) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	recorder  Recorder
	reporting Summaries
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(recorder Recorder, reporting Summaries, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		recorder:  recorder,
		reporting: reporting,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand runs the command. Rejections a worker can fix, such as a bad
// quantity or missing stock, come back as reply text rather than an error.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender models.Actor) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender.ID), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandStock:
		if len(cmd.Args) == 0 {
			return s.reporting.LowStockSummary(ctx), nil
		}
		return s.reporting.StockSummary(ctx, cmd.Args[0]), nil
	case models.CommandLow:
		return s.reporting.LowStockSummary(ctx), nil
	case models.CommandUse:
		return s.recordUse(ctx, cmd, sender)
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "Unknown command.\n" + HelpText, nil
	}
}

func (s *Service) recordUse(ctx context.Context, cmd models.Command, sender models.Actor) (string, error) {
	draft, err := s.buildConsumptionDraft(cmd, sender)
	if err != nil {
		return "", err
	}

	res, err := s.recorder.CreateConsumption(ctx, sender, draft)
	var stockErr *records.InsufficientStockError
	var fieldErr *models.FieldError
	switch {
	case errors.As(err, &stockErr):
		return fmt.Sprintf("Not recorded: only %s units of %s available.", formatQty(stockErr.Available), stockErr.ItemCode), nil
	case errors.As(err, &fieldErr):
		return fmt.Sprintf("Not recorded: %s.", fieldErr.Error()), nil
	case err != nil:
		return "", fmt.Errorf("record consumption: %w", err)
	}

	record := res.Record
	reply := fmt.Sprintf("%s: %s of %s (%s) for %s.", res.Notice.Title,
		formatQty(record.QuantityUsed), record.ItemName, record.ItemCode, record.Purpose)
	return reply + "\n" + s.reporting.StockSummary(ctx, record.ItemCode), nil
}

func (s *Service) buildConsumptionDraft(cmd models.Command, sender models.Actor) (models.ConsumptionDraft, error) {
	if len(cmd.Args) < 3 {
		return models.ConsumptionDraft{}, ErrInvalidArguments
	}

	quantity, err := models.ParseQuantity("quantity_used", cmd.Args[1])
	if err != nil {
		return models.ConsumptionDraft{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	usedBy := sender.Name
	if usedBy == "" {
		usedBy = sender.ID
	}

	return models.ConsumptionDraft{
		ItemCode:     models.NormalizeItemCode(cmd.Args[0]),
		QuantityUsed: quantity,
		Purpose:      strings.Join(cmd.Args[2:], " "),
		UsedBy:       usedBy,
		Date:         s.now().Format(models.DateLayout),
		Remarks:      remarksViaChat,
	}, nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
