// Package notify delivers transient user facing notices.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
)

// Notifier is fire and forget: callers never learn whether delivery worked.
type Notifier interface {
	Notify(ctx context.Context, notice models.Notice)
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, notice models.Notice) {
	fields := []zap.Field{
		zap.String("title", notice.Title),
		zap.String("description", notice.Description),
		zap.String("severity", string(notice.Severity)),
	}
	switch notice.Severity {
	case models.SeverityError:
		n.logger.Error("notice", fields...)
	case models.SeverityWarning:
		n.logger.Warn("notice", fields...)
	default:
		n.logger.Info("notice", fields...)
	}
}

// Latest keeps only the most recent notice.
type Latest struct {
	mu     sync.RWMutex
	notice *models.Notice
	at     time.Time
	now    func() time.Time
}

// NewLatest builds an empty Latest.
func NewLatest() *Latest {
	return &Latest{now: time.Now}
}

// Notify implements Notifier; the newest call wins.
func (l *Latest) Notify(_ context.Context, notice models.Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notice = &notice
	l.at = l.now()
}

// Get returns the last notice and when it arrived.
func (l *Latest) Get() (models.Notice, time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.notice == nil {
		return models.Notice{}, time.Time{}, false
	}
	return *l.notice, l.at, true
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, notice models.Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, notice)
		}
	}
}

// Sender pushes a text message to a WhatsApp recipient.
type Sender interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// WhatsAppNotifier forwards warning and error notices to a manager's phone.
type WhatsAppNotifier struct {
	sender    Sender
	recipient string
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewWhatsAppNotifier builds a WhatsAppNotifier.
func NewWhatsAppNotifier(sender Sender, recipient string, logger *zap.Logger) *WhatsAppNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppNotifier{
		sender:    sender,
		recipient: recipient,
		timeout:   10 * time.Second,
		logger:    logger,
	}
}

// Notify implements Notifier. Delivery runs in the background.
func (n *WhatsAppNotifier) Notify(_ context.Context, notice models.Notice) {
	if n.sender == nil || n.recipient == "" {
		return
	}
	if notice.Severity != models.SeverityWarning && notice.Severity != models.SeverityError {
		return
	}

	req := models.OutboundMessageRequest{To: n.recipient, Message: FormatText(notice)}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.sender.SendOutbound(ctx, req); err != nil {
			n.logger.Warn("failed to push notice", zap.String("title", notice.Title), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (n *WhatsAppNotifier) Wait() {
	n.wg.Wait()
}

// FormatText renders a notice as a chat message.
func FormatText(notice models.Notice) string {
	if notice.Description == "" {
		return notice.Title
	}
	return fmt.Sprintf("%s\n%s", notice.Title, notice.Description)
}
