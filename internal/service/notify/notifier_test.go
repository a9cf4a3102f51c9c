package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mamadbah2/sitestock/internal/domain/models"
)

type senderMock struct{ mock.Mock }

func (m *senderMock) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func TestLatest_MostRecentWins(t *testing.T) {
	l := NewLatest()
	_, _, ok := l.Get()
	assert.False(t, ok)

	l.Notify(context.Background(), models.Notice{Title: "first", Severity: models.SeverityInfo})
	l.Notify(context.Background(), models.Notice{Title: "second", Severity: models.SeveritySuccess})

	got, _, ok := l.Get()
	assert.True(t, ok)
	assert.Equal(t, "second", got.Title)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewLatest(), NewLatest()
	Multi{a, nil, b}.Notify(context.Background(), models.Notice{Title: "saved"})

	gotA, _, _ := a.Get()
	gotB, _, _ := b.Get()
	assert.Equal(t, "saved", gotA.Title)
	assert.Equal(t, "saved", gotB.Title)
}

func TestWhatsAppNotifier_OnlyWarnings(t *testing.T) {
	sender := new(senderMock)
	sender.On("SendOutbound", mock.Anything, models.OutboundMessageRequest{
		To:      "224600000000",
		Message: "Low stock\nCEM001: 4 Bags",
	}).Return(errors.New("whatsapp down")).Once()

	n := NewWhatsAppNotifier(sender, "224600000000", nil)
	n.Notify(context.Background(), models.Notice{Title: "Saved", Severity: models.SeveritySuccess})
	n.Notify(context.Background(), models.Notice{Title: "Low stock", Description: "CEM001: 4 Bags", Severity: models.SeverityWarning})
	n.Wait()

	sender.AssertExpectations(t)
}

func TestWhatsAppNotifier_NoRecipient(t *testing.T) {
	sender := new(senderMock)
	n := NewWhatsAppNotifier(sender, "", nil)
	n.Notify(context.Background(), models.Notice{Title: "Low stock", Severity: models.SeverityError})
	n.Wait()

	sender.AssertNotCalled(t, "SendOutbound", mock.Anything, mock.Anything)
}

func TestFormatText(t *testing.T) {
	assert.Equal(t, "Saved", FormatText(models.Notice{Title: "Saved"}))
	assert.Equal(t, "Saved\nlocal only", FormatText(models.Notice{Title: "Saved", Description: "local only"}))
}
