package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"whatsapp-notifier/models"
	"whatsapp-notifier/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testTemplates = Templates{Welcome: "novo_agendamento", Reminder: "lembrete_consulta"}

func newTestDispatcher(t *testing.T, sender Sender) (*Dispatcher, time.Time) {
	t.Helper()
	loc := saoPaulo(t)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, loc)
	d := NewDispatcher(sender, testTemplates, loc, nil)
	d.now = func() time.Time { return now }
	return d, now
}

func dispatchRecord(id int64, phone string) models.NotificationRecord {
	return models.NotificationRecord{
		ID:            id,
		AppointmentID: id * 10,
		Phone:         phone,
		RawKind:       "agendainicio",
		TaskLabel:     "Consulta",
		TimeOfDay:     "09:00",
		Professional:  "Dra. Ana",
		UnitName:      "Unidade Centro",
		UnitStreet:    "Rua A",
		UnitNumber:    "10",
		UnitDistrict:  "Centro",
		UnitState:     "PE",
		AppointmentAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
}

func payloadFor(phone string) interface{} {
	return mock.MatchedBy(func(p models.GatewayPayload) bool { return p.Number == phone })
}

func TestDispatchWelcome(t *testing.T) {
	sender := &mockSender{}
	repo := &mockRepository{}
	d, _ := newTestDispatcher(t, sender)
	ctx := context.Background()

	sender.On("Send", ctx, mock.MatchedBy(func(p models.GatewayPayload) bool {
		return p.Number == "5511988887777" &&
			p.TemplateData.Template.Name == "novo_agendamento" &&
			p.ButtonLink() == "" &&
			len(p.BodyTexts()) == 7 &&
			p.BodyTexts()[1] == "16/10/2026"
	})).Return(nil).Once()
	repo.On("MarkWelcomeSent", ctx, int64(1)).Return(nil).Once()

	report := d.Dispatch(ctx, repo, models.KindWelcome, []models.NotificationRecord{dispatchRecord(1, "11988887777")})

	assert.Equal(t, 1, report.Selected)
	assert.Equal(t, 1, report.Sent())
	assert.Equal(t, 0, report.Failed())
	sender.AssertExpectations(t)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkError", mock.Anything, mock.Anything)
}

func TestDispatchReminderCarriesLink(t *testing.T) {
	sender := &mockSender{}
	repo := &mockRepository{}
	d, now := newTestDispatcher(t, sender)
	ctx := context.Background()
	wantLink := utils.DeepLinkToken(20, now)

	sender.On("Send", ctx, mock.MatchedBy(func(p models.GatewayPayload) bool {
		return p.TemplateData.Template.Name == "lembrete_consulta" && p.ButtonLink() == wantLink
	})).Return(nil).Once()
	repo.On("MarkReminderSent", ctx, int64(2)).Return(nil).Once()

	report := d.Dispatch(ctx, repo, models.KindReminder, []models.NotificationRecord{dispatchRecord(2, "11988887777")})

	assert.Equal(t, 1, report.Sent())
	sender.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestDispatchInvalidPhoneSkipsGateway(t *testing.T) {
	sender := &mockSender{}
	repo := &mockRepository{}
	d, _ := newTestDispatcher(t, sender)
	ctx := context.Background()

	repo.On("MarkError", ctx, int64(3)).Return(nil).Once()

	report := d.Dispatch(ctx, repo, models.KindWelcome, []models.NotificationRecord{dispatchRecord(3, "12-34")})

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.Equal(t, OutcomeInvalid, result.Outcome)
	var validationErr *utils.ValidationError
	assert.True(t, errors.As(result.Err, &validationErr))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestDispatchGatewayFailureIsIsolated(t *testing.T) {
	sender := &mockSender{}
	repo := &mockRepository{}
	d, _ := newTestDispatcher(t, sender)
	ctx := context.Background()

	rejected := &GatewayError{StatusCode: 500, Body: "internal error"}
	sender.On("Send", ctx, payloadFor("5511911111111")).Return(rejected).Once()
	sender.On("Send", ctx, payloadFor("5511922222222")).Return(nil).Once()
	repo.On("MarkError", ctx, int64(1)).Return(nil).Once()
	repo.On("MarkWelcomeSent", ctx, int64(2)).Return(nil).Once()

	report := d.Dispatch(ctx, repo, models.KindWelcome, []models.NotificationRecord{
		dispatchRecord(1, "11911111111"),
		dispatchRecord(2, "11922222222"),
	})

	require.Len(t, report.Results, 2)
	assert.Equal(t, OutcomeGatewayError, report.Results[0].Outcome)
	assert.ErrorIs(t, report.Results[0].Err, rejected)
	assert.Equal(t, OutcomeSent, report.Results[1].Outcome)
	assert.Equal(t, 1, report.Count(OutcomeGatewayError))
	sender.AssertExpectations(t)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkWelcomeSent", mock.Anything, int64(1))
}

func TestDispatchStatusWriteFailure(t *testing.T) {
	sender := &mockSender{}
	repo := &mockRepository{}
	d, _ := newTestDispatcher(t, sender)
	ctx := context.Background()

	writeErr := &StoreError{Op: "mark welcome sent", ID: 4, Err: errors.New("connection reset")}
	sender.On("Send", ctx, mock.Anything).Return(nil).Once()
	repo.On("MarkWelcomeSent", ctx, int64(4)).Return(writeErr).Once()

	report := d.Dispatch(ctx, repo, models.KindWelcome, []models.NotificationRecord{dispatchRecord(4, "11988887777")})

	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeStoreError, report.Results[0].Outcome)
	assert.ErrorIs(t, report.Results[0].Err, writeErr)
	repo.AssertNotCalled(t, "MarkError", mock.Anything, mock.Anything)
	// one attempt only
	sender.AssertNumberOfCalls(t, "Send", 1)
	repo.AssertNumberOfCalls(t, "MarkWelcomeSent", 1)
}

func TestDispatchMarkErrorFailureContinues(t *testing.T) {
	sender := &mockSender{}
	repo := &mockRepository{}
	d, _ := newTestDispatcher(t, sender)
	ctx := context.Background()

	flagErr := errors.New("deadlock")
	repo.On("MarkError", ctx, int64(5)).Return(flagErr).Once()
	sender.On("Send", ctx, mock.Anything).Return(nil).Once()
	repo.On("MarkWelcomeSent", ctx, int64(6)).Return(nil).Once()

	report := d.Dispatch(ctx, repo, models.KindWelcome, []models.NotificationRecord{
		dispatchRecord(5, "123"),
		dispatchRecord(6, "11988887777"),
	})

	require.Len(t, report.Results, 2)
	assert.Equal(t, OutcomeInvalid, report.Results[0].Outcome)
	assert.ErrorIs(t, report.Results[0].StoreErr, flagErr)
	assert.Equal(t, OutcomeSent, report.Results[1].Outcome)
	repo.AssertExpectations(t)
}

func TestDispatchEmptyBatch(t *testing.T) {
	sender := &mockSender{}
	repo := &mockRepository{}
	d, _ := newTestDispatcher(t, sender)

	report := d.Dispatch(context.Background(), repo, models.KindReminder, nil)

	assert.Zero(t, report.Selected)
	assert.Empty(t, report.Results)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
