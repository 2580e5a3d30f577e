package services

import (
	"context"
	"time"

	"whatsapp-notifier/models"

	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) SelectWelcomeBatch(ctx context.Context, now time.Time) ([]models.NotificationRecord, error) {
	args := m.Called(ctx, now)
	records, _ := args.Get(0).([]models.NotificationRecord)
	return records, args.Error(1)
}

func (m *mockRepository) SelectReminderBatch(ctx context.Context, now time.Time) ([]models.NotificationRecord, error) {
	args := m.Called(ctx, now)
	records, _ := args.Get(0).([]models.NotificationRecord)
	return records, args.Error(1)
}

func (m *mockRepository) MarkWelcomeSent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) MarkReminderSent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) MarkError(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, payload models.GatewayPayload) error {
	return m.Called(ctx, payload).Error(0)
}
