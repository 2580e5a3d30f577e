package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationTask is one queued WhatsApp notification for an appointment.
// Sent and Confirmed are nullable: legacy rows carry NULL in both.
type NotificationTask struct {
	ID            int64     `gorm:"primaryKey"`
	AppointmentID int64     `gorm:"index;not null"`
	Phone         string    `gorm:"type:varchar(20);not null"`
	Kind          string    `gorm:"type:varchar(40);not null"`
	Label         string    // fallback agenda label
	ScheduledAt   time.Time `gorm:"not null"`
	Sent          *bool
	Confirmed     *bool
	ErrorFlag     bool `gorm:"not null;default:false"`
	SentAt        *time.Time
	ConfirmedAt   *time.Time
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (t *NotificationTask) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ScheduledAt.IsZero() {
		t.ScheduledAt = time.Now()
	}
	t.ScheduledAt = t.ScheduledAt.UTC()
	return
}
