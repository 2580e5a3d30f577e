package models

import (
	"time"

	"gorm.io/gorm"
)

type Appointment struct {
	ID            int64     `gorm:"primaryKey"`
	UnitID        int64     `gorm:"index;not null"`
	Label         string    // agenda label shown to the patient
	AppointmentAt time.Time `gorm:"index;not null"`
	TimeOfDay     string    `gorm:"type:varchar(8)"` // "HH:MM" as booked
	Professional  string
	Specialty     string
	FixedTime     *bool // false for walk-in (queue) agendas

	NotificationTasks []NotificationTask `gorm:"foreignKey:AppointmentID"`
}

// BeforeSave keeps timestamps in UTC so date windows compare the same way on every driver.
func (a *Appointment) BeforeSave(tx *gorm.DB) (err error) {
	a.AppointmentAt = a.AppointmentAt.UTC()
	return
}
