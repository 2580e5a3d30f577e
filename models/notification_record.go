package models

import "time"

// NotificationRecord is the joined view of a notification task, its appointment
// and the appointment's unit, as read by the eligibility selections.
type NotificationRecord struct {
	ID            int64
	AppointmentID int64
	Phone         string
	RawKind       string
	ScheduledAt   time.Time
	AppointmentAt time.Time
	Sent          *bool
	Confirmed     *bool
	ErrorFlag     bool

	AppointmentLabel string
	TaskLabel        string
	TimeOfDay        string
	FixedTime        *bool
	Professional     string
	Specialty        string

	UnitID          int64
	CompanyID       int64
	UnitName        string
	UnitStreet      string
	UnitNumber      string
	UnitDistrict    string
	UnitState       string
	UnitFullAddress string
}

func (r NotificationRecord) Kind() Kind {
	return ParseKind(r.RawKind)
}

// AgendaLabel prefers the appointment's label and falls back to the task's.
func (r NotificationRecord) AgendaLabel() string {
	if r.AppointmentLabel == "" {
		return r.TaskLabel
	}
	return r.AppointmentLabel
}

func (r NotificationRecord) WelcomeSent() bool {
	return r.Sent != nil && *r.Sent
}

func (r NotificationRecord) ReminderSent() bool {
	return r.Confirmed != nil && *r.Confirmed
}
