package utils

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"whatsapp-notifier/models"
)

// Placeholder replaces empty template parameters; the gateway rejects empty text.
const Placeholder = "-"

const arrivalOrder = "Por Ordem de Chegada"

var textBreaker = strings.NewReplacer("\r", " ", "\n", " ", `"`, " ")

var leadingHour = regexp.MustCompile(`^(\d{1,2})`)

// CleanText replaces line breaks and double quotes with spaces, trims the result
// and returns Placeholder when nothing is left.
func CleanText(text string) string {
	cleaned := strings.TrimSpace(textBreaker.Replace(text))
	if cleaned == "" {
		return Placeholder
	}
	return cleaned
}

// CleanTextPtr is CleanText for nullable columns.
func CleanTextPtr(text *string) string {
	if text == nil {
		return Placeholder
	}
	return CleanText(*text)
}

// Shift is the part of the day a walk-in appointment falls into.
type Shift int

const (
	Morning Shift = iota
	Afternoon
	Night
)

// ShiftOf buckets an hour: [0,12) morning, [12,18) afternoon, [18,24) night.
func ShiftOf(hour int) Shift {
	switch {
	case hour < 12:
		return Morning
	case hour < 18:
		return Afternoon
	default:
		return Night
	}
}

func (s Shift) String() string {
	switch s {
	case Morning:
		return "Morning"
	case Afternoon:
		return "Afternoon"
	default:
		return "Night"
	}
}

// Label is the pt_BR name used in message text.
func (s Shift) Label() string {
	switch s {
	case Morning:
		return "Manhã"
	case Afternoon:
		return "Tarde"
	default:
		return "Noite"
	}
}

// FormatTimeOfDay renders the appointment time. Fixed-time agendas (or unknown)
// show the cleaned time; walk-in agendas show the time with its shift and the
// arrival-order notice.
func FormatTimeOfDay(raw string, fixedTime *bool) string {
	cleaned := CleanText(raw)
	if fixedTime == nil || *fixedTime {
		return cleaned
	}
	if cleaned == Placeholder {
		return arrivalOrder
	}

	match := leadingHour.FindStringSubmatch(cleaned)
	if match == nil {
		return arrivalOrder
	}
	hour, err := strconv.Atoi(match[1])
	if err != nil || hour > 23 {
		return arrivalOrder
	}

	return fmt.Sprintf("%s - %s - %s", cleaned, ShiftOf(hour).Label(), arrivalOrder)
}

// FormatAddress prefers a pre-joined address, otherwise builds
// "{street}, {number|S/N} - {district} - {state}".
func FormatAddress(full, street, number, district, state string) string {
	if strings.TrimSpace(full) != "" {
		return CleanText(full)
	}
	if strings.TrimSpace(number) == "" {
		number = "S/N"
	}
	return CleanText(fmt.Sprintf("%s, %s - %s - %s", street, number, district, state))
}

// FormatDate renders a date as dd/mm/yyyy in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.In(loc).Format("02/01/2006")
}

// DeepLinkToken encodes "{appointment id}-{now}" for the reminder confirmation button.
func DeepLinkToken(appointmentID int64, now time.Time) string {
	if appointmentID == 0 {
		return Placeholder
	}
	raw := fmt.Sprintf("%d-%s", appointmentID, now.Format("2006-01-02 15:04:05"))
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// FormatRecord validates the phone and turns a record into template parameters.
// It never touches the network; an invalid phone returns a *ValidationError.
func FormatRecord(rec models.NotificationRecord, now time.Time, loc *time.Location) (models.TemplateParameters, error) {
	phone, err := ValidatePhone(rec.Phone)
	if err != nil {
		return models.TemplateParameters{}, err
	}

	return models.TemplateParameters{
		Phone:        phone,
		Agenda:       CleanText(rec.AgendaLabel()),
		Date:         FormatDate(rec.AppointmentAt, loc),
		Time:         FormatTimeOfDay(rec.TimeOfDay, rec.FixedTime),
		Professional: CleanText(rec.Professional),
		Specialty:    CleanText(rec.Specialty),
		UnitName:     CleanText(rec.UnitName),
		Address:      FormatAddress(rec.UnitFullAddress, rec.UnitStreet, rec.UnitNumber, rec.UnitDistrict, rec.UnitState),
		Link:         DeepLinkToken(rec.AppointmentID, now.In(loc)),
	}, nil
}
