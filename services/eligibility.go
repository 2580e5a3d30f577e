package services

import (
	"sort"
	"unicode/utf8"

	"whatsapp-notifier/models"
	"whatsapp-notifier/utils"
)

// Predicate is one eligibility condition, expressed both as a parameterized SQL
// fragment over the selection join (t = notification_tasks, a = appointments) and
// as an in-memory check over a NotificationRecord. Both forms must agree.
type Predicate struct {
	Name  string
	SQL   string
	Args  func(w utils.DayWindow) []any
	Match func(rec models.NotificationRecord, w utils.DayWindow) bool
}

// Rule is the conjunction of predicates a record must satisfy to be due for a kind.
type Rule struct {
	Kind       models.Kind
	Predicates []Predicate
}

// normalizedKindSQL mirrors models.NormalizeKind: one REPLACE per blank, then
// TRIM and LOWER. Its placeholders take kindBlankArgs.
var normalizedKindSQL = func() string {
	expr := "t.kind"
	for range models.KindBlanks {
		expr = "REPLACE(" + expr + ", ?, ' ')"
	}
	return "LOWER(TRIM(" + expr + "))"
}()

func kindBlankArgs() []any {
	args := make([]any, 0, len(models.KindBlanks)+1)
	for _, blank := range models.KindBlanks {
		args = append(args, blank)
	}
	return args
}

var (
	noErrorFlag = Predicate{
		Name: "error flag clear",
		SQL:  "t.error_flag = ?",
		Args: func(utils.DayWindow) []any { return []any{false} },
		Match: func(rec models.NotificationRecord, _ utils.DayWindow) bool {
			return !rec.ErrorFlag
		},
	}

	phoneLongEnough = Predicate{
		Name: "phone long enough",
		SQL:  "LENGTH(t.phone) >= ?",
		Args: func(utils.DayWindow) []any { return []any{utils.MinPhoneLength} },
		Match: func(rec models.NotificationRecord, _ utils.DayWindow) bool {
			return utf8.RuneCountInString(rec.Phone) >= utils.MinPhoneLength
		},
	}

	welcomeRule = Rule{
		Kind: models.KindWelcome,
		Predicates: []Predicate{
			{
				Name: "welcome kind",
				SQL:  normalizedKindSQL + " NOT IN ?",
				Args: func(utils.DayWindow) []any {
					return append(kindBlankArgs(), models.ReminderKindAliases)
				},
				Match: func(rec models.NotificationRecord, _ utils.DayWindow) bool {
					return rec.Kind() == models.KindWelcome
				},
			},
			{
				// NULL counts as not sent here
				Name: "welcome not sent",
				SQL:  "(t.sent IS NULL OR t.sent = ?)",
				Args: func(utils.DayWindow) []any { return []any{false} },
				Match: func(rec models.NotificationRecord, _ utils.DayWindow) bool {
					return !rec.WelcomeSent()
				},
			},
			noErrorFlag,
			phoneLongEnough,
			{
				Name: "appointment after today",
				SQL:  "a.appointment_at >= ?",
				Args: func(w utils.DayWindow) []any { return []any{w.Tomorrow.UTC()} },
				Match: func(rec models.NotificationRecord, w utils.DayWindow) bool {
					return !rec.AppointmentAt.Before(w.Tomorrow)
				},
			},
		},
	}

	reminderRule = Rule{
		Kind: models.KindReminder,
		Predicates: []Predicate{
			{
				Name: "reminder not sent",
				SQL:  "(t.confirmed IS NULL OR t.confirmed = ?)",
				Args: func(utils.DayWindow) []any { return []any{false} },
				Match: func(rec models.NotificationRecord, _ utils.DayWindow) bool {
					return !rec.ReminderSent()
				},
			},
			noErrorFlag,
			phoneLongEnough,
			{
				Name: "appointment today or tomorrow",
				SQL:  "a.appointment_at >= ? AND a.appointment_at < ?",
				Args: func(w utils.DayWindow) []any { return []any{w.Today.UTC(), w.DayAfterTomorrow.UTC()} },
				Match: func(rec models.NotificationRecord, w utils.DayWindow) bool {
					return !rec.AppointmentAt.Before(w.Today) && rec.AppointmentAt.Before(w.DayAfterTomorrow)
				},
			},
			{
				// Same-day appointments skip the welcome requirement; NULL counts as sent
				// for legacy rows.
				Name: "welcome sent unless today",
				SQL:  "(t.sent IS NULL OR t.sent = ? OR a.appointment_at < ?)",
				Args: func(w utils.DayWindow) []any { return []any{true, w.Tomorrow.UTC()} },
				Match: func(rec models.NotificationRecord, w utils.DayWindow) bool {
					return rec.Sent == nil || *rec.Sent || rec.AppointmentAt.Before(w.Tomorrow)
				},
			},
		},
	}
)

// RuleFor returns the eligibility rule for kind.
func RuleFor(kind models.Kind) Rule {
	if kind == models.KindReminder {
		return reminderRule
	}
	return welcomeRule
}

// Matches reports whether rec satisfies every predicate of the rule.
func (r Rule) Matches(rec models.NotificationRecord, w utils.DayWindow) bool {
	return r.FirstFailure(rec, w) == ""
}

// FirstFailure names the first predicate rec fails, or "" when it is eligible.
func (r Rule) FirstFailure(rec models.NotificationRecord, w utils.DayWindow) string {
	for _, p := range r.Predicates {
		if !p.Match(rec, w) {
			return p.Name
		}
	}
	return ""
}

// Filter applies the rule in memory with the same ordering and cap as the store:
// appointment time ascending, then id.
func (r Rule) Filter(records []models.NotificationRecord, w utils.DayWindow, limit int) []models.NotificationRecord {
	var due []models.NotificationRecord
	for _, rec := range records {
		if r.Matches(rec, w) {
			due = append(due, rec)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].AppointmentAt.Equal(due[j].AppointmentAt) {
			return due[i].AppointmentAt.Before(due[j].AppointmentAt)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}
