package models

import "strings"

// Kind is the notification type a task is dispatched as.
type Kind string

const (
	KindWelcome  Kind = "welcome"
	KindReminder Kind = "reminder"
)

// Raw kind values written by the scheduling backend. Every legacy booking
// sub-kind is a welcome message.
var (
	WelcomeKindAliases  = []string{"agendainicio", "agendamento", "primeira_consulta_exame", "welcome"}
	ReminderKindAliases = []string{"lembrete", "confirmacao", "reminder"}
)

// KindBlanks are folded to spaces before a raw kind is trimmed. SQL TRIM only
// strips spaces, so the selection query folds the same characters with REPLACE
// and both sides see the same normalized value.
var KindBlanks = []string{"\t", "\n", "\r"}

// NormalizeKind lowercases raw after folding KindBlanks and trimming spaces.
func NormalizeKind(raw string) string {
	for _, blank := range KindBlanks {
		raw = strings.ReplaceAll(raw, blank, " ")
	}
	return strings.ToLower(strings.Trim(raw, " "))
}

// ParseKind maps a raw stored kind to a Kind. Unknown values collapse into welcome.
func ParseKind(raw string) Kind {
	normalized := NormalizeKind(raw)
	for _, alias := range ReminderKindAliases {
		if normalized == alias {
			return KindReminder
		}
	}
	return KindWelcome
}

func (k Kind) String() string {
	return string(k)
}
