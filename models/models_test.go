package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{"agendainicio", KindWelcome},
		{"AgendaInicio ", KindWelcome},
		{"primeira_consulta_exame", KindWelcome},
		{"agendamento", KindWelcome},
		{"something-legacy", KindWelcome},
		{"", KindWelcome},
		{"lembrete", KindReminder},
		{"confirmacao", KindReminder},
		{"reminder", KindReminder},
		{"lembrete\t", KindReminder},
		{"\tConfirmacao\r\n", KindReminder},
		{"lembrete\v", KindWelcome},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.raw))
		})
	}
}

func TestNormalizeKind(t *testing.T) {
	assert.Equal(t, "lembrete", NormalizeKind(" \tLEMBRETE\r\n "))
	assert.Equal(t, "agenda inicio", NormalizeKind("Agenda\tInicio"))
	assert.Equal(t, "lembrete\u00a0", NormalizeKind("lembrete\u00a0"))
}

func TestNotificationRecordAccessors(t *testing.T) {
	yes, no := true, false

	rec := NotificationRecord{TaskLabel: "Clínica Geral"}
	assert.Equal(t, "Clínica Geral", rec.AgendaLabel())
	rec.AppointmentLabel = "Cardiologia"
	assert.Equal(t, "Cardiologia", rec.AgendaLabel())

	assert.False(t, rec.WelcomeSent())
	rec.Sent = &no
	assert.False(t, rec.WelcomeSent())
	rec.Sent = &yes
	assert.True(t, rec.WelcomeSent())

	assert.False(t, rec.ReminderSent())
	rec.Confirmed = &yes
	assert.True(t, rec.ReminderSent())
}

func TestNewTemplatePayloadJSON(t *testing.T) {
	params := TemplateParameters{
		Phone: "5511988887777", Agenda: "Cardiologia", Date: "16/10/2026", Time: "09:30",
		Professional: "Dra. Ana", Specialty: "Cardiologia", UnitName: "Unidade Centro",
		Address: "Rua A, 10 - Centro - PE",
	}

	payload := NewTemplatePayload("lembrete_consulta", params, "MTIzLTIwMjY=")
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "5511988887777", doc["number"])
	assert.Equal(t, true, doc["isClosed"])

	data := doc["templateData"].(map[string]any)
	assert.Equal(t, "whatsapp", data["messaging_product"])
	assert.Equal(t, "template", data["type"])
	tmpl := data["template"].(map[string]any)
	assert.Equal(t, "lembrete_consulta", tmpl["name"])
	assert.Equal(t, "pt_BR", tmpl["language"].(map[string]any)["code"])

	components := tmpl["components"].([]any)
	require.Len(t, components, 2)
	body := components[0].(map[string]any)
	assert.NotContains(t, body, "sub_type")
	assert.Len(t, body["parameters"], 7)
	button := components[1].(map[string]any)
	assert.Equal(t, "url", button["sub_type"])
	assert.Equal(t, "0", button["index"])

	assert.Equal(t, params.BodyTexts(), payload.BodyTexts())
	assert.Equal(t, "MTIzLTIwMjY=", payload.ButtonLink())
}

func TestNewTemplatePayloadWithoutLink(t *testing.T) {
	payload := NewTemplatePayload("primeira_consulta_exame", TemplateParameters{Phone: "5511988887777"}, "")
	assert.Len(t, payload.TemplateData.Template.Components, 1)
	assert.Empty(t, payload.ButtonLink())
}
