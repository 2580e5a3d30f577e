package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"whatsapp-notifier/logger"
	"whatsapp-notifier/models"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type twilioMessenger interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends template payloads as Twilio WhatsApp content templates. The
// template name in the payload is used as the ContentSid.
type TwilioSender struct {
	api  twilioMessenger
	from string
}

func NewTwilioSender(accountSid, authToken, from string) *TwilioSender {
	restClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &TwilioSender{api: restClient.Api, from: from}
}

func (s *TwilioSender) Send(ctx context.Context, payload models.GatewayPayload) error {
	if err := ctx.Err(); err != nil {
		return &GatewayError{Err: err}
	}

	variables, err := contentVariables(payload)
	if err != nil {
		return &GatewayError{Err: err}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + payload.Number)
	params.SetFrom("whatsapp:" + s.from)
	params.SetContentSid(payload.TemplateData.Template.Name)
	params.SetContentVariables(variables)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		var restErr *client.TwilioRestError
		if errors.As(err, &restErr) {
			return &GatewayError{StatusCode: restErr.Status, Body: restErr.Message, Err: err}
		}
		return &GatewayError{Err: err}
	}

	if resp != nil && resp.Sid != nil {
		logger.Debug("Twilio accepted message", zap.String("sid", *resp.Sid))
	}
	return nil
}

// contentVariables numbers the body parameters from 1 and appends the button link
// as the last variable.
func contentVariables(payload models.GatewayPayload) (string, error) {
	vars := map[string]string{}
	texts := payload.BodyTexts()
	for i, text := range texts {
		vars[strconv.Itoa(i+1)] = text
	}
	if link := payload.ButtonLink(); link != "" {
		vars[strconv.Itoa(len(texts)+1)] = link
	}

	encoded, err := json.Marshal(vars)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
