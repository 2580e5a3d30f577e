package models

// TemplateParameters are the sanitized values substituted into a WhatsApp template.
// None of the fields is ever empty: missing values are rendered as "-".
type TemplateParameters struct {
	Phone        string
	Agenda       string
	Date         string
	Time         string
	Professional string
	Specialty    string
	UnitName     string
	Address      string
	Link         string
}

// BodyTexts returns the body parameters in template order.
func (p TemplateParameters) BodyTexts() []string {
	return []string{p.Agenda, p.Date, p.Time, p.Professional, p.Specialty, p.UnitName, p.Address}
}

// GatewayPayload is the JSON document accepted by the messaging gateway.
type GatewayPayload struct {
	Number       string       `json:"number"`
	IsClosed     bool         `json:"isClosed"`
	TemplateData TemplateData `json:"templateData"`
}

type TemplateData struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         Template `json:"template"`
}

type Template struct {
	Name       string      `json:"name"`
	Language   Language    `json:"language"`
	Components []Component `json:"components"`
}

type Language struct {
	Code string `json:"code"`
}

type Component struct {
	Type       string      `json:"type"`
	SubType    string      `json:"sub_type,omitempty"`
	Index      string      `json:"index,omitempty"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTemplatePayload builds the gateway document for a template message. A non-empty
// link adds the URL button used by reminders.
func NewTemplatePayload(templateName string, params TemplateParameters, link string) GatewayPayload {
	body := Component{Type: "body"}
	for _, text := range params.BodyTexts() {
		body.Parameters = append(body.Parameters, Parameter{Type: "text", Text: text})
	}

	components := []Component{body}
	if link != "" {
		components = append(components, Component{
			Type:       "button",
			SubType:    "url",
			Index:      "0",
			Parameters: []Parameter{{Type: "text", Text: link}},
		})
	}

	return GatewayPayload{
		Number:   params.Phone,
		IsClosed: true,
		TemplateData: TemplateData{
			MessagingProduct: "whatsapp",
			To:               params.Phone,
			Type:             "template",
			Template: Template{
				Name:       templateName,
				Language:   Language{Code: "pt_BR"},
				Components: components,
			},
		},
	}
}

// BodyTexts returns the text of every body parameter in order.
func (p GatewayPayload) BodyTexts() []string {
	var texts []string
	for _, c := range p.TemplateData.Template.Components {
		if c.Type != "body" {
			continue
		}
		for _, param := range c.Parameters {
			texts = append(texts, param.Text)
		}
	}
	return texts
}

// ButtonLink returns the URL button parameter, or "" when the payload has no button.
func (p GatewayPayload) ButtonLink() string {
	for _, c := range p.TemplateData.Template.Components {
		if c.Type == "button" && len(c.Parameters) > 0 {
			return c.Parameters[0].Text
		}
	}
	return ""
}
