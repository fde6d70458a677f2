package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

// Rendered is the output of the three reply templates.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// Templates renders reply notifications.
type Templates struct {
	text    *texttemplate.Template
	html    *htmltemplate.Template
	subject *texttemplate.Template
}

// LoadTemplates parses the embedded reply templates.
func LoadTemplates() (*Templates, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/reply_notification.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/reply_notification.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}
	subject, err := texttemplate.ParseFS(templateFS, "templates/reply_notification_subject.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse subject template: %w", err)
	}
	return &Templates{text: text, html: html, subject: subject}, nil
}

// Render executes all three templates against tm. Any failure is reported
// as ErrTemplateRender.
func (t *Templates) Render(tm TemplateMap) (Rendered, error) {
	var text, html, subject bytes.Buffer
	if err := t.text.Execute(&text, tm); err != nil {
		return Rendered{}, fmt.Errorf("%w: text: %v", ErrTemplateRender, err)
	}
	if err := t.html.Execute(&html, tm); err != nil {
		return Rendered{}, fmt.Errorf("%w: html: %v", ErrTemplateRender, err)
	}
	if err := t.subject.Execute(&subject, tm); err != nil {
		return Rendered{}, fmt.Errorf("%w: subject: %v", ErrTemplateRender, err)
	}
	return Rendered{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
