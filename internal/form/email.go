package form

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/email.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/email.html"))

// Message is an outgoing notification email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// RenderEmail renders the HTML body for a submission. Every value is
// escaped by html/template.
func RenderEmail(s *Submission) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Subject string
		Fields  []Field
	}{
		Subject: s.Subject(),
		Fields:  s.Fields(),
	}
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
