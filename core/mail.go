package core

import (
	"bytes"
	"net/mail"
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Subject     string
		Body        string
		Attachments []Attachment
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently.
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) Attach(content []byte, filename, contentType string) {
	m.Attachments = append(m.Attachments, Attachment{
		Content:     bytes.NewBuffer(content),
		ContentType: contentType,
		Filename:    filename,
	})
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return m.Body != "" }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }
