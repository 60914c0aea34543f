// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair for outbound mail.
package queue

import "github.com/iliyamo/sellerhub/internal/mail"

// MailRequestedEvent is published when the API needs an email delivered
// (for example an OTP). The consumer turns it back into a mail.Message.
type MailRequestedEvent struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	RequestedAt string `json:"requested_at"`
}

// Message converts the event to the mail payload.
func (e MailRequestedEvent) Message() mail.Message {
	return mail.Message{To: e.To, Subject: e.Subject, Body: e.Body}
}
