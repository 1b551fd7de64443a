package core

import "context"

type (
	// Message is a text notification addressed to a phone number.
	Message struct {
		To   string
		Body string
	}

	// Messenger is any service that can deliver messages to parents (WhatsApp gateway, console...).
	Messenger interface {
		// Send delivers msg synchronously; the caller decides what a failure means.
		Send(ctx context.Context, msg Message) error
	}
)
