// Package sms defines the SMS delivery boundary. The default client only
// normalizes and logs; a carrier integration implements the same interface.
package sms

import (
	"context"

	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/logger"
	"collectflow_backend/platform/phone"
)

// Message is a rendered outbound text message.
type Message struct {
	To   string
	Body string
}

// Sender delivers text messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender validates the destination number and logs the message instead
// of delivering it. Used in development and in deployments without a
// carrier account.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	to, err := phone.Normalize(msg.To)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid sms destination", err)
	}
	s.log.Info("sms_logged", "to", to, "chars", len(msg.Body))
	return nil
}
