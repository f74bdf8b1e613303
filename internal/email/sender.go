// Package email renders and delivers outbound email. FinalizeHTML turns
// template output into a complete branded document; Sender delivers it.
package email

import "context"

// Message is a fully rendered outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Sender delivers rendered messages. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
