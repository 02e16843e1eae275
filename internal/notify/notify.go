package notify

import "context"

// Sender delivers a templated notification. From the engine's point of view
// it is fire-and-forget: a failed notification never fails the job execution
// that triggered it.
type Sender interface {
	Notify(ctx context.Context, destination, templateType string, data map[string]string) error
	Close() error
}

// NoopSender drops every notification. Used when no delivery pipeline is
// configured, and in tests.
type NoopSender struct{}

func (NoopSender) Notify(ctx context.Context, destination, templateType string, data map[string]string) error {
	return nil
}

func (NoopSender) Close() error { return nil }
