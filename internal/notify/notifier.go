// Package notify turns booking and payment events into user notifications.
package notify

import "log"

// Notifier abstracts the delivery channel (email, LINE, Slack, SMS).
type Notifier interface {
	Notify(subject, message string) error
}

// ConsoleNotifier logs notifications, enough for local runs and tests.
type ConsoleNotifier struct{}

func NewConsole() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Notify(subject, message string) error {
	log.Printf("[notify] %s :: %s", subject, message)
	return nil
}
