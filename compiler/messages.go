package compiler

import (
	"context"
	"fmt"
	"log/slog"
)

// Severity classifies a compilation message.
type Severity string

const (
	// SeverityError marks input errors.
	SeverityError Severity = "error"
	// SeverityWarning marks structural warnings a default was applied for.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks informational notes.
	SeverityInfo Severity = "info"
)

// Message is a human-readable note recorded during one compilation run.
type Message struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject,omitempty"`
	Text     string   `json:"text"`
}

// String formats the message as "severity: subject: text".
func (m Message) String() string {
	if m.Subject == "" {
		return fmt.Sprintf("%s: %s", m.Severity, m.Text)
	}
	return fmt.Sprintf("%s: %s: %s", m.Severity, m.Subject, m.Text)
}

// Messages is the ordered message list of one run. Every message is also
// logged at the matching level.
type Messages struct {
	items  []Message
	logger *slog.Logger
}

func newMessages(logger *slog.Logger) *Messages {
	return &Messages{logger: logger}
}

// Errorf records an error.
func (m *Messages) Errorf(subject, format string, args ...any) {
	m.add(SeverityError, slog.LevelError, subject, fmt.Sprintf(format, args...))
}

// Warnf records a warning.
func (m *Messages) Warnf(subject, format string, args ...any) {
	m.add(SeverityWarning, slog.LevelWarn, subject, fmt.Sprintf(format, args...))
}

// Infof records an informational note.
func (m *Messages) Infof(subject, format string, args ...any) {
	m.add(SeverityInfo, slog.LevelDebug, subject, fmt.Sprintf(format, args...))
}

func (m *Messages) add(sev Severity, level slog.Level, subject, text string) {
	m.items = append(m.items, Message{Severity: sev, Subject: subject, Text: text})
	m.logger.Log(context.Background(), level, text, "subject", subject)
}

// List returns a copy of the recorded messages in order.
func (m *Messages) List() []Message {
	out := make([]Message, len(m.items))
	copy(out, m.items)
	return out
}
