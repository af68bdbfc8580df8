package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a logger implementation for testing that captures all log messages
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		zerolog:  &nop,
	}
}

// log captures a log message
func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: fields})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields)
}

// WithField adds a field to the logger context
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &boundTestLogger{parent: l, fields: map[string]interface{}{key: value}}
}

// WithFields adds multiple fields to the logger context
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &boundTestLogger{parent: l, fields: fields}
}

// WithError adds an error to the logger context
func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// GetZerolog returns the underlying zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// GetMessages returns all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

// boundTestLogger is a TestLogger view carrying accumulated context fields.
// All messages land in the parent's buffer.
type boundTestLogger struct {
	parent *TestLogger
	fields map[string]interface{}
}

func (l *boundTestLogger) merge(fields map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func (l *boundTestLogger) Debug(msg string) { l.parent.log("DEBUG", msg, l.fields) }
func (l *boundTestLogger) Info(msg string)  { l.parent.log("INFO", msg, l.fields) }
func (l *boundTestLogger) Warn(msg string)  { l.parent.log("WARN", msg, l.fields) }
func (l *boundTestLogger) Error(msg string) { l.parent.log("ERROR", msg, l.fields) }
func (l *boundTestLogger) Fatal(msg string) { l.parent.log("FATAL", msg, l.fields) }

func (l *boundTestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.parent.log("DEBUG", msg, l.merge(fields))
}

func (l *boundTestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.parent.log("INFO", msg, l.merge(fields))
}

func (l *boundTestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.parent.log("WARN", msg, l.merge(fields))
}

func (l *boundTestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.parent.log("ERROR", msg, l.merge(fields))
}

func (l *boundTestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.parent.log("FATAL", msg, l.merge(fields))
}

func (l *boundTestLogger) WithField(key string, value interface{}) Logger {
	return &boundTestLogger{parent: l.parent, fields: l.merge(map[string]interface{}{key: value})}
}

func (l *boundTestLogger) WithFields(fields map[string]interface{}) Logger {
	return &boundTestLogger{parent: l.parent, fields: l.merge(fields)}
}

func (l *boundTestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *boundTestLogger) GetZerolog() *zerolog.Logger {
	return l.parent.zerolog
}
