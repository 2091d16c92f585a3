package lifecycle

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Logger is the minimal printf-style logging interface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during lifecycle actions.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for an action
	Progress(action string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured lifecycle event.
type Event struct {
	Type      EventType         // Type of event
	Action    string            // Action name (e.g., "install", "destroy")
	Machine   string            // Machine name if applicable
	Message   string            // Human-readable message
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of lifecycle event.
type EventType string

const (
	// EventActionStarted indicates an action has started.
	EventActionStarted EventType = "action.started"
	// EventActionCompleted indicates an action completed successfully.
	EventActionCompleted EventType = "action.completed"
	// EventActionFailed indicates an action failed.
	EventActionFailed EventType = "action.failed"

	// EventMachineSkipped indicates a machine needs no command.
	EventMachineSkipped EventType = "machine.skipped"

	// EventCommandStarted indicates a command is being executed.
	EventCommandStarted EventType = "command.started"
	// EventCommandCompleted indicates a command finished successfully.
	EventCommandCompleted EventType = "command.completed"
	// EventCommandFailed indicates a command failed.
	EventCommandFailed EventType = "command.failed"

	// EventValidationWarning indicates a validation warning.
	EventValidationWarning EventType = "validation.warning"
)

// ConsoleObserver implements Observer using standard log package.
type ConsoleObserver struct {
	contextFields map[string]string
}

// NewConsoleObserver creates a new console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{
		contextFields: make(map[string]string),
	}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer interface.
func (o *ConsoleObserver) Event(event Event) {
	log.Print(formatEvent(withContext(event, o.contextFields)))
}

// Progress implements Observer interface.
func (o *ConsoleObserver) Progress(action string, current, total int) {
	if total == 0 {
		log.Printf("[%s] Progress: %d/%d", action, current, total)
		return
	}
	percentage := (current * 100) / total
	log.Printf("[%s] Progress: %d/%d (%d%%)", action, current, total, percentage)
}

// WithFields implements Observer interface.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	return &ConsoleObserver{contextFields: mergeFields(o.contextFields, fields)}
}

// LogrObserver implements Observer on top of a logr.Logger.
type LogrObserver struct {
	logger        logr.Logger
	contextFields map[string]string
}

// NewLogrObserver creates an observer that writes through logger.
func NewLogrObserver(logger logr.Logger) *LogrObserver {
	return &LogrObserver{logger: logger, contextFields: make(map[string]string)}
}

// Printf implements Logger.
func (o *LogrObserver) Printf(format string, v ...interface{}) {
	o.logger.Info(fmt.Sprintf(format, v...))
}

// Event implements Observer interface.
func (o *LogrObserver) Event(event Event) {
	event = withContext(event, o.contextFields)

	kv := []interface{}{"type", string(event.Type)}
	if event.Action != "" {
		kv = append(kv, "action", event.Action)
	}
	if event.Machine != "" {
		kv = append(kv, "machine", event.Machine)
	}
	for _, k := range sortedFieldKeys(event.Fields) {
		kv = append(kv, k, event.Fields[k])
	}

	if event.Type == EventActionFailed || event.Type == EventCommandFailed {
		o.logger.Error(nil, event.Message, kv...)
		return
	}
	o.logger.Info(event.Message, kv...)
}

// Progress implements Observer interface.
func (o *LogrObserver) Progress(action string, current, total int) {
	o.logger.V(1).Info("progress", "action", action, "current", current, "total", total)
}

// WithFields implements Observer interface.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	return &LogrObserver{logger: o.logger, contextFields: mergeFields(o.contextFields, fields)}
}

func withContext(event Event, contextFields map[string]string) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Fields == nil {
		event.Fields = make(map[string]string)
	}
	for k, v := range contextFields {
		if _, exists := event.Fields[k]; !exists {
			event.Fields[k] = v
		}
	}
	return event
}

func mergeFields(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// formatEvent formats an event for console output.
func formatEvent(event Event) string {
	var parts []string

	parts = append(parts, string(event.Type))

	if event.Action != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Action))
	}
	if event.Machine != "" {
		parts = append(parts, fmt.Sprintf("machine=%s", event.Machine))
	}

	parts = append(parts, event.Message)

	if len(event.Fields) > 0 {
		var fieldParts []string
		for _, k := range sortedFieldKeys(event.Fields) {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, event.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

func sortedFieldKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper functions for common events

// LogActionStart logs an action start event.
func LogActionStart(observer Observer, action Action, commands int) {
	observer.Event(Event{
		Type:    EventActionStarted,
		Action:  string(action),
		Message: fmt.Sprintf("starting with %d command(s)", commands),
	})
}

// LogActionComplete logs an action completion event.
func LogActionComplete(observer Observer, action Action, duration time.Duration) {
	observer.Event(Event{
		Type:    EventActionCompleted,
		Action:  string(action),
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogActionFailed logs an action failure event.
func LogActionFailed(observer Observer, action Action, err error) {
	observer.Event(Event{
		Type:    EventActionFailed,
		Action:  string(action),
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogMachineSkipped logs that a machine needs no command.
func LogMachineSkipped(observer Observer, action Action, machine, reason string) {
	observer.Event(Event{
		Type:    EventMachineSkipped,
		Action:  string(action),
		Machine: machine,
		Message: reason,
	})
}

// LogCommandStarted logs a command start event.
func LogCommandStarted(observer Observer, action Action, cmd Command) {
	observer.Event(Event{
		Type:    EventCommandStarted,
		Action:  string(action),
		Machine: cmd.Machine,
		Message: cmd.String(),
		Fields:  map[string]string{"kind": string(cmd.Kind)},
	})
}

// LogCommandCompleted logs a command completion event.
func LogCommandCompleted(observer Observer, action Action, cmd Command, duration time.Duration) {
	observer.Event(Event{
		Type:    EventCommandCompleted,
		Action:  string(action),
		Machine: cmd.Machine,
		Message: fmt.Sprintf("%s done in %v", cmd.Kind, duration.Round(time.Millisecond)),
		Fields:  map[string]string{"kind": string(cmd.Kind)},
	})
}

// LogCommandFailed logs a command failure event.
func LogCommandFailed(observer Observer, action Action, cmd Command, err error) {
	observer.Event(Event{
		Type:    EventCommandFailed,
		Action:  string(action),
		Machine: cmd.Machine,
		Message: fmt.Sprintf("%s failed: %v", cmd.Kind, err),
		Fields:  map[string]string{"kind": string(cmd.Kind)},
	})
}

// LogValidationWarning logs a configuration warning.
func LogValidationWarning(observer Observer, field, message string) {
	observer.Event(Event{
		Type:    EventValidationWarning,
		Message: message,
		Fields:  map[string]string{"field": field},
	})
}
