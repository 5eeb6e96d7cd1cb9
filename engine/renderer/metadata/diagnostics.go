package metadata

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/imagedata/engine/core"
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

/**
 * @brief A message produced while loading a resource.
 */
type Diagnostic struct {
	Severity Severity
	/** @brief Name of the resource the message is about. */
	Resource string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Resource, d.Message)
}

func Warningf(resource, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Resource: resource, Message: fmt.Sprintf(format, args...)}
}

func Errorf(resource, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityError, Resource: resource, Message: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// DiagnosticSink receives the diagnostics of committed load jobs on the
// interactive thread.
type DiagnosticSink interface {
	Add(d Diagnostic)
}

// LogSink writes diagnostics to the core logger.
type LogSink struct{}

func (LogSink) Add(d Diagnostic) {
	switch d.Severity {
	case SeverityError:
		core.LogError("failed to load image %s: %s", d.Resource, d.Message)
	default:
		core.LogWarn("image %s: %s", d.Resource, d.Message)
	}
}

// DiagnosticLog collects diagnostics. Safe for concurrent use.
type DiagnosticLog struct {
	mu      sync.Mutex
	entries []Diagnostic
}

func (l *DiagnosticLog) Add(d Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, d)
}

// Entries returns a copy of the collected diagnostics.
func (l *DiagnosticLog) Entries() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *DiagnosticLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// MultiSink hands every diagnostic to each of its sinks in order.
type MultiSink []DiagnosticSink

func (m MultiSink) Add(d Diagnostic) {
	for _, s := range m {
		s.Add(d)
	}
}
