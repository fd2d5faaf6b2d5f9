// Package issues collects the diagnostics raised while importing.
package issues

import (
	"sync"

	"copro-edd-import/internal/domain"
)

// Sink is the append-only capability handed to every stage.
type Sink interface {
	Add(issue domain.DataIssue)
}

// Ledger is an append-only Sink. Entries keep their insertion order.
type Ledger struct {
	mu      sync.Mutex
	entries []domain.DataIssue
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Add(issue domain.DataIssue) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, issue)
}

// Entries returns a copy of every issue recorded so far.
func (l *Ledger) Entries() []domain.DataIssue {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.DataIssue, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Count returns how many issues carry the given severity.
func (l *Ledger) Count(severity domain.Severity) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Severity == severity {
			n++
		}
	}
	return n
}

func (l *Ledger) HasErrors() bool {
	return l.Count(domain.SeverityError) > 0
}

// Warning builds a warning issue. An empty entityKey is stored as null.
func Warning(code, entityType, entityKey, message string, payload map[string]any) domain.DataIssue {
	return newIssue(domain.SeverityWarning, code, entityType, entityKey, message, payload)
}

// Error builds an error issue. An empty entityKey is stored as null.
func Error(code, entityType, entityKey, message string, payload map[string]any) domain.DataIssue {
	return newIssue(domain.SeverityError, code, entityType, entityKey, message, payload)
}

func newIssue(severity domain.Severity, code, entityType, entityKey, message string, payload map[string]any) domain.DataIssue {
	issue := domain.DataIssue{
		Severity:   severity,
		Code:       code,
		EntityType: entityType,
		Message:    message,
		Payload:    payload,
	}
	if entityKey != "" {
		key := entityKey
		issue.EntityKey = &key
	}
	return issue
}

// Discard drops everything it receives.
var Discard Sink = discard{}

type discard struct{}

func (discard) Add(domain.DataIssue) {}
