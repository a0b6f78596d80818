// Package diagnostics is the lowering pass's local error-reporting facility.
// spec.md §1 explicitly places "the global error-reporting facility" out of
// scope as an external collaborator; this package plays that collaborator's
// role for vlower, trimmed to exactly the categories the pass itself needs.
package diagnostics

import (
	"fmt"
	"sort"

	"github.com/hdlsim/vlower/internal/position"
)

// Level is the severity of a Diagnostic.
type Level int

const (
	LevelWarning Level = iota
	LevelError
	LevelFatal // internal invariant violation (ICE)
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "warning"
	}
}

// Category narrows a diagnostic to one of the two families this pass emits.
type Category int

const (
	CategoryControlFlow Category = iota
	CategoryUnsupported
)

func (c Category) String() string {
	if c == CategoryUnsupported {
		return "unsupported"
	}

	return "control-flow"
}

// Diagnostic is a single reported problem, spec.md §6's fixed message set.
type Diagnostic struct {
	Level    Level
	Category Category
	Code     string // e.g. "E_UNSUPPORTED"; empty for plain errors
	Message  string
	Span     position.Span
}

func (d Diagnostic) String() string {
	if d.Code != "" {
		return fmt.Sprintf("%s: %s: %s [%s]", d.Span.String(), d.Level.String(), d.Message, d.Code)
	}

	return fmt.Sprintf("%s: %s: %s", d.Span.String(), d.Level.String(), d.Message)
}

// Manager accumulates diagnostics over the course of one pass run. It never
// stops a traversal early: spec.md §7 requires all independent errors in one
// run to surface together.
type Manager struct {
	diags      []Diagnostic
	errorLimit int // 0 means unlimited
}

// NewManager creates an empty Manager with no error limit.
func NewManager() *Manager {
	return &Manager{}
}

// SetErrorLimit caps the number of error/fatal diagnostics retained; 0
// disables the cap. Warnings are never capped.
func (m *Manager) SetErrorLimit(n int) {
	m.errorLimit = n
}

// AddDiagnostic records a diagnostic, applying the error limit if set.
func (m *Manager) AddDiagnostic(d Diagnostic) {
	if m.errorLimit > 0 && d.Level != LevelWarning {
		errCount := 0

		for _, existing := range m.diags {
			if existing.Level != LevelWarning {
				errCount++
			}
		}

		if errCount >= m.errorLimit {
			return
		}
	}

	m.diags = append(m.diags, d)
}

// Errorf is a convenience wrapper around AddDiagnostic for plain errors.
func (m *Manager) Errorf(span position.Span, category Category, format string, args ...any) {
	m.AddDiagnostic(Diagnostic{Level: LevelError, Category: category, Message: fmt.Sprintf(format, args...), Span: span})
}

// Warnf is a convenience wrapper around AddDiagnostic for warnings carrying
// a diagnostic code (spec.md §6 always codes its warnings E_UNSUPPORTED).
func (m *Manager) Warnf(span position.Span, category Category, code, format string, args ...any) {
	m.AddDiagnostic(Diagnostic{Level: LevelWarning, Category: category, Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// HasErrors reports whether any error or fatal diagnostic was recorded.
func (m *Manager) HasErrors() bool {
	for _, d := range m.diags {
		if d.Level != LevelWarning {
			return true
		}
	}

	return false
}

// Diagnostics returns all recorded diagnostics, sorted by source position
// then severity, matching the teacher's deterministic-output convention.
func (m *Manager) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(m.diags))
	copy(out, m.diags)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start.Before(out[j].Span.Start)
		}

		return out[i].Level > out[j].Level
	})

	return out
}
