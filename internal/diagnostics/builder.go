package diagnostics

import "github.com/hdlsim/vlower/internal/position"

// Builder assembles a Diagnostic fluently before it is recorded on a
// Manager, matching the teacher's diagnostics Builder shape.
type Builder struct {
	d Diagnostic
}

// NewBuilder starts a Builder for a diagnostic at span.
func NewBuilder(span position.Span) *Builder {
	return &Builder{d: Diagnostic{Span: span}}
}

func (b *Builder) Level(l Level) *Builder {
	b.d.Level = l
	return b
}

func (b *Builder) Category(c Category) *Builder {
	b.d.Category = c
	return b
}

func (b *Builder) Code(code string) *Builder {
	b.d.Code = code
	return b
}

func (b *Builder) Message(msg string) *Builder {
	b.d.Message = msg
	return b
}

// Build returns the assembled Diagnostic.
func (b *Builder) Build() Diagnostic {
	return b.d
}

// Emit builds the diagnostic and records it on m.
func (b *Builder) Emit(m *Manager) {
	m.AddDiagnostic(b.Build())
}
