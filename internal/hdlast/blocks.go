package hdlast

import "github.com/hdlsim/vlower/internal/position"

// NamedBlock is implemented by begin/fork blocks: both can be the target of
// a `disable block_name` statement. Only a BeginBlock hosts an inserted exit
// JumpBlock when a disable is lowered (spec.md §4.4); disabling a fork is
// reported as unsupported instead.
type NamedBlock interface {
	Stmt
	BlockName() string
	IsFork() bool
	Children() []Stmt
	SetChildren([]Stmt)
}

// BeginBlock is a sequential named block (`begin : name ... end`). It tracks
// whether any statement transitively beneath it is a ForkBlock, so the
// lowering pass can avoid the O(n^2) cost of re-walking ancestors for every
// fork it discovers (spec.md §4.6, invariant P6).
type BeginBlock struct {
	Span  position.Span
	Name  string
	Stmts []Stmt

	containsFork bool
	exitLabel    *JumpLabel // endOfIter=false memo slot, used by disable lowering
}

func (b *BeginBlock) GetSpan() position.Span { return b.Span }
func (b *BeginBlock) String() string         { return "begin : " + b.Name }
func (b *BeginBlock) stmtNode()              {}
func (b *BeginBlock) BlockName() string      { return b.Name }
func (b *BeginBlock) IsFork() bool           { return false }
func (b *BeginBlock) Children() []Stmt       { return b.Stmts }
func (b *BeginBlock) SetChildren(s []Stmt)   { b.Stmts = s }
func (b *BeginBlock) ContainsFork() bool     { return b.containsFork }
func (b *BeginBlock) MarkContainsFork()      { b.containsFork = true }
func (b *BeginBlock) ExitLabel() *JumpLabel  { return b.exitLabel }

// SetExitLabel memoizes the disable-exit label the first time it is created.
func (b *BeginBlock) SetExitLabel(l *JumpLabel) { b.exitLabel = l }

// ForkBlock is a `fork : name ... join` block. Reaching one during the
// traversal marks every enclosing BeginBlock as containing a fork, so that a
// `disable` of such a block is reported as unsupported instead of being
// lowered to a jump (spec.md §4.6).
type ForkBlock struct {
	Span  position.Span
	Name  string
	Stmts []Stmt
}

func (f *ForkBlock) GetSpan() position.Span { return f.Span }
func (f *ForkBlock) String() string         { return "fork : " + f.Name }
func (f *ForkBlock) stmtNode()              {}
func (f *ForkBlock) BlockName() string      { return f.Name }
func (f *ForkBlock) IsFork() bool           { return true }
func (f *ForkBlock) Children() []Stmt       { return f.Stmts }
func (f *ForkBlock) SetChildren(s []Stmt)   { f.Stmts = s }
