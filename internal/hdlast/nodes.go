// Package hdlast defines the intermediate-representation node set that the
// LinkJump control-flow lowering pass (internal/lower) operates on. It plays
// the role spec.md §1 assigns to "the AST container library itself": node
// allocation and the small set of shapes the pass needs to know about, with
// no parsing, binding, or optimization logic of its own.
//
// Statement containers are plain Go slices rather than a hand-rolled linked
// list with parent/next back-pointers. A slice already gives "later sibling"
// ordering for free, which is the only ordering guarantee LinkJump's
// forward-jump invariant (spec.md P2) actually needs — see SPEC_FULL.md §3.
package hdlast

import (
	"fmt"
	"strings"

	"github.com/hdlsim/vlower/internal/position"
)

// Node is the base interface implemented by every IR node.
type Node interface {
	GetSpan() position.Span
	String() string
}

// Stmt is implemented by nodes that may appear in a statement list.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// ===== Top-level containers =====

// Netlist is the root container of all modules.
type Netlist struct {
	Span    position.Span
	Modules []*Module
}

func (n *Netlist) GetSpan() position.Span { return n.Span }
func (n *Netlist) String() string {
	names := make([]string, 0, len(n.Modules))
	for _, m := range n.Modules {
		names = append(names, m.Name)
	}

	return fmt.Sprintf("netlist{%s}", strings.Join(names, ", "))
}

// Module is a scope containing functions/tasks. Dead modules (unreachable
// from any instantiated top) are skipped entirely by the lowering pass,
// matching V3LinkJump.cpp's `if (nodep->dead()) return;`.
type Module struct {
	Span             position.Span
	Name             string
	Dead             bool
	HasParameterList bool
	HasGParam        bool
	Items            []*FunctionOrTask

	nextRepeatID int // per-module monotonic counter, spec.md §4.1 modRepeatCounter
	nextLabelID  int // per-module monotonic counter for readable jump-label names
}

func (m *Module) GetSpan() position.Span { return m.Span }
func (m *Module) String() string         { return fmt.Sprintf("module %s", m.Name) }

// NextRepeatCounterName returns a fresh, unique counter-variable name for a
// lowered `repeat` loop within this module.
func (m *Module) NextRepeatCounterName() string {
	name := fmt.Sprintf("__Vrepeat%d", m.nextRepeatID)
	m.nextRepeatID++

	return name
}

// NextLabelName returns a fresh, unique jump-label name within this module.
func (m *Module) NextLabelName() string {
	name := fmt.Sprintf("__Vlab%d", m.nextLabelID)
	m.nextLabelID++

	return name
}

// FunctionOrTask is either a Function (has a result variable, FVar) or a
// Task (FVar is nil). It is a jump anchor: `return` jumps to a label placed
// after the last statement of Body.
type FunctionOrTask struct {
	Span          position.Span
	Name          string
	IsFunction    bool
	IsConstructor bool
	FVar          *Var // result variable; nil for tasks and unset-result functions
	Body          []Stmt

	exitLabel *JumpLabel // endOfIter=false memo slot (spec.md §4.5)
}

func (f *FunctionOrTask) GetSpan() position.Span { return f.Span }
func (f *FunctionOrTask) String() string {
	kind := "task"
	if f.IsFunction {
		kind = "function"
	}

	return fmt.Sprintf("%s %s", kind, f.Name)
}

// ExitLabel returns the memoized return-exit label, if any has been created.
func (f *FunctionOrTask) ExitLabel() *JumpLabel { return f.exitLabel }

// SetExitLabel memoizes the return-exit label the first time it is created.
func (f *FunctionOrTask) SetExitLabel(l *JumpLabel) { f.exitLabel = l }

// ===== Variables =====

// Var is a variable declaration. Automatic+Signed+Width=32 describes the
// repeat-loop counters this pass itself introduces (spec.md §4.2).
type Var struct {
	Span        position.Span
	Name        string
	Signed      bool
	Width       int
	Automatic   bool
	UsedLoopIdx bool // set by this pass; consumed by later optimization passes
}

func (v *Var) GetSpan() position.Span { return v.Span }
func (v *Var) String() string         { return fmt.Sprintf("var %s", v.Name) }

// NewSigned32Auto creates a signed, 32-bit, automatic-lifetime loop-index
// variable, matching V3LinkJump.cpp's `findSigned32DType()` + `lifetime`.
func NewSigned32Auto(span position.Span, name string) *Var {
	return &Var{Span: span, Name: name, Signed: true, Width: 32, Automatic: true}
}

// AccessKind distinguishes a read reference from a write (assignment target).
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (a AccessKind) String() string {
	if a == AccessWrite {
		return "write"
	}

	return "read"
}

// VarDeclStmt is a variable declaration appearing inline in a statement
// list. The label-insertion engine skips and hoists these (spec.md §4.5,
// invariant P4) rather than letting them be nested inside an inserted
// JumpBlock.
type VarDeclStmt struct {
	Span position.Span
	V    *Var
}

func (d *VarDeclStmt) GetSpan() position.Span { return d.Span }
func (d *VarDeclStmt) String() string         { return d.V.String() + ";" }
func (d *VarDeclStmt) stmtNode()              {}

// VarRef is a read or write reference to a Var.
type VarRef struct {
	Span   position.Span
	V      *Var
	Access AccessKind
}

func (r *VarRef) GetSpan() position.Span { return r.Span }
func (r *VarRef) String() string         { return r.V.Name }
func (r *VarRef) exprNode()              {}

// ===== Generic expressions and statements =====

// BinOp enumerates the handful of operators the lowering pass itself needs
// to construct (repeat's `counter > 0` and `counter - 1`) or that test
// fixtures use for loop conditions.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpGt
	OpLt
	OpGe
	OpLe
	OpEq
	OpNe
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGe:
		return ">="
	case OpLe:
		return "<="
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	default:
		return "?"
	}
}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Span     position.Span
	Op       BinOp
	LHS, RHS Expr
}

func (b *BinaryExpr) GetSpan() position.Span { return b.Span }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.LHS.String(), b.Op.String(), b.RHS.String())
}
func (b *BinaryExpr) exprNode() {}

// IntLiteral is an integer constant.
type IntLiteral struct {
	Span  position.Span
	Value int64
}

func (c *IntLiteral) GetSpan() position.Span { return c.Span }
func (c *IntLiteral) String() string         { return fmt.Sprintf("%d", c.Value) }
func (c *IntLiteral) exprNode()              {}

// AssignStmt assigns RHS to LHS.
type AssignStmt struct {
	Span     position.Span
	LHS, RHS Expr
}

func (a *AssignStmt) GetSpan() position.Span { return a.Span }
func (a *AssignStmt) String() string         { return fmt.Sprintf("%s = %s;", a.LHS.String(), a.RHS.String()) }
func (a *AssignStmt) stmtNode()              {}

// ExprStmt is a bare expression used as a statement (e.g. a void call).
type ExprStmt struct {
	Span position.Span
	X    Expr
}

func (e *ExprStmt) GetSpan() position.Span { return e.Span }
func (e *ExprStmt) String() string         { return e.X.String() + ";" }
func (e *ExprStmt) stmtNode()              {}

// CallStmt models a system-task-like call (`$display(...)`) or void task
// call used as a placeholder "do something" statement in lowering tests.
type CallStmt struct {
	Span position.Span
	Name string
	Args []Expr
}

func (c *CallStmt) GetSpan() position.Span { return c.Span }
func (c *CallStmt) String() string         { return fmt.Sprintf("%s(...);", c.Name) }
func (c *CallStmt) stmtNode()              {}

// IfStmt is a conditional; Else may be nil.
type IfStmt struct {
	Span       position.Span
	Cond       Expr
	Then, Else []Stmt
}

func (i *IfStmt) GetSpan() position.Span { return i.Span }
func (i *IfStmt) String() string         { return fmt.Sprintf("if (%s) {...}", i.Cond.String()) }
func (i *IfStmt) stmtNode()              {}
