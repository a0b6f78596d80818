package hdlast

import (
	"encoding/json"
	"fmt"

	"github.com/hdlsim/vlower/internal/position"
)

// Wire format for the cmd/linkjump CLI boundary. hdlast nodes are a pointer
// graph (a Var or JumpLabel may be referenced from several places), which
// encoding/json cannot round-trip directly, so this file encodes each node
// as a tagged wireNode and replaces pointer identity with small integer IDs,
// matching the JSON shape cmd/orizon-config uses for its own config tree.

type wireSpan struct {
	StartFile string `json:"start_file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	StartOff  int    `json:"start_off"`
	EndFile   string `json:"end_file"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	EndOff    int    `json:"end_off"`
}

func spanToWire(s position.Span) wireSpan {
	return wireSpan{
		StartFile: s.Start.Filename, StartLine: s.Start.Line, StartCol: s.Start.Column, StartOff: s.Start.Offset,
		EndFile: s.End.Filename, EndLine: s.End.Line, EndCol: s.End.Column, EndOff: s.End.Offset,
	}
}

func wireToSpan(w wireSpan) position.Span {
	return position.Span{
		Start: position.Position{Filename: w.StartFile, Line: w.StartLine, Column: w.StartCol, Offset: w.StartOff},
		End:   position.Position{Filename: w.EndFile, Line: w.EndLine, Column: w.EndCol, Offset: w.EndOff},
	}
}

type wireVar struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Signed      bool     `json:"signed"`
	Width       int      `json:"width"`
	Automatic   bool     `json:"automatic"`
	UsedLoopIdx bool     `json:"used_loop_idx"`
	Span        wireSpan `json:"span"`
}

type wireLabel struct {
	ID   int      `json:"id"`
	Name string   `json:"name"`
	Span wireSpan `json:"span"`
}

// wireNode is a tagged union covering every Stmt and Expr kind. Only the
// fields relevant to Kind are populated on encode; unused fields are
// omitted via `omitempty`.
type wireNode struct {
	Kind string   `json:"kind"`
	Span wireSpan `json:"span"`

	// Var / VarRef / VarDeclStmt
	VarID  int    `json:"var_id,omitempty"`
	Access string `json:"access,omitempty"`

	// BinaryExpr
	Op  string    `json:"op,omitempty"`
	LHS *wireNode `json:"lhs,omitempty"`
	RHS *wireNode `json:"rhs,omitempty"`

	// IntLiteral
	Value int64 `json:"value,omitempty"`

	// AssignStmt reuses LHS/RHS above.

	// ExprStmt / CallStmt
	Name string      `json:"name,omitempty"`
	X    *wireNode   `json:"x,omitempty"`
	Args []*wireNode `json:"args,omitempty"`

	// IfStmt
	Cond *wireNode   `json:"cond,omitempty"`
	Then []*wireNode `json:"then,omitempty"`
	Else []*wireNode `json:"else,omitempty"`

	// BeginBlock / ForkBlock
	Stmts        []*wireNode `json:"stmts,omitempty"`
	ContainsFork bool        `json:"contains_fork,omitempty"`
	ExitLabelID  int         `json:"exit_label_id,omitempty"`

	// WhileLoop / DoWhileLoop / ForeachLoop / RepeatLoop
	Preconds           []*wireNode `json:"preconds,omitempty"`
	Incs               []*wireNode `json:"incs,omitempty"`
	Body               []*wireNode `json:"body,omitempty"`
	Container          *wireNode   `json:"container,omitempty"`
	Count              *wireNode   `json:"count,omitempty"`
	Unroll             string      `json:"unroll,omitempty"`
	SuppressUnusedLoop bool        `json:"suppress_unused_loop,omitempty"`
	ExitLabelID2       int         `json:"loop_exit_label_id,omitempty"`
	ContinueLabelID    int         `json:"loop_continue_label_id,omitempty"`

	// ReturnStmt
	// (Value reuses X above)

	// DisableStmt / PragmaStmt
	Target string `json:"target,omitempty"`
	Pragma string `json:"pragma,omitempty"`

	// JumpBlock / JumpGoStmt / JumpLabel
	LabelID int `json:"label_id,omitempty"`
}

type wireFuncOrTask struct {
	Name          string      `json:"name"`
	IsFunction    bool        `json:"is_function"`
	IsConstructor bool        `json:"is_constructor"`
	FVarID        int         `json:"fvar_id,omitempty"`
	Body          []*wireNode `json:"body"`
	ExitLabelID   int         `json:"exit_label_id,omitempty"`
	Span          wireSpan    `json:"span"`
}

type wireModule struct {
	Name             string            `json:"name"`
	Dead             bool              `json:"dead"`
	HasParameterList bool              `json:"has_parameter_list"`
	HasGParam        bool              `json:"has_gparam"`
	Items            []*wireFuncOrTask `json:"items"`
	Span             wireSpan          `json:"span"`
}

type wireNetlist struct {
	Vars    []wireVar    `json:"vars"`
	Labels  []wireLabel  `json:"labels"`
	Modules []wireModule `json:"modules"`
	Span    wireSpan     `json:"span"`
}

// encoder collects shared Var/JumpLabel nodes into ID tables as it walks.
type encoder struct {
	varIDs   map[*Var]int
	vars     []wireVar
	labelIDs map[*JumpLabel]int
	labels   []wireLabel
}

func newEncoder() *encoder {
	return &encoder{varIDs: map[*Var]int{}, labelIDs: map[*JumpLabel]int{}}
}

func (e *encoder) varID(v *Var) int {
	if v == nil {
		return 0
	}

	if id, ok := e.varIDs[v]; ok {
		return id
	}

	id := len(e.vars) + 1
	e.varIDs[v] = id
	e.vars = append(e.vars, wireVar{
		ID: id, Name: v.Name, Signed: v.Signed, Width: v.Width,
		Automatic: v.Automatic, UsedLoopIdx: v.UsedLoopIdx, Span: spanToWire(v.Span),
	})

	return id
}

func (e *encoder) labelID(l *JumpLabel) int {
	if l == nil {
		return 0
	}

	if id, ok := e.labelIDs[l]; ok {
		return id
	}

	id := len(e.labels) + 1
	e.labelIDs[l] = id
	e.labels = append(e.labels, wireLabel{ID: id, Name: l.Name, Span: spanToWire(l.Span)})

	return id
}

func (e *encoder) encodeExpr(x Expr) *wireNode {
	if x == nil {
		return nil
	}

	switch n := x.(type) {
	case *VarRef:
		access := "read"
		if n.Access == AccessWrite {
			access = "write"
		}

		return &wireNode{Kind: "VarRef", Span: spanToWire(n.Span), VarID: e.varID(n.V), Access: access}
	case *BinaryExpr:
		return &wireNode{
			Kind: "BinaryExpr", Span: spanToWire(n.Span), Op: n.Op.String(),
			LHS: e.encodeExpr(n.LHS), RHS: e.encodeExpr(n.RHS),
		}
	case *IntLiteral:
		return &wireNode{Kind: "IntLiteral", Span: spanToWire(n.Span), Value: n.Value}
	default:
		panic(fmt.Sprintf("hdlast: encodeExpr: unknown expr type %T", x))
	}
}

func (e *encoder) encodeExprs(xs []Expr) []*wireNode {
	if xs == nil {
		return nil
	}

	out := make([]*wireNode, len(xs))
	for i, x := range xs {
		out[i] = e.encodeExpr(x)
	}

	return out
}

func (e *encoder) encodeStmts(stmts []Stmt) []*wireNode {
	if stmts == nil {
		return nil
	}

	out := make([]*wireNode, len(stmts))
	for i, s := range stmts {
		out[i] = e.encodeStmt(s)
	}

	return out
}

func (e *encoder) encodeStmt(s Stmt) *wireNode {
	switch n := s.(type) {
	case *VarDeclStmt:
		return &wireNode{Kind: "VarDeclStmt", Span: spanToWire(n.Span), VarID: e.varID(n.V)}
	case *AssignStmt:
		return &wireNode{Kind: "AssignStmt", Span: spanToWire(n.Span), LHS: e.encodeExpr(n.LHS), RHS: e.encodeExpr(n.RHS)}
	case *ExprStmt:
		return &wireNode{Kind: "ExprStmt", Span: spanToWire(n.Span), X: e.encodeExpr(n.X)}
	case *CallStmt:
		return &wireNode{Kind: "CallStmt", Span: spanToWire(n.Span), Name: n.Name, Args: e.encodeExprs(n.Args)}
	case *IfStmt:
		return &wireNode{
			Kind: "IfStmt", Span: spanToWire(n.Span), Cond: e.encodeExpr(n.Cond),
			Then: e.encodeStmts(n.Then), Else: e.encodeStmts(n.Else),
		}
	case *BeginBlock:
		return &wireNode{
			Kind: "BeginBlock", Span: spanToWire(n.Span), Name: n.Name, Stmts: e.encodeStmts(n.Stmts),
			ContainsFork: n.containsFork, ExitLabelID: e.labelID(n.exitLabel),
		}
	case *ForkBlock:
		return &wireNode{Kind: "ForkBlock", Span: spanToWire(n.Span), Name: n.Name, Stmts: e.encodeStmts(n.Stmts)}
	case *WhileLoop:
		return &wireNode{
			Kind: "WhileLoop", Span: spanToWire(n.Span), Preconds: e.encodeStmts(n.Preconds),
			Cond: e.encodeExpr(n.Cond), Incs: e.encodeStmts(n.Incs), Body: e.encodeStmts(n.Body),
			Unroll: n.Unroll.String(), SuppressUnusedLoop: n.SuppressUnusedLoop,
			ExitLabelID2: e.labelID(n.exitLabel), ContinueLabelID: e.labelID(n.continueLabel),
		}
	case *DoWhileLoop:
		return &wireNode{
			Kind: "DoWhileLoop", Span: spanToWire(n.Span), Cond: e.encodeExpr(n.Cond),
			Body: e.encodeStmts(n.Body), Unroll: n.Unroll.String(),
			ExitLabelID2: e.labelID(n.exitLabel), ContinueLabelID: e.labelID(n.continueLabel),
		}
	case *RepeatLoop:
		return &wireNode{
			Kind: "RepeatLoop", Span: spanToWire(n.Span), Count: e.encodeExpr(n.Count),
			Body: e.encodeStmts(n.Body), Unroll: n.Unroll.String(),
		}
	case *ForeachLoop:
		return &wireNode{
			Kind: "ForeachLoop", Span: spanToWire(n.Span), Container: e.encodeExpr(n.Container),
			Body: e.encodeStmts(n.Body), ExitLabelID2: e.labelID(n.exitLabel), ContinueLabelID: e.labelID(n.continueLabel),
		}
	case *ReturnStmt:
		return &wireNode{Kind: "ReturnStmt", Span: spanToWire(n.Span), X: e.encodeExpr(n.Value)}
	case *BreakStmt:
		return &wireNode{Kind: "BreakStmt", Span: spanToWire(n.Span)}
	case *ContinueStmt:
		return &wireNode{Kind: "ContinueStmt", Span: spanToWire(n.Span)}
	case *DisableStmt:
		return &wireNode{Kind: "DisableStmt", Span: spanToWire(n.Span), Target: n.Target}
	case *PragmaStmt:
		return &wireNode{Kind: "PragmaStmt", Span: spanToWire(n.Span), Pragma: n.Kind.String()}
	case *JumpBlock:
		return &wireNode{Kind: "JumpBlock", Span: spanToWire(n.Span), LabelID: e.labelID(n.Label), Stmts: e.encodeStmts(n.Stmts)}
	case *JumpGoStmt:
		return &wireNode{Kind: "JumpGoStmt", Span: spanToWire(n.Span), LabelID: e.labelID(n.Target)}
	case *JumpLabel:
		return &wireNode{Kind: "JumpLabel", Span: spanToWire(n.Span), LabelID: e.labelID(n)}
	default:
		panic(fmt.Sprintf("hdlast: encodeStmt: unknown stmt type %T", s))
	}
}

// MarshalJSON encodes a Netlist into the CLI wire format.
func MarshalJSON(n *Netlist) ([]byte, error) {
	e := newEncoder()

	wmods := make([]wireModule, len(n.Modules))
	for i, m := range n.Modules {
		witems := make([]*wireFuncOrTask, len(m.Items))
		for j, f := range m.Items {
			witems[j] = &wireFuncOrTask{
				Name: f.Name, IsFunction: f.IsFunction, IsConstructor: f.IsConstructor,
				FVarID: e.varID(f.FVar), Body: e.encodeStmts(f.Body),
				ExitLabelID: e.labelID(f.exitLabel), Span: spanToWire(f.Span),
			}
		}

		wmods[i] = wireModule{
			Name: m.Name, Dead: m.Dead, HasParameterList: m.HasParameterList,
			HasGParam: m.HasGParam, Items: witems, Span: spanToWire(m.Span),
		}
	}

	wn := wireNetlist{Vars: e.vars, Labels: e.labels, Modules: wmods, Span: spanToWire(n.Span)}

	return json.MarshalIndent(wn, "", "  ")
}

// decoder resolves ID references back into shared pointers.
type decoder struct {
	vars   map[int]*Var
	labels map[int]*JumpLabel
}

func (d *decoder) varByID(id int) *Var {
	if id == 0 {
		return nil
	}

	return d.vars[id]
}

func (d *decoder) labelByID(id int) *JumpLabel {
	if id == 0 {
		return nil
	}

	return d.labels[id]
}

func (d *decoder) decodeExpr(w *wireNode) Expr {
	if w == nil {
		return nil
	}

	switch w.Kind {
	case "VarRef":
		access := AccessRead
		if w.Access == "write" {
			access = AccessWrite
		}

		return &VarRef{Span: wireToSpan(w.Span), V: d.varByID(w.VarID), Access: access}
	case "BinaryExpr":
		return &BinaryExpr{Span: wireToSpan(w.Span), Op: parseBinOp(w.Op), LHS: d.decodeExpr(w.LHS), RHS: d.decodeExpr(w.RHS)}
	case "IntLiteral":
		return &IntLiteral{Span: wireToSpan(w.Span), Value: w.Value}
	default:
		panic(fmt.Sprintf("hdlast: decodeExpr: unknown kind %q", w.Kind))
	}
}

func (d *decoder) decodeExprs(ws []*wireNode) []Expr {
	if ws == nil {
		return nil
	}

	out := make([]Expr, len(ws))
	for i, w := range ws {
		out[i] = d.decodeExpr(w)
	}

	return out
}

func (d *decoder) decodeStmts(ws []*wireNode) []Stmt {
	if ws == nil {
		return nil
	}

	out := make([]Stmt, len(ws))
	for i, w := range ws {
		out[i] = d.decodeStmt(w)
	}

	return out
}

func parseBinOp(s string) BinOp {
	switch s {
	case "+":
		return OpAdd
	case "-":
		return OpSub
	case ">":
		return OpGt
	case "<":
		return OpLt
	case ">=":
		return OpGe
	case "<=":
		return OpLe
	case "==":
		return OpEq
	case "!=":
		return OpNe
	default:
		panic(fmt.Sprintf("hdlast: unknown binop %q", s))
	}
}

func parseUnroll(s string) UnrollPolicy {
	switch s {
	case "disable":
		return UnrollDisabled
	case "full":
		return UnrollForced
	default:
		return UnrollDefault
	}
}

func parsePragmaKind(s string) PragmaKind {
	switch s {
	case "unroll_full":
		return PragmaUnrollFull
	case "unroll_disable":
		return PragmaUnrollDisable
	default:
		return PragmaOther
	}
}

func (d *decoder) decodeStmt(w *wireNode) Stmt {
	switch w.Kind {
	case "VarDeclStmt":
		return &VarDeclStmt{Span: wireToSpan(w.Span), V: d.varByID(w.VarID)}
	case "AssignStmt":
		return &AssignStmt{Span: wireToSpan(w.Span), LHS: d.decodeExpr(w.LHS), RHS: d.decodeExpr(w.RHS)}
	case "ExprStmt":
		return &ExprStmt{Span: wireToSpan(w.Span), X: d.decodeExpr(w.X)}
	case "CallStmt":
		return &CallStmt{Span: wireToSpan(w.Span), Name: w.Name, Args: d.decodeExprs(w.Args)}
	case "IfStmt":
		return &IfStmt{Span: wireToSpan(w.Span), Cond: d.decodeExpr(w.Cond), Then: d.decodeStmts(w.Then), Else: d.decodeStmts(w.Else)}
	case "BeginBlock":
		return &BeginBlock{
			Span: wireToSpan(w.Span), Name: w.Name, Stmts: d.decodeStmts(w.Stmts),
			containsFork: w.ContainsFork, exitLabel: d.labelByID(w.ExitLabelID),
		}
	case "ForkBlock":
		return &ForkBlock{Span: wireToSpan(w.Span), Name: w.Name, Stmts: d.decodeStmts(w.Stmts)}
	case "WhileLoop":
		return &WhileLoop{
			Span: wireToSpan(w.Span), Preconds: d.decodeStmts(w.Preconds), Cond: d.decodeExpr(w.Cond),
			Incs: d.decodeStmts(w.Incs), Body: d.decodeStmts(w.Body), Unroll: parseUnroll(w.Unroll),
			SuppressUnusedLoop: w.SuppressUnusedLoop,
			exitLabel:          d.labelByID(w.ExitLabelID2), continueLabel: d.labelByID(w.ContinueLabelID),
		}
	case "DoWhileLoop":
		return &DoWhileLoop{
			Span: wireToSpan(w.Span), Cond: d.decodeExpr(w.Cond), Body: d.decodeStmts(w.Body),
			Unroll: parseUnroll(w.Unroll), exitLabel: d.labelByID(w.ExitLabelID2), continueLabel: d.labelByID(w.ContinueLabelID),
		}
	case "RepeatLoop":
		return &RepeatLoop{Span: wireToSpan(w.Span), Count: d.decodeExpr(w.Count), Body: d.decodeStmts(w.Body), Unroll: parseUnroll(w.Unroll)}
	case "ForeachLoop":
		return &ForeachLoop{
			Span: wireToSpan(w.Span), Container: d.decodeExpr(w.Container), Body: d.decodeStmts(w.Body),
			exitLabel: d.labelByID(w.ExitLabelID2), continueLabel: d.labelByID(w.ContinueLabelID),
		}
	case "ReturnStmt":
		return &ReturnStmt{Span: wireToSpan(w.Span), Value: d.decodeExpr(w.X)}
	case "BreakStmt":
		return &BreakStmt{Span: wireToSpan(w.Span)}
	case "ContinueStmt":
		return &ContinueStmt{Span: wireToSpan(w.Span)}
	case "DisableStmt":
		return &DisableStmt{Span: wireToSpan(w.Span), Target: w.Target}
	case "PragmaStmt":
		return &PragmaStmt{Span: wireToSpan(w.Span), Kind: parsePragmaKind(w.Pragma)}
	case "JumpBlock":
		label := d.labelByID(w.LabelID)
		return &JumpBlock{Span: wireToSpan(w.Span), Label: label, Stmts: d.decodeStmts(w.Stmts)}
	case "JumpGoStmt":
		return &JumpGoStmt{Span: wireToSpan(w.Span), Target: d.labelByID(w.LabelID)}
	case "JumpLabel":
		return d.labelByID(w.LabelID)
	default:
		panic(fmt.Sprintf("hdlast: decodeStmt: unknown kind %q", w.Kind))
	}
}

// UnmarshalJSON decodes a Netlist from the CLI wire format produced by
// MarshalJSON.
func UnmarshalJSON(data []byte) (*Netlist, error) {
	var wn wireNetlist
	if err := json.Unmarshal(data, &wn); err != nil {
		return nil, fmt.Errorf("hdlast: unmarshal netlist: %w", err)
	}

	d := &decoder{vars: map[int]*Var{}, labels: map[int]*JumpLabel{}}

	for _, wv := range wn.Vars {
		d.vars[wv.ID] = &Var{
			Span: wireToSpan(wv.Span), Name: wv.Name, Signed: wv.Signed,
			Width: wv.Width, Automatic: wv.Automatic, UsedLoopIdx: wv.UsedLoopIdx,
		}
	}

	// Labels are allocated before statements are decoded so JumpGoStmt nodes
	// that precede their JumpBlock in the JSON array still resolve.
	for _, wl := range wn.Labels {
		d.labels[wl.ID] = &JumpLabel{Span: wireToSpan(wl.Span), Name: wl.Name}
	}

	modules := make([]*Module, len(wn.Modules))

	for i, wm := range wn.Modules {
		items := make([]*FunctionOrTask, len(wm.Items))
		for j, wf := range wm.Items {
			items[j] = &FunctionOrTask{
				Span: wireToSpan(wf.Span), Name: wf.Name, IsFunction: wf.IsFunction,
				IsConstructor: wf.IsConstructor, FVar: d.varByID(wf.FVarID),
				Body: d.decodeStmts(wf.Body), exitLabel: d.labelByID(wf.ExitLabelID),
			}
		}

		modules[i] = &Module{
			Span: wireToSpan(wm.Span), Name: wm.Name, Dead: wm.Dead,
			HasParameterList: wm.HasParameterList, HasGParam: wm.HasGParam, Items: items,
		}
	}

	return &Netlist{Span: wireToSpan(wn.Span), Modules: modules}, nil
}
