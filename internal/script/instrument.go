package script

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/token"
)

// Functions the rewritten script calls into.
const (
	traceFunc = reservedPrefix + "trace"
	atFunc    = reservedPrefix + "at"
	capFunc   = reservedPrefix + "cap"
	ownFunc   = reservedPrefix + "own"
)

// edit ranks order insertions that share an offset. Wrapper closes come
// innermost first, wrapper opens outermost first.
const (
	rankWrapClose = iota
	rankClose
	rankOpen
	rankLoop
	rankHook
	rankWrapOpen
)

type edit struct {
	off  int
	rank int
	seq  int
	text string
}

// planCall is one builtin call a statement is expected to make.
type planCall struct {
	b   builtin
	pos Pos
	// known is set when the tick count can be read from the source.
	known bool
	fixed int
	// thunk indexes the argument closure passed to the hook, or -1.
	thunk int
}

// plan lists the effect builtin calls a hook predicts, in evaluation order.
type plan struct {
	pos   Pos
	calls []planCall
}

// segment maps a span of rewritten text back to the original.
type segment struct {
	out, orig, length int
	inserted          bool
}

// instrumented is a rewritten script and the plans its hooks refer to.
type instrumented struct {
	code     string
	plans    []plan
	calls    []Pos
	segments []segment
}

// originalOffset maps an offset in the rewritten code to the original.
func (ins *instrumented) originalOffset(off int) int {
	i := sort.Search(len(ins.segments), func(i int) bool { return ins.segments[i].out > off }) - 1
	if i < 0 {
		return 0
	}
	seg := ins.segments[i]
	if seg.inserted {
		return seg.orig
	}
	return seg.orig + min(off-seg.out, seg.length)
}

type instrumenter struct {
	p     *program
	edits []edit
	plans []plan
	calls []Pos
	sites int
}

// instrument rewrites the script so a hook runs before every statement and
// loop test, every effect builtin call names its own position, and every
// value the script stores or passes on is checked against the limits.
// Inserted text never holds a newline, so lines do not move.
func instrument(p *program) *instrumented {
	in := &instrumenter{p: p, plans: []plan{{}}}
	in.stmts(p.ast.Body)
	return in.apply()
}

func (in *instrumenter) insert(off, rank int, text string) {
	in.edits = append(in.edits, edit{off: off, rank: rank, seq: len(in.edits), text: text})
}

func (in *instrumenter) apply() *instrumented {
	sort.Slice(in.edits, func(i, j int) bool {
		a, b := in.edits[i], in.edits[j]
		if a.off != b.off {
			return a.off < b.off
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.rank == rankWrapClose {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})

	text := in.p.src.text
	out := &instrumented{plans: in.plans, calls: in.calls}
	var b strings.Builder
	last := 0
	copyTo := func(off int) {
		if off <= last {
			return
		}
		out.segments = append(out.segments, segment{out: b.Len(), orig: last, length: off - last})
		b.WriteString(text[last:off])
		last = off
	}
	for _, e := range in.edits {
		copyTo(e.off)
		out.segments = append(out.segments, segment{out: b.Len(), orig: e.off, length: len(e.text), inserted: true})
		b.WriteString(e.text)
	}
	copyTo(len(text))
	out.code = b.String()
	return out
}

func (in *instrumenter) stmts(list []ast.Statement) {
	for _, s := range list {
		in.stmt(s, true)
	}
}

func wantsHook(s ast.Statement) bool {
	switch s := s.(type) {
	case *ast.BlockStatement, *ast.FunctionDeclaration, *ast.ClassDeclaration, *ast.EmptyStatement:
		return false
	case *ast.ExpressionStatement:
		// directive prologues must stay first
		_, directive := s.Expression.(*ast.StringLiteral)
		return !directive
	}
	return true
}

func (in *instrumenter) stmt(s ast.Statement, hook bool) {
	if isNil(s) {
		return
	}
	if hook && wantsHook(s) {
		in.insert(in.p.stmtStart(s), rankHook, in.hookCall(s.Idx0(), planRoots(s))+";")
	}

	switch s := s.(type) {
	case *ast.BlockStatement:
		in.stmts(s.List)
	case *ast.ExpressionStatement:
		in.expr(s.Expression)
	case *ast.VariableStatement:
		for _, b := range s.List {
			in.expr(b)
		}
	case *ast.LexicalDeclaration:
		for _, b := range s.List {
			in.expr(b)
		}
	case *ast.ReturnStatement:
		in.capValue(s.Argument)
		in.expr(s.Argument)
	case *ast.ThrowStatement:
		in.expr(s.Argument)
	case *ast.IfStatement:
		in.expr(s.Test)
		in.body(s.Consequent, false)
		if s.Alternate != nil {
			in.body(s.Alternate, false)
		}
	case *ast.ForStatement:
		for _, n := range forInitNodes(s.Initializer) {
			in.expr(n)
		}
		in.loopExpr(s.Test)
		in.loopExpr(s.Update)
		in.body(s.Body, true)
	case *ast.ForInStatement:
		in.expr(s.Source)
		in.body(s.Body, true)
	case *ast.ForOfStatement:
		in.expr(s.Source)
		in.body(s.Body, true)
	case *ast.WhileStatement:
		in.loopExpr(s.Test)
		in.body(s.Body, true)
	case *ast.DoWhileStatement:
		in.body(s.Body, true)
		in.loopExpr(s.Test)
	case *ast.SwitchStatement:
		in.expr(s.Discriminant)
		for _, c := range s.Body {
			in.expr(c.Test)
			in.stmts(c.Consequent)
		}
	case *ast.TryStatement:
		in.stmt(s.Body, false)
		if s.Catch != nil {
			in.stmt(s.Catch.Body, false)
		}
		if s.Finally != nil {
			in.stmt(s.Finally, false)
		}
	case *ast.LabelledStatement:
		in.stmt(s.Statement, false)
	case *ast.FunctionDeclaration:
		in.function(s.Function)
	}
}

// body instruments the body of an if, else or loop. Non-block bodies are
// wrapped in braces so the hook belongs to them.
func (in *instrumenter) body(s ast.Statement, loop bool) {
	if blk, ok := s.(*ast.BlockStatement); ok {
		if loop {
			in.insert(offset(blk.Idx0())+1, rankLoop, traceFunc+"(0);")
		}
		in.stmts(blk.List)
		return
	}
	start := in.p.stmtStart(s)
	end, _ := in.p.stmtEnd(s)
	in.insert(start, rankOpen, "{")
	if loop {
		in.insert(start, rankLoop, traceFunc+"(0);")
	}
	in.stmt(s, true)
	in.insert(end, rankClose, "}")
}

// loopExpr runs a hook every time a loop test or update is evaluated.
func (in *instrumenter) loopExpr(e ast.Expression) {
	if isNil(e) {
		return
	}
	in.insert(offset(e.Idx0()), rankOpen, "("+in.hookCall(e.Idx0(), []ast.Node{e})+", ")
	in.insert(offset(e.Idx1()), rankClose, ")")
	in.expr(e)
}

// expr instruments everything n evaluates: the bodies of functions defined
// inside it, effect builtin calls and the values it stores.
func (in *instrumenter) expr(n ast.Node) {
	if isNil(n) {
		return
	}
	switch n := n.(type) {
	case *ast.FunctionLiteral:
		in.function(n)
		return
	case *ast.ArrowFunctionLiteral:
		switch body := n.Body.(type) {
		case *ast.BlockStatement:
			in.stmts(body.List)
		case *ast.ExpressionBody:
			in.capValue(body.Expression)
			in.expr(body.Expression)
		}
		return
	case *ast.Binding:
		in.targets(n.Target, -1)
		in.capValue(n.Initializer)
		in.expr(n.Initializer)
		return
	case *ast.AssignExpression:
		in.assign(n)
		return
	case *ast.ArrayPattern, *ast.ObjectPattern:
		in.targets(n, -1)
		return
	case *ast.CallExpression:
		in.call(n)
		return
	case *ast.UnaryExpression:
		if op := n.Operator.String(); op == "++" || op == "--" {
			switch n.Operand.(type) {
			case *ast.DotExpression, *ast.BracketExpression:
				in.store(n, n.Operand)
				return
			}
		}
	case *ast.NewExpression:
		in.capArgs(n.ArgumentList)
	}
	for _, c := range children(n) {
		in.expr(c)
	}
}

func (in *instrumenter) function(fn *ast.FunctionLiteral) {
	if fn == nil || fn.Body == nil {
		return
	}
	in.stmts(fn.Body.List)
}

func (in *instrumenter) assign(n *ast.AssignExpression) {
	switch n.Left.(type) {
	case *ast.DotExpression, *ast.BracketExpression, *ast.ArrayPattern, *ast.ObjectPattern:
		in.store(n, n.Left)
	default:
		if n.Operator != token.ASSIGN || needsCap(n.Right) {
			in.capValue(n)
		}
	}
	in.expr(n.Right)
}

// store wraps n, which writes through target, so every object it writes
// into is checked once the write is done.
func (in *instrumenter) store(n, target ast.Expression) {
	site := in.sites
	in.sites++
	if !in.wrap(n, capFunc+"((", fmt.Sprintf("), %d)", site)) {
		site = -1
	}
	in.targets(target, site)
}

// targets instruments an assignment target. With a site, the object of
// every member it writes is recorded for that site.
func (in *instrumenter) targets(n ast.Node, site int) {
	if isNil(n) {
		return
	}
	switch n := n.(type) {
	case *ast.DotExpression:
		in.own(n.Left, site)
		in.expr(n.Left)
	case *ast.BracketExpression:
		in.own(n.Left, site)
		in.expr(n.Left)
		in.expr(n.Member)
	case *ast.ArrayPattern:
		for _, e := range n.Elements {
			in.targets(e, site)
		}
		in.targets(n.Rest, site)
	case *ast.ObjectPattern:
		for _, prop := range n.Properties {
			switch prop := prop.(type) {
			case *ast.PropertyShort:
				in.expr(prop.Initializer)
			case *ast.PropertyKeyed:
				in.targets(prop.Value, site)
			}
		}
		in.targets(n.Rest, site)
	case *ast.AssignExpression:
		in.targets(n.Left, site)
		in.expr(n.Right)
	}
}

func (in *instrumenter) own(obj ast.Expression, site int) {
	if site < 0 {
		return
	}
	if _, ok := obj.(*ast.SuperExpression); ok {
		return
	}
	in.wrap(obj, ownFunc+"(", fmt.Sprintf(", %d)", site))
}

// call marks effect builtin calls with their position and checks the
// arguments passed to everything else.
func (in *instrumenter) call(n *ast.CallExpression) {
	b, ok := in.p.builtinCall(n)
	switch {
	case ok && b.effect:
		in.mark(n)
	case !ok:
		in.capArgs(n.ArgumentList)
	}
	in.expr(n.Callee)
	for _, a := range n.ArgumentList {
		in.expr(a)
	}
}

// mark makes the last argument of an effect builtin call report the call's
// position just before the builtin runs.
func (in *instrumenter) mark(n *ast.CallExpression) {
	id := len(in.calls)
	in.calls = append(in.calls, in.p.src.pos(offset(n.Idx0())))
	args := n.ArgumentList
	if len(args) == 0 {
		in.insert(offset(n.RightParenthesis), rankWrapOpen, fmt.Sprintf("%s(%d)", atFunc, id))
		return
	}
	last := args[len(args)-1]
	if _, ok := last.(*ast.SpreadElement); ok {
		return
	}
	in.wrap(last, fmt.Sprintf("%s(%d, ", atFunc, id), ")")
}

func (in *instrumenter) capArgs(args []ast.Expression) {
	for _, a := range args {
		in.capValue(a)
	}
}

func (in *instrumenter) capValue(e ast.Expression) {
	if needsCap(e) {
		in.wrap(e, capFunc+"((", "))")
	}
}

// needsCap reports expressions that may produce a string or container the
// limits have not seen yet.
func needsCap(e ast.Expression) bool {
	if isNil(e) {
		return false
	}
	switch e := e.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NullLiteral,
		*ast.RegExpLiteral, *ast.Identifier, *ast.ThisExpression, *ast.UnaryExpression,
		*ast.FunctionLiteral, *ast.ArrowFunctionLiteral, *ast.ClassLiteral, *ast.SpreadElement:
		return false
	case *ast.TemplateLiteral:
		return e.Tag != nil || len(e.Expressions) > 0
	}
	return true
}

// wrap inserts open and close around e. It reports false when e's extent
// in the source cannot be found.
func (in *instrumenter) wrap(e ast.Node, open, close string) bool {
	start, end, ok := in.p.span(e)
	if !ok {
		return false
	}
	in.insert(start, rankWrapOpen, open)
	in.insert(end, rankWrapClose, close)
	return true
}

// span returns the byte range of e, widened over parentheses that open
// before it and close inside it or the other way round.
func (p *program) span(e ast.Node) (int, int, bool) {
	text := p.src.text
	start, end := offset(e.Idx0()), offset(e.Idx1())
	if start < 0 || end > len(text) || start > end {
		return 0, 0, false
	}
	open, closed := parenBalance(text[start:end])
	for ; closed > 0; closed-- {
		i := start - 1
		for i >= 0 && isBlank(text[i]) {
			i--
		}
		if i < 0 || text[i] != '(' {
			return 0, 0, false
		}
		start = i
	}
	for ; open > 0; open-- {
		i := end
		for i < len(text) && isBlank(text[i]) {
			i++
		}
		if i >= len(text) || text[i] != ')' {
			return 0, 0, false
		}
		end = i + 1
	}
	return start, end, true
}

// planRoots returns the parts of s evaluated before control moves on to a
// nested statement.
func planRoots(s ast.Statement) []ast.Node {
	var l nodeList
	switch s := s.(type) {
	case *ast.ExpressionStatement:
		l.add(s.Expression)
	case *ast.VariableStatement:
		l.bindings(s.List)
	case *ast.LexicalDeclaration:
		l.bindings(s.List)
	case *ast.ReturnStatement:
		l.add(s.Argument)
	case *ast.ThrowStatement:
		l.add(s.Argument)
	case *ast.IfStatement:
		l.add(s.Test)
	case *ast.SwitchStatement:
		l.add(s.Discriminant)
	case *ast.ForStatement:
		l.add(forInitNodes(s.Initializer)...)
	case *ast.ForInStatement:
		l.add(s.Source)
	case *ast.ForOfStatement:
		l.add(s.Source)
	case *ast.LabelledStatement:
		return planRoots(s.Statement)
	}
	return l
}

// hookCall registers a plan for the effect calls in roots and returns the
// hook call text, with one argument closure per call that needs one.
func (in *instrumenter) hookCall(at file.Idx, roots []ast.Node) string {
	p := plan{pos: in.p.src.pos(offset(at))}
	var thunks []string
	for _, root := range roots {
		in.p.collectCalls(root, func(call *ast.CallExpression, b builtin) {
			pc := in.p.planCall(call, b)
			if !pc.known {
				if args, ok := in.p.thunkArgs(call); ok {
					pc.thunk = len(thunks)
					thunks = append(thunks, "() => ["+args+"]")
				}
			}
			p.calls = append(p.calls, pc)
		})
	}

	id := len(in.plans)
	in.plans = append(in.plans, p)
	if len(thunks) == 0 {
		return fmt.Sprintf("%s(%d)", traceFunc, id)
	}
	return fmt.Sprintf("%s(%d, %s)", traceFunc, id, strings.Join(thunks, ", "))
}

// collectCalls reports effect builtin calls n always evaluates, arguments
// before the call itself. Branches that may be skipped (logical operators,
// conditionals) and function bodies are not entered.
func (p *program) collectCalls(n ast.Node, fn func(*ast.CallExpression, builtin)) {
	if isNil(n) {
		return
	}
	switch n := n.(type) {
	case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral, *ast.ClassLiteral:
		return
	case *ast.ConditionalExpression:
		p.collectCalls(n.Test, fn)
		return
	case *ast.BinaryExpression:
		p.collectCalls(n.Left, fn)
		if !isLogical(n.Operator.String()) {
			p.collectCalls(n.Right, fn)
		}
		return
	case *ast.CallExpression:
		p.collectCalls(n.Callee, fn)
		for _, a := range n.ArgumentList {
			p.collectCalls(a, fn)
		}
		if b, ok := p.builtinCall(n); ok && b.effect {
			fn(n, b)
		}
		return
	}
	for _, c := range children(n) {
		p.collectCalls(c, fn)
	}
}

func isLogical(op string) bool {
	return op == "&&" || op == "||" || op == "??"
}

// planCall reads what the source says about a call's tick count.
func (p *program) planCall(call *ast.CallExpression, b builtin) planCall {
	pc := planCall{b: b, pos: p.src.pos(offset(call.Idx0())), thunk: -1}
	if !b.counted {
		pc.known, pc.fixed = true, 1
		return pc
	}
	switch args := call.ArgumentList; {
	case len(args) == 0:
		pc.known, pc.fixed = true, 1
	case len(args) == 1:
		if lit, ok := args[0].(*ast.NumberLiteral); ok {
			pc.known, pc.fixed = true, literalCount(lit.Value)
		}
	}
	return pc
}

// literalCount mirrors countArg for numeric literals. Values countArg
// rejects produce no ticks.
func literalCount(v any) int {
	switch v := v.(type) {
	case int64:
		if v >= 0 {
			return int(v)
		}
	case float64:
		if v >= 0 && v == float64(int64(v)) {
			return int(v)
		}
	}
	return 0
}

// thunkArgs returns the argument text of call when re-evaluating it ahead
// of time cannot change anything the script observes.
func (p *program) thunkArgs(call *ast.CallExpression) (string, bool) {
	for _, a := range call.ArgumentList {
		if !p.pure(a) {
			return "", false
		}
	}
	args := p.src.text[offset(call.LeftParenthesis)+1 : offset(call.RightParenthesis)]
	if strings.ContainsAny(args, "\r\n") || strings.Contains(args, "//") {
		return "", false
	}
	return args, true
}
