package script

import (
	"strings"

	"github.com/dop251/goja/ast"
)

const reservedPrefix = "__gb_"

// program is a parsed script plus what the checks learned about it.
type program struct {
	src      *source
	ast      *ast.Program
	declared map[string]bool
	disabled map[string]bool

	// pureFuncs names user functions that are safe to call ahead of time.
	pureFuncs map[string]bool
}

// builtinCall returns the builtin a call targets, unless the script shadows
// the name with its own declaration.
func (p *program) builtinCall(call *ast.CallExpression) (builtin, bool) {
	id, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return builtin{}, false
	}
	name := id.Name.String()
	if p.declared[name] {
		return builtin{}, false
	}
	return lookupBuiltin(name)
}

// check runs the static checks in source order and returns the first
// failure.
func (p *program) check(limits Limits) *Error {
	var first *Error
	report := func(err *Error) {
		if first == nil {
			first = err
		}
	}

	var walk func(n ast.Node, depth int)
	walk = func(n ast.Node, depth int) {
		if first != nil || isNil(n) {
			return
		}
		switch n.(type) {
		case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
			depth = 0
		}
		if _, ok := n.(ast.Expression); ok {
			depth++
			if depth > limits.MaxExprDepth {
				report(newError(KindLimit, p.src.posPtr(n.Idx0()),
					"expression nested deeper than %d levels", limits.MaxExprDepth))
				return
			}
		} else {
			depth = 0
		}

		if err := p.checkNode(n, limits); err != nil {
			report(err)
			return
		}
		for _, c := range children(n) {
			walk(c, depth)
		}
	}
	walk(p.ast, 0)
	return first
}

func (p *program) checkNode(n ast.Node, limits Limits) *Error {
	switch n := n.(type) {
	case *ast.Identifier:
		if name := n.Name.String(); strings.HasPrefix(name, reservedPrefix) {
			return newError(KindCompile, p.src.posPtr(n.Idx0()), "identifier %q uses a reserved prefix", name)
		}

	case *ast.CallExpression:
		id, ok := n.Callee.(*ast.Identifier)
		if !ok {
			return nil
		}
		name := id.Name.String()
		if p.declared[name] {
			return nil
		}
		if IsBuiltin(name) {
			if p.disabled[name] {
				err := newError(KindDisabled, p.src.posPtr(n.Idx0()), "%s() is not available in this level", name)
				err.Func = name
				return err
			}
			return nil
		}
		if !isAllowedGlobal(name) {
			err := newError(KindCompile, p.src.posPtr(n.Idx0()), "unknown function %s()", name)
			err.Func = name
			return err
		}

	case *ast.StringLiteral:
		if len(n.Value) > limits.MaxStringSize {
			return newError(KindLimit, p.src.posPtr(n.Idx0()), "string literal longer than %d characters", limits.MaxStringSize)
		}
	case *ast.ArrayLiteral:
		if len(n.Value) > limits.MaxArraySize {
			return newError(KindLimit, p.src.posPtr(n.Idx0()), "array literal with more than %d elements", limits.MaxArraySize)
		}
	case *ast.ObjectLiteral:
		if len(n.Value) > limits.MaxMapSize {
			return newError(KindLimit, p.src.posPtr(n.Idx0()), "object literal with more than %d properties", limits.MaxMapSize)
		}
	}
	return nil
}

// needsTerminator reports statements that must end with ';'.
func needsTerminator(s ast.Statement) bool {
	switch s.(type) {
	case *ast.ExpressionStatement, *ast.VariableStatement, *ast.LexicalDeclaration,
		*ast.ReturnStatement, *ast.BranchStatement, *ast.ThrowStatement:
		return true
	}
	return false
}

// precheck requires an explicit ';' after every statement that takes one.
// The interpreter inserts missing semicolons silently, which hides mistakes
// that later surface as confusing errors.
func (p *program) precheck() *Error {
	var found *Error
	inspect(p.ast, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		s, ok := n.(ast.Statement)
		if !ok || !needsTerminator(s) {
			return true
		}
		end, terminated := p.stmtEnd(s)
		if !terminated {
			pos := p.src.pos(end)
			found = newError(KindPrecheck, &pos, "missing ';' at end of line %d", pos.Line)
			return false
		}
		return true
	})
	return found
}

// stmtStart returns the byte offset where s begins, including any
// parentheses that open before its first expression token.
func (p *program) stmtStart(s ast.Statement) int {
	start := offset(s.Idx0())
	if _, ok := s.(*ast.ExpressionStatement); !ok {
		return start
	}
	text := p.src.text
	for i := start - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t', '\r', '\n':
		case '(':
			start = i
		default:
			return start
		}
	}
	return start
}

// stmtEnd returns the offset just past s, including its terminator, and
// whether a terminator-requiring statement has one.
func (p *program) stmtEnd(s ast.Statement) (int, bool) {
	switch s := s.(type) {
	case *ast.IfStatement:
		if s.Alternate != nil {
			return p.stmtEnd(s.Alternate)
		}
		return p.stmtEnd(s.Consequent)
	case *ast.ForStatement:
		return p.stmtEnd(s.Body)
	case *ast.ForInStatement:
		return p.stmtEnd(s.Body)
	case *ast.ForOfStatement:
		return p.stmtEnd(s.Body)
	case *ast.WhileStatement:
		return p.stmtEnd(s.Body)
	case *ast.LabelledStatement:
		return p.stmtEnd(s.Statement)
	case *ast.DoWhileStatement:
		end := offset(s.Idx1())
		end, _ = p.extendTerminator(end, unclosedParens(p.src.text[offset(s.Idx0()):end]))
		return end, true
	}

	end := offset(s.Idx1())
	if !needsTerminator(s) {
		return end, true
	}
	start := p.stmtStart(s)
	if end > start && p.src.text[end-1] == ';' {
		return end, true
	}
	open := 0
	if end > start {
		open = unclosedParens(p.src.text[start:end])
	}
	return p.extendTerminator(end, open)
}

// extendTerminator skips blanks and up to parens closing parentheses after
// off, then a ';' if present.
func (p *program) extendTerminator(off, parens int) (int, bool) {
	text := p.src.text
	i := off
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == ')' && parens > 0:
			parens--
			i++
			off = i
		case c == ';':
			return i + 1, true
		default:
			return off, false
		}
	}
	return off, false
}
