package script

import (
	"github.com/dop251/goja/ast"
)

var pureMath = map[string]bool{
	"abs": true, "ceil": true, "floor": true, "max": true, "min": true,
	"round": true, "sign": true, "sqrt": true, "trunc": true,
}

// pure reports whether evaluating n ahead of time cannot change anything
// the script observes.
func (p *program) pure(n ast.Node) bool {
	if isNil(n) {
		return true
	}
	switch n := n.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NullLiteral, *ast.Identifier:
		return true
	case *ast.UnaryExpression:
		switch n.Operator.String() {
		case "++", "--", "delete":
			return false
		}
		return p.pure(n.Operand)
	case *ast.BinaryExpression:
		return p.pure(n.Left) && p.pure(n.Right)
	case *ast.ConditionalExpression:
		return p.pure(n.Test) && p.pure(n.Consequent) && p.pure(n.Alternate)
	case *ast.DotExpression:
		return p.pure(n.Left)
	case *ast.BracketExpression:
		return p.pure(n.Left) && p.pure(n.Member)
	case *ast.TemplateLiteral:
		if n.Tag != nil {
			return false
		}
		return p.pureAll(n.Expressions)
	case *ast.ArrayLiteral:
		return p.pureAll(n.Value)
	case *ast.SpreadElement:
		return p.pure(n.Expression)
	case *ast.ObjectLiteral:
		for _, prop := range n.Value {
			kv, ok := prop.(*ast.PropertyKeyed)
			if !ok || !p.pure(kv.Key) || !p.pure(kv.Value) {
				return false
			}
		}
		return true
	case *ast.CallExpression:
		if !p.pureAll(n.ArgumentList) {
			return false
		}
		if b, ok := p.builtinCall(n); ok {
			return !b.effect
		}
		switch callee := n.Callee.(type) {
		case *ast.Identifier:
			return p.pureFuncs[callee.Name.String()]
		case *ast.DotExpression:
			obj, ok := callee.Left.(*ast.Identifier)
			return ok && obj.Name.String() == "Math" && !p.declared["Math"] && pureMath[callee.Identifier.Name.String()]
		}
	}
	return false
}

func (p *program) pureAll(list []ast.Expression) bool {
	for _, e := range list {
		if !p.pure(e) {
			return false
		}
	}
	return true
}

// pureFunctions returns the names that can only ever refer to a function
// whose body computes a value and does nothing else: no loops, no
// assignments, no effect builtins and no calls except to other such
// functions, query builtins and Math. A name that is a parameter, is bound
// to anything but a function, or is assigned anywhere is left out.
func (p *program) pureFunctions() map[string]bool {
	defs := make(map[string][]ast.Node)
	bound := make(map[string]bool)
	bind := func(target ast.Node) {
		inspect(target, func(n ast.Node) bool {
			if id, ok := n.(*ast.Identifier); ok {
				bound[id.Name.String()] = true
			}
			return true
		})
	}
	bindParams := func(params *ast.ParameterList) {
		if params == nil {
			return
		}
		for _, b := range params.List {
			bind(b.Target)
		}
		bind(params.Rest)
	}
	bindInto := func(into ast.ForInto) {
		switch into := into.(type) {
		case *ast.ForDeclaration:
			bind(into.Target)
		case *ast.ForIntoExpression:
			bind(into.Expression)
		}
	}

	inspect(p.ast, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FunctionLiteral:
			if n.Name != nil {
				name := n.Name.Name.String()
				defs[name] = append(defs[name], n)
			}
			bindParams(n.ParameterList)
		case *ast.ArrowFunctionLiteral:
			bindParams(n.ParameterList)
		case *ast.Binding:
			id, ok := n.Target.(*ast.Identifier)
			switch n.Initializer.(type) {
			case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
				if ok {
					defs[id.Name.String()] = append(defs[id.Name.String()], n.Initializer)
					return true
				}
			}
			bind(n.Target)
		case *ast.AssignExpression:
			switch n.Left.(type) {
			case *ast.Identifier, *ast.ArrayPattern, *ast.ObjectPattern:
				bind(n.Left)
			}
		case *ast.UnaryExpression:
			if op := n.Operator.String(); op == "++" || op == "--" {
				if id, ok := n.Operand.(*ast.Identifier); ok {
					bind(id)
				}
			}
		case *ast.CatchStatement:
			bind(n.Parameter)
		case *ast.ForInStatement:
			bindInto(n.Into)
		case *ast.ForOfStatement:
			bindInto(n.Into)
		case *ast.ClassDeclaration:
			if n.Class != nil && n.Class.Name != nil {
				bound[n.Class.Name.Name.String()] = true
			}
		}
		return true
	})

	funcs := make(map[string]bool)
	for name := range defs {
		if !bound[name] {
			funcs[name] = true
		}
	}
	// Start from every candidate and drop the ones whose bodies call
	// something that is not pure, until nothing changes.
	p.pureFuncs = funcs
	for changed := true; changed; {
		changed = false
		for name := range funcs {
			for _, fn := range defs[name] {
				if !p.pureFunction(fn) {
					delete(funcs, name)
					changed = true
					break
				}
			}
		}
	}
	return funcs
}

func (p *program) pureFunction(n ast.Node) bool {
	var (
		params *ast.ParameterList
		body   ast.Node
	)
	switch fn := n.(type) {
	case *ast.FunctionLiteral:
		if fn.Async || fn.Generator {
			return false
		}
		params, body = fn.ParameterList, fn.Body
	case *ast.ArrowFunctionLiteral:
		if fn.Async {
			return false
		}
		params = fn.ParameterList
		switch b := fn.Body.(type) {
		case *ast.BlockStatement:
			body = b
		case *ast.ExpressionBody:
			body = b.Expression
		}
	}

	if params != nil {
		for _, b := range params.List {
			if _, ok := b.Target.(*ast.Identifier); !ok || !p.pure(b.Initializer) {
				return false
			}
		}
		if params.Rest != nil {
			if _, ok := params.Rest.(*ast.Identifier); !ok {
				return false
			}
		}
	}

	switch body := body.(type) {
	case *ast.BlockStatement:
		return p.pureStmts(body.List)
	case ast.Expression:
		return p.pure(body)
	}
	return false
}

func (p *program) pureStmts(list []ast.Statement) bool {
	for _, s := range list {
		if !p.pureStmt(s) {
			return false
		}
	}
	return true
}

func (p *program) pureStmt(s ast.Statement) bool {
	switch s := s.(type) {
	case *ast.ReturnStatement:
		return p.pure(s.Argument)
	case *ast.ThrowStatement:
		return p.pure(s.Argument)
	case *ast.ExpressionStatement:
		return p.pure(s.Expression)
	case *ast.VariableStatement:
		return p.pureBindings(s.List)
	case *ast.LexicalDeclaration:
		return p.pureBindings(s.List)
	case *ast.IfStatement:
		return p.pure(s.Test) && p.pureStmt(s.Consequent) && (s.Alternate == nil || p.pureStmt(s.Alternate))
	case *ast.BlockStatement:
		return p.pureStmts(s.List)
	case *ast.EmptyStatement:
		return true
	}
	return false
}

func (p *program) pureBindings(list []*ast.Binding) bool {
	for _, b := range list {
		if _, ok := b.Target.(*ast.Identifier); !ok || !p.pure(b.Initializer) {
			return false
		}
	}
	return true
}
