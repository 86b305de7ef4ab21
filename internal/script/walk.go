package script

import (
	"reflect"

	"github.com/dop251/goja/ast"
)

// inspect traverses the tree in depth-first order, calling f for every node.
// Returning false from f skips the node's children.
func inspect(n ast.Node, f func(ast.Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range children(n) {
		inspect(c, f)
	}
}

func isNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

type nodeList []ast.Node

func (l *nodeList) add(nodes ...ast.Node) {
	for _, n := range nodes {
		if !isNil(n) {
			*l = append(*l, n)
		}
	}
}

func (l *nodeList) stmts(list []ast.Statement) {
	for _, s := range list {
		l.add(s)
	}
}

func (l *nodeList) exprs(list []ast.Expression) {
	for _, e := range list {
		l.add(e)
	}
}

func (l *nodeList) bindings(list []*ast.Binding) {
	for _, b := range list {
		l.add(b)
	}
}

// children returns the direct child nodes the checks and instrumentation
// care about. Node kinds not listed here are treated as leaves.
func children(n ast.Node) []ast.Node {
	var l nodeList
	switch n := n.(type) {
	case *ast.Program:
		l.stmts(n.Body)
	case *ast.BlockStatement:
		l.stmts(n.List)
	case *ast.ExpressionStatement:
		l.add(n.Expression)
	case *ast.VariableStatement:
		l.bindings(n.List)
	case *ast.LexicalDeclaration:
		l.bindings(n.List)
	case *ast.Binding:
		l.add(n.Target, n.Initializer)
	case *ast.IfStatement:
		l.add(n.Test, n.Consequent, n.Alternate)
	case *ast.ForStatement:
		l.add(forInitNodes(n.Initializer)...)
		l.add(n.Test, n.Update, n.Body)
	case *ast.ForInStatement:
		l.add(forIntoNodes(n.Into)...)
		l.add(n.Source, n.Body)
	case *ast.ForOfStatement:
		l.add(forIntoNodes(n.Into)...)
		l.add(n.Source, n.Body)
	case *ast.WhileStatement:
		l.add(n.Test, n.Body)
	case *ast.DoWhileStatement:
		l.add(n.Body, n.Test)
	case *ast.ReturnStatement:
		l.add(n.Argument)
	case *ast.ThrowStatement:
		l.add(n.Argument)
	case *ast.SwitchStatement:
		l.add(n.Discriminant)
		for _, c := range n.Body {
			l.add(c)
		}
	case *ast.CaseStatement:
		l.add(n.Test)
		l.stmts(n.Consequent)
	case *ast.TryStatement:
		l.add(n.Body, n.Catch, n.Finally)
	case *ast.CatchStatement:
		l.add(n.Parameter, n.Body)
	case *ast.LabelledStatement:
		l.add(n.Statement)
	case *ast.FunctionDeclaration:
		l.add(n.Function)

	case *ast.FunctionLiteral:
		l.add(n.Name)
		l.add(paramNodes(n.ParameterList)...)
		l.add(n.Body)
	case *ast.ArrowFunctionLiteral:
		l.add(paramNodes(n.ParameterList)...)
		switch body := n.Body.(type) {
		case *ast.BlockStatement:
			l.add(body)
		case *ast.ExpressionBody:
			l.add(body.Expression)
		}
	case *ast.CallExpression:
		l.add(n.Callee)
		l.exprs(n.ArgumentList)
	case *ast.NewExpression:
		l.add(n.Callee)
		l.exprs(n.ArgumentList)
	case *ast.DotExpression:
		l.add(n.Left)
	case *ast.BracketExpression:
		l.add(n.Left, n.Member)
	case *ast.BinaryExpression:
		l.add(n.Left, n.Right)
	case *ast.AssignExpression:
		l.add(n.Left, n.Right)
	case *ast.UnaryExpression:
		l.add(n.Operand)
	case *ast.ConditionalExpression:
		l.add(n.Test, n.Consequent, n.Alternate)
	case *ast.SequenceExpression:
		l.exprs(n.Sequence)
	case *ast.ArrayLiteral:
		l.exprs(n.Value)
	case *ast.ObjectLiteral:
		for _, p := range n.Value {
			l.add(p)
		}
	case *ast.PropertyKeyed:
		l.add(n.Key, n.Value)
	case *ast.PropertyShort:
		l.add(&n.Name, n.Initializer)
	case *ast.SpreadElement:
		l.add(n.Expression)
	case *ast.TemplateLiteral:
		l.add(n.Tag)
		l.exprs(n.Expressions)
	case *ast.ArrayPattern:
		l.exprs(n.Elements)
		l.add(n.Rest)
	case *ast.ObjectPattern:
		for _, p := range n.Properties {
			l.add(p)
		}
		l.add(n.Rest)
	}
	return l
}

func forInitNodes(init ast.ForLoopInitializer) []ast.Node {
	var l nodeList
	switch init := init.(type) {
	case *ast.ForLoopInitializerExpression:
		l.add(init.Expression)
	case *ast.ForLoopInitializerVarDeclList:
		l.bindings(init.List)
	case *ast.ForLoopInitializerLexicalDecl:
		l.bindings(init.LexicalDeclaration.List)
	}
	return l
}

func forIntoNodes(into ast.ForInto) []ast.Node {
	var l nodeList
	switch into := into.(type) {
	case *ast.ForIntoVar:
		l.add(into.Binding)
	case *ast.ForDeclaration:
		l.add(into.Target)
	case *ast.ForIntoExpression:
		l.add(into.Expression)
	}
	return l
}

func paramNodes(params *ast.ParameterList) []ast.Node {
	var l nodeList
	if params == nil {
		return l
	}
	l.bindings(params.List)
	l.add(params.Rest)
	return l
}

// declaredNames collects every name the script binds anywhere: functions,
// parameters, variables and catch parameters. Scoping is ignored.
func declaredNames(prg *ast.Program) map[string]bool {
	names := make(map[string]bool)
	collect := func(target ast.Node) {
		inspect(target, func(n ast.Node) bool {
			if id, ok := n.(*ast.Identifier); ok {
				names[id.Name.String()] = true
			}
			return true
		})
	}

	declInto := func(into ast.ForInto) {
		if d, ok := into.(*ast.ForDeclaration); ok {
			collect(d.Target)
		}
	}

	inspect(prg, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FunctionLiteral:
			if n.Name != nil {
				names[n.Name.Name.String()] = true
			}
			if n.ParameterList != nil {
				collect(n.ParameterList.Rest)
			}
		case *ast.ArrowFunctionLiteral:
			if n.ParameterList != nil {
				collect(n.ParameterList.Rest)
			}
		case *ast.Binding:
			collect(n.Target)
		case *ast.CatchStatement:
			collect(n.Parameter)
		case *ast.ForInStatement:
			declInto(n.Into)
		case *ast.ForOfStatement:
			declInto(n.Into)
		}
		return true
	})
	return names
}
