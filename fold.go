package jinjago

import "fmt"

// fold walks prog and replaces any expression subtree built entirely out of
// literals with its pre-computed LiteralExpr, so a template like
// `{{ 60 * 60 * 24 }}` or `{{ "a" ~ "b" }}` pays the evaluation cost once,
// at parse time, rather than on every Render.
func fold(prog *Program) {
	prog.Nodes = foldStmts(prog.Nodes)
}

func foldStmts(stmts []Stmt) []Stmt {
	for i, s := range stmts {
		stmts[i] = foldStmt(s)
	}
	return stmts
}

func foldStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case *ExprStmt:
		n.X = foldExpr(n.X)
	case *SetStmt:
		if n.Value != nil {
			n.Value = foldExpr(n.Value)
		}
		n.Body = foldStmts(n.Body)
	case *IfStmt:
		for i := range n.Branches {
			n.Branches[i].Cond = foldExpr(n.Branches[i].Cond)
			n.Branches[i].Body = foldStmts(n.Branches[i].Body)
		}
		n.Else = foldStmts(n.Else)
	case *ForStmt:
		n.Iterable = foldExpr(n.Iterable)
		if n.Filter != nil {
			n.Filter = foldExpr(n.Filter)
		}
		n.Body = foldStmts(n.Body)
		n.Else = foldStmts(n.Else)
	case *MacroStmt:
		for i := range n.Params {
			if n.Params[i].Default != nil {
				n.Params[i].Default = foldExpr(n.Params[i].Default)
			}
		}
		n.Body = foldStmts(n.Body)
	case *FilterBlockStmt:
		for i := range n.Args {
			n.Args[i] = foldExpr(n.Args[i])
		}
		for i := range n.Kwargs {
			n.Kwargs[i].Value = foldExpr(n.Kwargs[i].Value)
		}
		n.Body = foldStmts(n.Body)
	case *CallBlockStmt:
		n.Call.Fn = foldExpr(n.Call.Fn)
		for i := range n.Call.Args {
			n.Call.Args[i] = foldExpr(n.Call.Args[i])
		}
		for i := range n.Call.Kwargs {
			n.Call.Kwargs[i].Value = foldExpr(n.Call.Kwargs[i].Value)
		}
		n.Body = foldStmts(n.Body)
	}
	return s
}

func isLiteral(e Expr) (*LiteralExpr, bool) {
	l, ok := e.(*LiteralExpr)
	return l, ok
}

// foldExpr recursively folds an expression tree, returning a LiteralExpr in
// place of any node whose operands are themselves literals and whose
// evaluation cannot fail in a way that depends on render-time context. Any
// operation that could raise (division by zero, bad type combination) is
// left unfolded, so render-time still reports it at the right position.
func foldExpr(e Expr) Expr {
	switch n := e.(type) {
	case *LiteralExpr, *IdentifierExpr:
		return e

	case *ArrayExpr:
		for i := range n.Elements {
			n.Elements[i] = foldExpr(n.Elements[i])
		}
		return n

	case *MapExpr:
		for i := range n.Entries {
			n.Entries[i].Key = foldExpr(n.Entries[i].Key)
			n.Entries[i].Value = foldExpr(n.Entries[i].Value)
		}
		return n

	case *UnaryExpr:
		n.X = foldExpr(n.X)
		if lit, ok := isLiteral(n.X); ok {
			if v, err := evalUnaryConst(n.Op, lit.Value); err == nil {
				return &LiteralExpr{n.baseNode, v}
			}
		}
		return n

	case *BinaryExpr:
		n.L = foldExpr(n.L)
		n.R = foldExpr(n.R)
		litL, okL := isLiteral(n.L)
		litR, okR := isLiteral(n.R)
		if okL && okR {
			if v, err := evalBinaryConst(n.Op, litL.Value, litR.Value); err == nil {
				return &LiteralExpr{n.baseNode, v}
			}
		}
		return n

	case *TernaryExpr:
		n.Cond = foldExpr(n.Cond)
		n.Then = foldExpr(n.Then)
		if n.Else != nil {
			n.Else = foldExpr(n.Else)
		}
		if lit, ok := isLiteral(n.Cond); ok {
			if lit.Value.IsTrue() {
				return n.Then
			}
			if n.Else != nil {
				return n.Else
			}
			return &LiteralExpr{n.baseNode, Undefined()}
		}
		return n

	case *FilterExpr:
		n.X = foldExpr(n.X)
		for i := range n.Args {
			n.Args[i] = foldExpr(n.Args[i])
		}
		for i := range n.Kwargs {
			n.Kwargs[i].Value = foldExpr(n.Kwargs[i].Value)
		}
		return n

	case *TestExpr:
		n.X = foldExpr(n.X)
		for i := range n.Args {
			n.Args[i] = foldExpr(n.Args[i])
		}
		return n

	case *MemberExpr:
		n.X = foldExpr(n.X)
		return n

	case *IndexExpr:
		n.X = foldExpr(n.X)
		n.Index = foldExpr(n.Index)
		return n

	case *SliceExpr:
		n.X = foldExpr(n.X)
		if n.Start != nil {
			n.Start = foldExpr(n.Start)
		}
		if n.Stop != nil {
			n.Stop = foldExpr(n.Stop)
		}
		if n.Step != nil {
			n.Step = foldExpr(n.Step)
		}
		return n

	case *CallExpr:
		n.Fn = foldExpr(n.Fn)
		for i := range n.Args {
			n.Args[i] = foldExpr(n.Args[i])
		}
		for i := range n.Kwargs {
			n.Kwargs[i].Value = foldExpr(n.Kwargs[i].Value)
		}
		return n
	}
	return e
}

var errUnfoldable = fmt.Errorf("expression cannot be folded at parse time")

func evalUnaryConst(op UnaryOp, x *Value) (*Value, error) {
	switch op {
	case UnaryNot:
		return Bool(!x.IsTrue()), nil
	case UnaryPos:
		return x, nil
	case UnaryNeg:
		if !x.IsNumber() {
			return nil, errUnfoldable
		}
		if x.IsInt() {
			return Int(-x.Int()), nil
		}
		return Float(-x.Float()), nil
	}
	return nil, errUnfoldable
}

func evalBinaryConst(op BinaryOp, l, r *Value) (*Value, error) {
	switch op {
	case BinAdd:
		return l.Add(r)
	case BinSub:
		return l.Sub(r)
	case BinMul:
		return l.Mul(r)
	case BinDiv:
		return l.Div(r)
	case BinFloorDiv:
		return l.FloorDiv(r)
	case BinMod:
		return l.Mod(r)
	case BinPow:
		return l.Pow(r)
	case BinConcat:
		return l.Concat(r), nil
	case BinEq:
		return Bool(l.Equals(r)), nil
	case BinNe:
		return Bool(!l.Equals(r)), nil
	case BinLt, BinLe, BinGt, BinGe:
		c, ok := l.Compare(r)
		if !ok {
			return nil, errUnfoldable
		}
		switch op {
		case BinLt:
			return Bool(c < 0), nil
		case BinLe:
			return Bool(c <= 0), nil
		case BinGt:
			return Bool(c > 0), nil
		default:
			return Bool(c >= 0), nil
		}
	case BinAnd:
		if !l.IsTrue() {
			return l, nil
		}
		return r, nil
	case BinOr:
		if l.IsTrue() {
			return l, nil
		}
		return r, nil
	case BinIn:
		return Bool(r.Contains(l)), nil
	case BinNotIn:
		return Bool(!r.Contains(l)), nil
	}
	return nil, errUnfoldable
}
