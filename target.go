package lambdify

import "strings"

// ============================================================
// Target expression
// ============================================================

// Expr is a translated expression. It is one of VarRef, Literal or *Call and
// holds no reference to the foreign tree it was built from.
type Expr interface {
	String() string
	isExpr()
}

// VarRef refers to a parameter by name.
type VarRef struct{ Name string }

// Literal is a constant value.
type Literal struct{ Value Value }

// Call applies a callable identifier to its arguments.
type Call struct {
	Callable string
	Args     []Expr
}

func (VarRef) isExpr()  {}
func (Literal) isExpr() {}
func (*Call) isExpr()   {}

func (v VarRef) String() string  { return v.Name }
func (l Literal) String() string { return l.Value.String() }

var infix = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "^": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"&": true, "|": true,
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	if infix[c.Callable] && len(parts) > 1 {
		return "(" + strings.Join(parts, " "+c.Callable+" ") + ")"
	}
	return c.Callable + "(" + strings.Join(parts, ", ") + ")"
}

// FreeVars lists the variable names referenced by e in first-occurrence order.
func FreeVars(e Expr) []string {
	var (
		names []string
		seen  = map[string]struct{}{}
	)
	var walk func(Expr)
	walk = func(e Expr) {
		switch v := e.(type) {
		case VarRef:
			if _, ok := seen[v.Name]; !ok {
				seen[v.Name] = struct{}{}
				names = append(names, v.Name)
			}
		case *Call:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return names
}
