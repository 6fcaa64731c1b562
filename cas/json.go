package cas

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ParseJSON decodes a JSON document produced by ToJSON.
func ParseJSON(s string) (Expr, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, err
	}
	return FromJSON(data)
}

func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(m map[string]interface{}, field string) (map[string]interface{}, error) {
		v, ok := m[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		return obj, nil
	}

	subObjArray := func(field string) ([]map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]map[string]interface{}, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			out[i] = m
		}
		return out, nil
	}

	subExprs := func(field string) ([]Expr, error) {
		objs, err := subObjArray(field)
		if err != nil {
			return nil, err
		}
		out := make([]Expr, len(objs))
		for i, o := range objs {
			e, err := FromJSON(o)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subExpr := func(m map[string]interface{}, field string) (Expr, error) {
		obj, err := subObj(m, field)
		if err != nil {
			return nil, err
		}
		e, err := FromJSON(obj)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r := new(big.Rat)
		if _, ok := r.SetString(val); !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		return &Num{val: r}, nil

	case "float":
		v, ok := data["value"].(float64)
		if !ok {
			return nil, fmt.Errorf("float: 'value' must be a number")
		}
		return NFloat(v), nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "const":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		c, ok := constByTag[name]
		if !ok {
			return nil, fmt.Errorf("unknown constant: %s", name)
		}
		return c, nil

	case "atom":
		tag, err := subString("tag")
		if err != nil {
			return nil, err
		}
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return AtomOf(tag, name), nil

	case "add":
		terms, err := subExprs("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subExprs("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		base, err := subExpr(data, "base")
		if err != nil {
			return nil, err
		}
		exp, err := subExpr(data, "exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		args, err := subExprs("args")
		if err != nil {
			return nil, err
		}
		return FuncOf(name, args...), nil

	case "rel":
		op, err := subString("op")
		if err != nil {
			return nil, err
		}
		lhs, err := subExpr(data, "lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := subExpr(data, "rhs")
		if err != nil {
			return nil, err
		}
		r, err := RelOf(op, lhs, rhs)
		if err != nil {
			return nil, err
		}
		return r, nil

	case "piecewise":
		objs, err := subObjArray("pieces")
		if err != nil {
			return nil, err
		}
		pairs := make([]Pair, len(objs))
		for i, o := range objs {
			e, err := subExpr(o, "expr")
			if err != nil {
				return nil, fmt.Errorf("pieces[%d]: %w", i, err)
			}
			c, err := subExpr(o, "cond")
			if err != nil {
				return nil, fmt.Errorf("pieces[%d]: %w", i, err)
			}
			pairs[i] = Pair{Expr: e, Cond: c}
		}
		return PiecewiseOf(pairs...), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}
