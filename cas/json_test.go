package cas_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/lambdify/cas"
)

// ============================================================
// JSON tests
// ============================================================

func TestToJSON_Num(t *testing.T) {
	s, err := cas.ToJSON(cas.F(3, 4))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "num" || m["value"] != "3/4" {
		t.Errorf("unexpected JSON: %s", s)
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	x, y := cas.S("x"), cas.S("y")
	exprs := []cas.Expr{
		cas.AddOf(cas.PowOf(x, cas.N(2)), cas.MulOf(cas.F(-1, 3), y)),
		cas.MulOf(cas.NFloat(2.5), cas.SinOf(x)),
		cas.AddOf(cas.Pi, cas.E, cas.MulOf(cas.I, x)),
		cas.Atan2Of(y, x),
		cas.AddOf(x, cas.AtomOf("EmptySet", "EmptySet")),
		cas.PiecewiseOf(
			cas.Pair{Expr: cas.N(0), Cond: cas.Lt(x, cas.N(0))},
			cas.Pair{Expr: x, Cond: cas.True},
		),
		cas.Ne(x, y),
	}
	for _, e := range exprs {
		t.Run(e.String(), func(t *testing.T) {
			s, err := cas.ToJSON(e)
			if err != nil {
				t.Fatal(err)
			}
			back, err := cas.ParseJSON(s)
			if err != nil {
				t.Fatalf("ParseJSON(%s): %v", s, err)
			}
			if !back.Equal(e) {
				t.Errorf("round trip: want %s, got %s", e, back)
			}
		})
	}
}

func TestFromJSON_Simplifies(t *testing.T) {
	e, err := cas.ParseJSON(`{"type":"add","terms":[{"type":"sym","name":"x"},{"type":"sym","name":"x"},{"type":"num","value":"0"}]}`)
	if err != nil {
		t.Fatal(err)
	}
	if e.String() != "2*x" {
		t.Errorf("want 2*x, got %s", e)
	}
}

func TestFromJSON_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":         `{`,
		"missing type":     `{"name":"x"}`,
		"unknown type":     `{"type":"matrix"}`,
		"bad num":          `{"type":"num","value":"one"}`,
		"float not number": `{"type":"float","value":"1.5"}`,
		"unknown constant": `{"type":"const","name":"Tau"}`,
		"unknown rel":      `{"type":"rel","op":"Approx","lhs":{"type":"sym","name":"x"},"rhs":{"type":"num","value":"1"}}`,
		"bad child":        `{"type":"add","terms":[{"type":"sym"}]}`,
		"terms not array":  `{"type":"mul","factors":{"type":"sym","name":"x"}}`,
		"piece missing":    `{"type":"piecewise","pieces":[{"expr":{"type":"num","value":"1"}}]}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := cas.ParseJSON(in); err == nil {
				t.Errorf("expected an error for %s", in)
			}
		})
	}
}

func TestFromJSON_ErrorNamesChild(t *testing.T) {
	_, err := cas.ParseJSON(`{"type":"func","name":"sin","args":[{"type":"const","name":"Tau"}]}`)
	if err == nil || !strings.Contains(err.Error(), "Tau") {
		t.Errorf("want error naming Tau, got %v", err)
	}
}
