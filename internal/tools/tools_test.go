package tools

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/njchilds90/lambdify"
	"github.com/njchilds90/lambdify/internal/metrics"
)

const (
	xSquared = `{"type":"pow","base":{"type":"sym","name":"x"},"exp":{"type":"num","value":"2"}}`
	xTimesY  = `{"type":"mul","factors":[{"type":"sym","name":"x"},{"type":"sym","name":"y"}]}`
	xPlusSet = `{"type":"add","terms":[{"type":"sym","name":"x"},{"type":"atom","tag":"EmptySet","name":"EmptySet"}]}`
)

func newHandler(t *testing.T) (*Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return New(Config{Logger: zaptest.NewLogger(t), Metrics: m, Samples: 5}), m
}

func call(t *testing.T, h *Handler, tool, paramsJSON string) Response {
	t.Helper()
	var p map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(paramsJSON), &p))
	return h.Handle(context.Background(), Request{ID: "test", Tool: tool, Params: p})
}

func TestHandle_Lambdify(t *testing.T) {
	h, m := newHandler(t)
	resp := call(t, h, "lambdify", `{
		"expr": {"type":"add","terms":[`+xTimesY+`,{"type":"num","value":"1/2"}]},
		"params": ["y", "x"],
		"points": [[2, 3], [0, 0]]
	}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "test", resp.ID)
	assert.Equal(t, "(y, x) -> ((x * y) + 1/2)", resp.String)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, []string{"y", "x"}, result["params"])
	assert.Equal(t, "interpreter", result["backend"])
	assert.Equal(t, []interface{}{6.5, 0.5}, result["values"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compilations.WithLabelValues("interpreter", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PointsSampled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("lambdify", "ok")))
}

func TestHandle_Lambdify_EmptyParams(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "lambdify", `{"expr": {"type":"sym","name":"x"}, "params": []}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "() -> x", resp.String)
	assert.Empty(t, resp.Result.(map[string]interface{})["params"])

	resp = call(t, h, "lambdify", `{"expr": {"type":"sym","name":"x"}, "params": [], "points": [[]]}`)
	assert.Contains(t, resp.Error, "points[0]")
	assert.Contains(t, resp.Error, `"x"`)
}

func TestHandle_Lambdify_NotLambdifiable(t *testing.T) {
	h, m := newHandler(t)
	resp := call(t, h, "lambdify", `{"expr": `+xPlusSet+`}`)
	assert.Contains(t, resp.Error, lambdify.ErrNotLambdifiable.Error())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compilations.WithLabelValues("interpreter", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("lambdify", "error")))
}

func TestHandle_Lambdify_PointErrors(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "lambdify", `{"expr": `+xTimesY+`, "params": ["x"], "points": [[1]]}`)
	assert.Contains(t, resp.Error, "points[0]")
	assert.Contains(t, resp.Error, `"y"`)

	resp = call(t, h, "lambdify", `{"expr": `+xSquared+`, "points": [[1, 2]]}`)
	assert.Contains(t, resp.Error, "expected 1 arguments, got 2")
}

func TestHandle_Sample(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "sample", `{"expr": `+xSquared+`, "lo": -1, "hi": 1}`)
	require.Empty(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, []interface{}{1.0, 0.25, 0.0, 0.25, 1.0}, result["y"])
	assert.Equal(t, "x^2", resp.String)

	resp = call(t, h, "sample", `{"expr": `+xSquared+`, "lo": 0, "hi": 1, "samples": 2}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, []interface{}{0.0, 1.0}, resp.Result.(map[string]interface{})["y"])
}

func TestHandle_Sample_Fallback(t *testing.T) {
	h, m := newHandler(t)
	resp := call(t, h, "sample", `{"expr": `+xPlusSet+`, "lo": 0, "hi": 1}`)
	require.Empty(t, resp.Error)
	for _, y := range resp.Result.(map[string]interface{})["y"].([]interface{}) {
		assert.Nil(t, y, "failed points are null")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks))
}

func TestHandle_Parametric(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "parametric", `{
		"x": {"type":"sym","name":"t"},
		"y": {"type":"mul","factors":[{"type":"num","value":"2"},{"type":"sym","name":"t"}]},
		"var": "t", "lo": 0, "hi": 4
	}`)
	require.Empty(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, []interface{}{0.0, 1.0, 2.0, 3.0, 4.0}, result["x"])
	assert.Equal(t, []interface{}{0.0, 2.0, 4.0, 6.0, 8.0}, result["y"])
}

func TestHandle_Surface(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "surface", `{"expr": `+xTimesY+`, "x": "x", "y": "y", "x_range": [0, 1], "y_range": [0, 2], "samples": 3}`)
	require.Empty(t, resp.Error)
	z := resp.Result.(map[string]interface{})["z"].([][]interface{})
	require.Len(t, z, 3)
	assert.Equal(t, []interface{}{0.0, 1.0, 2.0}, z[2])
}

func TestHandle_FreeSymbolsAndString(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "free_symbols", `{"expr": {"type":"add","terms":[{"type":"sym","name":"b"},{"type":"sym","name":"a"}]}}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, []string{"a", "b"}, resp.Result)

	resp = call(t, h, "to_string", `{"expr": `+xTimesY+`}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "x*y", resp.String)
	assert.Equal(t, "(x * y)", resp.Result.(map[string]interface{})["target"])

	resp = call(t, h, "to_string", `{"expr": `+xPlusSet+`}`)
	require.Empty(t, resp.Error)
	assert.NotContains(t, resp.Result.(map[string]interface{}), "target")
}

func TestHandle_Tables(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "tables", `{}`)
	require.Empty(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, "zoo", result["constants"].(map[string]string)["ComplexInfinity"])
	assert.Equal(t, "^", result["operators"].(lambdify.Operators)["Pow"])
	assert.Contains(t, result["functions"], "sin")
}

func TestHandle_MCPSpec(t *testing.T) {
	h, _ := newHandler(t)
	resp := call(t, h, "mcp_spec", `{}`)
	require.Empty(t, resp.Error)

	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.String), &spec))
	names := make([]string, len(spec.Tools))
	for i, tool := range spec.Tools {
		names[i] = tool.Name
	}
	for name := range h.tools() {
		assert.Contains(t, names, name)
	}
}

func TestHandle_Errors(t *testing.T) {
	h, _ := newHandler(t)
	tests := []struct {
		name, tool, params, want string
	}{
		{"unknown tool", "integrate", `{}`, "unknown tool: integrate"},
		{"missing expr", "lambdify", `{}`, "missing param: expr"},
		{"expr not object", "lambdify", `{"expr": "x^2"}`, "must be an expression object"},
		{"bad expr", "lambdify", `{"expr": {"type":"matrix"}}`, "unknown expression type"},
		{"params not array", "lambdify", `{"expr": ` + xSquared + `, "params": "x"}`, "array of strings"},
		{"duplicate params", "lambdify", `{"expr": ` + xSquared + `, "params": ["x", "x"]}`, "duplicate parameter"},
		{"empty interval", "sample", `{"expr": ` + xSquared + `, "lo": 1, "hi": 1}`, "empty interval"},
		{"bad samples", "sample", `{"expr": ` + xSquared + `, "lo": 0, "hi": 1, "samples": 0}`, "samples must be"},
		{"two symbols", "sample", `{"expr": ` + xTimesY + `, "lo": 0, "hi": 1}`, "free symbols"},
		{"bad range", "surface", `{"expr": ` + xTimesY + `, "x": "x", "y": "y", "x_range": [0], "y_range": [0, 1]}`, "[lo, hi]"},
		{"range not numbers", "surface", `{"expr": ` + xTimesY + `, "x": "x", "y": "y", "x_range": ["a", "b"], "y_range": [0, 1]}`, "must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, h, tt.tool, tt.params)
			assert.Contains(t, resp.Error, tt.want)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestHandle_AssignsID(t *testing.T) {
	h := New(Config{})
	resp := h.Handle(context.Background(), Request{Tool: "tables"})
	assert.NotEmpty(t, resp.ID)
	assert.Empty(t, resp.Error)
}

func TestJSONValue(t *testing.T) {
	assert.Equal(t, true, jsonValue(lambdify.Bool(true)))
	assert.Equal(t, 0.5, jsonValue(lambdify.Rat(1, 2)))
	assert.Equal(t, "zoo", jsonValue(lambdify.Complex(complex(math.Inf(1), math.Inf(1)))))
	assert.Equal(t, "(0+1i)", jsonValue(lambdify.Complex(1i)))
	assert.Equal(t, "+Inf", jsonValue(lambdify.Float(math.Inf(1))))
}
