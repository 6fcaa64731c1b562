package tools

import "encoding/json"

// MCPToolSpec returns the tool schema for agent registration.
func MCPToolSpec() string {
	tools := []map[string]interface{}{
		ts("lambdify", "Compile an expression into a numeric function. Optional: params (string[]) fixes the argument order, points (number[][]) evaluates it",
			[]string{"expr"}, map[string]string{"expr": "object", "params": "array", "points": "array"}),
		ts("sample", "Sample a one-variable expression over [lo, hi]. Optional: samples (integer)",
			[]string{"expr", "lo", "hi"}, map[string]string{"expr": "object", "lo": "number", "hi": "number", "samples": "integer"}),
		ts("parametric", "Sample the curve (x(var), y(var)) for var in [lo, hi]",
			[]string{"x", "y", "var", "lo", "hi"}, map[string]string{"x": "object", "y": "object", "var": "string", "lo": "number", "hi": "number", "samples": "integer"}),
		ts("surface", "Sample expr(x, y) on a square grid. x_range and y_range are [lo, hi]",
			[]string{"expr", "x", "y", "x_range", "y_range"}, map[string]string{"expr": "object", "x": "string", "y": "string", "x_range": "array", "y_range": "array", "samples": "integer"}),
		ts("free_symbols", "Return free symbol names in default parameter order", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("to_string", "Render the expression and its translated target form", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("tables", "Return the default constant, operator and function tables", []string{}, map[string]string{}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
