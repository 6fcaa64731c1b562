package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/njchilds90/lambdify"
	"github.com/njchilds90/lambdify/cas"
	"github.com/njchilds90/lambdify/internal/metrics"
	"github.com/njchilds90/lambdify/plot"
)

// Request is one tool call. Expressions travel in the cas JSON format.
type Request struct {
	ID     string                 `json:"id,omitempty"`
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Config wires a Handler. Zero values are usable.
type Config struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Lambdify []lambdify.Option
	Backend  string
	Samples  int
}

// Handler dispatches tool calls. It is safe for concurrent use.
type Handler struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	opts    []lambdify.Option
	backend string
	plotter *plot.Plotter
}

func New(cfg Config) *Handler {
	h := &Handler{
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		opts:    cfg.Lambdify,
		backend: cfg.Backend,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.backend == "" {
		h.backend = lambdify.Interpreter().Name()
	}
	h.plotter = plot.New(
		plot.WithLogger(h.log.Named("plot")),
		plot.WithSamples(cfg.Samples),
		plot.WithLambdifyOptions(cfg.Lambdify...),
		plot.OnFallback(func(cas.Expr, error) { h.metrics.ObserveFallback() }),
	)
	return h
}

type toolFunc func(ctx context.Context, p params) (interface{}, string, error)

func (h *Handler) tools() map[string]toolFunc {
	return map[string]toolFunc{
		"lambdify":     h.lambdify,
		"sample":       h.sample,
		"parametric":   h.parametric,
		"surface":      h.surface,
		"free_symbols": h.freeSymbols,
		"to_string":    h.toString,
		"tables":       h.tables,
		"mcp_spec": func(context.Context, params) (interface{}, string, error) {
			return nil, MCPToolSpec(), nil
		},
	}
}

// Handle runs one tool call. Failures are reported in Response.Error.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := h.log.With(zap.String("request_id", id), zap.String("tool", req.Tool))
	start := time.Now()
	resp.ID = id

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp = Response{ID: id, Error: fmt.Sprintf("internal error: %v", r)}
		}
		h.metrics.ObserveTool(req.Tool, resp.Error == "", time.Since(start))
		log.Debug("tool call finished",
			zap.Duration("duration", time.Since(start)),
			zap.Bool("ok", resp.Error == ""))
	}()

	fn, ok := h.tools()[req.Tool]
	if !ok {
		resp.Error = fmt.Sprintf("unknown tool: %s", req.Tool)
		return resp
	}
	result, str, err := fn(ctx, params(req.Params))
	if err != nil {
		log.Info("tool call failed", zap.Error(err))
		resp.Error = err.Error()
		return resp
	}
	resp.Result = result
	resp.String = str
	return resp
}

// ============================================================
// tools
// ============================================================

func (h *Handler) compile(e cas.Expr, extra ...lambdify.Option) (*lambdify.Function, error) {
	opts := append(append([]lambdify.Option(nil), h.opts...), extra...)
	fn, err := cas.Lambdify(e, opts...)
	h.metrics.ObserveCompile(h.backend, err)
	return fn, err
}

func (h *Handler) lambdify(_ context.Context, p params) (interface{}, string, error) {
	e, err := p.getExpr("expr")
	if err != nil {
		return nil, "", err
	}
	var opts []lambdify.Option
	if p.has("params") {
		names, err := p.getStrings("params")
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, lambdify.Params(names...))
	}
	fn, err := h.compile(e, opts...)
	if err != nil {
		return nil, "", err
	}
	result := map[string]interface{}{
		"params":  fn.Params(),
		"target":  fn.Expr().String(),
		"backend": fn.Backend(),
	}
	if p.has("points") {
		points, err := p.getPoints("points")
		if err != nil {
			return nil, "", err
		}
		values := make([]interface{}, len(points))
		for i, pt := range points {
			args := make([]lambdify.Value, len(pt))
			for j, v := range pt {
				args[j] = lambdify.Float(v)
			}
			v, err := fn.Eval(args...)
			if err != nil {
				return nil, "", fmt.Errorf("points[%d]: %w", i, err)
			}
			values[i] = jsonValue(v)
		}
		h.metrics.ObservePoints(len(points))
		result["values"] = values
	}
	return result, fn.String(), nil
}

func (h *Handler) sample(_ context.Context, p params) (interface{}, string, error) {
	e, err := p.getExpr("expr")
	if err != nil {
		return nil, "", err
	}
	lo, hi, err := p.getInterval("lo", "hi")
	if err != nil {
		return nil, "", err
	}
	plotter, err := h.plotterFor(p)
	if err != nil {
		return nil, "", err
	}
	s, err := plotter.Function(e, lo, hi)
	if err != nil {
		return nil, "", err
	}
	h.metrics.ObservePoints(len(s.X))
	return seriesJSON(s), s.Label, nil
}

func (h *Handler) parametric(_ context.Context, p params) (interface{}, string, error) {
	x, err := p.getExpr("x")
	if err != nil {
		return nil, "", err
	}
	y, err := p.getExpr("y")
	if err != nil {
		return nil, "", err
	}
	t, err := p.getString("var")
	if err != nil {
		return nil, "", err
	}
	lo, hi, err := p.getInterval("lo", "hi")
	if err != nil {
		return nil, "", err
	}
	plotter, err := h.plotterFor(p)
	if err != nil {
		return nil, "", err
	}
	s, err := plotter.Parametric(x, y, t, lo, hi)
	if err != nil {
		return nil, "", err
	}
	h.metrics.ObservePoints(2 * len(s.X))
	return seriesJSON(s), s.Label, nil
}

func (h *Handler) surface(ctx context.Context, p params) (interface{}, string, error) {
	e, err := p.getExpr("expr")
	if err != nil {
		return nil, "", err
	}
	x, err := p.getString("x")
	if err != nil {
		return nil, "", err
	}
	y, err := p.getString("y")
	if err != nil {
		return nil, "", err
	}
	xr, err := p.getFloats("x_range")
	if err != nil {
		return nil, "", err
	}
	yr, err := p.getFloats("y_range")
	if err != nil {
		return nil, "", err
	}
	if len(xr) != 2 || len(yr) != 2 {
		return nil, "", errors.New("x_range and y_range must be [lo, hi]")
	}
	n := 20
	if p.has("samples") {
		if n, err = p.getInt("samples"); err != nil {
			return nil, "", err
		}
	}
	if n <= 0 || n > 1000 {
		return nil, "", fmt.Errorf("samples must be in 1..1000, got %d", n)
	}
	g, err := h.plotter.Surface(ctx, e, x, y, plot.Linspace(xr[0], xr[1], n), plot.Linspace(yr[0], yr[1], n))
	if err != nil {
		return nil, "", err
	}
	rows, cols := g.Z.Dims()
	z := make([][]interface{}, rows)
	for i := range z {
		z[i] = floatsJSON(g.Z.RawRowView(i))
	}
	h.metrics.ObservePoints(rows * cols)
	return map[string]interface{}{"x": g.X, "y": g.Y, "z": z}, g.Label, nil
}

func (h *Handler) freeSymbols(_ context.Context, p params) (interface{}, string, error) {
	e, err := p.getExpr("expr")
	if err != nil {
		return nil, "", err
	}
	names, err := lambdify.FreeSymbols(cas.Node(e))
	if err != nil {
		return nil, "", err
	}
	return names, "", nil
}

func (h *Handler) toString(_ context.Context, p params) (interface{}, string, error) {
	e, err := p.getExpr("expr")
	if err != nil {
		return nil, "", err
	}
	target, err := lambdify.Translate(cas.Node(e), lambdify.DefaultConstants(), lambdify.DefaultOperators())
	if err != nil {
		return map[string]interface{}{"expr": e.String()}, e.String(), nil
	}
	return map[string]interface{}{"expr": e.String(), "target": target.String()}, e.String(), nil
}

func (h *Handler) tables(context.Context, params) (interface{}, string, error) {
	consts := map[string]string{}
	for tag, v := range lambdify.DefaultConstants() {
		consts[tag] = v.String()
	}
	ops := lambdify.DefaultOperators()
	fns := make([]string, 0, len(lambdify.DefaultFunctions()))
	for name := range lambdify.DefaultFunctions() {
		fns = append(fns, name)
	}
	sort.Strings(fns)
	return map[string]interface{}{
		"constants": consts,
		"operators": ops,
		"functions": fns,
	}, "", nil
}

// plotterFor honors a per-call sample count.
func (h *Handler) plotterFor(p params) (*plot.Plotter, error) {
	if !p.has("samples") {
		return h.plotter, nil
	}
	n, err := p.getInt("samples")
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > 100000 {
		return nil, fmt.Errorf("samples must be in 1..100000, got %d", n)
	}
	return plot.New(
		plot.WithLogger(h.log.Named("plot")),
		plot.WithSamples(n),
		plot.WithLambdifyOptions(h.opts...),
		plot.OnFallback(func(cas.Expr, error) { h.metrics.ObserveFallback() }),
	), nil
}

// ============================================================
// JSON helpers
// ============================================================

// jsonValue keeps finite reals as numbers; everything else is rendered.
func jsonValue(v lambdify.Value) interface{} {
	if v.Kind() == lambdify.KindBool {
		return v.Truth()
	}
	f, err := lambdify.Real(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v.String()
	}
	return f
}

// floatsJSON maps NaN and infinities to null.
func floatsJSON(fs []float64) []interface{} {
	out := make([]interface{}, len(fs))
	for i, f := range fs {
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			out[i] = f
		}
	}
	return out
}

func seriesJSON(s plot.Series) map[string]interface{} {
	return map[string]interface{}{
		"label": s.Label,
		"x":     floatsJSON(s.X),
		"y":     floatsJSON(s.Y),
	}
}

// ============================================================
// parameter access
// ============================================================

type params map[string]interface{}

func (p params) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p params) get(key string) (interface{}, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("missing param: %s", key)
	}
	return v, nil
}

func (p params) getExpr(key string) (cas.Expr, error) {
	v, err := p.get(key)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("param %s must be an expression object", key)
	}
	e, err := cas.FromJSON(m)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", key, err)
	}
	return e, nil
}

func (p params) getString(key string) (string, error) {
	v, err := p.get(key)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return "", fmt.Errorf("param %s must be a non-empty string", key)
	}
	return s, nil
}

func (p params) getStrings(key string) ([]string, error) {
	v, err := p.get(key)
	if err != nil {
		return nil, err
	}
	if _, ok := v.([]interface{}); !ok {
		return nil, fmt.Errorf("param %s must be an array of strings", key)
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", key, err)
	}
	return out, nil
}

func (p params) getFloat(key string) (float64, error) {
	v, err := p.get(key)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("param %s must be a number", key)
	}
	return f, nil
}

func (p params) getInt(key string) (int, error) {
	v, err := p.get(key)
	if err != nil {
		return 0, err
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("param %s must be an integer", key)
	}
	return n, nil
}

func (p params) getFloats(key string) ([]float64, error) {
	v, err := p.get(key)
	if err != nil {
		return nil, err
	}
	return toFloats(key, v)
}

func (p params) getInterval(loKey, hiKey string) (lo, hi float64, err error) {
	if lo, err = p.getFloat(loKey); err != nil {
		return 0, 0, err
	}
	if hi, err = p.getFloat(hiKey); err != nil {
		return 0, 0, err
	}
	if !(lo < hi) {
		return 0, 0, fmt.Errorf("empty interval [%g, %g]", lo, hi)
	}
	return lo, hi, nil
}

// getPoints accepts an array of argument arrays.
func (p params) getPoints(key string) ([][]float64, error) {
	v, err := p.get(key)
	if err != nil {
		return nil, err
	}
	raw, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("param %s must be an array", key)
	}
	out := make([][]float64, len(raw))
	for i, r := range raw {
		if out[i], err = toFloats(fmt.Sprintf("%s[%d]", key, i), r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toFloats(key string, v interface{}) ([]float64, error) {
	raw, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("param %s must be an array of numbers", key)
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		if out[i], err = cast.ToFloat64E(r); err != nil {
			return nil, fmt.Errorf("param %s[%d] must be a number", key, i)
		}
	}
	return out, nil
}
