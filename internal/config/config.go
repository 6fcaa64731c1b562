package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cast"

	"github.com/njchilds90/lambdify"
)

// Config holds process configuration for the tool server. Every field is
// read from LAMBDIFY_<tag>.
type Config struct {
	Port int    `envconfig:"PORT" default:"8080"`
	Host string `envconfig:"HOST" default:""`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`

	CompileConfig
}

// CompileConfig selects the lambdify backend and table overrides.
type CompileConfig struct {
	Backend string `envconfig:"BACKEND" default:"interpreter"`
	Samples int    `envconfig:"SAMPLES" default:"200"`
	// Tables names a YAML file with constants and operators overrides.
	Tables string `envconfig:"TABLES"`
}

// Load reads LAMBDIFY_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("lambdify", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Samples <= 0 {
		return nil, fmt.Errorf("invalid sample count %d", cfg.Samples)
	}
	if _, err := cfg.backend(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c CompileConfig) backend() (lambdify.Backend, error) {
	switch c.Backend {
	case "", "interpreter":
		return lambdify.Interpreter(), nil
	case "javascript", "js":
		return lambdify.JavaScript(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", c.Backend)
}

// Options turns the compile settings into lambdify options, loading the
// tables file if one is configured.
func (c CompileConfig) Options() ([]lambdify.Option, error) {
	b, err := c.backend()
	if err != nil {
		return nil, err
	}
	opts := []lambdify.Option{lambdify.WithBackend(b)}
	if c.Tables == "" {
		return opts, nil
	}
	t, err := LoadTables(c.Tables)
	if err != nil {
		return nil, err
	}
	return append(opts, t.Options()...), nil
}

// ============================================================
// Table overrides file
// ============================================================

// Tables is the decoded overrides file:
//
//	constants:
//	  Catalan: 0.915965594177219
//	  Half: "1/2"
//	operators:
//	  Max: max
type Tables struct {
	Constants lambdify.Constants
	Operators lambdify.Operators
}

type tablesFile struct {
	Constants map[string]interface{} `yaml:"constants"`
	Operators map[string]string      `yaml:"operators"`
}

func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	return ParseTables(data)
}

func ParseTables(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tables: %w", err)
	}
	t := &Tables{
		Constants: make(lambdify.Constants, len(f.Constants)),
		Operators: make(lambdify.Operators, len(f.Operators)),
	}
	for tag, raw := range f.Constants {
		v, err := constantValue(raw)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", tag, err)
		}
		t.Constants[tag] = v
	}
	for tag, id := range f.Operators {
		if id == "" {
			return nil, fmt.Errorf("operator %s: empty callable", tag)
		}
		t.Operators[tag] = id
	}
	return t, nil
}

// constantValue maps YAML scalars onto values. Integers and "p/q" strings stay
// exact.
func constantValue(raw interface{}) (lambdify.Value, error) {
	switch v := raw.(type) {
	case bool:
		return lambdify.Bool(v), nil
	case int, int64, uint64:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return lambdify.Value{}, err
		}
		return lambdify.Int(n), nil
	case float64:
		return lambdify.Float(v), nil
	case string:
		r, ok := new(big.Rat).SetString(v)
		if !ok {
			return lambdify.Value{}, fmt.Errorf("%q is not a number", v)
		}
		return lambdify.BigRat(r), nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return lambdify.Value{}, err
	}
	return lambdify.Float(f), nil
}

func (t *Tables) Options() []lambdify.Option {
	return []lambdify.Option{
		lambdify.WithConstants(t.Constants),
		lambdify.WithOperators(t.Operators),
	}
}
