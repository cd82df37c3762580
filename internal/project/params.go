package project

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"xgb/internal/errs"
	"xgb/internal/names"
)

// Reserved params.yaml keys. Everything else is handed to the booster.
const (
	KeyTargetColumn = "target_column"
	KeyTestSize     = "test_size"
	KeyRandomState  = "random_state"
	KeyModelName    = "model_name"
)

// Params is a parsed config/params.yaml.
type Params struct {
	TargetColumn string
	TestSize     float64
	RandomState  int64
	ModelName    string
	// Hyper holds every key except target_column, test_size and model_name.
	// random_state stays in so the booster is seeded with it.
	Hyper map[string]any
}

// LoadParams reads and validates the params file at path.
func LoadParams(path string) (*Params, error) {
	const op = "params load"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Config(op, path, "params file missing")
		}
		return nil, errs.IO(op, path, err)
	}
	return ParseParams(path, data)
}

// ParseParams decodes params YAML. name is used in error messages.
func ParseParams(name string, data []byte) (*Params, error) {
	const op = "params load"
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &errs.Error{Kind: errs.KindConfig, Op: op, Name: name, Msg: "malformed yaml", Err: err}
	}
	if raw == nil {
		return nil, errs.Config(op, name, "params file is empty")
	}

	var missing []string
	for _, k := range []string{KeyTargetColumn, KeyTestSize, KeyRandomState, KeyModelName} {
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, errs.Config(op, name, "missing required keys %v", missing)
	}

	p := &Params{Hyper: make(map[string]any, len(raw))}
	var ok bool
	if p.TargetColumn, ok = raw[KeyTargetColumn].(string); !ok || p.TargetColumn == "" {
		return nil, errs.Config(op, name, "%s must be a non-empty string", KeyTargetColumn)
	}
	if p.ModelName, ok = raw[KeyModelName].(string); !ok {
		return nil, errs.Config(op, name, "%s must be a string", KeyModelName)
	}
	if err := names.Validate(p.ModelName); err != nil {
		return nil, errs.Config(op, name, "%s: %v", KeyModelName, err)
	}
	switch v := raw[KeyTestSize].(type) {
	case float64:
		p.TestSize = v
	default:
		return nil, errs.Config(op, name, "%s must be a fraction, got %v", KeyTestSize, v)
	}
	if p.TestSize <= 0 || p.TestSize >= 1 {
		return nil, errs.Config(op, name, "%s must be in (0, 1), got %g", KeyTestSize, p.TestSize)
	}
	switch v := raw[KeyRandomState].(type) {
	case int:
		p.RandomState = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, errs.Config(op, name, "%s must be an integer, got %g", KeyRandomState, v)
		}
		p.RandomState = int64(v)
	default:
		return nil, errs.Config(op, name, "%s must be an integer, got %v", KeyRandomState, v)
	}

	for k, v := range raw {
		switch k {
		case KeyTargetColumn, KeyTestSize, KeyModelName:
			continue
		}
		p.Hyper[k] = v
	}
	return p, nil
}

// HyperKeys returns the pass-through keys, sorted.
func (p *Params) HyperKeys() []string {
	keys := make([]string, 0, len(p.Hyper))
	for k := range p.Hyper {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Params) String() string {
	return fmt.Sprintf("target=%s test_size=%g seed=%d model=%s hyper=%v",
		p.TargetColumn, p.TestSize, p.RandomState, p.ModelName, p.HyperKeys())
}
