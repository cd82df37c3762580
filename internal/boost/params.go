package boost

import (
	"fmt"
	"math"
	"runtime"
	"sort"
)

// Params are the booster hyperparameters. Names follow the XGBoost
// scikit-learn wrapper so params.yaml files carry over unchanged.
type Params struct {
	NEstimators    int
	MaxDepth       int
	LearningRate   float64
	Lambda         float64
	Gamma          float64
	MinChildWeight float64
	Subsample      float64
	Seed           int64
	NJobs          int
	// BaseScore is the initial prediction (a probability for binary
	// classification). Nil means: target mean for regression, 0.5 otherwise.
	BaseScore *float64
	// Objective, when set, must agree with the objective implied by the
	// prediction type and class count.
	Objective Objective
}

// DefaultParams returns the XGBoost defaults.
func DefaultParams() Params {
	return Params{
		NEstimators:    100,
		MaxDepth:       6,
		LearningRate:   0.3,
		Lambda:         1,
		Gamma:          0,
		MinChildWeight: 1,
		Subsample:      1,
		NJobs:          runtime.GOMAXPROCS(0),
	}
}

// ignoredKeys are accepted for compatibility with XGBoost configs but have
// no effect here.
var ignoredKeys = map[string]bool{
	"verbosity":          true,
	"eval_metric":        true,
	"use_label_encoder":  true,
	"tree_method":        true,
	"enable_categorical": true,
	"importance_type":    true,
}

// ParseParams overlays m onto DefaultParams. It returns the keys it did not
// recognise, sorted, so the caller can report them.
func ParseParams(m map[string]any) (Params, []string, error) {
	p := DefaultParams()
	var unknown []string
	for k, v := range m {
		var err error
		switch k {
		case "n_estimators", "num_boost_round":
			p.NEstimators, err = toInt(v)
		case "max_depth":
			p.MaxDepth, err = toInt(v)
		case "learning_rate", "eta":
			p.LearningRate, err = toFloat(v)
		case "reg_lambda", "lambda":
			p.Lambda, err = toFloat(v)
		case "gamma", "min_split_loss":
			p.Gamma, err = toFloat(v)
		case "min_child_weight":
			p.MinChildWeight, err = toFloat(v)
		case "subsample":
			p.Subsample, err = toFloat(v)
		case "random_state", "seed":
			var s int
			s, err = toInt(v)
			p.Seed = int64(s)
		case "n_jobs", "nthread":
			p.NJobs, err = toInt(v)
		case "base_score":
			var f float64
			f, err = toFloat(v)
			p.BaseScore = &f
		case "objective":
			s, ok := v.(string)
			if !ok {
				err = fmt.Errorf("want a string, got %T", v)
			}
			p.Objective = Objective(s)
		case "booster":
			if s, _ := v.(string); s != "gbtree" {
				err = fmt.Errorf("only gbtree is supported, got %v", v)
			}
		default:
			if !ignoredKeys[k] {
				unknown = append(unknown, k)
			}
		}
		if err != nil {
			return p, nil, fmt.Errorf("param %s: %w", k, err)
		}
	}
	sort.Strings(unknown)
	return p, unknown, p.Validate()
}

// Validate checks ranges.
func (p Params) Validate() error {
	switch {
	case p.NEstimators < 1:
		return fmt.Errorf("n_estimators must be >= 1, got %d", p.NEstimators)
	case p.MaxDepth < 0:
		return fmt.Errorf("max_depth must be >= 0, got %d", p.MaxDepth)
	case p.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be > 0, got %g", p.LearningRate)
	case p.Lambda < 0:
		return fmt.Errorf("reg_lambda must be >= 0, got %g", p.Lambda)
	case p.Gamma < 0:
		return fmt.Errorf("gamma must be >= 0, got %g", p.Gamma)
	case p.MinChildWeight < 0:
		return fmt.Errorf("min_child_weight must be >= 0, got %g", p.MinChildWeight)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("subsample must be in (0, 1], got %g", p.Subsample)
	}
	if p.Objective != "" && !p.Objective.valid() {
		return fmt.Errorf("unsupported objective %q", p.Objective)
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("want a number, got %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("want an integer, got %g", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("want an integer, got %T", v)
}
