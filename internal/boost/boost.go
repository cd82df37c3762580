// Package boost trains gradient-boosted tree ensembles with second-order
// gradients and L2-regularised leaves, in the manner of XGBoost's gbtree
// booster. It supports squared-error regression, binary logistic and
// multi-class softmax objectives.
package boost

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Objective names the loss being minimised.
type Objective string

const (
	SquaredError Objective = "reg:squarederror"
	Logistic     Objective = "binary:logistic"
	Softprob     Objective = "multi:softprob"
)

func (o Objective) valid() bool {
	return o == SquaredError || o == Logistic || o == Softprob
}

// ErrNotFitted is returned when predicting with an empty model.
var ErrNotFitted = errors.New("boost: model has no trees")

// Model is a fitted ensemble. Trees[i] contributes to output group
// TreeInfo[i]; regression and binary models have a single group.
type Model struct {
	Objective   Objective `json:"objective"`
	NumClass    int       `json:"num_class"`
	NumFeatures int       `json:"num_feature"`
	BaseMargin  float64   `json:"base_margin"`
	Trees       []Tree    `json:"trees"`
	TreeInfo    []int     `json:"tree_info"`
}

// Option configures a training run.
type Option func(*trainOptions)

type trainOptions struct {
	onRound func(done, total int)
}

// WithProgress calls fn after every boosting round.
func WithProgress(fn func(done, total int)) Option {
	return func(o *trainOptions) { o.onRound = fn }
}

// TrainRegressor fits a squared-error model to continuous targets.
func TrainRegressor(ctx context.Context, x [][]float64, y []float64, p Params, opts ...Option) (*Model, error) {
	if p.Objective != "" && p.Objective != SquaredError {
		return nil, fmt.Errorf("boost: objective %q does not apply to regression", p.Objective)
	}
	base := 0.0
	if p.BaseScore != nil {
		base = *p.BaseScore
	} else if len(y) > 0 {
		base = floats.Sum(y) / float64(len(y))
	}
	return train(ctx, x, y, SquaredError, 1, base, p, opts)
}

// TrainClassifier fits a classifier to labels in 0..numClass-1. Two classes
// use the logistic objective, more use softmax.
func TrainClassifier(ctx context.Context, x [][]float64, y []int, numClass int, p Params, opts ...Option) (*Model, error) {
	if numClass < 2 {
		return nil, fmt.Errorf("boost: classification needs at least 2 classes, got %d", numClass)
	}
	obj := Logistic
	groups := 1
	if numClass > 2 {
		obj = Softprob
		groups = numClass
	}
	if p.Objective != "" && p.Objective != obj {
		return nil, fmt.Errorf("boost: objective %q does not apply to %d classes", p.Objective, numClass)
	}
	target := make([]float64, len(y))
	for i, c := range y {
		if c < 0 || c >= numClass {
			return nil, fmt.Errorf("boost: label %d out of range [0,%d)", c, numClass)
		}
		target[i] = float64(c)
	}
	base := 0.0
	if obj == Logistic && p.BaseScore != nil {
		b := *p.BaseScore
		if b <= 0 || b >= 1 {
			return nil, fmt.Errorf("boost: base_score %g must be in (0,1) for logistic", b)
		}
		base = math.Log(b / (1 - b))
	}
	m, err := train(ctx, x, target, obj, groups, base, p, opts)
	if err != nil {
		return nil, err
	}
	m.NumClass = numClass
	return m, nil
}

func train(ctx context.Context, x [][]float64, y []float64, obj Objective, groups int, base float64, p Params, opts []Option) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("boost: %w", err)
	}
	if len(x) == 0 {
		return nil, errors.New("boost: no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("boost: %d rows vs %d targets", len(x), len(y))
	}
	nf := len(x[0])
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("boost: row %d has %d features, want %d", i, len(row), nf)
		}
	}
	var o trainOptions
	for _, opt := range opts {
		opt(&o)
	}

	n := len(x)
	m := &Model{Objective: obj, NumClass: groups, NumFeatures: nf, BaseMargin: base}
	margin := make([][]float64, groups)
	grad := make([][]float64, groups)
	hess := make([][]float64, groups)
	for k := range margin {
		margin[k] = make([]float64, n)
		for i := range margin[k] {
			margin[k][i] = base
		}
		grad[k] = make([]float64, n)
		hess[k] = make([]float64, n)
	}

	rng := rand.New(rand.NewSource(p.Seed))
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	jobs := p.NJobs
	if jobs < 1 {
		jobs = 1
	}

	for round := 0; round < p.NEstimators; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gradients(obj, margin, y, grad, hess)

		rows := all
		if p.Subsample < 1 {
			rows = sample(rng, n, p.Subsample)
		}

		trees := make([]*Tree, groups)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for k := 0; k < groups; k++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				trees[k] = growTree(x, grad[k], hess[k], rows, p)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for k, t := range trees {
			for i, row := range x {
				margin[k][i] += t.predict(row)
			}
			m.Trees = append(m.Trees, *t)
			m.TreeInfo = append(m.TreeInfo, k)
		}
		if o.onRound != nil {
			o.onRound(round+1, p.NEstimators)
		}
	}
	return m, nil
}

// gradients fills grad/hess with first and second derivatives of the loss
// at the current margins.
func gradients(obj Objective, margin [][]float64, y []float64, grad, hess [][]float64) {
	switch obj {
	case SquaredError:
		for i := range y {
			grad[0][i] = margin[0][i] - y[i]
			hess[0][i] = 1
		}
	case Logistic:
		for i := range y {
			p := sigmoid(margin[0][i])
			grad[0][i] = p - y[i]
			hess[0][i] = math.Max(p*(1-p), 1e-16)
		}
	case Softprob:
		k := len(margin)
		z := make([]float64, k)
		for i := range y {
			for c := 0; c < k; c++ {
				z[c] = margin[c][i]
			}
			softmax(z)
			for c := 0; c < k; c++ {
				target := 0.0
				if int(y[i]) == c {
					target = 1
				}
				grad[c][i] = z[c] - target
				hess[c][i] = math.Max(2*z[c]*(1-z[c]), 1e-16)
			}
		}
	}
}

func sample(rng *rand.Rand, n int, frac float64) []int {
	rows := make([]int, 0, int(float64(n)*frac)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < frac {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.Intn(n))
	}
	return rows
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

// softmax overwrites z with its softmax.
func softmax(z []float64) {
	mx := floats.Max(z)
	var sum float64
	for i, v := range z {
		z[i] = math.Exp(v - mx)
		sum += z[i]
	}
	for i := range z {
		z[i] /= sum
	}
}

// Margins returns the raw ensemble output per row and group.
func (m *Model) Margins(x [][]float64) ([][]float64, error) {
	if len(m.Trees) == 0 {
		return nil, ErrNotFitted
	}
	groups := 1
	if m.Objective == Softprob {
		groups = m.NumClass
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != m.NumFeatures {
			return nil, fmt.Errorf("boost: row %d has %d features, model expects %d", i, len(row), m.NumFeatures)
		}
		r := make([]float64, groups)
		for k := range r {
			r[k] = m.BaseMargin
		}
		for t := range m.Trees {
			r[m.TreeInfo[t]] += m.Trees[t].predict(row)
		}
		out[i] = r
	}
	return out, nil
}

// Predict returns regression values.
func (m *Model) Predict(x [][]float64) ([]float64, error) {
	if m.Objective != SquaredError {
		return nil, fmt.Errorf("boost: Predict on %s model, use PredictClass", m.Objective)
	}
	margins, err := m.Margins(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(margins))
	for i, r := range margins {
		out[i] = r[0]
	}
	return out, nil
}

// PredictProba returns per-class probabilities.
func (m *Model) PredictProba(x [][]float64) ([][]float64, error) {
	margins, err := m.Margins(x)
	if err != nil {
		return nil, err
	}
	switch m.Objective {
	case Logistic:
		for i, r := range margins {
			p := sigmoid(r[0])
			margins[i] = []float64{1 - p, p}
		}
	case Softprob:
		for _, r := range margins {
			softmax(r)
		}
	default:
		return nil, fmt.Errorf("boost: PredictProba on %s model", m.Objective)
	}
	return margins, nil
}

// PredictClass returns the most probable class per row.
func (m *Model) PredictClass(x [][]float64) ([]int, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		out[i] = floats.MaxIdx(p)
	}
	return out, nil
}

// Validate checks the structural invariants of a decoded model.
func (m *Model) Validate() error {
	if !m.Objective.valid() {
		return fmt.Errorf("boost: unsupported objective %q", m.Objective)
	}
	if len(m.Trees) != len(m.TreeInfo) {
		return fmt.Errorf("boost: %d trees but %d tree_info entries", len(m.Trees), len(m.TreeInfo))
	}
	groups := 1
	if m.Objective == Softprob {
		groups = m.NumClass
	}
	for i, g := range m.TreeInfo {
		if g < 0 || g >= groups {
			return fmt.Errorf("boost: tree %d has group %d, want [0,%d)", i, g, groups)
		}
	}
	for i, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("boost: tree %d is empty", i)
		}
		for j, n := range t.Nodes {
			if n.Feature >= m.NumFeatures {
				return fmt.Errorf("boost: tree %d node %d splits on feature %d of %d", i, j, n.Feature, m.NumFeatures)
			}
			if n.Feature < 0 {
				continue
			}
			// Children always follow their parent, which also rules out cycles.
			if n.Left <= j || n.Left >= len(t.Nodes) || n.Right <= j || n.Right >= len(t.Nodes) {
				return fmt.Errorf("boost: tree %d node %d has children %d, %d outside (%d,%d)", i, j, n.Left, n.Right, j, len(t.Nodes))
			}
		}
	}
	return nil
}
