package ml

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metric names recorded in the ledger.
const (
	MetricMAE       = "MAE"
	MetricMSE       = "MSE"
	MetricR2        = "R2"
	MetricAccuracy  = "Accuracy"
	MetricF1        = "F1"
	MetricPrecision = "Precision"
	MetricRecall    = "Recall"
)

// RegressionMetrics returns MAE, MSE and R2 of pred against truth.
// R2 of a constant truth vector is 1 for a perfect fit and 0 otherwise.
func RegressionMetrics(truth, pred []float64) (map[string]float64, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("metrics: %d targets vs %d predictions", len(truth), len(pred))
	}
	if len(truth) == 0 {
		return nil, fmt.Errorf("metrics: empty evaluation set")
	}
	var absSum, sqSum float64
	for i := range truth {
		d := truth[i] - pred[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	n := float64(len(truth))
	mean := stat.Mean(truth, nil)
	var tot float64
	for _, y := range truth {
		tot += (y - mean) * (y - mean)
	}
	var r2 float64
	switch {
	case tot > 0:
		r2 = 1 - sqSum/tot
	case sqSum == 0:
		r2 = 1
	}
	return map[string]float64{
		MetricMAE: absSum / n,
		MetricMSE: sqSum / n,
		MetricR2:  r2,
	}, nil
}

// ClassificationMetrics returns accuracy and support-weighted F1, precision
// and recall. A class with no predicted (or no true) members contributes 0
// precision (or recall) instead of failing.
func ClassificationMetrics(truth, pred []int) (map[string]float64, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("metrics: %d targets vs %d predictions", len(truth), len(pred))
	}
	if len(truth) == 0 {
		return nil, fmt.Errorf("metrics: empty evaluation set")
	}
	type counts struct{ tp, fp, fn, support int }
	per := make(map[int]*counts)
	get := func(c int) *counts {
		if per[c] == nil {
			per[c] = &counts{}
		}
		return per[c]
	}
	correct := 0
	for i := range truth {
		t, p := truth[i], pred[i]
		get(t).support++
		if t == p {
			correct++
			get(t).tp++
			continue
		}
		get(p).fp++
		get(t).fn++
	}

	var precision, recall, f1 float64
	total := float64(len(truth))
	classes := make([]int, 0, len(per))
	for k := range per {
		classes = append(classes, k)
	}
	sort.Ints(classes)
	for _, k := range classes {
		c := per[k]
		if c.support == 0 {
			continue
		}
		w := float64(c.support) / total
		var p, r, f float64
		if c.tp+c.fp > 0 {
			p = float64(c.tp) / float64(c.tp+c.fp)
		}
		if c.tp+c.fn > 0 {
			r = float64(c.tp) / float64(c.tp+c.fn)
		}
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		precision += w * p
		recall += w * r
		f1 += w * f
	}
	return map[string]float64{
		MetricAccuracy:  float64(correct) / total,
		MetricF1:        f1,
		MetricPrecision: precision,
		MetricRecall:    recall,
	}, nil
}
