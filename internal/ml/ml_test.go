package ml

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/stat"
)

func TestTrainTestSplit_Deterministic(t *testing.T) {
	a, err := TrainTestSplit(50, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit: %v", err)
	}
	b, _ := TrainTestSplit(50, 0.2, 42)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different splits:\n%s", diff)
	}
	c, _ := TrainTestSplit(50, 0.2, 7)
	if cmp.Equal(a, c) {
		t.Error("different seeds produced identical splits")
	}
}

func TestTrainTestSplit_PartitionsCoverAllRows(t *testing.T) {
	s, err := TrainTestSplit(10, 0.25, 1)
	if err != nil {
		t.Fatalf("TrainTestSplit: %v", err)
	}
	if len(s.Test) != 3 || len(s.Train) != 7 {
		t.Errorf("sizes = %d/%d, want 7/3", len(s.Train), len(s.Test))
	}
	all := append(append([]int{}, s.Train...), s.Test...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("rows not a partition of 0..9: %v", all)
		}
	}
}

func TestTrainTestSplit_Invalid(t *testing.T) {
	if _, err := TrainTestSplit(10, 0, 1); err == nil {
		t.Error("test_size 0 should fail")
	}
	if _, err := TrainTestSplit(10, 1, 1); err == nil {
		t.Error("test_size 1 should fail")
	}
	if _, err := TrainTestSplit(1, 0.5, 1); err == nil {
		t.Error("single row should fail")
	}
	s, err := TrainTestSplit(2, 0.99, 1)
	if err != nil || len(s.Train) != 1 {
		t.Errorf("train partition must keep at least one row: %+v, %v", s, err)
	}
}

func TestStandardScaler_ZeroMeanUnitVariance(t *testing.T) {
	x := [][]float64{{1, 10, 5}, {2, 20, 5}, {3, 30, 5}, {4, 45, 5}, {10, 0, 5}}
	var s StandardScaler
	out, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	for j := 0; j < 2; j++ {
		col := make([]float64, len(out))
		for i := range out {
			col[i] = out[i][j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		if math.Abs(mean) > 1e-9 {
			t.Errorf("feature %d mean = %g, want ~0", j, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Errorf("feature %d variance = %g, want ~1", j, variance)
		}
	}
	for i := range out {
		if out[i][2] != 0 {
			t.Errorf("constant feature row %d = %g, want 0", i, out[i][2])
		}
	}
}

func TestStandardScaler_TransformUsesFittedStats(t *testing.T) {
	var s StandardScaler
	if err := s.Fit([][]float64{{0}, {2}}); err != nil {
		t.Fatal(err)
	}
	out, err := s.Transform([][]float64{{4}})
	if err != nil {
		t.Fatal(err)
	}
	if out[0][0] != 3 {
		t.Errorf("Transform(4) = %g, want 3", out[0][0])
	}
	if _, err := s.Transform([][]float64{{1, 2}}); err == nil {
		t.Error("width mismatch should fail")
	}
}

func TestLabelEncoder(t *testing.T) {
	var e LabelEncoder
	if err := e.Fit([]string{"dog", "cat", "dog", "bird"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"bird", "cat", "dog"}, e.Classes); diff != "" {
		t.Errorf("Classes mismatch:\n%s", diff)
	}
	codes, err := e.Transform([]string{"cat", "bird", "dog"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 0, 2}, codes); diff != "" {
		t.Errorf("codes mismatch:\n%s", diff)
	}
	back, _ := e.Inverse(codes)
	if diff := cmp.Diff([]string{"cat", "bird", "dog"}, back); diff != "" {
		t.Errorf("Inverse mismatch:\n%s", diff)
	}
	if _, err := e.Transform([]string{"fish"}); err == nil {
		t.Error("unseen label should fail")
	}
}

func TestLabelEncoder_NumericOrder(t *testing.T) {
	var e LabelEncoder
	_ = e.Fit([]string{"10", "2", "1"})
	if diff := cmp.Diff([]string{"1", "2", "10"}, e.Classes); diff != "" {
		t.Errorf("Classes mismatch:\n%s", diff)
	}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestRegressionMetrics(t *testing.T) {
	got, err := RegressionMetrics([]float64{3, -0.5, 2, 7}, []float64{2.5, 0, 2, 8})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{MetricMAE: 0.5, MetricMSE: 0.375, MetricR2: 0.9486081370449679}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("metrics mismatch:\n%s", diff)
	}
}

func TestRegressionMetrics_ConstantTruth(t *testing.T) {
	got, _ := RegressionMetrics([]float64{1, 1}, []float64{1, 1})
	if got[MetricR2] != 1 {
		t.Errorf("perfect constant R2 = %g, want 1", got[MetricR2])
	}
	got, _ = RegressionMetrics([]float64{1, 1}, []float64{1, 2})
	if got[MetricR2] != 0 {
		t.Errorf("imperfect constant R2 = %g, want 0", got[MetricR2])
	}
}

func TestClassificationMetrics(t *testing.T) {
	truth := []int{0, 1, 2, 0, 1, 2}
	pred := []int{0, 2, 1, 0, 0, 1}
	got, err := ClassificationMetrics(truth, pred)
	if err != nil {
		t.Fatal(err)
	}
	// Per class: 0 -> p=2/3 r=1 f=0.8; 1 -> 0; 2 -> 0. Each class has support 2.
	want := map[string]float64{
		MetricAccuracy:  1.0 / 3,
		MetricPrecision: (2.0 / 3) / 3,
		MetricRecall:    1.0 / 3,
		MetricF1:        0.8 / 3,
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("metrics mismatch:\n%s", diff)
	}
}

func TestClassificationMetrics_Perfect(t *testing.T) {
	got, _ := ClassificationMetrics([]int{1, 0, 1}, []int{1, 0, 1})
	for _, k := range []string{MetricAccuracy, MetricF1, MetricPrecision, MetricRecall} {
		if got[k] != 1 {
			t.Errorf("%s = %g, want 1", k, got[k])
		}
	}
}

func TestMetrics_LengthMismatch(t *testing.T) {
	if _, err := RegressionMetrics([]float64{1}, nil); err == nil {
		t.Error("regression mismatch should fail")
	}
	if _, err := ClassificationMetrics([]int{1}, []int{1, 2}); err == nil {
		t.Error("classification mismatch should fail")
	}
}

func TestTake(t *testing.T) {
	got := Take([]string{"a", "b", "c"}, []int{2, 0})
	if diff := cmp.Diff([]string{"c", "a"}, got); diff != "" {
		t.Errorf("Take mismatch:\n%s", diff)
	}
}
