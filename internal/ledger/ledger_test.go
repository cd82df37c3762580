package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xgb/internal/errs"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	l, err := Create(path, ProjectInfo{Name: "p1", PredictionType: Classification})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return l
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpen_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	os.WriteFile(path, []byte("{not json"), 0o644)
	_, err := Open(path)
	if !errors.Is(err, errs.ErrData) {
		t.Fatalf("err = %v, want ErrData", err)
	}
}

func TestApply_ScalarFields(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	if err := l.Apply(ctx, SetName("renamed"), SetCreatedAt("2026-10-18"), SetChampion("m1")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	info := l.Read()
	if info.Name != "renamed" || info.CreatedAt != "2026-10-18" {
		t.Errorf("info = %+v", info)
	}
	if info.Champion == nil || *info.Champion != "m1" {
		t.Errorf("Champion = %v, want m1", info.Champion)
	}
	if info.PredictionType != Classification {
		t.Errorf("PredictionType changed to %q", info.PredictionType)
	}

	if err := l.Apply(ctx, SetChampion("")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if l.Read().Champion != nil {
		t.Error("SetChampion(\"\") should clear champion")
	}
}

func TestApply_AppendRunGrowsByOne(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	run := Run{
		Name:    "m1",
		Dataset: "d1",
		Metrics: Metrics{Values: map[string]float64{"Accuracy": 0.9}, TrainTime: "12ms"},
	}
	if err := l.Apply(ctx, AppendRun(run)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	info := l.Read()
	if len(info.Models) != 1 {
		t.Fatalf("len(Models) = %d, want 1", len(info.Models))
	}
	got := info.Models[0]
	if got.ID == "" || got.RunTime == "" {
		t.Errorf("ID/RunTime not filled: %+v", got)
	}
	if got.Dataset != "d1" {
		t.Errorf("Dataset = %q, want d1", got.Dataset)
	}

	reopened, err := Open(l.Path())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if diff := cmp.Diff(info, reopened.Read()); diff != "" {
		t.Errorf("persisted document differs:\n%s", diff)
	}
}

func TestApply_RejectsRunWithoutName(t *testing.T) {
	l := newLedger(t)
	err := l.Apply(context.Background(), SetChampion("x"), AppendRun(Run{Dataset: "d1"}))
	if !errors.Is(err, errs.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	reopened, _ := Open(l.Path())
	if reopened.Read().Champion != nil {
		t.Error("a failed Apply must not persist earlier updates in the batch")
	}
}

func TestApply_PreservesRunsFromAnotherHandle(t *testing.T) {
	a := newLedger(t)
	b, err := Open(a.Path())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := a.Apply(ctx, AppendRun(Run{Name: "from-a", Dataset: "d"})); err != nil {
		t.Fatal(err)
	}
	if err := b.Apply(ctx, AppendRun(Run{Name: "from-b", Dataset: "d"})); err != nil {
		t.Fatal(err)
	}
	reopened, _ := Open(a.Path())
	var names []string
	for _, r := range reopened.Read().Models {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"from-a", "from-b"}, names); diff != "" {
		t.Errorf("runs lost:\n%s", diff)
	}
}

func TestRead_ReturnsCopy(t *testing.T) {
	l := newLedger(t)
	_ = l.Apply(context.Background(), AppendRun(Run{Name: "m1", Metrics: Metrics{Values: map[string]float64{"MAE": 1}}}))
	info := l.Read()
	info.Models[0].Metrics.Values["MAE"] = 99
	info.Models = append(info.Models, Run{Name: "bogus"})
	again := l.Read()
	if len(again.Models) != 1 || again.Models[0].Metrics.Values["MAE"] != 1 {
		t.Error("Read exposed internal state")
	}
}

func TestDocument_WireShape(t *testing.T) {
	l := newLedger(t)
	_ = l.Apply(context.Background(), AppendRun(Run{
		Name:    "m1",
		RunTime: "2026-10-18T10:00:00Z",
		Dataset: "d1",
		Metrics: Metrics{Values: map[string]float64{"R2": 0.5}, TrainTime: "3ms"},
	}))
	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	info := raw["project_info"]
	for _, key := range []string{"name", "created_at", "prediction_type", "champion", "models"} {
		if _, ok := info[key]; !ok {
			t.Errorf("project_info missing %q", key)
		}
	}
	if info["champion"] != nil {
		t.Errorf("champion = %v, want null", info["champion"])
	}
	run := info["models"].([]any)[0].(map[string]any)
	if run["run time"] != "2026-10-18T10:00:00Z" {
		t.Errorf("run time = %v", run["run time"])
	}
	metrics := run["metrics"].(map[string]any)
	if metrics["train_time"] != "3ms" || metrics["R2"] != 0.5 {
		t.Errorf("metrics = %v", metrics)
	}
	if !strings.Contains(string(data), "\n    \"project_info\"") {
		t.Error("ledger should be indented with four spaces")
	}
}

func TestMetrics_NumericTrainTime(t *testing.T) {
	var m Metrics
	if err := json.Unmarshal([]byte(`{"MAE":1.5,"train_time":0.25}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.TrainTime != "0.25s" || m.Values["MAE"] != 1.5 {
		t.Errorf("m = %+v", m)
	}
}

func TestParsePredictionType(t *testing.T) {
	for in, want := range map[string]PredictionType{"c": Classification, "R": Regression, "classification": Classification} {
		got, err := ParsePredictionType(in)
		if err != nil || got != want {
			t.Errorf("ParsePredictionType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePredictionType("x"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestLatestRun(t *testing.T) {
	info := ProjectInfo{Models: []Run{{Name: "m", Dataset: "a"}, {Name: "n"}, {Name: "m", Dataset: "b"}}}
	r, ok := info.LatestRun("m")
	if !ok || r.Dataset != "b" {
		t.Errorf("LatestRun(m) = %+v, %v", r, ok)
	}
	if _, ok := info.LatestRun("z"); ok {
		t.Error("LatestRun(z) should be false")
	}
}
