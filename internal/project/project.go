// Package project runs training cycles for one project directory: it loads
// config/params.yaml, fits a booster on a stored dataset, saves the model
// under models/ and records the run in info.json.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"xgb/internal/boost"
	"xgb/internal/errs"
	"xgb/internal/frame"
	"xgb/internal/ledger"
	"xgb/internal/logging"
	"xgb/internal/ml"
	"xgb/internal/names"
)

// Layout of a project directory.
const (
	ConfigDir  = "config"
	ParamsFile = "params.yaml"
	ModelsDir  = "models"
	modelExt   = ".json"
)

// Datasets is the view of the dataset store a project trains from.
type Datasets interface {
	Exists(ctx context.Context, name string) (bool, error)
	Retrieve(ctx context.Context, name string) (*frame.Frame, error)
}

// Project is an open project directory.
type Project struct {
	Name string
	Dir  string
	Type ledger.PredictionType

	ledger *ledger.Ledger
	data   Datasets
}

// Open loads the project at dir. Its prediction type comes from the ledger.
func Open(dir string, data Datasets) (*Project, error) {
	l, err := ledger.Open(filepath.Join(dir, ledger.FileName))
	if err != nil {
		return nil, err
	}
	info := l.Read()
	if !info.PredictionType.Valid() {
		return nil, errs.Data("project open", dir, nil, "unknown prediction type %q", info.PredictionType)
	}
	return &Project{
		Name:   filepath.Base(dir),
		Dir:    dir,
		Type:   info.PredictionType,
		ledger: l,
		data:   data,
	}, nil
}

// ParamsPath returns the path of config/params.yaml.
func (p *Project) ParamsPath() string {
	return filepath.Join(p.Dir, ConfigDir, ParamsFile)
}

// ModelPath returns the file a model named name is saved to.
func (p *Project) ModelPath(name string) string {
	return filepath.Join(p.Dir, ModelsDir, name+modelExt)
}

// Info returns a snapshot of the ledger.
func (p *Project) Info() ledger.ProjectInfo {
	return p.ledger.Read()
}

// Result describes a finished training run.
type Result struct {
	Run       ledger.Run
	ModelPath string
	Unknown   []string
}

type trainOptions struct {
	progress func(done, total int)
}

// TrainOption configures Train.
type TrainOption func(*trainOptions)

// WithProgress reports boosting rounds to fn.
func WithProgress(fn func(done, total int)) TrainOption {
	return func(o *trainOptions) { o.progress = fn }
}

// Train fits a model on dataset using the project's params file, saves it
// and appends a run record. The model is written before the record. If the
// append fails the new file is removed and a model it replaced is put back,
// so every recorded run has a model on disk.
func (p *Project) Train(ctx context.Context, dataset string, opts ...TrainOption) (*Result, error) {
	const op = "train"
	log := logging.New("project").With("project", p.Name, "dataset", dataset)
	var o trainOptions
	for _, opt := range opts {
		opt(&o)
	}

	ok, err := p.data.Exists(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound(op, dataset)
	}

	params, err := LoadParams(p.ParamsPath())
	if err != nil {
		return nil, err
	}
	log.Info("training", "type", p.Type, "params", params.String())

	f, err := p.data.Retrieve(ctx, dataset)
	if err != nil {
		return nil, err
	}
	features, err := f.Drop(params.TargetColumn)
	if err != nil {
		return nil, errs.Config(op, dataset, "target column %q not in dataset (columns: %s)",
			params.TargetColumn, strings.Join(f.Columns, ", "))
	}
	if len(features.Columns) == 0 {
		return nil, errs.Data(op, dataset, nil, "no feature columns besides %q", params.TargetColumn)
	}
	labels, _ := f.Column(params.TargetColumn)
	x, err := features.Floats()
	if err != nil {
		return nil, errs.Data(op, dataset, err, "non-numeric feature")
	}

	split, err := ml.TrainTestSplit(len(x), params.TestSize, params.RandomState)
	if err != nil {
		return nil, errs.Data(op, dataset, err, "split")
	}
	var scaler ml.StandardScaler
	xTrain, err := scaler.FitTransform(ml.Take(x, split.Train))
	if err != nil {
		return nil, errs.Data(op, dataset, err, "scale")
	}
	xTest, err := scaler.Transform(ml.Take(x, split.Test))
	if err != nil {
		return nil, errs.Data(op, dataset, err, "scale")
	}

	hyper, unknown, err := boost.ParseParams(params.Hyper)
	if err != nil {
		return nil, errs.Config(op, p.ParamsPath(), "%v", err)
	}
	if len(unknown) > 0 {
		log.Warn("ignoring unknown hyperparameters", "keys", unknown)
	}
	var bopts []boost.Option
	if o.progress != nil {
		bopts = append(bopts, boost.WithProgress(o.progress))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mf := &ModelFile{
		PredictionType: p.Type,
		TargetColumn:   params.TargetColumn,
		Features:       features.Columns,
	}
	var metrics map[string]float64
	var elapsed time.Duration
	switch p.Type {
	case ledger.Regression:
		y := make([]float64, len(labels))
		for i, l := range labels {
			if y[i], err = frame.ParseFloat(l); err != nil {
				return nil, errs.Data(op, dataset, err, "target row %d is not numeric", i+1)
			}
		}
		start := time.Now()
		mf.Booster, err = boost.TrainRegressor(ctx, xTrain, ml.Take(y, split.Train), hyper, bopts...)
		elapsed = time.Since(start)
		if err != nil {
			return nil, trainErr(op, p.ParamsPath(), err)
		}
		pred, err := mf.Booster.Predict(xTest)
		if err != nil {
			return nil, errs.Data(op, dataset, err, "evaluate")
		}
		if metrics, err = ml.RegressionMetrics(ml.Take(y, split.Test), pred); err != nil {
			return nil, errs.Data(op, dataset, err, "evaluate")
		}

	case ledger.Classification:
		var enc ml.LabelEncoder
		if err := enc.Fit(labels); err != nil {
			return nil, errs.Data(op, dataset, err, "encode labels")
		}
		if len(enc.Classes) < 2 {
			return nil, errs.Data(op, dataset, nil, "target %q has a single class", params.TargetColumn)
		}
		y, _ := enc.Transform(labels)
		mf.Classes = enc.Classes
		start := time.Now()
		mf.Booster, err = boost.TrainClassifier(ctx, xTrain, ml.Take(y, split.Train), len(enc.Classes), hyper, bopts...)
		elapsed = time.Since(start)
		if err != nil {
			return nil, trainErr(op, p.ParamsPath(), err)
		}
		pred, err := mf.Booster.PredictClass(xTest)
		if err != nil {
			return nil, errs.Data(op, dataset, err, "evaluate")
		}
		if metrics, err = ml.ClassificationMetrics(ml.Take(y, split.Test), pred); err != nil {
			return nil, errs.Data(op, dataset, err, "evaluate")
		}
	}
	mf.Scaler = scaler
	log.Info("model performance", "metrics", metrics, "train_time", elapsed)

	if err := os.MkdirAll(filepath.Join(p.Dir, ModelsDir), 0o755); err != nil {
		return nil, errs.IO(op, p.Name, err)
	}
	modelPath := p.ModelPath(params.ModelName)
	backup, err := backupModelFile(modelPath)
	if err != nil {
		return nil, err
	}
	if err := writeModelFile(modelPath, mf); err != nil {
		if rErr := restoreModelFile(backup, modelPath); rErr != nil {
			log.Error("previous model not restored", "path", modelPath, "backup", backup, "error", rErr)
		}
		return nil, err
	}

	run := ledger.Run{
		Name:    params.ModelName,
		Dataset: dataset,
		Metrics: ledger.Metrics{Values: metrics, TrainTime: fmt.Sprintf("%.6fs", elapsed.Seconds())},
		Params:  params.Hyper,
	}
	// A cancelled context must not leave a model without a record.
	if err := p.ledger.Apply(context.WithoutCancel(ctx), ledger.AppendRun(run)); err != nil {
		if rErr := restoreModelFile(backup, modelPath); rErr != nil {
			log.Error("model file left without a run record", "path", modelPath, "backup", backup, "error", rErr)
		}
		return nil, err
	}
	if backup != "" {
		if err := os.Remove(backup); err != nil {
			log.Warn("stale model backup left behind", "path", backup, "error", err)
		}
	}
	info := p.ledger.Read()
	saved := info.Models[len(info.Models)-1]
	log.Info("run recorded", "model", saved.Name, "id", saved.ID, "path", modelPath)
	return &Result{Run: saved, ModelPath: modelPath, Unknown: unknown}, nil
}

// trainErr classifies a booster failure. Context errors pass through and
// everything else is a bad hyperparameter combination.
func trainErr(op, name string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errs.Config(op, name, "%v", err)
}

// Models returns the names of the saved models, sorted.
func (p *Project) Models(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(p.Dir, ModelsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.IO("models list", p.Name, err)
	}
	var out []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || !strings.HasSuffix(n, modelExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(n, modelExt))
	}
	sort.Strings(out)
	return out, nil
}

// DeleteModel removes a saved model file. The ledger keeps its run records;
// if the model was the champion the designation is cleared.
func (p *Project) DeleteModel(ctx context.Context, name string) error {
	const op = "model delete"
	if err := ctx.Err(); err != nil {
		return err
	}
	if names.Validate(name) != nil {
		return errs.NotFound(op, name)
	}
	if err := os.Remove(p.ModelPath(name)); err != nil {
		if os.IsNotExist(err) {
			return errs.NotFound(op, name)
		}
		return errs.IO(op, name, err)
	}
	if c := p.ledger.Read().Champion; c != nil && *c == name {
		if err := p.ledger.Apply(ctx, ledger.SetChampion("")); err != nil {
			return err
		}
	}
	logging.New("project").Info("model deleted", "project", p.Name, "model", name)
	return nil
}

// SetChampion designates name as the project's champion. The model must have
// a run record and a saved file. An empty name clears the designation.
func (p *Project) SetChampion(ctx context.Context, name string) error {
	const op = "champion set"
	if name != "" {
		if _, ok := p.ledger.Read().LatestRun(name); !ok {
			return errs.NotFound(op, name)
		}
		if _, err := os.Stat(p.ModelPath(name)); err != nil {
			if os.IsNotExist(err) {
				return errs.NotFound(op, p.ModelPath(name))
			}
			return errs.IO(op, name, err)
		}
	}
	return p.ledger.Apply(ctx, ledger.SetChampion(name))
}

func (p *Project) loadModel(name string) (*ModelFile, error) {
	const op = "model load"
	if names.Validate(name) != nil {
		return nil, errs.NotFound(op, name)
	}
	m, err := ReadModelFile(p.ModelPath(name))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound(op, name)
	}
	return m, err
}

// Predict applies the saved model name to f and appends the predictions to
// it as predicted_<target>. An underscore is prefixed while that column name
// is taken.
func (p *Project) Predict(ctx context.Context, name string, f *frame.Frame) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := p.loadModel(name)
	if err != nil {
		return nil, err
	}
	pred, err := m.Predict(f)
	if err != nil {
		return nil, err
	}
	column := m.PredictionColumn()
	for f.Index(column) >= 0 {
		column = "_" + column
	}
	if err := f.Append(column, pred); err != nil {
		return nil, errs.Data("predict", name, err, "append predictions")
	}
	logging.New("project").Debug("predicted", "project", p.Name, "model", name, "rows", f.Len(), "column", column)
	return f, nil
}
