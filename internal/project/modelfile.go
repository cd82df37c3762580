package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"xgb/internal/boost"
	"xgb/internal/errs"
	"xgb/internal/frame"
	"xgb/internal/ledger"
	"xgb/internal/ml"
)

// ModelFile is the saved form of a trained model: the booster plus everything
// needed to apply it to raw rows.
type ModelFile struct {
	PredictionType ledger.PredictionType `json:"prediction_type"`
	TargetColumn   string                `json:"target_column"`
	Features       []string              `json:"features"`
	Classes        []string              `json:"classes,omitempty"`
	Scaler         ml.StandardScaler     `json:"scaler"`
	Booster        *boost.Model          `json:"booster"`
}

// Predict applies the model to f. f must contain every feature column; extra
// columns (including the target) are ignored. Classification output is
// decoded back to the original labels.
func (m *ModelFile) Predict(f *frame.Frame) ([]string, error) {
	for _, name := range m.Features {
		if f.Index(name) < 0 {
			return nil, errs.Config("predict", name, "feature column missing from input")
		}
	}
	out, err := m.predict(f)
	if err != nil {
		return nil, errs.Data("predict", m.TargetColumn, err, "apply model")
	}
	return out, nil
}

// PredictionColumn is the column name predictions are written under.
func (m *ModelFile) PredictionColumn() string {
	return "predicted_" + m.TargetColumn
}

func (m *ModelFile) predict(f *frame.Frame) ([]string, error) {
	sub := &frame.Frame{Columns: m.Features, Records: make([][]string, f.Len())}
	idx := make([]int, len(m.Features))
	for j, name := range m.Features {
		idx[j] = f.Index(name)
	}
	for i, rec := range f.Records {
		row := make([]string, len(idx))
		for j, k := range idx {
			row[j] = rec[k]
		}
		sub.Records[i] = row
	}
	x, err := sub.Floats()
	if err != nil {
		return nil, err
	}
	x, err = m.Scaler.Transform(x)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(x))
	if m.PredictionType == ledger.Regression {
		pred, err := m.Booster.Predict(x)
		if err != nil {
			return nil, err
		}
		for i, v := range pred {
			out[i] = formatFloat(v)
		}
		return out, nil
	}
	codes, err := m.Booster.PredictClass(x)
	if err != nil {
		return nil, err
	}
	enc := ml.LabelEncoder{Classes: m.Classes}
	return enc.Inverse(codes)
}

func writeModelFile(path string, m *ModelFile) error {
	const op = "model save"
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(m); err != nil {
		return errs.Data(op, path, err, "marshal")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errs.IO(op, path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errs.IO(op, path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.IO(op, path, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.IO(op, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errs.IO(op, path, err)
	}
	return nil
}

// backupModelFile moves an existing model at path aside to a hidden sibling
// and returns the backup path, or "" when there is nothing to keep.
func backupModelFile(path string) (string, error) {
	backup := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".bak")
	if err := os.Rename(path, backup); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errs.IO("model backup", path, err)
	}
	return backup, nil
}

// restoreModelFile undoes a model write: the backup goes back to path, or
// path is removed when there was no previous model.
func restoreModelFile(backup, path string) error {
	if backup == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.Rename(backup, path)
}

// ReadModelFile loads a model saved by Train.
func ReadModelFile(path string) (*ModelFile, error) {
	const op = "model load"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound(op, path)
		}
		return nil, errs.IO(op, path, err)
	}
	var m ModelFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errs.Data(op, path, err, "malformed model file")
	}
	if m.Booster == nil {
		return nil, errs.Data(op, path, nil, "no booster")
	}
	if err := m.Booster.Validate(); err != nil {
		return nil, errs.Data(op, path, err, "invalid booster")
	}
	return &m, nil
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
