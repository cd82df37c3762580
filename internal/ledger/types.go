package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// PredictionType is fixed when a project is created.
type PredictionType string

const (
	Classification PredictionType = "classification"
	Regression     PredictionType = "regression"
)

// ParsePredictionType accepts the CLI short forms (c, r) and the full names.
func ParsePredictionType(s string) (PredictionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "classification":
		return Classification, nil
	case "r", "regression":
		return Regression, nil
	}
	return "", fmt.Errorf("unknown prediction type %q (want r or c)", s)
}

// Valid reports whether p is one of the known types.
func (p PredictionType) Valid() bool {
	return p == Classification || p == Regression
}

// Document is the on-disk shape of info.json.
type Document struct {
	ProjectInfo ProjectInfo `json:"project_info"`
}

// ProjectInfo is a project's identity and run history.
type ProjectInfo struct {
	Name           string         `json:"name"`
	CreatedAt      string         `json:"created_at"`
	PredictionType PredictionType `json:"prediction_type"`
	Champion       *string        `json:"champion"`
	Models         []Run          `json:"models"`
}

// Run is one completed training run.
type Run struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	RunTime string         `json:"run time"`
	Dataset string         `json:"dataset"`
	Metrics Metrics        `json:"metrics"`
	Params  map[string]any `json:"params,omitempty"`
}

// Metrics maps metric names to values. TrainTime is serialised alongside the
// numeric values under "train_time".
type Metrics struct {
	Values    map[string]float64
	TrainTime string
}

const trainTimeKey = "train_time"

// Names returns the metric names in sorted order.
func (m Metrics) Names() []string {
	names := make([]string, 0, len(m.Values))
	for k := range m.Values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Values)+1)
	for k, v := range m.Values {
		out[k] = v
	}
	if m.TrainTime != "" {
		out[trainTimeKey] = m.TrainTime
	}
	return json.Marshal(out)
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Values = make(map[string]float64, len(raw))
	m.TrainTime = ""
	for k, v := range raw {
		if k == trainTimeKey {
			// A bare number is read as seconds.
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				m.TrainTime = s
				continue
			}
			var f float64
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("metric %q: %w", k, err)
			}
			m.TrainTime = fmt.Sprintf("%gs", f)
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("metric %q: %w", k, err)
		}
		m.Values[k] = f
	}
	return nil
}

func (p ProjectInfo) clone() ProjectInfo {
	c := p
	if p.Champion != nil {
		s := *p.Champion
		c.Champion = &s
	}
	c.Models = make([]Run, len(p.Models))
	for i, r := range p.Models {
		rc := r
		rc.Metrics.Values = make(map[string]float64, len(r.Metrics.Values))
		for k, v := range r.Metrics.Values {
			rc.Metrics.Values[k] = v
		}
		if r.Params != nil {
			rc.Params = make(map[string]any, len(r.Params))
			for k, v := range r.Params {
				rc.Params[k] = v
			}
		}
		c.Models[i] = rc
	}
	return c
}

// LatestRun returns the most recent run recorded under model name.
func (p ProjectInfo) LatestRun(name string) (Run, bool) {
	for i := len(p.Models) - 1; i >= 0; i-- {
		if p.Models[i].Name == name {
			return p.Models[i], true
		}
	}
	return Run{}, false
}
