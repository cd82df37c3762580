// Package orchestrate is the single entry point the CLI and the MCP server
// drive: a Workspace owns the dataset and project stores and performs the
// existence checks every command needs before it touches either.
package orchestrate

import (
	"context"

	"xgb/internal/config"
	"xgb/internal/datastore"
	"xgb/internal/frame"
	"xgb/internal/ledger"
	"xgb/internal/logging"
	"xgb/internal/project"
	"xgb/internal/projectstore"
)

// Workspace pairs a dataset store with a project store.
type Workspace struct {
	Data     *datastore.Store
	Projects *projectstore.Store
}

// Open creates (if needed) and opens the stores named by s.
func Open(s *config.Settings) (*Workspace, error) {
	data, err := datastore.New(s.DataDir)
	if err != nil {
		return nil, err
	}
	projects, err := projectstore.New(s.ProjectDir, projectstore.WithTemplateDir(s.TemplatesDir))
	if err != nil {
		return nil, err
	}
	logging.New("orchestrate").Debug("workspace opened", "data", s.DataDir, "projects", s.ProjectDir)
	return &Workspace{Data: data, Projects: projects}, nil
}

// InitProject creates a project of type ptype.
func (w *Workspace) InitProject(ctx context.Context, name string, ptype ledger.PredictionType) error {
	return w.Projects.Add(ctx, name, ptype)
}

// DeleteProject removes a project and its models.
func (w *Workspace) DeleteProject(ctx context.Context, name string) error {
	return w.Projects.Remove(ctx, name)
}

// ListProjects returns the project names.
func (w *Workspace) ListProjects(ctx context.Context) ([]string, error) {
	return w.Projects.List(ctx)
}

// Project opens a project bound to the workspace's dataset store.
func (w *Workspace) Project(ctx context.Context, name string) (*project.Project, error) {
	return w.Projects.Open(ctx, name, w.Data)
}

// ShowProject returns a project's ledger.
func (w *Workspace) ShowProject(ctx context.Context, name string) (ledger.ProjectInfo, error) {
	p, err := w.Project(ctx, name)
	if err != nil {
		return ledger.ProjectInfo{}, err
	}
	return p.Info(), nil
}

// ParamsPath returns the params file of a project.
func (w *Workspace) ParamsPath(ctx context.Context, name string) (string, error) {
	p, err := w.Project(ctx, name)
	if err != nil {
		return "", err
	}
	return p.ParamsPath(), nil
}

// AddDataset copies the CSV at source into the store as name.
func (w *Workspace) AddDataset(ctx context.Context, source, name string) error {
	return w.Data.Add(ctx, source, name)
}

// RemoveDataset deletes a dataset.
func (w *Workspace) RemoveDataset(ctx context.Context, name string) error {
	return w.Data.Remove(ctx, name)
}

// ListDatasets returns the dataset names.
func (w *Workspace) ListDatasets(ctx context.Context) ([]string, error) {
	return w.Data.List(ctx)
}

// DescribeDataset summarises a dataset.
func (w *Workspace) DescribeDataset(ctx context.Context, name string) (*datastore.Summary, error) {
	return w.Data.Describe(ctx, name)
}

// Train runs one training cycle of project on dataset.
func (w *Workspace) Train(ctx context.Context, projectName, dataset string, opts ...project.TrainOption) (*project.Result, error) {
	p, err := w.Project(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return p.Train(ctx, dataset, opts...)
}

// Predict applies a saved model of project to dataset and returns the
// dataset with a prediction column appended.
func (w *Workspace) Predict(ctx context.Context, projectName, model, dataset string) (*frame.Frame, error) {
	p, err := w.Project(ctx, projectName)
	if err != nil {
		return nil, err
	}
	f, err := w.Data.Retrieve(ctx, dataset)
	if err != nil {
		return nil, err
	}
	return p.Predict(ctx, model, f)
}

// Models returns the saved model names of a project.
func (w *Workspace) Models(ctx context.Context, projectName string) ([]string, error) {
	p, err := w.Project(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return p.Models(ctx)
}

// DeleteModel removes a saved model from a project.
func (w *Workspace) DeleteModel(ctx context.Context, projectName, model string) error {
	p, err := w.Project(ctx, projectName)
	if err != nil {
		return err
	}
	return p.DeleteModel(ctx, model)
}

// SetChampion designates a project's champion model.
func (w *Workspace) SetChampion(ctx context.Context, projectName, model string) error {
	p, err := w.Project(ctx, projectName)
	if err != nil {
		return err
	}
	return p.SetChampion(ctx, model)
}
