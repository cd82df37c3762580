// Package mcpserver exposes a workspace over the Model Context Protocol so an
// agent can list projects and datasets, inspect run history and train.
package mcpserver

import (
	"context"
	"log/slog"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"xgb/internal/logging"
	"xgb/internal/orchestrate"
)

// Server wraps the MCP SDK server around a Workspace.
type Server struct {
	MCPServer *sdkmcp.Server
	Workspace *orchestrate.Workspace

	// train serialises training calls; the booster already uses every core.
	train sync.Mutex
	log   *slog.Logger
}

// NewServer creates an MCP server with the workspace tools registered.
func NewServer(ws *orchestrate.Workspace, version string) *Server {
	s := &Server{
		Workspace: ws,
		log:       logging.New("mcp"),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "xgb", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List the projects in the project store.",
	}, s.handleListProjects)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_datasets",
		Description: "List the datasets in the dataset store.",
	}, s.handleListDatasets)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "show_project",
		Description: "Show a project's prediction type, champion and run history with metrics.",
	}, s.handleShowProject)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "train",
		Description: "Train the project's model on a stored dataset using its config/params.yaml. Records a run and saves the model.",
	}, s.handleTrain)
}

// --- Tool input/output types ---

type listInput struct{}

type listOutput struct {
	Names []string `json:"names"`
}

type showProjectInput struct {
	Project string `json:"project" jsonschema:"project name"`
}

type runOutput struct {
	ID        string             `json:"id,omitempty"`
	Model     string             `json:"model"`
	RunTime   string             `json:"run_time"`
	Dataset   string             `json:"dataset"`
	Metrics   map[string]float64 `json:"metrics"`
	TrainTime string             `json:"train_time"`
}

type showProjectOutput struct {
	Name           string      `json:"name"`
	CreatedAt      string      `json:"created_at"`
	PredictionType string      `json:"prediction_type"`
	Champion       string      `json:"champion,omitempty"`
	Runs           []runOutput `json:"runs"`
}

type trainInput struct {
	Project string `json:"project" jsonschema:"project name"`
	Dataset string `json:"dataset" jsonschema:"dataset name in the dataset store"`
}

type trainOutput struct {
	Run       runOutput `json:"run"`
	ModelPath string    `json:"model_path"`
	Ignored   []string  `json:"ignored_params,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleListProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listInput) (*sdkmcp.CallToolResult, listOutput, error) {
	names, err := s.Workspace.ListProjects(ctx)
	if err != nil {
		return nil, listOutput{}, err
	}
	return nil, listOutput{Names: nonNil(names)}, nil
}

func (s *Server) handleListDatasets(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listInput) (*sdkmcp.CallToolResult, listOutput, error) {
	names, err := s.Workspace.ListDatasets(ctx)
	if err != nil {
		return nil, listOutput{}, err
	}
	return nil, listOutput{Names: nonNil(names)}, nil
}

func (s *Server) handleShowProject(ctx context.Context, _ *sdkmcp.CallToolRequest, input showProjectInput) (*sdkmcp.CallToolResult, showProjectOutput, error) {
	info, err := s.Workspace.ShowProject(ctx, input.Project)
	if err != nil {
		return nil, showProjectOutput{}, err
	}
	out := showProjectOutput{
		Name:           info.Name,
		CreatedAt:      info.CreatedAt,
		PredictionType: string(info.PredictionType),
		Runs:           make([]runOutput, 0, len(info.Models)),
	}
	if info.Champion != nil {
		out.Champion = *info.Champion
	}
	for _, r := range info.Models {
		out.Runs = append(out.Runs, runOutput{
			ID:        r.ID,
			Model:     r.Name,
			RunTime:   r.RunTime,
			Dataset:   r.Dataset,
			Metrics:   r.Metrics.Values,
			TrainTime: r.Metrics.TrainTime,
		})
	}
	return nil, out, nil
}

func (s *Server) handleTrain(ctx context.Context, _ *sdkmcp.CallToolRequest, input trainInput) (*sdkmcp.CallToolResult, trainOutput, error) {
	s.train.Lock()
	defer s.train.Unlock()

	s.log.Info("train requested", "project", input.Project, "dataset", input.Dataset)
	res, err := s.Workspace.Train(ctx, input.Project, input.Dataset)
	if err != nil {
		s.log.Warn("train failed", "project", input.Project, "dataset", input.Dataset, "error", err)
		return nil, trainOutput{}, err
	}
	r := res.Run
	return nil, trainOutput{
		Run: runOutput{
			ID:        r.ID,
			Model:     r.Name,
			RunTime:   r.RunTime,
			Dataset:   r.Dataset,
			Metrics:   r.Metrics.Values,
			TrainTime: r.Metrics.TrainTime,
		},
		ModelPath: res.ModelPath,
		Ignored:   res.Unknown,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
