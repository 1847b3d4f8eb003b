package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type CreateExecutionCommand struct {
	ProjectID string `json:"project_id"`
	Condition string `json:"condition"`
	TargetID  string `json:"target_id,omitempty"`
}

func (c CreateExecutionCommand) CommandType() string { return "iam.execution.create" }
func (c CreateExecutionCommand) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if c.Condition == "" {
		return errors.New("condition is required")
	}
	return nil
}

type ChangeExecutionConditionCommand struct {
	ExecutionID string `json:"execution_id"`
	Condition   string `json:"condition"`
}

func (c ChangeExecutionConditionCommand) CommandType() string { return "iam.execution.change_condition" }

type AddExecutionIncludeCommand struct {
	ExecutionID string `json:"execution_id"`
	IncludeID   string `json:"include_id"`
}

func (c AddExecutionIncludeCommand) CommandType() string { return "iam.execution.add_include" }
func (c AddExecutionIncludeCommand) Validate() error {
	if c.IncludeID == "" {
		return errors.New("include_id is required")
	}
	return nil
}

type RemoveExecutionIncludeCommand struct {
	ExecutionID string `json:"execution_id"`
	IncludeID   string `json:"include_id"`
}

func (c RemoveExecutionIncludeCommand) CommandType() string { return "iam.execution.remove_include" }

type RemoveExecutionCommand struct{ ExecutionID string `json:"execution_id"` }

func (c RemoveExecutionCommand) CommandType() string { return "iam.execution.remove" }

// ExecutionGraphResolver resolves the current include edges of every
// Execution in a project so AddInclude can reject edges that would close a
// cycle across the whole graph, not just the node being modified. Satisfied
// by projection.ExecutionProjection in production (wired via
// ExecutionGraphResolverProvider); NewNoIncludesGraphResolver is a
// zero-edges stand-in for tests that exercise command handlers without
// standing up the projection engine.
type ExecutionGraphResolver interface {
	IncludesOf(executionID string) []string
}

// NewNoIncludesGraphResolver returns a resolver that reports no edges for
// any node.
func NewNoIncludesGraphResolver() ExecutionGraphResolver { return noIncludesGraph{} }

type noIncludesGraph struct{}

func (noIncludesGraph) IncludesOf(string) []string { return nil }

// ExecutionCommandHandlers groups every execution hook command handler.
type ExecutionCommandHandlers struct {
	repo  iamdomain.ExecutionRepository
	graph ExecutionGraphResolver
}

func NewExecutionCommandHandlers(repo iamdomain.ExecutionRepository, graph ExecutionGraphResolver) *ExecutionCommandHandlers {
	return &ExecutionCommandHandlers{repo: repo, graph: graph}
}

func (h *ExecutionCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateExecutionCommand]) (coreapp.Response[any], error) {
	c := p.Data
	execution, err := iamdomain.NewExecution(ctx, log, idgen.New(), c.ProjectID, c.Condition, c.TargetID)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, execution); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: execution.ID(), Metadata: map[string]any{"version": execution.Version()}}, nil
}

func (h *ExecutionCommandHandlers) ChangeCondition(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeExecutionConditionCommand]) (coreapp.Response[any], error) {
	c := p.Data
	execution, err := loadModifySave(ctx, h.repo, c.ExecutionID, func(e *iamdomain.Execution) error {
		return e.ChangeCondition(ctx, log, c.Condition)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(execution.Version()), nil
}

func (h *ExecutionCommandHandlers) AddInclude(ctx context.Context, log coredomain.Logger, p coreapp.Payload[AddExecutionIncludeCommand]) (coreapp.Response[any], error) {
	c := p.Data
	execution, err := loadModifySave(ctx, h.repo, c.ExecutionID, func(e *iamdomain.Execution) error {
		return e.AddInclude(ctx, log, h.graph, c.IncludeID)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(execution.Version()), nil
}

func (h *ExecutionCommandHandlers) RemoveInclude(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveExecutionIncludeCommand]) (coreapp.Response[any], error) {
	c := p.Data
	execution, err := loadModifySave(ctx, h.repo, c.ExecutionID, func(e *iamdomain.Execution) error {
		return e.RemoveInclude(ctx, log, c.IncludeID)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(execution.Version()), nil
}

func (h *ExecutionCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveExecutionCommand]) (coreapp.Response[any], error) {
	execution, err := loadModifySave(ctx, h.repo, p.Data.ExecutionID, func(e *iamdomain.Execution) error { return e.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(execution.Version()), nil
}
