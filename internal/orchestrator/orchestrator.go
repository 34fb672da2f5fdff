// Package orchestrator turns a free-text query into an ordered execution
// plan and runs it step by step against the agent registry, threading each
// step's output into later steps via {step_N} placeholders.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/agent"
	"github.com/agentfi/agentfi/internal/llm"
	"github.com/agentfi/agentfi/pkg/models"
)

// ErrPlanParse marks planner output that is not a valid execution plan.
// It is fatal for the request: no default plan is substituted.
var ErrPlanParse = errors.New("plan parse failed")

// NoResult is returned by Run for a zero-step plan.
const NoResult = "No result produced."

const plannerPromptFormat = `You are an agent orchestrator. Given a user query, return a JSON execution plan.
Available agents: %s.

Rules:
- Use only agents that are truly needed for this query
- Use {step_N} to pass the output of step N as input to a later step
- Maximum %d steps

Return ONLY valid JSON, no markdown, no explanation:
{
  "steps": [
    { "agent": "portfolio_analyzer", "input": "analyze the user portfolio" },
    { "agent": "risk_scorer", "input": "score this portfolio: {step_0}" }
  ]
}`

// Orchestrator plans and runs multi-agent executions.
type Orchestrator struct {
	planner  llm.Completer
	model    string
	registry *agent.Registry
}

// New creates an orchestrator over the given registry. The planner model
// produces execution plans from queries.
func New(planner llm.Completer, model string, registry *agent.Registry) *Orchestrator {
	return &Orchestrator{
		planner:  planner,
		model:    model,
		registry: registry,
	}
}

// Plan asks the planner for an execution plan and parses it strictly.
// Output that is not valid JSON, lacks a steps field, or exceeds the step
// cap fails with ErrPlanParse.
func (o *Orchestrator) Plan(ctx context.Context, query string) (*models.ExecutionPlan, error) {
	system := fmt.Sprintf(plannerPromptFormat,
		strings.Join(o.registry.Names(), ", "), models.MaxPlanSteps)

	raw, err := o.planner.Complete(ctx, o.model, system, query)
	if err != nil {
		return nil, fmt.Errorf("planner call: %w", err)
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ParsePlan validates raw planner output against the plan schema.
func ParsePlan(raw string) (*models.ExecutionPlan, error) {
	var parsed struct {
		Steps *[]models.PlanStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanParse, err)
	}
	if parsed.Steps == nil {
		return nil, fmt.Errorf("%w: missing steps field", ErrPlanParse)
	}
	if len(*parsed.Steps) > models.MaxPlanSteps {
		return nil, fmt.Errorf("%w: %d steps exceeds limit of %d",
			ErrPlanParse, len(*parsed.Steps), models.MaxPlanSteps)
	}
	return &models.ExecutionPlan{Steps: *parsed.Steps}, nil
}

// Run executes the plan strictly sequentially: step i's input may reference
// any earlier output, so no parallelism is permitted. A step naming an
// unregistered agent contributes a placeholder output and execution
// continues.
func (o *Orchestrator) Run(ctx context.Context, plan *models.ExecutionPlan) (*models.RunResult, error) {
	result := &models.RunResult{Output: NoResult}

	for i, step := range plan.Steps {
		input := step.Input
		for j, prev := range result.Outputs {
			input = strings.ReplaceAll(input, fmt.Sprintf("{step_%d}", j), prev)
		}

		ag, ok := o.registry.Get(step.Agent)
		if !ok {
			log.Warn().Str("agent", step.Agent).Int("step", i).Msg("unknown agent in plan")
			result.Outputs = append(result.Outputs, fmt.Sprintf("[unknown agent: %s]", step.Agent))
			continue
		}

		log.Info().Int("step", i).Str("agent", step.Agent).Msg("executing plan step")
		output, err := ag.Execute(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Agent, err)
		}
		result.Outputs = append(result.Outputs, output)
		result.AgentsInvoked = append(result.AgentsInvoked, step.Agent)
	}

	if len(result.Outputs) > 0 {
		result.Output = result.Outputs[len(result.Outputs)-1]
	}
	return result, nil
}

// Execute plans and runs one query.
func (o *Orchestrator) Execute(ctx context.Context, query string) (*models.RunResult, error) {
	plan, err := o.Plan(ctx, query)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, plan)
}
