// Package agent drives the model/tool alternation that assembles
// workflows. One Agent value serves one logical session; the loop is
// cooperative and resumes deterministically after every external call.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/agent/provider"
	"github.com/flowsmith/flowsmith/pkg/agent/tool"
	"github.com/flowsmith/flowsmith/pkg/agent/types"
)

// State names one phase of the control loop.
type State string

const (
	StateAwaitingModel  State = "awaiting-model"
	StateExecutingTools State = "executing-tools"
	StateResponding     State = "responding"
	StateComplete       State = "complete"
	StateError          State = "error"
)

// FallbackText is the final answer of last resort, used when the model
// produced no text even after the forced-summary request.
const FallbackText = "I'm sorry, I wasn't able to put together a summary of what happened. " +
	"The requested tool operations were executed; please check the workflow runtime for their results."

// Agent is the orchestration loop for one session.
type Agent struct {
	MaxIterations int
	Tools         []tool.Tool
	SystemPrompt  string
	Model         provider.LanguageModel
	Status        *StatusBroadcaster

	state State
	steps []*Step

	// outcomes is the short-form tool log the forced-summary fallback
	// feeds back to the model.
	outcomes []string

	totalUsage types.Usage
}

// Step records one model<->tool round trip.
type Step struct {
	StepNumber  int                `json:"step_number"`
	Content     string             `json:"content"`
	ToolCalls   []types.ToolCall   `json:"tool_calls"`
	ToolResults []types.ToolResult `json:"tool_results"`
	Usage       types.Usage        `json:"usage"`
}

// ChatRequest is one user turn plus its prior history.
type ChatRequest struct {
	SessionID string
	Message   string
	History   []types.Message
}

// ChatResult is the loop's terminal outcome. Text is never empty.
type ChatResult struct {
	Text         string
	Steps        []*Step
	Usage        types.Usage
	FinishReason string
}

func New(opts ...Option) (*Agent, error) {
	agent := &Agent{state: StateAwaitingModel}

	for _, opt := range opts {
		opt(agent)
	}

	if agent.Model == nil {
		return nil, errors.New("model is required")
	}
	if agent.MaxIterations <= 0 {
		agent.MaxIterations = 8
	}
	if agent.Status == nil {
		agent.Status = NewStatusBroadcaster()
	}

	return agent, nil
}

// State returns the loop's current phase.
func (a *Agent) State() State {
	return a.state
}

// ChatSync runs the loop to completion and returns the final text.
func (a *Agent) ChatSync(ctx context.Context, req ChatRequest) (ChatResult, error) {
	return a.run(ctx, req, nil)
}

// ChatStream runs the loop, surfacing model output token by token to sink
// as it arrives. The same tool interception, validation and status
// emission apply as in ChatSync.
func (a *Agent) ChatStream(ctx context.Context, req ChatRequest, sink func(token string)) (ChatResult, error) {
	return a.run(ctx, req, sink)
}

func (a *Agent) run(ctx context.Context, req ChatRequest, sink func(string)) (ChatResult, error) {
	messages := append([]types.Message{}, req.History...)
	if req.Message != "" {
		messages = append(messages, types.Message{Role: types.RoleUser, Content: req.Message})
	}

	var finalText string
	var streamedChars int
	toolsRan := false

	for iteration := 0; iteration < a.MaxIterations; iteration++ {
		a.transition(StateAwaitingModel, "waiting for the model")

		step := &Step{StepNumber: iteration + 1}
		a.steps = append(a.steps, step)

		if err := a.generateStep(ctx, step, messages, a.Tools, sink); err != nil {
			a.transition(StateError, err.Error())
			return a.errorResult(err), err
		}

		streamedChars += len(step.Content)
		a.totalUsage = a.totalUsage.Add(step.Usage)

		messages = append(messages, types.Message{
			Role:      types.RoleAssistant,
			Content:   step.Content,
			ToolCalls: step.ToolCalls,
		})

		if len(step.ToolCalls) == 0 {
			finalText = step.Content
			break
		}

		toolsRan = true
		a.transition(StateExecutingTools, fmt.Sprintf("executing %d tool call(s)", len(step.ToolCalls)))

		results := make([]types.ToolResult, 0, len(step.ToolCalls))
		for _, toolCall := range step.ToolCalls {
			results = append(results, a.executeToolCall(ctx, toolCall))
		}
		step.ToolResults = results

		messages = append(messages, types.Message{
			Role:        types.RoleTool,
			ToolResults: results,
		})

		finalText = step.Content
	}

	// The model may finish a turn having run tools but produced no text.
	// One tools-disabled summary request covers that; a static fallback
	// covers the model staying silent twice.
	if toolsRan && streamedChars == 0 {
		finalText = a.forcedSummary(ctx, messages, sink)
	}

	if strings.TrimSpace(finalText) == "" {
		finalText = FallbackText
		if sink != nil {
			sink(finalText)
		}
	}

	a.transition(StateResponding, "producing final response")
	a.transition(StateComplete, "done")

	return ChatResult{
		Text:         finalText,
		Steps:        a.steps,
		Usage:        a.totalUsage,
		FinishReason: types.FinishReasonStop,
	}, nil
}

// generateStep performs one model call, folding stream events into the
// step and forwarding text deltas to the sink.
func (a *Agent) generateStep(ctx context.Context, step *Step, messages []types.Message, tools []tool.Tool, sink func(string)) error {
	genReq := provider.GenerateRequest{
		Messages: messages,
		System:   a.SystemPrompt,
	}
	for _, t := range tools {
		genReq.Tools = append(genReq.Tools, tool.ToTypesTool(t))
	}

	stream, err := a.Model.Stream(ctx, genReq)
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}

	for event := range stream.Events {
		switch e := event.(type) {
		case *types.TextDeltaEvent:
			step.Content += e.Delta
			if sink != nil {
				sink(e.Delta)
			}
		case *types.ToolCallCompleteEvent:
			step.ToolCalls = append(step.ToolCalls, e.ToolCall)
		case *types.UsageEvent:
			step.Usage = step.Usage.Add(e.Usage)
		}
	}

	return stream.Err()
}

// executeToolCall runs one tool with the uniform status wrapping: a
// tool_call status before, a tool_result or error status after, and a
// one-line entry in the outcome log either way. Tool failures become
// error-flagged results for the model, not loop errors.
func (a *Agent) executeToolCall(ctx context.Context, toolCall types.ToolCall) types.ToolResult {
	a.Status.Publish(StatusEvent{
		Kind:      StatusToolCall,
		Message:   fmt.Sprintf("calling %s", toolCall.Name),
		ToolName:  toolCall.Name,
		Arguments: toolCall.Arguments,
	})

	t, ok := a.findTool(toolCall.Name)
	if !ok {
		message := fmt.Sprintf("tool %s not found", toolCall.Name)
		a.recordOutcome(toolCall.Name, errors.New(message))
		a.Status.Publish(StatusEvent{Kind: StatusError, Message: message, ToolName: toolCall.Name})

		return types.ToolResult{ToolCallID: toolCall.ID, Content: message, IsError: true}
	}

	argsJSON, err := json.Marshal(toolCall.Arguments)
	if err != nil {
		argsJSON = []byte("{}")
	}

	content, err := t.Execute(ctx, string(argsJSON))
	a.recordOutcome(toolCall.Name, err)

	if err != nil {
		log.Warn().Err(err).Str("tool", toolCall.Name).Msg("tool execution failed")
		a.Status.Publish(StatusEvent{Kind: StatusError, Message: err.Error(), ToolName: toolCall.Name})

		return types.ToolResult{
			ToolCallID: toolCall.ID,
			Content:    fmt.Sprintf("Error: %v", err),
			IsError:    true,
		}
	}

	a.Status.Publish(StatusEvent{
		Kind:     StatusToolResult,
		Message:  fmt.Sprintf("%s completed", toolCall.Name),
		ToolName: toolCall.Name,
	})

	return types.ToolResult{ToolCallID: toolCall.ID, Content: content}
}

// forcedSummary issues one additional tools-disabled request asking the
// model to summarize the tool outcomes collected so far.
func (a *Agent) forcedSummary(ctx context.Context, messages []types.Message, sink func(string)) string {
	prompt := "Summarize for the user what was just done. Tool outcomes:\n" + strings.Join(a.outcomes, "\n")

	summaryMessages := append([]types.Message{}, messages...)
	summaryMessages = append(summaryMessages, types.Message{Role: types.RoleUser, Content: prompt})

	resp, err := a.Model.Generate(ctx, provider.GenerateRequest{
		Messages: summaryMessages,
		System:   a.SystemPrompt,
	})
	if err != nil {
		log.Warn().Err(err).Msg("forced summary request failed")
		return ""
	}

	if sink != nil && resp.Content != "" {
		sink(resp.Content)
	}

	a.totalUsage = a.totalUsage.Add(resp.Usage)

	return resp.Content
}

func (a *Agent) recordOutcome(toolName string, err error) {
	if err != nil {
		a.outcomes = append(a.outcomes, fmt.Sprintf("%s: error: %v", toolName, err))
		return
	}
	a.outcomes = append(a.outcomes, fmt.Sprintf("%s: ok", toolName))
}

func (a *Agent) findTool(name string) (tool.Tool, bool) {
	for _, t := range a.Tools {
		if t.Name() == name {
			return t, true
		}
	}

	return nil, false
}

func (a *Agent) transition(state State, message string) {
	a.state = state

	a.Status.Publish(StatusEvent{
		Kind:    statusKindFor(state),
		Message: message,
	})
}

func statusKindFor(state State) StatusKind {
	switch state {
	case StateAwaitingModel:
		return StatusAwaitingModel
	case StateExecutingTools:
		return StatusExecutingTools
	case StateResponding:
		return StatusResponding
	case StateError:
		return StatusError
	default:
		return StatusComplete
	}
}

func (a *Agent) errorResult(err error) ChatResult {
	return ChatResult{
		Text:         fmt.Sprintf("Something went wrong while working on your request: %v", err),
		Steps:        a.steps,
		Usage:        a.totalUsage,
		FinishReason: types.FinishReasonError,
	}
}
