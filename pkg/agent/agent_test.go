package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsmith/flowsmith/pkg/agent/provider"
	"github.com/flowsmith/flowsmith/pkg/agent/tool"
	"github.com/flowsmith/flowsmith/pkg/agent/types"
)

// scriptedTurn is one model reply: text deltas and/or tool calls.
type scriptedTurn struct {
	text      string
	toolCalls []types.ToolCall
}

// scriptedModel replays a fixed sequence of turns. Once the script runs out
// it keeps returning the last turn. Generate serves the forced-summary
// request.
type scriptedModel struct {
	turns       []scriptedTurn
	summaryText string

	streamCalls   int
	generateCalls int
}

func (m *scriptedModel) ID() string { return "scripted:test" }

func (m *scriptedModel) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	m.generateCalls++

	return &types.GenerateResponse{
		Content:      m.summaryText,
		FinishReason: types.FinishReasonStop,
		Usage:        types.Usage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10},
	}, nil
}

func (m *scriptedModel) Stream(ctx context.Context, req provider.GenerateRequest) (*provider.Stream, error) {
	turn := m.turns[len(m.turns)-1]
	if m.streamCalls < len(m.turns) {
		turn = m.turns[m.streamCalls]
	}
	m.streamCalls++

	events := make(chan types.StreamEvent, 16)

	go func() {
		defer close(events)

		if turn.text != "" {
			for _, word := range strings.SplitAfter(turn.text, " ") {
				events <- types.NewTextDeltaEvent(word)
			}
		}
		for _, call := range turn.toolCalls {
			events <- types.NewToolCallCompleteEvent(call)
		}
		events <- types.NewUsageEvent(types.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20})
	}()

	return provider.NewStream(events, func() error { return nil }), nil
}

func echoTool(t *testing.T) tool.Tool {
	t.Helper()

	return tool.Define(
		"echo",
		"Echoes its input back.",
		tool.ObjectSchema(map[string]any{
			"text": map[string]any{"type": "string"},
		}, "text"),
		func(ctx context.Context, args struct {
			Text string `json:"text"`
		}) (string, error) {
			return args.Text, nil
		},
	)
}

func echoCall(text string) types.ToolCall {
	return types.ToolCall{
		ID:        "call-1",
		Name:      "echo",
		Arguments: map[string]any{"text": text},
	}
}

func TestChatSyncPlainAnswer(t *testing.T) {
	model := &scriptedModel{
		turns: []scriptedTurn{{text: "The workflow is ready."}},
	}

	loop, err := New(WithModel(model))
	require.NoError(t, err)

	result, err := loop.ChatSync(context.Background(), ChatRequest{Message: "build it"})
	require.NoError(t, err)

	assert.Equal(t, "The workflow is ready.", result.Text)
	assert.Equal(t, 1, model.streamCalls)
	assert.Equal(t, 0, model.generateCalls, "no forced summary on a plain answer")
	assert.Equal(t, StateComplete, loop.State())
	assert.Equal(t, 20, result.Usage.TotalTokens)
}

func TestToolCallThenAnswer(t *testing.T) {
	model := &scriptedModel{
		turns: []scriptedTurn{
			{toolCalls: []types.ToolCall{echoCall("pong")}},
			{text: "Done, the tool returned pong."},
		},
	}

	loop, err := New(WithModel(model), WithTools(echoTool(t)))
	require.NoError(t, err)

	result, err := loop.ChatSync(context.Background(), ChatRequest{Message: "ping"})
	require.NoError(t, err)

	assert.Equal(t, "Done, the tool returned pong.", result.Text)
	require.Len(t, result.Steps, 2)
	require.Len(t, result.Steps[0].ToolResults, 1)
	assert.Equal(t, "pong", result.Steps[0].ToolResults[0].Content)
	assert.False(t, result.Steps[0].ToolResults[0].IsError)
}

func TestForcedSummaryAfterSilentToolTurn(t *testing.T) {
	model := &scriptedModel{
		turns: []scriptedTurn{
			{toolCalls: []types.ToolCall{echoCall("pong")}},
			{}, // tools ran, then the model stays silent
		},
		summaryText: "I ran the echo tool; it returned pong.",
	}

	loop, err := New(WithModel(model), WithTools(echoTool(t)))
	require.NoError(t, err)

	var streamed strings.Builder
	result, err := loop.ChatStream(context.Background(), ChatRequest{Message: "ping"}, func(token string) {
		streamed.WriteString(token)
	})
	require.NoError(t, err)

	assert.Equal(t, "I ran the echo tool; it returned pong.", result.Text)
	assert.Equal(t, 1, model.generateCalls, "exactly one tools-disabled summary request")
	assert.Contains(t, streamed.String(), "echo tool")
}

func TestStaticFallbackWhenSummaryIsEmpty(t *testing.T) {
	model := &scriptedModel{
		turns: []scriptedTurn{
			{toolCalls: []types.ToolCall{echoCall("pong")}},
			{},
		},
		summaryText: "",
	}

	loop, err := New(WithModel(model), WithTools(echoTool(t)))
	require.NoError(t, err)

	var streamed strings.Builder
	result, err := loop.ChatStream(context.Background(), ChatRequest{Message: "ping"}, func(token string) {
		streamed.WriteString(token)
	})
	require.NoError(t, err)

	assert.Equal(t, FallbackText, result.Text)
	assert.NotEmpty(t, result.Text)
	assert.Contains(t, streamed.String(), FallbackText)
}

func TestRecursionCeiling(t *testing.T) {
	// The model requests a tool on every turn, forever.
	model := &scriptedModel{
		turns:       []scriptedTurn{{toolCalls: []types.ToolCall{echoCall("again")}}},
		summaryText: "Stopped after repeated tool calls.",
	}

	loop, err := New(WithModel(model), WithTools(echoTool(t)), WithMaxIterations(3))
	require.NoError(t, err)

	result, err := loop.ChatSync(context.Background(), ChatRequest{Message: "loop"})
	require.NoError(t, err)

	assert.Equal(t, 3, model.streamCalls, "the loop stops at the ceiling")
	assert.Len(t, result.Steps, 3)
	assert.NotEmpty(t, result.Text)
}

func TestUnknownToolBecomesErrorResult(t *testing.T) {
	model := &scriptedModel{
		turns: []scriptedTurn{
			{toolCalls: []types.ToolCall{{ID: "call-9", Name: "no_such_tool"}}},
			{text: "Recovered."},
		},
	}

	loop, err := New(WithModel(model), WithTools(echoTool(t)))
	require.NoError(t, err)

	result, err := loop.ChatSync(context.Background(), ChatRequest{Message: "go"})
	require.NoError(t, err)

	assert.Equal(t, "Recovered.", result.Text)
	require.Len(t, result.Steps[0].ToolResults, 1)
	assert.True(t, result.Steps[0].ToolResults[0].IsError)
	assert.Contains(t, result.Steps[0].ToolResults[0].Content, "not found")
}

func TestStatusEventsObserveTheLoop(t *testing.T) {
	model := &scriptedModel{
		turns: []scriptedTurn{
			{toolCalls: []types.ToolCall{echoCall("pong")}},
			{text: "Done."},
		},
	}

	loop, err := New(WithModel(model), WithTools(echoTool(t)))
	require.NoError(t, err)

	events, cancel := loop.Status.Subscribe()

	_, err = loop.ChatSync(context.Background(), ChatRequest{Message: "ping"})
	require.NoError(t, err)

	cancel()

	kinds := []StatusKind{}
	for event := range events {
		kinds = append(kinds, event.Kind)
		assert.False(t, event.Timestamp.IsZero())
	}

	assert.Contains(t, kinds, StatusAwaitingModel)
	assert.Contains(t, kinds, StatusExecutingTools)
	assert.Contains(t, kinds, StatusToolCall)
	assert.Contains(t, kinds, StatusToolResult)
	assert.Equal(t, StatusComplete, kinds[len(kinds)-1])

	// tool_call precedes tool_result.
	callIdx, resultIdx := -1, -1
	for i, kind := range kinds {
		if kind == StatusToolCall && callIdx == -1 {
			callIdx = i
		}
		if kind == StatusToolResult && resultIdx == -1 {
			resultIdx = i
		}
	}
	assert.Less(t, callIdx, resultIdx)
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
}
