package types

import "time"

// StreamEvent is the base interface for all streaming events.
type StreamEvent interface {
	GetType() StreamEventType
	GetTimestamp() time.Time
}

type StreamEventType string

const (
	EventTypeSessionStart StreamEventType = "session-start"
	EventTypeSessionEnd   StreamEventType = "session-end"
	EventTypeStreamError  StreamEventType = "stream-error"

	EventTypeTextDelta    StreamEventType = "text-delta"
	EventTypeTextComplete StreamEventType = "text-complete"

	EventTypeToolCallComplete StreamEventType = "tool-call-complete"

	EventTypeUsage        StreamEventType = "usage"
	EventTypeFinishReason StreamEventType = "finish-reason"

	EventTypeStepStart             StreamEventType = "step-start"
	EventTypeStepComplete          StreamEventType = "step-complete"
	EventTypeToolExecutionStart    StreamEventType = "tool-execution-start"
	EventTypeToolExecutionComplete StreamEventType = "tool-execution-complete"
)

type baseEvent struct {
	eventType StreamEventType
	timestamp time.Time
}

func (e *baseEvent) GetType() StreamEventType { return e.eventType }
func (e *baseEvent) GetTimestamp() time.Time  { return e.timestamp }

func newBaseEvent(eventType StreamEventType) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// SessionStartEvent opens a session's event stream.
type SessionStartEvent struct {
	baseEvent
	SessionID string `json:"session_id"`
}

func NewSessionStartEvent(sessionID string) *SessionStartEvent {
	return &SessionStartEvent{baseEvent: newBaseEvent(EventTypeSessionStart), SessionID: sessionID}
}

// SessionEndEvent closes a session's event stream.
type SessionEndEvent struct {
	baseEvent
	Usage        Usage  `json:"usage"`
	FinishReason string `json:"finish_reason"`
}

func NewSessionEndEvent(usage Usage, finishReason string) *SessionEndEvent {
	return &SessionEndEvent{baseEvent: newBaseEvent(EventTypeSessionEnd), Usage: usage, FinishReason: finishReason}
}

// StreamErrorEvent reports an error during streaming.
type StreamErrorEvent struct {
	baseEvent
	Err     error  `json:"-"`
	Message string `json:"message"`
}

func NewStreamErrorEvent(err error) *StreamErrorEvent {
	return &StreamErrorEvent{baseEvent: newBaseEvent(EventTypeStreamError), Err: err, Message: err.Error()}
}

// TextDeltaEvent carries one incremental text chunk.
type TextDeltaEvent struct {
	baseEvent
	Delta string `json:"delta"`
}

func NewTextDeltaEvent(delta string) *TextDeltaEvent {
	return &TextDeltaEvent{baseEvent: newBaseEvent(EventTypeTextDelta), Delta: delta}
}

// TextCompleteEvent signals that one generation's text is complete.
type TextCompleteEvent struct {
	baseEvent
	FullText string `json:"full_text"`
}

func NewTextCompleteEvent(fullText string) *TextCompleteEvent {
	return &TextCompleteEvent{baseEvent: newBaseEvent(EventTypeTextComplete), FullText: fullText}
}

// ToolCallCompleteEvent signals a fully parsed tool call from the model.
type ToolCallCompleteEvent struct {
	baseEvent
	ToolCall ToolCall `json:"tool_call"`
}

func NewToolCallCompleteEvent(toolCall ToolCall) *ToolCallCompleteEvent {
	return &ToolCallCompleteEvent{baseEvent: newBaseEvent(EventTypeToolCallComplete), ToolCall: toolCall}
}

// UsageEvent carries token usage for one generation.
type UsageEvent struct {
	baseEvent
	Usage Usage `json:"usage"`
}

func NewUsageEvent(usage Usage) *UsageEvent {
	return &UsageEvent{baseEvent: newBaseEvent(EventTypeUsage), Usage: usage}
}

// FinishReasonEvent reports why one generation stopped.
type FinishReasonEvent struct {
	baseEvent
	Reason string `json:"reason"`
}

func NewFinishReasonEvent(reason string) *FinishReasonEvent {
	return &FinishReasonEvent{baseEvent: newBaseEvent(EventTypeFinishReason), Reason: reason}
}

// StepStartEvent signals the start of one model<->tool round trip.
type StepStartEvent struct {
	baseEvent
	StepNumber int `json:"step_number"`
}

func NewStepStartEvent(stepNumber int) *StepStartEvent {
	return &StepStartEvent{baseEvent: newBaseEvent(EventTypeStepStart), StepNumber: stepNumber}
}

// StepCompleteEvent signals completion of one round trip.
type StepCompleteEvent struct {
	baseEvent
	StepNumber  int          `json:"step_number"`
	Content     string       `json:"content"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	Usage       Usage        `json:"usage"`
}

func NewStepCompleteEvent(stepNumber int, content string, toolCalls []ToolCall, toolResults []ToolResult, usage Usage) *StepCompleteEvent {
	return &StepCompleteEvent{
		baseEvent:   newBaseEvent(EventTypeStepComplete),
		StepNumber:  stepNumber,
		Content:     content,
		ToolCalls:   toolCalls,
		ToolResults: toolResults,
		Usage:       usage,
	}
}

// ToolExecutionStartEvent signals that the loop began executing a tool.
type ToolExecutionStartEvent struct {
	baseEvent
	ToolCall ToolCall `json:"tool_call"`
}

func NewToolExecutionStartEvent(toolCall ToolCall) *ToolExecutionStartEvent {
	return &ToolExecutionStartEvent{baseEvent: newBaseEvent(EventTypeToolExecutionStart), ToolCall: toolCall}
}

// ToolExecutionCompleteEvent carries the result of a tool execution.
type ToolExecutionCompleteEvent struct {
	baseEvent
	ToolCall   ToolCall   `json:"tool_call"`
	ToolResult ToolResult `json:"tool_result"`
}

func NewToolExecutionCompleteEvent(toolCall ToolCall, toolResult ToolResult) *ToolExecutionCompleteEvent {
	return &ToolExecutionCompleteEvent{
		baseEvent:  newBaseEvent(EventTypeToolExecutionComplete),
		ToolCall:   toolCall,
		ToolResult: toolResult,
	}
}
