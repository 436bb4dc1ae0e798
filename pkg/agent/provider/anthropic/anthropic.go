package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/flowsmith/flowsmith/pkg/agent/provider"
	"github.com/flowsmith/flowsmith/pkg/agent/types"
)

const defaultMaxTokens = 4096

// Provider implements provider.LanguageModel for Anthropic Claude.
type Provider struct {
	client anthropic.Client
	model  string
}

func New(apiKey, model string) *Provider {
	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *Provider) ID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	resp, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	response := &types.GenerateResponse{
		Model:        string(resp.Model),
		FinishReason: mapStopReason(string(resp.StopReason)),
		Usage: types.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			response.Content += block.Text
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				json.Unmarshal(block.Input, &args)
			}
			response.ToolCalls = append(response.ToolCalls, types.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	return response, nil
}

func (p *Provider) Stream(ctx context.Context, req provider.GenerateRequest) (*provider.Stream, error) {
	events := make(chan types.StreamEvent, 100)

	var mu sync.Mutex
	var streamErr error

	go func() {
		defer close(events)

		stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))

		builders := map[int]*toolCallBuilder{}
		var fullText string
		var usage types.Usage

		for stream.Next() {
			event := stream.Current()

			switch event.Type {
			case "message_start":
				usage.PromptTokens = int(event.Message.Usage.InputTokens)
			case "content_block_start":
				if event.ContentBlock.Type == "tool_use" {
					builders[int(event.Index)] = &toolCallBuilder{
						id:   event.ContentBlock.ID,
						name: event.ContentBlock.Name,
					}
				}
			case "content_block_delta":
				switch event.Delta.Type {
				case "text_delta":
					fullText += event.Delta.Text
					events <- types.NewTextDeltaEvent(event.Delta.Text)
				case "input_json_delta":
					if builder, ok := builders[int(event.Index)]; ok {
						builder.arguments += event.Delta.PartialJSON
					}
				}
			case "content_block_stop":
				if builder, ok := builders[int(event.Index)]; ok {
					args := map[string]any{}
					if builder.arguments != "" {
						json.Unmarshal([]byte(builder.arguments), &args)
					}
					events <- types.NewToolCallCompleteEvent(types.ToolCall{
						ID:        builder.id,
						Name:      builder.name,
						Arguments: args,
					})
				}
			case "message_delta":
				usage.CompletionTokens = int(event.Usage.OutputTokens)
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
				if event.Delta.StopReason != "" {
					events <- types.NewFinishReasonEvent(mapStopReason(string(event.Delta.StopReason)))
				}
			case "message_stop":
				if fullText != "" {
					events <- types.NewTextCompleteEvent(fullText)
				}
				events <- types.NewUsageEvent(usage)
			}
		}

		if err := stream.Err(); err != nil {
			mu.Lock()
			streamErr = fmt.Errorf("anthropic stream error: %w", err)
			mu.Unlock()
		}
	}()

	return provider.NewStream(events, func() error {
		mu.Lock()
		defer mu.Unlock()
		return streamErr
	}), nil
}

func (p *Provider) buildParams(req provider.GenerateRequest) anthropic.MessageNewParams {
	messages, system := convertMessages(req.Messages, req.System)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  messages,
		MaxTokens: int64(defaultMaxTokens),
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}
	if len(system) > 0 {
		params.System = system
	}
	if tools := convertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	return params
}

type toolCallBuilder struct {
	id        string
	name      string
	arguments string
}

// convertMessages maps session messages to Anthropic blocks. System
// messages merge into the system prompt; tool-role messages become user
// messages carrying tool_result blocks.
func convertMessages(messages []types.Message, systemPrompt string) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	result := make([]anthropic.MessageParam, 0, len(messages))
	systemText := systemPrompt

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			if systemText != "" {
				systemText += "\n\n"
			}
			systemText += msg.Content
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}

		if msg.Role == types.RoleAssistant {
			for _, tc := range msg.ToolCalls {
				input := tc.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
		}

		for _, tr := range msg.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}

		role := anthropic.MessageParamRole(msg.Role)
		if msg.Role == types.RoleTool {
			role = anthropic.MessageParamRoleUser
		}

		if len(blocks) > 0 {
			result = append(result, anthropic.MessageParam{Role: role, Content: blocks})
		}
	}

	var system []anthropic.TextBlockParam
	if systemText != "" {
		system = []anthropic.TextBlockParam{{Text: systemText, Type: "text"}}
	}

	return result, system
}

func convertTools(tools []types.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{Type: "object"}

		if properties, ok := tool.Parameters["properties"]; ok {
			inputSchema.Properties = properties
		}
		if required, ok := tool.Parameters["required"].([]any); ok {
			reqStrings := make([]string, 0, len(required))
			for _, r := range required {
				if s, ok := r.(string); ok {
					reqStrings = append(reqStrings, s)
				}
			}
			inputSchema.Required = reqStrings
		} else if required, ok := tool.Parameters["required"].([]string); ok {
			inputSchema.Required = required
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: inputSchema,
			},
		}
	}

	return result
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return types.FinishReasonStop
	case "max_tokens":
		return types.FinishReasonLength
	case "tool_use":
		return types.FinishReasonToolCalls
	default:
		return reason
	}
}
