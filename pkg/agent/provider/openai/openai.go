package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/flowsmith/flowsmith/pkg/agent/provider"
	"github.com/flowsmith/flowsmith/pkg/agent/types"
)

// Provider implements provider.LanguageModel for OpenAI chat models.
type Provider struct {
	client *openai.Client
	model  string
}

func New(apiKey, model string) *Provider {
	return &Provider{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (p *Provider) ID() string {
	return fmt.Sprintf("openai:%s", p.model)
}

func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from openai")
	}

	choice := resp.Choices[0]
	response := &types.GenerateResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		response.ToolCalls = append(response.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return response, nil
}

func (p *Provider) Stream(ctx context.Context, req provider.GenerateRequest) (*provider.Stream, error) {
	events := make(chan types.StreamEvent, 100)

	var mu sync.Mutex
	var streamErr error

	setErr := func(err error) {
		mu.Lock()
		streamErr = err
		mu.Unlock()
	}

	go func() {
		defer close(events)

		stream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(req, true))
		if err != nil {
			setErr(fmt.Errorf("openai stream error: %w", err))
			return
		}
		defer stream.Close()

		builders := map[int]*toolCallBuilder{}
		var fullText string
		var usage types.Usage

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				setErr(fmt.Errorf("openai stream recv error: %w", err))
				return
			}

			if response.Usage != nil {
				usage = types.Usage{
					PromptTokens:     response.Usage.PromptTokens,
					CompletionTokens: response.Usage.CompletionTokens,
					TotalTokens:      response.Usage.TotalTokens,
				}
			}

			if len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]

			if choice.Delta.Content != "" {
				fullText += choice.Delta.Content
				events <- types.NewTextDeltaEvent(choice.Delta.Content)
			}

			for _, tc := range choice.Delta.ToolCalls {
				if tc.Index == nil {
					continue
				}
				index := *tc.Index
				if _, exists := builders[index]; !exists {
					builders[index] = &toolCallBuilder{id: tc.ID, name: tc.Function.Name}
				}
				if tc.Function.Arguments != "" {
					builders[index].arguments += tc.Function.Arguments
				}
			}

			if choice.FinishReason != "" {
				events <- types.NewFinishReasonEvent(string(choice.FinishReason))
			}
		}

		if fullText != "" {
			events <- types.NewTextCompleteEvent(fullText)
		}

		indexes := make([]int, 0, len(builders))
		for index := range builders {
			indexes = append(indexes, index)
		}
		sort.Ints(indexes)

		for _, index := range indexes {
			builder := builders[index]
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

		events <- types.NewUsageEvent(usage)
	}()

	return provider.NewStream(events, func() error {
		mu.Lock()
		defer mu.Unlock()
		return streamErr
	}), nil
}

func (p *Provider) buildRequest(req provider.GenerateRequest, stream bool) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertMessages(req.Messages, req.System),
		Tools:       convertTools(req.Tools),
		Temperature: req.Temperature,
		Stream:      stream,
	}

	if stream {
		chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	return chatReq
}

type toolCallBuilder struct {
	id        string
	name      string
	arguments string
}

// convertMessages flattens tool results into separate tool-role messages,
// which is the shape the chat completions API expects.
func convertMessages(messages []types.Message, system string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		if len(msg.ToolResults) > 0 {
			for _, tr := range msg.ToolResults {
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    tr.Content,
					ToolCallID: tr.ToolCallID,
				})
			}
			continue
		}

		oaiMsg := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}

		for _, tc := range msg.ToolCalls {
			argsJSON, _ := json.Marshal(tc.Arguments)
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(argsJSON),
				},
			})
		}

		result = append(result, oaiMsg)
	}

	return result
}

func convertTools(tools []types.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		}
	}

	return result
}
