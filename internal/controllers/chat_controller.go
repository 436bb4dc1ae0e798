package controllers

import (
	"bufio"
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/internal/builder"
	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/pkg/agent"
	"github.com/flowsmith/flowsmith/pkg/agent/provider"
	"github.com/flowsmith/flowsmith/pkg/agent/types"
	"github.com/flowsmith/flowsmith/pkg/clients/runtime"
)

// ChatController exposes the agent loop over HTTP. Every request gets its
// own session and agent; the index, runtime client and model are shared.
type ChatController struct {
	index   *catalog.Index
	runtime runtime.API
	model   provider.LanguageModel
}

type ChatControllerDependencies struct {
	Index         *catalog.Index
	RuntimeClient runtime.API
	Model         provider.LanguageModel
}

func NewChatController(deps ChatControllerDependencies) *ChatController {
	return &ChatController{
		index:   deps.Index,
		runtime: deps.RuntimeClient,
		model:   deps.Model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string        `json:"message"`
	History []chatMessage `json:"history,omitempty"`
}

type chatResponse struct {
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	Usage     types.Usage `json:"usage"`
}

// streamLine is one NDJSON line on the streaming endpoint. Type is "token",
// "status" or "done".
type streamLine struct {
	Type    string             `json:"type"`
	Content string             `json:"content,omitempty"`
	Status  *agent.StatusEvent `json:"status,omitempty"`
	Text    string             `json:"text,omitempty"`
}

// Chat handles the synchronous endpoint: message + history in, final text out.
func (c *ChatController) Chat(ctx fiber.Ctx) error {
	var req chatRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Message is required")
	}

	session, loop, err := c.newSessionAgent()
	if err != nil {
		log.Error().Err(err).Msg("failed to construct agent")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to start chat session")
	}

	result, err := loop.ChatSync(ctx.RequestCtx(), agent.ChatRequest{
		SessionID: session.ID,
		Message:   req.Message,
		History:   toHistory(req.History),
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("chat failed")
	}

	return ctx.JSON(chatResponse{
		SessionID: session.ID,
		Text:      result.Text,
		Usage:     result.Usage,
	})
}

// ChatStream handles the streaming endpoint. The response is NDJSON: token
// lines as model output arrives, status lines from the loop's broadcaster,
// and one terminal done line carrying the full final text.
func (c *ChatController) ChatStream(ctx fiber.Ctx) error {
	var req chatRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Message is required")
	}

	session, loop, err := c.newSessionAgent()
	if err != nil {
		log.Error().Err(err).Msg("failed to construct agent")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to start chat session")
	}

	requestCtx := ctx.RequestCtx()

	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")

	return ctx.SendStreamWriter(func(w *bufio.Writer) {
		lines := make(chan streamLine, 64)

		// Closed when the writer loop exits early (client gone, write
		// failure) so neither producer blocks on a channel nobody drains.
		writerGone := make(chan struct{})
		defer close(writerGone)

		send := func(line streamLine) {
			select {
			case lines <- line:
			case <-writerGone:
			}
		}

		statusEvents, cancel := loop.Status.Subscribe()

		var forwarder sync.WaitGroup
		forwarder.Add(1)
		go func() {
			defer forwarder.Done()
			for event := range statusEvents {
				event := event
				send(streamLine{Type: "status", Status: &event})
			}
		}()

		go func() {
			result, err := loop.ChatStream(requestCtx, agent.ChatRequest{
				SessionID: session.ID,
				Message:   req.Message,
				History:   toHistory(req.History),
			}, func(token string) {
				send(streamLine{Type: "token", Content: token})
			})
			if err != nil {
				log.Error().Err(err).Str("session_id", session.ID).Msg("streaming chat failed")
			}

			// The loop publishes its final status events right before
			// ChatStream returns. Stop the forwarder before closing lines
			// so it cannot send on a closed channel: cancel ends its
			// subscription and the wait lets it flush what is buffered.
			cancel()
			forwarder.Wait()

			send(streamLine{Type: "done", Text: result.Text})
			close(lines)
		}()

		encoder := json.NewEncoder(w)
		for line := range lines {
			if err := encoder.Encode(line); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}

func (c *ChatController) newSessionAgent() (*builder.Session, *agent.Agent, error) {
	session := builder.NewSession(c.index, c.runtime)

	loop, err := agent.New(
		agent.WithModel(c.model),
		agent.WithSystemPrompt(builder.SystemPrompt),
		agent.WithTools(session.Tools()...),
	)
	if err != nil {
		return nil, nil, err
	}

	return session, loop, nil
}

func toHistory(messages []chatMessage) []types.Message {
	history := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		role := types.MessageRole(msg.Role)
		if role != types.RoleUser && role != types.RoleAssistant {
			continue
		}
		history = append(history, types.Message{Role: role, Content: msg.Content})
	}

	return history
}
