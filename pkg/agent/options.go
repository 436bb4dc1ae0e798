package agent

import (
	"github.com/flowsmith/flowsmith/pkg/agent/provider"
	"github.com/flowsmith/flowsmith/pkg/agent/tool"
)

type Option func(*Agent)

func WithModel(m provider.LanguageModel) Option {
	return func(a *Agent) {
		a.Model = m
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.SystemPrompt = prompt
	}
}

func WithMaxIterations(iterations int) Option {
	return func(a *Agent) {
		a.MaxIterations = iterations
	}
}

func WithTools(tools ...tool.Tool) Option {
	return func(a *Agent) {
		a.Tools = append(a.Tools, tools...)
	}
}

func WithStatusBroadcaster(b *StatusBroadcaster) Option {
	return func(a *Agent) {
		a.Status = b
	}
}
