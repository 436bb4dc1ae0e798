package domain

import (
	"context"
	"errors"
)

var ErrSettingNotFound = errors.New("setting not found")

// Common setting keys. Runtime connection details and model credentials are
// resolved through these, overridable per call.
const (
	SettingRuntimeBaseURL = "runtime.base_url"
	SettingRuntimeAPIKey  = "runtime.api_key"
	SettingLLMProvider    = "llm.provider"
	SettingLLMModel       = "llm.model"
	SettingAnthropicKey   = "anthropic.api_key"
	SettingOpenAIKey      = "openai.api_key"
)

// SettingsStore is the persisted string key/value configuration store.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
