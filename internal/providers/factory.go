package providers

import (
	"context"
	"fmt"

	"github.com/utenadev/familiar-ai/internal/config"
)

// New constructs the Backend selected by cfg.Platform. TOOLS_MODE only
// affects the openai platform; kimi, Anthropic and Gemini always use
// their native tool-calling protocol, and cli always uses prompt tooling.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Platform {
	case config.PlatformAnthropic:
		return NewAnthropicBackend(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.PlatformOpenAI:
		return NewOpenAICompatibleBackend(OpenAIBackendConfig{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			NativeTools:     cfg.ToolsMode == config.ToolsNative,
			StrictMaxTokens: cfg.BaseURL == "" || cfg.BaseURL == "https://api.openai.com/v1",
			Name:            "openai",
		}), nil
	case config.PlatformKimi:
		return NewKimiBackend(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case config.PlatformGemini:
		return NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
	case config.PlatformCLI:
		return NewCLIBackend(cfg.Model), nil
	default:
		return nil, fmt.Errorf("providers: unknown platform %q", cfg.Platform)
	}
}
