package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/cloudverse/internal/logging"
	"github.com/abhisek/cloudverse/internal/store"
)

// NewProvider builds the configured provider as
// caller → retry → request log → vendor SDK.
// A nil logger discards warnings.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *logging.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		base = NewOfflineProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, eventRepo, logger)
	return WithRetry(logged, cfg.Retry, logger), nil
}
