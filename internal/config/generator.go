package config

import "os"

// GeneratorConfig holds the content-generation API settings. With no API key
// the generator runs in fallback-only mode and the game still plays end to
// end with deterministic content.
type GeneratorConfig struct {
	APIKey      string  `json:"-"` // Never serialize
	BaseURL     string  `json:"baseUrl"`
	Model       string  `json:"model"`
	TimeoutMS   int     `json:"timeoutMs"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

// DefaultGeneratorConfig returns the env-driven generator configuration.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		APIKey:      os.Getenv("GROQ_API_KEY"),
		BaseURL:     getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		Model:       getEnvOrDefault("GROQ_MODEL", "llama-3.1-8b-instant"),
		TimeoutMS:   10000,
		MaxTokens:   500,
		Temperature: 0.8,
	}
}

// IsEnabled returns true if the generation API is configured.
func (c *GeneratorConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ChatEndpoint returns the chat-completions endpoint.
func (c *GeneratorConfig) ChatEndpoint() string {
	return c.BaseURL + "/chat/completions"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
