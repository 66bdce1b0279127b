package providers

// NewKimiBackend builds an OpenAI-compatible backend pointed at Moonshot's
// Kimi endpoint, with reasoning_content preservation turned on: each
// streamed chunk may carry a reasoning field that must be concatenated
// and round-tripped in the next turn's assistant message, or the server
// rejects subsequent tool calls.
func NewKimiBackend(apiKey, baseURL, model string) *OpenAICompatibleBackend {
	if baseURL == "" {
		baseURL = "https://api.moonshot.cn/v1"
	}
	if model == "" {
		model = "moonshot-v1-8k"
	}
	return NewOpenAICompatibleBackend(OpenAIBackendConfig{
		APIKey:            apiKey,
		BaseURL:           baseURL,
		Model:             model,
		NativeTools:       true,
		PreserveReasoning: true,
		Name:              "kimi",
	})
}
