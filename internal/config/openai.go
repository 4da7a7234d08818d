package config

// GetOpenAIKey returns the OpenAI API key, empty when not configured.
// The barista agent is disabled without it; the room server still runs.
func GetOpenAIKey() string {
	return GetEnvOrDefault("OPENAI_KEY", "")
}
