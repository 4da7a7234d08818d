package config

// GetAgentModel returns the chat model the barista agent runs on.
func GetAgentModel() string {
	return GetEnvOrDefault("AGENT_MODEL", "gpt-4o")
}

// GetAgentIdentity returns the room identity the barista agent joins with.
// Transcript consumers classify senders by the "agent" substring, so the
// default must keep it.
func GetAgentIdentity() string {
	return GetEnvOrDefault("AGENT_IDENTITY", "barista-agent")
}
