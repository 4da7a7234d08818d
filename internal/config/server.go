package config

// GetServerPort returns the HTTP listen port.
func GetServerPort() string {
	return GetEnvOrDefault("PORT", "8080")
}

// GetAdvertisedWSURL returns the websocket base URL handed to clients in
// session responses, e.g. "ws://127.0.0.1:8080".
func GetAdvertisedWSURL() string {
	return GetEnvOrDefault("WS_URL", "ws://127.0.0.1:"+GetServerPort())
}
