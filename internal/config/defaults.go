package config

// defaultModels maps each provider to the model used when none is configured.
// Extraction runs at low temperature against scanned forms, so the fast
// multimodal tier of each provider is enough.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic: "claude-haiku-4-5-20251001",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderGoogle:    "gemini-2.5-flash",
	ProviderOllama:    "llava",
}

// DefaultModel returns the default model for the given provider.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderGoogle]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderGoogle,
		Model:           DefaultModel(ProviderGoogle),
		EncuestasAPIURL: "https://encuestas.sw2ficct.lat/api",
		Port:            8000,
		DataDir:         "data",
		RedisAddr:       "localhost:6379",
		RateLimitRPM:    60,
		MaxAudioMB:      25,
	}
}
