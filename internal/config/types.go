package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// StorageConfig holds S3-compatible object storage settings. Uploaded
// scans and audio clips land here; when the endpoint is empty the
// service skips uploads instead of failing.
type StorageConfig struct {
	Endpoint      string `yaml:"endpoint" koanf:"endpoint"`
	Bucket        string `yaml:"bucket" koanf:"bucket"`
	AccessKey     string `yaml:"access_key" koanf:"access_key"`
	SecretKey     string `yaml:"secret_key" koanf:"secret_key"`
	UseSSL        bool   `yaml:"use_ssl" koanf:"use_ssl"`
	PublicBaseURL string `yaml:"public_base_url" koanf:"public_base_url"`
}

// Config is the top-level survscan configuration, corresponding to .survscan.yml.
type Config struct {
	Provider        ProviderType  `yaml:"provider" koanf:"provider"`
	Model           string        `yaml:"model" koanf:"model"`
	EncuestasAPIURL string        `yaml:"encuestas_api_url" koanf:"encuestas_api_url"`
	Port            int           `yaml:"port" koanf:"port"`
	DataDir         string        `yaml:"data_dir" koanf:"data_dir"`
	Storage         StorageConfig `yaml:"storage" koanf:"storage"`
	RedisAddr       string        `yaml:"redis_addr" koanf:"redis_addr"`
	MongoURL        string        `yaml:"mongo_url" koanf:"mongo_url"`
	FCMServerKey    string        `yaml:"fcm_server_key" koanf:"fcm_server_key"`
	RateLimitRPM    int           `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	MaxAudioMB      int           `yaml:"max_audio_mb" koanf:"max_audio_mb"`
}
