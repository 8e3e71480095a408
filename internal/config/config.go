package config

type Config interface {
	EnvConfig
	AsanaConfig
	SessionConfig
	RateLimitConfig
}

type mainConfig struct {
	EnvVars
	Asana
	Session
	RateLimit
}

func New() Config {
	return mainConfig{}
}
