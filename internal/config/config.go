package config

type Config interface {
	EnvConfig
	AuthConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Auth
}

func New() Config {
	return mainConfig{}
}
