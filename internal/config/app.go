package config

import "time"

const (
	defaultListenAddr             = ":8000"
	defaultShutdownTimeoutSeconds = 5
)

type AppConfig struct {
	Addr                   string `yaml:"listen-addr"`
	ShutdownTimeoutSeconds int64  `yaml:"shutdown-timeout-seconds"`
}

func (s *AppConfig) ListenAddr() string {
	return s.Addr
}

func (s *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}
