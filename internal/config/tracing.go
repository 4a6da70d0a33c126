package config

const defaultServiceName = "expense-tracker"

type TracingConfig struct {
	On        bool   `yaml:"enabled"`
	Service   string `yaml:"service-name"`
	AgentAddr string `yaml:"agent-addr"`
}

func (s *TracingConfig) Enabled() bool {
	return s.On
}

func (s *TracingConfig) ServiceName() string {
	return s.Service
}

func (s *TracingConfig) AgentHostPort() string {
	return s.AgentAddr
}
