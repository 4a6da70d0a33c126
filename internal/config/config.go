package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "data/config.yaml"
	configFileEnvKey  = "CONFIG_FILE"
)

type config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type Service struct {
	config config
}

// New loads .env (if any) and then the YAML file named by CONFIG_FILE.
func New() (*Service, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "loading .env")
	}

	path := os.Getenv(configFileEnvKey)
	if path == "" {
		path = defaultConfigFile
	}
	return FromFile(path)
}

func FromFile(path string) (*Service, error) {
	rawYAML, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(rawYAML)
}

func Parse(rawYAML []byte) (*Service, error) {
	s := &Service{config: defaults()}

	err := yaml.Unmarshal(rawYAML, &s.config)
	if err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}

	if err = s.config.Database.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid database config")
	}
	return s, nil
}

func defaults() config {
	return config{
		App: AppConfig{
			Addr:                   defaultListenAddr,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		Database: DatabaseConfig{
			DriverName: DriverSQLite,
			FilePath:   defaultSQLitePath,
		},
		Tracing: TracingConfig{
			Service: defaultServiceName,
		},
	}
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}

func (s *Service) Database() *DatabaseConfig {
	return &s.config.Database
}

func (s *Service) Tracing() *TracingConfig {
	return &s.config.Tracing
}
