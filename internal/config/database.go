package config

import "fmt"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLitePath = "data/expenses.db"
)

type DatabaseConfig struct {
	DriverName string `yaml:"driver"`
	FilePath   string `yaml:"path"`
	Hostname   string `yaml:"host"`
	Db         string `yaml:"db"`
	User       string `yaml:"username"`
	Pswd       string `yaml:"password"`
}

func (s *DatabaseConfig) validate() error {
	switch s.DriverName {
	case DriverSQLite:
		if s.FilePath == "" {
			return fmt.Errorf("sqlite driver needs a path")
		}
	case DriverPostgres:
		if s.Hostname == "" || s.Db == "" {
			return fmt.Errorf("postgres driver needs host and db")
		}
	default:
		return fmt.Errorf("unsupported driver %q", s.DriverName)
	}
	return nil
}

func (s *DatabaseConfig) Driver() string {
	return s.DriverName
}

func (s *DatabaseConfig) Path() string {
	return s.FilePath
}

func (s *DatabaseConfig) Host() string {
	return s.Hostname
}

func (s *DatabaseConfig) Database() string {
	return s.Db
}

func (s *DatabaseConfig) Username() string {
	return s.User
}

func (s *DatabaseConfig) Password() string {
	return s.Pswd
}
