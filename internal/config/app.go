package config

type AppConfig struct {
	MetricsAddress string `yaml:"metrics-addr"`
}

func (s *AppConfig) MetricsAddr() string {
	return s.MetricsAddress
}
