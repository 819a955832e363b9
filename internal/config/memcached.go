package config

type MemcachedConfig struct {
	NodeHosts      []string `yaml:"hosts"`
	ReportCacheTTL int64    `yaml:"report-cache-ttl-seconds"`
}

func (s *MemcachedConfig) Hosts() []string {
	return s.NodeHosts
}

func (s *MemcachedConfig) ReportCacheTTLSeconds() int64 {
	return s.ReportCacheTTL
}
