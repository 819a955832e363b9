package config

type StorageConfig struct {
	DriverName string `yaml:"driver"`
	Hostname   string `yaml:"host"`
	Db         string `yaml:"db"`
	User       string `yaml:"username"`
	Pswd       string `yaml:"password"`
	SQLitePath string `yaml:"sqlite-path"`
}

func (s *StorageConfig) Driver() string {
	return s.DriverName
}

func (s *StorageConfig) Host() string {
	return s.Hostname
}

func (s *StorageConfig) Database() string {
	return s.Db
}

func (s *StorageConfig) Username() string {
	return s.User
}

func (s *StorageConfig) Password() string {
	return s.Pswd
}

func (s *StorageConfig) Path() string {
	return s.SQLitePath
}
