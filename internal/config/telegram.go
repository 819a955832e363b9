package config

type TelegramConfig struct {
	BotToken string `yaml:"token"`
}

func (s *TelegramConfig) Token() string {
	return s.BotToken
}
