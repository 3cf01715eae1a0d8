package arrumaessevideo

import "github.com/spf13/viper"

type Config struct {
	APIKey     string `mapstructure:"api_key"`
	Language   string `mapstructure:"language"`
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}
