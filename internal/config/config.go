package config

import (
	"flag"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env   string      `yaml:"env" env:"ENV" env-default:"local"`
	HTTP  HTTPConfig  `yaml:"http"`
	CORS  CORSConfig  `yaml:"cors"`
	Rooms RoomsConfig `yaml:"rooms"`
}

type HTTPConfig struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
}

type CORSConfig struct {
	// AllowedOrigins is comma-separated when supplied via environment.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:""`
}

type RoomsConfig struct {
	CommentHistoryLimit int `yaml:"comment_history_limit" env:"COMMENT_HISTORY_LIMIT" env-default:"200"`
	ChatHistoryLimit    int `yaml:"chat_history_limit" env:"CHAT_HISTORY_LIMIT" env-default:"100"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Rooms.CommentHistoryLimit <= 0 {
		c.Rooms.CommentHistoryLimit = 200
	}
	if c.Rooms.ChatHistoryLimit <= 0 {
		c.Rooms.ChatHistoryLimit = 100
	}
}
