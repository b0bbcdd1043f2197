package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"PORT" env-default:"3000"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

// Redis is optional; leaving the host empty disables the snapshot mirror.
type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	IdleTimeout  time.Duration `yaml:"idle-timeout" env:"GAME_IDLE_TIMEOUT" env-default:"20m"`
	ReapInterval time.Duration `yaml:"reap-interval" env:"GAME_REAP_INTERVAL" env-default:"10m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
