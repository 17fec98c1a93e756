package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Конечная структура конфигурации приложения.
// Расширяем по мере роста проекта.
type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`   // 0.0.0.0
		HTTPPort string `mapstructure:"http_port"` // 8080
	} `mapstructure:"server"`

	Logging struct {
		Level  string `mapstructure:"level"`  // trace|debug|info|warning|error|fatal
		Format string `mapstructure:"format"` // text|json
		File   string `mapstructure:"file"`   // путь/префикс файла, пусто — только stdout
	} `mapstructure:"logs"`

	Database struct {
		Driver string `mapstructure:"driver"` // "postgres" | "mysql"
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	JWT struct {
		AccessSecret  string `mapstructure:"access_secret"`
		RefreshSecret string `mapstructure:"refresh_secret"`
		AccessExpire  string `mapstructure:"access_expire"`  // "1h"
		RefreshExpire string `mapstructure:"refresh_expire"` // "7d"
	} `mapstructure:"jwt"`

	OTP struct {
		ExpireMin int `mapstructure:"expire_min"` // срок жизни кода, минут
	} `mapstructure:"otp"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`

	// Первый администратор: создаётся на старте, если админов ещё нет
	// и заданы все три значения.
	FirstAdmin struct {
		Name     string `mapstructure:"name"`
		Email    string `mapstructure:"email"`
		Password string `mapstructure:"password"`
	} `mapstructure:"first_admin"`
}

// Load читает конфиг из env/файла с дефолтами.
func Load() (*Config, error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Дефолты (минимальный рабочий набор)
	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("server.http_port", "8080")

	viper.SetDefault("logs.level", "info")
	viper.SetDefault("logs.format", "text")
	viper.SetDefault("logs.file", "")

	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.dsn", "")

	viper.SetDefault("jwt.access_secret", "CHANGE_ME")
	viper.SetDefault("jwt.refresh_secret", "CHANGE_ME")
	viper.SetDefault("jwt.access_expire", "1h")
	viper.SetDefault("jwt.refresh_expire", "7d")

	viper.SetDefault("otp.expire_min", 10)

	viper.SetDefault("smtp.host", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from", "")

	viper.SetDefault("first_admin.name", "")
	viper.SetDefault("first_admin.email", "")
	viper.SetDefault("first_admin.password", "")

	// Источник файла
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "tally"))
		}
		viper.AddConfigPath("/etc/tally")
	}

	// Чтение файла (опционально)
	if err := viper.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func validate(c *Config) error {
	if s := strings.TrimSpace(c.JWT.AccessSecret); s == "" || s == "CHANGE_ME" {
		return errors.New("jwt.access_secret must be set (not empty and not CHANGE_ME)")
	}
	if s := strings.TrimSpace(c.JWT.RefreshSecret); s == "" || s == "CHANGE_ME" {
		return errors.New("jwt.refresh_secret must be set (not empty and not CHANGE_ME)")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn must not be empty")
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	if c.OTP.ExpireMin <= 0 {
		return errors.New("otp.expire_min must be positive")
	}
	return nil
}
