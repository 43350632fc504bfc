package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sir_venger/omnifileserve/internal/logger"
)

const defaultConfigPath = "./config.yaml"

type Config struct {
	ListenAddr      string        `yaml:"listen_addr" json:"listen_addr" default:":2425" validate:"required"`
	StorageRoot     string        `yaml:"storage_root" json:"storage_root" default:"./storage" validate:"required"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" json:"max_upload_bytes" default:"1073741824" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" default:"15s" validate:"gt=0"`
	GC              GCConfig      `yaml:"gc" json:"gc"`
	Log             logger.Config `yaml:"log" json:"log"`
}

// GCConfig — уборка staging-файлов прерванных записей. Нулевой interval отключает фоновый GC.
type GCConfig struct {
	TTL      time.Duration `yaml:"ttl" json:"ttl" default:"24h" validate:"gt=0"`
	Interval time.Duration `yaml:"interval" json:"interval" default:"30m" validate:"gte=0"`
}

// Load читает .env, YAML-конфигурацию из CONFIG_PATH (по умолчанию ./config.yaml),
// применяет ENV-переопределения и дефолты и проверяет результат.
// Отсутствующий файл конфигурации не ошибка: работают дефолты и ENV.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(getenv("CONFIG_PATH", defaultConfigPath))
}

// LoadFile делает то же, что Load, для явно заданного файла.
func LoadFile(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err = applyEnv(&c); err != nil {
		return nil, err
	}

	if err = defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate проверяет конфигурацию по тегам validate.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ENV override
func applyEnv(c *Config) error {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("STORAGE_ROOT"); v != "" {
		c.StorageRoot = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_ENCODING"); v != "" {
		c.Log.Encoding = v
	}

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
