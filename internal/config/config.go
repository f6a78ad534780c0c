package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/moneyflow-dev/moneyflow/internal/logger"
)

type ServerConfig struct {
	Port    string `toml:"port"`
	Timeout int    `toml:"timeout"`
}

type Config struct {
	DB     string        `toml:"db"`
	Logger logger.Config `toml:"logger"`
	Server ServerConfig  `toml:"server"`
}

const (
	defaultDBFile    = "moneyflow.db"
	defaultLogLevel  = logger.LevelInfo
	defaultLogFormat = logger.FormatText
	defaultLogOutput = "stdout"
	defaultPort      = "8080"
	defaultTimeout   = 3
)

// Parse loads the TOML configuration file when present and applies
// MONEYFLOW_* environment overrides on top. A missing file is not an
// error; the environment and defaults cover every field.
func Parse(path string) (*Config, error) {
	conf := &Config{}

	content, err := os.ReadFile(path)
	if err == nil {
		if unmarshalErr := toml.Unmarshal(content, conf); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, unmarshalErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	conf.parseEnv()
	conf.applyDefaults()

	return conf, nil
}

func (c *Config) parseEnv() {
	if db := os.Getenv("MONEYFLOW_DB"); db != "" {
		c.DB = db
	}

	if level := os.Getenv("MONEYFLOW_LOG_LEVEL"); level != "" {
		c.Logger.Level = logger.Level(level)
	}

	if format := os.Getenv("MONEYFLOW_LOG_FORMAT"); format != "" {
		c.Logger.Format = logger.Format(format)
	}

	if output := os.Getenv("MONEYFLOW_LOG_OUTPUT"); output != "" {
		c.Logger.Output = output
	}

	if port := os.Getenv("MONEYFLOW_PORT"); port != "" {
		c.Server.Port = port
	}

	if timeout := os.Getenv("MONEYFLOW_TIMEOUT"); timeout != "" {
		if value, err := strconv.Atoi(timeout); err == nil {
			c.Server.Timeout = value
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DB == "" {
		c.DB = defaultDBFile
	}

	if c.Logger.Level == "" {
		c.Logger.Level = defaultLogLevel
	}

	if c.Logger.Format == "" {
		c.Logger.Format = defaultLogFormat
	}

	if c.Logger.Output == "" {
		c.Logger.Output = defaultLogOutput
	}

	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}

	if c.Server.Timeout == 0 {
		c.Server.Timeout = defaultTimeout
	}
}
