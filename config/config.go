package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	Host       string
	Port       int
	SSL        bool
	CertFile   string
	KeyFile    string
	ArchiveDSN string
}

func Load() *Config {
	return &Config{
		Host:       getEnv("CHAT_HOST", "localhost"),
		Port:       getEnvInt("CHAT_PORT", 8765),
		ArchiveDSN: getEnv("ARCHIVE_DSN", ""),
	}
}

// Validate checks the startup configuration. Any error here is fatal:
// the process must not start serving with broken TLS material.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SSL {
		if c.CertFile == "" || c.KeyFile == "" {
			return fmt.Errorf("--ssl requires both --cert and --key")
		}
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv reads an environment variable and returns its value or a default value
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Environment variable %s is not a number, using default value: %d", key, defaultValue)
		return defaultValue
	}
	return n
}
