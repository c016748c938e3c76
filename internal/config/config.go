package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrEnvFileNotFound is returned when the .env file is not found
	ErrEnvFileNotFound = errors.New(".env file not found")

	loadOnce sync.Once
	loadErr  error
)

// Settings holds the process-level configuration of the dispatch service
type Settings struct {
	Port                   int
	RulesFile              string
	RedisAddr              string
	CacheTTL               time.Duration
	MaxConcurrentIncidents int
	RequestTimeout         time.Duration
	LogLevel               string
	LogFormat              string
}

// Load reads .env (if present) and the environment into Settings
func Load() (*Settings, error) {
	if err := LoadEnv(); err != nil && !errors.Is(err, ErrEnvFileNotFound) {
		return nil, err
	}

	s := &Settings{
		Port:                   GetInt("PORT", 8080),
		RulesFile:              Get("SAHM_RULES_FILE", ""),
		RedisAddr:              strings.TrimPrefix(Get("REDIS_ADDR", ""), "redis://"),
		CacheTTL:               time.Duration(GetInt("CACHE_TTL_SECONDS", 600)) * time.Second,
		MaxConcurrentIncidents: GetInt("MAX_CONCURRENT_INCIDENTS", 8),
		RequestTimeout:         time.Duration(GetInt("API_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:               Get("LOG_LEVEL", "info"),
		LogFormat:              Get("LOG_FORMAT", "text"),
	}
	if s.Port <= 0 || s.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", s.Port)
	}
	if s.MaxConcurrentIncidents <= 0 {
		s.MaxConcurrentIncidents = 1
	}
	return s, nil
}

// LoadEnv loads environment variables from the .env file once per process
func LoadEnv() error {
	loadOnce.Do(func() {
		loadErr = loadEnvFile(".env")
	})
	return loadErr
}

// loadEnvFile reads KEY=VALUE lines; variables already set in the environment win
func loadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrEnvFileNotFound
		}
		return fmt.Errorf("error opening .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	// Remove quotes if present
	if len(value) > 1 && (value[0] == '"' && value[len(value)-1] == '"' ||
		value[0] == '\'' && value[len(value)-1] == '\'') {
		value = value[1 : len(value)-1]
	}
	return key, value, key != ""
}

// Get retrieves an environment variable with a fallback value
func Get(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// MustGet retrieves an environment variable or panics if it's not set
func MustGet(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

// GetInt retrieves an integer environment variable with a fallback value
func GetInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return fallback
}

// GetBool retrieves a boolean environment variable with a fallback value
func GetBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "y":
			return true
		case "false", "0", "no", "n":
			return false
		}
	}
	return fallback
}
