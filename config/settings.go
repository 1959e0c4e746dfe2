// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Optional config file loading (.env format) via godotenv
// - Environment variable parsing with validation
// - Default value application

package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultConfigFile is read by Load when no other file is named.
const DefaultConfigFile = "code-directory.conf"

// DefaultLogFile receives log output when CODEDIR_LOG_FILE is unset.
const DefaultLogFile = "codedir.log"

// Settings holds all application configuration.
type Settings struct {
	Storage StorageConfig
	Loader  LoaderConfig
	Server  ServerConfig
	LogFile string
}

// StorageConfig locates the rate table.
type StorageConfig struct {
	DBPath string
}

// LoaderConfig tunes how trees are built from the rate table.
type LoaderConfig struct {
	LineCount   int // rows fetched per page
	ThreadCount int // 0 means one worker per CPU
}

// ServerConfig holds the query server's listening configuration.
type ServerConfig struct {
	Address        string
	Port           int
	ReloadInterval time.Duration // 0 disables periodic reloads
}

// Workers returns the effective loader worker count.
func (c LoaderConfig) Workers() int {
	if c.ThreadCount <= 0 {
		return runtime.NumCPU()
	}
	return c.ThreadCount
}

// ListenAddr returns the host:port the server binds to.
func (c ServerConfig) ListenAddr() string {
	host := strings.TrimPrefix(strings.TrimPrefix(c.Address, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")
	return host + ":" + strconv.Itoa(c.Port)
}

// Load reads path into the process environment without overriding variables
// already set. A missing file is not an error; the returned bool reports
// whether the file was read.
func Load(path string) (bool, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return true, nil
}

// New creates settings from environment variables.
// Returns an error if environment variables contain invalid values.
func New() (Settings, error) {
	lineCount, err := getEnvInt("CODEDIR_LINE_COUNT", 1000)
	if err != nil {
		return Settings{}, err
	}
	if lineCount <= 0 {
		return Settings{}, fmt.Errorf("invalid value for CODEDIR_LINE_COUNT: %d: must be positive", lineCount)
	}

	threadCount, err := getEnvInt("CODEDIR_THREADS", 0)
	if err != nil {
		return Settings{}, err
	}

	port, err := getEnvInt("CODEDIR_PORT", 8008)
	if err != nil {
		return Settings{}, err
	}

	reload, err := getEnvInt("CODEDIR_RELOAD_SECONDS", 0)
	if err != nil {
		return Settings{}, err
	}

	address := getEnvString("CODEDIR_ADDRESS", "http://127.0.0.1")
	if err := ValidateAddress(address); err != nil {
		return Settings{}, err
	}

	return Settings{
		Storage: StorageConfig{
			DBPath: getEnvString("CODEDIR_DB", ".codedir/rates.db"),
		},
		Loader: LoaderConfig{
			LineCount:   lineCount,
			ThreadCount: threadCount,
		},
		Server: ServerConfig{
			Address:        address,
			Port:           port,
			ReloadInterval: time.Duration(reload) * time.Second,
		},
		LogFile: getEnvString("CODEDIR_LOG_FILE", DefaultLogFile),
	}, nil
}

// MustNew creates settings from environment variables.
// Panics if environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// ValidateAddress checks that a server address carries an http or https scheme.
func ValidateAddress(address string) error {
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		return fmt.Errorf("invalid address %q: must start with http:// or https://", address)
	}
	return nil
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}
