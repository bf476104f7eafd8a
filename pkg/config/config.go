package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Paperless PaperlessConfig `yaml:"paperless" json:"paperless"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig holds the FTP-facing configuration
type ServerConfig struct {
	// ListenAddr is the control connection bind address, IP and port both
	// required, e.g. "0.0.0.0:2121" or "[::]:2121".
	ListenAddr string `yaml:"listenAddr" json:"listenAddr"`
	// PassivePorts is the data connection port range in the form
	// "start-end", e.g. "2122-2124".
	PassivePorts string `yaml:"passivePorts" json:"passivePorts"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	// Name is used as the server greeting
	Name string `yaml:"name" json:"name"`
}

// PaperlessConfig holds the document ingestion API settings
type PaperlessConfig struct {
	URL      string `yaml:"url" json:"url"`
	APIToken string `yaml:"apiToken" json:"apiToken"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// DefaultConfig Default configuration values. Username, password, URL and
// API token have no usable defaults and must come from the config file,
// environment or flags.
var DefaultConfig = Config{
	Server: ServerConfig{
		ListenAddr:   "0.0.0.0:2121",
		PassivePorts: "2122-2124",
		Name:         "ftpbridge",
	},
	Logging: LoggingConfig{
		Level:  "INFO",
		Format: "text",
		Output: "stdout",
	},
}

// LoadConfig loads configuration from multiple sources in order of precedence:
// 1. Environment variables (highest precedence)
// 2. Configuration file
// 3. Default values (lowest precedence)
//
// Validation is deliberately not performed here: callers overlay CLI flags
// on top of the result and call Validate afterwards.
func LoadConfig() (*Config, string, error) {
	config := DefaultConfig

	path, err := loadFromFile(&config)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	loadFromEnv(&config)

	return &config, path, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *Config) (string, error) {
	configPaths := []string{
		os.Getenv("FTPBRIDGE_CONFIG_PATH"), // Custom path from environment
		"./ftpbridge.yaml",                 // Current directory
		"/etc/ftpbridge/config.yaml",       // System-wide
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	if val := os.Getenv("FTPBRIDGE_LISTEN"); val != "" {
		config.Server.ListenAddr = val
	}
	if val := os.Getenv("FTPBRIDGE_PASSIVE_PORTS"); val != "" {
		config.Server.PassivePorts = val
	}
	if val := os.Getenv("FTPBRIDGE_USERNAME"); val != "" {
		config.Server.Username = val
	}
	if val := os.Getenv("FTPBRIDGE_PASSWORD"); val != "" {
		config.Server.Password = val
	}
	if val := os.Getenv("FTPBRIDGE_SERVER_NAME"); val != "" {
		config.Server.Name = val
	}
	if val := os.Getenv("FTPBRIDGE_PAPERLESS_URL"); val != "" {
		config.Paperless.URL = val
	}
	if val := os.Getenv("FTPBRIDGE_PAPERLESS_API_TOKEN"); val != "" {
		config.Paperless.APIToken = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		config.Logging.Format = val
	}
	if val := os.Getenv("LOG_OUTPUT"); val != "" {
		config.Logging.Output = val
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, _, err := c.Server.SplitListenAddr(); err != nil {
		return err
	}

	if _, _, err := ParsePortRange(c.Server.PassivePorts); err != nil {
		return err
	}

	if c.Server.Username == "" {
		return fmt.Errorf("FTP username is required")
	}
	if c.Server.Password == "" {
		return fmt.Errorf("FTP password is required")
	}
	if c.Paperless.URL == "" {
		return fmt.Errorf("paperless URL is required")
	}
	if c.Paperless.APIToken == "" {
		return fmt.Errorf("paperless API token is required")
	}

	validLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true,
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// SplitListenAddr splits the listen address into host and numeric port.
// Both parts must be present.
func (s *ServerConfig) SplitListenAddr() (string, int, error) {
	host, portStr, err := net.SplitHostPort(s.ListenAddr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q, must be in format IP:PORT (e.g. 0.0.0.0:2121 or [::]:2121): %w", s.ListenAddr, err)
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid listen address %q: IP part is required", s.ListenAddr)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid listen address %q: bad port %q", s.ListenAddr, portStr)
	}

	return host, port, nil
}

// ParsePortRange parses a passive mode port range of the form "2122-3333".
// Both bounds must parse as 16-bit integers.
func ParsePortRange(src string) (uint16, uint16, error) {
	parts := strings.Split(src, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("wrong format for port range %q, should be in the format 2222-3333", src)
	}

	start, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("first number of port range %q can't be parsed", src)
	}
	end, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("second number of port range %q can't be parsed", src)
	}

	if start > end {
		return 0, 0, fmt.Errorf("port range %q is inverted", src)
	}

	return uint16(start), uint16(end), nil
}

// Redacted returns a copy of the configuration with secrets masked,
// suitable for printing.
func (c *Config) Redacted() Config {
	out := *c
	if out.Server.Password != "" {
		out.Server.Password = "********"
	}
	if out.Paperless.APIToken != "" {
		out.Paperless.APIToken = "********"
	}
	return out
}

func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
