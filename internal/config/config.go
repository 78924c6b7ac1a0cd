// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/atinyakov/docverify/internal/codegen"
)

// MinCodeLength is the shortest public code the server will issue.
const MinCodeLength = 16

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// LogLevel is the minimum level written by the logger.
	LogLevel string `json:"log_level"`

	// CodeLength is the length of issued public codes.
	CodeLength int `json:"code_length"`

	// TLSCertFile and TLSKeyFile switch the server to HTTPS when both are set.
	TLSCertFile string `json:"tls_cert"`
	TLSKeyFile  string `json:"tls_key"`

	// TrustProxy makes the server take the client address from
	// X-Forwarded-For / X-Real-IP.
	TrustProxy bool `json:"trust_proxy"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Parse parses args (without the program name) and the environment into
// Options. Precedence, lowest to highest: defaults, flags, config file,
// environment variables.
func Parse(args []string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("docverify", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.IntVar(&options.CodeLength, "code-length", codegen.DefaultLength, "length of issued public codes")
	fs.StringVar(&options.TLSCertFile, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&options.TLSKeyFile, "tls-key", "", "path to TLS private key")
	fs.BoolVar(&options.TrustProxy, "trust-proxy", false, "trust X-Forwarded-For / X-Real-IP")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := applyEnv(options); err != nil {
		return nil, err
	}

	if options.CodeLength < MinCodeLength {
		return nil, fmt.Errorf("code length %d is below the minimum of %d", options.CodeLength, MinCodeLength)
	}

	return options, nil
}

func applyEnv(options *Options) error {
	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	if cert := os.Getenv("TLS_CERT"); cert != "" {
		options.TLSCertFile = cert
	}
	if key := os.Getenv("TLS_KEY"); key != "" {
		options.TLSKeyFile = key
	}
	if v := os.Getenv("CODE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CODE_LENGTH: %w", err)
		}
		options.CodeLength = n
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse TRUST_PROXY: %w", err)
		}
		options.TrustProxy = b
	}
	return nil
}

// TLSEnabled reports whether both TLS files are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCertFile != "" && o.TLSKeyFile != ""
}
