// Package config loads optional project-level configuration for tstrans.
//
// A .tstrans.yaml file next to the TS file supplies defaults for the API
// endpoint, model, timeout, and target language, so repeated runs don't need
// the full flag set. The API token itself never lives in the YAML file; it
// is resolved from the command line, the environment, or a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file name.
const FileName = ".tstrans.yaml"

// File is the .tstrans.yaml schema.
type File struct {
	// APIURL overrides the chat-completions endpoint.
	APIURL string `yaml:"api_url,omitempty"`
	// Model overrides the model name.
	Model string `yaml:"model,omitempty"`
	// TimeoutSeconds overrides the per-request timeout.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// Language overrides the TS file's language attribute.
	Language string `yaml:"language,omitempty"`
	// TranslateEmpty makes empty finished translations candidates by default.
	TranslateEmpty bool `yaml:"translate_empty,omitempty"`
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
}

// Load reads .tstrans.yaml from dir. Returns nil when no file exists.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("%s: timeout_seconds must not be negative", path)
	}
	return &f, nil
}

// Environment variables checked for the API token, in order.
var tokenEnvVars = []string{"OPENAI_API_TOKEN", "OPENAI_API_KEY"}

// Token resolves the API token from the environment, consulting a .env file
// in dir first (variables already set in the environment win). Returns an
// empty string when nothing is configured.
func Token(dir string) string {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	for _, env := range tokenEnvVars {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}
