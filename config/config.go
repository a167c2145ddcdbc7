// Package config loads the generator's JSON configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultQuestionCount  = 20
	DefaultMaxPromptWords = 2500
	DefaultPromptPath     = "gtkm.txt"
	DefaultPersonasDir    = "characters"
	DefaultServerAddr     = ":8080"
	DefaultTimeoutSeconds = 120
)

// Config is the whole config.json.
type Config struct {
	LLM *LLMConfig `json:"llm,omitempty"`
	// APIParams are the default sampling options for every request.
	APIParams map[string]any `json:"api_params,omitempty"`
	// DefaultCount is used when gtkm.count is not set.
	DefaultCount int    `json:"default_count,omitempty"`
	PersonasDir  string `json:"personas_dir,omitempty"`
	TemplatesDir string `json:"templates_dir,omitempty"`
	GTKM         GTKM   `json:"gtkm"`
	Output       Output `json:"output"`
	ServerAddr   string `json:"server_addr,omitempty"`
	// TracePath enables span export to this file ("-" is stderr).
	TracePath string `json:"trace_path,omitempty"`
}

// LLMConfig selects and authenticates the completion backend.
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	APIKeyEnv      string `json:"api_key_env,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// Timeout is the per-request deadline.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GTKM configures the conversation generator.
type GTKM struct {
	Count          int            `json:"count,omitempty"`
	QuestionCount  int            `json:"question_count,omitempty"`
	MaxPromptWords int            `json:"max_prompt_words,omitempty"`
	PromptPath     string         `json:"prompt_path,omitempty"`
	APIParams      map[string]any `json:"api_params,omitempty"`
	// IncludeRulesInInstruction also puts the in-character rules into the
	// training instruction.
	IncludeRulesInInstruction bool `json:"include_rules_in_instruction,omitempty"`
}

// Output lists the sinks examples are written to. Empty fields are disabled.
type Output struct {
	JSONLPath     string `json:"jsonl_path,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"`
	RedisKey      string `json:"redis_key,omitempty"`
	SQLitePath    string `json:"sqlite_path,omitempty"`
	ReportPath    string `json:"report_path,omitempty"`
}

// Load reads JSON config from disk, loads .env if present, fills defaults and
// validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	cfg.resolveAPIKey()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv exports the variables in path; a missing file is fine.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.GTKM.Count == 0 {
		c.GTKM.Count = c.DefaultCount
	}
	if c.GTKM.QuestionCount <= 0 {
		c.GTKM.QuestionCount = DefaultQuestionCount
	}
	if c.GTKM.MaxPromptWords <= 0 {
		c.GTKM.MaxPromptWords = DefaultMaxPromptWords
	}
	if c.GTKM.PromptPath == "" {
		c.GTKM.PromptPath = DefaultPromptPath
	}
	if c.PersonasDir == "" {
		c.PersonasDir = DefaultPersonasDir
	}
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.LLM != nil && c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

func (c *Config) resolveAPIKey() {
	if c.LLM == nil || c.LLM.APIKey != "" || c.LLM.APIKeyEnv == "" {
		return
	}
	c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
}

// Validate checks the parts every run needs.
func (c Config) Validate() error {
	if c.LLM == nil || c.LLM.Provider == "" {
		return errors.New("llm config missing; please set llm.provider/model/api_key in config")
	}
	if c.GTKM.Count < 0 {
		return errors.New("gtkm.count must not be negative")
	}
	return nil
}
