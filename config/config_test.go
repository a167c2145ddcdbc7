package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"llm": {"provider": "mock"}, "gtkm": {"count": 10}}`))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.GTKM.Count)
	assert.Equal(t, 20, cfg.GTKM.QuestionCount)
	assert.Equal(t, 2500, cfg.GTKM.MaxPromptWords)
	assert.Equal(t, "gtkm.txt", cfg.GTKM.PromptPath)
	assert.Equal(t, "characters", cfg.PersonasDir)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Empty(t, cfg.TracePath)
	assert.Equal(t, 120.0, cfg.LLM.Timeout().Seconds())
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"llm": {"provider": "openai", "model": "gpt-4o-mini", "api_key": "sk-test", "timeout_seconds": 30},
		"api_params": {"temperature": 0.7, "top_p": 0.9},
		"personas_dir": "cards",
		"trace_path": "out/spans.jsonl",
		"gtkm": {
			"count": 3, "question_count": 5, "max_prompt_words": 800, "prompt_path": "mine.txt",
			"api_params": {"temperature": 1.0}, "include_rules_in_instruction": true
		},
		"output": {"jsonl_path": "out/gtkm.jsonl", "redis_addr": "localhost:6379", "sqlite_path": "out/gtkm.db"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 30.0, cfg.LLM.Timeout().Seconds())
	assert.Equal(t, "cards", cfg.PersonasDir)
	assert.Equal(t, "out/spans.jsonl", cfg.TracePath)
	assert.Equal(t, 5, cfg.GTKM.QuestionCount)
	assert.Equal(t, 800, cfg.GTKM.MaxPromptWords)
	assert.True(t, cfg.GTKM.IncludeRulesInInstruction)
	assert.Equal(t, 1.0, cfg.GTKM.APIParams["temperature"])
	assert.Equal(t, 0.9, cfg.APIParams["top_p"])
	assert.Equal(t, "out/gtkm.jsonl", cfg.Output.JSONLPath)
	assert.Equal(t, "localhost:6379", cfg.Output.RedisAddr)
	assert.Equal(t, "out/gtkm.db", cfg.Output.SQLitePath)
}

func TestLoadDefaultCountFallback(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"llm": {"provider": "mock"}, "default_count": 7}`))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.GTKM.Count)
}

func TestLoadResolvesKeyFromEnv(t *testing.T) {
	t.Setenv("GTKM_TEST_KEY", "from-env")
	cfg, err := Load(writeConfig(t, `{"llm": {"provider": "openai", "model": "m", "api_key_env": "GTKM_TEST_KEY"}}`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.json") }},
		{"bad json", func(t *testing.T) string { return writeConfig(t, `{`) }},
		{"no provider", func(t *testing.T) string { return writeConfig(t, `{"gtkm": {"count": 1}}`) }},
		{"negative count", func(t *testing.T) string {
			return writeConfig(t, `{"llm": {"provider": "mock"}, "gtkm": {"count": -1}}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GTKM_DOTENV_KEY=dotenv-value\n"), 0644))
	t.Setenv("GTKM_DOTENV_KEY", "")
	require.NoError(t, os.Unsetenv("GTKM_DOTENV_KEY"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "dotenv-value", os.Getenv("GTKM_DOTENV_KEY"))
	assert.NoError(t, loadDotEnv(filepath.Join(dir, "nope.env")), "missing .env should be ignored")
}
