package generator

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiLLM implements LLMClient on top of the Gemini API.
type GeminiLLM struct {
	Model  string
	client *genai.Client
	cfg    LLMSettings
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide llm.api_key or llm.api_key_env")
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiLLM{Model: model, client: client, cfg: *cfg}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt, params Params) (string, error) {
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	applyGeminiParams(config, params)

	contents := []*genai.Content{genai.NewContentFromText(prompt.User, genai.RoleUser)}

	model := g.Model
	if m, ok := params.String("model"); ok {
		model = m
	}
	res, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", err
	}
	// Blocked prompts come back without candidates.
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty candidates")
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func applyGeminiParams(config *genai.GenerateContentConfig, params Params) {
	if v, ok := params.Float("temperature"); ok {
		config.Temperature = genai.Ptr(float32(v))
	}
	if v, ok := params.Float("top_p"); ok {
		config.TopP = genai.Ptr(float32(v))
	}
	if v, ok := params.Float("presence_penalty"); ok {
		config.PresencePenalty = genai.Ptr(float32(v))
	}
	if v, ok := params.Float("frequency_penalty"); ok {
		config.FrequencyPenalty = genai.Ptr(float32(v))
	}
	if v, ok := params.Int("max_tokens"); ok {
		config.MaxOutputTokens = int32(v)
	}
	if v, ok := params.Int("seed"); ok {
		config.Seed = genai.Ptr(int32(v))
	}
}
