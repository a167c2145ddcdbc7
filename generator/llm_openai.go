package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// It also serves OpenAI-compatible gateways such as DeepSeek through BaseURL.
type OpenAILLM struct {
	Model  string
	Opts   []option.RequestOption
	client openai.Client
	cfg    LLMSettings
}

func NewOpenAILLMFromConfig(cfg *LLMSettings, extra ...option.RequestOption) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key or llm.api_key_env")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAILLM{
		Model:  cfg.Model,
		Opts:   opts,
		client: openai.NewClient(opts...),
		cfg:    *cfg,
	}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt, params Params) (string, error) {
	ctx, cancel := withTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	req := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	applyOpenAIParams(&req, params)

	resp, err := o.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func applyOpenAIParams(req *openai.ChatCompletionNewParams, params Params) {
	if m, ok := params.String("model"); ok {
		req.Model = openai.ChatModel(m)
	}
	if v, ok := params.Float("temperature"); ok {
		req.Temperature = openai.Float(v)
	}
	if v, ok := params.Float("top_p"); ok {
		req.TopP = openai.Float(v)
	}
	if v, ok := params.Float("presence_penalty"); ok {
		req.PresencePenalty = openai.Float(v)
	}
	if v, ok := params.Float("frequency_penalty"); ok {
		req.FrequencyPenalty = openai.Float(v)
	}
	if v, ok := params.Int("max_tokens"); ok {
		req.MaxTokens = openai.Int(v)
	}
	if v, ok := params.Int("seed"); ok {
		req.Seed = openai.Int(v)
	}
}
