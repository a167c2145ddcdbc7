package generator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "gtkm_synth/generator"

// TracedLLM wraps an LLMClient with one span per completion.
type TracedLLM struct {
	next     LLMClient
	provider string
	tracer   trace.Tracer
}

// Traced decorates next with spans from tp, or from the global tracer
// provider when tp is nil.
func Traced(next LLMClient, provider string, tp trace.TracerProvider) *TracedLLM {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracedLLM{
		next:     next,
		provider: provider,
		tracer:   tp.Tracer(tracerName),
	}
}

func (t *TracedLLM) Complete(ctx context.Context, prompt Prompt, params Params) (string, error) {
	ctx, span := t.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", t.provider),
		attribute.Bool("llm.plain_prompt", prompt.IsPlain()),
		attribute.Int("llm.prompt.length", len(prompt.System)+len(prompt.User)),
	))
	defer span.End()

	out, err := t.next.Complete(ctx, prompt, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}
	span.SetAttributes(attribute.Int("llm.response.length", len(out)))
	return out, nil
}
