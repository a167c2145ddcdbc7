package gtkm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"gtkm_synth/generator"
	"gtkm_synth/logger"
)

// AnswerAll asks every question concurrently, each as the only user turn
// under systemContext, and waits for all of them. The result has one entry per
// question at the same index; failed or blank completions are "".
func AnswerAll(ctx context.Context, llm generator.LLMClient, questions []string, systemContext string, params generator.Params, log *zap.Logger) []string {
	log = logger.OrNop(log)
	answers := make([]string, len(questions))

	var wg sync.WaitGroup
	for i, q := range questions {
		wg.Go(func() {
			answers[i] = answerOne(ctx, llm, q, systemContext, params, log.With(zap.Int("question", i)))
		})
	}
	wg.Wait()
	return answers
}

func answerOne(ctx context.Context, llm generator.LLMClient, question, systemContext string, params generator.Params, log *zap.Logger) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("[gtkm] answer request panicked", zap.String("panic", fmt.Sprint(r)))
			answer = ""
		}
	}()

	out, err := llm.Complete(ctx, generator.Prompt{System: systemContext, User: question}, params)
	if err != nil {
		log.Warn("[gtkm] answer request failed", zap.Error(err))
		return ""
	}
	if strings.TrimSpace(out) == "" {
		log.Debug("[gtkm] empty answer")
		return ""
	}
	return out
}
