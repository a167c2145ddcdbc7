package gtkm

import (
	"context"
	"errors"
	"iter"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"gtkm_synth/generator"
	"gtkm_synth/logger"
	"gtkm_synth/persona"
)

const (
	DefaultQuestionCount  = 20
	DefaultMaxPromptWords = 2500
	DefaultPromptPath     = "gtkm.txt"
)

// PersonaSource supplies the cards to cycle through.
type PersonaSource interface {
	Load() ([]persona.Persona, error)
}

// Renderer renders the question-batch request for a persona.
type Renderer interface {
	Render(name string, vars any) (string, error)
}

// Options configures a run. Zero values take the defaults above.
type Options struct {
	Count          int
	QuestionCount  int
	MaxPromptWords int
	PromptPath     string
	Params         generator.Params

	// Rules is appended to the persona preamble in answer requests.
	Rules string
	// IncludeRulesInInstruction puts the rules into the training instruction
	// (and its word budget) as well. By default the instruction opens with
	// Persona.Preamble alone, and only that preamble counts toward
	// MaxPromptWords.
	IncludeRulesInInstruction bool

	// StartIndex picks the first persona given how many there are.
	StartIndex func(n int) int
}

// QuestionVars is what the question-batch template is executed with.
type QuestionVars struct {
	Name          string
	Description   string
	QuestionCount int
}

// Generator produces training examples by interviewing personas.
type Generator struct {
	llm      generator.LLMClient
	personas PersonaSource
	renderer Renderer
	opts     Options
	log      *zap.Logger
}

func New(llm generator.LLMClient, personas PersonaSource, renderer Renderer, opts Options, log *zap.Logger) (*Generator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if personas == nil {
		return nil, errors.New("persona source is required")
	}
	if renderer == nil {
		return nil, errors.New("template renderer is required")
	}
	return &Generator{
		llm:      llm,
		personas: personas,
		renderer: renderer,
		opts:     withDefaults(opts),
		log:      logger.OrNop(log),
	}, nil
}

func withDefaults(o Options) Options {
	if o.QuestionCount <= 0 {
		o.QuestionCount = DefaultQuestionCount
	}
	if o.MaxPromptWords <= 0 {
		o.MaxPromptWords = DefaultMaxPromptWords
	}
	if o.PromptPath == "" {
		o.PromptPath = DefaultPromptPath
	}
	if o.Rules == "" {
		o.Rules = persona.Rules
	}
	if o.StartIndex == nil {
		o.StartIndex = rand.IntN
	}
	return o
}

// Options returns the effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// WithOptions returns a copy of g whose options are adjusted by fn.
func (g *Generator) WithOptions(fn func(*Options)) *Generator {
	cp := *g
	fn(&cp.opts)
	cp.opts = withDefaults(cp.opts)
	return &cp
}

// Examples yields examples until Count have been produced, the consumer stops,
// or ctx is done. Each call starts a fresh run.
func (g *Generator) Examples(ctx context.Context) iter.Seq[Example] {
	return func(yield func(Example) bool) {
		if _, err := g.run(ctx, yield); err != nil {
			g.log.Error("[gtkm] generation stopped", zap.Error(err))
		}
	}
}

// Run calls emit for every example and returns the final run state. An error
// from emit stops the run and is returned.
func (g *Generator) Run(ctx context.Context, emit func(Example) error) (State, error) {
	var emitErr error
	st, err := g.run(ctx, func(ex Example) bool {
		emitErr = emit(ex)
		return emitErr == nil
	})
	if err != nil {
		return st, err
	}
	return st, emitErr
}

func (g *Generator) run(ctx context.Context, yield func(Example) bool) (State, error) {
	var st State
	if g.opts.Count <= 0 {
		return st, nil
	}
	cards, err := g.personas.Load()
	if err != nil {
		return st, err
	}
	if len(cards) == 0 {
		g.log.Warn("[gtkm] no personas found")
		return st, nil
	}

	st.Index = g.opts.StartIndex(len(cards)) % len(cards)
	if st.Index < 0 {
		st.Index += len(cards)
	}
	for st.Emitted < g.opts.Count {
		if err := ctx.Err(); err != nil {
			return st, nil
		}
		card := cards[st.Index]
		st.Index = (st.Index + 1) % len(cards)
		st.Cycles++

		ex, ok, err := g.cycle(ctx, card)
		if err != nil {
			return st, err
		}
		if !ok {
			st.Skipped++
			continue
		}
		st.Emitted++
		if !yield(ex) {
			return st, nil
		}
	}
	g.log.Info("[gtkm] run complete",
		zap.Int("emitted", st.Emitted),
		zap.Int("cycles", st.Cycles),
		zap.Int("skipped", st.Skipped))
	return st, nil
}

// cycle interviews one persona. ok is false when the cycle produced nothing
// usable; err is reserved for failures that would repeat on every cycle.
func (g *Generator) cycle(ctx context.Context, card persona.Persona) (ex Example, ok bool, err error) {
	log := g.log.With(zap.String("persona", card.Name))

	request, err := g.renderer.Render(g.opts.PromptPath, QuestionVars{
		Name:          card.Name,
		Description:   card.Description,
		QuestionCount: g.opts.QuestionCount,
	})
	if err != nil {
		return Example{}, false, err
	}

	raw, err := g.llm.Complete(ctx, generator.Prompt{User: request}, g.opts.Params)
	if err != nil {
		log.Warn("[gtkm] question batch request failed", zap.Error(err))
		return Example{}, false, nil
	}
	if strings.TrimSpace(raw) == "" {
		log.Warn("[gtkm] empty question batch")
		return Example{}, false, nil
	}

	questions := ExtractQuestions(raw)
	if len(questions) == 0 {
		log.Warn("[gtkm] no questions in batch")
		return Example{}, false, nil
	}

	system := card.SystemContext(g.opts.Rules)
	answers := AnswerAll(ctx, g.llm, questions, system, g.opts.Params, log)
	turns := FilterResponses(questions, answers)
	if len(turns) < 2 {
		log.Warn("[gtkm] too few responses to generate training data", zap.Int("turns", len(turns)))
	}
	if len(turns) == 0 {
		return Example{}, false, nil
	}

	preamble := card.Preamble()
	if g.opts.IncludeRulesInInstruction {
		preamble = system
	}
	ex, err = Assemble(preamble, turns, g.opts.MaxPromptWords)
	if err != nil {
		return Example{}, false, err
	}
	ex.Persona = card.Name
	log.Debug("[gtkm] example assembled",
		zap.Int("questions", len(questions)),
		zap.Int("turns", len(turns)),
		zap.Int("instruction_words", CountWords(ex.Instruction)))
	return ex, true, nil
}
