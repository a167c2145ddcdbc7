package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"gtkm_synth/config"
	"gtkm_synth/generator"
	"gtkm_synth/gtkm"
	"gtkm_synth/logger"
	"gtkm_synth/persona"
	"gtkm_synth/prompts"
	"gtkm_synth/publisher"
	"gtkm_synth/server"
	"gtkm_synth/telemetry"
)

var verbose bool

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	count := flag.Int("count", 0, "number of examples to generate (overrides gtkm.count)")
	out := flag.String("out", "", "jsonl output path, - for stdout (overrides output.jsonl_path)")
	report := flag.String("report", "", "html review report path (overrides output.report_path)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	trace := flag.String("trace", "", "write otel spans to this file, - for stderr (overrides config.trace_path)")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *count > 0 {
		cfg.GTKM.Count = *count
	}
	if *out != "" {
		cfg.Output.JSONLPath = *out
	}
	if *report != "" {
		cfg.Output.ReportPath = *report
	}
	if *trace != "" {
		cfg.TracePath = *trace
	}

	zl, err := logger.New(verbose)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tp oteltrace.TracerProvider
	if cfg.TracePath != "" {
		sdkTP, shutdown, err := telemetry.Setup(cfg.TracePath)
		if err != nil {
			fatal(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				zl.Warn("[cli] trace shutdown failed", zap.Error(err))
			}
		}()
		tp = sdkTP
		zl.Info("[cli] tracing enabled", zap.String("trace_path", cfg.TracePath))
	}

	llm, err := buildLLM(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	personas := persona.NewDirSource(cfg.PersonasDir)
	gen, err := gtkm.New(
		generator.Traced(llm, cfg.LLM.Provider, tp),
		personas,
		prompts.NewRenderer(cfg.TemplatesDir),
		generatorOptions(cfg),
		zl,
	)
	if err != nil {
		fatal(err)
	}

	// Web server mode
	if *serve {
		sink, err := buildPublisher(ctx, cfg, false)
		if err != nil {
			fatal(err)
		}
		if err := runServer(ctx, cfg, *addr, gen, personas, sink, zl); err != nil {
			fatal(err)
		}
		return
	}

	sink, err := buildPublisher(ctx, cfg, true)
	if err != nil {
		fatal(err)
	}
	zl.Info("[cli] generating",
		zap.Int("count", cfg.GTKM.Count),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("personas_dir", cfg.PersonasDir))
	st, err := gen.Run(ctx, func(ex gtkm.Example) error {
		return sink.Publish(ctx, ex)
	})
	if cerr := sink.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fatal(err)
	}
	zl.Info("[cli] generation done",
		zap.Int("emitted", st.Emitted),
		zap.Int("cycles", st.Cycles),
		zap.Int("skipped", st.Skipped))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func generatorOptions(cfg config.Config) gtkm.Options {
	return gtkm.Options{
		Count:                     cfg.GTKM.Count,
		QuestionCount:             cfg.GTKM.QuestionCount,
		MaxPromptWords:            cfg.GTKM.MaxPromptWords,
		PromptPath:                cfg.GTKM.PromptPath,
		Params:                    generator.MergeParams(cfg.APIParams, cfg.GTKM.APIParams),
		IncludeRulesInInstruction: cfg.GTKM.IncludeRulesInInstruction,
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key_env in config")
	}
	settings := &generator.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout(),
	}
	switch cfg.LLM.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible API; base_url must point at it.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

// buildPublisher opens every configured sink. When fallbackStdout is set and
// nothing is configured, examples go to stdout as JSONL.
func buildPublisher(ctx context.Context, cfg config.Config, fallbackStdout bool) (publisher.Publisher, error) {
	var sinks publisher.Multi
	fail := func(err error) (publisher.Publisher, error) {
		_ = sinks.Close()
		return nil, err
	}

	jsonlPath := cfg.Output.JSONLPath
	if jsonlPath == "" && fallbackStdout && cfg.Output.RedisAddr == "" && cfg.Output.SQLitePath == "" {
		jsonlPath = "-"
	}
	if jsonlPath != "" {
		p, err := publisher.OpenJSONL(jsonlPath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, p)
	}
	if cfg.Output.RedisAddr != "" {
		p, err := publisher.NewRedisPublisher(ctx, publisher.RedisOptions{
			Addr:     cfg.Output.RedisAddr,
			Password: cfg.Output.RedisPassword,
			DB:       cfg.Output.RedisDB,
			Key:      cfg.Output.RedisKey,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, p)
	}
	if cfg.Output.SQLitePath != "" {
		p, err := publisher.OpenSQLite(cfg.Output.SQLitePath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, p)
	}
	if cfg.Output.ReportPath != "" {
		sinks = append(sinks, publisher.NewReport(cfg.Output.ReportPath, ""))
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	return sinks, nil
}

func runServer(ctx context.Context, cfg config.Config, addrFlag string, gen *gtkm.Generator, personas gtkm.PersonaSource, sink publisher.Publisher, zl *zap.Logger) error {
	if sink != nil {
		defer func() { _ = sink.Close() }()
	}
	srv, err := server.New(gen, personas, sink, zl)
	if err != nil {
		return err
	}
	listen := cfg.ServerAddr
	if addrFlag != "" {
		listen = addrFlag
	}

	httpSrv := &http.Server{Addr: listen, Handler: srv.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	zl.Info("[server] listening", zap.String("addr", listen))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
