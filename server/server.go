package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"gtkm_synth/gtkm"
	"gtkm_synth/logger"
	"gtkm_synth/publisher"
)

// MaxRunCount bounds how many examples one HTTP run may request.
const MaxRunCount = 1000

type Server struct {
	echo     *echo.Echo
	gen      *gtkm.Generator
	personas gtkm.PersonaSource
	sink     publisher.Publisher
	runs     *runStore
	log      *zap.Logger
}

// runStore keeps the outcome of recent runs for GET /api/runs/:id.
type runStore struct {
	mu   sync.Mutex
	runs map[string]runStatus
}

func newStore() *runStore {
	return &runStore{runs: make(map[string]runStatus)}
}

func (s *runStore) set(st runStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[st.RunID] = st
}

func (s *runStore) get(id string) (runStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.runs[id]
	return st, ok
}

// New builds the HTTP surface. sink may be nil; when set, every streamed
// example is also published to it.
func New(gen *gtkm.Generator, personas gtkm.PersonaSource, sink publisher.Publisher, log *zap.Logger) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator required")
	}
	if personas == nil {
		return nil, errors.New("persona source required")
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		gen:      gen,
		personas: personas,
		sink:     sink,
		runs:     newStore(),
		log:      logger.OrNop(log),
	}
	e.Use(s.logMiddleware)
	s.setupRoutes()
	return s, nil
}

func (s *Server) Routes() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/personas", s.handlePersonas)
	api.POST("/runs", s.handleRunCreate)
	api.GET("/runs/:id", s.handleRunByID)
	api.POST("/extract", s.handleExtract)
}

// --- Handlers ---

type runCreateReq struct {
	Count          int `json:"count"`
	QuestionCount  int `json:"question_count"`
	MaxPromptWords int `json:"max_prompt_words"`
}

type runStatus struct {
	RunID     string    `json:"run_id"`
	Emitted   int       `json:"emitted"`
	Cycles    int       `json:"cycles"`
	Skipped   int       `json:"skipped"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

type extractReq struct {
	Text string `json:"text"`
}

type extractResp struct {
	Questions []string `json:"questions"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePersonas(c echo.Context) error {
	cards, err := s.personas.Load()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	names := make([]string, 0, len(cards))
	for _, p := range cards {
		names = append(names, p.Name)
	}
	return c.JSON(http.StatusOK, map[string][]string{"personas": names})
}

// handleRunCreate streams the run's examples as NDJSON, one per line.
func (s *Server) handleRunCreate(c echo.Context) error {
	req := new(runCreateReq)
	if c.Request().ContentLength != 0 {
		if err := c.Bind(req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if req.Count < 0 || req.Count > MaxRunCount {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("count must be between 0 and %d", MaxRunCount))
	}
	gen := s.gen.WithOptions(func(o *gtkm.Options) {
		if req.Count > 0 {
			o.Count = req.Count
		}
		if req.QuestionCount > 0 {
			o.QuestionCount = req.QuestionCount
		}
		if req.MaxPromptWords > 0 {
			o.MaxPromptWords = req.MaxPromptWords
		}
	})
	if gen.Options().Count > MaxRunCount {
		gen = gen.WithOptions(func(o *gtkm.Options) { o.Count = MaxRunCount })
	}

	id := newRunID()
	started := time.Now()
	ctx := c.Request().Context()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	res.Header().Set("X-Run-Id", id)
	res.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(res)

	st, err := gen.Run(ctx, func(ex gtkm.Example) error {
		if s.sink != nil {
			if err := s.sink.Publish(ctx, ex); err != nil {
				return err
			}
		}
		if err := enc.Encode(ex); err != nil {
			return err
		}
		res.Flush()
		return nil
	})

	status := runStatus{
		RunID:     id,
		Emitted:   st.Emitted,
		Cycles:    st.Cycles,
		Skipped:   st.Skipped,
		StartedAt: started,
		Duration:  time.Since(started).Round(time.Millisecond).String(),
	}
	if err != nil {
		status.Error = err.Error()
		s.log.Error("[server] run failed", zap.String("run_id", id), zap.Error(err))
	}
	s.runs.set(status)
	// Headers are gone by now; the run status is the only place to report errors.
	return nil
}

func (s *Server) handleRunByID(c echo.Context) error {
	id := c.Param("id")
	st, ok := s.runs.get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleExtract(c echo.Context) error {
	req := new(extractReq)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	questions := gtkm.ExtractQuestions(req.Text)
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, strings.TrimSpace(q))
	}
	return c.JSON(http.StatusOK, extractResp{Questions: out})
}

// --- Helpers ---

func newRunID() string {
	return strings.ReplaceAll(time.Now().Format("20060102T150405.000000000"), ".", "")
}

func (s *Server) logMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Info("[server] request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}
}
