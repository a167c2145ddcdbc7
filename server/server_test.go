package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gtkm_synth/generator"
	"gtkm_synth/gtkm"
	"gtkm_synth/persona"
	"gtkm_synth/prompts"
)

var cards = persona.StaticSource{
	{Name: "Arthur", Description: "King of the Britons.", StayInCharacter: "Be regal."},
	{Name: "Patsy", Description: "Carries the coconuts.", StayInCharacter: "Say little."},
}

type memSink struct {
	mu  sync.Mutex
	got []gtkm.Example
}

func (m *memSink) Publish(_ context.Context, ex gtkm.Example) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, ex)
	return nil
}

func (m *memSink) Close() error { return nil }

func newTestServer(t *testing.T, count int, sink *memSink) *Server {
	t.Helper()
	gen, err := gtkm.New(generator.MockLLM{}, cards, prompts.NewRenderer(""), gtkm.Options{Count: count, QuestionCount: 4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var s *Server
	if sink != nil {
		s, err = New(gen, cards, sink, nil)
	} else {
		s, err = New(gen, cards, nil, nil)
	}
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, 1, nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("GET /healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestPersonas(t *testing.T) {
	s := newTestServer(t, 1, nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/personas", nil))

	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if strings.Join(body["personas"], ",") != "Arthur,Patsy" {
		t.Fatalf("personas = %v", body["personas"])
	}
}

func TestRunStreamsExamples(t *testing.T) {
	sink := &memSink{}
	s := newTestServer(t, 1, sink)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"count": 3, "question_count": 3}`))
	req.Header.Set("Content-Type", "application/json")
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/runs = %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var examples []gtkm.Example
	sc := bufio.NewScanner(rec.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var ex gtkm.Example
		if err := json.Unmarshal(sc.Bytes(), &ex); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		examples = append(examples, ex)
	}
	if len(examples) != 3 {
		t.Fatalf("streamed %d examples, want 3", len(examples))
	}
	for _, ex := range examples {
		if ex.Category != "gtkm" || !strings.HasSuffix(ex.Instruction, "ASSISTANT: ") || ex.Response == "" {
			t.Fatalf("malformed example %+v", ex)
		}
		if strings.Count(ex.Instruction, "USER: ") != 3 {
			t.Fatalf("question_count override not applied: %q", ex.Instruction)
		}
	}
	if len(sink.got) != 3 {
		t.Fatalf("sink received %d examples", len(sink.got))
	}

	id := rec.Header().Get("X-Run-Id")
	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+id, nil))
	var st runStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Emitted != 3 || st.Error != "" {
		t.Fatalf("run status = %+v", st)
	}
}

func TestRunUsesConfiguredCountWithoutBody(t *testing.T) {
	s := newTestServer(t, 2, nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	if n := strings.Count(strings.TrimSpace(rec.Body.String()), "\n") + 1; n != 2 {
		t.Fatalf("streamed %d lines, want 2", n)
	}
}

func TestRunRejectsBadCount(t *testing.T) {
	s := newTestServer(t, 1, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"count": 100000}`))
	req.Header.Set("Content-Type", "application/json")
	s.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestRunNotFound(t *testing.T) {
	s := newTestServer(t, 1, nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestExtract(t *testing.T) {
	s := newTestServer(t, 1, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(`{"text": "QUESTION: What is your name?QUESTION: What is your quest?"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Routes().ServeHTTP(rec, req)

	var body extractResp
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if strings.Join(body.Questions, "|") != "What is your name?|What is your quest?" {
		t.Fatalf("questions = %q", body.Questions)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(nil, cards, nil, nil); err == nil {
		t.Fatal("expected error for nil generator")
	}
}
