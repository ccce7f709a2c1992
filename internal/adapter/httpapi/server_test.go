package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"medcite/internal/domain"
)

type fakeAnswerer struct {
	bundle domain.AnswerBundle
	err    error
	got    []string
}

func (f *fakeAnswerer) Answer(question string) (domain.AnswerBundle, error) {
	f.got = append(f.got, question)
	if strings.TrimSpace(question) == "" {
		return domain.AnswerBundle{}, domain.NewError(domain.KindInvalidQuery, nil, "question is empty")
	}
	if f.err != nil {
		return domain.AnswerBundle{}, f.err
	}
	return f.bundle, nil
}

func newTestServer(a Answerer) *Server {
	return NewServer(a, log.New(io.Discard))
}

func TestIndexBanner(t *testing.T) {
	s := newTestServer(&fakeAnswerer{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON banner, got content type %q", ct)
	}
	var body indexResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Message == "" || !strings.Contains(body.Usage, "POST /ask") {
		t.Errorf("unexpected banner %+v", body)
	}
}

func TestAskReturnsBundle(t *testing.T) {
	a := &fakeAnswerer{bundle: domain.AnswerBundle{
		Answer:     "Aspirin.",
		Sources:    []string{"doc1.pdf"},
		RAGContext: []string{"Aspirin reduces fever."},
	}}
	s := newTestServer(a)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"What reduces fever?"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := uuid.Parse(w.Header().Get("X-Request-Id")); err != nil {
		t.Errorf("missing request id: %v", err)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"answer":     "Aspirin.",
		"sources":    []any{"doc1.pdf"},
		"ragContext": []any{"Aspirin reduces fever."},
	}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("response = %v, want %v", body, want)
	}
	if len(a.got) != 1 || a.got[0] != "What reduces fever?" {
		t.Errorf("answerer received %v", a.got)
	}
}

func TestAskErrors(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"empty query", `{"query":"   "}`, nil, http.StatusBadRequest, "No query provided"},
		{"missing query", `{}`, nil, http.StatusBadRequest, "No query provided"},
		{"malformed json", `{"query":`, nil, http.StatusBadRequest, "invalid json"},
		{
			"generation failure",
			`{"query":"q"}`,
			domain.NewError(domain.KindGeneration, errors.New("model overloaded"), "model x"),
			http.StatusInternalServerError,
			"generation_error: model x: model overloaded",
		},
		{
			"embedding failure",
			`{"query":"q"}`,
			domain.NewError(domain.KindEmbedding, errors.New("timeout"), "embed question"),
			http.StatusInternalServerError,
			"embedding_error: embed question: timeout",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&fakeAnswerer{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			var body errorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tc.wantError {
				t.Errorf("error = %q, want %q", body.Error, tc.wantError)
			}
		})
	}
}

func TestAskRejectsOversizedBody(t *testing.T) {
	a := &fakeAnswerer{}
	s := newTestServer(a)

	body := `{"query":"` + strings.Repeat("a", maxRequestBytes+1) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if len(a.got) != 0 {
		t.Errorf("answerer should not be called, got %d calls", len(a.got))
	}
}

func TestAskWrongMethod(t *testing.T) {
	s := newTestServer(&fakeAnswerer{})

	req := httptest.NewRequest(http.MethodGet, "/ask", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /ask, got %d", w.Code)
	}
}
