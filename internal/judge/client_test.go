package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
)

// fakeJudge is a minimal Judge0-compatible server. It hands out one token
// per submission and reports "In Queue" for queuedPolls polls before
// returning the configured terminal result.
type fakeJudge struct {
	t           *testing.T
	queuedPolls int
	result      Result

	submissions int
	polls       int
	lastSubmit  map[string]interface{}
}

func (f *fakeJudge) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /submissions", func(w http.ResponseWriter, r *http.Request) {
		f.submissions++
		if err := json.NewDecoder(r.Body).Decode(&f.lastSubmit); err != nil {
			f.t.Errorf("decode submit body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	mux.HandleFunc("GET /submissions/{token}", func(w http.ResponseWriter, r *http.Request) {
		f.polls++
		w.Header().Set("Content-Type", "application/json")
		if f.polls <= f.queuedPolls {
			json.NewEncoder(w).Encode(Result{Status: Status{ID: StatusInQueue, Description: "In Queue"}})
			return
		}
		json.NewEncoder(w).Encode(f.result)
	})
	return mux
}

func newTestClient(baseURL string, maxPolls int) *Client {
	cfg := &config.Config{
		JudgeURL:          baseURL,
		JudgePollInterval: time.Millisecond,
		JudgeMaxPolls:     maxPolls,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestRunPollsUntilTerminal(t *testing.T) {
	fake := &fakeJudge{
		t:           t,
		queuedPolls: 2,
		result: Result{
			Status: Status{ID: StatusAccepted, Description: "Accepted"},
			Stdout: "42\n",
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL, 30)
	result, err := client.Run(context.Background(), "print(42)", "python", "", Limits{CPUTimeSecs: 2, MemoryKB: 128000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Status.ID != StatusAccepted {
		t.Errorf("status = %d, want %d", result.Status.ID, StatusAccepted)
	}
	if result.Stdout != "42\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	if result.Token != "tok-1" {
		t.Errorf("token = %q", result.Token)
	}
	if fake.submissions != 1 {
		t.Errorf("submissions = %d, want 1", fake.submissions)
	}
	if fake.polls != 3 {
		t.Errorf("polls = %d, want 3 (two queued + one terminal)", fake.polls)
	}
}

func TestRunSendsLimitsAndLanguage(t *testing.T) {
	fake := &fakeJudge{
		t:      t,
		result: Result{Status: Status{ID: StatusAccepted, Description: "Accepted"}},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.Run(context.Background(), "code", "go", "stdin-data", Limits{CPUTimeSecs: 3, MemoryKB: 256000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := fake.lastSubmit["language_id"].(float64); int(got) != 60 {
		t.Errorf("language_id = %v, want 60", got)
	}
	if got := fake.lastSubmit["cpu_time_limit"].(float64); int(got) != 3 {
		t.Errorf("cpu_time_limit = %v, want 3", got)
	}
	if got := fake.lastSubmit["memory_limit"].(float64); int(got) != 256000 {
		t.Errorf("memory_limit = %v, want 256000", got)
	}
	if got := fake.lastSubmit["stdin"]; got != "stdin-data" {
		t.Errorf("stdin = %v", got)
	}
}

func TestSubmitUnsupportedLanguage(t *testing.T) {
	fake := &fakeJudge{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.Submit(context.Background(), "code", "cobol", "", Limits{})
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("err = %v, want ErrUnsupportedLanguage", err)
	}
	if fake.submissions != 0 {
		t.Error("unsupported language must be rejected before any network call")
	}
}

func TestSubmitServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.Submit(context.Background(), "code", "python", "", Limits{})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestSubmitEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.Submit(context.Background(), "code", "python", "", Limits{})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestRunPollBudgetExhausted(t *testing.T) {
	fake := &fakeJudge{
		t:           t,
		queuedPolls: 100, // never terminal
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL, 4)
	_, err := client.Run(context.Background(), "code", "python", "", Limits{})
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("err = %v, want ErrExecutionTimeout", err)
	}
	if fake.polls != 4 {
		t.Errorf("polls = %d, want 4", fake.polls)
	}
}

func TestRunContextCancelled(t *testing.T) {
	fake := &fakeJudge{
		t:           t,
		queuedPolls: 100,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(srv.URL, 30)
	client.pollInterval = time.Minute // Run parks in the poll wait

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.Run(ctx, "code", "python", "", Limits{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAuthTokenHeader(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Auth-Token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-1"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	client.authToken = "secret"

	if _, err := client.Submit(context.Background(), "code", "python", "", Limits{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotHeader != "secret" {
		t.Errorf("X-Auth-Token = %q, want %q", gotHeader, "secret")
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, tc := range []struct {
		id       int
		terminal bool
	}{
		{StatusInQueue, false},
		{StatusProcessing, false},
		{StatusAccepted, true},
		{StatusWrongAnswer, true},
		{StatusCompilationError, true},
		{StatusRuntimeErrorSIGSEGV, true},
		{StatusInternalError, true},
	} {
		if got := (Status{ID: tc.id}).Terminal(); got != tc.terminal {
			t.Errorf("Terminal(%d) = %v, want %v", tc.id, got, tc.terminal)
		}
	}
}
