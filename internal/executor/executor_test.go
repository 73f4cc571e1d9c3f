package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestDispatcher(url string) *Dispatcher {
	return NewDispatcher(url, 5*time.Second, nil, zerolog.Nop())
}

func TestExecuteNestedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("undecodable request body: %v", err)
		}
		if req["language"] != "python" {
			t.Errorf("language = %v, want python", req["language"])
		}
		if req["version"] != "3.10.0" {
			t.Errorf("version = %v, want 3.10.0", req["version"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"run":{"stdout":"42\n","stderr":""}}`))
	}))
	defer srv.Close()

	d := newTestDispatcher(srv.URL)
	result, err := d.Execute(context.Background(), Request{
		Language:   "python",
		SourceCode: "print(42)",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stdout != "42\n" {
		t.Errorf("stdout = %q, want %q", result.Stdout, "42\n")
	}
	if result.Errored {
		t.Error("run should not be marked errored")
	}
}

func TestExecuteFlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stdout":"hi","stderr":""}`))
	}))
	defer srv.Close()

	result, err := newTestDispatcher(srv.URL).Execute(context.Background(), Request{
		Language:   "python",
		SourceCode: "print('hi')",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stdout != "hi" {
		t.Errorf("stdout = %q, want %q", result.Stdout, "hi")
	}
}

func TestExecuteStderrMarksErrored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"run":{"stdout":"","stderr":"Traceback (most recent call last):\n  NameError"}}`))
	}))
	defer srv.Close()

	result, err := newTestDispatcher(srv.URL).Execute(context.Background(), Request{
		Language:   "python",
		SourceCode: "boom",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Errored {
		t.Error("stderr run should be marked errored")
	}
}

func TestExecuteOracleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"runtime not available"}`))
	}))
	defer srv.Close()

	_, err := newTestDispatcher(srv.URL).Execute(context.Background(), Request{
		Language:   "python",
		SourceCode: "print(1)",
	})

	var oracleErr *OracleError
	if !errors.As(err, &oracleErr) {
		t.Fatalf("want OracleError, got %T: %v", err, err)
	}
}

func TestExecuteNon200IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestDispatcher(srv.URL).Execute(context.Background(), Request{
		Language:   "python",
		SourceCode: "print(1)",
	})

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("want TransportError, got %T: %v", err, err)
	}
}

func TestExecuteUnreachableOracle(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1", 500*time.Millisecond, nil, zerolog.Nop())
	_, err := d.Execute(context.Background(), Request{
		Language:   "python",
		SourceCode: "print(1)",
	})

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("want TransportError, got %T: %v", err, err)
	}
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	_, err := newTestDispatcher("http://unused").Execute(context.Background(), Request{
		Language:   "brainfuck",
		SourceCode: "+",
	})

	var oracleErr *OracleError
	if !errors.As(err, &oracleErr) {
		t.Fatalf("want OracleError, got %T: %v", err, err)
	}
}
