package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/metrics"
)

// Request is one "run this code with this stdin" call. Ephemeral,
// constructed per invocation.
type Request struct {
	Language   string
	SourceCode string
	Stdin      string
	TimeoutMs  int
}

// Result is the outcome of a completed oracle run. Errored is set when the
// run finished but produced stderr; stdout is still populated so callers
// can surface it for diagnostics.
type Result struct {
	Stdout    string
	Stderr    string
	ElapsedMs int64
	Errored   bool
}

// TransportError means the oracle call failed to complete (network or
// timeout). The case it was attempting counts as unattempted.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("execution transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// OracleError means the oracle answered with a top-level error field, a
// hard failure distinct from a run that produced stderr.
type OracleError struct {
	Message string
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("execution oracle error: %s", e.Message)
}

// oracleRequest is the wire shape the execution oracle consumes.
type oracleRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []oracleFile `json:"files"`
	Stdin    string       `json:"stdin"`
	Args     []string     `json:"args"`
	Timeout  int          `json:"timeout"`
}

type oracleFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// oracleResponse tolerates both response shapes the oracle is known to
// produce: nested {run:{stdout,stderr}} and flat {stdout,stderr}.
type oracleResponse struct {
	Run *struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
	} `json:"run"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Error  string `json:"error"`
}

// Dispatcher wraps the remote execution oracle. Single attempt per call;
// retries are caller policy.
type Dispatcher struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewDispatcher(url string, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		logger:     logger.With().Str("component", "executor").Logger(),
	}
}

// Execute adapts the source for the target language, makes exactly one
// outbound call to the oracle, and classifies the response.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (*Result, error) {
	lang, ok := languages[req.Language]
	if !ok {
		return nil, &OracleError{Message: "unsupported language: " + req.Language}
	}

	timeout := d.timeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	body := oracleRequest{
		Language: lang.Name,
		Version:  lang.Version,
		Files: []oracleFile{{
			Name:    "main." + lang.Extension,
			Content: AdaptSource(req.Language, req.SourceCode, req.Stdin),
		}},
		Stdin:   req.Stdin,
		Args:    []string{},
		Timeout: int(timeout.Milliseconds()),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		if d.metrics != nil {
			d.metrics.IncExecution("transport_error")
		}
		d.logger.Error().Err(err).Str("language", req.Language).Msg("Oracle call failed")
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if d.metrics != nil {
		d.metrics.ObserveOracleLatency(elapsed.Seconds())
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if d.metrics != nil {
			d.metrics.IncExecution("transport_error")
		}
		return nil, &TransportError{Err: fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, raw)}
	}

	var decoded oracleResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("undecodable oracle response: %w", err)}
	}

	if decoded.Error != "" {
		if d.metrics != nil {
			d.metrics.IncExecution("oracle_error")
		}
		return nil, &OracleError{Message: decoded.Error}
	}

	stdout, stderr := decoded.Stdout, decoded.Stderr
	if decoded.Run != nil {
		stdout, stderr = decoded.Run.Stdout, decoded.Run.Stderr
	}

	result := &Result{
		Stdout:    stdout,
		Stderr:    stderr,
		ElapsedMs: elapsed.Milliseconds(),
		Errored:   stderr != "",
	}

	if d.metrics != nil {
		if result.Errored {
			d.metrics.IncExecution("stderr")
		} else {
			d.metrics.IncExecution("ok")
		}
	}

	d.logger.Debug().
		Str("language", req.Language).
		Int64("elapsedMs", result.ElapsedMs).
		Bool("errored", result.Errored).
		Msg("Oracle run completed")

	return result, nil
}
