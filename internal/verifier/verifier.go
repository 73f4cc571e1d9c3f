package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/executor"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/normalizer"
)

// Status strings surfaced to clients. Nothing below this layer is fatal;
// every failure degrades to one of these.
const (
	StatusAllPassed  = "All Tests Passed!"
	StatusSomeFailed = "Some Tests Failed"
	StatusExecError  = "Error executing code"
	StatusFreeRun    = "Code Executed Successfully!"
)

// Outcome records one test case's run.
type Outcome struct {
	Case         challenge.TestCase
	ActualOutput string
	Passed       bool
	Attempted    bool
	ElapsedMs    int64
	Error        string
}

// Report aggregates a submission's outcomes. AllPassed is true iff every
// attempted case passed and no case was left unattempted.
type Report struct {
	AllPassed      bool
	Outcomes       []Outcome
	TotalElapsedMs int64
	Status         string
}

// Runner is the slice of the execution dispatcher the verifier needs.
type Runner interface {
	Execute(ctx context.Context, req executor.Request) (*executor.Result, error)
}

type Verifier struct {
	runner Runner
	logger zerolog.Logger
}

func New(runner Runner, logger zerolog.Logger) *Verifier {
	return &Verifier{
		runner: runner,
		logger: logger.With().Str("component", "verifier").Logger(),
	}
}

// Verify runs the cases in order, short-circuiting on the first execution
// that itself errors: one broken run reflects a systemic code defect, so
// the remaining cases are marked unattempted rather than run.
func (v *Verifier) Verify(ctx context.Context, cases []challenge.TestCase, sourceCode, lang string, mode normalizer.Mode) *Report {
	if len(cases) == 0 {
		return v.freeRun(ctx, sourceCode, lang)
	}

	report := &Report{Outcomes: make([]Outcome, 0, len(cases))}
	broken := false

	for _, tc := range cases {
		if broken {
			report.Outcomes = append(report.Outcomes, Outcome{Case: tc})
			continue
		}

		result, err := v.runner.Execute(ctx, executor.Request{
			Language:   lang,
			SourceCode: sourceCode,
			Stdin:      tc.Input,
		})
		if err != nil {
			// Transport or oracle failure: this case was never attempted.
			report.Outcomes = append(report.Outcomes, Outcome{Case: tc, Error: err.Error()})
			broken = true
			continue
		}

		report.TotalElapsedMs += result.ElapsedMs

		if result.Errored {
			report.Outcomes = append(report.Outcomes, Outcome{
				Case:         tc,
				ActualOutput: result.Stdout,
				Attempted:    true,
				ElapsedMs:    result.ElapsedMs,
				Error:        result.Stderr,
			})
			broken = true
			continue
		}

		actual := normalizer.Normalize(result.Stdout, lang, mode)
		expected := normalizer.Normalize(tc.ExpectedOutput, lang, mode)

		report.Outcomes = append(report.Outcomes, Outcome{
			Case:         tc,
			ActualOutput: result.Stdout,
			Passed:       actual == expected,
			Attempted:    true,
			ElapsedMs:    result.ElapsedMs,
		})
	}

	report.AllPassed = true
	for _, o := range report.Outcomes {
		if !o.Attempted || !o.Passed {
			report.AllPassed = false
			break
		}
	}
	report.Status = summarizeStatus(report, broken)

	v.logger.Debug().
		Int("cases", len(cases)).
		Bool("allPassed", report.AllPassed).
		Int64("totalElapsedMs", report.TotalElapsedMs).
		Msg("Verification finished")

	return report
}

// freeRun covers the empty test-case list: a single unconstrained dispatch
// with empty stdin. There is no correctness to check, so it succeeds
// unconditionally while still capturing output for display.
func (v *Verifier) freeRun(ctx context.Context, sourceCode, lang string) *Report {
	result, err := v.runner.Execute(ctx, executor.Request{
		Language:   lang,
		SourceCode: sourceCode,
	})
	if err != nil {
		return &Report{
			Outcomes: []Outcome{{Error: err.Error()}},
			Status:   StatusExecError,
		}
	}

	out := Outcome{
		ActualOutput: result.Stdout,
		Passed:       true,
		Attempted:    true,
		ElapsedMs:    result.ElapsedMs,
	}
	if result.Errored {
		out.Error = result.Stderr
	}

	return &Report{
		AllPassed:      true,
		Outcomes:       []Outcome{out},
		TotalElapsedMs: result.ElapsedMs,
		Status:         StatusFreeRun,
	}
}

func summarizeStatus(report *Report, broken bool) string {
	if report.AllPassed {
		return StatusAllPassed
	}
	if broken {
		for _, o := range report.Outcomes {
			if o.Error != "" {
				return StatusExecError
			}
		}
	}
	return StatusSomeFailed
}

// FormatReport renders the per-case breakdown shown in the output panel.
func FormatReport(report *Report) string {
	var b strings.Builder
	passed := 0

	for i, o := range report.Outcomes {
		if i > 0 {
			b.WriteString("---\n")
		}
		fmt.Fprintf(&b, "Test Case %d:\n", i+1)
		fmt.Fprintf(&b, "Input: %s\n", o.Case.Input)
		switch {
		case !o.Attempted:
			if o.Error != "" {
				fmt.Fprintf(&b, "Error: %s\n", o.Error)
			} else {
				b.WriteString("Not attempted\n")
			}
		case o.Error != "":
			fmt.Fprintf(&b, "Error: %s\n", o.Error)
		default:
			fmt.Fprintf(&b, "Expected Output: %s\n", o.Case.ExpectedOutput)
			fmt.Fprintf(&b, "Your Output: %s\n", o.ActualOutput)
			fmt.Fprintf(&b, "Execution Time: %dms\n", o.ElapsedMs)
			if o.Passed {
				b.WriteString("Status: Passed\n")
				passed++
			} else {
				b.WriteString("Status: Failed\n")
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Summary:\n%d out of %d tests passed.", passed, len(report.Outcomes))
	return b.String()
}

// IsHardFailure reports whether err is a dispatch failure rather than a
// graded wrong answer.
func IsHardFailure(err error) bool {
	var transport *executor.TransportError
	var oracle *executor.OracleError
	return errors.As(err, &transport) || errors.As(err, &oracle)
}
