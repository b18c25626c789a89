package conformance

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"fugue/textio"
	"fugue/types"
	"fugue/vm"
)

// Epoch is the fixed clock every test interpreter sees
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests, each against a fresh interpreter
type Runner struct {
	Seed int64
}

// NewRunner creates a new test runner
func NewRunner() *Runner {
	return &Runner{Seed: 1}
}

// serverLog records server sends
type serverLog struct {
	lines []string
	fail  bool
}

func (s *serverLog) Send(line string) error {
	if s.fail {
		return errors.New("connection lost")
	}
	s.lines = append(s.lines, line)
	return nil
}

// outcome is what one test produced
type outcome struct {
	result types.Result
	output []string
	errors []string
	sent   []string
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{
			Test:       test,
			Skipped:    true,
			SkipReason: reason,
		}
	}

	got, err := r.execute(test)
	if err != nil {
		return TestResult{Test: test, Error: err}
	}
	if err := checkExpectation(test.Test.Expect, got); err != nil {
		return TestResult{Test: test, Error: err}
	}
	return TestResult{Test: test, Passed: true}
}

func (r *Runner) execute(test LoadedTest) (outcome, error) {
	out, errs := textio.NewQueue(), textio.NewQueue()
	it := vm.New(out, errs)
	it.Seed(r.Seed)
	it.SetClock(func() time.Time { return Epoch })
	server := &serverLog{}
	it.SetSender(server)

	sub := test.Test.Sub
	if sub == "" {
		sub = "off"
	}
	if _, err := it.Globals().Set("sub", types.NewStr(sub)); err != nil {
		return outcome{}, fmt.Errorf("sub: %w", err)
	}

	// Setup output is discarded; setup errors fail the test
	setup := append(append([]string(nil), test.Suite.Setup...), test.Test.Setup...)
	for _, line := range setup {
		it.ExecLine(line)
	}
	if errs.Len() > 0 {
		return outcome{}, fmt.Errorf("setup failed: %s", strings.Join(errs.Texts(), "; "))
	}
	out.Reset()
	server.lines = nil
	server.fail = test.Test.SendFails

	var result types.Result
	switch {
	case test.Test.Expr != "":
		result = it.EvalExpr(test.Test.Expr)
	case test.Test.Script != "":
		result = it.LoadReader(strings.NewReader(test.Test.Script), test.Test.Name)
	case len(test.Test.Lines) > 0:
		for _, line := range test.Test.Lines {
			result = it.ExecLine(line)
			if result.Flow == types.FlowExit {
				break
			}
		}
	default:
		return outcome{}, errors.New("no lines, script or expr")
	}

	return outcome{
		result: result,
		output: out.Texts(),
		errors: errs.Texts(),
		sent:   server.lines,
	}, nil
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

// checkExpectation compares what a test produced with what it expects
func checkExpectation(expect Expectation, got outcome) error {
	if err := sameLines("output", expect.Output, got.output); err != nil {
		return err
	}
	if err := sameLines("errors", expect.Errors, got.errors); err != nil {
		return err
	}
	if err := sameLines("sent", expect.Sent, got.sent); err != nil {
		return err
	}

	result := got.result
	if expect.Error != "" {
		if !result.IsError() {
			return fmt.Errorf("expected error %s, got value %q", expect.Error, valueString(result))
		}
		if result.Error.String() != strings.ToUpper(expect.Error) {
			return fmt.Errorf("expected error %s, got %s (%s)", expect.Error, result.Error, result.Msg)
		}
		return nil
	}
	if (expect.Value != nil || expect.Type != "" || expect.Match != "") && result.IsError() {
		return fmt.Errorf("unexpected error %s: %s", result.Error, result.Msg)
	}

	if expect.Value != nil && valueString(result) != *expect.Value {
		return fmt.Errorf("expected value %q, got %q", *expect.Value, valueString(result))
	}
	if expect.Type != "" {
		if result.Val == nil {
			return fmt.Errorf("expected type %s, got no value", expect.Type)
		}
		if result.Val.Type().String() != strings.ToLower(expect.Type) {
			return fmt.Errorf("expected type %s, got %s", expect.Type, result.Val.Type())
		}
	}
	if expect.Match != "" {
		re, err := regexp.Compile(expect.Match)
		if err != nil {
			return fmt.Errorf("bad match pattern: %w", err)
		}
		if !re.MatchString(valueString(result)) {
			return fmt.Errorf("value %q does not match %s", valueString(result), expect.Match)
		}
	}
	return nil
}

func valueString(r types.Result) string {
	if r.Val == nil {
		return ""
	}
	return r.Val.String()
}

func sameLines(what string, want *[]string, got []string) error {
	if want == nil {
		return nil
	}
	if len(*want) == 0 && len(got) == 0 {
		return nil
	}
	if !reflect.DeepEqual(*want, got) {
		return fmt.Errorf("%s = %q, want %q", what, got, *want)
	}
	return nil
}
