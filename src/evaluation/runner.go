package evaluation

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/agent"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
)

const defaultParallelism = 1

// Invoker runs one prompt through the assistant and returns the raw console
// output it produced.
type Invoker func(ctx context.Context, prompt string) (string, error)

// Runner executes suites against an Invoker.
type Runner struct {
	invoke   Invoker
	parallel int
	logger   *slog.Logger
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithParallelism sets how many cases may run at once.
func WithParallelism(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner around invoke.
func NewRunner(invoke Invoker, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		invoke:   invoke,
		parallel: defaultParallelism,
		logger:   logger.With("area", "evaluation"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every case of suite. A failed invocation does not stop the
// run: its error placeholder becomes the response and is validated like any
// other answer. Run only fails when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, suite Suite) (Report, error) {
	report := Report{
		Suite:   suite.Name,
		Started: r.now(),
		Results: make([]CaseResult, len(suite.Cases)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)

	for i, c := range suite.Cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = r.runCase(gctx, i+1, c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Elapsed = r.now().Sub(report.Started)

	r.logger.Info("suite complete",
		"suite", suite.Name,
		"passed", report.Passed(),
		"total", report.Total(),
		"accuracy", report.Accuracy(),
	)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, index int, c Case) CaseResult {
	start := r.now()
	res := CaseResult{
		Index:    index,
		Input:    c.Input,
		Expected: c.ExpectedKeywords,
	}

	raw, err := r.invoke(ctx, c.Input)
	if err != nil {
		r.logger.Warn("invocation failed", "case", index, "err", err)
		res.Err = err.Error()
		raw = agent.Placeholder(err)
	}

	res.Response = sanitizer.Clean(raw)
	v := Validate(res.Response, c.ExpectedKeywords)
	res.Missing = v.Missing
	res.Passed = v.Passed()
	res.Duration = r.now().Sub(start)

	r.logger.Debug("case done", "case", index, "passed", res.Passed, "missing", res.Missing)
	return res
}
