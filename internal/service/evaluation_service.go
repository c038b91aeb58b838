package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/judge"
	"github.com/codequestlab/codequest-backend/internal/model"
)

// CodeRunner executes one piece of source code against one stdin payload and
// returns the terminal verdict. *judge.Client is the production
// implementation; tests substitute fakes.
type CodeRunner interface {
	Run(ctx context.Context, code, language, stdin string, limits judge.Limits) (*judge.Result, error)
}

// CaseResult is the scored outcome of a single test case.
type CaseResult struct {
	TestCase model.TestCase
	Passed   bool
	Status   string
	Stdout   string
	Token    string
	Time     string
	MemoryKB int
}

// EvaluationResult aggregates per-case outcomes for one submission.
// Results preserve the input test case order.
type EvaluationResult struct {
	Results     []CaseResult
	TotalPassed int
	TotalCases  int
}

// LastToken returns the judge correlation token of the final executed case,
// kept on the submission for audit.
func (r *EvaluationResult) LastToken() string {
	for i := len(r.Results) - 1; i >= 0; i-- {
		if r.Results[i].Token != "" {
			return r.Results[i].Token
		}
	}
	return ""
}

// EvaluationService scores a submission's code against a task's test cases.
type EvaluationService struct {
	runner CodeRunner
	log    zerolog.Logger
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(runner CodeRunner, log zerolog.Logger) *EvaluationService {
	return &EvaluationService{
		runner: runner,
		log:    log.With().Str("component", "evaluation_service").Logger(),
	}
}

// Evaluate runs the code once per test case, strictly in case order, and
// marks a case passed iff the judge reports exactly "Accepted" AND the
// stdout equals the expected output after trimming leading/trailing
// whitespace (interior whitespace and case stay significant).
//
// A runner failure on one case records that case as failed with the error
// text as its status and moves on — one infrastructure hiccup must not
// silently fail the rest of the batch. No retries happen here beyond what
// the runner already does internally.
func (s *EvaluationService) Evaluate(ctx context.Context, code, language string, testCases []model.TestCase, timeLimitSecs, memoryLimitMB int) (*EvaluationResult, error) {
	if s.runner == nil {
		return nil, errors.New("no code runner configured")
	}

	limits := judge.Limits{
		CPUTimeSecs: timeLimitSecs,
		MemoryKB:    memoryLimitMB * 1024,
	}

	eval := &EvaluationResult{
		Results:    make([]CaseResult, 0, len(testCases)),
		TotalCases: len(testCases),
	}

	for _, tc := range testCases {
		cr := CaseResult{TestCase: tc}

		result, err := s.runner.Run(ctx, code, language, tc.Input, limits)
		if err != nil {
			// A dead context means the whole evaluation is going nowhere;
			// report it upward with whatever was scored so far.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return eval, err
			}
			cr.Status = "execution failed: " + err.Error()
			s.log.Warn().
				Err(err).
				Int("test_case_id", tc.ID).
				Msg("Test case execution failed, continuing batch")
			eval.Results = append(eval.Results, cr)
			continue
		}

		cr.Status = result.Status.Description
		cr.Stdout = result.Stdout
		cr.Token = result.Token
		cr.Time = result.Time
		cr.MemoryKB = int(result.Memory)

		if result.Status.ID == judge.StatusAccepted &&
			result.Status.Description == judge.DescriptionAccepted &&
			strings.TrimSpace(result.Stdout) == strings.TrimSpace(tc.ExpectedOutput) {
			cr.Passed = true
			eval.TotalPassed++
		}

		eval.Results = append(eval.Results, cr)
	}

	return eval, nil
}
