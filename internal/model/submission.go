package model

import "time"

// SubmissionStatus is the lifecycle state of a submission. A submission is
// created pending and moved exactly once to one of the terminal states.
type SubmissionStatus string

const (
	SubmissionPending          SubmissionStatus = "pending"
	SubmissionAccepted         SubmissionStatus = "accepted"
	SubmissionWrongAnswer      SubmissionStatus = "wrong_answer"
	SubmissionCompilationError SubmissionStatus = "compilation_error"
)

// Terminal reports whether the status will never change again.
func (s SubmissionStatus) Terminal() bool {
	return s != SubmissionPending
}

// Submission is one learner attempt at a task.
type Submission struct {
	ID              string           `json:"id"`
	UserID          int              `json:"user_id"`
	TaskID          int              `json:"task_id"`
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	Status          SubmissionStatus `json:"status"`
	TestCasesPassed int              `json:"test_cases_passed"`
	TotalTestCases  int              `json:"total_test_cases"`
	// JudgeToken is the correlation token of the last executed test case,
	// kept for audit against the execution service.
	JudgeToken string    `json:"judge_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SubmitCodeRequest is the learner payload for submitting a solution.
type SubmitCodeRequest struct {
	Code     string `json:"code" binding:"required,max=65536"`
	Language string `json:"language" binding:"required,min=1,max=32"`
}

// TestCaseVerdict is the learner-facing outcome of one scored test case.
// Inputs and outputs of hidden test cases are blanked before responding.
type TestCaseVerdict struct {
	TestCaseID int    `json:"test_case_id"`
	Hidden     bool   `json:"hidden"`
	Passed     bool   `json:"passed"`
	Status     string `json:"status"`
	Stdout     string `json:"stdout,omitempty"`
	TimeTaken  string `json:"time_taken,omitempty"`
	MemoryKB   int    `json:"memory_kb,omitempty"`
}

// SubmitCodeResponse is returned once the submission reaches a terminal state.
type SubmitCodeResponse struct {
	Submission  Submission        `json:"submission"`
	Results     []TestCaseVerdict `json:"results"`
	TotalPassed int               `json:"total_passed"`
	TotalTests  int               `json:"total_tests"`
}
