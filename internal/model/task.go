package model

import "time"

// Task is a single coding exercise within a module. Position drives the
// linear unlock chain: the task at position i is unlocked once the task at
// position i-1 is completed (position 0 is always unlocked).
type Task struct {
	ID            int       `json:"id"`
	ModuleID      int       `json:"module_id"`
	Title         string    `json:"title"`
	Prompt        string    `json:"prompt"`
	Position      int       `json:"position"`
	TimeLimitSecs int       `json:"time_limit_secs"`
	MemoryLimitMB int       `json:"memory_limit_mb"`
	StarterCode   string    `json:"starter_code"`
	// Solution is the reference solution. It is only ever serialized on
	// admin endpoints; learner-facing handlers blank it before responding.
	Solution  string    `json:"solution,omitempty"`
	XPReward  int       `json:"xp_reward"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Unlocked / Completed are per-user annotations filled by the catalog
	// service; they are not columns on the tasks table.
	Unlocked  *bool `json:"unlocked,omitempty"`
	Completed *bool `json:"completed,omitempty"`

	TestCases []TestCase `json:"test_cases,omitempty"`
}

// TestCase is one (input, expected output) scoring pair for a task.
// Hidden cases are withheld from learners but always count toward scoring.
type TestCase struct {
	ID             int       `json:"id"`
	TaskID         int       `json:"task_id"`
	Input          string    `json:"input"`
	ExpectedOutput string    `json:"expected_output"`
	Hidden         bool      `json:"hidden"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateTaskRequest is the admin payload for adding a task to a module.
type CreateTaskRequest struct {
	Title         string `json:"title" binding:"required,min=2,max=200"`
	Prompt        string `json:"prompt" binding:"required"`
	Position      int    `json:"position" binding:"gte=0"`
	TimeLimitSecs int    `json:"time_limit_secs" binding:"required,gte=1,lte=30"`
	MemoryLimitMB int    `json:"memory_limit_mb" binding:"required,gte=16,lte=1024"`
	StarterCode   string `json:"starter_code" binding:"max=65536"`
	Solution      string `json:"solution" binding:"max=65536"`
	XPReward      int    `json:"xp_reward" binding:"gte=0"`
}

// UpdateTaskRequest is the admin payload for editing a task.
type UpdateTaskRequest struct {
	Title         string `json:"title" binding:"required,min=2,max=200"`
	Prompt        string `json:"prompt" binding:"required"`
	Position      int    `json:"position" binding:"gte=0"`
	TimeLimitSecs int    `json:"time_limit_secs" binding:"required,gte=1,lte=30"`
	MemoryLimitMB int    `json:"memory_limit_mb" binding:"required,gte=16,lte=1024"`
	StarterCode   string `json:"starter_code" binding:"max=65536"`
	Solution      string `json:"solution" binding:"max=65536"`
	XPReward      int    `json:"xp_reward" binding:"gte=0"`
}

// CreateTestCaseRequest is the admin payload for adding a test case.
type CreateTestCaseRequest struct {
	Input          string `json:"input" binding:"max=65536"`
	ExpectedOutput string `json:"expected_output" binding:"required,max=65536"`
	Hidden         bool   `json:"hidden"`
	Position       int    `json:"position" binding:"gte=0"`
}
