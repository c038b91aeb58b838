package judge

// Judge0 status identifiers. Only InQueue and Processing are non-terminal;
// every other id is a final verdict for that execution.
const (
	StatusInQueue             = 1
	StatusProcessing          = 2
	StatusAccepted            = 3
	StatusWrongAnswer         = 4
	StatusTimeLimitExceeded   = 5
	StatusCompilationError    = 6
	StatusRuntimeErrorSIGSEGV = 7
	StatusInternalError       = 13
)

// DescriptionAccepted is the status description the evaluator matches
// exactly when deciding whether a test case passed.
const DescriptionAccepted = "Accepted"

// Status is the execution-service verdict descriptor.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Terminal reports whether polling can stop: anything past Processing
// will never change on further polls.
func (s Status) Terminal() bool {
	return s.ID != StatusInQueue && s.ID != StatusProcessing
}

// Result is the raw outcome of one execution as reported by the service.
type Result struct {
	Token         string  `json:"token"`
	Status        Status  `json:"status"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	CompileOutput string  `json:"compile_output"`
	Time          string  `json:"time"`
	Memory        float64 `json:"memory"`
}
