package model

// Task is a single step of a pipeline. Its ordinal position is the index in
// Pipeline.Tasks.
type Task struct {
	ID             string `json:"id" yaml:"id"`
	Executor       string `json:"executor" yaml:"executor"`
	HumanApproval  bool   `json:"humanApproval,omitempty" yaml:"humanApproval,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	ExpectedOutput string `json:"expectedOutput,omitempty" yaml:"expectedOutput,omitempty"`
}

// IsCheckpoint reports whether the task suspends the run for human review.
func (t *Task) IsCheckpoint() bool { return t.HumanApproval }

// WithApproval marks the task as a checkpoint.
func (t *Task) WithApproval() *Task {
	t.HumanApproval = true
	return t
}

// WithDescription sets the task instructions and expected output.
func (t *Task) WithDescription(description, expected string) *Task {
	t.Description = description
	t.ExpectedOutput = expected
	return t
}

// Instructions returns the prompt given to the executor before interpolation.
func (t *Task) Instructions() string {
	if t.ExpectedOutput == "" {
		return t.Description
	}
	return t.Description + "\n\nExpected output: " + t.ExpectedOutput
}
