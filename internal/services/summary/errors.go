package summary

import "fmt"

// Stage identifies which generation call failed.
type Stage string

const (
	StageAnalysis Stage = "analysis"
	StageWriting  Stage = "writing"
)

// UpstreamGenerationError is returned when a generation call errors, returns
// empty output, or returns output missing the translation headings.
type UpstreamGenerationError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamGenerationError) Error() string {
	return fmt.Sprintf("%s stage generation failed: %v", e.Stage, e.Err)
}

func (e *UpstreamGenerationError) Unwrap() error {
	return e.Err
}
