package models

import "fmt"

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageExtract   Stage = "extract"
	StageNormalize Stage = "normalize"
	StageAggregate Stage = "aggregate"
	StageForecast  Stage = "forecast"
	StageRun       Stage = "run"
)

// Kind is the failure classification within a stage.
type Kind string

const (
	KindStatus             Kind = "status"
	KindTimeout            Kind = "timeout"
	KindNetwork            Kind = "network"
	KindNoTables           Kind = "no_tables"
	KindNoSalaryTable      Kind = "no_salary_table"
	KindUnparseableColumn  Kind = "unparseable_column"
	KindNoSalaryColumn     Kind = "no_salary_column"
	KindEmptyAfterFilter   Kind = "empty_after_filter"
	KindInsufficientPoints Kind = "insufficient_points"
	KindInvalidHorizon     Kind = "invalid_horizon"
	KindNoData             Kind = "no_data"
)

// Sentinels for errors.Is. Matching compares Stage and Kind only.
var (
	ErrStatus             = &PipelineError{Stage: StageFetch, Kind: KindStatus}
	ErrTimeout            = &PipelineError{Stage: StageFetch, Kind: KindTimeout}
	ErrNetwork            = &PipelineError{Stage: StageFetch, Kind: KindNetwork}
	ErrNoTables           = &PipelineError{Stage: StageExtract, Kind: KindNoTables}
	ErrNoSalaryTable      = &PipelineError{Stage: StageExtract, Kind: KindNoSalaryTable}
	ErrUnparseableColumn  = &PipelineError{Stage: StageNormalize, Kind: KindUnparseableColumn}
	ErrNoSalaryColumn     = &PipelineError{Stage: StageAggregate, Kind: KindNoSalaryColumn}
	ErrEmptyAfterFilter   = &PipelineError{Stage: StageAggregate, Kind: KindEmptyAfterFilter}
	ErrInsufficientPoints = &PipelineError{Stage: StageForecast, Kind: KindInsufficientPoints}
	ErrInvalidHorizon     = &PipelineError{Stage: StageForecast, Kind: KindInvalidHorizon}
	ErrNoData             = &PipelineError{Stage: StageRun, Kind: KindNoData}
)

// PipelineError is the internal error type carrying a stage and failure kind.
// It supports error wrapping via Unwrap.
type PipelineError struct {
	Stage   Stage
	Kind    Kind
	Message string
	// StatusCode is set for fetch/status failures.
	StatusCode int
	Err        error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s/%s", e.Stage, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PipelineError of the same stage and kind.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Stage == e.Stage && t.Kind == e.Kind
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(stage Stage, kind Kind, message string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: kind, Message: message, Err: err}
}
