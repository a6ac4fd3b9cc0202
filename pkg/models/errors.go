package models

import (
	"errors"
	"fmt"
)

// Rejection and failure reasons
const (
	ReasonMissingColumn        = "missing_column"
	ReasonUnparseableTimestamp = "unparseable_timestamp"
	ReasonInvalidUsage         = "invalid_usage"
	ReasonInvalidCost          = "invalid_cost"
	ReasonInsufficientHistory  = "insufficient_history"
	ReasonInvalidHorizon       = "invalid_horizon"
	ReasonNotDaily             = "not_daily"
	ReasonUnorderedHistory     = "unordered_history"
)

var (
	ErrMissingColumn       = errors.New(ReasonMissingColumn)
	ErrInsufficientHistory = errors.New(ReasonInsufficientHistory)
)

// SchemaError aborts a whole request because a column it needs is absent
type SchemaError struct {
	Reason string
	Field  Field
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %s", e.Reason, e.Field)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrMissingColumn && e.Reason == ReasonMissingColumn
}

// MissingColumn builds the SchemaError for an absent field
func MissingColumn(f Field) *SchemaError {
	return &SchemaError{Reason: ReasonMissingColumn, Field: f}
}

// RowError rejects a single input row. Row is the zero-based data row index.
type RowError struct {
	Reason string
	Row    int
	Err    error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Reason, e.Err)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ForecastError fails a forecast request
type ForecastError struct {
	Reason string
	Detail string
}

func (e *ForecastError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("forecast error: %s (%s)", e.Reason, e.Detail)
	}
	return "forecast error: " + e.Reason
}

func (e *ForecastError) Is(target error) bool {
	return target == ErrInsufficientHistory && e.Reason == ReasonInsufficientHistory
}
