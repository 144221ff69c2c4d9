package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIncomeRequired      = errors.New("please enter your monthly income")
	ErrNotANumber          = errors.New("must be a number")
	ErrNegative            = errors.New("must not be negative")
	ErrInvalidRiskAppetite = errors.New("must be one of low, medium, high")
	ErrInvalidGoalTimeline = errors.New("timeline must be greater than zero years")
)

// FieldError ties a validation failure to the profile field path it concerns,
// e.g. "goals[0].timelineYears".
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// ValidationError collects every field failure of one profile.
// errors.Is matches any of the underlying sentinels.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid profile: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}

func (e *ValidationError) add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Err: err})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func indexed(list string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, i, field)
}
