package forecast

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrNotConverged      = errors.New("fit did not converge")
	ErrMalformedForecast = errors.New("malformed forecast")
)

// ErrorKind classifies why a model could not produce its own forecast.
type ErrorKind int

const (
	// KindInsufficientData means the model lacked the minimum history. The ensemble skips
	// such models; single-model calls fall back.
	KindInsufficientData ErrorKind = iota + 1
	// KindConvergence is a single fit inside a grid search failing. It never leaves the model
	// that produced it unless every candidate failed.
	KindConvergence
	// KindModelFailure is any other failure at the model boundary; the fallback substitutes.
	KindModelFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInsufficientData:
		return "insufficient_data"
	case KindConvergence:
		return "convergence"
	case KindModelFailure:
		return "model_failure"
	default:
		return "unknown"
	}
}

// ForecastError is the error carried by a failed Outcome.
type ForecastError struct {
	Kind  ErrorKind
	Model ModelKind
	Err   error
}

func (e *ForecastError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Model, e.Kind, e.Err)
}

func (e *ForecastError) Unwrap() error {
	return e.Err
}

func insufficient(model ModelKind, format string, args ...any) *ForecastError {
	return &ForecastError{
		Kind:  KindInsufficientData,
		Model: model,
		Err:   fmt.Errorf("%w: %s", ErrInsufficientData, fmt.Sprintf(format, args...)),
	}
}

func modelFailure(model ModelKind, err error) *ForecastError {
	var fe *ForecastError
	if errors.As(err, &fe) {
		return fe
	}
	return &ForecastError{Kind: KindModelFailure, Model: model, Err: err}
}

// KindOf returns the ErrorKind of err, or KindModelFailure for foreign errors.
func KindOf(err error) ErrorKind {
	var fe *ForecastError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindModelFailure
}

// Outcome is the result-or-error returned at every model boundary.
type Outcome struct {
	Model  ModelKind
	Result ModelResult
	Err    error
}

// OK reports whether the model produced its own forecast.
func (o Outcome) OK() bool {
	return o.Err == nil
}

func success(model ModelKind, result ModelResult) Outcome {
	return Outcome{Model: model, Result: result}
}

func failed(model ModelKind, err error) Outcome {
	return Outcome{Model: model, Err: modelFailure(model, err)}
}
