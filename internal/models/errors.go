package models

import (
	"errors"
	"fmt"
)

// FailureKind classifies pipeline failures by how callers must react.
type FailureKind string

const (
	// FetchFailure covers network errors, timeouts and non-2xx responses.
	FetchFailure FailureKind = "fetch"
	// ParseFailure covers malformed markup and unreadable PDF/image assets.
	ParseFailure FailureKind = "parse"
	// StoreFailure covers fact/content store errors.
	StoreFailure FailureKind = "store"
	// ModelFailure covers embedding and completion provider errors. It is the
	// only kind surfaced to callers of the orchestrator.
	ModelFailure FailureKind = "model"
)

// Failure tags an error with its kind and the operation that failed.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s failure: %s", f.Kind, f.Op)
	}
	return fmt.Sprintf("%s failure: %s: %v", f.Kind, f.Op, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail wraps err as a failure of the given kind.
func Fail(kind FailureKind, op string, err error) error {
	return &Failure{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether any failure in err's chain has the given kind.
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	for err != nil {
		if !errors.As(err, &f) {
			return false
		}
		if f.Kind == kind {
			return true
		}
		err = f.Err
	}
	return false
}
