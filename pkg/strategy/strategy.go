// Package strategy runs ordered fallback chains where each step reports
// found, not-found or error instead of signalling absence through errors.
package strategy

import (
	"context"
	"errors"
)

// Status is the tag of an Outcome.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusError:
		return "error"
	default:
		return "not_found"
	}
}

// Outcome is the result of a single strategy.
type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
	// By names the strategy that produced the outcome.
	By string
}

func Found[T any](v T) Outcome[T] { return Outcome[T]{Status: StatusFound, Value: v} }

func NotFound[T any]() Outcome[T] { return Outcome[T]{Status: StatusNotFound} }

func Failed[T any](err error) Outcome[T] { return Outcome[T]{Status: StatusError, Err: err} }

// Strategy is one named step of a chain.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) Outcome[T]
}

// Of builds a Strategy.
func Of[T any](name string, run func(ctx context.Context) Outcome[T]) Strategy[T] {
	return Strategy[T]{Name: name, Run: run}
}

// First runs strategies in order and returns the first Found outcome. When
// none is found it returns NotFound, carrying the joined errors of the
// strategies that failed. A cancelled context stops the chain.
func First[T any](ctx context.Context, strategies ...Strategy[T]) Outcome[T] {
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out := s.Run(ctx)
		out.By = s.Name
		switch out.Status {
		case StatusFound:
			return out
		case StatusError:
			errs = append(errs, out.Err)
		}
	}
	res := NotFound[T]()
	res.Err = errors.Join(errs...)
	return res
}
