package wikipedia

import (
	"errors"
	"fmt"
)

// ErrQuery matches every failure returned by [Client.Search] and
// [Client.RandomArticle]:
//
//	if errors.Is(err, wikipedia.ErrQuery) { ... }
var ErrQuery = errors.New("wikipedia query failed")

var (
	// ErrAPI is returned when the API answers with an error object,
	// e.g. for an empty search keyword.
	ErrAPI = errors.New("api error")

	// ErrShape is returned when a response lacks a field the stage needs.
	ErrShape = errors.New("unexpected response shape")

	// ErrUnresolved is returned in strict mode when a search hit has no
	// matching info record.
	ErrUnresolved = errors.New("title not resolved")
)

// QueryError is the single failure kind of the client. Op is the operation
// ("search" or "random"), Stage the request that failed, and Err the cause
// (transport error, status error, decode error, [ErrAPI], [ErrShape],
// [ErrUnresolved] or a context error).
type QueryError struct {
	Op    string
	Stage Action
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("wikipedia %s: %s stage: %v", e.Op, e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is makes every QueryError match [ErrQuery].
func (e *QueryError) Is(target error) bool { return target == ErrQuery }

func queryErr(op string, stage Action, err error) error {
	return &QueryError{Op: op, Stage: stage, Err: err}
}

func shapeErr(field string) error {
	return fmt.Errorf("%w: missing %s", ErrShape, field)
}
