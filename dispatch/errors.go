package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoAnswer means the server replied 2xx with neither an answer nor an error.
var ErrNoAnswer = errors.New("response has no answer")

// StatusError is a non-2xx reply from the ask endpoint.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// AnswerError carries the "error" field of an otherwise successful reply.
type AnswerError struct {
	Message string
}

func (e *AnswerError) Error() string { return e.Message }
