package chat

import "errors"

var (
	ErrUnknownModel  = errors.New("unknown model")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrBusy          = errors.New("a request is already in flight")
)
