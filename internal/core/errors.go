package core

import (
	"errors"
	"fmt"
)

var (
	ErrTokenBudgetExceeded    = errors.New("token budget exceeded")
	ErrAnswerGenerationFailed = errors.New("answer generation failed")
	ErrRetrievalFailed        = errors.New("retrieval failed")
)

// Stable diagnostic codes shown to users for support escalation.
const (
	CodeTokenBudgetExceeded    = "E1001"
	CodeAnswerGenerationFailed = "E1002"
)

// AnswerError is a failed answer with a message that is safe to show.
type AnswerError struct {
	Code        string
	UserMessage string
	Err         error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *AnswerError) Unwrap() error {
	return e.Err
}

func NewTokenBudgetError(err error) *AnswerError {
	return &AnswerError{
		Code:        CodeTokenBudgetExceeded,
		UserMessage: fmt.Sprintf("Sorry, this conversation is too long for me to answer. Please start a shorter question. (code %s)", CodeTokenBudgetExceeded),
		Err:         err,
	}
}

func NewGenerationError(err error) *AnswerError {
	return &AnswerError{
		Code:        CodeAnswerGenerationFailed,
		UserMessage: fmt.Sprintf("Sorry, I could not generate an answer right now. Please try again later. (code %s)", CodeAnswerGenerationFailed),
		Err:         fmt.Errorf("%w: %w", ErrAnswerGenerationFailed, err),
	}
}
