package domain

import "errors"

// Failure taxonomy shared across the ledger, generation, and briefing layers.
// Callers distinguish cases with errors.Is.
var (
	// ErrUnauthenticated means no profile is loaded; ledger operations are
	// no-ops and generation must not start.
	ErrUnauthenticated = errors.New("no profile loaded")

	// ErrInsufficientBalance means a spend exceeded the current balance.
	// Reported before any network call; nothing is mutated.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound means the durable store has no record for the key.
	ErrNotFound = errors.New("not found")

	// ErrPersistence means a durable save failed after a ledger mutation;
	// the in-memory state is ahead of the store.
	ErrPersistence = errors.New("persistence failure")

	// ErrBlankAnswer means a briefing answer was empty or whitespace.
	// Recovered locally; the session does not advance.
	ErrBlankAnswer = errors.New("answer must not be blank")

	// ErrBriefingIncomplete means generation was requested before every
	// question had an answer.
	ErrBriefingIncomplete = errors.New("briefing incomplete")

	// ErrGenerationStarted guards against double submission: the session
	// already left the asking stage.
	ErrGenerationStarted = errors.New("generation already started")

	// ErrStreamRead means the generation stream could not be opened or was
	// interrupted mid-flight (including timeout).
	ErrStreamRead = errors.New("stream read failure")

	// ErrMalformedPlan means structured-mode output failed to parse as a
	// content plan after fence stripping.
	ErrMalformedPlan = errors.New("malformed content plan")
)
