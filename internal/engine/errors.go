package engine

import "errors"

// ErrSilentNoBroadcast is returned by an action that completed
// successfully but must not be broadcast or acknowledged, used by a
// delayed FINISH(disconnection) that finds the player already
// reconnected.
var ErrSilentNoBroadcast = errors.New("engine: silent, no broadcast")

// Kind distinguishes the two player-facing error classes: a rule
// violation (the action was never legal) from an action error (the
// action was legal but failed against current state).
type Kind string

const (
	KindRule   Kind = "rule"
	KindAction Kind = "action"
)

// Error is a player-facing game error, unicast-only: it never mutates
// state and is never broadcast to the room.
type Error struct {
	Kind    Kind
	Details string
}

func (e *Error) Error() string { return e.Details }

func ruleError(details string) error {
	return &Error{Kind: KindRule, Details: details}
}

func actionError(details string) error {
	return &Error{Kind: KindAction, Details: details}
}
