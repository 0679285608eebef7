package domain

import "errors"

var (
	// ErrNotFound indicates that a referenced party, proxy number or ride does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrPoolExhausted indicates that no proxy number is eligible for the requested
	// pair. Only resolvable by an administrator extending the pool.
	ErrPoolExhausted = errors.New("no eligible proxy number in pool")
	// ErrUnknownRoute indicates that an inbound event could not be matched to any
	// ride on the addressed proxy number.
	ErrUnknownRoute = errors.New("no ride matches proxy number and originator")
	// ErrConflict indicates the transactional check-and-insert lost a race and
	// should be retried after re-checking eligibility.
	ErrConflict = errors.New("concurrent allocation conflict")
)
