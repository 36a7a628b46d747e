package server

import "errors"

var (
	// ErrNotFound covers a missing record, an expired record and a missing
	// blob alike. Consumers must not distinguish the three cases: an
	// expired upload has to look identical to one that never existed.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned by RecordStore.Insert when the code is
	// already taken. Defensive: code reservation makes this unlikely, the
	// database unique index makes it safe.
	ErrDuplicateCode = errors.New("duplicate code")

	// ErrCodeSpaceExhausted is returned when repeated code generation kept
	// colliding with existing records. Effectively unreachable at the
	// configured code length, but surfaced rather than retried forever.
	ErrCodeSpaceExhausted = errors.New("code space exhausted")
)
