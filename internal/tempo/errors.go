package tempo

import "errors"

var (
	// ErrOrder is returned when a record's end time precedes its start time.
	ErrOrder = errors.New("end time is before start time")

	// ErrBoundary is returned when a record would span more than one calendar day.
	ErrBoundary = errors.New("record crosses a day boundary")

	// ErrOverlap is returned when a record would intersect an existing record.
	ErrOverlap = errors.New("record overlaps an existing record")

	// ErrDecode is returned for malformed persisted documents.
	ErrDecode = errors.New("malformed record document")

	// ErrInvariant signals an internal consistency failure, such as more than
	// one running record in a timeline. It is a bug, not a user error.
	ErrInvariant = errors.New("timeline invariant violated")

	// ErrInvalidState is returned when an operation does not apply to a
	// record in its current state, e.g. Duration on a running record.
	ErrInvalidState = errors.New("invalid record state")

	// ErrMissingStart is returned when a record is inserted without a start time.
	ErrMissingStart = errors.New("start time is required")

	// ErrNotFound is returned when a referenced record or project does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEraseUnconfirmed is returned when a save would delete a day file that
	// still holds records and the caller did not ask for that.
	ErrEraseUnconfirmed = errors.New("save would erase a non-empty day; confirmation required")
)
