package document

import "errors"

var (
	// ErrInvalidInput is returned when a required field is missing or blank.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTitle is returned when a title derives to an empty slug.
	ErrInvalidTitle = errors.New("title does not contain any slug characters")
	// ErrSlugCollision is returned when a write targets a slug that is already
	// occupied and the collision policy rejects it.
	ErrSlugCollision = errors.New("slug already in use")
	// ErrStorage wraps failures of the underlying disk, object store or database.
	ErrStorage = errors.New("storage failure")
)
