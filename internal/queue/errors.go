package queue

import "errors"

var (
	// ErrAlreadyExists is returned when a job id is reused on creation.
	ErrAlreadyExists = errors.New("job already exists")
	// ErrNotFound is returned when a job or stage record is unknown.
	ErrNotFound = errors.New("job not found")
	// ErrUnknownStage is returned when a stage name is not part of the pipeline.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrInvalidTransition is returned when a stage update would move a
	// record backward through its lifecycle.
	ErrInvalidTransition = errors.New("invalid stage transition")
)
