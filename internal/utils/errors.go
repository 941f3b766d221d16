package utils

import (
	"errors"
	"fmt"
)

// FetchError reports a failed range fetch for one worker.
type FetchError struct {
	Worker int
	Range  Range
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("worker %d (bytes %d-%d): %v", e.Worker, e.Range.Start, e.Range.End, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// MergeError reports a missing or malformed segment found while merging.
type MergeError struct {
	Index int
	Path  string
	Err   error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("segment %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

func (e *MergeError) Is(target error) bool { return target == ErrMerge }

// Kind names the taxonomy entry an error belongs to, for summaries.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrResolutionFailed):
		return "ResolutionFailed"
	case errors.Is(err, ErrSizeUnknown):
		return "SizeUnknown"
	case errors.Is(err, ErrFetch):
		return "FetchError"
	case errors.Is(err, ErrMerge):
		return "MergeError"
	case errors.Is(err, ErrInsufficientSpace):
		return "InsufficientSpace"
	case errors.Is(err, ErrPublish):
		return "PublishError"
	default:
		return "Error"
	}
}
