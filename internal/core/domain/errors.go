package domain

import "errors"

var (
	// ErrNoData indicates the remote source has no usable metrics for the
	// requested campaign. Recommendation calls fail outright on this.
	ErrNoData = errors.New("no metrics data for campaign")

	// ErrAccountNotFound indicates an account ID that is not under
	// management.
	ErrAccountNotFound = errors.New("account not found")
)
