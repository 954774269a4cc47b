package rewrite

import "errors"

var (
	// ErrEmptySearch is returned when a rule has an empty search literal.
	ErrEmptySearch = errors.New("rewrite rule search literal must not be empty")
)
