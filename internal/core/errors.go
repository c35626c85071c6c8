package core

import "errors"

var (
	// ErrUnknownPostHoc is returned when a post-hoc method name is not registered.
	ErrUnknownPostHoc = errors.New("unknown post-hoc test")
	// ErrNotFitted is returned when results are requested before a model is fitted.
	ErrNotFitted = errors.New("model not fitted")
	// ErrInsufficientData is returned when a dataset cannot support the requested model.
	ErrInsufficientData = errors.New("insufficient data")
)
