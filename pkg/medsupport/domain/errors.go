package domain

import "errors"

var (
	// ErrModelNotLoaded the model could not be loaded; the next call tries again.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrInferenceFailed the backend failed to generate a response.
	ErrInferenceFailed = errors.New("inference failed")
	// ErrEmptyResponse the backend answered but produced no completion.
	ErrEmptyResponse = errors.New("model returned no completion")
	// ErrImageDecode the uploaded bytes are not an image we can read.
	ErrImageDecode = errors.New("cannot identify image file")
)
