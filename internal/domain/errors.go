package domain

import "errors"

var (
	// ErrNoCredentials means every configured API key is exhausted or invalid
	// for the current quota epoch.
	ErrNoCredentials = errors.New("no usable api keys")

	// ErrQuotaExceeded is the per-key quota signal from the external source.
	ErrQuotaExceeded = errors.New("api key quota exceeded")

	// ErrInvalidCredential means the external source rejected the key itself.
	ErrInvalidCredential = errors.New("api key invalid")

	// ErrTransient covers retryable network and service failures.
	ErrTransient = errors.New("transient source error")

	// ErrUnknownMethod is returned for a classify method that is neither
	// lexicon nor model.
	ErrUnknownMethod = errors.New("unknown analysis method")

	// ErrUnknownModel is returned when a model name is not in the registry.
	ErrUnknownModel = errors.New("unknown model")
)
