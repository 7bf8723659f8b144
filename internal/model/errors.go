package model

import "errors"

// ErrMissingCredential is returned when a selected provider has no API key.
var ErrMissingCredential = errors.New("missing credential")
