package models

// ErrValidation is a locally detected input error, reported to the user
// before any network call is made.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }
