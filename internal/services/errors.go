package services

// ValidationError reports input the client can correct.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }
