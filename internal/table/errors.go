package table

import "fmt"

// LookupError reports that a batch user lookup could not resolve organizations.
type LookupError struct {
	Err    error
	Reason string
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("user lookup failed: %s: %v", e.Reason, e.Err)
	}
	return "user lookup failed: " + e.Reason
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// KeyError reports a grouping key without a display name.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("no display name for key %q", e.Key)
}
