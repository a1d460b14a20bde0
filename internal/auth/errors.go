package auth

import "fmt"

// ParseError reports that the login page configuration could not be located or parsed.
type ParseError struct {
	Err    error
	Reason string
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse login page: %s: %v", e.Reason, e.Err)
	}
	return "failed to parse login page: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AuthenticationError reports a rejected login submission or token exchange.
// Status and Body carry the portal response for diagnostics.
type AuthenticationError struct {
	Stage  string
	Reason string
	Body   string
	Status int
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("authentication failed at %s step", e.Stage)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
