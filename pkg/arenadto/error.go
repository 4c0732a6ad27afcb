package arenadto

// DomainError is the wire-visible rejection of a command. Code is stable and
// machine-matchable; Retryable marks transient conditions (custody handoff,
// cooldowns) that resolve without client correction.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "arena error"
}

// Is matches any DomainError with the same code, so callers can use
// errors.Is against the sentinel values.
func (e DomainError) Is(target error) bool {
	t, ok := target.(DomainError)
	return ok && t.Code == e.Code
}
