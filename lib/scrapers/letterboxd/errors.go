package letterboxd

import "fmt"

type FetchReason string

const (
	ReasonTimeout    FetchReason = "timeout"
	ReasonStatus     FetchReason = "status"
	ReasonConnection FetchReason = "connection"
)

// FetchError is any failure to obtain a page: transport errors,
// timeouts and non-2xx statuses. it always aborts the subject it
// occurred for.
type FetchError struct {
	URL    string
	Reason FetchReason
	Status int
	cause  error
}

func (e *FetchError) Error() string {
	if e.Reason == ReasonStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	if e.cause != nil {
		return fmt.Sprintf("fetch %s: %s: %s", e.URL, e.Reason, e.cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.cause
}

// StructuralError means the markup did not have the shape the parser
// was written against, most likely because letterboxd changed their
// layout. at profile or page level it aborts the subject; row-level
// mismatches are skipped with a warning instead.
type StructuralError struct {
	Detail string
}

func (e *StructuralError) Error() string {
	return "unexpected page structure: " + e.Detail
}
