package trace

import "fmt"

// Kind classifies why a trace fetch failed.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindHTTPStatus
	KindBodyRead
	KindEmptyBody
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindBodyRead:
		return "body_read"
	case KindEmptyBody:
		return "empty_body"
	default:
		return "unknown"
	}
}

// FetchError is returned for every failed trace fetch.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch trace %s: status %d", e.URL, e.StatusCode)
	case KindEmptyBody:
		return fmt.Sprintf("fetch trace %s: empty body", e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch trace %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch trace %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }
