package trace

import "time"

// Snapshot records the outcome of one refresh.
type Snapshot struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	Record     Record    `json:"record,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
}
