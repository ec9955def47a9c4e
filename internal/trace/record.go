package trace

import "strings"

// Record is the key/value mapping parsed from one trace response.
type Record map[string]string

// Parse splits text into lines and keeps every line that splits into exactly
// two parts on "=". Keys and values are stored verbatim; later lines win.
func Parse(text string) Record {
	rec := make(Record)
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}
		rec[parts[0]] = parts[1]
	}
	return rec
}

// Get returns the value for key and whether it was present.
func (r Record) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}
