package trace

import (
	"fmt"
	"strings"
)

// Field names read by the status line.
const (
	FieldLocation = "loc"
	FieldProtocol = "http"
	FieldClientIP = "ip"
	FieldColo     = "colo"
	FieldTLS      = "tls"
)

// Missing is rendered in place of an absent field.
const Missing = "undefined"

var statusFields = []string{FieldLocation, FieldProtocol, FieldClientIP, FieldColo, FieldTLS}

// MissingFieldsError lists status fields absent from a record.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("trace record missing fields: %s", strings.Join(e.Fields, ", "))
}

// Formatter renders a Record into the one-line status text.
type Formatter struct {
	// Prefix is prepended verbatim, e.g. " | " when the line follows other footer text.
	Prefix string
	// Strict makes Check reject records lacking any status field.
	Strict bool
}

// Format never fails: absent fields render as Missing.
func (f Formatter) Format(rec Record) string {
	v := func(key string) string {
		if s, ok := rec[key]; ok {
			return s
		}
		return Missing
	}
	return fmt.Sprintf("%s访客:%s | %s | IP:%s | 节点:%s | 加密:%s",
		f.Prefix, v(FieldLocation), v(FieldProtocol), v(FieldClientIP), v(FieldColo), v(FieldTLS))
}

// Check formats rec, returning a *MissingFieldsError in strict mode when any
// status field is absent. Without Strict it behaves exactly like Format.
func (f Formatter) Check(rec Record) (string, error) {
	if f.Strict {
		var missing []string
		for _, k := range statusFields {
			if _, ok := rec[k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return "", &MissingFieldsError{Fields: missing}
		}
	}
	return f.Format(rec), nil
}
