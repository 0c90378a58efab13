package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecord is matched by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports required columns that are absent from the
// ledger header. It aborts a run: nothing downstream can be trusted.
type MalformedRecordError struct {
	Missing []string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: required column(s) missing: %s", strings.Join(e.Missing, ", "))
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// RequireColumns checks a header for the named columns.
// Per-row nulls are fine; only a column missing from the header is an error.
func RequireColumns(columns []string, required ...string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &MalformedRecordError{Missing: missing}
	}
	return nil
}
