package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dpogorelov/trackbot/internal/domain"
)

// dateLayout stores spent-on as a bare calendar date; the tracker does not
// care about the time of day.
const dateLayout = "2006-01-02"

func nullableDateToString(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func parseNullableDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func marshalCandidates(refs []domain.IssueRef) (string, error) {
	if refs == nil {
		refs = []domain.IssueRef{}
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("marshaling candidates: %w", err)
	}
	return string(data), nil
}

func unmarshalCandidates(s string) ([]domain.IssueRef, error) {
	var refs []domain.IssueRef
	if err := json.Unmarshal([]byte(s), &refs); err != nil {
		return nil, fmt.Errorf("unmarshaling candidates: %w", err)
	}
	return refs, nil
}
