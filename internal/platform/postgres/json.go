package postgres

import (
	"encoding/json"
	"fmt"
)

// jsonColumn marshals v for a JSONB column, substituting empty for nil.
func jsonColumn(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

// scanJSON decodes a JSONB column. Empty input leaves v untouched.
func scanJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}
	return nil
}
