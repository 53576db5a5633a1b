package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// StringSet is a TEXT[] column holding a de-duplicated set of strings (bus amenities)
type StringSet []string

// NewStringSet trims, drops blanks and de-duplicates while keeping a stable order
func NewStringSet(values []string) StringSet {
	seen := make(map[string]struct{}, len(values))
	set := make(StringSet, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(v)]; ok {
			continue
		}
		seen[strings.ToLower(v)] = struct{}{}
		set = append(set, v)
	}
	sort.Strings(set)
	return set
}

// Value implements the driver.Valuer interface
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return pq.Array([]string{}).Value()
	}
	return pq.Array([]string(s)).Value()
}

// Scan implements the sql.Scanner interface
func (s *StringSet) Scan(src interface{}) error {
	if src == nil {
		*s = StringSet{}
		return nil
	}
	slice := (*[]string)(s)
	return pq.Array(slice).Scan(src)
}

// jsonValue marshals v for a JSONB column.
// Returns JSON as string for compatibility with the simple query protocol.
func jsonValue(v interface{}) (driver.Value, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// scanJSON decodes a JSONB column into dest
func scanJSON(src interface{}, dest interface{}) error {
	switch value := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(value, dest)
	case string:
		return json.Unmarshal([]byte(value), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
