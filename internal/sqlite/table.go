package sqlite

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// timeLayout is the on-disk timestamp format. The fraction is fixed width so
// that text ordering in SQL matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts any RFC 3339 timestamp, so hand-edited JSONL files load.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// fieldSpec maps a partial-update field onto its column and converts the
// caller's value into a SQLite argument.
type fieldSpec struct {
	column  string
	convert func(v any) (any, error)
}

// buildUpdate turns Table.Update fields into SET clauses and arguments.
// Fields are processed in sorted order so the generated SQL is stable.
func buildUpdate(specs map[string]fieldSpec, fields map[string]any) ([]string, []any, error) {
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("%w: no fields to update", types.ErrInvalidData)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		spec, ok := specs[k]
		if !ok {
			return nil, nil, fmt.Errorf("%w: unknown field %q", types.ErrInvalidData, k)
		}
		v, err := spec.convert(fields[k])
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", k, err)
		}
		sets = append(sets, spec.column+" = ?")
		args = append(args, v)
	}
	return sets, args, nil
}

func asString(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, types.ErrInvalidData
	}
	return s, nil
}

func asName(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, types.ErrInvalidData
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, types.ErrInvalidName
	}
	return s, nil
}

func asBool(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, types.ErrInvalidData
	}
	return boolInt(b), nil
}

func asStatus(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, types.ErrInvalidData
	}
	if !types.IsValidStatus(s) {
		return nil, types.ErrInvalidState
	}
	return s, nil
}

func asRating(v any) (any, error) {
	var r float64
	switch n := v.(type) {
	case float64:
		r = n
	case float32:
		r = float64(n)
	case int:
		r = float64(n)
	case int64:
		r = float64(n)
	default:
		return nil, types.ErrInvalidData
	}
	if !types.ValidRating(r) {
		return nil, types.ErrInvalidRating
	}
	return r, nil
}

// asIDSet accepts []string or a decoded JSON array of strings and stores it
// as JSON text without blanks or repeats.
func asIDSet(v any) (any, error) {
	var ids []string
	switch s := v.(type) {
	case []string:
		ids = s
	case []any:
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, types.ErrInvalidData
			}
			ids = append(ids, str)
		}
	case nil:
	default:
		return nil, types.ErrInvalidData
	}
	return encodeIDs(ids)
}

func encodeIDs(ids []string) (string, error) {
	set := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(set, id) {
			set = append(set, id)
		}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeIDs(s string) ([]string, error) {
	ids := []string{}
	if s == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// filterString reads an optional string filter value.
func filterString(filter types.Filter, key string) (string, bool, error) {
	v, ok := filter[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, types.ErrInvalidFilter
	}
	return s, true, nil
}

// filterBool reads an optional boolean filter value.
func filterBool(filter types.Filter, key string) (bool, bool, error) {
	v, ok := filter[key]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, types.ErrInvalidFilter
	}
	return b, true, nil
}

// appendPaging adds LIMIT/OFFSET clauses from the "limit" and "offset" keys.
func appendPaging(query string, filter types.Filter) (string, error) {
	limit, offset := 0, 0
	if v, ok := filter["limit"]; ok {
		n, ok := v.(int)
		if !ok {
			return "", types.ErrInvalidFilter
		}
		limit = n
	}
	if v, ok := filter["offset"]; ok {
		n, ok := v.(int)
		if !ok {
			return "", types.ErrInvalidFilter
		}
		offset = n
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	} else if offset > 0 {
		query += " LIMIT -1"
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}
	return query, nil
}
