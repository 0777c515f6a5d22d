package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueList stores a heterogeneous list of attribute values (strings and
// numbers) as JSON, while tolerating legacy single-scalar data.
type ValueList []interface{}

func (l ValueList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]interface{}(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ValueList) Scan(value interface{}) error {
	if l == nil {
		return fmt.Errorf("models.ValueList: Scan on nil pointer")
	}
	if value == nil {
		*l = ValueList{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.ValueList: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*l = ValueList{}
		return nil
	}

	var arr []interface{}
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		*l = arr
		return nil
	}

	var single interface{}
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		*l = ValueList{single}
		return nil
	}

	*l = ValueList{raw}
	return nil
}

// NormalizeValue folds all numeric kinds into float64 so that values
// survive a JSON round-trip without changing identity.
func NormalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return n.String()
		}
		return f
	default:
		return v
	}
}

// Contains reports whether v is already in the list, comparing numbers
// regardless of their concrete Go type.
func (l ValueList) Contains(v interface{}) bool {
	want := NormalizeValue(v)
	for _, item := range l {
		if NormalizeValue(item) == want {
			return true
		}
	}
	return false
}

// Strings renders every value as a string, for CSV export.
func (l ValueList) Strings() []string {
	out := make([]string, 0, len(l))
	for _, item := range l {
		switch v := NormalizeValue(item).(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			out = append(out, fmt.Sprintf("%v", v))
		}
	}
	return out
}
