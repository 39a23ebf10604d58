package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JSONList is a list column. Supabase returns it as a JSON array; the SQL
// backends store it as JSON text (jsonb on Postgres, TEXT on SQLite).
type JSONList[T any] []T

// Scan implements sql.Scanner
func (l *JSONList[T]) Scan(src interface{}) error {
	raw, err := scanBytes(src)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		*l = nil
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan json list: %w", err)
	}
	*l = out
	return nil
}

// Value implements driver.Valuer
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// RawValue keeps a column exactly as stored so legacy shapes can be parsed
// later. A JSON column arrives as its JSON text; a text column holding
// something that is not JSON is kept as a JSON string.
type RawValue json.RawMessage

// UnmarshalJSON copies the raw JSON
func (v *RawValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = nil
		return nil
	}
	*v = append((*v)[0:0], data...)
	return nil
}

// MarshalJSON writes the raw JSON back
func (v RawValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// Scan implements sql.Scanner
func (v *RawValue) Scan(src interface{}) error {
	raw, err := scanBytes(src)
	if err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		*v = nil
		return nil
	}
	if json.Valid(trimmed) {
		*v = append(RawValue(nil), trimmed...)
		return nil
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return err
	}
	*v = quoted
	return nil
}

// Value implements driver.Valuer
func (v RawValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return string(v), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NullTime is a date or timestamp column that may be empty. It accepts the
// date-only and zone-less layouts PostgREST and SQLite produce, and the
// time.Time.String form older SQLite rows were written in.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// NewNullTime wraps t
func NewNullTime(t time.Time) NullTime {
	return NullTime{Time: t, Valid: !t.IsZero()}
}

// ParseNullTime parses any of the supported layouts; an empty string is a
// valid empty value.
func ParseNullTime(s string) (NullTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullTime{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NullTime{Time: t, Valid: true}, nil
		}
	}
	return NullTime{}, fmt.Errorf("unsupported time format %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *NullTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = NullTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseNullTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t NullTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Scan implements sql.Scanner
func (t *NullTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = NullTime{}
		return nil
	case time.Time:
		*t = NewNullTime(v)
		return nil
	}
	raw, err := scanBytes(src)
	if err != nil {
		return err
	}
	parsed, err := ParseNullTime(string(raw))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer
func (t NullTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}

func scanBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}
