package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Op is a condition operator.
type Op string

// Condition operators.
const (
	OpEqual       Op = "equal"
	OpContainsDay Op = "contains_day"
)

// Condition is one predicate on a stored document field. Nested fields use
// dotted paths ("actor1.code").
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Day returns the ISO day (yyyy-mm-dd) of a contains-day condition. Values
// that are not yyyymmdd strings are returned as text unchanged.
func (c Condition) Day() string {
	s := fmt.Sprint(c.Value)
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return s
	}
	return t.Format(ISODayLayout)
}

// Match evaluates the condition against a decoded document. Missing fields
// never match.
func (c Condition) Match(doc map[string]any) bool {
	v, ok := Lookup(doc, c.Field)
	if !ok || v == nil {
		return false
	}
	switch c.Op {
	case OpEqual:
		return text(v) == text(c.Value)
	case OpContainsDay:
		return strings.Contains(text(v), c.Day())
	default:
		return false
	}
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Lookup resolves a dotted path inside a decoded document.
func Lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
