package proxy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Method selects the result shape: every row, or only the first one.
type Method string

const (
	MethodAll   Method = "all"
	MethodFirst Method = "first"
)

// ParseMethod accepts "all" and "first". "get" is taken as "first", the name
// some ORM proxies use for single-row reads.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return MethodAll, nil
	case "first", "get":
		return MethodFirst, nil
	}
	return "", fmt.Errorf("unknown result method %q", s)
}

// Result is the shaped output of Query.
type Result struct {
	method Method
	rows   [][]any
}

func newResult(method Method, rows [][]any) Result {
	return Result{method: method, rows: rows}
}

func (r Result) Method() Method { return r.method }

// All returns every row as a slice of values. It is empty, never nil, when
// nothing came back.
func (r Result) All() [][]any {
	if r.rows == nil {
		return [][]any{}
	}
	return r.rows
}

// First returns the first row, or false when there is none.
func (r Result) First() ([]any, bool) {
	if len(r.rows) == 0 {
		return nil, false
	}
	return r.rows[0], true
}

// MarshalJSON renders {"rows": [...]} for "all" and {"rows": [...]} holding a
// single row for "first". A "first" result without rows renders {}, leaving
// rows undefined for the caller.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.method == MethodAll {
		return json.Marshal(struct {
			Rows [][]any `json:"rows"`
		}{r.All()})
	}
	first, ok := r.First()
	if !ok {
		return []byte("{}"), nil
	}
	return json.Marshal(struct {
		Rows []any `json:"rows"`
	}{first})
}
