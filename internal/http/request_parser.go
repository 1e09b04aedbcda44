// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into v. Unknown fields and trailing
// data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// pathID parses the {id} URL parameter as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// queryInt parses an optional non-negative integer query parameter; missing
// or blank values yield 0.
func queryInt(r *http.Request, key string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// SQLRequest is the body of POST /sql.
type SQLRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
	Method string `json:"method"`
}

// decodeSQLRequest decodes a SQLRequest. Integral JSON numbers bind as
// int64 and the rest as float64, so ids compare as integers in SQLite.
func decodeSQLRequest(w http.ResponseWriter, r *http.Request) (SQLRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return SQLRequest{}, fmt.Errorf("read body: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var req SQLRequest
	if err := dec.Decode(&req); err != nil {
		return SQLRequest{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if strings.TrimSpace(req.SQL) == "" {
		return SQLRequest{}, errors.New("sql is required")
	}
	if req.Method == "" {
		req.Method = "all"
	}
	for i, p := range req.Params {
		v, err := bindValue(p)
		if err != nil {
			return SQLRequest{}, fmt.Errorf("param %d: %w", i+1, err)
		}
		req.Params[i] = v
	}
	return req, nil
}

func bindValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool:
		return val, nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		return val.Float64()
	default:
		return nil, fmt.Errorf("unsupported parameter type %T", v)
	}
}
