package http

import (
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/repository"
)

// reply writes v with status, or the mapped error when err is set.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(status).Data(v).Write(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !core.IsValidation(err) && !errors.Is(err, repository.ErrNotFound) {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	writeError(w, r, err)
}

// idOrFail parses {id}, writing a 400 and returning false when it is invalid.
func idOrFail(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r)
	if err != nil {
		withRequestID(BadRequestError(err.Error()), r).Write(w)
		return 0, false
	}
	return id, true
}

// bodyOrFail decodes the JSON body into v, writing a 400 on failure.
func bodyOrFail(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		withRequestID(BadRequestError(err.Error()), r).Write(w)
		return false
	}
	return true
}
