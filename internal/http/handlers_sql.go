package http

import (
	"net/http"

	"ledger/internal/log"
	"ledger/internal/proxy"
)

// handleSQL is the ORM-facing boundary: the body names a statement, its
// positional params and the result method, and the response is the shaped
// proxy result. Driver errors reach the caller with their message, since
// the caller wrote the SQL.
func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSQLRequest(w, r)
	if err != nil {
		withRequestID(BadRequestError(err.Error()), r).Write(w)
		return
	}
	method, err := proxy.ParseMethod(req.Method)
	if err != nil {
		withRequestID(BadRequestError(err.Error()), r).Write(w)
		return
	}

	res, err := s.sql.Query(r.Context(), req.SQL, req.Params, method)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Proxied statement failed",
			log.FieldResultMode, string(method),
			log.FieldError, err)
		withRequestID(ErrorResponse(http.StatusInternalServerError, "query_failed", err.Error()), r).Write(w)
		return
	}
	NewJSONResponse().Data(res).Write(w)
}
