package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
)

// recordAudit stores e with the caller's identity. Without an audit
// recorder it does nothing.
func (s *Server) recordAudit(r *http.Request, e audit.Entry) {
	if s.audit == nil {
		return
	}
	if e.Actor == "" {
		if claims := claimsFromContext(r.Context()); claims != nil {
			e.Actor = claims.Subject
		}
	}
	e.Source = audit.SourceAPI
	s.audit.Record(r.Context(), e)
}

// handleListAudit returns audit entries, newest first.
//
// Query parameters: action, device_id, source, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusNotImplemented, ErrCodeNotImplemented, "audit trail is not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   audit.Action(q.Get("action")),
		DeviceID: q.Get("device_id"),
		Source:   audit.Source(q.Get("source")),
	}
	var ok bool
	if filter.Limit, ok = queryInt(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, q.Get("offset"), "offset"); !ok {
		return
	}

	res, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// queryInt parses an optional non-negative integer query parameter,
// writing a 400 when it is malformed.
func queryInt(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
