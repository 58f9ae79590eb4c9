package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/cloudcfg/internal/audit"
)

// recordAccess appends a read to the audit trail. Failures are logged and
// never fail the request.
func (s *Server) recordAccess(r *http.Request, action audit.Action, resource string) {
	if s.audit == nil {
		return
	}

	e := &audit.Entry{
		Action:   action,
		Resource: resource,
		Source:   audit.SourceAPI,
	}
	if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		e.RequestID = id
	}
	if claims := claimsFromContext(r.Context()); claims != nil {
		e.Subject = claims.Subject
	}

	if err := s.audit.Create(r.Context(), e); err != nil {
		s.logger.Warn("recording audit entry failed", "action", action, "error", err)
	}
}

// handleListAudit returns one page of the audit trail, newest first.
// Query: action, subject, limit (1..200, default 50), offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeUnavailable(w, "audit trail disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:  audit.Action(q.Get("action")),
		Subject: q.Get("subject"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	res, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
