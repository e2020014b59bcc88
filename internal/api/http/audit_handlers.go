package httpapi

import (
	"net/http"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/audit"
)

func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	filter := audit.Filter{}
	if v := r.URL.Query().Get("entityType"); v != "" {
		et := audit.EntityType(v)
		filter.EntityType = &et
	}
	if v := r.URL.Query().Get("entityId"); v != "" {
		filter.EntityID = &v
	}
	if v := r.URL.Query().Get("action"); v != "" {
		a := audit.Action(v)
		filter.Action = &a
	}
	if v := r.URL.Query().Get("actor"); v != "" {
		filter.Actor = &v
	}
	logs, err := s.auditSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"audit_logs": logs})
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "auditId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid auditId")
		return
	}
	log, err := s.auditSvc.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if log == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "audit log not found")
		return
	}
	respondJSON(w, http.StatusOK, log)
}
