package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	appLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/lot"
	appTender "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/tender"
	domainTender "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/tender"
	domainUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

type tenderCreateRequest struct {
	Number   string                  `json:"number"`
	Agency   string                  `json:"agency,omitempty"`
	Title    string                  `json:"title"`
	Criteria string                  `json:"criteria"`
	Policy   *domainTender.BidPolicy `json:"policy,omitempty"`
}

type lotCreateRequest struct {
	Number         int     `json:"number"`
	Description    string  `json:"description"`
	EstimatedValue float64 `json:"estimated_value,omitempty"`
}

type chatRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) createTender(w http.ResponseWriter, r *http.Request) {
	var req tenderCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	in := appTender.CreateInput{
		Number:   req.Number,
		Agency:   req.Agency,
		Title:    req.Title,
		Criteria: domainTender.JudgmentCriteria(req.Criteria),
		Actor:    authUserFromContext(r.Context()).Actor(),
	}
	if req.Policy != nil {
		in.Policy = *req.Policy
	}
	t, err := s.tenderSvc.Create(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) listTenders(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 100)
	tenders, err := s.tenderSvc.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tenders": tenders})
}

func (s *Server) getTender(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "tenderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tenderId")
		return
	}
	t, err := s.tenderSvc.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) publishTender(w http.ResponseWriter, r *http.Request) {
	s.tenderCommand(w, r, s.tenderSvc.Publish)
}

func (s *Server) startTenderSession(w http.ResponseWriter, r *http.Request) {
	s.tenderCommand(w, r, s.tenderSvc.StartSession)
}

func (s *Server) finishTenderSession(w http.ResponseWriter, r *http.Request) {
	s.tenderCommand(w, r, s.tenderSvc.FinishSession)
}

func (s *Server) tenderCommand(w http.ResponseWriter, r *http.Request, cmd func(context.Context, uuid.UUID, domainUser.Actor) (*domainTender.Tender, error)) {
	id, err := parseUUIDParam(r, "tenderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tenderId")
		return
	}
	t, err := cmd(r.Context(), id, authUserFromContext(r.Context()).Actor())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) setChat(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "tenderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tenderId")
		return
	}
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.disputeSvc.SetChatEnabled(r.Context(), id, authUserFromContext(r.Context()).Actor(), req.Enabled); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"chat_enabled": req.Enabled})
}

func (s *Server) createLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "tenderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tenderId")
		return
	}
	var req lotCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	l, err := s.lotSvc.CreateLot(r.Context(), appLot.CreateLotInput{
		TenderID:       id,
		Number:         req.Number,
		Description:    req.Description,
		EstimatedValue: req.EstimatedValue,
		Actor:          authUserFromContext(r.Context()).Actor(),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (s *Server) listLots(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "tenderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tenderId")
		return
	}
	lots, err := s.lotSvc.ListByTender(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"lots": lots})
}
