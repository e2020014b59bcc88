package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	appLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/lot"
	domainLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/lot"
	domainUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

type justificationRequest struct {
	Justification string `json:"justification"`
}

type overrideRequest struct {
	Reason string `json:"reason"`
	Force  bool   `json:"force,omitempty"`
}

type resourcePhaseRequest struct {
	ManifestHours int `json:"manifest_hours"`
	ResourceHours int `json:"resource_hours,omitempty"`
	CounterHours  int `json:"counter_hours,omitempty"`
}

type participationCreateRequest struct {
	SupplierID      string  `json:"supplier_id,omitempty"`
	CompanyName     string  `json:"company_name,omitempty"`
	InitialProposal float64 `json:"initial_proposal"`
}

type timerRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) getLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	l, err := s.lotSvc.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) openProposals(w http.ResponseWriter, r *http.Request) {
	s.lotCommand(w, r, s.lotSvc.OpenProposals)
}

func (s *Server) startDispute(w http.ResponseWriter, r *http.Request) {
	s.lotCommand(w, r, s.lotSvc.StartDispute)
}

func (s *Server) endDispute(w http.ResponseWriter, r *http.Request) {
	s.lotCommand(w, r, s.lotSvc.EndDispute)
}

func (s *Server) startNegotiation(w http.ResponseWriter, r *http.Request) {
	s.lotCommand(w, r, s.lotSvc.StartNegotiation)
}

func (s *Server) adjudicate(w http.ResponseWriter, r *http.Request) {
	s.lotCommand(w, r, s.lotSvc.Adjudicate)
}

func (s *Server) homologate(w http.ResponseWriter, r *http.Request) {
	s.lotCommand(w, r, s.lotSvc.Homologate)
}

func (s *Server) lotCommand(w http.ResponseWriter, r *http.Request, cmd func(context.Context, uuid.UUID, domainUser.Actor) (*domainLot.Lot, error)) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	l, err := cmd(r.Context(), id, authUserFromContext(r.Context()).Actor())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) declareWinner(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	var req justificationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	l, err := s.lotSvc.DeclareWinner(r.Context(), id, authUserFromContext(r.Context()).Actor(), req.Justification)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) openResourcePhase(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	var req resourcePhaseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	l, err := s.lotSvc.OpenResourcePhase(r.Context(), id, authUserFromContext(r.Context()).Actor(), req.ManifestHours, req.ResourceHours, req.CounterHours)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) revokeLot(w http.ResponseWriter, r *http.Request) {
	s.lotOverride(w, r, s.lotSvc.Revoke)
}

func (s *Server) cancelLot(w http.ResponseWriter, r *http.Request) {
	s.lotOverride(w, r, s.lotSvc.Cancel)
}

func (s *Server) lotOverride(w http.ResponseWriter, r *http.Request, cmd func(context.Context, uuid.UUID, domainUser.Actor, string, bool) (*domainLot.Lot, error)) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	var req overrideRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	l, err := cmd(r.Context(), id, authUserFromContext(r.Context()).Actor(), req.Reason, req.Force)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) registerParticipation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	var req participationCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	auth := authUserFromContext(r.Context())

	// Suppliers enroll themselves; the conducting side may enroll on a
	// supplier's behalf by naming the supplier_id.
	supplierID := auth.UserID
	companyName := req.CompanyName
	if req.SupplierID != "" {
		parsed, err := uuid.Parse(req.SupplierID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid supplier_id")
			return
		}
		if parsed != auth.UserID && !auth.Actor().CanConduct() {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "cannot enroll another supplier")
			return
		}
		supplierID = parsed
	}
	if companyName == "" {
		if u, err := s.userSvc.GetUser(r.Context(), supplierID); err == nil && u != nil && u.CompanyName != nil {
			companyName = *u.CompanyName
		}
	}
	p, err := s.lotSvc.RegisterParticipation(r.Context(), appLot.RegisterParticipationInput{
		LotID:           id,
		SupplierID:      supplierID,
		CompanyName:     companyName,
		InitialProposal: req.InitialProposal,
		Actor:           auth.Actor(),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) listParticipations(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	parts, err := s.lotSvc.ListParticipations(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"participations": parts})
}

func (s *Server) disqualifySupplier(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	partID, err := parseUUIDParam(r, "participationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participationId")
		return
	}
	var req justificationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	p, err := s.lotSvc.DisqualifySupplier(r.Context(), lotID, partID, authUserFromContext(r.Context()).Actor(), req.Justification)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) reclassifySupplier(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	partID, err := parseUUIDParam(r, "participationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participationId")
		return
	}
	p, err := s.lotSvc.ReclassifySupplier(r.Context(), lotID, partID, authUserFromContext(r.Context()).Actor())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) startLotTimer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	var req timerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.lotSvc.StartLotTimer(r.Context(), id, authUserFromContext(r.Context()).Actor(), req.Seconds); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "seconds": req.Seconds})
}

func (s *Server) cancelLotTimer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	if err := s.lotSvc.CancelLotTimer(r.Context(), id, authUserFromContext(r.Context()).Actor()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "OK"})
}
