package httpapi

import (
	"net/http"

	domainResource "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/resource"
)

type manifestRequest struct {
	ParticipationID string `json:"participation_id"`
}

type resourceSubmitRequest struct {
	Content       string  `json:"content"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
}

type counterArgumentRequest struct {
	ParticipationID string `json:"participation_id"`
	Content         string `json:"content"`
}

type judgeRequest struct {
	Decision      string `json:"decision"`
	Justification string `json:"justification"`
}

func (s *Server) manifestResource(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	var req manifestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	partID, err := parseUUID(req.ParticipationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participation_id")
		return
	}
	res, err := s.resourceSvc.ManifestIntention(r.Context(), lotID, partID, authUserFromContext(r.Context()).Actor())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) submitResource(w http.ResponseWriter, r *http.Request) {
	resourceID, err := parseUUIDParam(r, "resourceId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid resourceId")
		return
	}
	var req resourceSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.resourceSvc.SubmitResource(r.Context(), resourceID, authUserFromContext(r.Context()).Actor(), req.Content, req.AttachmentURL)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) submitCounterArgument(w http.ResponseWriter, r *http.Request) {
	resourceID, err := parseUUIDParam(r, "resourceId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid resourceId")
		return
	}
	var req counterArgumentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	partID, err := parseUUID(req.ParticipationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participation_id")
		return
	}
	ca, err := s.resourceSvc.SubmitCounterArgument(r.Context(), resourceID, partID, authUserFromContext(r.Context()).Actor(), req.Content)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ca)
}

func (s *Server) listCounterArguments(w http.ResponseWriter, r *http.Request) {
	resourceID, err := parseUUIDParam(r, "resourceId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid resourceId")
		return
	}
	cas, err := s.resourceSvc.ListCounterArguments(r.Context(), resourceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"counter_arguments": cas})
}

func (s *Server) judgeResource(w http.ResponseWriter, r *http.Request) {
	resourceID, err := parseUUIDParam(r, "resourceId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid resourceId")
		return
	}
	var req judgeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.resourceSvc.JudgeResource(r.Context(), resourceID, authUserFromContext(r.Context()).Actor(), domainResource.Decision(req.Decision), req.Justification)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	resources, err := s.resourceSvc.ListByLot(r.Context(), lotID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}
