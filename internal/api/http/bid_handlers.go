package httpapi

import (
	"net/http"

	appBid "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/bid"
)

type bidSubmitRequest struct {
	ParticipationID string  `json:"participation_id"`
	Value           float64 `json:"value"`
}

func (s *Server) submitBid(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	var req bidSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	partID, err := parseUUID(req.ParticipationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participation_id")
		return
	}
	b, err := s.bidSvc.Submit(r.Context(), appBid.SubmitInput{
		LotID:           lotID,
		ParticipationID: partID,
		Value:           req.Value,
		Actor:           authUserFromContext(r.Context()).Actor(),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	remaining, _ := s.bidSvc.ConfirmRemaining(lotID, partID)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"bid":              b,
		"confirms_in_secs": int(remaining.Seconds()),
	})
}

func (s *Server) cancelBid(w http.ResponseWriter, r *http.Request) {
	bidID, err := parseUUIDParam(r, "bidId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid bidId")
		return
	}
	b, err := s.bidSvc.Cancel(r.Context(), bidID, authUserFromContext(r.Context()).Actor())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) listBids(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	bids, err := s.bidSvc.ListByLot(r.Context(), lotID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"bids": bids})
}

func (s *Server) bestBid(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseUUIDParam(r, "lotId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lotId")
		return
	}
	b, err := s.bidSvc.BestBid(r.Context(), lotID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"best_bid": b})
}
