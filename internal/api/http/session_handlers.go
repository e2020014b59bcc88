package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	appDispute "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/dispute"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
)

type messagePostRequest struct {
	TenderID    string  `json:"tender_id"`
	LotID       *string `json:"lot_id,omitempty"`
	SenderLabel string  `json:"sender_label,omitempty"`
	Content     string  `json:"content"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messagePostRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	tenderID, err := parseUUID(req.TenderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tender_id")
		return
	}
	var lotID *uuid.UUID
	if req.LotID != nil {
		id, err := parseUUID(*req.LotID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid lot_id")
			return
		}
		lotID = &id
	}
	m, err := s.disputeSvc.PostMessage(r.Context(), appDispute.PostMessageInput{
		TenderID:    tenderID,
		LotID:       lotID,
		Actor:       authUserFromContext(r.Context()).Actor(),
		SenderLabel: req.SenderLabel,
		Content:     req.Content,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	tenderID, err := parseUUID(r.URL.Query().Get("tender_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "tender_id required")
		return
	}
	limit, offset := parseLimitOffset(r, 200, 500)
	msgs, err := s.disputeSvc.ListMessages(r.Context(), tenderID, authUserFromContext(r.Context()).Actor(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	tenderID, err := parseUUID(r.URL.Query().Get("tender_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "tender_id required")
		return
	}
	limit, offset := parseLimitOffset(r, 200, 500)
	events, err := s.disputeSvc.ListEvents(r.Context(), tenderID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (s *Server) streamEndpoint(w http.ResponseWriter, r *http.Request) {
	tenderID, err := parseUUID(r.URL.Query().Get("tender_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "tender_id required")
		return
	}
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}
	var userPtr *string
	if auth := authUserFromContext(r.Context()); auth != nil {
		id := auth.UserID.String()
		userPtr = &id
	}
	client := dispute.NewStreamClient(clientID, userPtr, tenderID)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The watch feed is public.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// watchEndpoint is the unauthenticated websocket feed for citizens
// following a live session. Read-only: incoming frames are drained and
// discarded.
func (s *Server) watchEndpoint(w http.ResponseWriter, r *http.Request) {
	tenderID, err := parseUUID(r.URL.Query().Get("tender_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "tender_id required")
		return
	}
	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.wsHub.Register(tenderID, conn)
	defer s.wsHub.Unregister(tenderID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
