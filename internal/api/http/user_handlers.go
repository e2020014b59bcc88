package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	appUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/user"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/audit"
	domainUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

type userCreateRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	CompanyName *string `json:"company_name,omitempty"`
}

type userUpdateRequest struct {
	Username    *string `json:"username,omitempty"`
	Role        *string `json:"role,omitempty"`
	Status      *string `json:"status,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

type passwordUpdateRequest struct {
	Password string `json:"password"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	u, err := s.userSvc.CreateUser(r.Context(), appUser.CreateInput{
		Username:    req.Username,
		Password:    req.Password,
		Role:        role,
		CompanyName: req.CompanyName,
		Status:      domainUser.StatusActive,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	filter := domainUser.Filter{}
	if v := r.URL.Query().Get("role"); v != "" {
		role, err := parseRole(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		filter.Role = &role
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := domainUser.Status(strings.ToUpper(v))
		filter.Status = &st
	}
	if v := r.URL.Query().Get("username"); v != "" {
		filter.Username = &v
	}
	users, err := s.userSvc.ListUsers(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	u, err := s.userSvc.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	var req userUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	input := appUser.UpdateInput{
		Username:    req.Username,
		CompanyName: req.CompanyName,
	}
	if req.Role != nil {
		role, err := parseRole(*req.Role)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		input.Role = &role
	}
	if req.Status != nil {
		st := domainUser.Status(strings.ToUpper(*req.Status))
		input.Status = &st
	}
	u, err := s.userSvc.UpdateUser(r.Context(), id, input)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if auth := authUserFromContext(r.Context()); auth != nil {
		s.auditSvc.Log(r.Context(), &audit.Entry{
			EntityType: audit.EntityTypeUser,
			EntityID:   u.UserID.String(),
			Action:     audit.ActionUpdate,
			Actor:      auth.Actor().ActorString(),
			ActorRole:  string(auth.Role),
			Reason:     "user updated",
		})
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) setUserPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	var req passwordUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.userSvc.SetPassword(r.Context(), id, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "OK"})
}

func parseRole(v string) (domainUser.Role, error) {
	role := domainUser.Role(strings.ToUpper(v))
	if err := domainUser.ValidateRole(role); err != nil {
		return "", fmt.Errorf("invalid role: %s", v)
	}
	return role, nil
}
